package transport

import "github.com/Skotchmaster/catalogue/internal/models"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Username  string `json:"username"   validate:"required,max=150"`
	Password  string `json:"password"   validate:"required"`
	Email     string `json:"email"      validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name"  validate:"max=150"`
}

func (r *SignupRequest) Validate() FieldErrors {
	trim(&r.Username)
	trim(&r.Email)
	trim(&r.FirstName)
	trim(&r.LastName)
	return validateStruct(r)
}

type UpdateUserRequest struct {
	Username  *string `json:"username"   validate:"omitempty,min=1,max=150"`
	Password  *string `json:"password"   validate:"omitempty,min=1"`
	Email     *string `json:"email"      validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name"  validate:"omitempty,max=150"`
	IsStaff   *bool   `json:"is_staff"`
}

func (r *UpdateUserRequest) Validate() FieldErrors {
	trim(r.Username)
	trim(r.Email)
	trim(r.FirstName)
	trim(r.LastName)
	return validateStruct(r)
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenPairResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type SignupResponse struct {
	Refresh string      `json:"refresh"`
	Access  string      `json:"access"`
	User    models.User `json:"user"`
}

type AccessResponse struct {
	Access string `json:"access"`
}
