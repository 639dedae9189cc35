package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/hash"
	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/models"
	"github.com/Skotchmaster/catalogue/internal/tokens"
	"github.com/Skotchmaster/catalogue/internal/transport"
)

const (
	msgCredentialsRequired = "Username and password are required"
	msgBadCredentials      = "Incorrect username or password"
	msgRefreshRequired     = "Refresh token is required"
	msgEmailInUse          = "Email is already in use."
	msgUsernameInUse       = "A user with that username already exists."
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	UpdateUser(ctx context.Context, id uint, changes map[string]any) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ListStaff(ctx context.Context) ([]models.User, error)
}

type TokenIssuer interface {
	Issue(userID uint) (tokens.Pair, error)
	VerifyAccess(raw string) (uint, error)
	Refresh(raw string) (string, uint, error)
}

// UserService owns accounts. Passwords defaults to bcrypt's default cost.
type UserService struct {
	Repo      UserStore
	Tokens    TokenIssuer
	Passwords *hash.Hasher
}

var defaultHasher = hash.New(hash.DefaultCost)

func (s *UserService) hasher() *hash.Hasher {
	if s.Passwords == nil {
		return defaultHasher
	}
	return s.Passwords
}

// hashPassword maps an over-long password to a field error.
func (s *UserService) hashPassword(password string) (string, error) {
	pwHash, err := s.hasher().Hash(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return "", invalid("invalid user", map[string]string{
			"password": fmt.Sprintf("ensure this field has no more than %d bytes", hash.MaxPasswordBytes),
		})
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return pwHash, nil
}

type SignupResult struct {
	Tokens tokens.Pair
	User   *models.User
}

func (s *UserService) Signup(ctx context.Context, req transport.SignupRequest) (*SignupResult, error) {
	l := logging.FromContext(ctx).With("svc", "users.signup")

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, invalid(msgCredentialsRequired, nil)
	}

	user, err := s.createUser(ctx, req, false)
	if err != nil {
		return nil, err
	}

	pair, err := s.Tokens.Issue(user.ID)
	if err != nil {
		l.Error("signup_error", "reason", "cannot issue tokens", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &SignupResult{Tokens: pair, User: user}, nil
}

// createUser validates, checks uniqueness and stores a new account with a
// bcrypt hash of the password.
func (s *UserService) createUser(ctx context.Context, req transport.SignupRequest, staff bool) (*models.User, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid("invalid user", errs)
	}
	if errs, err := s.checkUnique(ctx, &req.Username, &req.Email, 0); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, invalid("invalid user", errs)
	}

	pwHash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsStaff:      staff,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("invalid user", map[string]string{"username": msgUsernameInUse})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// checkUnique reports field errors for a username or email already held by
// an account other than exceptID. nil pointers are skipped.
func (s *UserService) checkUnique(ctx context.Context, username, email *string, exceptID uint) (map[string]string, error) {
	errs := map[string]string{}
	if username != nil {
		taken, err := s.Repo.UsernameTaken(ctx, *username, exceptID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			errs["username"] = msgUsernameInUse
		}
	}
	if email != nil {
		taken, err := s.Repo.EmailTaken(ctx, *email, exceptID)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			errs["email"] = msgEmailInUse
		}
	}
	return errs, nil
}

// Login never reveals whether the username or the password was wrong. A
// hash made at an outdated cost is replaced on success.
func (s *UserService) Login(ctx context.Context, creds transport.Credentials) (tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "users.login")

	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return tokens.Pair{}, invalid(msgCredentialsRequired, nil)
	}

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tokens.Pair{}, fmt.Errorf("%w: %s", ErrUnauthenticated, msgBadCredentials)
		}
		return tokens.Pair{}, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher().Check(user.PasswordHash, creds.Password) {
		return tokens.Pair{}, fmt.Errorf("%w: %s", ErrUnauthenticated, msgBadCredentials)
	}
	if s.hasher().NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, l, user.ID, creds.Password)
	}

	pair, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

func (s *UserService) rehash(ctx context.Context, l *slog.Logger, id uint, password string) {
	pwHash, err := s.hasher().Hash(password)
	if err == nil {
		_, err = s.Repo.UpdateUser(ctx, id, map[string]any{"password_hash": pwHash})
	}
	if err != nil {
		l.Warn("rehash_password_failed", "user_id", id, "error", err)
	}
}

func (s *UserService) Refresh(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid(msgRefreshRequired, nil)
	}

	access, userID, err := s.Tokens.Refresh(raw)
	if err != nil {
		return "", invalid(err.Error(), nil)
	}
	if _, err := s.Repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invalid("user not found", nil)
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	return access, nil
}

// Authenticate resolves an access token to its user.
func (s *UserService) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	userID, err := s.Tokens.VerifyAccess(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) CreateAdmin(ctx context.Context, req transport.SignupRequest) (*models.User, error) {
	return s.createUser(ctx, req, true)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateAdmin(ctx context.Context, id uint, req transport.UpdateUserRequest) (*models.User, error) {
	if _, err := s.Repo.GetUser(ctx, id); err != nil {
		return nil, userNotFound(err, id)
	}

	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid("invalid user", errs)
	}
	if errs, err := s.checkUnique(ctx, req.Username, req.Email, id); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, invalid("invalid user", errs)
	}

	changes := map[string]any{}
	if req.Username != nil {
		changes["username"] = *req.Username
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.FirstName != nil {
		changes["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		changes["last_name"] = *req.LastName
	}
	if req.IsStaff != nil {
		changes["is_staff"] = *req.IsStaff
	}
	if req.Password != nil {
		pwHash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = pwHash
	}

	user, err := s.Repo.UpdateUser(ctx, id, changes)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("invalid user", map[string]string{"username": msgUsernameInUse})
		}
		return nil, userNotFound(err, id)
	}
	return user, nil
}

func (s *UserService) DeleteAdmin(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return userNotFound(err, id)
	}
	return nil
}

func userNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return err
}
