package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	SKU       string          `gorm:"primaryKey;type:uuid"            json:"sku"`
	Name      string          `gorm:"size:255;not null"               json:"name"`
	Brand     string          `gorm:"size:255;not null"               json:"brand"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"     json:"price"`
	Views     int             `gorm:"not null;default:0"              json:"views"`
	CreatedAt time.Time       `gorm:"index"                           json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// BeforeCreate assigns a sku when the caller did not supply one.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.SKU == "" {
		p.SKU = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the view counter non-negative.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Views < 0 {
		p.Views = 0
	}
	return nil
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"size:150;unique;not null"  json:"username"`
	Email        string    `gorm:"size:254;unique;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	FirstName    string    `gorm:"size:150"                  json:"first_name"`
	LastName     string    `gorm:"size:150"                  json:"last_name"`
	IsStaff      bool      `gorm:"not null;default:false"    json:"is_staff"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// All returns every model the store migrates.
func All() []any {
	return []any{&Product{}, &User{}}
}
