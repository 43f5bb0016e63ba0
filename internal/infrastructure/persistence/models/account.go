package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/isow/backend/internal/domain/account"
)

// AccountModel is the persistence model for local credentials
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string    `gorm:"type:varchar(255)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain account
func (m *AccountModel) ToDomain() *account.Account {
	return &account.Account{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// AccountModelFromDomain creates a persistence model from a domain account
func AccountModelFromDomain(a *account.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
