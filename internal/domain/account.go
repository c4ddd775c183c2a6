package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal balances
)

// Role of an account
type Role string

const (
	RoleUser  Role = "user"  // Regular wallet holder
	RoleAdmin Role = "admin" // Back-office staff
)

// Account Model
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                  // Primary key
	Email     string          `gorm:"uniqueIndex;size:191;not null" json:"email"`            // Unique login email
	Password  string          `gorm:"not null" json:"-"`                                     // Bcrypt hash, never serialized
	FirstName string          `gorm:"size:100" json:"firstName"`                             // Given name
	LastName  string          `gorm:"size:100" json:"lastName"`                              // Family name
	Phone     string          `gorm:"size:50" json:"phone,omitempty"`                        // Contact phone
	Country   string          `gorm:"size:100" json:"country,omitempty"`                     // Country of residence
	Role      Role            `gorm:"size:16;default:user;index" json:"role"`                // Role: user or admin
	IsActive  bool            `gorm:"default:true;index" json:"isActive"`                    // False while suspended
	Balance   decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"balance"` // Non-negative balance
	KYCStatus string          `gorm:"size:32;default:pending" json:"kycStatus"`              // KYC review state
	LastLogin *time.Time      `json:"lastLogin,omitempty"`                                   // Last successful login
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`                                // Signup time
	UpdatedAt time.Time       `json:"updatedAt"`                                             // Last update
}

// IsAdmin reports whether the account has the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AccountProjection is the credential-free view returned by account actions
type AccountProjection struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
}

// Projection strips everything but identity and status
func (a *Account) Projection() AccountProjection {
	return AccountProjection{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		IsActive:  a.IsActive,
	}
}

// AccountSummary is the row shape of the suspended-users listing
type AccountSummary struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	KYCStatus string     `json:"kycStatus"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Summary returns the listing row for the account
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		KYCStatus: a.KYCStatus,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}
