package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal amounts
)

// Kind of a transaction
type Kind string

const (
	KindDeposit    Kind = "deposit"    // Incoming funds, credited on confirm
	KindWithdrawal Kind = "withdrawal" // Outgoing funds, held at creation
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Status of a transaction
type Status string

const (
	StatusPending   Status = "pending"   // Awaiting an admin decision
	StatusConfirmed Status = "confirmed" // Terminal
	StatusRejected  Status = "rejected"  // Terminal
)

// Terminal reports whether no further transition is allowed
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// Metadata keys written by the state machine
const (
	MetaNewBalance = "newBalance" // Account balance after settlement
	MetaResolvedBy = "resolvedBy" // Admin account that resolved the transaction
)

// Transaction Model
type Transaction struct {
	ID         string          `gorm:"primaryKey;size:36" json:"transactionId"`              // UUID
	AccountID  uint            `gorm:"index;not null" json:"accountId"`                      // Owning account
	Kind       Kind            `gorm:"size:16;index;not null" json:"kind"`                   // deposit or withdrawal
	Amount     decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`           // Positive amount
	Currency   string          `gorm:"size:16;not null" json:"cryptocurrency"`               // Currency code
	Status     Status          `gorm:"size:16;index;not null;default:pending" json:"status"` // Lifecycle status
	ToAddress  string          `gorm:"size:255" json:"toAddress,omitempty"`                  // Withdrawal destination
	TxHash     string          `gorm:"size:255" json:"txHash,omitempty"`                     // Deposit chain hash
	Metadata   map[string]any  `gorm:"serializer:json" json:"metadata,omitempty"`            // Free-form data
	CreatedAt  time.Time       `gorm:"index" json:"createdAt"`                               // Request time
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`                                 // Confirm or reject time
}
