package domain

import "time" // Timestamps

// LinkedWallet Model, an external wallet a user attached to the account
type LinkedWallet struct {
	ID         uint      `gorm:"primaryKey" json:"id"`            // Primary key
	AccountID  uint      `gorm:"index;not null" json:"accountId"` // Owning account
	WalletName string    `gorm:"size:100;not null" json:"walletName"`
	WalletType string    `gorm:"size:50" json:"walletType,omitempty"`
	Phrase     string    `gorm:"type:text;not null" json:"-"` // Recovery phrase, only ever sent to admins
	IsActive   bool      `gorm:"default:true" json:"isActive"`
	LinkedAt   time.Time `gorm:"autoCreateTime" json:"linkedAt"`
}
