package model

import (
	"time"

	"github.com/google/uuid"
)

// CreditTransaction rows are unique per (transaction_type, reference_id) when a reference is set.
type CreditTransaction struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	TransactionType string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_credit_tx_once,where:reference_id IS NOT NULL"`
	Amount          int        `gorm:"not null"`
	Description     string     `gorm:"type:text"`
	ReferenceId     *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_credit_tx_once,where:reference_id IS NOT NULL"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;not null"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

type CreditWallet struct {
	UserId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance   int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CreditWallet) TableName() string {
	return "credit_wallets"
}

type CreditPurchase struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	PackageId    string    `gorm:"type:varchar(50);not null"`
	Credits      int       `gorm:"not null"`
	BonusCredits int       `gorm:"not null;default:0"`
	Amount       float64   `gorm:"type:decimal(10,2);not null"`
	Currency     string    `gorm:"type:varchar(3);not null"`
	Status       string    `gorm:"type:varchar(20);not null;index"`
	SnapToken    *string   `gorm:"type:varchar(255)"`
	RedirectURL  *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	SettledAt    *time.Time
}

func (CreditPurchase) TableName() string {
	return "credit_purchases"
}
