package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindUsage    TransactionKind = "usage"
	TransactionKindRefund   TransactionKind = "refund"
	TransactionKindBonus    TransactionKind = "bonus"
)

// CreditTransaction is append-only. Usage rows carry a negative amount.
type CreditTransaction struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Kind        TransactionKind
	Amount      int
	Description string
	ReferenceId *uuid.UUID
	CreatedAt   time.Time
}

// CreditWallet holds the running balance, always equal to the sum of the owner's transactions.
type CreditWallet struct {
	UserId    uuid.UUID
	Balance   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreditPackage struct {
	Id           string
	Name         string
	Credits      int
	BonusCredits int
	Price        float64
	Currency     string
}

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusSettled PurchaseStatus = "settled"
	PurchaseStatusFailed  PurchaseStatus = "failed"
)

type CreditPurchase struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	PackageId    string
	Credits      int
	BonusCredits int
	Amount       float64
	Currency     string
	Status       PurchaseStatus
	SnapToken    *string
	RedirectURL  *string
	CreatedAt    time.Time
	SettledAt    *time.Time
}
