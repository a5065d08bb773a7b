package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreditBalanceResponse struct {
	Balance int `json:"balance"`
}

type CreditTransactionResponse struct {
	Id          uuid.UUID  `json:"id"`
	Type        string     `json:"transaction_type"`
	Amount      int        `json:"amount"`
	Description string     `json:"description"`
	ReferenceId *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ListTransactionsRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type ListTransactionsResponse struct {
	Items []*CreditTransactionResponse `json:"items"`
	Total int64                        `json:"total"`
	Page  int                          `json:"page"`
	Limit int                          `json:"limit"`
}

type CreditPackageResponse struct {
	Id           string  `json:"id"`
	Name         string  `json:"name"`
	Credits      int     `json:"credits"`
	BonusCredits int     `json:"bonus_credits"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
}

type CreatePurchaseRequest struct {
	PackageId string `json:"package_id" validate:"required,oneof=starter popular pro"`
}

type CreatePurchaseResponse struct {
	PurchaseId  uuid.UUID `json:"purchase_id"`
	Status      string    `json:"status"`
	SnapToken   string    `json:"snap_token,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	Balance     int       `json:"balance"`
}

// MidtransWebhookRequest is the gateway's HTTP notification body.
type MidtransWebhookRequest struct {
	TransactionStatus string `json:"transaction_status" validate:"required"`
	OrderId           string `json:"order_id" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	// Signature validation fields
	SignatureKey string `json:"signature_key" validate:"required"`
	StatusCode   string `json:"status_code"`
	GrossAmount  string `json:"gross_amount"`
}
