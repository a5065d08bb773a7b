package specification

import (
	"ai-thumbnail-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByKindAndReference matches the ledger row written for a given business event.
type ByKindAndReference struct {
	Kind        entity.TransactionKind
	ReferenceID uuid.UUID
}

func (s ByKindAndReference) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transaction_type = ? AND reference_id = ?", string(s.Kind), s.ReferenceID)
}

type ByKind struct {
	Kind entity.TransactionKind
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transaction_type = ?", string(s.Kind))
}

type ByPurchaseStatus struct {
	Status entity.PurchaseStatus
}

func (s ByPurchaseStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}
