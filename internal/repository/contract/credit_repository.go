package contract

import (
	"context"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CreditTransactionRepository interface {
	Create(ctx context.Context, tx *entity.CreditTransaction) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditTransaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SumByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}

type CreditWalletRepository interface {
	// Ensure creates an empty wallet if none exists and reports whether it did.
	Ensure(ctx context.Context, userId uuid.UUID) (bool, error)
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.CreditWallet, error)
	// FindByUserForUpdate locks the wallet row until the surrounding transaction ends.
	FindByUserForUpdate(ctx context.Context, userId uuid.UUID) (*entity.CreditWallet, error)
	AddBalance(ctx context.Context, userId uuid.UUID, delta int) error
}

type CreditPurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.CreditPurchase) error
	Update(ctx context.Context, purchase *entity.CreditPurchase) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditPurchase, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditPurchase, error)
	Transition(ctx context.Context, id uuid.UUID, from entity.PurchaseStatus, to entity.PurchaseStatus) (bool, error)
}
