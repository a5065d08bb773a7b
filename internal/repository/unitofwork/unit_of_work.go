package unitofwork

import (
	"context"

	"ai-thumbnail-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	GenerationRepository() contract.GenerationRepository
	CreditTransactionRepository() contract.CreditTransactionRepository
	CreditWalletRepository() contract.CreditWalletRepository
	CreditPurchaseRepository() contract.CreditPurchaseRepository
	AlgorithmRepository() contract.AlgorithmRepository
	TemplateRepository() contract.TemplateRepository
	ConversationRepository() contract.ConversationRepository
}
