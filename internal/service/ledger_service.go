package service

import (
	"context"
	"fmt"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type LedgerAudit struct {
	UserId     uuid.UUID
	Balance    int
	Sum        int64
	Consistent bool
}

type ILedgerService interface {
	// OpenAccount creates the owner's wallet on first use, granting the welcome bonus once.
	OpenAccount(ctx context.Context, userId uuid.UUID) (int, error)
	Debit(ctx context.Context, userId uuid.UUID, amount int, description string, reference *uuid.UUID) (uuid.UUID, error)
	Credit(ctx context.Context, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference *uuid.UUID) (uuid.UUID, error)
	// CreditOnce appends at most one row per (kind, reference). The bool reports whether a row was written.
	CreditOnce(ctx context.Context, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference uuid.UUID) (uuid.UUID, bool, error)
	// CreditOnceWithin is CreditOnce on a unit of work opened by WithinOwner.
	CreditOnceWithin(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference uuid.UUID) (uuid.UUID, bool, error)
	Balance(ctx context.Context, userId uuid.UUID) (int, error)
	Transactions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.CreditTransaction, int64, error)
	Audit(ctx context.Context, userId uuid.UUID) (*LedgerAudit, error)

	// WithinOwner runs fn inside a transaction while holding the owner's ledger lock.
	WithinOwner(ctx context.Context, userId uuid.UUID, fn func(uow unitofwork.UnitOfWork) error) error
	// DebitWithin debits using a unit of work opened by WithinOwner.
	DebitWithin(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, amount int, description string, reference *uuid.UUID) (uuid.UUID, error)
}

type ledgerService struct {
	uowFactory     unitofwork.RepositoryFactory
	locks          *keyLocks
	welcomeCredits int
	logger         logger.ILogger
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, welcomeCredits int, log logger.ILogger) ILedgerService {
	return &ledgerService{
		uowFactory:     uowFactory,
		locks:          newKeyLocks(),
		welcomeCredits: welcomeCredits,
		logger:         log,
	}
}

func (s *ledgerService) WithinOwner(ctx context.Context, userId uuid.UUID, fn func(uow unitofwork.UnitOfWork) error) error {
	unlock := s.locks.lock(userId)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *ledgerService) OpenAccount(ctx context.Context, userId uuid.UUID) (int, error) {
	var balance int
	err := s.WithinOwner(ctx, userId, func(uow unitofwork.UnitOfWork) error {
		if err := s.ensureWallet(ctx, uow, userId); err != nil {
			return err
		}
		wallet, err := uow.CreditWalletRepository().FindByUser(ctx, userId)
		if err != nil {
			return err
		}
		balance = wallet.Balance
		return nil
	})
	return balance, err
}

func (s *ledgerService) Debit(ctx context.Context, userId uuid.UUID, amount int, description string, reference *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.WithinOwner(ctx, userId, func(uow unitofwork.UnitOfWork) error {
		var err error
		id, err = s.DebitWithin(ctx, uow, userId, amount, description, reference)
		return err
	})
	return id, err
}

func (s *ledgerService) DebitWithin(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, amount int, description string, reference *uuid.UUID) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}
	return s.appendTx(ctx, uow, userId, entity.TransactionKindUsage, -amount, description, reference)
}

func (s *ledgerService) Credit(ctx context.Context, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference *uuid.UUID) (uuid.UUID, error) {
	if err := validateCredit(kind, amount); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err := s.WithinOwner(ctx, userId, func(uow unitofwork.UnitOfWork) error {
		var err error
		id, err = s.appendTx(ctx, uow, userId, kind, amount, description, reference)
		return err
	})
	return id, err
}

func (s *ledgerService) CreditOnce(ctx context.Context, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference uuid.UUID) (uuid.UUID, bool, error) {
	if err := validateCredit(kind, amount); err != nil {
		return uuid.Nil, false, err
	}
	var (
		id      uuid.UUID
		written bool
	)
	err := s.WithinOwner(ctx, userId, func(uow unitofwork.UnitOfWork) error {
		var err error
		id, written, err = s.CreditOnceWithin(ctx, uow, userId, kind, amount, description, reference)
		return err
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, written, nil
}

func (s *ledgerService) CreditOnceWithin(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference uuid.UUID) (uuid.UUID, bool, error) {
	if err := validateCredit(kind, amount); err != nil {
		return uuid.Nil, false, err
	}
	// The row lock serializes the existence check across processes.
	if _, err := s.lockWallet(ctx, uow, userId); err != nil {
		return uuid.Nil, false, err
	}
	existing, err := uow.CreditTransactionRepository().FindOne(ctx,
		specification.ByKindAndReference{Kind: kind, ReferenceID: reference},
	)
	if err != nil {
		return uuid.Nil, false, err
	}
	if existing != nil {
		return existing.Id, false, nil
	}
	id, err := s.insert(ctx, uow, userId, kind, amount, description, &reference)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (s *ledgerService) Balance(ctx context.Context, userId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	wallet, err := uow.CreditWalletRepository().FindByUser(ctx, userId)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Balance, nil
}

func (s *ledgerService) Transactions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.CreditTransaction, int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.CreditTransactionRepository()

	total, err := repo.Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, 0, err
	}
	txs, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *ledgerService) Audit(ctx context.Context, userId uuid.UUID) (*LedgerAudit, error) {
	unlock := s.locks.lock(userId)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	wallet, err := uow.CreditWalletRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	sum, err := uow.CreditTransactionRepository().SumByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	audit := &LedgerAudit{UserId: userId, Sum: sum}
	if wallet != nil {
		audit.Balance = wallet.Balance
	}
	audit.Consistent = int64(audit.Balance) == sum
	if !audit.Consistent {
		s.logger.Error("Ledger", "Balance diverged from transaction log", map[string]interface{}{
			"user_id": userId,
			"balance": audit.Balance,
			"sum":     sum,
		})
	}
	return audit, nil
}

// ensureWallet must run under the owner lock inside an open transaction.
func (s *ledgerService) ensureWallet(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	created, err := uow.CreditWalletRepository().Ensure(ctx, userId)
	if err != nil {
		return fmt.Errorf("open wallet: %w", err)
	}
	if !created || s.welcomeCredits <= 0 {
		return nil
	}
	_, err = s.insert(ctx, uow, userId, entity.TransactionKindBonus, s.welcomeCredits, "Welcome bonus", &userId)
	return err
}

// lockWallet opens the wallet if needed and takes its row lock for the rest of the transaction.
func (s *ledgerService) lockWallet(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.CreditWallet, error) {
	if err := s.ensureWallet(ctx, uow, userId); err != nil {
		return nil, err
	}
	wallet, err := uow.CreditWalletRepository().FindByUserForUpdate(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return wallet, nil
}

// appendTx checks the locked balance and writes one ledger row plus the matching balance delta.
func (s *ledgerService) appendTx(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference *uuid.UUID) (uuid.UUID, error) {
	wallet, err := s.lockWallet(ctx, uow, userId)
	if err != nil {
		return uuid.Nil, err
	}
	if amount < 0 && wallet.Balance+amount < 0 {
		return uuid.Nil, &InsufficientFundsError{Required: -amount, Available: wallet.Balance}
	}
	return s.insert(ctx, uow, userId, kind, amount, description, reference)
}

func (s *ledgerService) insert(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, kind entity.TransactionKind, amount int, description string, reference *uuid.UUID) (uuid.UUID, error) {
	tx := &entity.CreditTransaction{
		Id:          uuid.New(),
		UserId:      userId,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		ReferenceId: reference,
	}
	if err := uow.CreditTransactionRepository().Create(ctx, tx); err != nil {
		return uuid.Nil, fmt.Errorf("append credit transaction: %w", err)
	}
	if err := uow.CreditWalletRepository().AddBalance(ctx, userId, amount); err != nil {
		return uuid.Nil, fmt.Errorf("update wallet balance: %w", err)
	}

	s.logger.Info("Ledger", "Transaction appended", map[string]interface{}{
		"user_id": userId,
		"kind":    kind,
		"amount":  amount,
	})
	return tx.Id, nil
}

func validateCredit(kind entity.TransactionKind, amount int) error {
	if amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}
	switch kind {
	case entity.TransactionKindPurchase, entity.TransactionKindRefund, entity.TransactionKindBonus:
		return nil
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("%q cannot be credited", kind)}
	}
}
