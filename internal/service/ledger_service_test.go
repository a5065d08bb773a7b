package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, welcome int) (ILedgerService, unitofwork.RepositoryFactory) {
	t.Helper()
	factory := unitofwork.NewRepositoryFactory(testdb.New(t))
	return NewLedgerService(factory, welcome, logger.NewNopLogger()), factory
}

func assertConsistent(t *testing.T, ledger ILedgerService, owner uuid.UUID) {
	t.Helper()
	audit, err := ledger.Audit(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, audit.Consistent, "balance %d vs sum %d", audit.Balance, audit.Sum)
}

func TestLedger_OpenAccountGrantsWelcomeOnce(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 10)
	owner := uuid.New()

	balance, err := ledger.OpenAccount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = ledger.OpenAccount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	txs, total, err := ledger.Transactions(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entity.TransactionKindBonus, txs[0].Kind)
	assertConsistent(t, ledger, owner)
}

func TestLedger_DebitAndCredit(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 10)
	owner := uuid.New()
	ref := uuid.New()

	_, err := ledger.Debit(ctx, owner, 3, "Thumbnail generation (premium)", &ref)
	require.NoError(t, err)

	_, err = ledger.Credit(ctx, owner, entity.TransactionKindRefund, 3, "Refund", &ref)
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, owner, 5, "Thumbnail generation (pro)", nil)
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	txs, total, err := ledger.Transactions(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	for _, tx := range txs {
		if tx.Kind == entity.TransactionKindUsage {
			assert.Negative(t, tx.Amount)
		}
	}
	assertConsistent(t, ledger, owner)
}

func TestLedger_InsufficientFundsMutatesNothing(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 2)
	owner := uuid.New()

	_, err := ledger.Debit(ctx, owner, 5, "Thumbnail generation (pro)", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Required)
	assert.Equal(t, 2, insufficient.Available)

	// The whole transaction rolled back, welcome bonus included.
	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
	_, total, err := ledger.Transactions(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 10)
	owner := uuid.New()
	_, err := ledger.OpenAccount(ctx, owner)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
		start   = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.Debit(ctx, owner, 7, "Thumbnail generation", nil)
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
	assertConsistent(t, ledger, owner)
}

func TestLedger_ManyOwnersInParallelStayConsistent(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 10)
	owners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for _, owner := range owners {
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func(owner uuid.UUID, i int) {
				defer wg.Done()
				if i%2 == 0 {
					_, _ = ledger.Debit(ctx, owner, 3, "usage", nil)
				} else {
					_, _ = ledger.Credit(ctx, owner, entity.TransactionKindBonus, 1, "promo", nil)
				}
			}(owner, i)
		}
	}
	wg.Wait()

	for _, owner := range owners {
		balance, err := ledger.Balance(ctx, owner)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, balance, 0)
		assertConsistent(t, ledger, owner)
	}
}

func TestLedger_CreditOnceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 0)
	owner := uuid.New()
	purchase := uuid.New()

	first, written, err := ledger.CreditOnce(ctx, owner, entity.TransactionKindPurchase, 50, "Starter pack", purchase)
	require.NoError(t, err)
	assert.True(t, written)

	second, written, err := ledger.CreditOnce(ctx, owner, entity.TransactionKindPurchase, 50, "Starter pack", purchase)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, first, second)

	// Same reference, different kind is a separate event.
	_, written, err = ledger.CreditOnce(ctx, owner, entity.TransactionKindBonus, 25, "Starter pack bonus", purchase)
	require.NoError(t, err)
	assert.True(t, written)

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 75, balance)
}

func TestLedger_CreditOnceAcrossInstancesWritesOneRow(t *testing.T) {
	ctx := context.Background()
	first, factory := newLedger(t, 10)
	// A second service over the same database shares no in-process locks with the first.
	second := NewLedgerService(factory, 10, logger.NewNopLogger())
	owner := uuid.New()
	generation := uuid.New()

	start := make(chan struct{})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written int
	)
	for _, l := range []ILedgerService{first, second, first, second} {
		wg.Add(1)
		go func(l ILedgerService) {
			defer wg.Done()
			<-start
			_, ok, err := l.CreditOnce(ctx, owner, entity.TransactionKindRefund, 3, "Refund for failed generation", generation)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				written++
				mu.Unlock()
			}
		}(l)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, written)
	balance, err := first.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10+3, balance)
	assertConsistent(t, first, owner)
}

func TestLedger_RejectsInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, 10)
	owner := uuid.New()

	tests := []struct {
		name string
		call func() error
	}{
		{"zero debit", func() error { _, err := ledger.Debit(ctx, owner, 0, "", nil); return err }},
		{"negative credit", func() error {
			_, err := ledger.Credit(ctx, owner, entity.TransactionKindBonus, -1, "", nil)
			return err
		}},
		{"usage credit", func() error {
			_, err := ledger.Credit(ctx, owner, entity.TransactionKindUsage, 1, "", nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var validation *ValidationError
			assert.ErrorAs(t, tt.call(), &validation)
		})
	}

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
