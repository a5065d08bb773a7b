package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	err   error
	calls int
}

func (g *fakeGateway) CreateTransaction(purchase *entity.CreditPurchase, pkg entity.CreditPackage) (string, string, error) {
	g.calls++
	if g.err != nil {
		return "", "", g.err
	}
	return "snap-" + pkg.Id, "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + purchase.Id.String(), nil
}

func newPayments(t *testing.T, gateway PaymentGateway) (IPaymentService, ILedgerService, *recordingPublisher) {
	t.Helper()
	ledger, factory := newLedger(t, 10)
	publisher := &recordingPublisher{}
	return NewPaymentService(factory, ledger, gateway, testServerKey, publisher, logger.NewNopLogger()), ledger, publisher
}

func notification(orderId, status string) *dto.MidtransWebhookRequest {
	return &dto.MidtransWebhookRequest{
		TransactionStatus: status,
		OrderId:           orderId,
		StatusCode:        "200",
		GrossAmount:       "25.00",
		SignatureKey:      Signature(orderId, "200", "25.00", testServerKey),
	}
}

func TestPayments_MockGatewaySettlesImmediately(t *testing.T) {
	ctx := context.Background()
	payments, ledger, _ := newPayments(t, nil)
	owner := uuid.New()

	res, err := payments.CreatePurchase(ctx, owner, &dto.CreatePurchaseRequest{PackageId: "popular"})
	require.NoError(t, err)
	assert.Equal(t, "settled", res.Status)
	assert.Equal(t, 10+150+25, res.Balance)
	assertConsistent(t, ledger, owner)

	// Settling again is a no-op.
	require.NoError(t, payments.SettlePurchase(ctx, res.PurchaseId))
	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 185, balance)
}

func TestPayments_UnknownPackage(t *testing.T) {
	payments, _, _ := newPayments(t, nil)
	_, err := payments.CreatePurchase(context.Background(), uuid.New(), &dto.CreatePurchaseRequest{PackageId: "mega"})
	assert.ErrorIs(t, err, ErrUnknownPackage)
}

func TestPayments_GatewayPurchaseSettlesOnceFromWebhook(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	payments, ledger, publisher := newPayments(t, gateway)
	owner := uuid.New()

	res, err := payments.CreatePurchase(ctx, owner, &dto.CreatePurchaseRequest{PackageId: "starter"})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, "snap-starter", res.SnapToken)
	assert.Equal(t, 1, gateway.calls)

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, balance, "nothing credited before settlement")

	for i := 0; i < 2; i++ {
		require.NoError(t, payments.HandleNotification(ctx, notification(res.PurchaseId.String(), "settlement")))
	}

	balance, err = ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10+50, balance)
	assertConsistent(t, ledger, owner)
	assert.Contains(t, publisher.types(), events.PaymentSettled)

	// Late failure notifications do not undo a settled purchase.
	require.NoError(t, payments.HandleNotification(ctx, notification(res.PurchaseId.String(), "expire")))
	svc := payments.(*paymentService)
	purchase, err := svc.uowFactory.NewUnitOfWork(ctx).CreditPurchaseRepository().FindOne(ctx, specification.ByID{ID: res.PurchaseId})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusSettled, purchase.Status)
}

func TestPayments_RejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	payments, _, _ := newPayments(t, &fakeGateway{})

	req := notification(uuid.NewString(), "settlement")
	req.SignatureKey = "deadbeef"
	assert.ErrorIs(t, payments.HandleNotification(ctx, req), ErrInvalidSignature)

	// Same length, last character flipped.
	req = notification(uuid.NewString(), "settlement")
	sig := []byte(req.SignatureKey)
	if sig[len(sig)-1] == '0' {
		sig[len(sig)-1] = '1'
	} else {
		sig[len(sig)-1] = '0'
	}
	req.SignatureKey = string(sig)
	assert.ErrorIs(t, payments.HandleNotification(ctx, req), ErrInvalidSignature)

	err := payments.HandleNotification(ctx, notification(uuid.NewString(), "settlement"))
	assert.ErrorIs(t, err, ErrPurchaseNotFound)

	var validation *ValidationError
	err = payments.HandleNotification(ctx, notification("not-a-uuid", "settlement"))
	assert.True(t, errors.As(err, &validation))
}

func TestPayments_DeniedPurchaseIsNeverCredited(t *testing.T) {
	ctx := context.Background()
	payments, ledger, _ := newPayments(t, &fakeGateway{})
	owner := uuid.New()

	res, err := payments.CreatePurchase(ctx, owner, &dto.CreatePurchaseRequest{PackageId: "pro"})
	require.NoError(t, err)

	require.NoError(t, payments.HandleNotification(ctx, notification(res.PurchaseId.String(), "deny")))
	require.NoError(t, payments.HandleNotification(ctx, notification(res.PurchaseId.String(), "settlement")))

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestPayments_GatewayErrorMarksPurchaseFailed(t *testing.T) {
	ctx := context.Background()
	payments, _, _ := newPayments(t, &fakeGateway{err: errors.New("midtrans error: 401")})

	_, err := payments.CreatePurchase(ctx, uuid.New(), &dto.CreatePurchaseRequest{PackageId: "starter"})
	require.Error(t, err)

	svc := payments.(*paymentService)
	failed, err := svc.uowFactory.NewUnitOfWork(ctx).CreditPurchaseRepository().FindAll(ctx, specification.ByPurchaseStatus{Status: entity.PurchaseStatusFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestPayments_SettledEventIsIdempotent(t *testing.T) {
	ctx := context.Background()
	payments, ledger, _ := newPayments(t, &fakeGateway{})
	owner := uuid.New()

	res, err := payments.CreatePurchase(ctx, owner, &dto.CreatePurchaseRequest{PackageId: "popular"})
	require.NoError(t, err)

	evt := events.New(events.PaymentSettled, map[string]interface{}{"purchase_id": res.PurchaseId.String()})
	require.NoError(t, payments.HandleSettledEvent(ctx, evt))
	require.NoError(t, payments.HandleSettledEvent(ctx, evt))
	require.NoError(t, payments.HandleSettledEvent(ctx, events.New(events.PaymentSettled, map[string]interface{}{"purchase_id": uuid.NewString()})))

	balance, err := ledger.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10+150+25, balance)
	assertConsistent(t, ledger, owner)
}

func TestPayments_SettlementRacingDenialCreditsOnlySettled(t *testing.T) {
	ctx := context.Background()
	payments, ledger, _ := newPayments(t, &fakeGateway{})
	svc := payments.(*paymentService)

	for i := 0; i < 20; i++ {
		owner := uuid.New()
		res, err := payments.CreatePurchase(ctx, owner, &dto.CreatePurchaseRequest{PackageId: "starter"})
		require.NoError(t, err)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for _, status := range []string{"settlement", "deny"} {
			wg.Add(1)
			go func(status string) {
				defer wg.Done()
				<-start
				assert.NoError(t, payments.HandleNotification(ctx, notification(res.PurchaseId.String(), status)))
			}(status)
		}
		close(start)
		wg.Wait()

		purchase, err := svc.uowFactory.NewUnitOfWork(ctx).CreditPurchaseRepository().FindOne(ctx, specification.ByID{ID: res.PurchaseId})
		require.NoError(t, err)
		balance, err := ledger.Balance(ctx, owner)
		require.NoError(t, err)

		switch purchase.Status {
		case entity.PurchaseStatusSettled:
			assert.Equal(t, 10+50, balance)
		case entity.PurchaseStatusFailed:
			assert.Zero(t, balance, "failed purchase must not be credited")
		default:
			t.Fatalf("purchase left in %s", purchase.Status)
		}
		assertConsistent(t, ledger, owner)
	}
}
