package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

var creditPackages = []entity.CreditPackage{
	{Id: "starter", Name: "Starter Pack", Credits: 50, BonusCredits: 0, Price: 9.99, Currency: "USD"},
	{Id: "popular", Name: "Popular Pack", Credits: 150, BonusCredits: 25, Price: 24.99, Currency: "USD"},
	{Id: "pro", Name: "Pro Pack", Credits: 300, BonusCredits: 75, Price: 49.99, Currency: "USD"},
}

func findPackage(id string) (entity.CreditPackage, bool) {
	for _, p := range creditPackages {
		if p.Id == id {
			return p, true
		}
	}
	return entity.CreditPackage{}, false
}

// PaymentGateway opens a hosted checkout for a pending purchase.
type PaymentGateway interface {
	CreateTransaction(purchase *entity.CreditPurchase, pkg entity.CreditPackage) (token string, redirectURL string, err error)
}

type midtransGateway struct {
	client    snap.Client
	finishURL string
}

func NewMidtransGateway(serverKey string, production bool, finishURL string) PaymentGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &midtransGateway{finishURL: finishURL}
	g.client.New(serverKey, env)
	return g
}

func (g *midtransGateway) CreateTransaction(purchase *entity.CreditPurchase, pkg entity.CreditPackage) (string, string, error) {
	amount := int64(math.Ceil(pkg.Price))
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  purchase.Id.String(),
			GrossAmt: amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: g.finishURL,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    pkg.Id,
				Price: amount,
				Qty:   1,
				Name:  pkg.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	resp, midErr := g.client.CreateTransaction(req)
	if midErr != nil {
		return "", "", fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}
	return resp.Token, resp.RedirectURL, nil
}

type IPaymentService interface {
	Packages() []*dto.CreditPackageResponse
	CreatePurchase(ctx context.Context, userId uuid.UUID, req *dto.CreatePurchaseRequest) (*dto.CreatePurchaseResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
	// SettlePurchase credits a purchase exactly once, however often it is called.
	SettlePurchase(ctx context.Context, purchaseId uuid.UUID) error
	// HandleSettledEvent is the bus consumer for PAYMENT_SETTLED.
	HandleSettledEvent(ctx context.Context, event events.Event) error
}

type paymentService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     ILedgerService
	gateway    PaymentGateway
	serverKey  string
	publisher  events.Publisher
	logger     logger.ILogger
}

// NewPaymentService settles purchases immediately when gateway is nil.
func NewPaymentService(uowFactory unitofwork.RepositoryFactory, ledger ILedgerService, gateway PaymentGateway, serverKey string, publisher events.Publisher, log logger.ILogger) IPaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &paymentService{
		uowFactory: uowFactory,
		ledger:     ledger,
		gateway:    gateway,
		serverKey:  serverKey,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *paymentService) Packages() []*dto.CreditPackageResponse {
	res := make([]*dto.CreditPackageResponse, len(creditPackages))
	for i, p := range creditPackages {
		res[i] = &dto.CreditPackageResponse{
			Id:           p.Id,
			Name:         p.Name,
			Credits:      p.Credits,
			BonusCredits: p.BonusCredits,
			Price:        p.Price,
			Currency:     p.Currency,
		}
	}
	return res
}

func (s *paymentService) CreatePurchase(ctx context.Context, userId uuid.UUID, req *dto.CreatePurchaseRequest) (*dto.CreatePurchaseResponse, error) {
	pkg, ok := findPackage(req.PackageId)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, req.PackageId)
	}

	purchase := &entity.CreditPurchase{
		Id:           uuid.New(),
		UserId:       userId,
		PackageId:    pkg.Id,
		Credits:      pkg.Credits,
		BonusCredits: pkg.BonusCredits,
		Amount:       pkg.Price,
		Currency:     pkg.Currency,
		Status:       entity.PurchaseStatusPending,
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CreditPurchaseRepository().Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	res := &dto.CreatePurchaseResponse{PurchaseId: purchase.Id}

	if s.gateway == nil {
		s.logger.Info("Payment", "No gateway configured, settling purchase immediately", map[string]interface{}{
			"purchase_id": purchase.Id,
			"package":     pkg.Id,
		})
		if err := s.SettlePurchase(ctx, purchase.Id); err != nil {
			return nil, err
		}
		res.Status = string(entity.PurchaseStatusSettled)
	} else {
		token, redirectURL, err := s.gateway.CreateTransaction(purchase, pkg)
		if err != nil {
			if _, terr := uow.CreditPurchaseRepository().Transition(ctx, purchase.Id, entity.PurchaseStatusPending, entity.PurchaseStatusFailed); terr != nil {
				s.logger.Error("Payment", "Failed to mark purchase failed", map[string]interface{}{"purchase_id": purchase.Id, "error": terr.Error()})
			}
			return nil, err
		}
		purchase.SnapToken = &token
		purchase.RedirectURL = &redirectURL
		if err := uow.CreditPurchaseRepository().Update(ctx, purchase); err != nil {
			return nil, err
		}
		res.Status = string(entity.PurchaseStatusPending)
		res.SnapToken = token
		res.RedirectURL = redirectURL
	}

	balance, err := s.ledger.Balance(ctx, userId)
	if err != nil {
		return nil, err
	}
	res.Balance = balance
	return res, nil
}

// Signature returns the gateway signature for a notification: SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderId, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderId+statusCode+grossAmount+serverKey)))
}

func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.serverKey == "" {
		s.logger.Error("Payment", "Notification received but no server key is configured", nil)
		return ErrInvalidSignature
	}
	expected := Signature(req.OrderId, req.StatusCode, req.GrossAmount, s.serverKey)
	if subtle.ConstantTimeCompare([]byte(req.SignatureKey), []byte(expected)) != 1 {
		s.logger.Warn("Payment", "Notification signature mismatch", map[string]interface{}{"order_id": req.OrderId})
		return ErrInvalidSignature
	}

	purchaseId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return &ValidationError{Field: "order_id", Message: "invalid order id format"}
	}

	s.logger.Info("Payment", "Processing notification", map[string]interface{}{
		"purchase_id": purchaseId,
		"status":      req.TransactionStatus,
	})

	switch req.TransactionStatus {
	case "capture":
		if req.FraudStatus == "challenge" {
			return nil
		}
		fallthrough
	case "settlement":
		if err := s.SettlePurchase(ctx, purchaseId); err != nil {
			return err
		}
		s.publishSettled(ctx, purchaseId)
		return nil
	case "deny", "cancel", "expire":
		uow := s.uowFactory.NewUnitOfWork(ctx)
		purchase, err := uow.CreditPurchaseRepository().FindOne(ctx, specification.ByID{ID: purchaseId})
		if err != nil {
			return err
		}
		if purchase == nil {
			return ErrPurchaseNotFound
		}
		if _, err := uow.CreditPurchaseRepository().Transition(ctx, purchaseId, entity.PurchaseStatusPending, entity.PurchaseStatusFailed); err != nil {
			return err
		}
		return nil
	default:
		// pending and unknown statuses need no action
		return nil
	}
}

func (s *paymentService) SettlePurchase(ctx context.Context, purchaseId uuid.UUID) error {
	purchase, err := s.uowFactory.NewUnitOfWork(ctx).CreditPurchaseRepository().FindOne(ctx, specification.ByID{ID: purchaseId})
	if err != nil {
		return err
	}
	if purchase == nil {
		return ErrPurchaseNotFound
	}

	// The status flip and the credits commit together; only the transaction that wins the flip credits.
	var settled bool
	err = s.ledger.WithinOwner(ctx, purchase.UserId, func(uow unitofwork.UnitOfWork) error {
		ok, err := uow.CreditPurchaseRepository().Transition(ctx, purchaseId, entity.PurchaseStatusPending, entity.PurchaseStatusSettled)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, _, err := s.ledger.CreditOnceWithin(ctx, uow, purchase.UserId, entity.TransactionKindPurchase, purchase.Credits,
			fmt.Sprintf("Purchased %s package", purchase.PackageId), purchase.Id); err != nil {
			return fmt.Errorf("credit purchase: %w", err)
		}
		if purchase.BonusCredits > 0 {
			if _, _, err := s.ledger.CreditOnceWithin(ctx, uow, purchase.UserId, entity.TransactionKindBonus, purchase.BonusCredits,
				fmt.Sprintf("Bonus credits for %s package", purchase.PackageId), purchase.Id); err != nil {
				return fmt.Errorf("credit bonus: %w", err)
			}
		}
		settled = true
		return nil
	})
	if err != nil {
		return err
	}

	if !settled {
		s.logger.Info("Payment", "Purchase is no longer pending, nothing to settle", map[string]interface{}{"purchase_id": purchaseId})
		return nil
	}
	s.logger.Info("Payment", "Purchase settled", map[string]interface{}{
		"purchase_id": purchaseId,
		"user_id":     purchase.UserId,
		"credits":     purchase.Credits + purchase.BonusCredits,
	})
	return nil
}

func (s *paymentService) HandleSettledEvent(ctx context.Context, event events.Event) error {
	raw, ok := event.Payload()["purchase_id"].(string)
	if !ok {
		s.logger.Warn("Payment", "PAYMENT_SETTLED event without purchase_id", nil)
		return nil
	}
	purchaseId, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	err = s.SettlePurchase(ctx, purchaseId)
	if errors.Is(err, ErrPurchaseNotFound) {
		return nil
	}
	return err
}

func (s *paymentService) publishSettled(ctx context.Context, purchaseId uuid.UUID) {
	evt := events.New(events.PaymentSettled, map[string]interface{}{"purchase_id": purchaseId.String()})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Payment", "Failed to publish PAYMENT_SETTLED", map[string]interface{}{"error": err.Error()})
	}
}
