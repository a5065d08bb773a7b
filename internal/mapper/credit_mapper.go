package mapper

import (
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/model"
)

type CreditMapper struct{}

func NewCreditMapper() *CreditMapper {
	return &CreditMapper{}
}

func (m *CreditMapper) TransactionToEntity(t *model.CreditTransaction) *entity.CreditTransaction {
	if t == nil {
		return nil
	}
	return &entity.CreditTransaction{
		Id:          t.Id,
		UserId:      t.UserId,
		Kind:        entity.TransactionKind(t.TransactionType),
		Amount:      t.Amount,
		Description: t.Description,
		ReferenceId: t.ReferenceId,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *CreditMapper) TransactionToModel(t *entity.CreditTransaction) *model.CreditTransaction {
	if t == nil {
		return nil
	}
	return &model.CreditTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		TransactionType: string(t.Kind),
		Amount:          t.Amount,
		Description:     t.Description,
		ReferenceId:     t.ReferenceId,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *CreditMapper) WalletToEntity(w *model.CreditWallet) *entity.CreditWallet {
	if w == nil {
		return nil
	}
	return &entity.CreditWallet{
		UserId:    w.UserId,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (m *CreditMapper) PurchaseToEntity(p *model.CreditPurchase) *entity.CreditPurchase {
	if p == nil {
		return nil
	}
	return &entity.CreditPurchase{
		Id:           p.Id,
		UserId:       p.UserId,
		PackageId:    p.PackageId,
		Credits:      p.Credits,
		BonusCredits: p.BonusCredits,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       entity.PurchaseStatus(p.Status),
		SnapToken:    p.SnapToken,
		RedirectURL:  p.RedirectURL,
		CreatedAt:    p.CreatedAt,
		SettledAt:    p.SettledAt,
	}
}

func (m *CreditMapper) PurchaseToModel(p *entity.CreditPurchase) *model.CreditPurchase {
	if p == nil {
		return nil
	}
	return &model.CreditPurchase{
		Id:           p.Id,
		UserId:       p.UserId,
		PackageId:    p.PackageId,
		Credits:      p.Credits,
		BonusCredits: p.BonusCredits,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       string(p.Status),
		SnapToken:    p.SnapToken,
		RedirectURL:  p.RedirectURL,
		CreatedAt:    p.CreatedAt,
		SettledAt:    p.SettledAt,
	}
}
