package implementation

import (
	"context"
	"errors"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/mapper"
	"ai-thumbnail-be/internal/model"
	"ai-thumbnail-be/internal/repository/contract"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditPurchaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreditMapper
}

func NewCreditPurchaseRepository(db *gorm.DB) contract.CreditPurchaseRepository {
	return &CreditPurchaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreditMapper(),
	}
}

func (r *CreditPurchaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CreditPurchaseRepositoryImpl) Create(ctx context.Context, purchase *entity.CreditPurchase) error {
	m := r.mapper.PurchaseToModel(purchase)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*purchase = *r.mapper.PurchaseToEntity(m)
	return nil
}

func (r *CreditPurchaseRepositoryImpl) Update(ctx context.Context, purchase *entity.CreditPurchase) error {
	m := r.mapper.PurchaseToModel(purchase)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*purchase = *r.mapper.PurchaseToEntity(m)
	return nil
}

func (r *CreditPurchaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditPurchase, error) {
	var m model.CreditPurchase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PurchaseToEntity(&m), nil
}

func (r *CreditPurchaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditPurchase, error) {
	var models []*model.CreditPurchase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CreditPurchase, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PurchaseToEntity(m)
	}
	return entities, nil
}

func (r *CreditPurchaseRepositoryImpl) Transition(ctx context.Context, id uuid.UUID, from entity.PurchaseStatus, to entity.PurchaseStatus) (bool, error) {
	updates := map[string]interface{}{"status": string(to)}
	if to == entity.PurchaseStatusSettled {
		updates["settled_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).
		Model(&model.CreditPurchase{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
