package implementation

import (
	"context"
	"errors"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/mapper"
	"ai-thumbnail-be/internal/model"
	"ai-thumbnail-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditWalletRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreditMapper
}

func NewCreditWalletRepository(db *gorm.DB) contract.CreditWalletRepository {
	return &CreditWalletRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreditMapper(),
	}
}

func (r *CreditWalletRepositoryImpl) Ensure(ctx context.Context, userId uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&model.CreditWallet{UserId: userId})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CreditWalletRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.CreditWallet, error) {
	return r.find(r.db.WithContext(ctx), userId)
}

func (r *CreditWalletRepositoryImpl) FindByUserForUpdate(ctx context.Context, userId uuid.UUID) (*entity.CreditWallet, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userId)
}

func (r *CreditWalletRepositoryImpl) find(db *gorm.DB, userId uuid.UUID) (*entity.CreditWallet, error) {
	var m model.CreditWallet
	if err := db.Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WalletToEntity(&m), nil
}

func (r *CreditWalletRepositoryImpl) AddBalance(ctx context.Context, userId uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&model.CreditWallet{}).
		Where("user_id = ?", userId).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
