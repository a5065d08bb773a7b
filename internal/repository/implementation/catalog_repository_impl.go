package implementation

import (
	"context"
	"errors"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/mapper"
	"ai-thumbnail-be/internal/model"
	"ai-thumbnail-be/internal/repository/contract"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlgorithmRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewAlgorithmRepository(db *gorm.DB) contract.AlgorithmRepository {
	return &AlgorithmRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *AlgorithmRepositoryImpl) Upsert(ctx context.Context, algorithm *entity.Algorithm) error {
	m := r.mapper.AlgorithmToModel(algorithm)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "description", "cost_credits", "is_active", "parameters"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*algorithm = *r.mapper.AlgorithmToEntity(m)
	return nil
}

func (r *AlgorithmRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Algorithm, error) {
	var m model.Algorithm
	query := applySpecs(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AlgorithmToEntity(&m), nil
}

func (r *AlgorithmRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Algorithm, error) {
	var models []*model.Algorithm
	if err := applySpecs(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Algorithm, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AlgorithmToEntity(m)
	}
	return entities, nil
}

type TemplateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewTemplateRepository(db *gorm.DB) contract.TemplateRepository {
	return &TemplateRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, template *entity.Template) error {
	m := r.mapper.TemplateToModel(template)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*template = *r.mapper.TemplateToEntity(m)
	return nil
}

func (r *TemplateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Template, error) {
	var models []*model.Template
	if err := applySpecs(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Template, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TemplateToEntity(m)
	}
	return entities, nil
}

func (r *TemplateRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecs(r.db.WithContext(ctx).Model(&model.Template{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TemplateRepositoryImpl) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Template{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

func applySpecs(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
