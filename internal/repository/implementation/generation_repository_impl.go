package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/mapper"
	"ai-thumbnail-be/internal/model"
	"ai-thumbnail-be/internal/repository/contract"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GenerationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GenerationMapper
}

func NewGenerationRepository(db *gorm.DB) contract.GenerationRepository {
	return &GenerationRepositoryImpl{
		db:     db,
		mapper: mapper.NewGenerationMapper(),
	}
}

func (r *GenerationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GenerationRepositoryImpl) Create(ctx context.Context, generation *entity.Generation) error {
	m := r.mapper.ToModel(generation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*generation = *r.mapper.ToEntity(m)
	return nil
}

func (r *GenerationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Generation, error) {
	var m model.Generation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GenerationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Generation, error) {
	var models []*model.Generation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Generation, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *GenerationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Generation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GenerationRepositoryImpl) Transition(ctx context.Context, id uuid.UUID, from []entity.GenerationStatus, to entity.GenerationStatus, patch contract.GenerationTransition) (bool, error) {
	fromStrings := make([]string, len(from))
	for i, st := range from {
		fromStrings[i] = string(st)
	}

	updates := map[string]interface{}{"status": string(to)}
	if patch.Progress != nil {
		updates["progress"] = *patch.Progress
	}
	if patch.ErrorMessage != nil {
		updates["error_message"] = *patch.ErrorMessage
	}
	if patch.ResultURL != nil {
		updates["result_url"] = *patch.ResultURL
	}
	if patch.ResultMetadata != nil {
		b, err := json.Marshal(patch.ResultMetadata)
		if err != nil {
			return false, err
		}
		updates["result_metadata"] = datatypes.JSON(b)
	}
	if patch.StartedAt != nil {
		updates["started_at"] = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}

	res := r.db.WithContext(ctx).
		Model(&model.Generation{}).
		Where("id = ? AND status IN ?", id, fromStrings).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GenerationRepositoryImpl) AdvanceProgress(ctx context.Context, id uuid.UUID, progress int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Generation{}).
		Where("id = ? AND status = ? AND progress <= ?", id, string(entity.GenerationStatusProcessing), progress).
		Update("progress", progress)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GenerationRepositoryImpl) Stats(ctx context.Context, userId uuid.UUID) (*entity.GenerationStats, error) {
	var row struct {
		Total      int64
		Successful int64
		Failed     int64
		Credits    int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Generation{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS successful, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed, "+
				"COALESCE(SUM(credits_used), 0) AS credits",
			string(entity.GenerationStatusCompleted), string(entity.GenerationStatusFailed),
		).
		Where("user_id = ?", userId).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var top struct {
		AlgorithmId string
		Uses        int64
	}
	err = r.db.WithContext(ctx).
		Model(&model.Generation{}).
		Select("algorithm_id, COUNT(*) AS uses").
		Where("user_id = ?", userId).
		Group("algorithm_id").
		Order("uses DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}

	return &entity.GenerationStats{
		TotalGenerations:      row.Total,
		SuccessfulGenerations: row.Successful,
		FailedGenerations:     row.Failed,
		TotalCreditsUsed:      row.Credits,
		MostUsedAlgorithm:     top.AlgorithmId,
	}, nil
}
