package contract

import (
	"context"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AlgorithmRepository interface {
	Upsert(ctx context.Context, algorithm *entity.Algorithm) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Algorithm, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Algorithm, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, template *entity.Template) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Template, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}
