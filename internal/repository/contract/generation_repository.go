package contract

import (
	"context"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
)

// GenerationTransition carries the columns written together with a status change.
// Nil fields are left untouched.
type GenerationTransition struct {
	Progress       *int
	ErrorMessage   *string
	ResultURL      *string
	ResultMetadata map[string]interface{}
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

type GenerationRepository interface {
	Create(ctx context.Context, generation *entity.Generation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Generation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Generation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Transition moves the row to `to` only while its status is one of `from`.
	// It reports false when another writer got there first.
	Transition(ctx context.Context, id uuid.UUID, from []entity.GenerationStatus, to entity.GenerationStatus, patch GenerationTransition) (bool, error)
	// AdvanceProgress raises progress of a processing row, never lowering it.
	AdvanceProgress(ctx context.Context, id uuid.UUID, progress int) (bool, error)
	Stats(ctx context.Context, userId uuid.UUID) (*entity.GenerationStats, error)
}
