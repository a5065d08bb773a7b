package implementation_test

import (
	"context"
	"testing"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/contract"
	"ai-thumbnail-be/internal/repository/implementation"
	"ai-thumbnail-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueued(userId uuid.UUID, algorithm string, credits int) *entity.Generation {
	return &entity.Generation{
		Id:          uuid.New(),
		UserId:      userId,
		AlgorithmId: algorithm,
		Prompt:      "retro gaming channel intro",
		Parameters:  map[string]interface{}{"aspect": "16:9"},
		Status:      entity.GenerationStatusQueued,
		CreditsUsed: credits,
	}
}

func TestGenerationRepository_TransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewGenerationRepository(testdb.New(t))

	g := newQueued(uuid.New(), "basic", 1)
	require.NoError(t, repo.Create(ctx, g))

	now := time.Now()
	ok, err := repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusQueued},
		entity.GenerationStatusProcessing,
		contract.GenerationTransition{StartedAt: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	// A second writer expecting QUEUED loses.
	ok, err = repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusQueued},
		entity.GenerationStatusCancelled,
		contract.GenerationTransition{CompletedAt: &now})
	require.NoError(t, err)
	assert.False(t, ok)

	url := "/uploads/generated/x.jpg"
	hundred := 100
	ok, err = repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusProcessing},
		entity.GenerationStatusCompleted,
		contract.GenerationTransition{
			Progress:       &hundred,
			ResultURL:      &url,
			ResultMetadata: map[string]interface{}{"template": "Bold Gaming"},
			CompletedAt:    &now,
		})
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: g.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.GenerationStatusCompleted, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, url, *stored.ResultURL)
	assert.Equal(t, "Bold Gaming", stored.ResultMetadata["template"])
	assert.Equal(t, "16:9", stored.Parameters["aspect"])
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)
}

func TestGenerationRepository_AdvanceProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewGenerationRepository(testdb.New(t))

	g := newQueued(uuid.New(), "basic", 1)
	require.NoError(t, repo.Create(ctx, g))

	// Not processing yet.
	ok, err := repo.AdvanceProgress(ctx, g.Id, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusQueued},
		entity.GenerationStatusProcessing,
		contract.GenerationTransition{})
	require.NoError(t, err)

	ok, err = repo.AdvanceProgress(ctx, g.Id, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AdvanceProgress(ctx, g.Id, 30)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: g.Id})
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Progress)
}

func TestGenerationRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewGenerationRepository(testdb.New(t))
	owner := uuid.New()

	fixtures := []struct {
		algorithm string
		credits   int
		status    entity.GenerationStatus
	}{
		{"basic", 1, entity.GenerationStatusCompleted},
		{"basic", 1, entity.GenerationStatusFailed},
		{"pro", 5, entity.GenerationStatusCompleted},
		{"basic", 1, entity.GenerationStatusQueued},
	}
	for _, f := range fixtures {
		g := newQueued(owner, f.algorithm, f.credits)
		g.Status = f.status
		require.NoError(t, repo.Create(ctx, g))
	}
	require.NoError(t, repo.Create(ctx, newQueued(uuid.New(), "pro", 5)))

	stats, err := repo.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalGenerations)
	assert.Equal(t, int64(2), stats.SuccessfulGenerations)
	assert.Equal(t, int64(1), stats.FailedGenerations)
	assert.Equal(t, int64(8), stats.TotalCreditsUsed)
	assert.Equal(t, "basic", stats.MostUsedAlgorithm)

	count, err := repo.Count(ctx,
		specification.UserOwnedBy{UserID: owner},
		specification.ByStatuses{Statuses: []entity.GenerationStatus{entity.GenerationStatusQueued}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
