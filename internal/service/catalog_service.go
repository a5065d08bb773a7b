package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/memory"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/pkg/ai"

	"github.com/google/uuid"
)

type ICatalogService interface {
	// Resolve maps an algorithm id onto the fixed enumeration and its catalog row.
	Resolve(ctx context.Context, algorithmId string) (*entity.Algorithm, ai.Algorithm, error)
	ListActive(ctx context.Context) ([]*entity.Algorithm, error)
	// SelectTemplate picks the best active template for the analysis and records its use.
	SelectTemplate(ctx context.Context, analysis ai.Analysis) (ai.Template, error)
}

type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.AlgorithmCache
	registry   *ai.Registry
	logger     logger.ILogger
}

func NewCatalogService(uowFactory unitofwork.RepositoryFactory, cache *memory.AlgorithmCache, registry *ai.Registry, log logger.ILogger) ICatalogService {
	return &catalogService{
		uowFactory: uowFactory,
		cache:      cache,
		registry:   registry,
		logger:     log,
	}
}

func (s *catalogService) Resolve(ctx context.Context, algorithmId string) (*entity.Algorithm, ai.Algorithm, error) {
	kind, err := ai.ParseAlgorithm(algorithmId)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithmId)
	}
	if _, ok := s.registry.For(kind); !ok {
		return nil, "", fmt.Errorf("%w: no provider bound to %s", ErrUnknownAlgorithm, algorithmId)
	}

	algorithm, ok := s.cache.Get(algorithmId)
	if !ok {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		algorithm, err = uow.AlgorithmRepository().FindOne(ctx, specification.ByKey{Key: algorithmId})
		if err != nil {
			return nil, "", err
		}
		if algorithm == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithmId)
		}
		s.cache.Save(algorithm)
	}

	if !algorithm.IsActive {
		return nil, "", fmt.Errorf("%w: %s", ErrAlgorithmInactive, algorithmId)
	}
	return algorithm, kind, nil
}

func (s *catalogService) ListActive(ctx context.Context) ([]*entity.Algorithm, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	algorithms, err := uow.AlgorithmRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.OrderBy{Field: "cost_credits"},
	)
	if err != nil {
		return nil, err
	}

	// Only advertise what can actually be dispatched.
	bound := algorithms[:0]
	for _, a := range algorithms {
		kind, err := ai.ParseAlgorithm(a.Id)
		if err != nil {
			continue
		}
		if _, ok := s.registry.For(kind); ok {
			bound = append(bound, a)
			s.cache.Save(a)
		}
	}
	return bound, nil
}

const (
	categoryWeight = 0.4
	styleWeight    = 0.3
	moodWeight     = 0.2
	elementWeight  = 0.1

	fallbackScore = 0.7
	fallbackColor = "#0066FF"
)

func (s *catalogService) SelectTemplate(ctx context.Context, analysis ai.Analysis) (ai.Template, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	templates, err := uow.TemplateRepository().FindAll(ctx, specification.ActiveOnly{})
	if err != nil {
		return ai.Template{}, fmt.Errorf("load templates: %w", err)
	}
	if len(templates) == 0 {
		return fallbackTemplate(analysis), nil
	}

	best := rankTemplates(templates, analysis)[0]
	if err := uow.TemplateRepository().IncrementUsage(ctx, best.entity.Id); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Catalog", "Failed to record template usage", map[string]interface{}{
			"template_id": best.entity.Id,
			"error":       err.Error(),
		})
	}

	t := best.entity
	return ai.Template{
		Name:         t.Name,
		Category:     t.Category,
		Style:        t.Style,
		Mood:         t.Mood,
		Elements:     t.Elements,
		Colors:       t.Colors,
		PrimaryColor: t.PrimaryColor,
		MatchScore:   best.score,
	}, nil
}

type scoredTemplate struct {
	entity *entity.Template
	score  float64
}

// rankTemplates orders by score, then rating, then usage count, all descending.
func rankTemplates(templates []*entity.Template, analysis ai.Analysis) []scoredTemplate {
	scored := make([]scoredTemplate, len(templates))
	for i, t := range templates {
		scored[i] = scoredTemplate{entity: t, score: matchScore(t, analysis)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.entity.Rating != b.entity.Rating {
			return a.entity.Rating > b.entity.Rating
		}
		return a.entity.UsageCount > b.entity.UsageCount
	})
	return scored
}

func matchScore(t *entity.Template, analysis ai.Analysis) float64 {
	score := 0.0
	if analysis.Category == t.Category {
		score += categoryWeight
	}
	if analysis.Style == t.Style {
		score += styleWeight
	}
	if analysis.Mood == t.Mood {
		score += moodWeight
	}
	if len(analysis.Elements) > 0 && len(t.Elements) > 0 {
		have := make(map[string]struct{}, len(t.Elements))
		for _, e := range t.Elements {
			have[e] = struct{}{}
		}
		wanted := make(map[string]struct{}, len(analysis.Elements))
		for _, e := range analysis.Elements {
			wanted[e] = struct{}{}
		}
		overlap := 0
		for e := range wanted {
			if _, ok := have[e]; ok {
				overlap++
			}
		}
		score += elementWeight * float64(overlap) / float64(len(wanted))
	}
	return score
}

func fallbackTemplate(analysis ai.Analysis) ai.Template {
	category := analysis.Category
	if category == "" {
		category = "other"
	}
	style := analysis.Style
	if style == "" {
		style = "modern"
	}
	mood := analysis.Mood
	if mood == "" {
		mood = "professional"
	}
	elements := analysis.Elements
	if len(elements) == 0 {
		elements = []string{"text", "background"}
	}
	return ai.Template{
		Name:         strings.ToUpper(category[:1]) + category[1:] + " Template 1",
		Category:     category,
		Style:        style,
		Mood:         mood,
		Elements:     elements,
		Colors:       []string{fallbackColor, "#FFFFFF"},
		PrimaryColor: fallbackColor,
		MatchScore:   fallbackScore,
	}
}

// SeedTemplate is a convenience for seeding and tests.
func SeedTemplate(name, category, style, mood, primary string, rating float64, elements ...string) *entity.Template {
	return &entity.Template{
		Id:           uuid.New(),
		Name:         name,
		Category:     category,
		Style:        style,
		Mood:         mood,
		Elements:     elements,
		Colors:       []string{primary},
		PrimaryColor: primary,
		Rating:       rating,
		IsActive:     true,
	}
}
