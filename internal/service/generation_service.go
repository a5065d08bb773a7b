package service

import (
	"context"
	"errors"
	"fmt"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// JobDispatcher hands a committed QUEUED generation to the pipeline workers.
type JobDispatcher interface {
	Dispatch(ctx context.Context, generationId uuid.UUID) error
}

type IGenerationService interface {
	CreateGeneration(ctx context.Context, userId uuid.UUID, req *dto.CreateGenerationRequest) (*dto.CreateGenerationResponse, error)
	GetStatus(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GenerationStatusResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GenerationResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListGenerationsRequest) (*dto.ListGenerationsResponse, error)
	Stats(ctx context.Context, userId uuid.UUID) (*dto.GenerationStatsResponse, error)
	Cancel(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	ListAlgorithms(ctx context.Context) ([]*dto.AlgorithmResponse, error)
	// Resume re-dispatches QUEUED generations and fails orphaned PROCESSING ones. Run once at startup.
	Resume(ctx context.Context) (int, error)
}

type generationService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     ILedgerService
	catalog    ICatalogService
	pipeline   IGenerationPipeline
	dispatcher JobDispatcher
	logger     logger.ILogger
}

func NewGenerationService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ILedgerService,
	catalog ICatalogService,
	pipeline IGenerationPipeline,
	dispatcher JobDispatcher,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		uowFactory: uowFactory,
		ledger:     ledger,
		catalog:    catalog,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		logger:     log,
	}
}

func (s *generationService) CreateGeneration(ctx context.Context, userId uuid.UUID, req *dto.CreateGenerationRequest) (*dto.CreateGenerationResponse, error) {
	algorithm, _, err := s.catalog.Resolve(ctx, req.AlgorithmId)
	if err != nil {
		return nil, err
	}

	if req.ConversationId != nil {
		if err := s.checkConversation(ctx, userId, *req.ConversationId); err != nil {
			return nil, err
		}
	}

	generation := &entity.Generation{
		Id:              uuid.New(),
		UserId:          userId,
		ConversationId:  req.ConversationId,
		AlgorithmId:     algorithm.Id,
		Prompt:          req.Prompt,
		ReferenceInputs: req.ReferenceImages,
		Parameters:      req.Parameters,
		Status:          entity.GenerationStatusQueued,
		Progress:        0,
		CreditsUsed:     algorithm.CostCredits,
	}

	// Debit and record creation commit together or not at all.
	var balance int
	err = s.ledger.WithinOwner(ctx, userId, func(uow unitofwork.UnitOfWork) error {
		description := fmt.Sprintf("Thumbnail generation (%s)", algorithm.DisplayName)
		if _, err := s.ledger.DebitWithin(ctx, uow, userId, algorithm.CostCredits, description, &generation.Id); err != nil {
			return err
		}
		if err := uow.GenerationRepository().Create(ctx, generation); err != nil {
			return fmt.Errorf("create generation: %w", err)
		}
		wallet, err := uow.CreditWalletRepository().FindByUser(ctx, userId)
		if err != nil {
			return err
		}
		balance = wallet.Balance
		return nil
	})
	if err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			s.logger.Info("Orchestrator", "Generation rejected for insufficient credits", map[string]interface{}{
				"user_id":   userId,
				"required":  insufficient.Required,
				"available": insufficient.Available,
			})
		}
		return nil, err
	}

	s.logger.Info("Orchestrator", "Generation queued", map[string]interface{}{
		"generation_id": generation.Id,
		"user_id":       userId,
		"algorithm":     algorithm.Id,
		"credits":       algorithm.CostCredits,
	})

	if err := s.dispatcher.Dispatch(ctx, generation.Id); err != nil {
		// The record stays QUEUED and is picked up again by Resume.
		s.logger.Error("Orchestrator", "Failed to dispatch generation", map[string]interface{}{
			"generation_id": generation.Id,
			"error":         err.Error(),
		})
	}

	return &dto.CreateGenerationResponse{
		Id:          generation.Id,
		Status:      string(generation.Status),
		CreditsUsed: generation.CreditsUsed,
		Balance:     balance,
	}, nil
}

func (s *generationService) checkConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}
	if conversation.UserId != userId {
		return ErrForbidden
	}
	return nil
}

func (s *generationService) find(ctx context.Context, userId, id uuid.UUID) (*entity.Generation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	generation, err := uow.GenerationRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if generation == nil {
		return nil, ErrGenerationNotFound
	}
	return generation, nil
}

func (s *generationService) GetStatus(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GenerationStatusResponse, error) {
	g, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return &dto.GenerationStatusResponse{
		GenerationId: g.Id,
		Status:       string(g.Status),
		Progress:     g.Progress,
		ErrorMessage: g.ErrorMessage,
		CreatedAt:    g.CreatedAt,
		StartedAt:    g.StartedAt,
		CompletedAt:  g.CompletedAt,
	}, nil
}

func (s *generationService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GenerationResponse, error) {
	g, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return toGenerationResponse(g), nil
}

func (s *generationService) List(ctx context.Context, userId uuid.UUID, req *dto.ListGenerationsRequest) (*dto.ListGenerationsResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	filters := []specification.Specification{specification.UserOwnedBy{UserID: userId}}
	if req.Status != "" {
		filters = append(filters, specification.ByStatuses{Statuses: []entity.GenerationStatus{entity.GenerationStatus(req.Status)}})
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).GenerationRepository()
	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}
	generations, err := repo.FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.GenerationResponse, len(generations))
	for i, g := range generations {
		items[i] = toGenerationResponse(g)
	}
	return &dto.ListGenerationsResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *generationService) Stats(ctx context.Context, userId uuid.UUID) (*dto.GenerationStatsResponse, error) {
	stats, err := s.uowFactory.NewUnitOfWork(ctx).GenerationRepository().Stats(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &dto.GenerationStatsResponse{
		TotalGenerations:      stats.TotalGenerations,
		SuccessfulGenerations: stats.SuccessfulGenerations,
		FailedGenerations:     stats.FailedGenerations,
		TotalCreditsUsed:      stats.TotalCreditsUsed,
		MostUsedAlgorithm:     stats.MostUsedAlgorithm,
	}, nil
}

func (s *generationService) Cancel(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	if _, err := s.find(ctx, userId, id); err != nil {
		return err
	}
	return s.pipeline.Cancel(ctx, id)
}

func (s *generationService) ListAlgorithms(ctx context.Context) ([]*dto.AlgorithmResponse, error) {
	algorithms, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.AlgorithmResponse, len(algorithms))
	for i, a := range algorithms {
		res[i] = &dto.AlgorithmResponse{
			Id:          a.Id,
			DisplayName: a.DisplayName,
			Description: a.Description,
			CostCredits: a.CostCredits,
			Parameters:  a.Parameters,
		}
	}
	return res, nil
}

func (s *generationService) Resume(ctx context.Context) (int, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).GenerationRepository()

	orphaned, err := repo.FindAll(ctx, specification.ByStatuses{Statuses: []entity.GenerationStatus{entity.GenerationStatusProcessing}})
	if err != nil {
		return 0, err
	}
	for _, g := range orphaned {
		if err := s.pipeline.Abandon(ctx, g.Id, "interrupted by server restart"); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			s.logger.Warn("Orchestrator", "Failed to abandon orphaned generation", map[string]interface{}{
				"generation_id": g.Id,
				"error":         err.Error(),
			})
		}
	}

	queued, err := repo.FindAll(ctx,
		specification.ByStatuses{Statuses: []entity.GenerationStatus{entity.GenerationStatusQueued}},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, g := range queued {
		if err := s.dispatcher.Dispatch(ctx, g.Id); err != nil {
			s.logger.Error("Orchestrator", "Failed to re-dispatch generation", map[string]interface{}{
				"generation_id": g.Id,
				"error":         err.Error(),
			})
			continue
		}
		dispatched++
	}

	if dispatched > 0 || len(orphaned) > 0 {
		s.logger.Info("Orchestrator", "Resumed pending generations", map[string]interface{}{
			"dispatched": dispatched,
			"abandoned":  len(orphaned),
		})
	}
	return dispatched, nil
}

func toGenerationResponse(g *entity.Generation) *dto.GenerationResponse {
	return &dto.GenerationResponse{
		Id:              g.Id,
		ConversationId:  g.ConversationId,
		AlgorithmId:     g.AlgorithmId,
		Prompt:          g.Prompt,
		ReferenceImages: g.ReferenceInputs,
		Parameters:      g.Parameters,
		Status:          string(g.Status),
		Progress:        g.Progress,
		ErrorMessage:    g.ErrorMessage,
		ResultURL:       g.ResultURL,
		ResultMetadata:  g.ResultMetadata,
		CreditsUsed:     g.CreditsUsed,
		CreatedAt:       g.CreatedAt,
		StartedAt:       g.StartedAt,
		CompletedAt:     g.CompletedAt,
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
