package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/contract"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/tracer"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai"
	"ai-thumbnail-be/pkg/events"
	"ai-thumbnail-be/pkg/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Progress checkpoints written as each stage starts.
const (
	ProgressAnalyzing  = 10
	ProgressTemplating = 30
	ProgressSynthesis  = 60
	ProgressPersisting = 90
	ProgressDone       = 100
)

// Events pushed to generation topics.
const (
	EventGenerationStarted   = "generation_started"
	EventGenerationProgress  = "generation_progress"
	EventGenerationCompleted = "generation_completed"
	EventGenerationFailed    = "generation_failed"
	EventGenerationCancelled = "generation_cancelled"
)

// EventBroadcaster is the part of the hub the orchestrator needs.
type EventBroadcaster interface {
	Broadcast(topic string, evt websocket.Event, exclude string) int
}

type CompensationPolicy struct {
	RefundOnFailure bool
	RefundOnCancel  bool
}

type IGenerationPipeline interface {
	// Run drives one generation from QUEUED to a terminal state. It returns ErrAlreadyRunning
	// if another run for the same id is live in this process.
	Run(ctx context.Context, id uuid.UUID) error
	// Cancel moves a QUEUED or PROCESSING generation to CANCELLED and signals its run.
	Cancel(ctx context.Context, id uuid.UUID) error
	// Abandon fails a PROCESSING generation that has no live run, e.g. after a restart.
	Abandon(ctx context.Context, id uuid.UUID, reason string) error
	IsRunning(id uuid.UUID) bool
}

var errRunCancelled = errors.New("generation run cancelled")

type generationPipeline struct {
	uowFactory  unitofwork.RepositoryFactory
	catalog     ICatalogService
	analyzer    ai.Analyzer
	registry    *ai.Registry
	store       storage.ResultStore
	ledger      ILedgerService
	broadcaster EventBroadcaster
	publisher   events.Publisher
	policy      CompensationPolicy
	logger      logger.ILogger

	mu   sync.Mutex
	runs map[uuid.UUID]context.CancelFunc

	// frames is held across a state write and the broadcast announcing it.
	frames *keyLocks
}

func NewGenerationPipeline(
	uowFactory unitofwork.RepositoryFactory,
	catalog ICatalogService,
	analyzer ai.Analyzer,
	registry *ai.Registry,
	store storage.ResultStore,
	ledger ILedgerService,
	broadcaster EventBroadcaster,
	publisher events.Publisher,
	policy CompensationPolicy,
	log logger.ILogger,
) IGenerationPipeline {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &generationPipeline{
		uowFactory:  uowFactory,
		catalog:     catalog,
		analyzer:    analyzer,
		registry:    registry,
		store:       store,
		ledger:      ledger,
		broadcaster: broadcaster,
		publisher:   publisher,
		policy:      policy,
		logger:      log,
		runs:        make(map[uuid.UUID]context.CancelFunc),
		frames:      newKeyLocks(),
	}
}

func (p *generationPipeline) IsRunning(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.runs[id]
	return ok
}

func (p *generationPipeline) register(ctx context.Context, id uuid.UUID) (context.Context, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.runs[id]; ok {
		return nil, nil, ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.runs[id] = cancel
	return runCtx, func() {
		p.mu.Lock()
		delete(p.runs, id)
		p.mu.Unlock()
		cancel()
	}, nil
}

func (p *generationPipeline) signal(id uuid.UUID) {
	p.mu.Lock()
	cancel, ok := p.runs[id]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

func (p *generationPipeline) Run(ctx context.Context, id uuid.UUID) (err error) {
	runCtx, release, err := p.register(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	ctx, span := tracer.Tracer("orchestrator").Start(runCtx, "generation.run")
	span.SetAttributes(attribute.String("generation.id", id.String()))
	defer span.End()

	repo := p.uowFactory.NewUnitOfWork(ctx).GenerationRepository()
	generation, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return fmt.Errorf("load generation: %w", err)
	}
	if generation == nil {
		return ErrGenerationNotFound
	}
	if generation.Status != entity.GenerationStatusQueued {
		p.logger.Info("Orchestrator", "Skipping generation that is no longer queued", map[string]interface{}{
			"generation_id": id,
			"status":        generation.Status,
		})
		return nil
	}

	started, err := p.start(ctx, repo, generation)
	if err != nil {
		return err
	}
	if !started {
		// Cancelled between the read and the transition.
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Orchestrator", "Pipeline panicked", map[string]interface{}{
				"generation_id": id,
				"panic":         fmt.Sprint(r),
			})
			p.fail(context.WithoutCancel(ctx), generation, fmt.Sprintf("internal error: %v", r))
			err = nil
		}
	}()

	if err := p.execute(ctx, repo, generation); err != nil {
		if errors.Is(err, errRunCancelled) {
			p.logger.Info("Orchestrator", "Generation run stopped after cancellation", map[string]interface{}{"generation_id": id})
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.fail(context.WithoutCancel(ctx), generation, err.Error())
	}
	return nil
}

func (p *generationPipeline) start(ctx context.Context, repo contract.GenerationRepository, g *entity.Generation) (bool, error) {
	unlock := p.frames.lock(g.Id)
	defer unlock()

	now := time.Now().UTC()
	zero := 0
	ok, err := repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusQueued},
		entity.GenerationStatusProcessing,
		contract.GenerationTransition{Progress: &zero, StartedAt: &now},
	)
	if err != nil {
		return false, fmt.Errorf("start generation: %w", err)
	}
	if !ok {
		return false, nil
	}
	g.Status = entity.GenerationStatusProcessing
	g.StartedAt = &now
	p.emit(g, EventGenerationStarted, map[string]interface{}{"progress": 0})
	return true, nil
}

// execute runs the stages in order. A returned error other than errRunCancelled fails the generation.
func (p *generationPipeline) execute(ctx context.Context, repo contract.GenerationRepository, g *entity.Generation) error {
	kind, err := ai.ParseAlgorithm(g.AlgorithmId)
	if err != nil {
		return fmt.Errorf("algorithm not found: %s", g.AlgorithmId)
	}
	synthesizer, ok := p.registry.For(kind)
	if !ok {
		return fmt.Errorf("algorithm not found: %s", g.AlgorithmId)
	}

	// Adapter calls are detached from the cancel token; their results are discarded if it fires.
	detached := context.WithoutCancel(ctx)

	if err := p.advance(ctx, repo, g, ProgressAnalyzing, "Analyzing prompt..."); err != nil {
		return err
	}
	stageCtx, span := tracer.Tracer("orchestrator").Start(detached, "generation.analyze")
	analysis := p.analyzer.Analyze(stageCtx, g.Prompt, g.ReferenceInputs)
	span.SetAttributes(attribute.String("analysis.source", analysis.Source))
	span.End()

	if err := p.advance(ctx, repo, g, ProgressTemplating, "Finding matching templates..."); err != nil {
		return err
	}
	stageCtx, span = tracer.Tracer("orchestrator").Start(detached, "generation.template")
	template, err := p.catalog.SelectTemplate(stageCtx, analysis)
	span.End()
	if err != nil {
		return fmt.Errorf("no matching templates found: %w", err)
	}

	if err := p.advance(ctx, repo, g, ProgressSynthesis, "Generating thumbnail..."); err != nil {
		return err
	}
	stageCtx, span = tracer.Tracer("orchestrator").Start(detached, "generation.synthesize")
	span.SetAttributes(attribute.String("algorithm", string(kind)))
	result, err := synthesizer.Synthesize(stageCtx, ai.SynthesisRequest{
		Prompt:          g.Prompt,
		Analysis:        analysis,
		Template:        template,
		Algorithm:       kind,
		ReferenceInputs: g.ReferenceInputs,
		Parameters:      g.Parameters,
	})
	span.End()
	if ctx.Err() != nil {
		return errRunCancelled
	}
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}
	if result == nil || !result.Success {
		reason := "provider returned no image"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		return fmt.Errorf("thumbnail generation failed: %s", reason)
	}

	if err := p.advance(ctx, repo, g, ProgressPersisting, "Saving result..."); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return errRunCancelled
	}
	stageCtx, span = tracer.Tracer("orchestrator").Start(detached, "generation.persist")
	resultURL, err := p.store.Save(stageCtx, g.UserId, g.Id, result.ContentType, result.Image)
	span.End()
	if err != nil {
		return fmt.Errorf("saving result failed: %w", err)
	}

	metadata := map[string]interface{}{
		"analysis":           analysis.ToMap(),
		"template":           template,
		"generation_details": result.Metadata,
	}
	if err := p.complete(ctx, repo, g, resultURL, metadata); err != nil {
		p.discard(detached, g, result.ContentType)
		return err
	}
	return nil
}

// discard removes the artifact of a run that did not complete.
func (p *generationPipeline) discard(ctx context.Context, g *entity.Generation, contentType string) {
	if err := p.store.Delete(ctx, g.UserId, g.Id, contentType); err != nil {
		p.logger.Warn("Orchestrator", "Failed to remove result of cancelled generation", map[string]interface{}{
			"generation_id": g.Id,
			"error":         err.Error(),
		})
	}
}

// advance records a stage checkpoint. It doubles as the cancellation check between stages.
func (p *generationPipeline) advance(ctx context.Context, repo contract.GenerationRepository, g *entity.Generation, progress int, message string) error {
	if ctx.Err() != nil {
		return errRunCancelled
	}
	unlock := p.frames.lock(g.Id)
	defer unlock()

	ok, err := repo.AdvanceProgress(context.WithoutCancel(ctx), g.Id, progress)
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	if !ok {
		return errRunCancelled
	}
	g.Progress = progress

	p.logger.Debug("Orchestrator", message, map[string]interface{}{
		"generation_id": g.Id,
		"progress":      progress,
	})
	p.emit(g, EventGenerationProgress, map[string]interface{}{
		"progress": progress,
		"message":  message,
	})
	return nil
}

func (p *generationPipeline) complete(ctx context.Context, repo contract.GenerationRepository, g *entity.Generation, resultURL string, metadata map[string]interface{}) error {
	if ctx.Err() != nil {
		return errRunCancelled
	}
	unlock := p.frames.lock(g.Id)
	defer unlock()

	now := time.Now().UTC()
	done := ProgressDone
	ok, err := repo.Transition(context.WithoutCancel(ctx), g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusProcessing},
		entity.GenerationStatusCompleted,
		contract.GenerationTransition{
			Progress:       &done,
			ResultURL:      &resultURL,
			ResultMetadata: metadata,
			CompletedAt:    &now,
		},
	)
	if err != nil {
		return fmt.Errorf("finalize generation: %w", err)
	}
	if !ok {
		return errRunCancelled
	}

	g.Status = entity.GenerationStatusCompleted
	g.Progress = ProgressDone
	g.ResultURL = &resultURL
	g.CompletedAt = &now

	p.logger.Info("Orchestrator", "Generation completed", map[string]interface{}{
		"generation_id": g.Id,
		"result_url":    resultURL,
	})
	p.emit(g, EventGenerationCompleted, map[string]interface{}{
		"progress":   ProgressDone,
		"result_url": resultURL,
	})
	p.publish(ctx, events.GenerationCompleted, g, map[string]interface{}{"result_url": resultURL})
	return nil
}

// fail moves a PROCESSING generation to FAILED and leaves progress at its last checkpoint.
func (p *generationPipeline) fail(ctx context.Context, g *entity.Generation, message string) bool {
	if !p.markFailed(ctx, g, message) {
		return false
	}
	p.publish(ctx, events.GenerationFailed, g, map[string]interface{}{"error_message": message})

	if p.policy.RefundOnFailure {
		p.refund(ctx, g, "Refund for failed generation")
	}
	return true
}

func (p *generationPipeline) markFailed(ctx context.Context, g *entity.Generation, message string) bool {
	unlock := p.frames.lock(g.Id)
	defer unlock()

	now := time.Now().UTC()
	repo := p.uowFactory.NewUnitOfWork(ctx).GenerationRepository()
	ok, err := repo.Transition(ctx, g.Id,
		[]entity.GenerationStatus{entity.GenerationStatusProcessing},
		entity.GenerationStatusFailed,
		contract.GenerationTransition{ErrorMessage: &message, CompletedAt: &now},
	)
	if err != nil {
		p.logger.Error("Orchestrator", "Failed to record generation failure", map[string]interface{}{
			"generation_id": g.Id,
			"error":         err.Error(),
		})
		return false
	}
	if !ok {
		return false
	}

	g.Status = entity.GenerationStatusFailed
	g.ErrorMessage = &message
	g.CompletedAt = &now

	p.logger.Warn("Orchestrator", "Generation failed", map[string]interface{}{
		"generation_id": g.Id,
		"error":         message,
		"progress":      g.Progress,
	})
	p.emit(g, EventGenerationFailed, map[string]interface{}{
		"progress":      g.Progress,
		"error_message": message,
	})
	return true
}

func (p *generationPipeline) Cancel(ctx context.Context, id uuid.UUID) error {
	g, err := p.markCancelled(ctx, id)
	if err != nil {
		return err
	}
	p.publish(ctx, events.GenerationCancelled, g, nil)

	if p.policy.RefundOnCancel {
		p.refund(ctx, g, "Refund for cancelled generation")
	}
	return nil
}

// markCancelled reads and transitions under the frame lock so the reported progress is the last one broadcast.
func (p *generationPipeline) markCancelled(ctx context.Context, id uuid.UUID) (*entity.Generation, error) {
	unlock := p.frames.lock(id)
	defer unlock()

	repo := p.uowFactory.NewUnitOfWork(ctx).GenerationRepository()
	g, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGenerationNotFound
	}
	if g.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	now := time.Now().UTC()
	ok, err := repo.Transition(ctx, id,
		entity.SourcesOf(entity.GenerationStatusCancelled),
		entity.GenerationStatusCancelled,
		contract.GenerationTransition{CompletedAt: &now},
	)
	if err != nil {
		return nil, fmt.Errorf("cancel generation: %w", err)
	}
	if !ok {
		// Lost the race to a terminal transition.
		return nil, ErrAlreadyTerminal
	}
	p.signal(id)

	g.Status = entity.GenerationStatusCancelled
	g.CompletedAt = &now

	p.logger.Info("Orchestrator", "Generation cancelled", map[string]interface{}{
		"generation_id": id,
		"progress":      g.Progress,
	})
	p.emit(g, EventGenerationCancelled, map[string]interface{}{"progress": g.Progress})
	return g, nil
}

func (p *generationPipeline) Abandon(ctx context.Context, id uuid.UUID, reason string) error {
	if p.IsRunning(id) {
		return ErrAlreadyRunning
	}
	repo := p.uowFactory.NewUnitOfWork(ctx).GenerationRepository()
	g, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGenerationNotFound
	}
	if g.Status != entity.GenerationStatusProcessing {
		return nil
	}
	p.fail(ctx, g, reason)
	return nil
}

// refund credits the generation's charge back at most once.
func (p *generationPipeline) refund(ctx context.Context, g *entity.Generation, description string) {
	if g.CreditsUsed <= 0 {
		return
	}
	_, written, err := p.ledger.CreditOnce(ctx, g.UserId, entity.TransactionKindRefund, g.CreditsUsed, description, g.Id)
	if err != nil {
		p.logger.Error("Orchestrator", "Refund failed", map[string]interface{}{
			"generation_id": g.Id,
			"error":         err.Error(),
		})
		return
	}
	if written {
		p.publish(ctx, events.CreditsRefunded, g, map[string]interface{}{"amount": g.CreditsUsed})
	}
}

func (p *generationPipeline) emit(g *entity.Generation, eventType string, data map[string]interface{}) {
	if p.broadcaster == nil {
		return
	}
	payload := map[string]interface{}{
		"generation_id": g.Id,
		"status":        g.Status,
	}
	for k, v := range data {
		payload[k] = v
	}
	evt := websocket.NewEvent(eventType, payload)
	p.broadcaster.Broadcast(websocket.GenerationTopic(g.Id), evt, "")
	if g.ConversationId != nil {
		p.broadcaster.Broadcast(websocket.ConversationTopic(*g.ConversationId), evt, "")
	}
}

func (p *generationPipeline) publish(ctx context.Context, eventType string, g *entity.Generation, extra map[string]interface{}) {
	data := map[string]interface{}{
		"generation_id": g.Id.String(),
		"user_id":       g.UserId.String(),
		"algorithm_id":  g.AlgorithmId,
		"credits_used":  g.CreditsUsed,
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := p.publisher.Publish(context.WithoutCancel(ctx), events.New(eventType, data)); err != nil {
		p.logger.Warn("Orchestrator", "Failed to publish domain event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
