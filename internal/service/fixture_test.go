package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/memory"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai"
	"ai-thumbnail-be/pkg/ai/analyzer"
	"ai-thumbnail-be/pkg/events"
	"ai-thumbnail-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubSynthesizer returns a canned result. When gate is set it parks until the gate closes.
type stubSynthesizer struct {
	result  *ai.SynthesisResult
	err     error
	panics  bool
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func newStubSynthesizer() *stubSynthesizer {
	return &stubSynthesizer{
		result: &ai.SynthesisResult{
			Success:     true,
			Image:       []byte{0xff, 0xd8, 0xff, 0xd9},
			ContentType: "image/jpeg",
			Metadata:    map[string]interface{}{"model": "stub"},
		},
	}
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*ai.SynthesisResult, error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.panics {
		panic("renderer exploded")
	}
	return s.result, s.err
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, id)
	return nil
}

func (d *recordingDispatcher) dispatched() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uuid.UUID(nil), d.ids...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// eventRecorder is a hub subscriber that keeps every frame it is sent.
type eventRecorder struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (r *eventRecorder) Send(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broken pipe")
	}
	r.frames = append(r.frames, data)
	return nil
}

func (r *eventRecorder) events(t *testing.T) []websocket.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]websocket.Event, len(r.frames))
	for i, f := range r.frames {
		require.NoError(t, json.Unmarshal(f, &out[i]))
	}
	return out
}

func (r *eventRecorder) types(t *testing.T) []string {
	var out []string
	for _, e := range r.events(t) {
		out = append(out, e.Type)
	}
	return out
}

type orchestratorFixture struct {
	factory    unitofwork.RepositoryFactory
	ledger     ILedgerService
	catalog    ICatalogService
	pipeline   IGenerationPipeline
	service    IGenerationService
	hub        *websocket.Hub
	synth      *stubSynthesizer
	registry   *ai.Registry
	policy     CompensationPolicy
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
	uploadDir  string
}

func newOrchestratorFixture(t *testing.T, policy CompensationPolicy) *orchestratorFixture {
	t.Helper()
	log := logger.NewNopLogger()

	factory := unitofwork.NewRepositoryFactory(testdb.New(t))
	seedAlgorithms(t, factory, map[string]int{"basic": 1, "premium": 3, "pro": 11})

	synth := newStubSynthesizer()
	registry := ai.NewRegistry(map[ai.Algorithm]ai.Synthesizer{
		ai.AlgorithmBasic:   synth,
		ai.AlgorithmPremium: synth,
		ai.AlgorithmPro:     synth,
	})

	f := &orchestratorFixture{
		factory:    factory,
		hub:        websocket.NewHub(nil, log),
		synth:      synth,
		registry:   registry,
		policy:     policy,
		dispatcher: &recordingDispatcher{},
		publisher:  &recordingPublisher{},
		uploadDir:  t.TempDir(),
	}
	f.ledger = NewLedgerService(factory, 10, log)
	f.catalog = NewCatalogService(factory, memory.NewAlgorithmCache(time.Minute), registry, log)
	f.withPipeline(log, storage.NewLocalStore(f.uploadDir, "/uploads"))
	return f
}

// withPipeline rebuilds the pipeline and the service on top of it.
func (f *orchestratorFixture) withPipeline(log logger.ILogger, store storage.ResultStore) {
	f.pipeline = NewGenerationPipeline(
		f.factory,
		f.catalog,
		analyzer.HeuristicAnalyzer{},
		f.registry,
		store,
		f.ledger,
		f.hub,
		f.publisher,
		f.policy,
		log,
	)
	f.service = NewGenerationService(f.factory, f.ledger, f.catalog, f.pipeline, f.dispatcher, log)
}

// debugHook calls fn when message is logged at debug level.
type debugHook struct {
	logger.ILogger
	message string
	fn      func()
}

func (l *debugHook) Debug(module, message string, details map[string]interface{}) {
	if message == l.message && l.fn != nil {
		l.fn()
	}
}

// saveHook calls afterSave once the wrapped store has written an artifact.
type saveHook struct {
	storage.ResultStore
	afterSave func()
}

func (s *saveHook) Save(ctx context.Context, owner, id uuid.UUID, contentType string, data []byte) (string, error) {
	ref, err := s.ResultStore.Save(ctx, owner, id, contentType, data)
	if err == nil && s.afterSave != nil {
		s.afterSave()
	}
	return ref, err
}

func seedAlgorithms(t *testing.T, factory unitofwork.RepositoryFactory, costs map[string]int) {
	t.Helper()
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).AlgorithmRepository()
	for id, cost := range costs {
		require.NoError(t, repo.Upsert(ctx, &entity.Algorithm{
			Id:          id,
			DisplayName: id,
			CostCredits: cost,
			IsActive:    true,
		}))
	}
}

func (f *orchestratorFixture) load(t *testing.T, id uuid.UUID) *entity.Generation {
	t.Helper()
	ctx := context.Background()
	g, err := f.factory.NewUnitOfWork(ctx).GenerationRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, g)
	return g
}
