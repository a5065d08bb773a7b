package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-thumbnail-be/internal/config"
	"ai-thumbnail-be/internal/controller"
	"ai-thumbnail-be/internal/handler"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/serverutils"
	"ai-thumbnail-be/internal/repository/memory"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/service"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai"
	"ai-thumbnail-be/pkg/ai/analyzer"
	"ai-thumbnail-be/pkg/ai/synthesis"
	"ai-thumbnail-be/pkg/events"
	"ai-thumbnail-be/pkg/llm/factory"
	pktNats "ai-thumbnail-be/pkg/nats"
	"ai-thumbnail-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	GenerationController controller.IGenerationController
	CreditController     controller.ICreditController

	// WebSockets
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub

	// Background services (run by main.go)
	GenerationService service.IGenerationService
	GenerationWorker  service.IGenerationWorker
	PaymentService    service.IPaymentService
	ChatService       service.IChatService

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Job Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	var publisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis (optional, relays broadcasts across instances)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 4. AI Capabilities
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider: cfg.Ai.AnalysisProvider,
		Model:    analysisModel(cfg),
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Ai.GeminiAPIKey,
	})
	if err != nil {
		log.Printf("[WARN] Failed to initialize LLM Provider: %v. Falling back to heuristics", err)
	}
	var promptAnalyzer ai.Analyzer = analyzer.HeuristicAnalyzer{}
	if llmProvider != nil {
		promptAnalyzer = analyzer.NewLLMAnalyzer(llmProvider, cfg.Ai.AnalysisTimeout, sysLogger)
		log.Printf("[INFO] Using Analysis Provider: %s (%s)", cfg.Ai.AnalysisProvider, analysisModel(cfg))
	} else {
		log.Printf("[INFO] Using Analysis Provider: heuristic")
	}

	registry := ai.NewRegistry(synthesizers(cfg))
	store := storage.NewLocalStore(cfg.App.UploadDir, "/uploads")

	// 5. Services
	ledger := service.NewLedgerService(uowFactory, cfg.Generation.WelcomeCredits, sysLogger)
	catalog := service.NewCatalogService(uowFactory, memory.NewAlgorithmCache(5*time.Minute), registry, sysLogger)

	pipeline := service.NewGenerationPipeline(
		uowFactory,
		catalog,
		promptAnalyzer,
		registry,
		store,
		ledger,
		wsHub,
		publisher,
		service.CompensationPolicy{
			RefundOnFailure: cfg.Generation.RefundOnFailure,
			RefundOnCancel:  cfg.Generation.RefundOnCancel,
		},
		sysLogger,
	)
	worker := service.NewGenerationWorker(pubSub, cfg.Generation.QueueTopic, pipeline, cfg.Generation.WorkerConcurrency, sysLogger)
	generationService := service.NewGenerationService(uowFactory, ledger, catalog, pipeline, worker, sysLogger)
	chatService := service.NewChatService(uowFactory, promptAnalyzer, wsHub, wsLogger)

	var gateway service.PaymentGateway
	if cfg.Payment.MidtransServerKey != "" {
		gateway = service.NewMidtransGateway(cfg.Payment.MidtransServerKey, cfg.Payment.IsProduction, cfg.Payment.FinishURL)
	} else {
		log.Printf("[INFO] MIDTRANS_SERVER_KEY not set, purchases settle immediately")
	}
	paymentService := service.NewPaymentService(uowFactory, ledger, gateway, cfg.Payment.MidtransServerKey, publisher, sysLogger)

	// 6. Controllers & Handlers
	auth := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)

	return &Container{
		GenerationController: controller.NewGenerationController(generationService, chatService, auth),
		CreditController:     controller.NewCreditController(ledger, paymentService, auth),
		RealtimeHandler:      handler.NewRealtimeHandler(generationService, chatService, wsHub, cfg.App.JwtSecret, wsLogger),
		WebSocketHub:         wsHub,

		GenerationService: generationService,
		GenerationWorker:  worker,
		PaymentService:    paymentService,
		ChatService:       chatService,

		Logger: sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
	}
}

// Start launches the background consumers and requeues work left over from a previous run.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.GenerationWorker.Consume(ctx); err != nil {
		return err
	}

	resumed, err := c.GenerationService.Resume(ctx)
	if err != nil {
		c.Logger.Error("Bootstrap", "Failed to resume pending generations", map[string]interface{}{"error": err.Error()})
	} else if resumed > 0 {
		c.Logger.Info("Bootstrap", "Resumed pending generations", map[string]interface{}{"count": resumed})
	}

	if c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, events.PaymentSettled, "payment-settlement", c.PaymentService.HandleSettledEvent); err != nil {
			c.Logger.Warn("Bootstrap", "Failed to subscribe to settlement events", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Shutdown waits for in-flight work and releases connections. ctx passed to Start must already be cancelled.
func (c *Container) Shutdown() {
	c.GenerationWorker.Wait()
	c.ChatService.Wait()

	if err := c.pubSub.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Failed to close job queue", map[string]interface{}{"error": err.Error()})
	}
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
}

func analysisModel(cfg *config.Config) string {
	if cfg.Ai.AnalysisProvider == "gemini" {
		return cfg.Ai.GeminiModel
	}
	return cfg.Ai.OllamaModel
}

func synthesizers(cfg *config.Config) map[ai.Algorithm]ai.Synthesizer {
	bindings := map[ai.Algorithm]ai.Synthesizer{
		ai.AlgorithmBasic:   synthesis.NewStableDiffusionMock(2 * time.Second),
		ai.AlgorithmPremium: synthesis.NewMidjourneyMock(3 * time.Second),
		ai.AlgorithmPro:     synthesis.NewMidjourneyMock(5 * time.Second),
	}
	if cfg.Ai.StableDiffusionURL != "" {
		bindings[ai.AlgorithmBasic] = synthesis.NewStableDiffusionSynthesizer(cfg.Ai.StableDiffusionURL, cfg.Ai.SynthesisTimeout)
	}
	if cfg.Ai.OpenAIAPIKey != "" {
		bindings[ai.AlgorithmPremium] = synthesis.NewDalleSynthesizer(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.SynthesisTimeout)
	}
	return bindings
}
