package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/controller"
	"ai-deskmate-be/internal/handler"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/pkg/mailer"
	"ai-deskmate-be/internal/repository/memory"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/internal/service"
	"ai-deskmate-be/internal/websocket"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/embedding/jina"
	"ai-deskmate-be/pkg/events"
	"ai-deskmate-be/pkg/llm/factory"
	"ai-deskmate-be/pkg/metrics"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/dialogue"

	pktNats "ai-deskmate-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RouteController controller.IRouteController
	AdminController controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Decision Stream
	DecisionStreamHandler *handler.DecisionStreamHandler
	WebSocketHub          *websocket.Hub

	// Hot reload of routing.yaml; runs for the process lifetime.
	PolicyWatcher *config.PolicyWatcher

	// Live state, surfaced on the health endpoint.
	Policies   *config.PolicyHolder
	Prototypes *prototype.Store
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// Tells this instance's events apart from its peers' on shared buses.
	instanceId := uuid.NewString()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaApiKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIEmbeddingProvider(
			cfg.Ai.OpenAIApiKey,
			cfg.Ai.LLMBaseURL,
			"text-embedding-3-small",
			cfg.Ai.EmbeddingDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmApiKey := ""
	switch cfg.Ai.LLMProvider {
	case "openai":
		llmApiKey = cfg.Ai.OpenAIApiKey
	case "huggingface":
		llmApiKey = cfg.Ai.HuggingFaceApiKey
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		llmApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/decisions.log")
	wsHub := websocket.NewHub(rdb, instanceId, wsLogger)
	go wsHub.Run()

	// 5. Routing Policy
	rawPolicy, err := config.LoadRoutingPolicy(cfg.Routing.PolicyPath)
	if err != nil {
		log.Fatalf("[FATAL] Routing policy unusable: %v", err)
	}
	compiledPolicy, err := config.CompilePolicy(rawPolicy)
	if err != nil {
		log.Fatalf("[FATAL] Routing policy failed to compile: %v", err)
	}
	policies, err := config.NewPolicyHolder(compiledPolicy)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	log.Printf("[INFO] Routing policy loaded (%d gate rules)", compiledPolicy.Gate.Rules())

	// 6. Prototype Catalog
	// The router cannot answer anything without a valid snapshot, so a
	// broken catalog stops startup here.
	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rows, err := uowFactory.NewUnitOfWork(bootCtx).PrototypeRepository().FindActive(bootCtx)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load prototype catalog: %v", err)
	}
	bootSnapshot, err := service.BuildSnapshot("boot-"+time.Now().UTC().Format("20060102T150405"), rows)
	if err != nil {
		log.Fatalf("[FATAL] Prototype catalog unusable: %v", err)
	}
	prototypes, err := prototype.NewStore(bootSnapshot)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	for _, category := range routing.AllCategories() {
		metrics.PrototypeCatalogSize.WithLabelValues(string(category)).Set(float64(len(bootSnapshot.ExamplesFor(category))))
	}
	log.Printf("[INFO] Prototype snapshot %s loaded (%d examples, %d dims)",
		bootSnapshot.Version(), bootSnapshot.Count(), bootSnapshot.Dimensions())

	// 7. Dialogue State
	var pendingStore *memory.ClarificationRepository
	pendingStore = memory.NewClarificationRepository(rawPolicy.ClarificationTTL(), func(pending *dialogue.PendingClarification) {
		metrics.ClarificationOutcomes.WithLabelValues("expired").Inc()
		metrics.ClarificationsOpen.Set(float64(pendingStore.Count()))
		if natsPub != nil {
			evt := events.BaseEvent{
				Type: events.TypeClarificationExpired,
				Data: map[string]interface{}{
					"conversation_id": pending.ConversationId,
					"question":        pending.Question,
					"phase":           string(pending.Phase),
					"created_at":      pending.CreatedAt,
				},
				OccurredAt: time.Now(),
			}
			if err := natsPub.Publish(context.Background(), evt); err != nil {
				log.Printf("[WARN] Failed to publish clarification expiry: %v", err)
			}
		}
	})
	dialogueMachine := dialogue.NewMachine(pendingStore)

	// 8. Services
	publisherService := service.NewPublisherService(service.PrototypeRefreshTopic, pubSub)
	catalogService := service.NewCatalogService(uowFactory, embeddingProvider, prototypes, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		service.PrototypeRefreshTopic,
		catalogService,
		natsPub,
		emailService,
		cfg.SMTP.AlertEmail,
		instanceId,
	)

	authService := service.NewAuthService(uowFactory, sysLogger)
	adminService := service.NewAdminService(
		uowFactory,
		policies,
		cfg.Routing.PolicyPath,
		prototypes,
		catalogService,
		publisherService,
		natsPub,
		embeddingProvider,
		instanceId,
		sysLogger,
	)
	routerService := service.NewRouterService(
		uowFactory,
		policies,
		prototypes,
		embeddingProvider,
		llmProvider,
		dialogueMachine,
		pendingStore,
		rdb,
		natsPub,
		wsHub,
		sysLogger,
	)

	// Database overrides beat the file; operators set them at runtime and
	// expect them back after a restart.
	if err := adminService.ApplyStoredOverrides(bootCtx); err != nil {
		log.Fatalf("[FATAL] Stored policy overrides unusable: %v", err)
	}

	// 9. Cross-instance catalog sync
	if natsSub != nil {
		err := natsSub.Subscribe(
			pktNats.SubjectPrefix+"."+events.TypePrototypeCatalogUpdated,
			"catalog-sync-worker",
			func(ctx context.Context, evt events.Event) error {
				if origin, _ := evt.Payload()["instance_id"].(string); origin == instanceId {
					return nil
				}
				_, err := catalogService.Rebuild(ctx)
				return err
			},
		)
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to catalog updates: %v", err)
		}
	}

	// 10. Policy hot reload
	var policyWatcher *config.PolicyWatcher
	if cfg.Routing.HotReload {
		policyWatcher, err = config.WatchRoutingPolicy(cfg.Routing.PolicyPath, policies, sysLogger, func(path string, cause error) {
			if cfg.SMTP.AlertEmail == "" {
				return
			}
			if err := emailService.SendPolicyReloadAlert(cfg.SMTP.AlertEmail, path, cause.Error()); err != nil {
				log.Printf("[WARN] Failed to send policy reload alert: %v", err)
			}
		})
		if err != nil {
			log.Printf("[WARN] Policy hot reload disabled: %v", err)
		}
	}

	// 11. Controllers
	return &Container{
		RouteController: controller.NewRouteController(routerService),
		AdminController: controller.NewAdminController(authService, adminService),

		ConsumerService: consumerService,

		DecisionStreamHandler: handler.NewDecisionStreamHandler(wsHub, wsLogger),
		WebSocketHub:          wsHub,

		PolicyWatcher: policyWatcher,

		Policies:   policies,
		Prototypes: prototypes,
	}
}
