package bootstrap

import (
	"context"
	"log"

	"ai-studymate-be/internal/config"
	"ai-studymate-be/internal/controller"
	"ai-studymate-be/internal/handler"
	"ai-studymate-be/internal/pkg/logger"
	"ai-studymate-be/internal/pkg/mailer"
	"ai-studymate-be/internal/repository/implementation"
	"ai-studymate-be/internal/repository/memory"
	"ai-studymate-be/internal/repository/unitofwork"
	"ai-studymate-be/internal/service"
	"ai-studymate-be/internal/websocket"
	"ai-studymate-be/pkg/chatbot"
	"ai-studymate-be/pkg/embedding"
	"ai-studymate-be/pkg/llm/factory"
	"ai-studymate-be/pkg/speech"

	pktNats "ai-studymate-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	OAuthController  controller.IOAuthController
	UserController   controller.IUserController
	ReportController controller.IReportController
	TutorController  controller.ITutorController

	// Background Services (Exposed for main.go to run)
	ConsumerService             service.IConsumerService
	PendingQueryConsumerService service.IPendingQueryConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
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
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	speechProvider := speech.NewGeminiSpeechProvider(cfg.Keys.GoogleGemini, cfg.Ai.NarrationModel)
	turnSender := chatbot.NewGeminiTurnSender(cfg.Keys.GoogleGemini, cfg.Ai.LLMModel)

	// In-memory live tutor sessions
	tutorSessionRepo := memory.NewTutorSessionRepository()

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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

	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	embedPublisher := service.NewPublisherService(pubSub, cfg.Keys.EmbedReportTopic)
	pendingPublisher := service.NewPublisherService(pubSub, cfg.Keys.PendingQueryTopic)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedReportTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	userService := service.NewUserService(uowFactory, cfg.Ai.DailyUsageLimit)
	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)

	tutorService := service.NewTutorService(
		uowFactory,
		tutorSessionRepo,
		turnSender,
		userService,
		pendingPublisher,
		sysLogger,
	)

	reportService := service.NewReportService(
		uowFactory,
		llmProvider,
		speechProvider,
		embedPublisher,
		userService,
		tutorService,
		sysLogger,
	)

	pendingConsumerService := service.NewPendingQueryConsumerService(
		pubSub,
		cfg.Keys.PendingQueryTopic,
		tutorService,
	)

	// 6. Notification System
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	return &Container{
		AuthController:   controller.NewAuthController(authService),
		OAuthController:  controller.NewOAuthController(oauthService),
		UserController:   controller.NewUserController(userService),
		ReportController: controller.NewReportController(reportService),
		TutorController:  controller.NewTutorController(tutorService),

		ConsumerService:             consumerService,
		PendingQueryConsumerService: pendingConsumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
