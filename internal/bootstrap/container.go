package bootstrap

import (
	"travel-chat-be/internal/config"
	"travel-chat-be/internal/constant"
	"travel-chat-be/internal/controller"
	"travel-chat-be/internal/pkg/logger"
	"travel-chat-be/internal/repository/unitofwork"
	"travel-chat-be/internal/service"
	"travel-chat-be/pkg/geo"
	"travel-chat-be/pkg/llm/ollama"
	"travel-chat-be/pkg/weather"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	publisherService := service.NewPublisherService(pubSub, constant.ChatAuditTopicName)
	consumerService := service.NewConsumerService(pubSub, constant.ChatAuditTopicName, uowFactory)

	// 3. External Clients
	geocoder := geo.NewClient(cfg.Weather.GeocodeBaseURL)
	weatherClient := weather.NewClient(cfg.Weather.ForecastBaseURL)
	streamProvider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)

	// 4. Services
	enrichmentService := service.NewEnrichmentService(geocoder, weatherClient, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		streamProvider,
		enrichmentService,
		publisherService,
		sysLogger,
		cfg.Chat.MaxSessionMessages,
		cfg.Chat.ContextWindow,
	)

	// 5. Controllers
	chatController := controller.NewChatController(chatService)

	return &Container{
		ChatController:  chatController,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
