package bootstrap

import (
	"context"
	"log"

	"ai-toolkit-be/internal/config"
	"ai-toolkit-be/internal/controller"
	"ai-toolkit-be/internal/handler"
	"ai-toolkit-be/internal/pkg/logger"
	"ai-toolkit-be/internal/pkg/mailer"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/internal/service"
	"ai-toolkit-be/internal/websocket"
	"ai-toolkit-be/pkg/energy/catalog"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/guard"
	"ai-toolkit-be/pkg/energy/stats"

	pktNats "ai-toolkit-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// debitTopic is the internal bus topic carrying committed-debit messages
// to the low-energy consumer.
const debitTopic = "energy_debited"

type Container struct {
	// Controllers
	EnergyController  controller.IEnergyController
	AdminController   controller.IAdminController
	PaymentController controller.IPaymentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	EnergyStreamHandler *handler.EnergyStreamHandler
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

	// 2.5 Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
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

	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 3. Ledger Core
	var systemCallers []uuid.UUID
	for _, raw := range cfg.Energy.SystemCallerIds {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("[WARN] Skipping invalid system caller id %q: %v", raw, err)
			continue
		}
		systemCallers = append(systemCallers, id)
	}

	ledgerGuard := guard.New(guard.Config{
		ProtectedEmails: cfg.Energy.ProtectedAdminEmails,
		SystemCallers:   systemCallers,
	})
	toolCatalog := catalog.New()
	ledgerEngine := engine.New(uowFactory, sysLogger)
	aggregator := stats.New(uowFactory, cfg.Energy.ReferenceCap)

	// 4. Services
	publisherService := service.NewPublisherService(debitTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		debitTopic,
		uowFactory,
		emailService,
		natsPub,
		cfg.Energy.LowThreshold,
	)

	energyService := service.NewEnergyService(
		uowFactory,
		ledgerEngine,
		ledgerGuard,
		toolCatalog,
		aggregator,
		publisherService,
		natsPub,
		wsHub,
		cfg.Energy.ReferenceCap,
	)

	adminService := service.NewAdminService(
		uowFactory,
		ledgerEngine,
		ledgerGuard,
		aggregator,
		natsPub,
		wsHub,
		cfg.Energy.StartingAllotment,
		cfg.Energy.ReferenceCap,
	)

	paymentService := service.NewPaymentService(
		uowFactory,
		ledgerEngine,
		aggregator,
		emailService,
		natsPub,
		wsHub,
		service.PaymentConfig{
			ServerKey:    cfg.Payment.MidtransServerKey,
			IsProduction: cfg.Payment.IsProduction,
			FrontendURL:  cfg.App.ClientURL,
		},
		cfg.Energy.ReferenceCap,
	)

	streamHandler := handler.NewEnergyStreamHandler(wsHub, sysLogger)

	// 5. Controllers
	return &Container{
		EnergyController:  controller.NewEnergyController(energyService),
		AdminController:   controller.NewAdminController(adminService),
		PaymentController: controller.NewPaymentController(paymentService),

		ConsumerService: consumerService,

		EnergyStreamHandler: streamHandler,
		WebSocketHub:        wsHub,
	}
}
