package main

import (
	bookinghandler "djagency/internal/bookings/handler"
	bookingrepo "djagency/internal/bookings/repository"
	bookingservice "djagency/internal/bookings/service"
	bookingvalidator "djagency/internal/bookings/validator"
	djhandler "djagency/internal/djs/handler"
	djrepo "djagency/internal/djs/repository"
	djservice "djagency/internal/djs/service"
	djvalidator "djagency/internal/djs/validator"
	inquiryhandler "djagency/internal/inquiries/handler"
	inquiryrepo "djagency/internal/inquiries/repository"
	inquiryservice "djagency/internal/inquiries/service"
	inquiryvalidator "djagency/internal/inquiries/validator"
	tradehandler "djagency/internal/traderequests/handler"
	traderepo "djagency/internal/traderequests/repository"
	tradeservice "djagency/internal/traderequests/service"
	tradevalidator "djagency/internal/traderequests/validator"
	venuehandler "djagency/internal/venues/handler"
	venuerepo "djagency/internal/venues/repository"
	venueservice "djagency/internal/venues/service"
	venuevalidator "djagency/internal/venues/validator"
	"djagency/pkg/app"
	"djagency/pkg/config"
	"djagency/pkg/db"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/db/postgres"
	"djagency/pkg/kafka"
	kafka_config "djagency/pkg/kafka/config"
	kafka_middleware "djagency/pkg/kafka/middleware"
	"djagency/pkg/metrics"
	"djagency/pkg/notification"
)

const ServiceName = "agency"

type services struct {
	djs       djservice.DJService
	venues    venueservice.VenueService
	bookings  bookingservice.BookingService
	trades    tradeservice.TradeRequestService
	inquiries inquiryservice.InquiryService
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	if cfg.IdempotencyBackend == config.IdempotencyRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting agency service", "store_driver", cfg.StoreDriver)

	m := metrics.New(ServiceName)
	sender := newSender(cfg, m)
	notifier := notification.NewNotifier(
		notification.NewBuilder(cfg.NotificationRecipient, nil),
		sender,
		m,
		cfg.Log.Component("notification"),
	)

	svc := initServices(cfg, notifier, m)

	serverApp := app.NewApplication(cfg, m)
	serverApp.OnShutdown(sender)
	serverApp.SetApp(
		djhandler.NewDJHandler(svc.djs, cfg.Log),
		venuehandler.NewVenueHandler(svc.venues, cfg.Log),
		bookinghandler.NewBookingHandler(svc.bookings, cfg.Log),
		tradehandler.NewTradeRequestHandler(svc.trades, cfg.Log),
		inquiryhandler.NewInquiryHandler(svc.inquiries, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, notifier *notification.Notifier, m *metrics.Metrics) services {
	djRepo := djrepo.NewDJRepository(cfg)
	venueRepo := venuerepo.NewVenueRepository(cfg)
	bookingRepo := bookingrepo.NewBookingRepository(cfg)
	tradeRepo := traderepo.NewTradeRequestRepository(cfg)
	inquiryRepo := inquiryrepo.NewInquiryRepository(cfg)
	tx := newTxManager(cfg)

	djs := djservice.NewDJService(
		djRepo,
		djvalidator.NewDJValidator(),
		tx,
		map[string]djservice.Dependent{
			bookingrepo.CollectionName: bookingRepo,
			traderepo.CollectionName:   tradeRepo,
		},
		cfg,
	)
	venues := venueservice.NewVenueService(
		venueRepo,
		venuevalidator.NewVenueValidator(),
		tx,
		map[string]venueservice.Dependent{
			bookingrepo.CollectionName: bookingRepo,
		},
		cfg,
	)

	svc := services{
		djs:    djs,
		venues: venues,
		bookings: bookingservice.NewBookingService(
			bookingRepo,
			bookingvalidator.NewBookingValidator(cfg.Log),
			djs,
			venues,
			notifier,
			m,
			cfg,
		),
		trades: tradeservice.NewTradeRequestService(
			tradeRepo,
			tradevalidator.NewTradeRequestValidator(),
			djs,
			notifier,
			m,
			cfg,
		),
		inquiries: inquiryservice.NewInquiryService(
			inquiryRepo,
			inquiryvalidator.NewInquiryValidator(),
			notifier,
			m,
			cfg,
		),
	}

	cfg.Log.Info("Agency services initialized",
		"store_driver", cfg.StoreDriver,
		"delete_policy", cfg.DeletePolicy,
		"admin_booking_status", cfg.AdminBookingStatus,
	)
	return svc
}

func newTxManager(cfg *config.Config) db.TxManager {
	if cfg.StoreDriver == config.StorePostgres {
		return postgres.NewTransactionManager(cfg.Client.Postgres)
	}
	return mongodb.NewTransactionManager(cfg.Client.Mongo)
}

func newSender(cfg *config.Config, m *metrics.Metrics) notification.Sender {
	log := cfg.Log.Component("notification")

	switch cfg.NotificationDriver {
	case config.NotificationKafka:
		kcfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kcfg.LogConfiguration(log)

		producer, err := kafka.NewProducer(kcfg, cfg.NotificationTopic, cfg.NotificationDLQTopic, log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kcfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
			producer.Use(kafka_middleware.MetricsProducerMiddleware(m))
		}
		return notification.NewKafkaSender(producer, ServiceName)

	case config.NotificationRabbitMQ:
		sender, err := notification.NewRabbitMQSender(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			cfg.Log.Fatal("Failed to connect to RabbitMQ", "error", err)
		}
		return sender

	default:
		return notification.NewLogSender(log)
	}
}
