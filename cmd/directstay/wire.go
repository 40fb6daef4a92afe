package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"directstay/internal/app/checkout"
	"directstay/internal/app/commands"
	calendarapp "directstay/internal/app/handlers/calendar"
	propertiesapp "directstay/internal/app/handlers/properties"
	storefrontapp "directstay/internal/app/handlers/storefront"
	"directstay/internal/app/middleware"
	appoutbox "directstay/internal/app/outbox"
	"directstay/internal/app/policies"
	"directstay/internal/app/queries"
	"directstay/internal/app/storefront"
	"directstay/internal/domain/availability"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/infra/broker/kafka"
	rediscache "directstay/internal/infra/cache/redis"
	"directstay/internal/infra/config"
	dbmongo "directstay/internal/infra/db/mongo"
	ginserver "directstay/internal/infra/http/gin"
	"directstay/internal/infra/inbox"
	"directstay/internal/infra/obs"
	"directstay/internal/infra/outbox"
	"directstay/internal/infra/paymentwidget"
	"directstay/internal/infra/remote/bookingapi"
	infraschedule "directstay/internal/infra/schedule"
	"directstay/internal/infra/storage/memory"
)

const (
	sweepInterval      = time.Minute
	idempotencyTTL     = 24 * time.Hour
	inboxRetention     = 7 * 24 * time.Hour
	outboxBatchSize    = 100
	widgetProbeTimeout = 10 * time.Second
)

type runner struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	sessions *storefront.Service
	checks   map[string]obs.Check
	runners  []runner
	closers  []func(ctx context.Context) error
}

// ports are the storage and remote collaborators chosen by STORAGE_MODE.
type ports struct {
	properties   domainproperties.Repository
	availability policies.AvailabilityPort
	bookings     policies.BookingPort
	payments     policies.PaymentsPort
	outbox       appoutbox.Outbox
	idempotency  middleware.IdempotencyStore
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}
	sync := &calendarapp.SyncHandler{Logger: logger}
	widgets := paymentwidget.NewRegistry(cfg.PaymentWidgetURL, nil, logger)

	var (
		p   ports
		err error
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		p, err = app.wireMongo(ctx, cfg, logger, metrics, sync)
		widgets.Probe = &http.Client{Timeout: widgetProbeTimeout}
	default:
		p, err = app.wireMemory(ctx, cfg, logger, sync)
		widgets.AutoReady = true
	}
	if err != nil {
		app.close(logger)
		return nil, err
	}

	timers := infraschedule.NewTimers()
	app.closers = append(app.closers, func(context.Context) error {
		timers.Stop()
		return nil
	})

	sessions := storefront.New(storefront.Deps{
		Properties:   p.properties,
		Availability: p.availability,
		Bookings:     p.bookings,
		Payments:     p.payments,
		Widgets:      func(id storefront.SessionID) policies.PaymentWidget { return widgets.Slot(string(id)) },
		Release:      func(id storefront.SessionID) { widgets.Release(string(id)) },
		Scheduler:    timers,
		Outbox:       p.outbox,
		Telemetry:    metrics,
		Timing: checkout.Timing{
			InitTimeout:  cfg.PaymentInitTimeout,
			WarningAfter: cfg.PaymentWarningAfter,
			ExpiryAfter:  cfg.PaymentExpiryAfter,
			SuccessParam: cfg.PaymentSuccessParam,
		},
		IdleTTL: cfg.SessionIdleTTL,
		Logger:  logger,
	})
	sync.Sessions = sessions
	app.sessions = sessions
	app.runners = append(app.runners, runner{name: "session-sweeper", run: func(ctx context.Context) error {
		return sessions.RunSweeper(ctx, sweepInterval)
	}})

	validator := middleware.NewStructValidator()
	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, storefrontapp.SubmitDraftKey, &storefrontapp.SubmitDraftHandler{Sessions: sessions, Logger: logger})
	commands.RegisterHandler(commandBus, storefrontapp.ProceedCheckoutKey, &storefrontapp.ProceedCheckoutHandler{Sessions: sessions, Logger: logger})
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(p.idempotency, nil),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, propertiesapp.CalendarKey, &propertiesapp.CalendarHandler{Properties: p.properties, Availability: p.availability})
	queries.RegisterHandler(queryBus, propertiesapp.QuoteKey, &propertiesapp.QuoteHandler{Properties: p.properties, Availability: p.availability})
	qs := middleware.ChainQueries(queryBus, middleware.QueryLogging(logger), middleware.QueryValidation(validator))
	logger.Debug("application buses wired", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	app.handlers = ginserver.Handlers{
		Sessions:   ginserver.SessionHandler{Sessions: sessions, Commands: cmds},
		Draft:      ginserver.SessionHandler{Sessions: sessions, Commands: cmds},
		Checkout:   ginserver.CheckoutHandler{Sessions: sessions, Commands: cmds, Widgets: widgets},
		Properties: ginserver.PropertyHandler{Queries: qs},
		Metrics:    metrics.Handler(),
	}
	return app, nil
}

// wireMemory runs the booking backend in process. Its events reach the
// calendar sync through a loopback instead of a broker.
func (a *application) wireMemory(ctx context.Context, cfg config.Config, logger *slog.Logger, sync *calendarapp.SyncHandler) (ports, error) {
	props := memory.NewPropertyRepository()
	loop := memory.NewLoopback(sync, 0, logger)
	box := memory.NewOutbox(loop)
	backend := memory.NewBackend(props, box, logger)

	fixtures, err := memory.LoadFixtures(cfg.PropertyFixtures)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("property fixtures file not found, skipping", "path", cfg.PropertyFixtures)
	case err != nil:
		return ports{}, fmt.Errorf("load fixtures: %w", err)
	default:
		if err := memory.Seed(ctx, fixtures, props, backend.Calendars); err != nil {
			return ports{}, fmt.Errorf("seed fixtures: %w", err)
		}
		logger.Info("property fixtures imported", "path", cfg.PropertyFixtures, "count", len(fixtures))
	}

	a.runners = append(a.runners, runner{name: "event-loopback", run: loop.Run})
	return ports{
		properties:   props,
		availability: backend,
		bookings:     backend,
		payments:     backend,
		outbox:       box,
		idempotency:  memory.NewIdempotencyStore(idempotencyTTL),
	}, nil
}

func (a *application) wireMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, sync *calendarapp.SyncHandler) (ports, error) {
	client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return ports{}, fmt.Errorf("mongo connect: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.checks["mongo"] = client.Ping

	idem, err := dbmongo.NewIdempotencyStore(ctx, client.DB, idempotencyTTL)
	if err != nil {
		return ports{}, fmt.Errorf("idempotency store: %w", err)
	}
	store, err := outbox.NewStore(ctx, client.DB)
	if err != nil {
		return ports{}, fmt.Errorf("outbox store: %w", err)
	}

	api, err := bookingapi.New(bookingapi.Options{
		BaseURL:  cfg.BookingAPIURL,
		APIKey:   cfg.BookingAPIKey,
		RPS:      cfg.BookingAPIRPS,
		Backoff:  cfg.RetryBackoff,
		Observer: metrics,
		Logger:   logger,
	})
	if err != nil {
		return ports{}, fmt.Errorf("booking api: %w", err)
	}
	var avail policies.AvailabilityPort = api
	if cfg.RedisAddr != "" {
		rc := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		cache := rediscache.NewAvailabilityCache(rc, api, cfg.AvailabilityCacheTTL, metrics, logger)
		a.checks["redis"] = cache.Ping
		sync.Cache = cache
		avail = cache
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return ports{}, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	worker := &outbox.Worker{
		Store:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		BatchSize:   outboxBatchSize,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          workerID(),
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	a.runners = append(a.runners, runner{name: "outbox-publisher", run: worker.Run})

	if cfg.CalendarEvents {
		seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaConsumerGroup, inboxRetention)
		if err != nil {
			return ports{}, fmt.Errorf("inbox store: %w", err)
		}
		handler := kafka.EnvelopeHandler{Inbox: seen, Events: sync, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, handler, logger)
		if err != nil {
			return ports{}, fmt.Errorf("kafka consumer: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
		topic := outbox.TopicFor(cfg.KafkaTopicPrefix, availability.EventCalendarBlocked)
		a.runners = append(a.runners, runner{name: "calendar-consumer", run: func(ctx context.Context) error {
			return consumer.Run(ctx, []string{topic})
		}})
	}

	return ports{
		properties:   dbmongo.NewPropertyRepository(client.DB),
		availability: avail,
		bookings:     api,
		payments:     api,
		outbox:       store,
		idempotency:  idem,
	}, nil
}

// close releases resources in reverse order of acquisition.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "directstay"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
