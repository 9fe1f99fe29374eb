package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vedran77/vybe/internal/activity"
	"github.com/vedran77/vybe/internal/broker/kafka"
	"github.com/vedran77/vybe/internal/config"
	"github.com/vedran77/vybe/internal/database"
	"github.com/vedran77/vybe/internal/obs"
	"github.com/vedran77/vybe/internal/repository"
	"github.com/vedran77/vybe/internal/repository/memory"
	mongorepo "github.com/vedran77/vybe/internal/repository/mongo"
	postgresrepo "github.com/vedran77/vybe/internal/repository/postgres"
	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/internal/transport/http/handlers"
	"github.com/vedran77/vybe/internal/transport/http/middleware"
	"github.com/vedran77/vybe/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Realtime
	hub := ws.NewHub(logger)
	router := service.NewRouter(repos, logger)
	router.SetNotifier(ws.NewHubNotifier(hub))
	dispatcher := ws.NewDispatcher(router, logger)

	// Activity stream
	streamDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("creating kafka producer: %w", err)
		}
		defer producer.Close()
		stream := activity.NewStream(producer, cfg.KafkaTopic, 0, logger)
		router.SetPublisher(stream)
		go func() {
			defer close(streamDone)
			stream.Run(ctx)
		}()
		logger.Info("activity stream enabled", "topic", cfg.KafkaTopic)
	} else {
		close(streamDone)
	}

	// Handlers
	messageHandler := handlers.NewMessageHandler(router, logger)
	notificationHandler := handlers.NewNotificationHandler(service.NewNotificationService(repos), logger)
	eventsHandler := handlers.NewEventsHandler(router, logger)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /ws", ws.ServeWS(hub, dispatcher, ws.Options{
		RequireToken:   cfg.WSRequireToken,
		JWTSecret:      cfg.JWTSecret,
		OriginPatterns: cfg.WSOrigins,
	}, logger))

	// Protected
	handlers.Routes(mux, middleware.Auth(cfg.JWTSecret), messageHandler, notificationHandler, eventsHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: middleware.CORS(cfg.CORSOrigins)(mux),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	<-streamDone
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Set, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewSet(), func() {}, nil

	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return repository.Set{}, nil, err
		}
		if err := mongorepo.EnsureIndexes(ctx, client.DB); err != nil {
			client.Close(context.Background())
			return repository.Set{}, nil, err
		}
		logger.Info("connected to mongo", "db", cfg.MongoDB)
		return mongorepo.NewSet(client.DB), func() { client.Close(context.Background()) }, nil

	default:
		pool, err := database.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return repository.Set{}, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return repository.Set{}, nil, err
		}
		logger.Info("connected to database", "host", cfg.DBHost, "db", cfg.DBName)
		return postgresrepo.NewSet(pool), pool.Close, nil
	}
}
