package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.SetStd(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("server gracefully stopped", nil)
}

// server bundles the HTTP app with the resources it must release.
type server struct {
	app      *fiber.App
	store    *database.Store
	mq       *rabbitmq.Client
	closers  []func() error
	log      *logger.Logger
	consumer func(context.Context) error
}

// newServer opens the store and optional cache and broker, then builds the app.
func newServer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*server, error) {
	store, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	srv := &server{store: store, log: log}

	if cfg.SeedDemoData {
		n, err := database.Seed(ctx, store.Products)
		if err != nil {
			srv.close()
			return nil, err
		}
		if n > 0 {
			log.Info("seeded demo products", logger.Fields{"count": n})
		}
	}

	opts := []services.Option{services.WithLogger(log)}

	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Fields{"error": err.Error()})
		} else {
			srv.closers = append(srv.closers, client.Close)
			opts = append(opts, services.WithCache(cache.New(client, cfg.CacheTTL, log)))
		}
	}

	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Logger: log})
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", logger.Fields{"error": err.Error()})
		} else {
			srv.mq = mq
			srv.closers = append(srv.closers, mq.Close)
			opts = append(opts, services.WithPublisher(mq))
			srv.consumer = func(ctx context.Context) error {
				return mq.ConsumeProductEvents(ctx, rabbitmq.LogProductEvent(log))
			}
		}
	}

	service := services.NewProductService(store.Products, opts...)
	srv.app = app.New(app.Deps{
		Config:    cfg,
		Service:   service,
		Logger:    log,
		AccessLog: log.Writer(),
	})
	return srv, nil
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn("close failed", logger.Fields{"error": err.Error()})
		}
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("database close failed", logger.Fields{"error": err.Error()})
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	srv, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer srv.close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", logger.Fields{"addr": cfg.Addr(), "env": cfg.AppEnv, "driver": srv.store.Driver})
		return srv.app.Listen(cfg.Addr())
	})

	if srv.consumer != nil {
		g.Go(func() error {
			return srv.consumer(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
