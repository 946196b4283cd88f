package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	var notifier checkout.Notifier
	if cfg.RabbitURL != "" {
		pub, err := events.Dial(cfg.RabbitURL, logger)
		if err != nil {
			// Orders still go through; only the notification is lost.
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			defer pub.Close()
			notifier = pub
		}
	}

	// Base HTTP client (shared)
	sharedHTTP := &http.Client{Timeout: cfg.UpstreamTimeout}

	productBase := clients.NewClient("product-service", cfg.ProductURL, sharedHTTP, logger)
	orderBase := clients.NewClient("order-service", cfg.OrderURL, sharedHTTP, logger)
	adminBase := clients.NewClient("admin-service", cfg.AdminURL, sharedHTTP, logger)

	products := clients.NewProductClient(productBase)
	orders := clients.NewOrderClient(orderBase)

	sessions := session.NewManager(session.Deps{
		Backend:         backend,
		Products:        products,
		Promos:          orders,
		Orders:          orders,
		Notifier:        notifier,
		Auth:            clients.NewAuthClient(adminBase),
		Admin:           adminBase,
		CatalogPageSize: cfg.CatalogPageSize,
		AdminPageSize:   cfg.AdminPageSize,
		SearchDelay:     cfg.SearchDebounce,
		MaxLive:         cfg.MaxSessions,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Logger:   logger,
			Cfg:      cfg,
			Sessions: sessions,
			Products: products,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweepEvery := cfg.SessionIdleTTL / 2
	if sweepEvery < time.Second {
		sweepEvery = time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, sweepEvery, cfg.SessionIdleTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Backend, func(), error) {
	if cfg.StorageDriver != config.StoragePostgres {
		return storage.NewMemory(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return nil, nil, err
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewPostgres(pool), pool.Close, nil
}
