package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mlorentedev/doctran/internal/design"
	"github.com/mlorentedev/doctran/internal/extract"
	"github.com/mlorentedev/doctran/internal/middleware"
	"github.com/mlorentedev/doctran/internal/pipeline"
	"github.com/mlorentedev/doctran/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		useMock bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmdContext(cmd), port, useMock)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the mock provider instead of real backends")
	return cmd
}

func runServe(ctx context.Context, port int, useMock bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}
	system, err := systemPrompt(cfg)
	if err != nil {
		return err
	}

	providers, infos := server.BuildProviders(cfg, useMock, logger)
	defaultProvider := cfg.DefaultProvider
	if useMock {
		defaultProvider = "mock"
	}

	p := pipeline.New(pipeline.Config{
		Providers:       providers,
		DefaultProvider: defaultProvider,
		Extractor: extract.New(
			extract.WithMaxBytes(cfg.MaxUploadBytes),
			extract.WithMaxChars(cfg.MaxChars),
			extract.WithLogger(logger),
		),
		System:  system,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})

	handler := server.SetupMux(server.Deps{
		Pipeline:      p,
		Providers:     providers,
		ProviderInfos: infos,
		Inspector:     design.New(nil, logger),
		Version:       version,
		Middleware: middleware.Options{
			RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
			APIKey:      cfg.APIKey,
			// Room for multipart framing around a maximum-size upload.
			MaxBodyBytes: cfg.MaxUploadBytes + 1<<20,
			Timeout:      cfg.RequestTimeout + 5*time.Second,
			Logger:       logger,
		},
	})

	if cfg.APIKey != "" {
		logger.Info("auth: API key required (X-API-Key header)")
	} else {
		logger.Info("auth: disabled (no api_key configured)")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("doctran api listening", "addr", addr, "default_provider", defaultProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}
