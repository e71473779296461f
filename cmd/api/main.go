package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"imageeditor/internal/http/handlers"
	httpapi "imageeditor/internal/http/httpapi"
	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
	"imageeditor/internal/metrics"
	"imageeditor/internal/providers/gemini"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	var generator imagegen.ContentGenerator
	if cfg.HasAPIKey() {
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: &http.Client{Timeout: cfg.EditTimeout},
			Logger:     &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure gemini client")
		}
		generator = client
	} else {
		logger.Warn().Msg("GOOGLE_API_KEY not set, edit requests will fail until it is configured")
	}

	invoker := imagegen.NewInvoker(imagegen.Options{
		APIKey:    cfg.GeminiAPIKey,
		Generator: generator,
		Logger:    &logger,
		Metrics:   collector,
		MaxPixels: cfg.MaxImagePixels,
		Timeout:   cfg.EditTimeout,
	})

	app := handlers.NewApp(invoker, &logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, httpapi.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             &logger,
		Metrics:            collector,
	})

	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("model", imagegen.ModelName).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
