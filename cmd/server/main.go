package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/lisan/adapters/stt"
	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/api"
	"github.com/satriahrh/lisan/internal/config"
	"github.com/satriahrh/lisan/internal/metrics"
	"github.com/satriahrh/lisan/internal/websocket"
)

func createLogger(levelValue string) *zap.Logger {
	level, err := zapcore.ParseLevel(levelValue)
	if err != nil {
		level = zapcore.InfoLevel
	}

	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stdout),
		level,
	)).Named("lisan")

	if err != nil && levelValue != "" {
		logger.Warn("unable to parse log level, using INFO", zap.String("LOG_LEVEL", levelValue))
	}
	return logger
}

// newRecognizer builds the configured backend. A Google client that cannot
// be created leaves the server running with every call reporting the cause.
func newRecognizer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, func()) {
	if cfg.STTMode == config.STTModeMock {
		logger.Info("Using mock speech recognizer")
		return stt.NewMockSpeechToText(logger.Named("stt")), func() {}
	}

	google, err := stt.NewGoogleSpeechToText(ctx, cfg.CredentialsFile, logger.Named("stt"))
	if err != nil {
		logger.Error("Error initializing Google Cloud Speech client, running degraded",
			zap.String("credentialsFile", cfg.CredentialsFile),
			zap.Error(err))
		return stt.NewUnavailableSpeechToText(err), func() {}
	}

	logger.Info("Google Cloud Speech client initialized")
	return google, func() {
		if err := google.Close(); err != nil {
			logger.Warn("Failed to close speech client", zap.Error(err))
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	logger := createLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recognizer, closeRecognizer := newRecognizer(ctx, cfg, logger)
	defer closeRecognizer()

	pool := stt.NewPooledSpeechToText(recognizer, cfg.RecognizerConcurrency)
	defer pool.Stop()

	m := metrics.New()
	m.RegisterQueueDepth(pool.WaitingQueueSize)

	hub := websocket.NewHub(pool, websocket.RelayConfig{
		AudioConfig:      websocket.DefaultAudioConfig(cfg.LanguageCode),
		MinChunkBytes:    cfg.MinChunkBytes,
		RecognizeTimeout: cfg.RecognizeTimeout,
		MaxMessageBytes:  cfg.MaxMessageBytes,
	}, m, logger.Named("relay"))

	if err := api.CheckStaticDir(cfg.StaticDir); err != nil {
		logger.Error("Static files unavailable, landing page will fail",
			zap.String("staticDir", cfg.StaticDir),
			zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, hub, m, api.Options{
		StaticDir:         cfg.StaticDir,
		ClientTokenSecret: []byte(cfg.ClientTokenSecret),
	}, logger.Named("api"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server started", zap.String("address", cfg.Address()))
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server is shutting down...")

		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server exited")
}
