package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"wine-classifier/internal/cfg"
	"wine-classifier/internal/features"
	"wine-classifier/internal/metrics"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/server"
	"wine-classifier/internal/serving"
	"wine-classifier/internal/storage"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	closeLog := setupLogging(c)
	defer closeLog()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	handler := initializeHandler(c, mw)

	store := initializeStorage(c)
	opts := server.Options{
		Addr:           c.ListenAddr(),
		RequestTimeout: c.RequestTimeout,
	}
	if store != nil {
		defer store.Close()
		opts.Recorder = store
		opts.RecorderMetrics = mw
	}

	ms := server.NewModelServer(handler, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ms.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("model server failed")
			cancel()
		}
	}()

	log.Info().
		Str("addr", c.ListenAddr()).
		Str("model_version", handler.ModelVersion()).
		Msg("prediction service ready")

	waitForShutdown(ctx, ms)
}

// setupLogging configures the global zerolog logger and returns a closer for the log file.
func setupLogging(c cfg.Settings) func() {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if strings.EqualFold(c.LogFormat, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	closer := func() {}
	if c.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = func() { file.Close() }
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer
}

// initializeHandler loads the model and resolves the serving configuration. Without a
// loadable model the process exits.
func initializeHandler(c cfg.Settings, mw *metrics.MetricsWrapper) *serving.Handler {
	model, err := ml.LoadWithMetrics(c.ModelPath, mw)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.ModelPath).Msg("model load failed")
	}

	md, err := ml.LoadMetadata(c.ModelPath)
	if err != nil {
		log.Debug().Err(err).Msg("no model metadata, using configured values")
		md = nil
	}

	version := ml.ResolveVersion(c.ModelVersion, md)
	schema, err := features.NewSchema(ml.ResolveFeatureNames(c.FeatureNames, md))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid feature schema")
	}

	model, err = wrapEstimator(model, c.CacheSize, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("prediction cache setup failed")
	}

	handler, err := serving.NewHandler(serving.Config{Schema: schema, ModelVersion: version}, model, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("handler setup failed")
	}

	log.Info().
		Str("model_version", version).
		Str("capability", ml.CapabilityOf(model).String()).
		Int("features", schema.Len()).
		Int("cache_size", c.CacheSize).
		Msg("model loaded")
	return handler
}

// wrapEstimator instruments the bare model before caching it, so cache hits are
// counted as hits and never as inferences.
func wrapEstimator(model ml.Estimator, cacheSize int, metrics ml.MetricsInterface) (ml.Estimator, error) {
	return ml.NewCached(ml.NewInstrumented(model, metrics), cacheSize, metrics)
}

// initializeStorage opens the prediction log if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("cannot create data path, continuing without prediction log")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction log")
		return nil
	}
	if n, err := store.Count(); err == nil {
		log.Info().Str("path", c.DataPath).Int("records", n).Msg("prediction log opened")
	}
	return store
}

// waitForShutdown waits for shutdown signals and drains the server
func waitForShutdown(ctx context.Context, ms *server.ModelServer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ms.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("server stopped")
}
