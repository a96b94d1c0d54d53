package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"matchlens/pkg/cache"
	"matchlens/pkg/config"
	"matchlens/pkg/log"
	"matchlens/pkg/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.NewLogger(cfg.LogLevel)

	engine := vision.NewTesseractEngine(
		cfg.EngineLanguage,
		cfg.EngineWhitelist,
		cfg.EngineRateLimit,
		logger.WithField("component", "engine"),
	)

	analyzer := vision.NewAnalyzer(engine,
		vision.WithTimeout(time.Duration(cfg.EngineTimeoutMS)*time.Millisecond),
		vision.WithContrastGain(cfg.ContrastGain),
		vision.WithCache(recordCache(cfg), time.Duration(cfg.CacheTTLMinutes)*time.Minute),
		vision.WithLogger(logger.WithField("component", "analyzer")),
	)
	// Init failure is non-fatal: the analyzer keeps serving simulated records
	// so the app stays usable where tesseract is not installed.
	if err := analyzer.Init(context.Background()); err != nil {
		logger.WithError(err).Warn("starting without recognition engine")
	}
	defer analyzer.Close()

	srv := &server{
		cfg:      cfg,
		analyzer: analyzer,
		batch:    vision.NewBatchAnalyzer(analyzer, logger.WithField("component", "batch")),
	}

	r := gin.Default()
	setupRoutes(r, srv)
	if err := r.Run(cfg.Addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// recordCache picks redis when configured and reachable, otherwise an
// in-process cache.
func recordCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	r := cache.NewRedis(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		log.Named("cache").WithError(err).Warn("redis unreachable, using in-process cache")
		return cache.NewMemory()
	}
	return r
}
