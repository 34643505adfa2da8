package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/hirescope/internal/config"
	"github.com/ZanzyTHEbar/hirescope/internal/database"
	"github.com/ZanzyTHEbar/hirescope/internal/leaderboard"
	"github.com/ZanzyTHEbar/hirescope/internal/middleware"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/ratelimit"
	"github.com/ZanzyTHEbar/hirescope/internal/security"
	"github.com/ZanzyTHEbar/hirescope/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := loadConfig(ctx, os.Stdout)
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Port = servePort
		}
		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
}

// serve runs the server until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	metrics := monitoring.NewMetrics()
	caches := service.NewCaches(cfg.Cache)

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	boards := leaderboard.NewService(
		database.NewRepository(db),
		leaderboard.NewLeaderboardCacheOn(caches.Leaderboard),
	)

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting in memory", "addr", cfg.Redis.Addr, "error", err)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, metrics)

	p := newPipeline(cfg, caches, boards, metrics, logger)

	janitor := caches.Janitor(cfg.Cache.SweepInterval)
	janitor.Register(limiter.Memory())
	go janitor.Run(ctx)

	go boards.WarmCache(ctx)
	if cfg.WarmCache {
		go func() {
			n := p.service.WarmProfiles(ctx, service.DemoProfiles)
			logger.SystemLogger("profile-warmup", strconv.Itoa(n)+" profiles cached")
		}()
	}

	s := &server{
		analyzer: p.service,
		boards:   boards,
		caches:   caches,
		limiter:  limiter,
		security: security.NewMiddleware(security.Config{
			AllowedOrigins: cfg.CORSOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			EnableHSTS:     cfg.Server.EnableHSTS,
		}),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		metrics:     metrics,
		logger:      logger,
		githubAuth:  cfg.GitHub.TokenSource,
		version:     version,
		extraStats: map[string]func() map[string]interface{}{
			"github_breaker": p.github.BreakerStats,
			"database_pool":  db.GetPoolStats,
		},
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"github_auth", cfg.GitHub.TokenSource,
			"synthesizer", cfg.Gemini.APIKey != "",
			"redis", redisClient.IsEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}
