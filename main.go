package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trackadmission/go-services/internal/app"
	"github.com/trackadmission/go-services/internal/config"
	"github.com/trackadmission/go-services/internal/housekeeping"
	"github.com/trackadmission/go-services/internal/storage"
	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/metrics"
	"github.com/trackadmission/go-services/pkg/middleware"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg)
	logger.Infof("config loaded: %s", a.Describe())

	// the manager connects lazily; a failure here only delays index creation
	ictx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	if err := a.EnsureIndexes(ictx); err != nil {
		logger.Warnf("index setup failed, will retry on next start: %v", err)
	}
	cancel()

	deps := routerDeps{
		verifier: a.Verifier(ctx),
		revoked:  a.Revocations,
		tokenTTL: cfg.JWT.AccessTokenTTL,
		db:       a.DB,
		redis:    a.Redis,
		form:     formLimiter(cfg, a),
	}
	if cfg.RateLimit.Enabled {
		deps.global = middleware.RateLimitMiddleware("global", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if mc := storage.LoadMinIOConfig(); mc.Enabled() {
		store, err := storage.NewMinIOStorage(ctx, mc)
		if err != nil {
			logger.Warnf("media uploads disabled: %v", err)
		} else {
			deps.uploader = storage.NewUploader(store)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(a, deps)

	sched := housekeeping.New(0, a.Jobs()...)
	if spec := cfg.Versioning.PurgeSchedule; spec != "" {
		if err := sched.Schedule(spec); err != nil {
			logger.Fatalf("invalid VERSIONING_PURGE_SCHEDULE %q: %v", spec, err)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	if err := sched.Stop(sctx); err != nil {
		logger.Errorf("housekeeping stop: %v", err)
	}
	if err := a.Close(sctx); err != nil {
		logger.Errorf("close: %v", err)
	}
}

// formLimiter always guards the public form; Redis backs it when configured
// so the budget is shared across replicas.
func formLimiter(cfg *config.Config, a *app.App) gin.HandlerFunc {
	rl := cfg.RateLimit
	if rl.UseRedis && a.Redis != nil {
		return middleware.RedisRateLimitMiddleware(a.Redis, "form", rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second)
	}
	return middleware.RateLimitMiddleware("form", rl.RPS, rl.Burst)
}
