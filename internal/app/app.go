// Package app assembles the services shared by the HTTP server and the
// housekeeping CLI from a loaded config.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trackadmission/go-services/internal/cache"
	"github.com/trackadmission/go-services/internal/categories"
	"github.com/trackadmission/go-services/internal/config"
	"github.com/trackadmission/go-services/internal/content"
	contentrepo "github.com/trackadmission/go-services/internal/content/repository"
	contentsvc "github.com/trackadmission/go-services/internal/content/service"
	"github.com/trackadmission/go-services/internal/database"
	"github.com/trackadmission/go-services/internal/housekeeping"
	"github.com/trackadmission/go-services/internal/leads"
	"github.com/trackadmission/go-services/internal/oidc"
	"github.com/trackadmission/go-services/internal/sessions"
	"github.com/trackadmission/go-services/internal/tokens"
	"github.com/trackadmission/go-services/internal/trending"
	"github.com/trackadmission/go-services/internal/users"
	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/middleware"
)

// Collection names shared with the existing dashboard data.
const (
	ContentCollection  = "contents"
	TrendingCollection = "trendings"
	LeadsCollection    = "forms"
	UsersCollection    = "users"
	CategoryCollection = "categories"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// App holds the wired services. Redis is nil when not configured or unreachable.
type App struct {
	Config   *config.Config
	DB       *database.Manager
	Redis    *redis.Client
	Content  *contentsvc.Service
	Trending *trending.Service
	Leads    *leads.Service
	Users    *users.Service

	Categories *categories.Service

	// Revocations is Redis-backed when Redis is available.
	Revocations sessions.Store

	indexers []indexer
}

// New wires the services. No database connection is made until the first operation.
func New(ctx context.Context, cfg *config.Config) *App {
	mc := cfg.MongoDB
	db := database.NewManager(
		&database.MongoDialer{URI: mc.URI, Pool: database.PoolOptionsFromConfig(mc)},
		database.OptionsFromConfig(mc),
	)
	a := &App{Config: cfg, DB: db, Redis: connectRedis(ctx, cfg.Redis)}

	contentRepo := contentrepo.NewMongoRepo(db.Collection(mc.Database, ContentCollection))
	trendingRepo := trending.NewMongoRepo(db.Collection(mc.Database, TrendingCollection))
	leadsRepo := leads.NewMongoRepo(db.Collection(mc.Database, LeadsCollection))
	usersRepo := users.NewMongoUserRepository(db.Collection(mc.Database, UsersCollection))
	categoryRepo := categories.NewMongoRepo(db.Collection(mc.Database, CategoryCollection))
	a.indexers = []indexer{contentRepo, trendingRepo, leadsRepo, usersRepo, categoryRepo}

	opts := []contentsvc.Option{contentsvc.WithPolicy(content.VersioningPolicy{
		MaxVersions:      cfg.Versioning.MaxVersions,
		KeepMajorChanges: cfg.Versioning.KeepMajorChanges,
		AutoPurgeAfter:   cfg.Versioning.AutoPurgeAfterDays,
	})}
	if a.Redis != nil {
		opts = append(opts, contentsvc.WithCache(cache.NewRedisCache(a.Redis, "content:", cfg.Cache.PostTTL)))
	}
	a.Content = contentsvc.NewService(contentRepo, opts...)
	a.Trending = trending.NewService(trendingRepo, a.Content)
	a.Leads = leads.NewService(leadsRepo)
	a.Users = users.NewService(usersRepo)
	var categoryCache categories.Cache
	if a.Redis != nil {
		categoryCache = cache.NewRedisCache(a.Redis, "categories:", cfg.Cache.CategoryTTL)
	}
	a.Categories = categories.NewService(categoryRepo, categoryCache)
	if a.Redis != nil {
		a.Revocations = sessions.NewRedisStore(a.Redis)
	} else {
		a.Revocations = sessions.NewMemoryStore()
	}
	return a
}

func connectRedis(ctx context.Context, rc config.RedisConfig) *redis.Client {
	if rc.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Host + ":" + rc.Port, Password: rc.Password, DB: rc.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		logger.Warnf("redis %s:%s unreachable, running without cache: %v", rc.Host, rc.Port, err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to redis %s:%s", rc.Host, rc.Port)
	return client
}

// EnsureIndexes creates the indexes of every collection, connecting if needed.
func (a *App) EnsureIndexes(ctx context.Context) error {
	var errs []error
	for _, ix := range a.indexers {
		if err := ix.EnsureIndexes(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Jobs returns the housekeeping jobs over the wired services.
func (a *App) Jobs() []housekeeping.Job {
	return []housekeeping.Job{housekeeping.PurgeVersions(a.Content), housekeeping.TrimTrending(a.Trending)}
}

// Close disconnects from MongoDB and Redis.
func (a *App) Close(ctx context.Context) error {
	err := a.DB.Close(ctx)
	if a.Redis != nil {
		if rerr := a.Redis.Close(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return err
}

type denyAll struct{}

func (denyAll) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	return nil, errors.New("authentication is not configured")
}

// NewVerifier picks the token verifier: Keycloak when configured, then HS256
// with JWT_SECRET, then the insecure verifier under AUTH_INSECURE=true.
// Without any of these every protected route answers 401.
func NewVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.Realm != "" {
		v, err := oidc.NewVerifier(ctx, cfg.Keycloak)
		if err == nil {
			logger.Infof("verifying tokens against keycloak realm %s", cfg.Keycloak.Realm)
			return v
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		logger.Infof("verifying HS256 tokens with JWT_SECRET")
		return tokens.NewHMACVerifier(cfg.JWT.Secret)
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("AUTH_INSECURE")), "true") {
		logger.Warn("enabling insecure token verifier (local mode)")
		return oidc.NewInsecureVerifier()
	}
	return denyAll{}
}

// Verifier is NewVerifier with logged-out tokens rejected.
func (a *App) Verifier(ctx context.Context) middleware.Verifier {
	return sessions.NewVerifier(NewVerifier(ctx, a.Config), a.Revocations)
}

// Describe is a one-line summary of what is configured, for startup logs.
func (a *App) Describe() string {
	return fmt.Sprintf("mongo=%s/%s redis=%v keycloak=%v jwt=%v",
		redactURI(a.Config.MongoDB.URI), a.Config.MongoDB.Database, a.Redis != nil,
		a.Config.Keycloak.URL != "", a.Config.JWT.Secret != "")
}

// redactURI drops credentials from a mongodb:// URI.
func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return "<invalid>"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	if q := strings.IndexByte(rest, '/'); q >= 0 {
		rest = rest[:q]
	}
	return scheme + "://" + rest
}
