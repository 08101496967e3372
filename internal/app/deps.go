package app

import (
	"context"
	"log/slog"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/channels"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

func buildDependencies(pool db.Pool, cfg config.Config, mediaStore *storage.S3Storage, logger *slog.Logger) (handlers.Dependencies, *media.Ingestor) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)

	tokens := auth.NewManager(users, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	prober := media.NewProber(cfg.FFProbePath, cfg.FFProbeTimeout)
	ingestor := media.NewIngestor(prober, mediaStore, videos, media.IngestorConfig{
		QueueSize: cfg.Ingest.QueueSize,
		Workers:   cfg.Ingest.Workers,
	}, logger)

	profiles := channels.NewCachingProfileSource(users, cfg.ProfileCacheTTL)

	authenticator := middleware.Authenticator{
		Tokens:  tokens,
		Users:   users,
		Respond: handlers.RespondError,
	}

	deps := handlers.Dependencies{
		DB:            poolPinger{pool: pool},
		Users:         users,
		Tokens:        tokens,
		Media:         mediaStore,
		Profiles:      profiles,
		ProfileCache:  profiles,
		Subscriptions: subscriptions,
		Videos:        videos,
		Ingest:        ingestor,
		Cookies: handlers.CookieSettings{
			Secure: cfg.SecureCookies,
			Domain: cfg.CookieDomain,
		},
		LoginLimiter:  middleware.NewRateLimiter(cfg.LoginRateLimit),
		SignupLimiter: middleware.NewRateLimiter(cfg.SignupRateLimit),
		RequireAuth:   authenticator.Require,
	}

	return deps, ingestor
}

// poolPinger checks database reachability for the health endpoint.
type poolPinger struct {
	pool db.Pool
}

func (p poolPinger) Ping(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}
