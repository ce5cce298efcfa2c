package cli

import (
	"context"
	"log/slog"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/config"
	"countdown-quiz/internal/infra/httpfeed"
	"countdown-quiz/internal/infra/memory"
	pgloader "countdown-quiz/internal/infra/postgres"
	feedcache "countdown-quiz/internal/infra/redis"
	"countdown-quiz/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// newQuestionSource builds the configured feed with its cache in front.
// The returned cleanup releases database and cache connections.
func newQuestionSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.QuestionSource, func(), error) {
	var (
		source   app.QuestionSource
		location = feedLocation(cfg)
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Feed.Source {
	case config.SourceStatic:
		source = memory.NewStaticSource(memory.SampleQuestions())
	case config.SourceFile:
		source = memory.NewFileSource(cfg.Feed.Path)
	case config.SourceHTTP:
		source = httpfeed.NewClient(cfg.Feed.URL, config.Duration(cfg.Feed.Timeout, 5*time.Second))
	case config.SourcePostgres:
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "connect postgres")
		}
		closers = append(closers, pool.Close)
		source = pgloader.NewQuestionLoader(pool, cfg.Feed.Set)
	case config.SourceSQLite:
		store, err := sqlite.NewQuestionStore(cfg.SQLite.Path)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = store.Close() })
		source = store
	default:
		return nil, cleanup, errors.Errorf("unknown feed source %q", cfg.Feed.Source)
	}

	ttl := config.Duration(cfg.Feed.TTL, 10*time.Minute)
	switch cfg.Feed.Cache {
	case config.CacheMemory:
		source = memory.NewQuestionRepository(source, ttl)
	case config.CacheRedis:
		client := newRedisClient(cfg)
		closers = append(closers, func() { _ = client.Close() })
		source = feedcache.NewQuestionRepository(client, source, location, ttl)
	}

	logger.Info("question feed configured", "source", cfg.Feed.Source, "location", location, "cache", cfg.Feed.Cache)
	return source, cleanup, nil
}

// feedLocation names the feed for logging and as the Redis cache key.
func feedLocation(cfg config.Config) string {
	switch cfg.Feed.Source {
	case config.SourceStatic:
		return "static"
	case config.SourceFile:
		return cfg.Feed.Path
	case config.SourceHTTP:
		return cfg.Feed.URL
	case config.SourcePostgres:
		return "postgres:" + cfg.Feed.Set
	case config.SourceSQLite:
		return "sqlite:" + cfg.SQLite.Path
	}
	return cfg.Feed.Source
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func sessionOptions(cfg config.Config, logger *slog.Logger) app.Options {
	return app.Options{
		Rules:        app.Rules{SecondsPerQuestion: cfg.Quiz.SecondsPerQuestion},
		TickInterval: config.Duration(cfg.Quiz.Tick, time.Second),
		Logger:       logger,
	}
}
