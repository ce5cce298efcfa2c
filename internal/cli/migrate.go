package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"countdown-quiz/internal/config"
	"countdown-quiz/internal/domain"
	"countdown-quiz/internal/infra/memory"
	pgloader "countdown-quiz/internal/infra/postgres"
	pgmigrations "countdown-quiz/internal/infra/postgres/migrations"
	feedcache "countdown-quiz/internal/infra/redis"
	"countdown-quiz/internal/infra/sqlite"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations and optionally seeds a question set.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var (
		seedPath string
		toSQLite bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and seed questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := installLogger(cfg, os.Stdout)

			var questions []domain.Question
			if seedPath != "" {
				if questions, err = memory.NewFileSource(seedPath).FetchQuestions(cmd.Context()); err != nil {
					return err
				}
			}

			if toSQLite {
				if err := seedSQLite(cmd.Context(), cfg, questions, logger); err != nil {
					return err
				}
				return invalidateFeedCache(cmd.Context(), cfg, "sqlite:"+cfg.SQLite.Path, logger)
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			if questions == nil {
				return nil
			}
			if err := seedPostgres(cmd.Context(), cfg, questions, logger); err != nil {
				return err
			}
			return invalidateFeedCache(cmd.Context(), cfg, "postgres:"+cfg.Feed.Set, logger)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "JSON question file to store as the configured question set")
	cmd.Flags().BoolVar(&toSQLite, "sqlite", false, "seed the SQLite store instead of Postgres")
	return cmd
}

func openBun(cfg config.Config) (*bun.DB, error) {
	if cfg.Postgres.URL == "" {
		return nil, errors.New("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return errors.Wrap(err, "init migrations")
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	logger.Info("migrations applied", "group", group.ID)
	return nil
}

func seedPostgres(ctx context.Context, cfg config.Config, questions []domain.Question, logger *slog.Logger) error {
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pgloader.SeedQuestionSet(ctx, db, cfg.Feed.Set, questions); err != nil {
		return err
	}
	logger.Info("question set seeded", "set", cfg.Feed.Set, "count", len(questions))
	return nil
}

func seedSQLite(ctx context.Context, cfg config.Config, questions []domain.Question, logger *slog.Logger) error {
	if questions == nil {
		return errors.New("--sqlite requires --seed")
	}
	store, err := sqlite.NewQuestionStore(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ReplaceQuestions(ctx, questions); err != nil {
		return err
	}
	logger.Info("sqlite questions seeded", "path", cfg.SQLite.Path, "count", len(questions))
	return nil
}

// invalidateFeedCache drops the Redis copy of a freshly seeded feed so the next session reloads it.
func invalidateFeedCache(ctx context.Context, cfg config.Config, location string, logger *slog.Logger) error {
	if cfg.Feed.Cache != config.CacheRedis {
		return nil
	}
	client := newRedisClient(cfg)
	defer client.Close()

	if err := feedcache.NewQuestionRepository(client, nil, location, 0).Invalidate(ctx); err != nil {
		return err
	}
	logger.Info("feed cache invalidated", "location", location)
	return nil
}
