package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"countdown-quiz/internal/infra/memory"
	pgloader "countdown-quiz/internal/infra/postgres"
	pgmigrations "countdown-quiz/internal/infra/postgres/migrations"
	infraredis "countdown-quiz/internal/infra/redis"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizFromPostgresThroughRedisCache(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startService(t, ctx, postgresService)
	redisURL := startService(t, ctx, redisService)

	seedQuestions(t, ctx, pgURL, "default", memory.SampleQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	loader := pgloader.NewQuestionLoader(pool, "default")
	repo := infraredis.NewQuestionRepository(redisClient, loader, "postgres:default", 5*time.Minute)

	session := app.NewSession(app.Options{TickInterval: time.Hour})
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = session.Run(runCtx) }()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()
	require.NoError(t, session.Load(runCtx, repo))
	for state := range updates {
		if state.Status != domain.StatusLoading {
			require.Equal(t, domain.StatusReady, state.Status)
			break
		}
	}

	require.NoError(t, session.Dispatch(ctx, app.Start{}))
	require.NoError(t, session.Dispatch(ctx, app.NewAnswer{Selected: 1}))
	state := session.Snapshot()
	require.Equal(t, 10, state.Points)
	require.Equal(t, 120, *state.SecondsRemaining)

	exists, err := redisClient.Exists(ctx, infraredis.FeedKey("postgres:default")).Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, exists)

	_, err = pgloader.NewQuestionLoader(pool, "missing").FetchQuestions(ctx)
	require.ErrorIs(t, err, domain.ErrFeedNotFound)
}

// service describes a throwaway container and how to build its connection URL.
type service struct {
	image   string
	port    string
	env     map[string]string
	timeout time.Duration
	url     func(host, port string) string
}

var (
	postgresService = service{
		image:   "postgres:15-alpine",
		port:    "5432/tcp",
		env:     map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "questions"},
		timeout: time.Minute,
		url: func(host, port string) string {
			return fmt.Sprintf("postgres://quiz:quizpass@%s:%s/questions?sslmode=disable", host, port)
		},
	}
	redisService = service{
		image:   "redis:7-alpine",
		port:    "6379/tcp",
		timeout: 30 * time.Second,
		url: func(host, port string) string {
			return fmt.Sprintf("redis://%s:%s", host, port)
		},
	}
)

func startService(t *testing.T, ctx context.Context, svc service) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        svc.image,
			Env:          svc.env,
			ExposedPorts: []string{svc.port},
			WaitingFor:   wait.ForListeningPort(nat.Port(svc.port)).WithStartupTimeout(svc.timeout),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", svc.image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", svc.image, err)
	}
	port, err := container.MappedPort(ctx, nat.Port(svc.port))
	if err != nil {
		t.Fatalf("%s port: %v", svc.image, err)
	}
	return svc.url(host, port.Port())
}

func seedQuestions(t *testing.T, ctx context.Context, dsn, setID string, questions []domain.Question) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := pgloader.SeedQuestionSet(ctx, db, setID, questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
