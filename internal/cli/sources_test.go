package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"countdown-quiz/internal/config"
	"countdown-quiz/internal/infra/memory"
	feedcache "countdown-quiz/internal/infra/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewQuestionSourceStaticWithMemoryCache(t *testing.T) {
	cfg := config.Defaults()
	source, cleanup, err := newQuestionSource(context.Background(), cfg, discardLogger())
	defer cleanup()
	require.NoError(t, err)
	require.IsType(t, &memory.QuestionRepository{}, source)

	questions, err := source.FetchQuestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, memory.SampleQuestions(), questions)
}

func TestNewQuestionSourceFileWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"question":"q","options":["a","b","c","d"],"correctOption":3,"points":5}]`), 0o600))

	cfg := config.Defaults()
	cfg.Feed.Source = config.SourceFile
	cfg.Feed.Path = path
	cfg.Feed.Cache = config.CacheRedis
	cfg.Redis.Addr = mr.Addr()

	source, cleanup, err := newQuestionSource(context.Background(), cfg, discardLogger())
	defer cleanup()
	require.NoError(t, err)

	questions, err := source.FetchQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, 3, questions[0].CorrectOption)
	require.True(t, mr.Exists(feedcache.FeedKey(path)))
}

func TestNewQuestionSourceSQLite(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.Source = config.SourceSQLite
	cfg.Feed.Cache = config.CacheNone
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "questions.db")

	require.NoError(t, seedSQLite(context.Background(), cfg, memory.SampleQuestions(), discardLogger()))

	source, cleanup, err := newQuestionSource(context.Background(), cfg, discardLogger())
	defer cleanup()
	require.NoError(t, err)

	questions, err := source.FetchQuestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, memory.SampleQuestions(), questions)
}

func TestSeedSQLiteInvalidatesRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.Feed.Source = config.SourceSQLite
	cfg.Feed.Cache = config.CacheRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "questions.db")

	require.NoError(t, seedSQLite(ctx, cfg, memory.SampleQuestions(), discardLogger()))
	source, cleanup, err := newQuestionSource(ctx, cfg, discardLogger())
	defer cleanup()
	require.NoError(t, err)
	_, err = source.FetchQuestions(ctx)
	require.NoError(t, err)
	key := feedcache.FeedKey(feedLocation(cfg))
	require.True(t, mr.Exists(key))

	require.NoError(t, invalidateFeedCache(ctx, cfg, "sqlite:"+cfg.SQLite.Path, discardLogger()))
	require.False(t, mr.Exists(key))
}

func TestInvalidateFeedCacheWithoutRedis(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.Cache = config.CacheMemory
	cfg.Redis.Addr = "127.0.0.1:1"
	require.NoError(t, invalidateFeedCache(context.Background(), cfg, "static", discardLogger()))
}

func TestSessionOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Quiz.SecondsPerQuestion = 12
	cfg.Quiz.Tick = "250ms"

	opts := sessionOptions(cfg, discardLogger())
	require.Equal(t, 12, opts.Rules.SecondsPerQuestion)
	require.Equal(t, "250ms", opts.TickInterval.String())
}
