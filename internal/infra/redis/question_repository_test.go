package redis

import (
	"context"
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"countdown-quiz/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	source := &countingSource{QuestionSource: memory.NewStaticSource(memory.SampleQuestions())}
	repo := NewQuestionRepository(client, source, "http://localhost:9000/questions", time.Minute)

	questions, err := repo.FetchQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists(FeedKey("http://localhost:9000/questions")) {
		t.Fatalf("expected feed cached in redis")
	}

	// Second call should hit cache, source not incremented.
	cached, err := repo.FetchQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch cached questions: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
	if len(cached) != len(questions) || cached[1].Text != questions[1].Text || cached[1].CorrectOption != questions[1].CorrectOption {
		t.Fatalf("cached feed differs: %+v", cached)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.FetchQuestions(context.Background())
	if source.calls != 2 {
		t.Fatalf("expected reload after expiry, source calls=%d", source.calls)
	}
}

func TestQuestionRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), memory.NewStaticSource(memory.SampleQuestions()), "questions.json", time.Minute)
	_, _ = repo.FetchQuestions(context.Background())
	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(FeedKey("questions.json")) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestFeedKeyDependsOnLocation(t *testing.T) {
	if FeedKey("a") == FeedKey("b") {
		t.Fatalf("expected distinct keys")
	}
	if FeedKey("a") != FeedKey("a") {
		t.Fatalf("expected stable key")
	}
}

type countingSource struct {
	app.QuestionSource
	calls int
}

func (s *countingSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.FetchQuestions(ctx)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
