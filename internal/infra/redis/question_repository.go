package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches the decoded feed in Redis and falls back to the source on a miss.
// The feed is stored as a JSON array: SET quiz:feed:{xxh3(location)} <json> EX ttl
type QuestionRepository struct {
	client *redis.Client
	source app.QuestionSource
	key    string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, source app.QuestionSource, location string, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		source: source,
		key:    FeedKey(location),
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FeedKey is the cache key of the feed served from location.
func FeedKey(location string) string {
	return "quiz:feed:" + strconv.FormatUint(xxh3.HashString(location), 16)
}

func (r *QuestionRepository) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(r.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx); ok {
			return questions, nil
		}

		questions, err := r.source.FetchQuestions(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, errors.Wrap(err, "encode questions")
		}
		// best-effort: a failed write only costs a reload next time
		_ = r.client.Set(ctx, r.key, data, r.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached feed.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return errors.Wrap(r.client.Del(ctx, r.key).Err(), "invalidate feed cache")
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
