package postgres

import (
	"context"

	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// QuestionLoader loads a question set stored as JSONB from Postgres.
type QuestionLoader struct {
	pool  *pgxpool.Pool
	setID string
}

func NewQuestionLoader(pool *pgxpool.Pool, setID string) *QuestionLoader {
	return &QuestionLoader{pool: pool, setID: setID}
}

func (l *QuestionLoader) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, l.setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrFeedNotFound, "question set %q", l.setID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load question set %q", l.setID)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, errors.Wrapf(err, "unmarshal question set %q", l.setID)
	}
	return questions, nil
}

// SeedQuestionSet inserts or replaces a question set.
func SeedQuestionSet(ctx context.Context, db *bun.DB, setID string, questions []domain.Question) error {
	if err := domain.ValidateQuestions(questions); err != nil {
		return err
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return errors.Wrap(err, "marshal questions")
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		setID, string(data))
	return errors.Wrapf(err, "seed question set %q", setID)
}
