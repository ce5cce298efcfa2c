package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// QuestionStore keeps one ordered question list in a SQLite file.
type QuestionStore struct {
	db *sql.DB
}

func NewQuestionStore(path string) (*QuestionStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "questions.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	store := &QuestionStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *QuestionStore) Close() error {
	return s.db.Close()
}

func (s *QuestionStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS questions (
		position INTEGER PRIMARY KEY,
		prompt TEXT NOT NULL,
		options_json TEXT NOT NULL,
		correct_option INTEGER NOT NULL,
		points INTEGER NOT NULL
	);`)
	return errors.Wrap(err, "create questions table")
}

// FetchQuestions returns the stored questions in position order.
func (s *QuestionStore) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT prompt, options_json, correct_option, points FROM questions ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "query questions")
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q           domain.Question
			optionsJSON string
		)
		if err := rows.Scan(&q.Text, &optionsJSON, &q.CorrectOption, &q.Points); err != nil {
			return nil, errors.Wrap(err, "scan question")
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, errors.Wrapf(err, "decode options of question %d", len(questions))
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate questions")
	}
	if len(questions) == 0 {
		return nil, errors.Wrap(domain.ErrFeedNotFound, "no questions stored")
	}
	return questions, nil
}

// ReplaceQuestions swaps the stored list for questions in one transaction.
func (s *QuestionStore) ReplaceQuestions(ctx context.Context, questions []domain.Question) (err error) {
	if err := domain.ValidateQuestions(questions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = multierror.Append(err, rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return errors.Wrap(err, "clear questions")
	}
	for i, q := range questions {
		options, mErr := json.Marshal(q.Options)
		if mErr != nil {
			return errors.Wrap(mErr, "encode options")
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO questions (position, prompt, options_json, correct_option, points) VALUES (?, ?, ?, ?, ?)`,
			i, q.Text, string(options), q.CorrectOption, q.Points); err != nil {
			return errors.Wrapf(err, "insert question %d", i)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}
