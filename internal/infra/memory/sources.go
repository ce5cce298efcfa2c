package memory

import (
	"context"
	"os"

	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// StaticSource serves a fixed question list (useful for tests/demos).
type StaticSource struct {
	questions []domain.Question
}

func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

func (s *StaticSource) FetchQuestions(context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), s.questions...), nil
}

// FileSource reads the feed's JSON array from a file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(domain.ErrFeedNotFound, "file %s", s.path)
		}
		return nil, errors.Wrapf(err, "read question file %s", s.path)
	}
	return DecodeQuestions(ctx, data)
}

// DecodeQuestions parses the feed wire format: a JSON array of questions.
func DecodeQuestions(ctx context.Context, data []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.UnmarshalContext(ctx, data, &questions); err != nil {
		return nil, errors.Wrap(err, "decode questions")
	}
	return questions, nil
}

// SampleQuestions is the built-in question set used when no feed is configured.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "Which keyword starts a new goroutine?",
			Options:       []string{"async", "go", "spawn", "defer"},
			CorrectOption: 1,
			Points:        10,
		},
		{
			Text:          "What does a receive from a closed channel return?",
			Options:       []string{"It panics", "It blocks forever", "The zero value immediately", "The last sent value"},
			CorrectOption: 2,
			Points:        20,
		},
		{
			Text:          "Which type implements a mutual exclusion lock?",
			Options:       []string{"sync.Mutex", "sync.Once", "sync.Pool", "sync.Map"},
			CorrectOption: 0,
			Points:        10,
		},
		{
			Text:          "What is the zero value of a map?",
			Options:       []string{"An empty map", "nil", "map[]{}", "It has none"},
			CorrectOption: 1,
			Points:        30,
		},
	}
}
