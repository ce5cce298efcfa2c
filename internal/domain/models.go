package domain

import (
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// OptionsPerQuestion is the number of options every question carries.
const OptionsPerQuestion = 4

// Question is a single multiple-choice question as served by the question feed.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int      `json:"points"`
}

// Status drives all branching of the quiz.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusError    Status = "error"
	StatusReady    Status = "ready"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// State is the canonical quiz state. Values are treated as immutable: transitions
// build a new State instead of mutating the old one.
type State struct {
	Questions        []Question `json:"questions"`
	Status           Status     `json:"status"`
	Index            int        `json:"index"`
	Answer           *int       `json:"answer"`
	Points           int        `json:"points"`
	HighScore        int        `json:"highScore"`
	SecondsRemaining *int       `json:"secondsRemaining"`
}

// NewState returns the state a session starts with.
func NewState() State {
	return State{Status: StatusLoading}
}

// NumQuestions is the number of loaded questions.
func (s State) NumQuestions() int {
	return len(s.Questions)
}

// MaxPossiblePoints is the sum of all question points.
func (s State) MaxPossiblePoints() int {
	total := 0
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}

// CurrentQuestion returns the question at Index, if any.
func (s State) CurrentQuestion() (Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Percentage is the score as a rounded-up percentage of the maximum.
func (s State) Percentage() int {
	maxPoints := s.MaxPossiblePoints()
	if maxPoints == 0 {
		return 0
	}
	return int(math.Ceil(float64(s.Points) / float64(maxPoints) * 100))
}

// Validate reports every invariant the state breaks.
func (s State) Validate() error {
	var result *multierror.Error

	switch s.Status {
	case StatusLoading:
		if len(s.Questions) != 0 {
			result = multierror.Append(result, errors.New("loading state holds questions"))
		}
		if s.SecondsRemaining != nil {
			result = multierror.Append(result, errors.New("loading state has a countdown"))
		}
	case StatusActive:
		if s.SecondsRemaining == nil || *s.SecondsRemaining < 0 {
			result = multierror.Append(result, errors.New("active state without a non-negative countdown"))
		}
		if s.Index < 0 || s.Index >= len(s.Questions) {
			result = multierror.Append(result, errors.Errorf("index %d out of range [0,%d)", s.Index, len(s.Questions)))
		}
	case StatusError, StatusReady, StatusFinished:
	default:
		result = multierror.Append(result, errors.Errorf("unknown status %q", s.Status))
	}

	if s.Index < 0 {
		result = multierror.Append(result, errors.Errorf("negative index %d", s.Index))
	}
	if s.Points < 0 || s.HighScore < 0 {
		result = multierror.Append(result, errors.New("negative score"))
	}
	if maxPoints := s.MaxPossiblePoints(); s.Points > maxPoints {
		result = multierror.Append(result, errors.Errorf("points %d exceed maximum %d", s.Points, maxPoints))
	}
	if s.Answer != nil {
		if q, ok := s.CurrentQuestion(); ok && (*s.Answer < 0 || *s.Answer >= len(q.Options)) {
			result = multierror.Append(result, errors.Errorf("answer %d out of range", *s.Answer))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(ErrInvariantViolated, err.Error())
	}
	return nil
}

// ValidateQuestions checks a decoded feed and reports every unusable question.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errors.Wrap(ErrInvalidFeed, "feed holds no questions")
	}

	var result *multierror.Error
	for i, q := range questions {
		if len(q.Options) != OptionsPerQuestion {
			result = multierror.Append(result, errors.Errorf("question %d: %d options, want %d", i, len(q.Options), OptionsPerQuestion))
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			result = multierror.Append(result, errors.Errorf("question %d: correctOption %d out of range", i, q.CorrectOption))
		}
		if q.Points < 0 {
			result = multierror.Append(result, errors.Errorf("question %d: negative points %d", i, q.Points))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(ErrInvalidFeed, err.Error())
	}
	return nil
}
