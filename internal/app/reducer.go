package app

import (
	"countdown-quiz/internal/domain"
	"github.com/pkg/errors"
)

// DefaultSecondsPerQuestion is the countdown budget granted per question.
const DefaultSecondsPerQuestion = 30

// DefaultRules are the rules used by Transition.
var DefaultRules = Rules{SecondsPerQuestion: DefaultSecondsPerQuestion}

// Rules parameterise the transition function.
type Rules struct {
	SecondsPerQuestion int
}

// Transition applies an action with DefaultRules.
func Transition(state domain.State, action Action) (domain.State, error) {
	return DefaultRules.Transition(state, action)
}

// Transition maps (state, action) to the next state. It has no side effects.
// When a precondition does not hold the unchanged state is returned with an error.
func (r Rules) Transition(state domain.State, action Action) (domain.State, error) {
	switch a := action.(type) {
	case DataReceived:
		if err := expectStatus(state, a, domain.StatusLoading); err != nil {
			return state, err
		}
		next := state
		next.Questions = append([]domain.Question(nil), a.Questions...)
		next.Status = domain.StatusReady
		return next, nil

	case DataFailed:
		if err := expectStatus(state, a, domain.StatusLoading); err != nil {
			return state, err
		}
		next := state
		next.Status = domain.StatusError
		return next, nil

	case Start:
		if err := expectStatus(state, a, domain.StatusReady); err != nil {
			return state, err
		}
		if len(state.Questions) == 0 {
			return state, domain.ErrNoQuestions
		}
		next := state
		next.Status = domain.StatusActive
		next.SecondsRemaining = intPtr(r.SecondsPerQuestion * len(state.Questions))
		return next, nil

	case NewAnswer:
		if err := expectStatus(state, a, domain.StatusActive); err != nil {
			return state, err
		}
		question, ok := state.CurrentQuestion()
		if !ok {
			return state, errors.Wrapf(domain.ErrInvariantViolated, "index %d with %d questions", state.Index, len(state.Questions))
		}
		if state.Answer != nil {
			return state, domain.ErrAlreadyAnswered
		}
		if a.Selected < 0 || a.Selected >= len(question.Options) {
			return state, errors.Wrapf(domain.ErrOptionOutOfRange, "option %d of %d", a.Selected, len(question.Options))
		}
		next := state
		next.Answer = intPtr(a.Selected)
		if a.Selected == question.CorrectOption {
			next.Points += question.Points
		}
		return next, nil

	case NextQuestion:
		if err := expectStatus(state, a, domain.StatusActive); err != nil {
			return state, err
		}
		if state.Index+1 >= len(state.Questions) {
			return state, domain.ErrNoNextQuestion
		}
		next := state
		next.Index++
		next.Answer = nil
		return next, nil

	case Finish:
		if err := expectStatus(state, a, domain.StatusActive); err != nil {
			return state, err
		}
		if state.Index != len(state.Questions)-1 {
			return state, domain.ErrNotLastQuestion
		}
		next := finished(state)
		next.Index++
		return next, nil

	case Restart:
		if len(state.Questions) == 0 {
			return state, errors.Wrapf(domain.ErrNoQuestions, "%s while %s", a.Kind(), state.Status)
		}
		return domain.State{
			Questions: state.Questions,
			Status:    domain.StatusReady,
			HighScore: state.HighScore,
		}, nil

	case Tick:
		if err := expectStatus(state, a, domain.StatusActive); err != nil {
			return state, err
		}
		if state.SecondsRemaining == nil {
			return state, errors.Wrap(domain.ErrInvariantViolated, "active quiz without countdown")
		}
		remaining := max(*state.SecondsRemaining-1, 0)
		next := state
		next.SecondsRemaining = intPtr(remaining)
		if remaining == 0 {
			// Expiry records the high score the same way Finish does.
			next = finished(next)
		}
		return next, nil

	default:
		return state, errors.Wrapf(domain.ErrUnknownAction, "%T", action)
	}
}

func finished(state domain.State) domain.State {
	state.Status = domain.StatusFinished
	state.HighScore = max(state.HighScore, state.Points)
	return state
}

func expectStatus(state domain.State, a Action, want domain.Status) error {
	if state.Status != want {
		return errors.Wrapf(domain.ErrIllegalTransition, "%s while %s", a.Kind(), state.Status)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
