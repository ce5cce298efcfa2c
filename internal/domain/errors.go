package domain

import "errors"

var (
	// ErrUnknownAction signals a programming defect: an action outside the closed action set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrIllegalTransition is returned when an action's precondition does not hold for the current state.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrNoQuestions is returned when a quiz is started without any loaded questions.
	ErrNoQuestions = errors.New("no questions loaded")
	// ErrAlreadyAnswered is returned when the current question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOptionOutOfRange indicates a selected option index outside the question's options.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrNoNextQuestion is returned when advancing past the last question.
	ErrNoNextQuestion = errors.New("no next question")
	// ErrNotLastQuestion is returned when finishing before the last question.
	ErrNotLastQuestion = errors.New("not on the last question")
	// ErrInvariantViolated reports a state that breaks the quiz invariants.
	ErrInvariantViolated = errors.New("quiz invariant violated")
	// ErrReservedAction is returned when a caller dispatches an action only the session may emit.
	ErrReservedAction = errors.New("action is reserved")
	// ErrInvalidFeed indicates the question feed decoded but its content is unusable.
	ErrInvalidFeed = errors.New("invalid question feed")
	// ErrFeedNotFound indicates the configured question set does not exist.
	ErrFeedNotFound = errors.New("question feed not found")
	// ErrLoadStarted is returned when questions are loaded a second time in one session.
	ErrLoadStarted = errors.New("question load already started")
	// ErrSessionClosed is returned when dispatching to a session that stopped running.
	ErrSessionClosed = errors.New("quiz session closed")
)
