package app

import "countdown-quiz/internal/domain"

// Action is a request to change the quiz state. The set of actions is closed:
// only the types in this file implement it.
type Action interface {
	// Kind is the action's wire name.
	Kind() string
	action()
}

// DataReceived carries the questions delivered by the loader.
type DataReceived struct {
	Questions []domain.Question
}

// DataFailed reports that the loader could not deliver questions.
type DataFailed struct {
	Err error
}

// Start begins the quiz and the countdown.
type Start struct{}

// NewAnswer selects an option for the current question.
type NewAnswer struct {
	Selected int
}

// NextQuestion moves to the following question.
type NextQuestion struct{}

// Finish ends the quiz from the last question.
type Finish struct{}

// Restart resets the attempt, keeping the questions and the high score.
type Restart struct{}

// Tick is one second of countdown. Only the session's timer emits it.
type Tick struct{}

func (DataReceived) Kind() string { return "dataReceived" }
func (DataFailed) Kind() string   { return "dataFailed" }
func (Start) Kind() string        { return "start" }
func (NewAnswer) Kind() string    { return "newAnswer" }
func (NextQuestion) Kind() string { return "nextQuestion" }
func (Finish) Kind() string       { return "finish" }
func (Restart) Kind() string      { return "restart" }
func (Tick) Kind() string         { return "tick" }

func (DataReceived) action() {}
func (DataFailed) action()   {}
func (Start) action()        {}
func (NewAnswer) action()    {}
func (NextQuestion) action() {}
func (Finish) action()       {}
func (Restart) action()      {}
func (Tick) action()         {}

// reserved reports whether only the session itself may emit the action.
func reserved(a Action) bool {
	switch a.(type) {
	case Tick, DataReceived, DataFailed:
		return true
	}
	return false
}
