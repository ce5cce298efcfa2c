package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectOption: 0, Points: 10},
		{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectOption: 3, Points: 20},
	}
}

func TestDerivedQueries(t *testing.T) {
	state := State{Questions: sampleQuestions(), Status: StatusFinished, Points: 10, Index: 2}

	require.Equal(t, 2, state.NumQuestions())
	require.Equal(t, 30, state.MaxPossiblePoints())
	require.Equal(t, 34, state.Percentage())

	_, ok := state.CurrentQuestion()
	require.False(t, ok)

	state.Index = 1
	q, ok := state.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "q2", q.Text)

	require.Equal(t, 0, NewState().Percentage())
}

func TestValidateState(t *testing.T) {
	require.NoError(t, NewState().Validate())

	seconds := 5
	answer := 3
	active := State{Questions: sampleQuestions(), Status: StatusActive, SecondsRemaining: &seconds, Answer: &answer, Points: 20}
	require.NoError(t, active.Validate())

	broken := active
	broken.Points = 31
	broken.SecondsRemaining = nil
	err := broken.Validate()
	require.ErrorIs(t, err, ErrInvariantViolated)
	require.Contains(t, err.Error(), "exceed maximum")
	require.Contains(t, err.Error(), "countdown")

	loading := State{Status: StatusLoading, Questions: sampleQuestions()}
	require.ErrorIs(t, loading.Validate(), ErrInvariantViolated)

	require.ErrorIs(t, State{Status: "paused"}.Validate(), ErrInvariantViolated)
}

func TestValidateQuestions(t *testing.T) {
	require.NoError(t, ValidateQuestions(sampleQuestions()))
	require.ErrorIs(t, ValidateQuestions(nil), ErrInvalidFeed)

	bad := []Question{
		{Text: "short", Options: []string{"a", "b"}, CorrectOption: 0, Points: 1},
		{Text: "range", Options: []string{"a", "b", "c", "d"}, CorrectOption: 4, Points: 1},
		{Text: "negative", Options: []string{"a", "b", "c", "d"}, CorrectOption: 0, Points: -1},
	}
	err := ValidateQuestions(bad)
	require.ErrorIs(t, err, ErrInvalidFeed)
	require.Contains(t, err.Error(), "question 0")
	require.Contains(t, err.Error(), "question 1")
	require.Contains(t, err.Error(), "question 2")
}
