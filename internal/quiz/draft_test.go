package quiz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	draft := NewDraft()
	draft.Title = "Go Basics"
	draft.Questions[0].Text = "Which keyword starts a goroutine?"
	draft.Questions[0].Options[0].Text = "defer"
	draft.Questions[0].Options[1].Text = "go"
	return draft
}

func TestNewDraftDefaults(t *testing.T) {
	draft := NewDraft()

	assert.Equal(t, 5, draft.TimeLimitMinutes)
	require.Len(t, draft.Questions, 1)
	assert.Equal(t, 1, draft.Questions[0].Points)
	require.Len(t, draft.Questions[0].Options, 2)
	assert.False(t, draft.Questions[0].Options[0].IsCorrect)
	assert.True(t, draft.Questions[0].Options[1].IsCorrect)
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		want   string
	}{
		{name: "blank title", mutate: func(d *Draft) { d.Title = "   " }, want: "title is required"},
		{name: "zero time limit", mutate: func(d *Draft) { d.TimeLimitMinutes = 0 }, want: "time limit must be at least 1 minute"},
		{name: "blank question", mutate: func(d *Draft) { d.Questions[0].Text = "" }, want: "question 1: text is required"},
		{name: "zero points", mutate: func(d *Draft) { d.Questions[0].Points = 0 }, want: "question 1: points must be at least 1"},
		{
			name: "no option text",
			mutate: func(d *Draft) {
				d.Questions[0].Options[0].Text = ""
				d.Questions[0].Options[1].Text = " "
			},
			want: "question 1: at least one option needs text",
		},
		{
			name:   "no correct option",
			mutate: func(d *Draft) { d.Questions[0].Options[1].IsCorrect = false },
			want:   "question 1: mark at least one option correct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)

			err := draft.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuiz))

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, validationErr.Problems, tt.want)
			assert.False(t, draft.IsValid())
		})
	}
}

func TestDraftValidAcceptsOneCorrectOptionWithText(t *testing.T) {
	draft := validDraft()
	draft.AddOption(0)

	require.NoError(t, draft.Validate())
	assert.True(t, draft.IsValid())
}

func TestDraftStructuralEditsKeepMinimums(t *testing.T) {
	draft := NewDraft()

	assert.False(t, draft.RemoveQuestion(0))
	assert.Equal(t, 1, draft.AddQuestion())
	assert.True(t, draft.RemoveQuestion(0))
	assert.Len(t, draft.Questions, 1)

	assert.False(t, draft.RemoveOption(0, 0))
	assert.True(t, draft.AddOption(0))
	assert.True(t, draft.RemoveOption(0, 2))
	assert.Len(t, draft.Questions[0].Options, 2)

	assert.False(t, draft.AddOption(5))
	assert.False(t, draft.RemoveOption(0, 9))
}

func TestDraftRequestStripsBlankOptions(t *testing.T) {
	draft := validDraft()
	draft.Description = "Intro"
	draft.AddOption(0)

	request := draft.Request()

	assert.Equal(t, "Go Basics", request.Title)
	assert.Equal(t, "Intro", request.Description)
	assert.Equal(t, 5, request.TimeLimitMinutes)
	require.Len(t, request.Questions, 1)
	assert.Equal(t, []CreateOptionRequest{
		{Text: "defer", IsCorrect: false},
		{Text: "go", IsCorrect: true},
	}, request.Questions[0].Options)
}

func TestDraftResetAndClone(t *testing.T) {
	draft := validDraft()
	clone := draft.Clone()
	clone.Questions[0].Options[0].Text = "changed"

	assert.Equal(t, "defer", draft.Questions[0].Options[0].Text)

	draft.Reset()
	assert.Equal(t, NewDraft(), draft)
}
