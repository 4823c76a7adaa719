package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
)

// Dialog asks the user to confirm the parameters of a quiz generated from a
// question bank. ok is false when the user cancels.
type Dialog interface {
	ConfirmQuizFromBank(ctx context.Context, bank mock.QuestionBank, defaults mock.QuizFromBank) (params mock.QuizFromBank, ok bool, err error)
}

// DefaultsDialog confirms the suggested parameters unchanged.
type DefaultsDialog struct{}

func (DefaultsDialog) ConfirmQuizFromBank(_ context.Context, _ mock.QuestionBank, defaults mock.QuizFromBank) (mock.QuizFromBank, bool, error) {
	return defaults, true, nil
}

func (c *Controller) Draft() quiz.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Draft.Clone()
}

// UpdateDraft edits the authoring form in place.
func (c *Controller) UpdateDraft(edit func(*quiz.Draft)) {
	c.update(func(s *State) {
		edit(&s.Draft)
	})
}

func (c *Controller) requireAdmin(message string) (uint64, *quiz.User, error) {
	generation, user := c.session()
	if user == nil {
		c.Notify(message, NotifyError)
		return 0, nil, ErrNotLoggedIn
	}
	if !user.IsAdmin() {
		c.Notify(message, NotifyError)
		return 0, nil, ErrForbidden
	}
	return generation, user, nil
}

// CreateQuiz validates the draft, sends it without blank options and resets
// the form on success.
func (c *Controller) CreateQuiz(ctx context.Context) (quiz.Quiz, error) {
	generation, _, err := c.requireAdmin("Only administrators can create quizzes")
	if err != nil {
		return quiz.Quiz{}, err
	}

	draft := c.Draft()
	if err := draft.Validate(); err != nil {
		c.Notify(err.Error(), NotifyError)
		return quiz.Quiz{}, err
	}

	created, err := c.backend.CreateQuiz(ctx, draft.Request())
	if err != nil {
		c.Notify("Failed to create the quiz: "+errorDetail(err), NotifyError)
		return quiz.Quiz{}, err
	}

	err = c.commit(generation, func(s *State) {
		s.Draft.Reset()
		s.View = ViewQuizzes
	})
	if err != nil {
		return quiz.Quiz{}, err
	}
	c.Notify("Quiz created!", NotifySuccess)
	_ = c.LoadQuizzes(ctx)
	return created, nil
}

func (c *Controller) loadBanks(ctx context.Context) {
	banks, err := c.features.QuestionBanks(ctx)
	if err != nil {
		slog.Warn("question banks load failed", "error", err)
		return
	}
	c.update(func(s *State) {
		s.Banks = banks
	})
}

// LoadQuestionBanks refreshes the bank list.
func (c *Controller) LoadQuestionBanks(ctx context.Context) []mock.QuestionBank {
	c.loadBanks(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mock.QuestionBank(nil), c.state.Banks...)
}

func (c *Controller) CreateQuestionBank(ctx context.Context, draft mock.BankDraft) (mock.QuestionBank, error) {
	bank, err := c.features.CreateQuestionBank(ctx, draft)
	if err != nil {
		c.Notify("Failed to create the question bank: "+err.Error(), NotifyError)
		return mock.QuestionBank{}, err
	}

	c.loadBanks(ctx)
	c.SetView(ViewQuestionBanks)
	c.Notify("Question bank created!", NotifySuccess)
	return bank, nil
}

// GenerateQuizFromBank asks the dialog for the quiz parameters, pre-filled
// from the bank, and creates the quiz once they are confirmed.
func (c *Controller) GenerateQuizFromBank(ctx context.Context, bankID int) (quiz.Quiz, error) {
	if _, _, err := c.requireAdmin("Only administrators can create quizzes from question banks"); err != nil {
		return quiz.Quiz{}, err
	}

	bank, err := c.features.QuestionBank(ctx, bankID)
	if err != nil {
		c.Notify("Question bank not found", NotifyError)
		return quiz.Quiz{}, err
	}

	params, ok, err := c.dialog.ConfirmQuizFromBank(ctx, bank, mock.DefaultQuizFromBank(bank))
	if err != nil {
		c.Notify("Failed to create a quiz from the bank", NotifyError)
		return quiz.Quiz{}, err
	}
	if !ok {
		return quiz.Quiz{}, ErrCancelled
	}
	return c.GenerateQuizFromBankConfirm(ctx, bankID, params)
}

func (c *Controller) GenerateQuizFromBankConfirm(ctx context.Context, bankID int, params mock.QuizFromBank) (quiz.Quiz, error) {
	generation, _, err := c.requireAdmin("Only administrators can create quizzes from question banks")
	if err != nil {
		return quiz.Quiz{}, err
	}
	if strings.TrimSpace(params.Title) == "" {
		c.Notify("Enter a quiz title", NotifyError)
		return quiz.Quiz{}, fmt.Errorf("%w: quiz title is required", quiz.ErrInvalidQuiz)
	}

	bank, err := c.features.QuestionBank(ctx, bankID)
	if err != nil {
		c.Notify("Question bank not found", NotifyError)
		return quiz.Quiz{}, err
	}

	request, err := c.features.GenerateQuiz(ctx, bankID, params)
	if err != nil {
		c.Notify("Failed to create the quiz: "+err.Error(), NotifyError)
		return quiz.Quiz{}, err
	}

	created, err := c.backend.CreateQuiz(ctx, request)
	if err != nil {
		c.Notify("Failed to create the quiz: "+errorDetail(err), NotifyError)
		return quiz.Quiz{}, err
	}
	if err := c.commit(generation, func(s *State) { s.View = ViewQuizzes }); err != nil {
		return quiz.Quiz{}, err
	}

	c.Notify(fmt.Sprintf("Quiz created from bank %q!", bank.Name), NotifySuccess)
	if err := c.LoadQuizzes(ctx); err != nil && !errors.Is(err, ErrStale) {
		slog.Debug("quiz list refresh failed", "error", err)
	}
	return created, nil
}
