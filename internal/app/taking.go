package app

import (
	"context"
	"errors"
	"log/slog"

	"quiz-client/internal/attempt"
	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
)

// StartQuiz opens a server attempt, loads the quiz with its questions and
// starts the countdown. A countdown of a previous attempt is cancelled.
func (c *Controller) StartQuiz(ctx context.Context, quizID int) error {
	generation, user := c.session()
	if user == nil {
		c.Notify("Sign in to take a quiz", NotifyError)
		return ErrNotLoggedIn
	}

	started, err := c.backend.StartAttempt(ctx, quizID)
	if err != nil {
		c.Notify("Failed to start the quiz", NotifyError)
		return err
	}
	detail, err := c.backend.Quiz(ctx, quizID)
	if err != nil {
		c.Notify("Failed to start the quiz", NotifyError)
		return err
	}

	return c.commit(generation, func(s *State) {
		c.runner.Start(started.ID, detail)
		s.CurrentQuiz = &detail
		s.Result = nil
		s.View = ViewQuizTaking
	})
}

// SelectOption records optionID as the answer to the current question.
func (c *Controller) SelectOption(optionID int) error {
	if err := c.runner.Select(optionID); err != nil {
		if errors.Is(err, attempt.ErrNotInProgress) {
			return ErrNoActiveAttempt
		}
		return err
	}
	c.emit()
	return nil
}

func (c *Controller) NextQuestion() bool {
	moved := c.runner.Next()
	if moved {
		c.emit()
	}
	return moved
}

func (c *Controller) PrevQuestion() bool {
	moved := c.runner.Prev()
	if moved {
		c.emit()
	}
	return moved
}

// SubmitQuiz submits the running attempt. On failure the attempt stays open
// with its answers and the countdown stopped, so the user can retry.
func (c *Controller) SubmitQuiz(ctx context.Context) (quiz.Attempt, error) {
	if err := c.runner.Submit(ctx); err != nil {
		if errors.Is(err, attempt.ErrNotInProgress) {
			return quiz.Attempt{}, ErrNoActiveAttempt
		}
		if !errors.Is(err, ErrStale) && !errors.Is(err, attempt.ErrSuperseded) {
			c.Notify("Failed to submit answers", NotifyError)
		}
		c.emit()
		return quiz.Attempt{}, err
	}
	return c.finishSubmit(ctx)
}

// submitAnswers is the runner's SubmitFunc. It stores the scored attempt and
// switches to the result view.
func (c *Controller) submitAnswers(ctx context.Context, attemptID int, answers []quiz.AnswerSubmission) error {
	generation, _ := c.session()

	result, err := c.backend.SubmitAttempt(ctx, attemptID, answers)
	if err != nil {
		return err
	}

	return c.commit(generation, func(s *State) {
		s.Result = &result
		s.View = ViewQuizResult
	})
}

func (c *Controller) handleAutoSubmit(err error) {
	ctx := context.Background()
	if err != nil {
		if !errors.Is(err, ErrStale) && !errors.Is(err, attempt.ErrSuperseded) {
			c.Notify("Time is up, but submitting the answers failed", NotifyError)
		}
		c.emit()
		return
	}
	if _, err := c.finishSubmit(ctx); err != nil {
		slog.Warn("post-submit refresh failed", "error", err)
	}
}

// finishSubmit refreshes user data and runs the local achievement checks for
// the attempt just scored.
func (c *Controller) finishSubmit(ctx context.Context) (quiz.Attempt, error) {
	c.mu.Lock()
	result := clonePtr(c.state.Result)
	currentQuiz := clonePtr(c.state.CurrentQuiz)
	user := clonePtr(c.state.User)
	c.mu.Unlock()

	if result == nil {
		return quiz.Attempt{}, ErrNoActiveAttempt
	}

	unlocked, err := c.loadUserData(ctx)
	if err != nil && !errors.Is(err, ErrStale) {
		slog.Debug("user data refresh after submit failed", "error", err)
	}

	if user != nil {
		input := mock.AchievementInput{
			CompletedAttempts: c.completedAttempts(),
			TotalPoints:       result.TotalPoints,
			MaxPoints:         result.MaxPoints,
			TimeSpentSeconds:  result.TimeSpent(),
		}
		if currentQuiz != nil {
			input.TimeLimitMinutes = currentQuiz.TimeLimitMinutes
		}

		granted, err := c.features.CheckAchievements(ctx, user.ID, input)
		if err != nil {
			slog.Warn("achievement check failed", "error", err)
		}
		if len(granted) > 0 {
			if awards, err := c.features.UserAchievements(ctx, user.ID); err == nil {
				c.update(func(s *State) {
					s.UserAchievements = awards
				})
			}
		}
		unlocked = append(unlocked, granted...)
	}

	// Award toasts follow the completion message.
	c.Notify("Quiz completed!", NotifySuccess)
	c.announceAchievements(unlocked)
	return *result, nil
}

func (c *Controller) completedAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, item := range c.state.Attempts {
		if item.IsCompleted {
			count++
		}
	}
	return count
}

// ViewAttemptResult shows a past attempt. The attempt must be in the loaded
// history; when the detail or its quiz cannot be fetched the history entry
// and a title-only quiz are shown instead.
func (c *Controller) ViewAttemptResult(ctx context.Context, attemptID int) (quiz.Attempt, error) {
	generation, _ := c.session()

	local, ok := c.findAttempt(attemptID)
	if !ok {
		c.Notify("Attempt not found", NotifyError)
		return quiz.Attempt{}, ErrAttemptNotFound
	}

	result, err := c.backend.Attempt(ctx, attemptID)
	if err != nil {
		slog.Debug("attempt detail fetch failed, using history entry", "attempt_id", attemptID, "error", err)
		result = local
	}

	detail, err := c.backend.Quiz(ctx, result.QuizID)
	if err != nil {
		slog.Debug("quiz detail fetch failed", "quiz_id", result.QuizID, "error", err)
		detail = quiz.Quiz{ID: result.QuizID, Title: c.QuizTitle(result.QuizID)}
	}

	err = c.commit(generation, func(s *State) {
		s.Result = &result
		s.CurrentQuiz = &detail
		s.View = ViewQuizResult
	})
	if err != nil {
		return quiz.Attempt{}, err
	}
	return result, nil
}

func (c *Controller) findAttempt(attemptID int) (quiz.Attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.state.Attempts {
		if item.ID == attemptID {
			return item, true
		}
	}
	return quiz.Attempt{}, false
}
