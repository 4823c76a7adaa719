package app

import (
	"context"
	"fmt"
	"log/slog"

	"quiz-client/internal/quiz"
)

// LoadQuizzes refreshes the quiz list. Failures are shown only to signed-in
// users.
func (c *Controller) LoadQuizzes(ctx context.Context) error {
	generation, user := c.session()

	quizzes, err := c.backend.Quizzes(ctx)
	if err != nil {
		slog.Debug("quiz list fetch failed", "anonymous", user == nil, "error", err)
		if user != nil {
			c.Notify("Failed to load quizzes", NotifyError)
		}
		return err
	}

	return c.commit(generation, func(s *State) {
		s.Quizzes = quizzes
	})
}

func (c *Controller) SetFilter(filter quiz.Filter) {
	c.update(func(s *State) {
		s.Filter = filter
	})
}

func (c *Controller) SetSearch(search string) {
	c.update(func(s *State) {
		s.Search = search
	})
}

// FilteredQuizzes is the quiz list narrowed by the current filter and search.
func (c *Controller) FilteredQuizzes() []quiz.Quiz {
	c.mu.Lock()
	defer c.mu.Unlock()
	return quiz.FilterQuizzes(c.state.Quizzes, c.state.Filter, c.state.Search, c.state.User)
}

// QuizTitle falls back to "Quiz #<id>" for quizzes missing from the list.
func (c *Controller) QuizTitle(quizID int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quizTitleLocked(quizID)
}

func (c *Controller) quizTitleLocked(quizID int) string {
	for _, item := range c.state.Quizzes {
		if item.ID == quizID {
			return item.Title
		}
	}
	if c.state.CurrentQuiz != nil && c.state.CurrentQuiz.ID == quizID && c.state.CurrentQuiz.Title != "" {
		return c.state.CurrentQuiz.Title
	}
	return fmt.Sprintf("Quiz #%d", quizID)
}

// QuestionPoints looks the question up in the current quiz; 0 when unknown.
func (c *Controller) QuestionPoints(questionID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.CurrentQuiz == nil {
		return 0
	}
	question, ok := c.state.CurrentQuiz.Question(questionID)
	if !ok {
		return 0
	}
	return question.Points
}
