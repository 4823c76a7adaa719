package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"quiz-client/internal/api"
	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
)

// Init restores the saved session. A stored token that is malformed or past
// its expiry is discarded without contacting the server. Anonymous visitors
// only get the quiz list, and its failures stay silent.
func (c *Controller) Init(ctx context.Context) error {
	c.loadBanks(ctx)

	token, err := c.tokens.LoadToken(ctx)
	if err != nil {
		slog.Warn("failed to read stored token", "error", err)
		token = ""
	}

	if token != "" {
		claims, err := session.Inspect(token)
		if err != nil || claims.Expired(c.now()) {
			slog.Debug("discarding stored token", "malformed", err != nil)
			if err := c.tokens.ClearToken(ctx); err != nil {
				slog.Warn("failed to clear stored token", "error", err)
			}
			token = ""
		}
	}

	if token != "" {
		c.backend.SetToken(token)
		_ = c.LoadProfile(ctx)
		_ = c.LoadQuizzes(ctx)
		_ = c.LoadUserData(ctx)
		c.UpdateLeaderboard()
	}

	if _, user := c.session(); user == nil {
		return c.LoadQuizzes(ctx)
	}
	return nil
}

func (c *Controller) Login(ctx context.Context, email, password string) (quiz.User, error) {
	response, err := c.backend.Login(ctx, email, password)
	if err != nil {
		c.Notify("Login failed: "+errorDetail(err), NotifyError)
		return quiz.User{}, err
	}

	c.runner.Stop()

	// The generation moves before the new token is stored, so a late 401
	// from the previous session cannot clear it.
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	c.backend.SetToken(response.AccessToken)
	if err := c.tokens.SaveToken(ctx, response.AccessToken); err != nil {
		slog.Warn("failed to persist token", "error", err)
	}

	user := response.User
	c.mu.Lock()
	c.resetUserDataLocked()
	c.state.User = &user
	c.state.View = ViewQuizzes
	c.publishLocked()

	c.Notify("Signed in successfully!", NotifySuccess)
	_ = c.LoadQuizzes(ctx)
	_ = c.LoadUserData(ctx)
	c.UpdateLeaderboard()
	return user, nil
}

// Register creates the account but does not sign in; the user is sent to
// the login view.
func (c *Controller) Register(ctx context.Context, request api.RegisterRequest) (quiz.User, error) {
	user, err := c.backend.Register(ctx, request)
	if err != nil {
		c.Notify("Registration failed: "+errorDetail(err), NotifyError)
		return quiz.User{}, err
	}

	c.SetView(ViewLogin)
	c.Notify("Registration successful! Please sign in.", NotifySuccess)
	return user, nil
}

func (c *Controller) Logout(ctx context.Context) {
	c.runner.Stop()
	c.backend.SetToken("")
	if err := c.tokens.ClearToken(ctx); err != nil {
		slog.Warn("failed to clear stored token", "error", err)
	}

	c.mu.Lock()
	if c.state.User != nil {
		c.certs.Forget(c.state.User.ID)
	}
	c.generation++
	c.state.User = nil
	c.resetUserDataLocked()
	c.state.View = ViewQuizzes
	c.state.Leaderboard = c.features.Leaderboard(nil)
	c.publishLocked()

	c.Notify("You have signed out", NotifySuccess)
}

func (c *Controller) resetUserDataLocked() {
	c.state.Attempts = nil
	c.state.Stats = quiz.UserStats{}
	c.state.UserAchievements = nil
	c.state.Certificates = nil
	c.state.CurrentQuiz = nil
	c.state.Result = nil
}

// LoadProfile refreshes the signed-in user. Failures are only logged; a
// rejected token is forgotten so the next start is anonymous.
func (c *Controller) LoadProfile(ctx context.Context) error {
	generation, _ := c.session()

	user, err := c.backend.Profile(ctx)
	if err != nil {
		slog.Debug("profile fetch failed", "error", err)
		if api.StatusCode(err) == http.StatusUnauthorized {
			return c.forgetRejectedToken(ctx, generation, err)
		}
		return err
	}

	return c.commit(generation, func(s *State) {
		s.User = &user
	})
}

// forgetRejectedToken drops the token the server refused, unless a login or
// logout replaced it while the request was in flight.
func (c *Controller) forgetRejectedToken(ctx context.Context, generation uint64, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return ErrStale
	}

	c.backend.SetToken("")
	if err := c.tokens.ClearToken(ctx); err != nil {
		slog.Warn("failed to clear stored token", "error", err)
	}
	return cause
}

// LoadUserData refreshes stats and attempt history, rebuilds certificates
// from the history and replays the first-quiz achievement. Failures are only
// logged.
func (c *Controller) LoadUserData(ctx context.Context) error {
	granted, err := c.loadUserData(ctx)
	c.announceAchievements(granted)
	return err
}

// loadUserData is LoadUserData without the toasts; it returns the awards the
// first-quiz replay granted.
func (c *Controller) loadUserData(ctx context.Context) ([]mock.UserAchievement, error) {
	generation, user := c.session()
	if user == nil {
		return nil, ErrNotLoggedIn
	}

	stats, err := c.backend.Stats(ctx)
	if err != nil {
		slog.Debug("stats fetch failed", "error", err)
		return nil, err
	}
	attempts, err := c.backend.Attempts(ctx)
	if err != nil {
		slog.Debug("attempt history fetch failed", "error", err)
		return nil, err
	}

	certs, err := c.certs.Rebuild(ctx, user.ID, attempts, c.QuizTitle)
	if err != nil {
		slog.Warn("certificate rebuild failed", "error", err)
	}
	granted, err := c.features.EnsureNewcomer(ctx, user.ID, len(attempts))
	if err != nil {
		slog.Warn("newcomer check failed", "error", err)
	}
	awards, err := c.features.UserAchievements(ctx, user.ID)
	if err != nil {
		slog.Warn("achievements load failed", "error", err)
	}

	err = c.commit(generation, func(s *State) {
		s.Stats = stats
		s.Attempts = attempts
		s.Certificates = certs
		s.UserAchievements = awards
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

func (c *Controller) announceAchievements(granted []mock.UserAchievement) {
	for _, award := range granted {
		c.Notify(fmt.Sprintf("Achievement unlocked: %s!", award.Achievement.Name), NotifySuccess)
	}
}

// UpdateLeaderboard recomputes the leaderboard with the signed-in user's
// current numbers.
func (c *Controller) UpdateLeaderboard() {
	c.mu.Lock()
	var me *mock.LeaderboardSelf
	if user := c.state.User; user != nil {
		me = &mock.LeaderboardSelf{
			UserID:            user.ID,
			Username:          user.Username,
			TotalPoints:       c.state.Stats.TotalPoints,
			CompletedQuizzes:  c.state.Stats.TotalQuizzes,
			AchievementsCount: len(c.state.UserAchievements),
		}
	}
	c.state.Leaderboard = c.features.Leaderboard(me)
	c.publishLocked()
}

// errorDetail is the user-facing part of an API failure.
func errorDetail(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, api.ErrServiceUnavailable) {
		return "service unavailable"
	}
	return err.Error()
}
