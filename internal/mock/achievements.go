package mock

import (
	"context"
	"log/slog"
)

var catalog = []Achievement{
	{ID: 1, Name: "Newcomer", Description: "Complete your first quiz", Type: AchievementQuizCompleted, Icon: "fas fa-medal", IsActive: true},
	{ID: 2, Name: "Perfectionist", Description: "Get 100% on a quiz", Type: AchievementPerfectScore, Icon: "fas fa-star", IsActive: true},
	{ID: 3, Name: "Speedster", Description: "Complete a quiz faster than the allotted time", Type: AchievementFastCompletion, Icon: "fas fa-bolt", IsActive: true},
	{ID: 4, Name: "Python Master", Description: "Complete 5 Python quizzes", Type: AchievementMaster, Icon: "fas fa-python", IsActive: true},
	{ID: 5, Name: "Collector", Description: "Earn 10 achievements", Type: AchievementCollector, Icon: "fas fa-trophy", IsActive: true},
}

func (s *LocalService) Achievements() []Achievement {
	return append([]Achievement(nil), catalog...)
}

func achievementByType(kind AchievementType) (Achievement, bool) {
	for _, item := range catalog {
		if item.Type == kind {
			return item, true
		}
	}
	return Achievement{}, false
}

func achievementByID(id int) (Achievement, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return Achievement{}, false
}

func (s *LocalService) UserAchievements(ctx context.Context, userID int) ([]UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	awards, err := s.loadAwardsLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append([]UserAchievement(nil), awards...), nil
}

// CheckAchievements runs the three post-submission rules and returns only the
// awards granted by this call. Every achievement is granted at most once per
// user.
func (s *LocalService) CheckAchievements(ctx context.Context, userID int, input AchievementInput) ([]UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earned []AchievementType
	if input.CompletedAttempts == 1 {
		earned = append(earned, AchievementQuizCompleted)
	}
	if input.MaxPoints > 0 && input.TotalPoints == input.MaxPoints {
		earned = append(earned, AchievementPerfectScore)
	}
	// Compared in doubled seconds so odd limits keep the exact half.
	if input.TimeSpentSeconds > 0 && input.TimeSpentSeconds*2 < input.TimeLimitMinutes*60 {
		earned = append(earned, AchievementFastCompletion)
	}

	return s.grantLocked(ctx, userID, earned)
}

// EnsureNewcomer grants the first-completion award to a user who has attempts
// on record but no awards yet, as happens on a fresh client.
func (s *LocalService) EnsureNewcomer(ctx context.Context, userID, attemptCount int) ([]UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	awards, err := s.loadAwardsLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if attemptCount == 0 || len(awards) > 0 {
		return nil, nil
	}
	return s.grantLocked(ctx, userID, []AchievementType{AchievementQuizCompleted})
}

func (s *LocalService) grantLocked(ctx context.Context, userID int, kinds []AchievementType) ([]UserAchievement, error) {
	awards, err := s.loadAwardsLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	var granted []UserAchievement
	for _, kind := range kinds {
		achievement, ok := achievementByType(kind)
		if !ok || hasAchievement(awards, achievement.ID) {
			continue
		}

		award := UserAchievement{
			ID:            len(awards) + 1,
			UserID:        userID,
			AchievementID: achievement.ID,
			EarnedAt:      s.now().UTC(),
			Progress:      100,
			Achievement:   achievement,
		}
		if s.store != nil {
			if err := s.store.SaveUserAchievement(ctx, award); err != nil {
				return granted, err
			}
		}
		awards = append(awards, award)
		granted = append(granted, award)
		slog.Info("achievement granted", "user_id", userID, "achievement", achievement.Name, "source", "local")
	}

	s.awards[userID] = awards
	return granted, nil
}

func (s *LocalService) loadAwardsLocked(ctx context.Context, userID int) ([]UserAchievement, error) {
	if awards, ok := s.awards[userID]; ok {
		return awards, nil
	}

	var awards []UserAchievement
	if s.store != nil {
		stored, err := s.store.UserAchievements(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, award := range stored {
			if achievement, ok := achievementByID(award.AchievementID); ok {
				award.Achievement = achievement
			}
			awards = append(awards, award)
		}
	}

	s.awards[userID] = awards
	return awards, nil
}

func hasAchievement(awards []UserAchievement, achievementID int) bool {
	for _, award := range awards {
		if award.AchievementID == achievementID {
			return true
		}
	}
	return false
}
