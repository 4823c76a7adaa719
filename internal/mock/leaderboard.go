package mock

import "sort"

var demoLeaders = []LeaderboardEntry{
	{UserID: 999, Username: "demo_user1", TotalPoints: 180, CompletedQuizzes: 7, AchievementsCount: 4},
	{UserID: 998, Username: "demo_user2", TotalPoints: 165, CompletedQuizzes: 6, AchievementsCount: 3},
	{UserID: 997, Username: "demo_user3", TotalPoints: 140, CompletedQuizzes: 5, AchievementsCount: 3},
}

// Leaderboard blends the demo rows with the signed-in user's live row (when
// me is not nil) and ranks them by points. Ties keep insertion order.
func (s *LocalService) Leaderboard(me *LeaderboardSelf) []LeaderboardEntry {
	entries := append([]LeaderboardEntry(nil), demoLeaders...)
	if me != nil {
		entries = append(entries, LeaderboardEntry{
			UserID:            me.UserID,
			Username:          me.Username,
			TotalPoints:       me.TotalPoints,
			CompletedQuizzes:  me.CompletedQuizzes,
			AchievementsCount: me.AchievementsCount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	for idx := range entries {
		entries[idx].Rank = idx + 1
	}
	return entries
}
