package mock

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/quiz"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(opts ...Option) *LocalService {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return NewLocalService(append(base, opts...)...)
}

type memoryStore struct {
	awards []UserAchievement
	banks  []QuestionBank
	err    error
}

func (m *memoryStore) SaveUserAchievement(_ context.Context, award UserAchievement) error {
	if m.err != nil {
		return m.err
	}
	m.awards = append(m.awards, award)
	return nil
}

func (m *memoryStore) UserAchievements(_ context.Context, userID int) ([]UserAchievement, error) {
	var result []UserAchievement
	for _, award := range m.awards {
		if award.UserID == userID {
			award.Achievement = Achievement{}
			result = append(result, award)
		}
	}
	return result, nil
}

func (m *memoryStore) SaveQuestionBank(_ context.Context, bank QuestionBank) error {
	m.banks = append([]QuestionBank{bank}, m.banks...)
	return nil
}

func (m *memoryStore) QuestionBanks(context.Context) ([]QuestionBank, error) {
	return append([]QuestionBank(nil), m.banks...), nil
}

func achievementNames(awards []UserAchievement) []string {
	names := make([]string, 0, len(awards))
	for _, award := range awards {
		names = append(names, award.Achievement.Name)
	}
	return names
}

func TestCatalogHasFiveAchievements(t *testing.T) {
	achievements := newTestService().Achievements()
	require.Len(t, achievements, 5)
	assert.Equal(t, AchievementQuizCompleted, achievements[0].Type)
	assert.Equal(t, "Collector", achievements[4].Name)
}

func TestCheckAchievementsRules(t *testing.T) {
	tests := []struct {
		name  string
		input AchievementInput
		want  []string
	}{
		{
			name:  "first completion",
			input: AchievementInput{CompletedAttempts: 1, TotalPoints: 1, MaxPoints: 4, TimeSpentSeconds: 200, TimeLimitMinutes: 5},
			want:  []string{"Newcomer"},
		},
		{
			name:  "perfect score",
			input: AchievementInput{CompletedAttempts: 3, TotalPoints: 4, MaxPoints: 4, TimeSpentSeconds: 200, TimeLimitMinutes: 5},
			want:  []string{"Perfectionist"},
		},
		{
			name:  "fast completion",
			input: AchievementInput{CompletedAttempts: 3, TotalPoints: 1, MaxPoints: 4, TimeSpentSeconds: 149, TimeLimitMinutes: 5},
			want:  []string{"Speedster"},
		},
		{
			name:  "exactly half is not fast",
			input: AchievementInput{CompletedAttempts: 3, TotalPoints: 1, MaxPoints: 4, TimeSpentSeconds: 150, TimeLimitMinutes: 5},
			want:  []string{},
		},
		{
			name:  "zero time spent is not fast",
			input: AchievementInput{CompletedAttempts: 3, TotalPoints: 1, MaxPoints: 4, TimeLimitMinutes: 5},
			want:  []string{},
		},
		{
			name:  "empty quiz is not perfect",
			input: AchievementInput{CompletedAttempts: 2, TimeSpentSeconds: 400, TimeLimitMinutes: 5},
			want:  []string{},
		},
		{
			name:  "all three",
			input: AchievementInput{CompletedAttempts: 1, TotalPoints: 4, MaxPoints: 4, TimeSpentSeconds: 10, TimeLimitMinutes: 5},
			want:  []string{"Newcomer", "Perfectionist", "Speedster"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted, err := newTestService().CheckAchievements(context.Background(), 7, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, achievementNames(granted))
		})
	}
}

func TestCheckAchievementsGrantsOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	perfect := AchievementInput{CompletedAttempts: 2, TotalPoints: 10, MaxPoints: 10, TimeSpentSeconds: 400, TimeLimitMinutes: 5}

	first, err := service.CheckAchievements(ctx, 7, perfect)
	require.NoError(t, err)
	assert.Equal(t, []string{"Perfectionist"}, achievementNames(first))

	second, err := service.CheckAchievements(ctx, 7, perfect)
	require.NoError(t, err)
	assert.Empty(t, second)

	other, err := service.CheckAchievements(ctx, 8, perfect)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	awards, err := service.UserAchievements(ctx, 7)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, 100, awards[0].Progress)
	assert.Equal(t, fixedNow, awards[0].EarnedAt)
}

func TestEnsureNewcomer(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	granted, err := service.EnsureNewcomer(ctx, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, granted)

	granted, err = service.EnsureNewcomer(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newcomer"}, achievementNames(granted))

	granted, err = service.EnsureNewcomer(ctx, 7, 3)
	require.NoError(t, err)
	assert.Empty(t, granted)
}

func TestAwardsSurviveThroughStore(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}

	_, err := newTestService(WithStore(store)).CheckAchievements(ctx, 7, AchievementInput{CompletedAttempts: 1})
	require.NoError(t, err)

	restarted := newTestService(WithStore(store))
	awards, err := restarted.UserAchievements(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newcomer"}, achievementNames(awards))

	granted, err := restarted.CheckAchievements(ctx, 7, AchievementInput{CompletedAttempts: 1})
	require.NoError(t, err)
	assert.Empty(t, granted)
}

func TestStoreFailureIsReturned(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	_, err := newTestService(WithStore(store)).CheckAchievements(context.Background(), 7, AchievementInput{CompletedAttempts: 1})
	require.Error(t, err)
}

func TestLeaderboard(t *testing.T) {
	service := newTestService()

	anonymous := service.Leaderboard(nil)
	require.Len(t, anonymous, 3)
	assert.Equal(t, "demo_user1", anonymous[0].Username)
	assert.Equal(t, 3, anonymous[2].Rank)

	board := service.Leaderboard(&LeaderboardSelf{UserID: 2, Username: "testuser", TotalPoints: 170, CompletedQuizzes: 2, AchievementsCount: 1})
	require.Len(t, board, 4)
	assert.Equal(t, []string{"demo_user1", "testuser", "demo_user2", "demo_user3"}, []string{
		board[0].Username, board[1].Username, board[2].Username, board[3].Username,
	})
	for idx, entry := range board {
		assert.Equal(t, idx+1, entry.Rank)
	}

	tied := service.Leaderboard(&LeaderboardSelf{UserID: 2, Username: "testuser", TotalPoints: 165})
	assert.Equal(t, "demo_user2", tied[1].Username)
	assert.Equal(t, "testuser", tied[2].Username)
}

func TestQuestionBanksSeededAndCreated(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	service := newTestService(WithStore(store))

	banks, err := service.QuestionBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 3)
	assert.Equal(t, fixedNow.Add(-3*24*time.Hour), banks[1].CreatedAt)

	draft := NewBankDraft()
	draft.Name = "  Go  "
	draft.Category = "Programming"
	created, err := service.CreateQuestionBank(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
	assert.Equal(t, "Go", created.Name)
	assert.Equal(t, 10, created.QuestionsPerQuiz)
	assert.GreaterOrEqual(t, created.QuestionCount, 10)
	assert.Less(t, created.QuestionCount, 30)

	banks, err = service.QuestionBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, banks[0].ID)

	restarted := newTestService(WithStore(store))
	reloaded, err := restarted.QuestionBank(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Go", reloaded.Name)

	_, err = restarted.QuestionBank(ctx, 42)
	assert.True(t, errors.Is(err, ErrBankNotFound))

	_, err = service.CreateQuestionBank(ctx, BankDraft{QuestionsPerQuiz: 5})
	assert.True(t, errors.Is(err, ErrInvalidBank))
}

func TestGenerateQuizWithoutRandomization(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	draft := NewBankDraft()
	draft.Name = "Unknown"
	draft.Category = "Astronomy"
	draft.QuestionsPerQuiz = 1
	bank, err := service.CreateQuestionBank(ctx, draft)
	require.NoError(t, err)

	params := DefaultQuizFromBank(bank)
	assert.Equal(t, "Unknown - Quiz", params.Title)
	assert.Equal(t, `Automatically generated quiz from bank "Unknown"`, params.Description)
	assert.Equal(t, 10, params.TimeLimitMinutes)

	request, err := service.GenerateQuiz(ctx, bank.ID, params)
	require.NoError(t, err)
	require.Len(t, request.Questions, 1)
	assert.Equal(t, "What is a variable in programming?", request.Questions[0].Text)
	assert.Equal(t, "A container for data that can change", request.Questions[0].Options[0].Text)
	assert.Equal(t, 10, request.TimeLimitMinutes)
}

func TestGenerateQuizShufflesDeterministically(t *testing.T) {
	ctx := context.Background()

	generate := func() quiz.CreateQuizRequest {
		service := newTestService()
		bank, err := service.QuestionBank(ctx, 3)
		require.NoError(t, err)
		request, err := service.GenerateQuiz(ctx, bank.ID, DefaultQuizFromBank(bank))
		require.NoError(t, err)
		return request
	}

	first := generate()
	second := generate()
	assert.Equal(t, first, second)
	require.Len(t, first.Questions, 2)

	for _, question := range first.Questions {
		require.Len(t, question.Options, 4)
		correct := 0
		for _, option := range question.Options {
			if option.IsCorrect {
				correct++
			}
		}
		assert.Equal(t, 1, correct)
	}

	assert.Equal(t, "What is SQL?", categoryQuestions["Databases"][0].Text)
	assert.Equal(t, "A language for working with databases", categoryQuestions["Databases"][0].Options[0].Text)
}

func TestGenerateQuizRejectsBlankTitle(t *testing.T) {
	_, err := newTestService().GenerateQuiz(context.Background(), 1, QuizFromBank{Title: " ", TimeLimitMinutes: 10})
	assert.True(t, errors.Is(err, quiz.ErrInvalidQuiz))

	_, err = newTestService().GenerateQuiz(context.Background(), 99, QuizFromBank{Title: "x", TimeLimitMinutes: 10})
	assert.True(t, errors.Is(err, ErrBankNotFound))
}
