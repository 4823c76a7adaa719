// Package mock provides the features the backend does not serve yet:
// achievements, the leaderboard and question banks. Everything it returns is
// computed on the client and is advisory only.
package mock

import (
	"context"
	"errors"
	"time"

	"quiz-client/internal/quiz"
)

var (
	ErrBankNotFound = errors.New("question bank not found")
	ErrInvalidBank  = errors.New("invalid question bank")
)

type AchievementType string

const (
	AchievementQuizCompleted  AchievementType = "quiz_completed"
	AchievementPerfectScore   AchievementType = "perfect_score"
	AchievementFastCompletion AchievementType = "fast_completion"
	AchievementMaster         AchievementType = "master"
	AchievementCollector      AchievementType = "collector"
)

type Achievement struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        AchievementType `json:"type"`
	Icon        string          `json:"icon"`
	IsActive    bool            `json:"is_active"`
}

type UserAchievement struct {
	ID            int         `json:"id"`
	UserID        int         `json:"user_id"`
	AchievementID int         `json:"achievement_id"`
	EarnedAt      time.Time   `json:"earned_at"`
	Progress      int         `json:"progress"`
	Achievement   Achievement `json:"achievement"`
}

// AchievementInput describes a freshly submitted attempt.
type AchievementInput struct {
	CompletedAttempts int
	TotalPoints       int
	MaxPoints         int
	TimeSpentSeconds  int
	TimeLimitMinutes  int
}

type QuestionBank struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Tags               string    `json:"tags"`
	IsPublic           bool      `json:"is_public"`
	RandomizeQuestions bool      `json:"randomize_questions"`
	RandomizeOptions   bool      `json:"randomize_options"`
	QuestionsPerQuiz   int       `json:"questions_per_quiz"`
	CreatedAt          time.Time `json:"created_at"`
	QuestionCount      int       `json:"question_count"`
}

// BankDraft is the question bank creation form.
type BankDraft struct {
	Name               string
	Description        string
	Category           string
	Tags               string
	IsPublic           bool
	RandomizeQuestions bool
	RandomizeOptions   bool
	QuestionsPerQuiz   int
}

func NewBankDraft() BankDraft {
	return BankDraft{QuestionsPerQuiz: defaultQuestionsPerQuiz}
}

// QuizFromBank holds the parameters confirmed in the bank-to-quiz dialog.
type QuizFromBank struct {
	Title            string
	Description      string
	TimeLimitMinutes int
	IsActive         bool
}

type LeaderboardEntry struct {
	UserID            int    `json:"user_id"`
	Username          string `json:"username"`
	TotalPoints       int    `json:"total_points"`
	CompletedQuizzes  int    `json:"completed_quizzes"`
	AchievementsCount int    `json:"achievements_count"`
	Rank              int    `json:"rank"`
}

// LeaderboardSelf is the signed-in user's live row.
type LeaderboardSelf struct {
	UserID            int
	Username          string
	TotalPoints       int
	CompletedQuizzes  int
	AchievementsCount int
}

// Features is what a real backend service would implement for these
// features; LocalService is the client-side stand-in.
type Features interface {
	Achievements() []Achievement
	UserAchievements(ctx context.Context, userID int) ([]UserAchievement, error)
	CheckAchievements(ctx context.Context, userID int, input AchievementInput) ([]UserAchievement, error)
	EnsureNewcomer(ctx context.Context, userID, attemptCount int) ([]UserAchievement, error)
	Leaderboard(me *LeaderboardSelf) []LeaderboardEntry
	QuestionBanks(ctx context.Context) ([]QuestionBank, error)
	QuestionBank(ctx context.Context, id int) (QuestionBank, error)
	CreateQuestionBank(ctx context.Context, draft BankDraft) (QuestionBank, error)
	GenerateQuiz(ctx context.Context, bankID int, params QuizFromBank) (quiz.CreateQuizRequest, error)
}

// Store persists what LocalService creates. Banks come back newest first.
type Store interface {
	SaveUserAchievement(ctx context.Context, award UserAchievement) error
	UserAchievements(ctx context.Context, userID int) ([]UserAchievement, error)
	SaveQuestionBank(ctx context.Context, bank QuestionBank) error
	QuestionBanks(ctx context.Context) ([]QuestionBank, error)
}
