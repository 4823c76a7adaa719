package quiz

import (
	"math"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type UserStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	AvgScore          float64 `json:"avg_score"`
	TotalQuizzes      int     `json:"total_quizzes"`
	BestScore         float64 `json:"best_score"`
	AchievementsCount int     `json:"achievements_count"`
	TotalPoints       int     `json:"total_points"`
	StreakDays        int     `json:"streak_days"`
}

// Option.IsCorrect is only populated for authors; players never see it and
// scoring never relies on it.
type Option struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

func (o Option) Correct() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

type Question struct {
	ID          int      `json:"id"`
	Text        string   `json:"text"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
	Options     []Option `json:"options"`
}

type Quiz struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	IsActive         bool       `json:"is_active"`
	CreatorID        int        `json:"creator_id"`
	CreatedAt        time.Time  `json:"created_at"`
	QuestionsCount   int        `json:"questions_count"`
	TotalPoints      int        `json:"total_points"`
	Questions        []Question `json:"questions,omitempty"`
}

func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimitMinutes * 60
}

func (q Quiz) Question(id int) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

type AnswerSubmission struct {
	QuestionID int `json:"question_id"`
	OptionID   int `json:"option_id"`
}

type AttemptAnswer struct {
	ID           int  `json:"id"`
	QuestionID   int  `json:"question_id"`
	OptionID     *int `json:"option_id"`
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
}

type Attempt struct {
	ID               int             `json:"id"`
	UserID           int             `json:"user_id"`
	QuizID           int             `json:"quiz_id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       *time.Time      `json:"finished_at"`
	TimeSpentSeconds *int            `json:"time_spent_seconds"`
	TotalPoints      int             `json:"total_points"`
	MaxPoints        int             `json:"max_points"`
	IsCompleted      bool            `json:"is_completed"`
	Answers          []AttemptAnswer `json:"answers,omitempty"`
}

// ScoreRatio is 0 for attempts without any attainable points.
func (a Attempt) ScoreRatio() float64 {
	if a.MaxPoints <= 0 {
		return 0
	}
	return float64(a.TotalPoints) / float64(a.MaxPoints)
}

func (a Attempt) ScorePercentage() int {
	return int(math.Round(a.ScoreRatio() * 100))
}

func (a Attempt) TimeSpent() int {
	if a.TimeSpentSeconds == nil {
		return 0
	}
	return *a.TimeSpentSeconds
}

type CreateOptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	Text        string                `json:"text"`
	Explanation string                `json:"explanation"`
	Points      int                   `json:"points"`
	Options     []CreateOptionRequest `json:"options"`
}

type CreateQuizRequest struct {
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	TimeLimitMinutes int                     `json:"time_limit_minutes"`
	Questions        []CreateQuestionRequest `json:"questions"`
}
