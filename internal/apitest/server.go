// Package apitest is an in-memory implementation of the quiz platform REST
// API. The client tests run against it and cmd/quiz-stub-server serves it for
// local runs.
package apitest

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quiz-client/internal/quiz"
)

const (
	AdminID       = 1
	AdminEmail    = "admin@quiz.com"
	AdminPassword = "admin123"

	UserID       = 2
	UserEmail    = "user@test.com"
	UserPassword = "test123"

	DemoQuizID  = 1
	DraftQuizID = 2
)

const (
	defaultSecret = "quiz-stub-secret"
	defaultTTL    = 30 * time.Minute
	passwordCost  = bcrypt.MinCost
)

type account struct {
	user         quiz.User
	passwordHash []byte
}

type Server struct {
	mu sync.Mutex

	now      func() time.Time
	secret   []byte
	tokenTTL time.Duration

	accounts []*account
	quizzes  []*quiz.Quiz
	attempts []*quiz.Attempt

	nextUserID     int
	nextQuizID     int
	nextQuestionID int
	nextOptionID   int
	nextAttemptID  int
	nextAnswerID   int
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// New returns a server seeded with an admin, a regular user, one active demo
// quiz and one inactive draft quiz owned by the admin.
func New(opts ...Option) *Server {
	s := &Server{
		now:            time.Now,
		secret:         []byte(defaultSecret),
		tokenTTL:       defaultTTL,
		nextUserID:     1,
		nextQuizID:     1,
		nextQuestionID: 1,
		nextOptionID:   1,
		nextAttemptID:  1,
		nextAnswerID:   1,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mustAddAccount(AdminEmail, "admin", "Quiz Admin", AdminPassword, quiz.RoleAdmin)
	s.mustAddAccount(UserEmail, "testuser", "Test User", UserPassword, quiz.RoleUser)
	s.AddQuiz(AdminID, true, demoQuiz())
	s.AddQuiz(AdminID, false, draftQuiz())

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.HandleLogin)
	mux.HandleFunc("/register", s.HandleRegister)
	mux.HandleFunc("/users/me", s.HandleProfile)
	mux.HandleFunc("/users/me/stats", s.HandleStats)
	mux.HandleFunc("/users/me/attempts", s.HandleUserAttempts)
	mux.HandleFunc("/quizzes", s.HandleQuizzes)
	mux.HandleFunc("/quizzes/{quiz_id}", s.HandleQuiz)
	mux.HandleFunc("/attempts/start", s.HandleStartAttempt)
	mux.HandleFunc("/attempts/{attempt_id}", s.HandleAttempt)
	mux.HandleFunc("/attempts/{attempt_id}/submit", s.HandleSubmitAttempt)
	mux.HandleFunc("/admin/quizzes", s.HandleCreateQuiz)
	return mux
}

func (s *Server) mustAddAccount(email, username, fullName, password string, role quiz.Role) {
	if _, err := s.addAccount(email, username, fullName, password, role); err != nil {
		panic(err)
	}
}

func (s *Server) addAccount(email, username, fullName, password string, role quiz.Role) (quiz.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return quiz.User{}, err
	}

	user := quiz.User{
		ID:        s.nextUserID,
		Email:     email,
		Username:  username,
		FullName:  fullName,
		Role:      role,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	s.nextUserID++
	s.accounts = append(s.accounts, &account{user: user, passwordHash: hash})
	return user, nil
}

// AddQuiz stores a quiz as if an admin had created it and returns it with
// correct answers visible.
func (s *Server) AddQuiz(creatorID int, active bool, request quiz.CreateQuizRequest) quiz.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addQuizLocked(creatorID, active, request)
}

func (s *Server) addQuizLocked(creatorID int, active bool, request quiz.CreateQuizRequest) quiz.Quiz {
	stored := &quiz.Quiz{
		ID:               s.nextQuizID,
		Title:            request.Title,
		Description:      request.Description,
		TimeLimitMinutes: request.TimeLimitMinutes,
		IsActive:         active,
		CreatorID:        creatorID,
		CreatedAt:        s.now().UTC(),
	}
	s.nextQuizID++

	for _, question := range request.Questions {
		item := quiz.Question{
			ID:          s.nextQuestionID,
			Text:        question.Text,
			Explanation: question.Explanation,
			Points:      question.Points,
		}
		s.nextQuestionID++
		for _, option := range question.Options {
			correct := option.IsCorrect
			item.Options = append(item.Options, quiz.Option{
				ID:        s.nextOptionID,
				Text:      option.Text,
				IsCorrect: &correct,
			})
			s.nextOptionID++
		}
		stored.Questions = append(stored.Questions, item)
		stored.TotalPoints += item.Points
	}
	stored.QuestionsCount = len(stored.Questions)

	s.quizzes = append(s.quizzes, stored)
	return cloneQuiz(*stored, true)
}

func (s *Server) SetQuizActive(quizID int, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.findQuizLocked(quizID)
	if stored == nil {
		return false
	}
	stored.IsActive = active
	return true
}

// Attempts returns every attempt of userID, newest first.
func (s *Server) Attempts(userID int) []quiz.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAttemptsLocked(userID)
}

func (s *Server) userAttemptsLocked(userID int) []quiz.Attempt {
	attempts := make([]quiz.Attempt, 0)
	for idx := len(s.attempts) - 1; idx >= 0; idx-- {
		if s.attempts[idx].UserID == userID {
			attempts = append(attempts, cloneAttempt(*s.attempts[idx]))
		}
	}
	return attempts
}

func (s *Server) findAccountByEmailLocked(email string) *account {
	for _, item := range s.accounts {
		if item.user.Email == email {
			return item
		}
	}
	return nil
}

func (s *Server) findAccountByIDLocked(id int) *account {
	for _, item := range s.accounts {
		if item.user.ID == id {
			return item
		}
	}
	return nil
}

func (s *Server) findQuizLocked(id int) *quiz.Quiz {
	for _, item := range s.quizzes {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (s *Server) findAttemptLocked(id, userID int) *quiz.Attempt {
	for _, item := range s.attempts {
		if item.ID == id && item.UserID == userID {
			return item
		}
	}
	return nil
}

func cloneQuiz(source quiz.Quiz, revealAnswers bool) quiz.Quiz {
	clone := source
	clone.Questions = make([]quiz.Question, 0, len(source.Questions))
	for _, question := range source.Questions {
		copied := question
		copied.Options = make([]quiz.Option, 0, len(question.Options))
		for _, option := range question.Options {
			item := quiz.Option{ID: option.ID, Text: option.Text}
			if revealAnswers {
				correct := option.Correct()
				item.IsCorrect = &correct
			}
			copied.Options = append(copied.Options, item)
		}
		clone.Questions = append(clone.Questions, copied)
	}
	return clone
}

func summarizeQuiz(source quiz.Quiz) quiz.Quiz {
	summary := source
	summary.Questions = nil
	return summary
}

func cloneAttempt(source quiz.Attempt) quiz.Attempt {
	clone := source
	clone.Answers = append([]quiz.AttemptAnswer(nil), source.Answers...)
	return clone
}

func demoQuiz() quiz.CreateQuizRequest {
	return quiz.CreateQuizRequest{
		Title:            "Go Basics",
		Description:      "Goroutines, maps and the standard library",
		TimeLimitMinutes: 5,
		Questions: []quiz.CreateQuestionRequest{
			{
				Text:        "Which keyword starts a goroutine?",
				Explanation: "The go statement runs a function call concurrently.",
				Points:      2,
				Options: []quiz.CreateOptionRequest{
					{Text: "defer"},
					{Text: "go", IsCorrect: true},
					{Text: "func"},
				},
			},
			{
				Text:   "What is the zero value of a map?",
				Points: 1,
				Options: []quiz.CreateOptionRequest{
					{Text: "nil", IsCorrect: true},
					{Text: "an empty map"},
				},
			},
			{
				Text:   "Which package implements formatted I/O?",
				Points: 1,
				Options: []quiz.CreateOptionRequest{
					{Text: "io"},
					{Text: "os"},
					{Text: "fmt", IsCorrect: true},
				},
			},
		},
	}
}

func draftQuiz() quiz.CreateQuizRequest {
	return quiz.CreateQuizRequest{
		Title:            "Concurrency Patterns (draft)",
		Description:      "Work in progress",
		TimeLimitMinutes: 10,
		Questions: []quiz.CreateQuestionRequest{
			{
				Text:   "Which built-in type carries values between goroutines?",
				Points: 1,
				Options: []quiz.CreateOptionRequest{
					{Text: "chan", IsCorrect: true},
					{Text: "map"},
				},
			},
		},
	}
}
