package apitest

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"quiz-client/internal/quiz"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        quiz.User `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type startAttemptRequest struct {
	QuizID int `json:"quiz_id"`
}

type submitAttemptRequest struct {
	Answers []quiz.AnswerSubmission `json:"answers"`
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var request loginRequest
	if err := decodeBody(r, &request); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.findAccountByEmailLocked(strings.TrimSpace(request.Email))
	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(request.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !found.user.IsActive {
		writeDetail(w, http.StatusBadRequest, "Inactive user")
		return
	}

	token, err := s.IssueToken(found.user.ID, s.tokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        found.user,
	})
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var request registerRequest
	if err := decodeBody(r, &request); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(request.Email)
	username := strings.TrimSpace(request.Username)
	if email == "" || username == "" || request.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email, username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findAccountByEmailLocked(email) != nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	for _, item := range s.accounts {
		if item.user.Username == username {
			writeDetail(w, http.StatusBadRequest, "Username already taken")
			return
		}
	}

	user, err := s.addAccount(email, username, strings.TrimSpace(request.FullName), request.Password, quiz.RoleUser)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, current.user)
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, computeStats(s.userAttemptsLocked(current.user.ID)))
}

func (s *Server) HandleUserAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.userAttemptsLocked(current.user.ID))
}

// HandleQuizzes lists quiz summaries. Admins see inactive quizzes too.
func (s *Server) HandleQuizzes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}

	summaries := make([]quiz.Quiz, 0, len(s.quizzes))
	for _, item := range s.quizzes {
		if !item.IsActive && !current.user.IsAdmin() {
			continue
		}
		summaries = append(summaries, summarizeQuiz(*item))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	quizID, err := parseIDParam(r, "quiz_id")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}

	stored := s.findQuizLocked(quizID)
	if stored == nil {
		writeDetail(w, http.StatusNotFound, "Quiz not found")
		return
	}
	if !stored.IsActive && !current.user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Quiz is not active")
		return
	}
	writeJSON(w, http.StatusOK, cloneQuiz(*stored, current.user.IsAdmin()))
}

// HandleStartAttempt resumes the caller's unfinished attempt on the quiz when
// one exists instead of opening a second one.
func (s *Server) HandleStartAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var request startAttemptRequest
	if err := decodeBody(r, &request); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}

	stored := s.findQuizLocked(request.QuizID)
	if stored == nil || !stored.IsActive {
		writeDetail(w, http.StatusNotFound, "Quiz not found or not active")
		return
	}

	for _, item := range s.attempts {
		if item.UserID == current.user.ID && item.QuizID == stored.ID && !item.IsCompleted {
			writeJSON(w, http.StatusOK, cloneAttempt(*item))
			return
		}
	}

	attempt := &quiz.Attempt{
		ID:        s.nextAttemptID,
		UserID:    current.user.ID,
		QuizID:    stored.ID,
		StartedAt: s.now().UTC(),
	}
	s.nextAttemptID++
	s.attempts = append(s.attempts, attempt)

	writeJSON(w, http.StatusOK, cloneAttempt(*attempt))
}

func (s *Server) HandleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	attemptID, err := parseIDParam(r, "attempt_id")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var request submitAttemptRequest
	if err := decodeBody(r, &request); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}

	attempt := s.findAttemptLocked(attemptID, current.user.ID)
	if attempt == nil || attempt.IsCompleted {
		writeDetail(w, http.StatusBadRequest, "Attempt not found or already completed")
		return
	}

	stored := s.findQuizLocked(attempt.QuizID)
	if stored == nil {
		writeDetail(w, http.StatusBadRequest, "Attempt not found or already completed")
		return
	}

	s.scoreLocked(attempt, *stored, request.Answers)
	writeJSON(w, http.StatusOK, cloneAttempt(*attempt))
}

// scoreLocked awards a question's points when the chosen option belongs to it
// and is correct. Unanswered questions are recorded with no option.
func (s *Server) scoreLocked(attempt *quiz.Attempt, stored quiz.Quiz, answers []quiz.AnswerSubmission) {
	chosen := make(map[int]int, len(answers))
	for _, answer := range answers {
		chosen[answer.QuestionID] = answer.OptionID
	}

	attempt.Answers = attempt.Answers[:0]
	attempt.TotalPoints = 0
	attempt.MaxPoints = 0

	for _, question := range stored.Questions {
		attempt.MaxPoints += question.Points

		record := quiz.AttemptAnswer{ID: s.nextAnswerID, QuestionID: question.ID}
		s.nextAnswerID++

		if optionID, ok := chosen[question.ID]; ok {
			for _, option := range question.Options {
				if option.ID != optionID {
					continue
				}
				selected := option.ID
				record.OptionID = &selected
				if option.Correct() {
					record.IsCorrect = true
					record.PointsEarned = question.Points
				}
				break
			}
		}

		attempt.TotalPoints += record.PointsEarned
		attempt.Answers = append(attempt.Answers, record)
	}

	finished := s.now().UTC()
	spent := int(finished.Sub(attempt.StartedAt).Seconds())
	attempt.FinishedAt = &finished
	attempt.TimeSpentSeconds = &spent
	attempt.IsCompleted = true
}

func (s *Server) HandleAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	attemptID, err := parseIDParam(r, "attempt_id")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}

	attempt := s.findAttemptLocked(attemptID, current.user.ID)
	if attempt == nil {
		writeDetail(w, http.StatusNotFound, "Attempt not found")
		return
	}
	writeJSON(w, http.StatusOK, cloneAttempt(*attempt))
}

func (s *Server) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var request quiz.CreateQuizRequest
	if err := decodeBody(r, &request); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requireUserLocked(w, r)
	if !ok {
		return
	}
	if !current.user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, detailForbidden)
		return
	}

	if strings.TrimSpace(request.Title) == "" {
		writeDetail(w, http.StatusBadRequest, "Quiz title is required")
		return
	}
	if request.TimeLimitMinutes < 1 {
		writeDetail(w, http.StatusBadRequest, "Time limit must be at least 1 minute")
		return
	}
	if len(request.Questions) == 0 {
		writeDetail(w, http.StatusBadRequest, "Quiz must have at least one question")
		return
	}

	created := s.addQuizLocked(current.user.ID, true, request)
	writeJSON(w, http.StatusOK, summarizeQuiz(created))
}

func computeStats(attempts []quiz.Attempt) quiz.UserStats {
	stats := quiz.UserStats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return stats
	}

	totalScore := 0
	maxTotal := 0
	quizzes := make(map[int]struct{}, len(attempts))
	for _, attempt := range attempts {
		totalScore += attempt.TotalPoints
		maxTotal += attempt.MaxPoints
		quizzes[attempt.QuizID] = struct{}{}

		if attempt.MaxPoints > 0 {
			percent := float64(attempt.TotalPoints) / float64(attempt.MaxPoints) * 100
			if percent > stats.BestScore {
				stats.BestScore = percent
			}
		}
	}

	if maxTotal > 0 {
		stats.AvgScore = float64(totalScore) / float64(maxTotal) * 100
	}
	stats.TotalQuizzes = len(quizzes)
	stats.TotalPoints = totalScore
	return stats
}
