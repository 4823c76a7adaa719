package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"quiz-client/internal/quiz"
)

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	request := httptest.NewRequest(method, path, &payload)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, request)
	return response
}

func login(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()

	response := doRequest(t, handler, http.MethodPost, "/login", "", loginRequest{Email: email, Password: password})
	if response.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", response.Code, response.Body.String())
	}
	var payload loginResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if payload.TokenType != "bearer" || payload.AccessToken == "" {
		t.Fatalf("unexpected login payload: %+v", payload)
	}
	return payload.AccessToken
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	handler := New().Handler()

	response := doRequest(t, handler, http.MethodPost, "/login", "", loginRequest{Email: UserEmail, Password: "wrong"})
	if response.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", response.Code, http.StatusUnauthorized)
	}

	var payload errorResponse
	_ = json.NewDecoder(response.Body).Decode(&payload)
	if payload.Detail != "Incorrect email or password" {
		t.Fatalf("detail = %q", payload.Detail)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	handler := New().Handler()

	for _, path := range []string{"/users/me", "/users/me/stats", "/users/me/attempts", "/quizzes", "/quizzes/1", "/attempts/1"} {
		response := doRequest(t, handler, http.MethodGet, path, "", nil)
		if response.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want %d", path, response.Code, http.StatusUnauthorized)
		}
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	server := New(WithClock(func() time.Time { return now }))

	token, err := server.IssueToken(UserID, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	now = now.Add(2 * time.Minute)

	response := doRequest(t, server.Handler(), http.MethodGet, "/users/me", token, nil)
	if response.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", response.Code, http.StatusUnauthorized)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	handler := New().Handler()

	response := doRequest(t, handler, http.MethodPost, "/register", "", registerRequest{
		Email: "new@test.com", Username: "newbie", Password: "pw",
	})
	if response.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", response.Code, http.StatusCreated)
	}

	response = doRequest(t, handler, http.MethodPost, "/register", "", registerRequest{
		Email: "new@test.com", Username: "other", Password: "pw",
	})
	if response.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want %d", response.Code, http.StatusBadRequest)
	}

	login(t, handler, "new@test.com", "pw")
}

func TestQuizListHidesInactiveFromUsers(t *testing.T) {
	handler := New().Handler()

	userList := decodeQuizzes(t, doRequest(t, handler, http.MethodGet, "/quizzes", login(t, handler, UserEmail, UserPassword), nil))
	if len(userList) != 1 || userList[0].ID != DemoQuizID {
		t.Fatalf("user quizzes = %+v", userList)
	}
	if userList[0].Questions != nil || userList[0].QuestionsCount != 3 || userList[0].TotalPoints != 4 {
		t.Fatalf("unexpected summary: %+v", userList[0])
	}

	adminList := decodeQuizzes(t, doRequest(t, handler, http.MethodGet, "/quizzes", login(t, handler, AdminEmail, AdminPassword), nil))
	if len(adminList) != 2 {
		t.Fatalf("admin quizzes = %d, want 2", len(adminList))
	}
}

func decodeQuizzes(t *testing.T, response *httptest.ResponseRecorder) []quiz.Quiz {
	t.Helper()
	if response.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", response.Code, response.Body.String())
	}
	var quizzes []quiz.Quiz
	if err := json.NewDecoder(response.Body).Decode(&quizzes); err != nil {
		t.Fatalf("decode quizzes: %v", err)
	}
	return quizzes
}

func TestQuizDetailHidesCorrectnessFromUsers(t *testing.T) {
	handler := New().Handler()
	token := login(t, handler, UserEmail, UserPassword)

	response := doRequest(t, handler, http.MethodGet, "/quizzes/1", token, nil)
	var detail quiz.Quiz
	if err := json.NewDecoder(response.Body).Decode(&detail); err != nil {
		t.Fatalf("decode quiz: %v", err)
	}
	for _, question := range detail.Questions {
		for _, option := range question.Options {
			if option.IsCorrect != nil {
				t.Fatalf("option %d leaks is_correct", option.ID)
			}
		}
	}

	response = doRequest(t, handler, http.MethodGet, "/quizzes/2", token, nil)
	if response.Code != http.StatusForbidden {
		t.Fatalf("inactive quiz status = %d, want %d", response.Code, http.StatusForbidden)
	}
}

func TestAttemptLifecycleScoresOnServer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	server := New(WithClock(func() time.Time { return now }))
	handler := server.Handler()
	token := login(t, handler, UserEmail, UserPassword)

	response := doRequest(t, handler, http.MethodPost, "/attempts/start", token, startAttemptRequest{QuizID: DemoQuizID})
	var started quiz.Attempt
	if err := json.NewDecoder(response.Body).Decode(&started); err != nil {
		t.Fatalf("decode start: %v", err)
	}

	resumed := doRequest(t, handler, http.MethodPost, "/attempts/start", token, startAttemptRequest{QuizID: DemoQuizID})
	var again quiz.Attempt
	_ = json.NewDecoder(resumed.Body).Decode(&again)
	if again.ID != started.ID {
		t.Fatalf("resumed attempt id = %d, want %d", again.ID, started.ID)
	}

	now = now.Add(90 * time.Second)
	// Question 1 option 2 ("go") is correct, question 2 option 5 ("an empty map") is not.
	path := "/attempts/" + strconv.Itoa(started.ID) + "/submit"
	response = doRequest(t, handler, http.MethodPost, path, token, submitAttemptRequest{Answers: []quiz.AnswerSubmission{
		{QuestionID: 1, OptionID: 2},
		{QuestionID: 2, OptionID: 5},
	}})
	if response.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", response.Code, response.Body.String())
	}

	var scored quiz.Attempt
	if err := json.NewDecoder(response.Body).Decode(&scored); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if scored.TotalPoints != 2 || scored.MaxPoints != 4 || !scored.IsCompleted {
		t.Fatalf("unexpected score: %+v", scored)
	}
	if scored.TimeSpent() != 90 {
		t.Fatalf("time spent = %d, want 90", scored.TimeSpent())
	}
	if len(scored.Answers) != 3 || scored.Answers[2].OptionID != nil {
		t.Fatalf("unexpected answers: %+v", scored.Answers)
	}

	response = doRequest(t, handler, http.MethodPost, path, token, submitAttemptRequest{})
	if response.Code != http.StatusBadRequest {
		t.Fatalf("second submit status = %d, want %d", response.Code, http.StatusBadRequest)
	}

	attempts := server.Attempts(UserID)
	if len(attempts) != 1 || attempts[0].ID != started.ID {
		t.Fatalf("attempts = %+v", attempts)
	}
}

func TestCreateQuizIsAdminOnly(t *testing.T) {
	handler := New().Handler()
	request := quiz.CreateQuizRequest{
		Title:            "New",
		TimeLimitMinutes: 1,
		Questions: []quiz.CreateQuestionRequest{
			{Text: "Q", Points: 1, Options: []quiz.CreateOptionRequest{{Text: "A", IsCorrect: true}}},
		},
	}

	response := doRequest(t, handler, http.MethodPost, "/admin/quizzes", login(t, handler, UserEmail, UserPassword), request)
	if response.Code != http.StatusForbidden {
		t.Fatalf("user status = %d, want %d", response.Code, http.StatusForbidden)
	}

	response = doRequest(t, handler, http.MethodPost, "/admin/quizzes", login(t, handler, AdminEmail, AdminPassword), request)
	if response.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body = %s", response.Code, response.Body.String())
	}
	var created quiz.Quiz
	_ = json.NewDecoder(response.Body).Decode(&created)
	if created.CreatorID != AdminID || !created.IsActive || created.QuestionsCount != 1 {
		t.Fatalf("unexpected quiz: %+v", created)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	response := doRequest(t, New().Handler(), http.MethodGet, "/login", "", nil)
	if response.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", response.Code, http.StatusMethodNotAllowed)
	}
	if response.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("Allow = %q", response.Header().Get("Allow"))
	}
}
