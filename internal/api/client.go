package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quiz-client/internal/quiz"
)

const DefaultBaseURL = "http://localhost:8000"

var ErrServiceUnavailable = errors.New("quiz service unavailable")

const genericErrorDetail = "server error"

type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Detail
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// API error.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        quiz.User `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type startAttemptRequest struct {
	QuizID int `json:"quiz_id"`
}

type submitAttemptRequest struct {
	Answers []quiz.AnswerSubmission `json:"answers"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var payload LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &payload)
	if err != nil {
		return LoginResponse{}, err
	}
	return payload, nil
}

func (c *Client) Register(ctx context.Context, request RegisterRequest) (quiz.User, error) {
	var payload quiz.User
	if err := c.doJSON(ctx, http.MethodPost, "/register", request, &payload); err != nil {
		return quiz.User{}, err
	}
	return payload, nil
}

func (c *Client) Profile(ctx context.Context) (quiz.User, error) {
	var payload quiz.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &payload); err != nil {
		return quiz.User{}, err
	}
	return payload, nil
}

func (c *Client) Stats(ctx context.Context) (quiz.UserStats, error) {
	var payload quiz.UserStats
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/stats", nil, &payload); err != nil {
		return quiz.UserStats{}, err
	}
	return payload, nil
}

func (c *Client) Attempts(ctx context.Context) ([]quiz.Attempt, error) {
	var payload []quiz.Attempt
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/attempts", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) Quizzes(ctx context.Context) ([]quiz.Quiz, error) {
	var payload []quiz.Quiz
	if err := c.doJSON(ctx, http.MethodGet, "/quizzes", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) Quiz(ctx context.Context, id int) (quiz.Quiz, error) {
	var payload quiz.Quiz
	if err := c.doJSON(ctx, http.MethodGet, "/quizzes/"+strconv.Itoa(id), nil, &payload); err != nil {
		return quiz.Quiz{}, err
	}
	return payload, nil
}

func (c *Client) StartAttempt(ctx context.Context, quizID int) (quiz.Attempt, error) {
	var payload quiz.Attempt
	if err := c.doJSON(ctx, http.MethodPost, "/attempts/start", startAttemptRequest{QuizID: quizID}, &payload); err != nil {
		return quiz.Attempt{}, err
	}
	return payload, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, attemptID int, answers []quiz.AnswerSubmission) (quiz.Attempt, error) {
	if answers == nil {
		answers = []quiz.AnswerSubmission{}
	}

	var payload quiz.Attempt
	path := "/attempts/" + strconv.Itoa(attemptID) + "/submit"
	if err := c.doJSON(ctx, http.MethodPost, path, submitAttemptRequest{Answers: answers}, &payload); err != nil {
		return quiz.Attempt{}, err
	}
	return payload, nil
}

func (c *Client) Attempt(ctx context.Context, id int) (quiz.Attempt, error) {
	var payload quiz.Attempt
	if err := c.doJSON(ctx, http.MethodGet, "/attempts/"+strconv.Itoa(id), nil, &payload); err != nil {
		return quiz.Attempt{}, err
	}
	return payload, nil
}

func (c *Client) CreateQuiz(ctx context.Context, request quiz.CreateQuizRequest) (quiz.Quiz, error) {
	var payload quiz.Quiz
	if err := c.doJSON(ctx, http.MethodPost, "/admin/quizzes", request, &payload); err != nil {
		return quiz.Quiz{}, err
	}
	return payload, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", uuid.NewString())
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		slog.Warn("api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode, Detail: decodeDetail(response.Body)}
		slog.Warn("api request rejected", "method", method, "path", path, "status", response.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if response.StatusCode == http.StatusNoContent || responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

// decodeDetail reads the {"detail": ...} error body. An unreadable body yields
// the generic message; a readable body without a detail yields "" so the
// error falls back to the status code.
func decodeDetail(body io.Reader) string {
	var payload errorResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return genericErrorDetail
	}
	if len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return genericErrorDetail
}
