// Package app owns the client application state. UI layers drive it through
// action methods and observe it through Subscribe; they never share the
// underlying state.
package app

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"quiz-client/internal/api"
	"quiz-client/internal/attempt"
	"quiz-client/internal/certificate"
	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
)

const defaultNotificationTTL = 5 * time.Second

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrForbidden       = errors.New("administrator role required")
	ErrNoActiveAttempt = errors.New("no quiz in progress")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrCancelled       = errors.New("cancelled")
	// ErrStale is returned when the session changed while a request was in
	// flight; its result was dropped.
	ErrStale = errors.New("session changed, result discarded")
)

type View string

const (
	ViewQuizzes       View = "quizzes"
	ViewLogin         View = "login"
	ViewRegister      View = "register"
	ViewQuizTaking    View = "quizTaking"
	ViewQuizResult    View = "quizResult"
	ViewCreateQuiz    View = "createQuiz"
	ViewQuestionBanks View = "questionBanks"
	ViewAchievements  View = "achievements"
	ViewCertificates  View = "certificates"
	ViewLeaderboard   View = "leaderboard"
	ViewProfile       View = "profile"
)

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

type Notification struct {
	ID      int
	Message string
	Kind    NotificationKind
}

// State is a copy of everything the UI renders. Mutating it has no effect on
// the controller.
type State struct {
	View             View
	User             *quiz.User
	Quizzes          []quiz.Quiz
	Filter           quiz.Filter
	Search           string
	Attempts         []quiz.Attempt
	Stats            quiz.UserStats
	CurrentQuiz      *quiz.Quiz
	Attempt          attempt.Snapshot
	Result           *quiz.Attempt
	Notification     *Notification
	Achievements     []mock.Achievement
	UserAchievements []mock.UserAchievement
	Certificates     []certificate.Certificate
	Leaderboard      []mock.LeaderboardEntry
	Banks            []mock.QuestionBank
	Draft            quiz.Draft
}

func (s State) LoggedIn() bool {
	return s.User != nil
}

// Backend is the remote quiz API. *api.Client implements it.
type Backend interface {
	SetToken(token string)
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Register(ctx context.Context, request api.RegisterRequest) (quiz.User, error)
	Profile(ctx context.Context) (quiz.User, error)
	Stats(ctx context.Context) (quiz.UserStats, error)
	Attempts(ctx context.Context) ([]quiz.Attempt, error)
	Quizzes(ctx context.Context) ([]quiz.Quiz, error)
	Quiz(ctx context.Context, id int) (quiz.Quiz, error)
	StartAttempt(ctx context.Context, quizID int) (quiz.Attempt, error)
	SubmitAttempt(ctx context.Context, attemptID int, answers []quiz.AnswerSubmission) (quiz.Attempt, error)
	Attempt(ctx context.Context, id int) (quiz.Attempt, error)
	CreateQuiz(ctx context.Context, request quiz.CreateQuizRequest) (quiz.Quiz, error)
}

// CertificateSharer publishes a certificate's share text somewhere.
type CertificateSharer interface {
	Share(ctx context.Context, cert certificate.Certificate) (certificate.Channel, error)
}

type Controller struct {
	backend  Backend
	tokens   session.TokenStore
	features mock.Features
	certs    *certificate.Registry
	sharer   CertificateSharer
	download Downloader
	dialog   Dialog
	now      func() time.Time
	noteTTL  time.Duration
	runner   *attempt.Runner

	tickerFactory func(time.Duration) attempt.Ticker

	mu         sync.Mutex
	state      State
	generation uint64
	nextNoteID int
	nextSubID  int
	listeners  map[int]func(State)
}

type Option func(*Controller)

func WithTokenStore(store session.TokenStore) Option {
	return func(c *Controller) {
		if store != nil {
			c.tokens = store
		}
	}
}

func WithFeatures(features mock.Features) Option {
	return func(c *Controller) {
		if features != nil {
			c.features = features
		}
	}
}

func WithCertificates(registry *certificate.Registry) Option {
	return func(c *Controller) {
		if registry != nil {
			c.certs = registry
		}
	}
}

func WithSharer(sharer CertificateSharer) Option {
	return func(c *Controller) {
		if sharer != nil {
			c.sharer = sharer
		}
	}
}

func WithDownloader(download Downloader) Option {
	return func(c *Controller) {
		if download != nil {
			c.download = download
		}
	}
}

func WithDialog(dialog Dialog) Option {
	return func(c *Controller) {
		if dialog != nil {
			c.dialog = dialog
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNotificationTTL sets how long a notification stays up. Zero keeps it
// until it is replaced or hidden.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		c.noteTTL = ttl
	}
}

// WithTicker replaces the one-second countdown ticker of quiz attempts.
func WithTicker(newTicker func(time.Duration) attempt.Ticker) Option {
	return func(c *Controller) {
		c.tickerFactory = newTicker
	}
}

func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		tokens:    session.NewMemoryStore(),
		features:  mock.NewLocalService(),
		certs:     certificate.NewRegistry(),
		sharer:    certificate.ShareChain{},
		download:  DirDownloader{Dir: "."},
		dialog:    DefaultsDialog{},
		now:       time.Now,
		noteTTL:   defaultNotificationTTL,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}

	runnerOpts := []attempt.Option{
		attempt.WithOnTick(func(int) { c.emit() }),
		attempt.WithOnAutoSubmit(c.handleAutoSubmit),
	}
	if c.tickerFactory != nil {
		runnerOpts = append(runnerOpts, attempt.WithTicker(c.tickerFactory))
	}
	c.runner = attempt.NewRunner(c.submitAnswers, runnerOpts...)

	c.state = State{
		View:         ViewQuizzes,
		Filter:       quiz.FilterActive,
		Achievements: c.features.Achievements(),
		Leaderboard:  c.features.Leaderboard(nil),
		Draft:        quiz.NewDraft(),
	}
	return c
}

// Subscribe registers fn to receive a copy of the state after every change.
// fn may be called from the countdown goroutine and must not block.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	snapshot := c.state
	snapshot.Quizzes = slices.Clone(c.state.Quizzes)
	snapshot.Attempts = slices.Clone(c.state.Attempts)
	snapshot.Achievements = slices.Clone(c.state.Achievements)
	snapshot.UserAchievements = slices.Clone(c.state.UserAchievements)
	snapshot.Certificates = slices.Clone(c.state.Certificates)
	snapshot.Leaderboard = slices.Clone(c.state.Leaderboard)
	snapshot.Banks = slices.Clone(c.state.Banks)
	snapshot.Draft = c.state.Draft.Clone()
	snapshot.User = clonePtr(c.state.User)
	snapshot.CurrentQuiz = clonePtr(c.state.CurrentQuiz)
	snapshot.Result = clonePtr(c.state.Result)
	snapshot.Notification = clonePtr(c.state.Notification)
	snapshot.Attempt = c.runner.Snapshot()
	return snapshot
}

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

// update applies fn under the lock and then notifies subscribers.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	c.publishLocked()
}

// commit is update for results of requests issued under generation. Results
// that arrive after a login or logout are dropped with ErrStale.
func (c *Controller) commit(generation uint64, fn func(*State)) error {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return ErrStale
	}
	fn(&c.state)
	c.publishLocked()
	return nil
}

func (c *Controller) emit() {
	c.mu.Lock()
	c.publishLocked()
}

// publishLocked releases the lock before calling subscribers.
func (c *Controller) publishLocked() {
	snapshot := c.snapshotLocked()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]func(State), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// session returns the current generation and user.
func (c *Controller) session() (uint64, *quiz.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, clonePtr(c.state.User)
}

func (c *Controller) Notify(message string, kind NotificationKind) {
	c.mu.Lock()
	c.nextNoteID++
	id := c.nextNoteID
	c.state.Notification = &Notification{ID: id, Message: message, Kind: kind}
	ttl := c.noteTTL
	c.publishLocked()

	if ttl > 0 {
		time.AfterFunc(ttl, func() { c.hideNotification(id) })
	}
}

func (c *Controller) HideNotification() {
	c.update(func(s *State) {
		s.Notification = nil
	})
}

// hideNotification hides the notification only if it is still the one
// identified by id.
func (c *Controller) hideNotification(id int) {
	c.mu.Lock()
	if c.state.Notification == nil || c.state.Notification.ID != id {
		c.mu.Unlock()
		return
	}
	c.state.Notification = nil
	c.publishLocked()
}

func (c *Controller) SetView(view View) {
	c.update(func(s *State) {
		s.View = view
	})
}
