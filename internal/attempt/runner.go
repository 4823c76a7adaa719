// Package attempt drives one timed run through a quiz: navigation, answer
// selection, the countdown and the single submission at the end.
package attempt

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"quiz-client/internal/quiz"
)

type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "inProgress"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

var (
	ErrNotInProgress = errors.New("no attempt in progress")
	ErrUnknownOption = errors.New("option does not belong to the current question")
	ErrSuperseded    = errors.New("attempt was replaced before submission finished")
)

// SubmitFunc sends the flattened answers for attemptID to the server.
type SubmitFunc func(ctx context.Context, attemptID int, answers []quiz.AnswerSubmission) error

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.ticker.C }
func (t timeTicker) Stop()               { t.ticker.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{ticker: time.NewTicker(d)}
}

type Snapshot struct {
	State     State
	AttemptID int
	Quiz      quiz.Quiz
	Index     int
	// Selected is the option chosen for the current question, 0 when none.
	Selected  int
	Answers   map[int]int
	Remaining int
}

func (s Snapshot) Answered() int {
	return len(s.Answers)
}

type Runner struct {
	mu sync.Mutex

	submit       SubmitFunc
	newTicker    func(time.Duration) Ticker
	onTick       func(remaining int)
	onAutoSubmit func(err error)

	state      State
	attemptID  int
	quiz       quiz.Quiz
	index      int
	selected   int
	answers    map[int]int
	remaining  int
	generation int
	done       chan struct{}
}

type Option func(*Runner)

func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		if newTicker != nil {
			r.newTicker = newTicker
		}
	}
}

// WithOnTick is called after every countdown step with the seconds left.
func WithOnTick(fn func(remaining int)) Option {
	return func(r *Runner) {
		r.onTick = fn
	}
}

// WithOnAutoSubmit is called with the outcome of a submission triggered by the
// countdown reaching zero.
func WithOnAutoSubmit(fn func(err error)) Option {
	return func(r *Runner) {
		r.onAutoSubmit = fn
	}
}

func NewRunner(submit SubmitFunc, opts ...Option) *Runner {
	r := &Runner{
		submit:    submit,
		newTicker: newTimeTicker,
		state:     StateIdle,
		answers:   make(map[int]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a run of q under the server-issued attemptID. A countdown left
// over from a previous run is cancelled first.
func (r *Runner) Start(attemptID int, q quiz.Quiz) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimerLocked()
	r.generation++

	r.state = StateInProgress
	r.attemptID = attemptID
	r.quiz = q
	r.index = 0
	r.selected = 0
	r.answers = make(map[int]int)
	r.remaining = q.TimeLimitSeconds()

	done := make(chan struct{})
	r.done = done
	go r.runTimer(r.generation, r.newTicker(time.Second), done)

	slog.Info("attempt started", "attempt_id", attemptID, "quiz_id", q.ID, "time_limit_seconds", r.remaining)
}

// Stop abandons the run without submitting.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimerLocked()
	r.generation++
	r.state = StateIdle
	r.attemptID = 0
	r.quiz = quiz.Quiz{}
	r.index = 0
	r.selected = 0
	r.answers = make(map[int]int)
	r.remaining = 0
}

func (r *Runner) stopTimerLocked() {
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
}

func (r *Runner) runTimer(generation int, ticker Ticker, done <-chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			if r.tick(generation) {
				r.autoSubmit(generation)
				return
			}
		}
	}
}

// tick reports true exactly once per run, when the countdown hits zero.
func (r *Runner) tick(generation int) bool {
	r.mu.Lock()
	if generation != r.generation || r.state != StateInProgress {
		r.mu.Unlock()
		return false
	}
	r.remaining--
	remaining := r.remaining
	onTick := r.onTick
	r.mu.Unlock()

	if onTick != nil {
		onTick(max(remaining, 0))
	}
	return remaining <= 0
}

func (r *Runner) autoSubmit(generation int) {
	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return
	}
	attemptID := r.attemptID
	r.mu.Unlock()

	slog.Info("attempt time is up, submitting", "attempt_id", attemptID)
	err := r.Submit(context.Background())
	if r.onAutoSubmit != nil && !errors.Is(err, ErrNotInProgress) {
		r.onAutoSubmit(err)
	}
}

func (r *Runner) Select(optionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress {
		return ErrNotInProgress
	}
	question, ok := r.currentLocked()
	if !ok {
		return ErrNotInProgress
	}

	for _, option := range question.Options {
		if option.ID == optionID {
			r.answers[question.ID] = optionID
			r.selected = optionID
			return nil
		}
	}
	return ErrUnknownOption
}

// Next moves to the following question and reports whether it moved.
func (r *Runner) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.index >= len(r.quiz.Questions)-1 {
		return false
	}
	r.index++
	r.restoreSelectionLocked()
	return true
}

func (r *Runner) Prev() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.index <= 0 {
		return false
	}
	r.index--
	r.restoreSelectionLocked()
	return true
}

func (r *Runner) restoreSelectionLocked() {
	r.selected = 0
	if question, ok := r.currentLocked(); ok {
		r.selected = r.answers[question.ID]
	}
}

func (r *Runner) Current() (quiz.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked()
}

func (r *Runner) currentLocked() (quiz.Question, bool) {
	if r.index < 0 || r.index >= len(r.quiz.Questions) {
		return quiz.Question{}, false
	}
	return r.quiz.Questions[r.index], true
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	answers := make(map[int]int, len(r.answers))
	for questionID, optionID := range r.answers {
		answers[questionID] = optionID
	}
	return Snapshot{
		State:     r.state,
		AttemptID: r.attemptID,
		Quiz:      r.quiz,
		Index:     r.index,
		Selected:  r.selected,
		Answers:   answers,
		Remaining: max(r.remaining, 0),
	}
}

// Submit stops the countdown and sends the answers once. Concurrent or
// repeated calls get ErrNotInProgress. When the submit call fails the run
// returns to in progress with the countdown stopped so the user can retry.
func (r *Runner) Submit(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateInProgress {
		r.mu.Unlock()
		return ErrNotInProgress
	}
	r.state = StateSubmitting
	r.stopTimerLocked()

	generation := r.generation
	attemptID := r.attemptID
	answers := flattenAnswers(r.answers)
	r.mu.Unlock()

	err := r.submit(ctx, attemptID, answers)

	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		return ErrSuperseded
	}
	if err != nil {
		r.state = StateInProgress
		slog.Warn("attempt submission failed", "attempt_id", attemptID, "error", err)
		return err
	}

	r.state = StateSubmitted
	slog.Info("attempt submitted", "attempt_id", attemptID, "answers", len(answers))
	return nil
}

func flattenAnswers(answers map[int]int) []quiz.AnswerSubmission {
	flat := make([]quiz.AnswerSubmission, 0, len(answers))
	for questionID, optionID := range answers {
		flat = append(flat, quiz.AnswerSubmission{QuestionID: questionID, OptionID: optionID})
	}
	sort.Slice(flat, func(i, j int) bool {
		return flat[i].QuestionID < flat[j].QuestionID
	})
	return flat
}
