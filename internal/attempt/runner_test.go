package attempt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/quiz"
)

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) new(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticker := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, ticker)
	return ticker
}

func (f *tickerFactory) last(t *testing.T) *fakeTicker {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.tickers)
	return f.tickers[len(f.tickers)-1]
}

type recordingSubmitter struct {
	mu      sync.Mutex
	calls   int
	answers []quiz.AnswerSubmission
	err     error
}

func (r *recordingSubmitter) submit(_ context.Context, _ int, answers []quiz.AnswerSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.answers = answers
	return r.err
}

func (r *recordingSubmitter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func sampleQuiz(minutes int) quiz.Quiz {
	return quiz.Quiz{
		ID:               7,
		Title:            "Sample",
		TimeLimitMinutes: minutes,
		Questions: []quiz.Question{
			{ID: 10, Text: "first", Points: 1, Options: []quiz.Option{{ID: 100, Text: "a"}, {ID: 101, Text: "b"}}},
			{ID: 11, Text: "second", Points: 1, Options: []quiz.Option{{ID: 110, Text: "c"}, {ID: 111, Text: "d"}}},
			{ID: 12, Text: "third", Points: 2, Options: []quiz.Option{{ID: 120, Text: "e"}, {ID: 121, Text: "f"}}},
		},
	}
}

func TestStartResetsRun(t *testing.T) {
	factory := &tickerFactory{}
	submitter := &recordingSubmitter{}
	runner := NewRunner(submitter.submit, WithTicker(factory.new))

	runner.Start(1, sampleQuiz(2))
	require.NoError(t, runner.Select(100))
	require.True(t, runner.Next())

	runner.Start(2, sampleQuiz(3))
	snapshot := runner.Snapshot()

	assert.Equal(t, StateInProgress, snapshot.State)
	assert.Equal(t, 2, snapshot.AttemptID)
	assert.Equal(t, 0, snapshot.Index)
	assert.Empty(t, snapshot.Answers)
	assert.Equal(t, 180, snapshot.Remaining)
	first := factory.tickers[0]
	assert.Eventually(t, first.isStopped, time.Second, 5*time.Millisecond)

	runner.Stop()
}

func TestNavigationRestoresSelection(t *testing.T) {
	factory := &tickerFactory{}
	runner := NewRunner((&recordingSubmitter{}).submit, WithTicker(factory.new))
	runner.Start(1, sampleQuiz(5))
	defer runner.Stop()

	require.NoError(t, runner.Select(101))
	assert.False(t, runner.Prev(), "cannot move before the first question")

	require.True(t, runner.Next())
	assert.Equal(t, 0, runner.Snapshot().Selected)
	require.NoError(t, runner.Select(110))

	require.True(t, runner.Next())
	assert.False(t, runner.Next(), "cannot move past the last question")

	require.True(t, runner.Prev())
	require.True(t, runner.Prev())
	snapshot := runner.Snapshot()
	assert.Equal(t, 0, snapshot.Index)
	assert.Equal(t, 101, snapshot.Selected)
	assert.Equal(t, 2, snapshot.Answered())

	current, ok := runner.Current()
	require.True(t, ok)
	assert.Equal(t, 10, current.ID)
}

func TestSelectRejectsForeignOption(t *testing.T) {
	runner := NewRunner((&recordingSubmitter{}).submit, WithTicker((&tickerFactory{}).new))

	assert.ErrorIs(t, runner.Select(100), ErrNotInProgress)

	runner.Start(1, sampleQuiz(5))
	defer runner.Stop()
	assert.ErrorIs(t, runner.Select(110), ErrUnknownOption)

	require.NoError(t, runner.Select(100))
	require.NoError(t, runner.Select(101))
	assert.Equal(t, map[int]int{10: 101}, runner.Snapshot().Answers)
}

func TestSubmitSendsSortedAnswersOnce(t *testing.T) {
	factory := &tickerFactory{}
	submitter := &recordingSubmitter{}
	runner := NewRunner(submitter.submit, WithTicker(factory.new))
	runner.Start(4, sampleQuiz(5))

	require.True(t, runner.Next())
	require.True(t, runner.Next())
	require.NoError(t, runner.Select(121))
	require.True(t, runner.Prev())
	require.True(t, runner.Prev())
	require.NoError(t, runner.Select(100))

	require.NoError(t, runner.Submit(context.Background()))
	assert.ErrorIs(t, runner.Submit(context.Background()), ErrNotInProgress)

	assert.Equal(t, 1, submitter.callCount())
	assert.Equal(t, []quiz.AnswerSubmission{
		{QuestionID: 10, OptionID: 100},
		{QuestionID: 12, OptionID: 121},
	}, submitter.answers)
	assert.Equal(t, StateSubmitted, runner.State())
	assert.Eventually(t, factory.last(t).isStopped, time.Second, 5*time.Millisecond)
}

func TestSubmitWithoutAnswersSendsEmptyList(t *testing.T) {
	submitter := &recordingSubmitter{}
	runner := NewRunner(submitter.submit, WithTicker((&tickerFactory{}).new))
	runner.Start(4, sampleQuiz(5))

	require.NoError(t, runner.Submit(context.Background()))
	assert.NotNil(t, submitter.answers)
	assert.Empty(t, submitter.answers)
}

func TestSubmitFailureKeepsAnswers(t *testing.T) {
	submitter := &recordingSubmitter{err: errors.New("boom")}
	runner := NewRunner(submitter.submit, WithTicker((&tickerFactory{}).new))
	runner.Start(4, sampleQuiz(5))
	require.NoError(t, runner.Select(100))

	err := runner.Submit(context.Background())
	require.Error(t, err)

	snapshot := runner.Snapshot()
	assert.Equal(t, StateInProgress, snapshot.State)
	assert.Equal(t, map[int]int{10: 100}, snapshot.Answers)

	submitter.err = nil
	require.NoError(t, runner.Submit(context.Background()))
	assert.Equal(t, 2, submitter.callCount())
}

func TestCountdownAutoSubmitsOnce(t *testing.T) {
	factory := &tickerFactory{}
	submitter := &recordingSubmitter{}

	var (
		mu    sync.Mutex
		ticks []int
	)
	autoSubmitted := make(chan error, 2)

	runner := NewRunner(submitter.submit,
		WithTicker(factory.new),
		WithOnTick(func(remaining int) {
			mu.Lock()
			ticks = append(ticks, remaining)
			mu.Unlock()
		}),
		WithOnAutoSubmit(func(err error) {
			autoSubmitted <- err
		}),
	)
	runner.Start(9, sampleQuiz(1))
	ticker := factory.last(t)

	for i := 0; i < 60; i++ {
		ticker.ch <- time.Now()
	}

	select {
	case err := <-autoSubmitted:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("attempt was not submitted when the countdown ended")
	}

	assert.Equal(t, StateSubmitted, runner.State())
	assert.Equal(t, 1, submitter.callCount())
	assert.Equal(t, 0, runner.Snapshot().Remaining)
	assert.Eventually(t, ticker.isStopped, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ticks, 60)
	assert.Equal(t, 59, ticks[0])
	assert.Equal(t, 0, ticks[59])
	assert.Empty(t, autoSubmitted)
}

func TestManualSubmitStopsCountdown(t *testing.T) {
	factory := &tickerFactory{}
	submitter := &recordingSubmitter{}
	autoSubmitted := make(chan error, 1)
	ticked := make(chan int, 1)
	runner := NewRunner(submitter.submit,
		WithTicker(factory.new),
		WithOnTick(func(remaining int) { ticked <- remaining }),
		WithOnAutoSubmit(func(err error) { autoSubmitted <- err }),
	)
	runner.Start(9, sampleQuiz(1))
	ticker := factory.last(t)
	ticker.ch <- time.Now()
	assert.Equal(t, 59, <-ticked)

	require.NoError(t, runner.Submit(context.Background()))
	assert.Eventually(t, ticker.isStopped, time.Second, 5*time.Millisecond)
	assert.Equal(t, 59, runner.Snapshot().Remaining)
	assert.Empty(t, autoSubmitted)
	assert.Equal(t, 1, submitter.callCount())
}
