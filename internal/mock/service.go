package mock

import (
	"math/rand"
	"sync"
	"time"
)

type LocalService struct {
	mu sync.Mutex

	rng   *rand.Rand
	now   func() time.Time
	store Store

	awards      map[int][]UserAchievement
	banks       []QuestionBank
	banksLoaded bool
}

type Option func(*LocalService)

// WithRand sets the source used for shuffles and generated bank sizes.
func WithRand(rng *rand.Rand) Option {
	return func(s *LocalService) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LocalService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithStore(store Store) Option {
	return func(s *LocalService) {
		s.store = store
	}
}

func NewLocalService(opts ...Option) *LocalService {
	s := &LocalService{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		awards: make(map[int][]UserAchievement),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Features = (*LocalService)(nil)
