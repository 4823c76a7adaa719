// Package certificate issues completion certificates for high-scoring
// attempts. Certificates are generated locally and are not verifiable.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-client/internal/quiz"
)

// Threshold is the minimum score ratio that earns a certificate.
const Threshold = 0.7

var (
	ErrBelowThreshold = errors.New("score below certificate threshold")
	ErrDuplicate      = errors.New("certificate already exists")
	ErrNotFound       = errors.New("certificate not found")
)

type Certificate struct {
	ID              int       `json:"id"`
	CertificateID   string    `json:"certificate_id"`
	UserID          int       `json:"user_id"`
	AttemptID       int       `json:"attempt_id"`
	QuizTitle       string    `json:"quiz_title"`
	ScorePercentage int       `json:"score_percentage"`
	IssuedAt        time.Time `json:"issued_at"`
}

// Store persists issued certificates per user, newest first.
type Store interface {
	SaveCertificate(ctx context.Context, cert Certificate) error
	Certificates(ctx context.Context, userID int) ([]Certificate, error)
	DeleteCertificates(ctx context.Context, userID int) error
}

type Registry struct {
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
	store Store
	certs map[int][]Certificate
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator replaces the CERT-XXXXXXXXX id source.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

func WithStore(store Store) Option {
	return func(r *Registry) {
		r.store = store
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		now:   time.Now,
		newID: NewCertificateID,
		certs: make(map[int][]Certificate),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewCertificateID returns "CERT-" followed by nine upper-case characters.
func NewCertificateID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CERT-" + strings.ToUpper(raw[:9])
}

func (r *Registry) List(ctx context.Context, userID int) ([]Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	certs, err := r.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append([]Certificate(nil), certs...), nil
}

func (r *Registry) Find(ctx context.Context, userID int, certificateID string) (Certificate, error) {
	certs, err := r.List(ctx, userID)
	if err != nil {
		return Certificate{}, err
	}
	for _, cert := range certs {
		if strings.EqualFold(cert.CertificateID, certificateID) {
			return cert, nil
		}
	}
	return Certificate{}, fmt.Errorf("%w: %s", ErrNotFound, certificateID)
}

// Generate issues a certificate for attempt. Certificates are unique per
// (quiz title, score percentage); asking again returns the existing one with
// ErrDuplicate.
func (r *Registry) Generate(ctx context.Context, userID int, attempt quiz.Attempt, quizTitle string) (Certificate, error) {
	if attempt.ScoreRatio() < Threshold {
		return Certificate{}, fmt.Errorf("%w: %d%%", ErrBelowThreshold, attempt.ScorePercentage())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	certs, err := r.loadLocked(ctx, userID)
	if err != nil {
		return Certificate{}, err
	}
	if existing, ok := findDuplicate(certs, quizTitle, attempt.ScorePercentage()); ok {
		return existing, ErrDuplicate
	}

	cert := r.newCertificate(userID, attempt, quizTitle, r.now().UTC(), len(certs)+1)
	if r.store != nil {
		if err := r.store.SaveCertificate(ctx, cert); err != nil {
			return Certificate{}, err
		}
	}
	r.certs[userID] = append([]Certificate{cert}, certs...)
	return cert, nil
}

// Rebuild regenerates the certificate list from the attempt history, one
// certificate per qualifying (title, percentage) pair in history order.
// Existing certificate ids are kept for pairs that already had one.
func (r *Registry) Rebuild(ctx context.Context, userID int, attempts []quiz.Attempt, titleFn func(quizID int) string) ([]Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, err := r.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	rebuilt := make([]Certificate, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.ScoreRatio() < Threshold {
			continue
		}
		title := titleFn(attempt.QuizID)
		if _, ok := findDuplicate(rebuilt, title, attempt.ScorePercentage()); ok {
			continue
		}

		issuedAt := r.now().UTC()
		if attempt.FinishedAt != nil {
			issuedAt = attempt.FinishedAt.UTC()
		}
		cert := r.newCertificate(userID, attempt, title, issuedAt, len(rebuilt)+1)
		if existing, ok := findDuplicate(previous, title, attempt.ScorePercentage()); ok {
			cert.CertificateID = existing.CertificateID
		}
		rebuilt = append(rebuilt, cert)
	}

	if r.store != nil {
		if err := r.store.DeleteCertificates(ctx, userID); err != nil {
			return nil, err
		}
		// Saved oldest first so the store's newest-first order matches rebuilt.
		for idx := len(rebuilt) - 1; idx >= 0; idx-- {
			if err := r.store.SaveCertificate(ctx, rebuilt[idx]); err != nil {
				return nil, err
			}
		}
	}

	r.certs[userID] = rebuilt
	return append([]Certificate(nil), rebuilt...), nil
}

// Forget drops the in-memory copy for userID, e.g. on logout.
func (r *Registry) Forget(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.certs, userID)
}

func (r *Registry) newCertificate(userID int, attempt quiz.Attempt, title string, issuedAt time.Time, id int) Certificate {
	return Certificate{
		ID:              id,
		CertificateID:   r.newID(),
		UserID:          userID,
		AttemptID:       attempt.ID,
		QuizTitle:       title,
		ScorePercentage: attempt.ScorePercentage(),
		IssuedAt:        issuedAt,
	}
}

func (r *Registry) loadLocked(ctx context.Context, userID int) ([]Certificate, error) {
	if certs, ok := r.certs[userID]; ok {
		return certs, nil
	}

	var certs []Certificate
	if r.store != nil {
		stored, err := r.store.Certificates(ctx, userID)
		if err != nil {
			return nil, err
		}
		certs = stored
	}

	r.certs[userID] = certs
	return certs, nil
}

func findDuplicate(certs []Certificate, title string, percentage int) (Certificate, bool) {
	for _, cert := range certs {
		if cert.QuizTitle == title && cert.ScorePercentage == percentage {
			return cert, true
		}
	}
	return Certificate{}, false
}
