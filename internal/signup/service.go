package signup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repo persists signups. Create must wrap ErrConflict when the email is
// already present.
type Repo interface {
	Create(ctx context.Context, s *Signup) error
	List(ctx context.Context, f Filter) ([]Signup, error)
}

// Notifier is told about each stored signup. Failures never reach the
// person signing up.
type Notifier interface {
	Notify(ctx context.Context, s Signup) error
}

// DefaultNotifyTimeout bounds a single background notification.
const DefaultNotifyTimeout = 10 * time.Second

// Service validates, stores and announces signups.
type Service struct {
	repo          Repo
	notifier      Notifier
	logger        *slog.Logger
	notifyTimeout time.Duration
	now           func() time.Time

	wg sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier sets the post-write notifier.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithNotifyTimeout overrides DefaultNotifyTimeout.
func WithNotifyTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.notifyTimeout = d }
}

// NewService creates a Service over repo.
func NewService(repo Repo, opts ...ServiceOption) *Service {
	s := &Service{
		repo:          repo,
		logger:        slog.Default(),
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores a signup, then fires the notifier in the
// background. The returned error is an *InputError, wraps ErrConflict, or is
// a *PersistenceError.
func (s *Service) Submit(ctx context.Context, in Input) (*Signup, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, &InputError{Err: err}
	}

	rec := &Signup{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Email:           in.Email,
		Role:            in.Role,
		Interest:        in.Interest,
		InterestedPlans: in.InterestedPlans,
		Message:         in.Message,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Info("duplicate signup", slog.String("email", rec.Email))
			return nil, err
		}
		s.logger.Error("signup write failed", slog.String("error", err.Error()))
		return nil, &PersistenceError{Op: "create", Err: err}
	}

	s.logger.Info("signup stored",
		slog.String("id", rec.ID),
		slog.String("role", string(rec.Role)),
		slog.Int("plans", len(rec.InterestedPlans)))

	if s.notifier != nil {
		s.wg.Add(1)
		go s.notify(*rec)
	}
	return rec, nil
}

func (s *Service) notify(rec Signup) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, rec); err != nil {
		s.logger.Warn("signup notification failed",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()))
	}
}

// Wait blocks until in-flight notifications finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// List returns signups matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Signup, error) {
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

// Stats summarizes every stored signup.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(all, s.now()), nil
}
