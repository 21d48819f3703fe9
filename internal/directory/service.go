// Package directory is the source of truth for courts, players and check-ins.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// ActiveWindow is how long a check-in counts towards a court's live presence.
const ActiveWindow = 3 * time.Hour

// Publisher receives check-in events after they are recorded.
type Publisher interface {
	PublishCheckIn(ctx context.Context, ev models.CheckInEvent) error
}

// Service implements the directory operations on top of a Store.
type Service struct {
	store      Store
	logger     *logrus.Logger
	latency    time.Duration
	now        func() time.Time
	publishers []Publisher
	userLocks  *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithLatency delays every operation by d to simulate a remote backend.
func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.latency = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher registers publishers notified after each check-in.
func WithPublisher(p ...Publisher) Option {
	return func(s *Service) { s.publishers = append(s.publishers, p...) }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logger:    logrus.StandardLogger(),
		now:       time.Now,
		userLocks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPublisher registers p after construction, e.g. once a hub is running.
func (s *Service) AddPublisher(p Publisher) {
	s.publishers = append(s.publishers, p)
}

// simulateLatency blocks for the configured latency or until ctx is done.
func (s *Service) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// keyedMutex hands out one mutex per key and frees it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
