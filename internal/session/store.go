// Package session tracks the authenticated player of a client and persists it
// across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// Directory is the subset of the directory service the session depends on.
type Directory interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (bool, error)
	Login(ctx context.Context, phone string) (*models.User, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
}

// Store holds the current session. The zero value is not usable; see NewStore.
type Store struct {
	dir    Directory
	slot   Slot
	logger *logrus.Logger

	mu      sync.RWMutex
	state   models.Session
	restore sync.Once
}

// NewStore returns a Store in the loading state. Call Restore before use.
func NewStore(dir Directory, slot Slot, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		dir:    dir,
		slot:   slot,
		logger: logger,
		state:  models.Session{IsLoading: true},
	}
}

// Restore loads the persisted user, if any. Only the first call reads the
// slot; the loading flag is cleared exactly once whatever the outcome.
func (s *Store) Restore(ctx context.Context) models.Session {
	s.restore.Do(func() {
		var restored *models.User
		data, err := s.slot.Get(ctx)
		switch {
		case errors.Is(err, ErrEmptySlot):
		case err != nil:
			s.logger.WithError(err).Warn("could not read persisted session")
		default:
			var u models.User
			if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
				s.logger.WithError(err).Warn("discarding malformed persisted session")
				if err := s.slot.Clear(ctx); err != nil {
					s.logger.WithError(err).Warn("could not clear malformed session")
				}
			} else {
				restored = &u
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = models.Session{User: restored, IsAuthenticated: restored != nil}
		if restored != nil {
			s.logger.WithField("user_id", restored.ID).Debug("session restored")
		}
	})
	return s.State()
}

// State returns a copy of the current session.
func (s *Store) State() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// RequestOTP asks the directory to send a one-time code to phone.
func (s *Store) RequestOTP(ctx context.Context, phone string) error {
	return s.dir.RequestOTP(ctx, phone)
}

// VerifyOTP checks a one-time code without touching the session.
func (s *Store) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	return s.dir.VerifyOTP(ctx, phone, code)
}

// Login authenticates as the user registered under phone. On failure the
// session is left as it was.
func (s *Store) Login(ctx context.Context, phone string) error {
	u, err := s.dir.Login(ctx, phone)
	if err != nil {
		return err
	}
	return s.authenticate(ctx, u)
}

// Signup registers a new player with default skill level and bio, then
// authenticates as them.
func (s *Store) Signup(ctx context.Context, name, phone, location string) error {
	u, err := s.dir.Signup(ctx, models.SignupRequest{
		Name:        name,
		PhoneNumber: phone,
		Location:    location,
		SkillLevel:  models.SkillBeginner,
		Bio:         models.DefaultBio,
	})
	if err != nil {
		return err
	}
	return s.authenticate(ctx, u)
}

// Logout clears the persisted user and the in-memory session.
func (s *Store) Logout(ctx context.Context) error {
	err := s.slot.Clear(ctx)

	s.mu.Lock()
	s.state = models.Session{}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateUser replaces the session user, e.g. after a profile edit. The
// authentication flag is not changed.
func (s *Store) UpdateUser(ctx context.Context, u models.User) error {
	if err := s.persist(ctx, u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = &u
	return nil
}

func (s *Store) authenticate(ctx context.Context, u *models.User) error {
	if err := s.persist(ctx, *u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := *u
	s.state = models.Session{User: &user, IsAuthenticated: true}
	s.logger.WithField("user_id", u.ID).Info("session authenticated")
	return nil
}

func (s *Store) persist(ctx context.Context, u models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.slot.Set(ctx, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
