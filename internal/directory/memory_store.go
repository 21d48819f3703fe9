package directory

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
)

// MemoryStore keeps the directory in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	courtOrder []string
	courts     map[string]models.Court
	discovered map[string]models.Court
	userOrder  []string
	users      map[string]models.User
	phones     map[string]string // phone number -> user id
	checkIns   []models.CheckIn
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courts:     make(map[string]models.Court),
		discovered: make(map[string]models.Court),
		users:      make(map[string]models.User),
		phones:     make(map[string]string),
	}
}

func (s *MemoryStore) Courts(ctx context.Context) ([]models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Court, 0, len(s.courtOrder))
	for _, id := range s.courtOrder {
		out = append(out, cloneCourt(s.courts[id]))
	}
	return out, nil
}

func (s *MemoryStore) Court(ctx context.Context, id string) (*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneCourt(c)
	return &c, nil
}

// AddCourt inserts or replaces a catalogue court.
func (s *MemoryStore) AddCourt(ctx context.Context, c models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.courts[c.ID]; !exists {
		s.courtOrder = append(s.courtOrder, c.ID)
	}
	s.courts[c.ID] = cloneCourt(c)
	return nil
}

func (s *MemoryStore) SaveDiscoveredCourt(ctx context.Context, c models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered[c.ID] = cloneCourt(c)
	return nil
}

func (s *MemoryStore) DiscoveredCourt(ctx context.Context, id string) (*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.discovered[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneCourt(c)
	return &c, nil
}

func (s *MemoryStore) Users(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *MemoryStore) User(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.phones[phone]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.phones[u.PhoneNumber]; taken {
		return ErrAlreadyExists
	}
	if _, taken := s.users[u.ID]; taken {
		return ErrAlreadyExists
	}
	s.users[u.ID] = u
	s.phones[u.PhoneNumber] = u.ID
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if old.PhoneNumber != u.PhoneNumber {
		if owner, taken := s.phones[u.PhoneNumber]; taken && owner != u.ID {
			return ErrAlreadyExists
		}
		delete(s.phones, old.PhoneNumber)
		s.phones[u.PhoneNumber] = u.ID
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) CheckIns(ctx context.Context, since time.Time) ([]models.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CheckIn
	for _, ci := range s.checkIns {
		if ci.Timestamp.After(since) {
			out = append(out, ci)
		}
	}
	return out, nil
}

func (s *MemoryStore) AppendCheckIn(ctx context.Context, ci models.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkIns = append(s.checkIns, ci)
	return nil
}

func (s *MemoryStore) ReplaceActiveCheckIn(ctx context.Context, ci models.CheckIn, since time.Time) ([]models.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var retired []models.CheckIn
	kept := s.checkIns[:0]
	for _, existing := range s.checkIns {
		if existing.UserID == ci.UserID && existing.Timestamp.After(since) {
			retired = append(retired, existing)
			continue
		}
		kept = append(kept, existing)
	}
	s.checkIns = append(kept, ci)
	return retired, nil
}

func cloneCourt(c models.Court) models.Court {
	if c.Amenities != nil {
		c.Amenities = append([]string(nil), c.Amenities...)
	}
	return c
}
