package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// OTPCode is the only one-time code the simulated SMS gateway accepts.
const OTPCode = "123456"

// ListPlayers returns the full player directory.
func (s *Service) ListPlayers(ctx context.Context) ([]models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return users, nil
}

// GetUser returns one player or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	u, err := s.store.User(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// RequestOTP pretends to text a code to phone. It always succeeds.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	if err := s.simulateLatency(ctx); err != nil {
		return err
	}
	s.logger.WithField("phone_number", phone).Debug("otp requested")
	return nil
}

// VerifyOTP reports whether code is the accepted one-time code, whatever the phone.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return false, err
	}
	return code == OTPCode, nil
}

// Login looks a user up by phone number.
func (s *Service) Login(ctx context.Context, phone string) (*models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	u, err := s.store.UserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", phone, err)
	}
	s.logger.WithField("user_id", u.ID).Info("user logged in")
	return u, nil
}

// Signup registers a new player. Missing skill level and bio get defaults.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.PhoneNumber == "" {
		return nil, fmt.Errorf("signup: name and phone number are required: %w", ErrInvalidInput)
	}
	if req.SkillLevel == "" {
		req.SkillLevel = models.SkillBeginner
	}
	if !req.SkillLevel.Valid() {
		return nil, fmt.Errorf("signup: skill level %q: %w", req.SkillLevel, ErrInvalidInput)
	}
	if req.Bio == "" {
		req.Bio = models.DefaultBio
	}

	if _, err := s.store.UserByPhone(ctx, req.PhoneNumber); err == nil {
		return nil, fmt.Errorf("signup %s: %w", req.PhoneNumber, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("signup lookup: %w", err)
	}

	existing, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	u := models.User{
		ID:          uuid.NewString(),
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		SkillLevel:  req.SkillLevel,
		Bio:         req.Bio,
		Location:    req.Location,
		JoinedAt:    s.now().UTC(),
		AvatarURL:   fmt.Sprintf("https://picsum.photos/100/100?random=%d", len(existing)+20),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("signup %s: %w", req.PhoneNumber, err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "location": u.Location}).Info("user signed up")
	return &u, nil
}

// UpdateProfile merges patch into the user's profile and returns the result.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("update profile: %v: %w", err, ErrInvalidInput)
	}

	unlock := s.userLocks.Lock(userID)
	defer unlock()

	u, err := s.store.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", userID, err)
	}
	updated := patch.Apply(*u)
	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("update profile %s: %w", userID, err)
	}
	s.logger.WithField("user_id", userID).Info("profile updated")
	return &updated, nil
}
