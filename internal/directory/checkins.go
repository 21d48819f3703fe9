package directory

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// ListActiveCheckIns returns the players with an active check-in at courtID,
// one entry per check-in. Check-ins of unknown users are skipped.
func (s *Service) ListActiveCheckIns(ctx context.Context, courtID string) ([]models.User, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	active, err := s.activeCheckIns(ctx)
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	for _, ci := range active {
		if ci.CourtID != courtID {
			continue
		}
		u, err := s.store.User(ctx, ci.UserID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"user_id": ci.UserID, "court_id": courtID}).Debug("dropping check-in of unknown user")
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

// CheckIn retires the user's active check-in, wherever it is, and records a new
// one at courtID. Calls for the same user are serialized.
func (s *Service) CheckIn(ctx context.Context, userID, courtID string) error {
	if err := s.simulateLatency(ctx); err != nil {
		return err
	}

	unlock := s.userLocks.Lock(userID)
	defer unlock()

	if _, err := s.store.User(ctx, userID); err != nil {
		return fmt.Errorf("check in user %s: %w", userID, err)
	}
	if _, err := s.lookupCourt(ctx, courtID); err != nil {
		return fmt.Errorf("check in: %w", err)
	}

	now := s.now()
	ci := models.CheckIn{UserID: userID, CourtID: courtID, Timestamp: now}
	retired, err := s.store.ReplaceActiveCheckIn(ctx, ci, now.Add(-ActiveWindow))
	if err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}

	ev := models.CheckInEvent{UserID: userID, CourtID: courtID, Timestamp: now}
	for _, r := range retired {
		if r.CourtID != courtID {
			ev.PreviousCourtID = r.CourtID
		}
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"court_id": courtID,
		"retired":  len(retired),
	}).Info("user checked in")

	s.publish(ctx, ev)
	return nil
}

func (s *Service) publish(ctx context.Context, ev models.CheckInEvent) {
	if len(s.publishers) == 0 {
		return
	}
	counts, err := s.playerCounts(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("could not compute player counts for check-in event")
		return
	}
	ev.PlayerCounts = map[string]int{ev.CourtID: counts[ev.CourtID]}
	if ev.PreviousCourtID != "" {
		ev.PlayerCounts[ev.PreviousCourtID] = counts[ev.PreviousCourtID]
	}
	for _, p := range s.publishers {
		if err := p.PublishCheckIn(ctx, ev); err != nil {
			s.logger.WithError(err).WithField("court_id", ev.CourtID).Warn("failed to publish check-in")
		}
	}
}

func (s *Service) activeCheckIns(ctx context.Context) ([]models.CheckIn, error) {
	active, err := s.store.CheckIns(ctx, s.now().Add(-ActiveWindow))
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return active, nil
}

// playerCounts counts active check-ins per court. Users are not deduplicated;
// the retirement rule in CheckIn keeps them unique.
func (s *Service) playerCounts(ctx context.Context) (map[string]int, error) {
	active, err := s.activeCheckIns(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, ci := range active {
		counts[ci.CourtID]++
	}
	return counts, nil
}
