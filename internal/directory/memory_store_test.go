package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateUser(ctx, models.User{ID: "a", PhoneNumber: "+1"}))
	assert.True(t, errors.Is(s.CreateUser(ctx, models.User{ID: "b", PhoneNumber: "+1"}), ErrAlreadyExists))

	u, err := s.UserByPhone(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, "a", u.ID)

	u.PhoneNumber = "+2"
	require.NoError(t, s.UpdateUser(ctx, *u))
	_, err = s.UserByPhone(ctx, "+1")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.UpdateUser(ctx, models.User{ID: "zzz"}), ErrNotFound))
}

func TestMemoryStoreCourtsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddCourt(ctx, models.Court{ID: "c1", Amenities: []string{"Lights"}}))

	c, err := s.Court(ctx, "c1")
	require.NoError(t, err)
	c.Amenities[0] = "changed"

	again, err := s.Court(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lights"}, again.Amenities)
}

func TestMemoryStoreReplaceActiveCheckIn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	since := now.Add(-ActiveWindow)

	old := models.CheckIn{UserID: "u1", CourtID: "c3", Timestamp: now.Add(-24 * time.Hour)}
	recent := models.CheckIn{UserID: "u1", CourtID: "c1", Timestamp: now.Add(-time.Hour)}
	other := models.CheckIn{UserID: "u2", CourtID: "c1", Timestamp: now.Add(-time.Hour)}
	for _, ci := range []models.CheckIn{old, recent, other} {
		require.NoError(t, s.AppendCheckIn(ctx, ci))
	}

	next := models.CheckIn{UserID: "u1", CourtID: "c2", Timestamp: now}
	retired, err := s.ReplaceActiveCheckIn(ctx, next, since)
	require.NoError(t, err)
	assert.Equal(t, []models.CheckIn{recent}, retired)

	active, err := s.CheckIns(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []models.CheckIn{other, next}, active)

	all, err := s.CheckIns(ctx, time.Time{})
	require.NoError(t, err)
	assert.Contains(t, all, old)
}
