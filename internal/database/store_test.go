package database

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore connects to TEST_DATABASE_URL and empties every table.
func setupStore(t *testing.T) (*Store, *HistoryWriter) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE checkins, checkin_history, discovered_courts, courts, users RESTART IDENTITY`)
	require.NoError(t, err)
	return NewStore(pool), NewHistoryWriter(pool)
}

func TestSeedAndCounts(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, directory.Seed(ctx, store, now))
	require.NoError(t, directory.Seed(ctx, store, now), "seeding twice is harmless")

	courts, err := store.Courts(ctx)
	require.NoError(t, err)
	require.Len(t, courts, 6)
	assert.Equal(t, "c1", courts[0].ID)
	assert.NotEmpty(t, courts[0].Amenities)

	svc := directory.NewService(store, directory.WithClock(func() time.Time { return now }))
	players, err := svc.ListActiveCheckIns(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, players, 2)
}

func TestUsers(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	u := models.User{ID: "x1", Name: "Dee", PhoneNumber: "+1999", SkillLevel: models.SkillPro, JoinedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.ErrorIs(t, store.CreateUser(ctx, models.User{ID: "x2", PhoneNumber: "+1999", JoinedAt: time.Now()}), directory.ErrAlreadyExists)

	got, err := store.UserByPhone(ctx, "+1999")
	require.NoError(t, err)
	assert.Equal(t, "x1", got.ID)
	assert.Equal(t, models.SkillPro, got.SkillLevel)

	u.Bio = "lefty"
	require.NoError(t, store.UpdateUser(ctx, u))
	got, err = store.User(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, "lefty", got.Bio)

	_, err = store.User(ctx, "nope")
	assert.ErrorIs(t, err, directory.ErrNotFound)
	assert.ErrorIs(t, store.UpdateUser(ctx, models.User{ID: "nope"}), directory.ErrNotFound)
}

func TestDiscoveredCourts(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	c := models.Court{ID: "discovered-abc", Name: "Local Court", Address: "10001", SurfaceType: models.SurfaceHard, PlayerCount: 3}
	require.NoError(t, store.SaveDiscoveredCourt(ctx, c))

	got, err := store.DiscoveredCourt(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Discovered)
	assert.Equal(t, 3, got.PlayerCount)

	_, err = store.Court(ctx, c.ID)
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestReplaceActiveCheckInConcurrent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, directory.Seed(ctx, store, time.Now()))

	since := time.Now().Add(-directory.ActiveWindow)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			court := []string{"c2", "c3"}[i%2]
			_, err := store.ReplaceActiveCheckIn(ctx, models.CheckIn{UserID: "u1", CourtID: court, Timestamp: time.Now()}, since)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	active, err := store.CheckIns(ctx, since)
	require.NoError(t, err)
	var mine int
	for _, ci := range active {
		if ci.UserID == "u1" {
			mine++
		}
	}
	assert.Equal(t, 1, mine)
}

func TestHistoryWriter(t *testing.T) {
	_, history := setupStore(t)
	ctx := context.Background()
	require.NoError(t, history.WriteEvents(ctx, nil))
	require.NoError(t, history.WriteEvents(ctx, []models.CheckInEvent{
		{UserID: "u1", CourtID: "c2", PreviousCourtID: "c1", Timestamp: time.Now(), PlayerCounts: map[string]int{"c1": 1, "c2": 1}},
		{UserID: "u2", CourtID: "c2", Timestamp: time.Now(), PlayerCounts: map[string]int{"c2": 2}},
	}))

	var n int
	require.NoError(t, history.pool.QueryRow(ctx, `SELECT COUNT(*) FROM checkin_history`).Scan(&n))
	assert.Equal(t, 2, n)
}
