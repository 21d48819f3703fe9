package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/courtside/internal/auth"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/handlers"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/jason-s-yu/courtside/internal/presence"
	"github.com/jason-s-yu/courtside/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*Client, *session.MemorySlot) {
	t.Helper()
	require.NoError(t, auth.Init(0))
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := directory.NewMemoryStore()
	require.NoError(t, directory.Seed(context.Background(), store, time.Now()))
	dir := directory.NewService(store, directory.WithLogger(logger))
	srv := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Directory: dir,
		Hub:       presence.NewHub(logger, 4),
		Logger:    logger,
	}))
	t.Cleanup(srv.Close)

	tokens := &session.MemorySlot{}
	return New(srv.URL, tokens, logger).WithHTTPClient(srv.Client()), tokens
}

func TestSessionOverClient(t *testing.T) {
	c, tokens := setupClient(t)
	ctx := context.Background()

	s := session.NewStore(c, &session.MemorySlot{}, nil)
	s.Restore(ctx)

	require.NoError(t, s.RequestOTP(ctx, "+15550103"))
	ok, err := s.VerifyOTP(ctx, "+15550103", "999999")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.VerifyOTP(ctx, "+15550103", directory.OTPCode)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Signup(ctx, "Cara Diaz", "+15550103", "Austin"))
	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, models.DefaultBio, st.User.Bio)

	tok, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	err = s.Signup(ctx, "Cara Again", "+15550103", "")
	assert.ErrorIs(t, err, directory.ErrAlreadyExists)

	err = s.Login(ctx, "+10000000000")
	assert.ErrorIs(t, err, directory.ErrNotFound)
	assert.Equal(t, st.User.ID, s.State().User.ID)
}

func TestCourtCalls(t *testing.T) {
	c, _ := setupClient(t)
	ctx := context.Background()

	courts, err := c.ListCourts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, courts, 6)

	courts, err = c.ListCourts(ctx, "tennis center")
	require.NoError(t, err)
	assert.Len(t, courts, 2)

	court, err := c.Court(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, court.PlayerCount)

	_, err = c.Court(ctx, "c404")
	assert.ErrorIs(t, err, directory.ErrNotFound)

	near, err := c.NearbyCourts(ctx, &models.Coordinate{Lat: 51.4, Lng: -0.2}, 1)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "c4", near[0].ID)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2)
}

func TestAuthenticatedCalls(t *testing.T) {
	c, _ := setupClient(t)
	ctx := context.Background()

	_, err := c.CheckIn(ctx, "c2")
	assert.ErrorIs(t, err, ErrUnauthorized)

	u, err := c.Login(ctx, "+15550102")
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	court, err := c.CheckIn(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, court.PlayerCount)

	players, err := c.CourtPlayers(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, players, 1)

	bio := "Doubles only."
	u, err = c.UpdateProfile(ctx, models.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, u.Bio)

	skill := models.SkillLevel("Wizard")
	_, err = c.UpdateProfile(ctx, models.ProfilePatch{SkillLevel: &skill})
	assert.ErrorIs(t, err, directory.ErrInvalidInput)

	me, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, bio, me.Bio)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Profile(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
