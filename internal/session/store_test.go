package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSlot fails every write.
type brokenSlot struct{ MemorySlot }

func (b *brokenSlot) Set(ctx context.Context, data []byte) error {
	return errors.New("disk full")
}

func setupStore(t *testing.T, slot Slot) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dirStore := directory.NewMemoryStore()
	require.NoError(t, directory.Seed(context.Background(), dirStore, time.Now()))
	svc := directory.NewService(dirStore, directory.WithLogger(logger))
	return NewStore(svc, slot, logger)
}

func TestRestoreWithoutPersistedUser(t *testing.T) {
	s := setupStore(t, &MemorySlot{})
	assert.True(t, s.State().IsLoading)

	st := s.Restore(context.Background())
	assert.False(t, st.IsLoading)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
}

func TestRestorePersistedUser(t *testing.T) {
	slot := &MemorySlot{}
	data, err := json.Marshal(models.User{ID: "u1", Name: "Alice Williams", PhoneNumber: "+15550101"})
	require.NoError(t, err)
	require.NoError(t, slot.Set(context.Background(), data))

	st := setupStore(t, slot).Restore(context.Background())
	assert.False(t, st.IsLoading)
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "u1", st.User.ID)
}

func TestRestoreMalformedUser(t *testing.T) {
	ctx := context.Background()
	slot := &MemorySlot{}
	require.NoError(t, slot.Set(ctx, []byte("{not json")))

	st := setupStore(t, slot).Restore(ctx)
	assert.False(t, st.IsLoading)
	assert.False(t, st.IsAuthenticated)

	_, err := slot.Get(ctx)
	assert.True(t, errors.Is(err, ErrEmptySlot))
}

func TestRestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	slot := &MemorySlot{}
	s := setupStore(t, slot)
	s.Restore(ctx)

	data, _ := json.Marshal(models.User{ID: "u2"})
	require.NoError(t, slot.Set(ctx, data))
	st := s.Restore(ctx)
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
}

func TestLoginPersistsUser(t *testing.T) {
	ctx := context.Background()
	slot := &MemorySlot{}
	s := setupStore(t, slot)
	s.Restore(ctx)

	require.NoError(t, s.Login(ctx, "+15550101"))
	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "u1", st.User.ID)

	data, err := slot.Get(ctx)
	require.NoError(t, err)
	var persisted models.User
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, *st.User, persisted)
}

func TestFailedLoginKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, &MemorySlot{})
	s.Restore(ctx)
	require.NoError(t, s.Login(ctx, "+15550102"))

	err := s.Login(ctx, "+10000000000")
	assert.True(t, errors.Is(err, directory.ErrNotFound))
	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "u2", st.User.ID)

	fresh := setupStore(t, &MemorySlot{})
	fresh.Restore(ctx)
	require.Error(t, fresh.Login(ctx, "+10000000000"))
	assert.False(t, fresh.State().IsAuthenticated)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, &MemorySlot{})
	s.Restore(ctx)

	err := s.Signup(ctx, "Bob Again", "+15550102", "SF")
	assert.True(t, errors.Is(err, directory.ErrAlreadyExists))
	assert.False(t, s.State().IsAuthenticated)

	require.NoError(t, s.Signup(ctx, "Cara Diaz", "+15550103", "Austin"))
	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, models.SkillBeginner, st.User.SkillLevel)
	assert.Equal(t, models.DefaultBio, st.User.Bio)
	assert.Equal(t, "Austin", st.User.Location)
}

func TestPersistFailureDoesNotAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, &brokenSlot{})
	s.Restore(ctx)

	require.Error(t, s.Login(ctx, "+15550101"))
	assert.False(t, s.State().IsAuthenticated)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	slot := &MemorySlot{}
	s := setupStore(t, slot)
	s.Restore(ctx)
	require.NoError(t, s.Login(ctx, "+15550101"))

	require.NoError(t, s.Logout(ctx))
	st := s.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	_, err := slot.Get(ctx)
	assert.True(t, errors.Is(err, ErrEmptySlot))
}

func TestUpdateUserKeepsAuthFlag(t *testing.T) {
	ctx := context.Background()
	slot := &MemorySlot{}
	s := setupStore(t, slot)
	s.Restore(ctx)
	require.NoError(t, s.Login(ctx, "+15550101"))

	u := *s.State().User
	u.Bio = "edited"
	require.NoError(t, s.UpdateUser(ctx, u))
	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "edited", st.User.Bio)

	data, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edited")

	// mutating the returned copy does not leak into the store
	st.User.Bio = "leaked"
	assert.Equal(t, "edited", s.State().User.Bio)
}

func TestFileSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewFileSlot(filepath.Join(t.TempDir(), "nested", "session.json"))

	_, err := slot.Get(ctx)
	assert.True(t, errors.Is(err, ErrEmptySlot))

	require.NoError(t, slot.Set(ctx, []byte(`{"id":"u1"}`)))
	data, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, string(data))

	require.NoError(t, slot.Clear(ctx))
	require.NoError(t, slot.Clear(ctx))
	_, err = slot.Get(ctx)
	assert.True(t, errors.Is(err, ErrEmptySlot))
}
