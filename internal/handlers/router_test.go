package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/courtside/internal/auth"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/jason-s-yu/courtside/internal/presence"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	srv *httptest.Server
	hub *presence.Hub
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	require.NoError(t, auth.Init(0)) // ephemeral keys, no DB needed

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	store := directory.NewMemoryStore()
	require.NoError(t, directory.Seed(context.Background(), store, now))

	hub := presence.NewHub(logger, 8)
	dir := directory.NewService(store,
		directory.WithLogger(logger),
		directory.WithClock(func() time.Time { return now }),
		directory.WithPublisher(hub),
	)
	srv := httptest.NewServer(NewRouter(RouterConfig{Directory: dir, Hub: hub, Logger: logger}))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, hub: hub}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestPing(t *testing.T) {
	api := setupAPI(t)
	resp := api.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCourtsEndpoints(t *testing.T) {
	api := setupAPI(t)

	resp := api.do(t, http.MethodGet, "/courts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	courts := decode[[]models.Court](t, resp)
	require.Len(t, courts, 6)
	assert.Equal(t, 2, courts[0].PlayerCount)

	resp = api.do(t, http.MethodGet, "/courts?q=94117", "", nil)
	courts = decode[[]models.Court](t, resp)
	require.Len(t, courts, 1)
	assert.Equal(t, "c2", courts[0].ID)

	resp = api.do(t, http.MethodGet, "/courts/c3", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	court := decode[models.Court](t, resp)
	assert.Equal(t, 0, court.PlayerCount)

	resp = api.do(t, http.MethodGet, "/courts/c404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/courts/c1/players", "", nil)
	players := decode[[]models.User](t, resp)
	assert.Len(t, players, 2)

	resp = api.do(t, http.MethodGet, "/courts/c6/players", "", nil)
	assert.Equal(t, "[]\n", readBody(t, resp))
}

func TestNearbyCourts(t *testing.T) {
	api := setupAPI(t)

	resp := api.do(t, http.MethodGet, "/courts/nearby?lat=25.78&lng=-80.13&limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	near := decode[[]models.NearbyCourt](t, resp)
	require.Len(t, near, 2)
	assert.Equal(t, "c5", near[0].ID)

	// no position falls back to the default centre in New York
	resp = api.do(t, http.MethodGet, "/courts/nearby", "", nil)
	near = decode[[]models.NearbyCourt](t, resp)
	require.Len(t, near, 6)
	assert.Equal(t, "c1", near[0].ID)

	resp = api.do(t, http.MethodGet, "/courts/nearby?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	api := setupAPI(t)

	resp := api.do(t, http.MethodPost, "/auth/otp", "", map[string]string{"phone_number": "+15550103"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/auth/otp/verify", "", map[string]string{"phone_number": "+15550103", "code": "000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = api.do(t, http.MethodPost, "/auth/otp/verify", "", map[string]string{"phone_number": "+15550103", "code": directory.OTPCode})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/auth/signup", "", models.SignupRequest{Name: "Cara Diaz", PhoneNumber: "+15550103", Location: "Austin"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	signed := decode[AuthResponse](t, resp)
	assert.Equal(t, cookie.Value, signed.Token)
	assert.Equal(t, models.SkillBeginner, signed.User.SkillLevel)

	resp = api.do(t, http.MethodPost, "/auth/signup", "", models.SignupRequest{Name: "Again", PhoneNumber: "+15550103"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "+19990000000"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/auth/login", "", "{bad json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "+15550101"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logged := decode[AuthResponse](t, resp)
	assert.Equal(t, "u1", logged.User.ID)

	sub, err := auth.AuthenticateJWT(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func login(t *testing.T, api *testAPI, phone string) string {
	resp := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": phone})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[AuthResponse](t, resp).Token
}

func TestCheckIn(t *testing.T) {
	api := setupAPI(t)

	resp := api.do(t, http.MethodPost, "/checkins", "", map[string]string{"court_id": "c2"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := login(t, api, "+15550101")
	resp = api.do(t, http.MethodPost, "/checkins", token, map[string]string{"court_id": "c2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	court := decode[models.Court](t, resp)
	assert.Equal(t, "c2", court.ID)
	assert.Equal(t, 1, court.PlayerCount)

	resp = api.do(t, http.MethodGet, "/courts/c1/players", "", nil)
	assert.Len(t, decode[[]models.User](t, resp), 1)

	resp = api.do(t, http.MethodPost, "/checkins", token, map[string]string{"court_id": "c404"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/checkins", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	api := setupAPI(t)
	token := login(t, api, "+15550102")

	resp := api.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u2", decode[models.User](t, resp).ID)

	resp = api.do(t, http.MethodPatch, "/profile", token, map[string]string{"bio": "Serve and volley."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	u := decode[models.User](t, resp)
	assert.Equal(t, "Serve and volley.", u.Bio)
	assert.Equal(t, "+15550102", u.PhoneNumber)

	resp = api.do(t, http.MethodPatch, "/profile", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPatch, "/profile", token, map[string]string{"phone_number": "+1000"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPatch, "/profile", "", map[string]string{"bio": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPresenceStream(t *testing.T) {
	api := setupAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/courts/ws"
	c, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{Subprotocols: []string{PresenceSubprotocol}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	var snap presence.Message
	require.NoError(t, wsjson.Read(ctx, c, &snap))
	assert.Equal(t, presence.TypeSnapshot, snap.Type)
	assert.Equal(t, 2, snap.PlayerCounts["c1"])
	assert.Len(t, snap.PlayerCounts, 6)

	token := login(t, api, "+15550102")
	resp := api.do(t, http.MethodPost, "/checkins", token, map[string]string{"court_id": "c4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ev presence.Message
	require.NoError(t, wsjson.Read(ctx, c, &ev))
	assert.Equal(t, presence.TypeCheckIn, ev.Type)
	require.NotNil(t, ev.Event)
	assert.Equal(t, "u2", ev.Event.UserID)
	assert.Equal(t, "c1", ev.Event.PreviousCourtID)
	assert.Equal(t, 1, ev.PlayerCounts["c4"])
	assert.Equal(t, 1, ev.PlayerCounts["c1"])
}

func TestPresenceRequiresSubprotocol(t *testing.T) {
	api := setupAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/courts/ws"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	assert.Equal(t, websocket.StatusCode(BadSubprotocolError), websocket.CloseStatus(err))
}

func readBody(t *testing.T, resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
