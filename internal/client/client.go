// Package client talks to the courtside HTTP API. It satisfies
// session.Directory so a CLI can drive the session store remotely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/jason-s-yu/courtside/internal/session"
	"github.com/sirupsen/logrus"
)

var _ session.Directory = (*Client)(nil)

// ErrUnauthorized is returned when the server rejects or misses the token.
var ErrUnauthorized = errors.New("not logged in")

// Client is a courtside API client. The bearer token is kept in its own slot,
// separate from the session user.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  session.Slot
	logger  logrus.FieldLogger
}

// New returns a client for baseURL that persists its token in tokens.
func New(baseURL string, tokens session.Slot, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

// WithHTTPClient swaps the underlying http.Client, e.g. for an httptest server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp", false, map[string]string{"phone_number": phone}, nil)
}

// VerifyOTP reports false, not an error, for a wrong code.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	err := c.do(ctx, http.MethodPost, "/auth/otp/verify", false, map[string]string{"phone_number": phone, "code": code}, nil)
	if errors.Is(err, directory.ErrInvalidCode) {
		return false, nil
	}
	return err == nil, err
}

func (c *Client) Login(ctx context.Context, phone string) (*models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, map[string]string{"phone_number": phone}, &resp); err != nil {
		return nil, err
	}
	return c.keepToken(ctx, resp)
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", false, req, &resp); err != nil {
		return nil, err
	}
	return c.keepToken(ctx, resp)
}

// Logout forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

func (c *Client) ListCourts(ctx context.Context, query string) ([]models.Court, error) {
	path := "/courts"
	if query != "" {
		path += "?" + url.Values{"q": {query}}.Encode()
	}
	var courts []models.Court
	if err := c.do(ctx, http.MethodGet, path, false, nil, &courts); err != nil {
		return nil, err
	}
	return courts, nil
}

// NearbyCourts lists courts by distance from origin; a nil origin lets the
// server use its default position.
func (c *Client) NearbyCourts(ctx context.Context, origin *models.Coordinate, limit int) ([]models.NearbyCourt, error) {
	q := url.Values{}
	if origin != nil {
		q.Set("lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(origin.Lng, 'f', -1, 64))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/courts/nearby"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var courts []models.NearbyCourt
	if err := c.do(ctx, http.MethodGet, path, false, nil, &courts); err != nil {
		return nil, err
	}
	return courts, nil
}

func (c *Client) Court(ctx context.Context, id string) (*models.Court, error) {
	var court models.Court
	if err := c.do(ctx, http.MethodGet, "/courts/"+url.PathEscape(id), false, nil, &court); err != nil {
		return nil, err
	}
	return &court, nil
}

func (c *Client) CourtPlayers(ctx context.Context, id string) ([]models.User, error) {
	var players []models.User
	if err := c.do(ctx, http.MethodGet, "/courts/"+url.PathEscape(id)+"/players", false, nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) Players(ctx context.Context) ([]models.User, error) {
	var players []models.User
	if err := c.do(ctx, http.MethodGet, "/players", false, nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// CheckIn checks the logged-in user in at courtID and returns the court with
// its updated player count.
func (c *Client) CheckIn(ctx context.Context, courtID string) (*models.Court, error) {
	var court models.Court
	if err := c.do(ctx, http.MethodPost, "/checkins", true, map[string]string{"court_id": courtID}, &court); err != nil {
		return nil, err
	}
	return &court, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/profile", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPatch, "/profile", true, patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) keepToken(ctx context.Context, resp authResponse) (*models.User, error) {
	if resp.Token == "" || resp.User == nil {
		return nil, errors.New("malformed auth response")
	}
	if err := c.tokens.Set(ctx, []byte(resp.Token)); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return resp.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		token, err := c.tokens.Get(ctx)
		if errors.Is(err, session.ErrEmptySlot) {
			return ErrUnauthorized
		}
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).Debug("api call")

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// statusError maps an API error status back onto the directory sentinels.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = directory.ErrNotFound
	case http.StatusConflict:
		sentinel = directory.ErrAlreadyExists
	case http.StatusUnprocessableEntity:
		sentinel = directory.ErrInvalidCode
	case http.StatusBadRequest:
		sentinel = directory.ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	default:
		return fmt.Errorf("server error: %s", msg)
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}
