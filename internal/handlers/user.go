package handlers

import (
	"fmt"
	"net/http"

	"github.com/jason-s-yu/courtside/internal/auth"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

type otpRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code,omitempty"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// AuthResponse is returned by login and signup. The token is also sent via
// the auth_token cookie.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RequestOTPHandler serves POST /auth/otp.
//
// Request payload:
//
//	{
//	  "phone_number": "+15550101"
//	}
func RequestOTPHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := dir.RequestOTP(r.Context(), req.PhoneNumber); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// VerifyOTPHandler serves POST /auth/otp/verify. A wrong code answers 422.
//
// Request payload:
//
//	{
//	  "phone_number": "+15550101",
//	  "code": "123456"
//	}
func VerifyOTPHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		ok, err := dir.VerifyOTP(r.Context(), req.PhoneNumber, req.Code)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if !ok {
			writeError(w, logger, directory.ErrInvalidCode)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	}
}

// LoginHandler serves POST /auth/login. It returns a JSON response with an
// authentication token when the phone number belongs to a player.
//
// Request payload:
//
//	{
//	  "phone_number": "+15550101"
//	}
//
// Response payload:
//
//	{
//	  "token": "{jwt}",
//	  "user": {...}
//	}
func LoginHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		u, err := dir.Login(r.Context(), req.PhoneNumber)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		issueToken(w, logger, u, http.StatusOK)
	}
}

// SignupHandler serves POST /auth/signup.
//
// Request payload:
//
//	{
//	  "name": "Cara Diaz",
//	  "phone_number": "+15550103",
//	  "location": "Austin, TX"
//	}
func SignupHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SignupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		u, err := dir.Signup(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		issueToken(w, logger, u, http.StatusCreated)
	}
}

func issueToken(w http.ResponseWriter, logger logrus.FieldLogger, u *models.User, status int) {
	token, err := auth.CreateJWT(u.ID)
	if err != nil {
		writeError(w, logger, fmt.Errorf("create token: %w", err))
		return
	}
	auth.SetCookie(w, token)
	writeJSON(w, status, AuthResponse{Token: token, User: u})
}
