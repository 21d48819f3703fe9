// Package middleware holds the HTTP middleware shared by the API router.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using Logrus.
// Logs the method, path, status and duration of each request.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields["request_id"] = reqID
			}
			entry := logger.WithFields(fields)
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("HTTP Request")
				return
			}
			entry.Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a message when a WebSocket client connects.
func LogWebSocketConnect(logger logrus.FieldLogger, remoteAddr string, path string) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"path":   path,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a WebSocket client disconnects.
func LogWebSocketDisconnect(logger logrus.FieldLogger, remoteAddr string, path string, err error) {
	fields := logrus.Fields{
		"remote": remoteAddr,
		"path":   path,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
