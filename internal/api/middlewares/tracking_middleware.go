package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/notebookbobu/backend/internal/tracking"
)

// TrackingMiddleware forwards interaction events to the analytics
// collector, fire and forget. It runs after the JWT middleware so the
// user id is already on the context; the response is written before the
// event goroutine even starts, so tracking can never delay or fail a
// request.
func TrackingMiddleware(tracker *tracking.Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tracker.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				return
			}

			go tracker.Track(tracking.Event{
				UserID:     userID,
				EventType:  eventType(r.Method, r.URL.Path),
				Path:       r.URL.Path,
				Method:     r.Method,
				StatusCode: ww.Status(),
				DurationMs: time.Since(start).Milliseconds(),
				Timestamp:  time.Now().UTC(),
			})
		})
	}
}

func eventType(method, path string) string {
	switch {
	case strings.HasSuffix(path, "/process") && method == http.MethodPost:
		if strings.Contains(path, "/documents/") {
			return "document_reprocess"
		}
		return "document_process"
	case strings.HasSuffix(path, "/search"):
		return "chunk_search"
	case strings.HasSuffix(path, "/chunks"):
		return "chunk_read"
	case method == http.MethodDelete:
		return "document_delete"
	default:
		return "document_read"
	}
}
