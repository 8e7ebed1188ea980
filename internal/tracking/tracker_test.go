package tracking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerDisabledWithoutEndpoint(t *testing.T) {
	tracker := NewTracker("", "key")
	assert.False(t, tracker.Enabled())

	// Must be a no-op, not a panic or a network call.
	tracker.Track(Event{UserID: "u1", EventType: "document_read"})
}

func TestTrackerDeliversEvent(t *testing.T) {
	var received Event
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tracker := NewTracker(srv.URL, "secret-key")
	tracker.Track(Event{
		UserID:     "u1",
		EventType:  "document_process",
		Path:       "/api/v2/process",
		Method:     http.MethodPost,
		StatusCode: 200,
		DurationMs: 42,
	})

	assert.Equal(t, "secret-key", apiKey)
	assert.Equal(t, "u1", received.UserID)
	assert.Equal(t, "document_process", received.EventType)
	assert.Equal(t, 5, received.EngagementDelta)
	assert.False(t, received.Timestamp.IsZero())
}

func TestTrackerSwallowsDeliveryFailure(t *testing.T) {
	// Endpoint nobody listens on: Track must return without error.
	tracker := NewTracker("http://127.0.0.1:1/events", "")
	tracker.Track(Event{UserID: "u1", EventType: "chunk_search", StatusCode: 200})
}

func TestEngagementDelta(t *testing.T) {
	assert.Equal(t, 0, engagementDelta(Event{EventType: "document_process", StatusCode: 500}))
	assert.Equal(t, 5, engagementDelta(Event{EventType: "document_reprocess", StatusCode: 200}))
	assert.Equal(t, 2, engagementDelta(Event{EventType: "chunk_search", StatusCode: 200}))
	assert.Equal(t, 1, engagementDelta(Event{EventType: "document_read", StatusCode: 200}))
}
