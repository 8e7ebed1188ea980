package tracking

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is one user interaction forwarded to the intelligence
// collector. EngagementDelta is the score nudge the collector applies
// to the user's engagement profile.
type Event struct {
	UserID          string    `json:"user_id"`
	EventType       string    `json:"event_type"`
	Path            string    `json:"path"`
	Method          string    `json:"method"`
	StatusCode      int       `json:"status_code"`
	DurationMs      int64     `json:"duration_ms"`
	EngagementDelta int       `json:"engagement_delta"`
	Timestamp       time.Time `json:"timestamp"`
}

// Tracker posts interaction events to an external analytics collector.
// Strictly best effort: unordered, no retry, and a failure is logged
// and swallowed so it can never block or fail the request path.
type Tracker struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *logrus.Entry
}

func NewTracker(endpoint, apiKey string) *Tracker {
	return &Tracker{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logrus.WithField("component", "tracking"),
	}
}

// Enabled reports whether a collector endpoint is configured.
func (t *Tracker) Enabled() bool { return t.endpoint != "" }

// Track delivers one event synchronously; callers run it in its own
// goroutine. Any failure is swallowed after a debug log.
func (t *Tracker) Track(event Event) {
	if !t.Enabled() {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.EngagementDelta = engagementDelta(event)

	body, err := json.Marshal(event)
	if err != nil {
		t.log.WithField("error", err.Error()).Debug("event marshal failed")
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.log.WithField("error", err.Error()).Debug("event request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.WithField("error", err.Error()).Debug("event delivery failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		t.log.WithField("status", resp.StatusCode).Debug("collector rejected event")
	}
}

// engagementDelta weights interactions the way the intelligence system
// scores them: processing work counts most, retrieval less.
func engagementDelta(e Event) int {
	if e.StatusCode >= 400 {
		return 0
	}
	switch e.EventType {
	case "document_process", "document_reprocess":
		return 5
	case "chunk_search":
		return 2
	default:
		return 1
	}
}
