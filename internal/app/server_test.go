package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookbobu/backend/internal/config"
	db "github.com/notebookbobu/backend/internal/core/database"
	"github.com/notebookbobu/backend/internal/core/llm"
	"github.com/notebookbobu/backend/internal/core/processing"
	"github.com/notebookbobu/backend/internal/models"
	"github.com/notebookbobu/backend/internal/services"
	"github.com/notebookbobu/backend/internal/tracking"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:        "0",
		JWTSecret:   "test-secret",
		MaxFileSize: 1 << 20,
	}
	store := db.NewMemoryStore()
	orch := processing.NewOrchestrator(store, store, nil, llm.NewFallbackAnalyzer(), false)
	svc := services.NewDocumentService(store, store, orch, nil, nil, "", cfg.MaxFileSize, models.DefaultStrategy())
	return NewServer(cfg, svc, store, tracking.NewTracker("", ""))
}

func signup(t *testing.T, router http.Handler) string {
	t.Helper()
	body := `{"first_name":"Test","email":"test@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func uploadDocument(t *testing.T, router http.Handler, token, filename, title, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func authedRequest(t *testing.T, router http.Handler, token, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	signup(t, router)

	body := `{"email":"test@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	body = `{"email":"test@example.com","password":"wrong"}`
	req = httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	token := signup(t, router)

	rec := uploadDocument(t, router, token, "notes.txt", "My Notes", strings.Repeat("insightful text ", 100))
	require.Equal(t, http.StatusOK, rec.Code)

	var processed struct {
		DocumentID string `json:"document_id"`
		Status     string `json:"status"`
		Summary    string `json:"summary"`
		ChunkCount int    `json:"chunk_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &processed))
	assert.Equal(t, "processed", processed.Status)
	assert.NotEmpty(t, processed.Summary)
	assert.True(t, processed.ChunkCount > 0)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/documents/"+processed.DocumentID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/documents")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = authedRequest(t, router, token, http.MethodGet, fmt.Sprintf("/api/v2/documents/%s/chunks", processed.DocumentID))
	require.Equal(t, http.StatusOK, rec.Code)
	var chunks struct {
		ChunkCount int `json:"chunk_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chunks))
	assert.Equal(t, processed.ChunkCount, chunks.ChunkCount)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/search?q=insightful")
	require.Equal(t, http.StatusOK, rec.Code)
	var search struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &search))
	assert.True(t, search.Count > 0)

	rec = authedRequest(t, router, token, http.MethodPost, fmt.Sprintf("/api/v2/documents/%s/process", processed.DocumentID))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = authedRequest(t, router, token, http.MethodDelete, "/api/v2/documents/"+processed.DocumentID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/documents/"+processed.DocumentID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	token := signup(t, router)

	rec := uploadDocument(t, router, token, "virus.exe", "Bad", "payload")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/search?q=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = authedRequest(t, router, token, http.MethodGet, "/api/v2/documents/no-such-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFailedProcessingReturns422(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	token := signup(t, router)

	rec := uploadDocument(t, router, token, "broken.txt", "Broken", string([]byte{0xff, 0xfe}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.NotEmpty(t, resp.Error)
}
