package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	middleware "github.com/notebookbobu/backend/internal/api/middlewares"
	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
	"github.com/notebookbobu/backend/internal/services"
)

// DocumentHandler exposes the document pipeline over HTTP. Every route
// requires the JWT middleware so the owner id is always on the context.
type DocumentHandler struct {
	svc *services.DocumentService
	log *logrus.Entry
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		svc: svc,
		log: logrus.WithField("component", "document_handler"),
	}
}

// processResponse is the shape returned for a completed (or failed)
// processing run.
type processResponse struct {
	DocumentID     string   `json:"document_id"`
	Title          string   `json:"title"`
	Status         string   `json:"status"`
	Summary        string   `json:"summary,omitempty"`
	KeyPoints      []string `json:"key_points,omitempty"`
	ChunkCount     int      `json:"chunk_count"`
	FileSize       int64    `json:"file_size"`
	ProcessingTime any      `json:"processing_time,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func newProcessResponse(doc *models.Document) processResponse {
	resp := processResponse{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Status:     string(doc.Status),
		Summary:    doc.ProcessedContent,
		ChunkCount: doc.ChunkCount,
		FileSize:   doc.Size,
	}
	if doc.Status == models.StatusFailed {
		resp.Error = doc.StatusMessage
	}
	if doc.Metadata != nil {
		if kp, ok := doc.Metadata["key_points"].([]string); ok {
			resp.KeyPoints = kp
		}
		resp.ProcessingTime = doc.Metadata["processing_time"]
	}
	return resp
}

// ProcessDocument accepts a multipart upload and runs the full pipeline
// synchronously: the response carries the terminal document state.
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &core.ValidationError{Msg: "multipart field \"file\" is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, &core.ValidationError{Msg: "could not read uploaded file"})
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	doc, err := h.svc.Process(r.Context(), userID, header.Filename, title, content)
	if err != nil {
		// A processing failure still carries the persisted failed
		// document; the payload tells the client what happened.
		var procErr *core.ProcessingError
		if errors.As(err, &procErr) && doc != nil {
			writeJSON(w, http.StatusUnprocessableEntity, newProcessResponse(doc))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newProcessResponse(doc))
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.svc.Get(r.Context(), documentID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.svc.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
		"offset":    offset,
	})
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	documentID := chi.URLParam(r, "documentID")

	deleted, err := h.svc.Delete(r.Context(), documentID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, &core.NotFoundError{Resource: "document", ID: documentID})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "document_id": documentID})
}

func (h *DocumentHandler) GetChunks(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	documentID := chi.URLParam(r, "documentID")

	chunks, err := h.svc.ListChunks(r.Context(), documentID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if chunks == nil {
		chunks = []models.DocumentChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": documentID,
		"chunk_count": len(chunks),
		"chunks":      chunks,
	})
}

func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.svc.Search(r.Context(), query, userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []models.DocumentChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// Reprocess re-runs the pipeline for an existing document.
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.svc.Reprocess(r.Context(), documentID, userID)
	if err != nil {
		var procErr *core.ProcessingError
		if errors.As(err, &procErr) && doc != nil {
			writeJSON(w, http.StatusUnprocessableEntity, newProcessResponse(doc))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProcessResponse(doc))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithField("error", err.Error()).Error("response encoding failed")
	}
}

// writeError maps the shared error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500 with a generic message; internal error
// text never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		conflict   *core.ConflictError
		processing *core.ProcessingError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Msg})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": conflict.Error()})
	case errors.As(err, &processing):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": processing.Error()})
	default:
		logrus.WithField("error", err.Error()).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
