package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/vocabtyper/internal/models"
	"github.com/lehmann314159/vocabtyper/internal/services"
)

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 50
	maxUploadSize       = 10 << 20 // 10 MB
)

// Study modes accepted by the session endpoint. The mode only changes how the
// client quizzes; selection is the same for all of them.
var studyModes = map[string]bool{
	"english":  true,
	"japanese": true,
	"double":   true,
}

// Handler contains all HTTP handlers
type Handler struct {
	study  *services.StudyService
	words  *services.WordService
	logger logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(study *services.StudyService, words *services.WordService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		study:  study,
		words:  words,
		logger: logger,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitResultsResponse is returned after study results are applied
type SubmitResultsResponse struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// internalError logs err and writes a generic 500
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.WithError(err).WithField("path", r.URL.Path).Error(message)
	writeError(w, http.StatusInternalServerError, message)
}

// intParam parses an optional query parameter, returning def when it is absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func wordID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// GetStudySession handles GET /api/v1/study/session
func (h *Handler) GetStudySession(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "english"
	}
	if !studyModes[mode] {
		writeError(w, http.StatusBadRequest, "mode must be one of english, japanese, double")
		return
	}

	limit, err := intParam(r, "limit", defaultSessionLimit)
	if err != nil || limit < 1 || limit > maxSessionLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 50")
		return
	}

	words, err := h.study.GetStudySession(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, "failed to build study session", err)
		return
	}

	writeJSON(w, http.StatusOK, words)
}

// SubmitResults handles POST /api/v1/study/result
func (h *Handler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	var req models.StudyResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.study.SubmitResults(r.Context(), req.Results)
	if err != nil {
		h.internalError(w, r, "failed to submit results", err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitResultsResponse{
		Message:      "Results submitted successfully",
		UpdatedCount: updated,
	})
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.study.GetStats(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to get stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ListWords handles GET /api/v1/words
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip", 0)
	if err != nil || skip < 0 {
		writeError(w, http.StatusBadRequest, "invalid skip")
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	words, err := h.words.List(r.Context(), models.WordFilter{Skip: skip, Limit: limit})
	if err != nil {
		h.internalError(w, r, "failed to list words", err)
		return
	}
	if words == nil {
		words = []*models.Word{}
	}

	writeJSON(w, http.StatusOK, words)
}

// GetWord handles GET /api/v1/words/{id}
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	id, err := wordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid word ID")
		return
	}

	word, err := h.words.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrWordNotFound) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		h.internalError(w, r, "failed to get word", err)
		return
	}

	writeJSON(w, http.StatusOK, word)
}

// CreateWord handles POST /api/v1/words
func (h *Handler) CreateWord(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	word, err := h.words.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, models.ErrDuplicateWord) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(w, r, "failed to create word", err)
		return
	}

	writeJSON(w, http.StatusCreated, word)
}

// GetWordDefinition handles GET /api/v1/words/{id}/definition
func (h *Handler) GetWordDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := wordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid word ID")
		return
	}

	definition, err := h.words.GetDefinition(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrWordNotFound) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		if errors.Is(err, services.ErrDefinitionNotFound) {
			writeError(w, http.StatusNotFound, "definition not found in dictionary")
			return
		}
		h.internalError(w, r, "failed to get definition", err)
		return
	}

	writeJSON(w, http.StatusOK, definition)
}

// UploadWords handles POST /api/v1/words/upload
func (h *Handler) UploadWords(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var result *models.ImportResult
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		result, err = h.words.ImportCSV(r.Context(), file)
	case ".xlsx":
		result, err = h.words.ImportXLSX(r.Context(), file)
	default:
		writeError(w, http.StatusBadRequest, "file must be .csv or .xlsx")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file":     header.Filename,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}).Info("words uploaded")

	writeJSON(w, http.StatusOK, result)
}

// ExportWords handles GET /api/v1/words/export
func (h *Handler) ExportWords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=words.csv")

	err := h.words.ExportCSV(r.Context(), w)
	if err != nil {
		// Reset headers since we already set them
		w.Header().Set("Content-Type", "application/json")
		w.Header().Del("Content-Disposition")
		h.internalError(w, r, "failed to export words", err)
		return
	}
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vocabtyper API"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
