package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/request"
	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/response"
	"github.com/er-ebrahimi/architecture-ai/internal/ranking"
	"github.com/er-ebrahimi/architecture-ai/internal/repository"
	"github.com/er-ebrahimi/architecture-ai/internal/usecase"
	"github.com/er-ebrahimi/architecture-ai/internal/vision"
)

// maxUploadBytes bounds the multipart form memory; the acquirer enforces the
// actual image size cap.
const maxUploadBytes = 11 << 20

type Handler struct {
	ingester usecase.Ingester
	searcher usecase.Searcher
}

func NewHandler(ingester usecase.Ingester, searcher usecase.Searcher) *Handler {
	return &Handler{
		ingester: ingester,
		searcher: searcher,
	}
}

// HandleAddProduct ingests a product from its source URL and image URL.
func (h *Handler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req request.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SourceURL == "" || req.ImageURL == "" {
		h.writeJSONError(w, "source_url and image_url are required", http.StatusBadRequest)
		return
	}

	result, err := h.ingester.Ingest(r.Context(), req.SourceURL, req.ImageURL)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, response.AddProductResponse{
		Status:        "success",
		ProductID:     result.ProductID,
		ImageFilename: result.ImageFilename,
		ImageURL:      result.ImageURL,
		Features:      result.Features,
	})
}

// HandleSearch runs a similarity query. The query image arrives either as a
// JSON body with an image_url or as a multipart upload with an "image" file.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var (
		result *usecase.SearchResult
		err    error
	)

	if isMultipart(r) {
		result, err = h.searchFromUpload(r)
	} else {
		result, err = h.searchFromJSON(r)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	matches := make([]response.ProductMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, response.ProductMatch{
			ID:            m.Product.ID,
			SourceURL:     m.Product.SourceURL,
			ImageFilename: m.Product.ImageFilename,
			ImageURL:      m.ImageURL,
			Score:         m.Score,
			Features:      m.Product.Features,
			CreatedAt:     m.Product.CreatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, response.SearchResponse{
		Status:          "success",
		QueryFeatures:   result.QueryFeatures,
		QueryTags:       result.QueryTags,
		Results:         matches,
		TotalCandidates: result.TotalCandidates,
	})
}

func (h *Handler) searchFromJSON(r *http.Request) (*usecase.SearchResult, error) {
	var req request.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errBadRequest("Invalid request body")
	}
	if req.ImageURL == "" {
		return nil, errBadRequest("image_url is required")
	}
	return h.searcher.SearchByURL(r.Context(), req.ImageURL, usecase.SearchOptions{
		Limit:       req.Limit,
		IncludeZero: req.IncludeZero,
	})
}

func (h *Handler) searchFromUpload(r *http.Request) (*usecase.SearchResult, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errBadRequest("Invalid multipart form")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, errBadRequest("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errBadRequest("Could not read uploaded image")
	}

	opts := usecase.SearchOptions{
		IncludeZero: r.FormValue("include_zero") == "true",
	}
	if raw := r.FormValue("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errBadRequest("limit must be an integer")
		}
		opts.Limit = limit
	}

	return h.searcher.SearchByUpload(r.Context(), data, header.Header.Get("Content-Type"), opts)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// badRequestError marks request-shape problems detected in the handler
// itself, before any use case runs.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

// writeDomainError maps domain errors onto HTTP statuses: acquisition and
// validation failures are the client's fault, provider exhaustion is a
// service fault, everything else is internal.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var badReq *badRequestError
	var allFailed *vision.AllProvidersError

	switch {
	case errors.As(err, &badReq):
		h.writeJSONError(w, badReq.msg, http.StatusBadRequest)
	case errors.Is(err, acquirer.ErrInvalidSource),
		errors.Is(err, acquirer.ErrUnsupportedFormat),
		errors.Is(err, acquirer.ErrTooLarge),
		errors.Is(err, acquirer.ErrTimeout),
		errors.Is(err, acquirer.ErrNetwork),
		errors.Is(err, ranking.ErrInvalidLimit):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrDuplicateProduct):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &allFailed):
		slog.Error("All extraction providers failed", "path", r.URL.Path, "error", err)
		h.writeJSONError(w, "Image analysis is currently unavailable", http.StatusBadGateway)
	default:
		slog.Error("Request failed", "path", r.URL.Path, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func isMultipart(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return len(ct) >= 19 && ct[:19] == "multipart/form-data"
}
