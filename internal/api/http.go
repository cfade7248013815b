package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
)

// HTTPServer exposes the catalog as a JSON API
type HTTPServer struct {
	store  *catalog.Store
	logger *zap.Logger
}

// NewHTTPServer creates a new HTTP API over store
func NewHTTPServer(store *catalog.Store, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers the API routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/books", hs.handleBooks)
	mux.HandleFunc("/api/books/", hs.handleBook)
}

// CreateBookRequest represents the request body for adding a book
type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// ViewResponse is the rendered catalog view
type ViewResponse struct {
	Books        []models.Book `json:"books"`
	Query        string        `json:"query"`
	Total        int           `json:"total"`
	Matched      int           `json:"matched"`
	Summary      string        `json:"summary"`
	EmptyMessage string        `json:"empty_message,omitempty"`
}

// NewViewResponse renders view for the wire
func NewViewResponse(view catalog.View) ViewResponse {
	return ViewResponse{
		Books:        view.Books,
		Query:        view.Query,
		Total:        view.Total,
		Matched:      view.Matched,
		Summary:      view.Summary(),
		EmptyMessage: view.EmptyMessage(),
	}
}

// RemoveResponse reports the outcome of a delete
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// handleBooks lists (GET) or adds (POST) books
func (hs *HTTPServer) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hs.handleList(w, r)
	case http.MethodPost:
		hs.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleList renders the catalog filtered by the author query parameter
func (hs *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewViewResponse(hs.store.View(r.URL.Query().Get("author"))))
}

// handleCreate adds a new book
func (hs *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		hs.logger.Warn("Failed to decode request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := hs.store.Add(r.Context(), req.Title, req.Author)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		hs.logger.Error("Failed to add book",
			zap.Error(err),
			zap.String("title", req.Title),
			zap.String("author", req.Author),
		)
		writeError(w, http.StatusInternalServerError, "Failed to add book")
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// handleBook removes a single book by id
func (hs *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/books/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	removed, err := hs.store.Remove(r.Context(), id)
	if err != nil {
		hs.logger.Error("Failed to remove book", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "Failed to remove book")
		return
	}

	writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
