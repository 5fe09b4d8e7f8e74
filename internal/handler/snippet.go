package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/auth"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
	"github.com/sakif/component-playground/internal/service"
)

// SnippetHandler manages CRUD operations for saved previews.
//
// The routes run behind auth.OptionalAuth: anonymous callers may read and
// save, and a logged-in caller's ID becomes the owner of what they save.
// Owner checks live in the service, not here.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		snippets: snippets,
		logger:   logger,
	}
}

// SnippetPreview is the response of GET /api/snippets/{id}/preview.
type SnippetPreview struct {
	Snippet *model.Snippet `json:"snippet"`
	*service.Rendered
}

// callerID returns the authenticated user's ID, or "" when anonymous.
func callerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// HandleList returns saved snippets, newest first.
//
// HTTP: GET /api/snippets?componentType=button&mine=true&limit=20&offset=0
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := repository.ListOptions{ComponentType: q.Get("componentType")}

	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, apperror.ValidationFailed("limit", "limit must be a number"))
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, apperror.ValidationFailed("offset", "offset must be a number"))
		return
	}
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		opts.UserID = callerID(r)
		if opts.UserID == "" {
			writeError(w, apperror.Unauthorized("log in to list your own snippets"))
			return
		}
	}

	snippets, err := h.snippets.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("listing snippets", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns a single snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"name": "Primary", "componentType": "button", "source": "...", "description": ""}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), in, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces a snippet's editable fields.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Update(r.Context(), chi.URLParam(r, "id"), in, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id} → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePreview renders a stored snippet.
//
// HTTP: GET /api/snippets/{id}/preview
// RESPONSE: {"snippet": {...}, "result": {...}, "html": "..."}
func (h *SnippetHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	snippet, rendered, err := h.snippets.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SnippetPreview{Snippet: snippet, Rendered: rendered})
}

// intParam parses an optional integer query parameter; "" means 0.
func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
