package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/component-playground/internal/service"
)

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	ComponentType string `json:"componentType"`
	Source        string `json:"source"`
}

// RenderHandler handles one-shot preview renders.
type RenderHandler struct {
	renderer *service.RenderService
	logger   *slog.Logger
}

// NewRenderHandler creates a new RenderHandler.
func NewRenderHandler(renderer *service.RenderService, logger *slog.Logger) *RenderHandler {
	return &RenderHandler{
		renderer: renderer,
		logger:   logger,
	}
}

// HandleRender evaluates the posted source and returns the result and the
// artifact HTML.
//
// HTTP: POST /api/render
// REQUEST BODY:  {"componentType": "button", "source": "export default ..."}
// RESPONSE BODY: {"result": {"kind": "output", ...}, "html": "<div ...>"}
//
// A preview that fails to evaluate is still a 200: the failure is the
// result, and the HTML is the error panel the page shows in its place.
func (h *RenderHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid render request body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	rendered, err := h.renderer.Render(r.Context(), req.ComponentType, req.Source)
	if err != nil {
		h.logger.Warn("render failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rendered)
}
