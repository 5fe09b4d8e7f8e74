package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/ui"
)

// CatalogHandler serves the read-only vocabulary of the playground: the
// starter samples and the identifiers preview code may reference.
type CatalogHandler struct {
	samples  *sample.Catalog
	registry *binding.Registry
	logger   *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(samples *sample.Catalog, registry *binding.Registry, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		samples:  samples,
		registry: registry,
		logger:   logger,
	}
}

// HandleListSamples returns every sample.
//
// HTTP: GET /api/samples
func (h *CatalogHandler) HandleListSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.samples.List())
}

// HandleGetSample returns the starter source for one component type.
//
// HTTP: GET /api/samples/{componentType}
func (h *CatalogHandler) HandleGetSample(w http.ResponseWriter, r *http.Request) {
	s, err := h.samples.Get(chi.URLParam(r, "componentType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleListBindings returns the registry in order.
//
// HTTP: GET /api/bindings
// RESPONSE: [{"name":"Button","kind":"component","tag":"button"}, ...]
func (h *CatalogHandler) HandleListBindings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ui.Describe(h.registry))
}
