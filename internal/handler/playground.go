// Package handler contains HTTP request handlers for the playground application.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc: a function with the right signature
// that automatically satisfies the Handler interface. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, headers)
// 2. Call the service layer (rendering, snippets, accounts)
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers should NOT contain business logic. They are the "glue" between HTTP and the app.
package handler

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS returns the stylesheet and client script compiled into the binary,
// rooted so that "app.js" resolves to static/app.js.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded above; Sub only fails on an invalid name.
		panic(err)
	}
	return sub
}

// PlaygroundHandler serves the HTML pages: the editor and the standalone preview.
// It holds parsed templates so we don't re-parse them on every request.
//
// WHY A STRUCT?
// By using a struct, we can:
// 1. Parse templates once at startup (expensive) and reuse them (cheap)
// 2. Inject dependencies (renderer, samples, logger) without global variables
// 3. Group related handlers together
type PlaygroundHandler struct {
	pages    map[string]*template.Template
	renderer *service.RenderService
	samples  *sample.Catalog
	logger   *slog.Logger
}

// NewPlaygroundHandler creates a new PlaygroundHandler and parses the embedded templates.
//
// TEMPLATE PARSING:
// Each page is parsed together with base.html so they can reference each other:
//   - base.html defines the overall page structure with {{template "content" .}} placeholder
//   - playground.html / preview.html define {{define "content"}}...{{end}} to fill it
//
// Both pages define "content", so each gets its own template set.
func NewPlaygroundHandler(renderer *service.RenderService, samples *sample.Catalog, logger *slog.Logger) (*PlaygroundHandler, error) {
	pages := make(map[string]*template.Template, 2)
	for _, page := range []string{"playground.html", "preview.html"} {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		pages[page] = tmpl
	}

	return &PlaygroundHandler{
		pages:    pages,
		renderer: renderer,
		samples:  samples,
		logger:   logger,
	}, nil
}

// HandlePlayground serves the main playground page.
//
// HTTP: GET /?type=card
//
// The page starts on the requested sample (or the first one) and opens a
// live session at /ws/preview from static/app.js.
func (h *PlaygroundHandler) HandlePlayground(w http.ResponseWriter, r *http.Request) {
	samples := h.samples.List()

	current := r.URL.Query().Get("type")
	if _, err := h.samples.Get(current); err != nil && len(samples) > 0 {
		current = samples[0].ComponentType
	}

	h.render(w, "playground.html", map[string]any{
		"Title":      "Component Playground",
		"Samples":    samples,
		"Current":    current,
		"Source":     h.samples.Source(current),
		"EntryPoint": h.renderer.EntryPoint(),
	})
}

// HandlePreview renders one source snapshot as a standalone page, suitable
// for an <iframe> or for sharing a link.
//
// HTTP: GET /preview?type=button                 → the button sample
// HTTP: GET /preview?type=button&source=...      → the given source
//
// A source that fails to evaluate still yields 200 with the error panel in
// place of the component.
func (h *PlaygroundHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	componentType := q.Get("type")

	src, hasSource := q["source"]
	var code string
	switch {
	case hasSource:
		code = src[0]
	case componentType != "":
		s, err := h.samples.Get(componentType)
		if err != nil {
			h.renderError(w, err)
			return
		}
		code = s.Source
	default:
		h.renderError(w, apperror.ValidationFailed("type", "either type or source is required"))
		return
	}

	rendered, err := h.renderer.Render(r.Context(), componentType, code)
	if err != nil {
		h.renderError(w, err)
		return
	}

	h.render(w, "preview.html", map[string]any{
		"Title":         "Preview",
		"ComponentType": componentType,
		"Result":        rendered.Result,
		// The artifact escapes everything user code produced.
		"HTML": template.HTML(rendered.HTML),
	})
}

func (h *PlaygroundHandler) render(w http.ResponseWriter, page string, data map[string]any) {
	// Set content type header BEFORE writing the body
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *PlaygroundHandler) renderError(w http.ResponseWriter, err error) {
	status, _ := statusOf(err)
	msg := http.StatusText(status)
	var appErr *apperror.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		msg = appErr.Message
	} else {
		h.logger.Error("preview page failed", slog.String("error", err.Error()))
	}
	http.Error(w, msg, status)
}
