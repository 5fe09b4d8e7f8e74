package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/component-playground/internal/handler"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/ui"
)

func newCatalogRouter(t *testing.T) http.Handler {
	t.Helper()
	samples, err := sample.Builtin()
	require.NoError(t, err)
	reg, err := ui.NewRegistry(ui.TrackerFunc(func(string, map[string]any) {}))
	require.NoError(t, err)

	h := handler.NewCatalogHandler(samples, reg, testLogger)
	r := chi.NewRouter()
	r.Get("/api/samples", h.HandleListSamples)
	r.Get("/api/samples/{componentType}", h.HandleGetSample)
	r.Get("/api/bindings", h.HandleListBindings)
	return r
}

func TestCatalogHandler(t *testing.T) {
	router := newCatalogRouter(t)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	t.Run("list samples", func(t *testing.T) {
		rr := get("/api/samples")
		require.Equal(t, http.StatusOK, rr.Code)

		var samples []sample.Sample
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&samples))
		types := make([]string, 0, len(samples))
		for _, s := range samples {
			types = append(types, s.ComponentType)
			assert.NotEmpty(t, s.Source, s.ComponentType)
		}
		assert.Contains(t, types, "button")
		assert.Contains(t, types, "card")
	})

	t.Run("get sample", func(t *testing.T) {
		rr := get("/api/samples/button")
		require.Equal(t, http.StatusOK, rr.Code)

		var s sample.Sample
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
		assert.Equal(t, "button", s.ComponentType)
		assert.Contains(t, s.Source, "ComponentDemo")
	})

	t.Run("unknown sample", func(t *testing.T) {
		rr := get("/api/samples/carousel")
		assert.Equal(t, http.StatusNotFound, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "not_found", res.Error)
	})

	t.Run("bindings", func(t *testing.T) {
		rr := get("/api/bindings")
		require.Equal(t, http.StatusOK, rr.Code)

		var infos []ui.BindingInfo
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&infos))
		require.NotEmpty(t, infos)

		byName := make(map[string]ui.BindingInfo, len(infos))
		for _, info := range infos {
			byName[info.Name] = info
		}
		assert.Equal(t, ui.BindingInfo{Name: "Button", Kind: ui.KindComponent, Tag: "button"}, byName["Button"])
		assert.Equal(t, ui.KindService, byName["track"].Kind)
		assert.Equal(t, "track", infos[len(infos)-1].Name, "track is appended last")
	})
}
