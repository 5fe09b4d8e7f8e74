package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/component-playground/internal/auth"
	"github.com/sakif/component-playground/internal/handler"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/repository/sqlite"
	"github.com/sakif/component-playground/internal/service"
)

// testUserHeader stands in for the JWT middleware: its value becomes the
// caller's user ID.
const testUserHeader = "X-Test-User"

type snippetAPI struct {
	t      *testing.T
	router http.Handler
	db     *sqlite.DB
	users  int64
}

func newSnippetAPI(t *testing.T) *snippetAPI {
	t.Helper()
	db, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewSnippetHandler(service.NewSnippetService(db, newRenderer(t), testLogger), testLogger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get(testUserHeader); id != "" {
				r = r.WithContext(auth.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/api/snippets", h.HandleList)
	r.Post("/api/snippets", h.HandleCreate)
	r.Get("/api/snippets/{id}", h.HandleGetByID)
	r.Put("/api/snippets/{id}", h.HandleUpdate)
	r.Delete("/api/snippets/{id}", h.HandleDelete)
	r.Get("/api/snippets/{id}/preview", h.HandlePreview)

	return &snippetAPI{t: t, router: r, db: db}
}

func (a *snippetAPI) user(login string) string {
	a.t.Helper()
	a.users++
	u := &model.User{GitHubID: a.users, Login: login}
	require.NoError(a.t, a.db.Upsert(context.Background(), u))
	return u.ID
}

func (a *snippetAPI) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *snippetAPI) create(userID string, in service.SnippetInput) model.Snippet {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/snippets", userID, in)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	var s model.Snippet
	require.NoError(a.t, json.NewDecoder(rr.Body).Decode(&s))
	return s
}

func TestSnippetHandler_Create(t *testing.T) {
	api := newSnippetAPI(t)

	t.Run("anonymous", func(t *testing.T) {
		s := api.create("", service.SnippetInput{Name: "Primary", ComponentType: "button", Source: buttonSource})
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "Primary", s.Name)
		assert.Empty(t, s.UserID)
	})

	t.Run("logged in caller owns the snippet", func(t *testing.T) {
		ann := api.user("ann")
		s := api.create(ann, service.SnippetInput{Name: "Mine", ComponentType: "card"})
		assert.Equal(t, ann, s.UserID)
	})

	t.Run("validation error", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/snippets", "", service.SnippetInput{ComponentType: "button"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "name", res.Field)
	})
}

func TestSnippetHandler_GetAndList(t *testing.T) {
	api := newSnippetAPI(t)
	ann := api.user("ann")

	first := api.create("", service.SnippetInput{Name: "One", ComponentType: "button"})
	api.create(ann, service.SnippetInput{Name: "Two", ComponentType: "card"})

	t.Run("get by id", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/snippets/"+first.ID, "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var s model.Snippet
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
		assert.Equal(t, "One", s.Name)
	})

	t.Run("get missing", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/snippets/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	tests := []struct {
		name   string
		query  string
		userID string
		status int
		want   []string
	}{
		{name: "all newest first", query: "", status: http.StatusOK, want: []string{"Two", "One"}},
		{name: "by type", query: "?componentType=button", status: http.StatusOK, want: []string{"One"}},
		{name: "mine", query: "?mine=true", userID: ann, status: http.StatusOK, want: []string{"Two"}},
		{name: "mine while anonymous", query: "?mine=true", status: http.StatusUnauthorized},
		{name: "paged", query: "?limit=1&offset=1", status: http.StatusOK, want: []string{"One"}},
		{name: "bad limit", query: "?limit=ten", status: http.StatusBadRequest},
		{name: "bad offset", query: "?offset=x", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(http.MethodGet, "/api/snippets"+tt.query, tt.userID, nil)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var got []model.Snippet
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			names := make([]string, 0, len(got))
			for _, s := range got {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSnippetHandler_UpdateAndDelete(t *testing.T) {
	api := newSnippetAPI(t)
	ann := api.user("ann")
	bob := api.user("bob")

	owned := api.create(ann, service.SnippetInput{Name: "Ann's", ComponentType: "button"})
	update := service.SnippetInput{Name: "Renamed", ComponentType: "button", Source: buttonSource}

	t.Run("other user cannot update", func(t *testing.T) {
		rr := api.do(http.MethodPut, "/api/snippets/"+owned.ID, bob, update)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("anonymous cannot delete an owned snippet", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/snippets/"+owned.ID, "", nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("owner updates", func(t *testing.T) {
		rr := api.do(http.MethodPut, "/api/snippets/"+owned.ID, ann, update)
		require.Equal(t, http.StatusOK, rr.Code)
		var s model.Snippet
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
		assert.Equal(t, "Renamed", s.Name)
		assert.Equal(t, buttonSource, s.Source)
	})

	t.Run("update with unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/snippets/"+owned.ID, bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set(testUserHeader, ann)
		rr := httptest.NewRecorder()
		api.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/snippets/"+owned.ID, ann, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())

		rr = api.do(http.MethodGet, "/api/snippets/"+owned.ID, ann, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSnippetHandler_Preview(t *testing.T) {
	api := newSnippetAPI(t)

	good := api.create("", service.SnippetInput{Name: "Good", ComponentType: "button", Source: buttonSource})
	bad := api.create("", service.SnippetInput{Name: "Bad", ComponentType: "button", Source: missingSource})

	tests := []struct {
		name string
		id   string
		kind preview.Kind
	}{
		{name: "renders", id: good.ID, kind: preview.KindOutput},
		{name: "broken source is a result", id: bad.ID, kind: preview.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(http.MethodGet, "/api/snippets/"+tt.id+"/preview", "", nil)
			require.Equal(t, http.StatusOK, rr.Code)

			var res struct {
				Snippet model.Snippet  `json:"snippet"`
				Result  preview.Result `json:"result"`
				HTML    string         `json:"html"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			assert.Equal(t, tt.id, res.Snippet.ID)
			assert.Equal(t, tt.kind, res.Result.Kind)
			assert.NotEmpty(t, res.HTML)
		})
	}

	t.Run("missing snippet", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/snippets/nope/preview", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
