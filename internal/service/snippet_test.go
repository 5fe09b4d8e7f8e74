package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockSnippetRepo implements repository.SnippetRepository in memory, the
// same interface sqlite.DB implements. The service cannot tell them apart.

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
	lastList repository.ListOptions
}

func newMockRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%03d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := *snippet
	return &out, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	m.lastList = opts
	result := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		if opts.ComponentType != "" && s.ComponentType != opts.ComponentType {
			continue
		}
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if opts.Offset >= len(result) {
		return []model.Snippet{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestService(t *testing.T) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewSnippetService(repo, newTestRenderer(t), slog.New(slog.DiscardHandler)), repo
}

func input(name, src string) SnippetInput {
	return SnippetInput{Name: name, ComponentType: "button", Source: src}
}

func mustCreate(t *testing.T, svc *SnippetService, name, owner string) *model.Snippet {
	t.Helper()
	s, err := svc.Create(context.Background(), input(name, "export const ComponentDemo = () => Button('"+name+"');"), owner)
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	return s
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, _ := newTestService(t)

	snippet, err := svc.Create(context.Background(), SnippetInput{
		Name:          "  spaced out  ",
		ComponentType: " button ",
		Source:        "export default function ComponentDemo() { return Button('Hi'); }",
		Description:   "  desc  ",
	}, "user-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("expected snippet to have an ID")
	}
	if snippet.Name != "spaced out" || snippet.ComponentType != "button" || snippet.Description != "desc" {
		t.Errorf("fields not trimmed: %+v", snippet)
	}
	if snippet.UserID != "user-a" {
		t.Errorf("UserID = %q, want %q", snippet.UserID, "user-a")
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    SnippetInput
		field string
	}{
		{"empty name", SnippetInput{Name: ""}, "name"},
		{"whitespace name", SnippetInput{Name: "   "}, "name"},
		{"long name", SnippetInput{Name: strings.Repeat("a", MaxSnippetNameLength+1)}, "name"},
		{"long type", SnippetInput{Name: "x", ComponentType: strings.Repeat("t", MaxComponentTypeLength+1)}, "componentType"},
		{"long description", SnippetInput{Name: "x", Description: strings.Repeat("d", MaxDescriptionLength+1)}, "description"},
		{"long source", SnippetInput{Name: "x", Source: strings.Repeat("s", MaxSourceLength+1)}, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)

			_, err := svc.Create(context.Background(), tt.in, "")

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(repo.snippets) != 0 {
				t.Error("invalid snippet reached the repository")
			}
		})
	}
}

func TestCreate_EmptySourceAllowed(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), input("draft", ""), ""); err != nil {
		t.Fatalf("Create() with empty source error = %v", err)
	}
}

// =========================================================================
// GET / LIST TESTS
// =========================================================================

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, "test", "")

	found, err := svc.GetByID(context.Background(), " "+created.ID+" ")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "test" {
		t.Errorf("Name = %q, want %q", found.Name, "test")
	}

	if _, err := svc.GetByID(context.Background(), "nonexistent"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(nonexistent) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetByID(\"\") error = %v, want ErrValidation", err)
	}
}

func TestList_ClampsOptions(t *testing.T) {
	tests := []struct {
		name       string
		in         repository.ListOptions
		wantLimit  int
		wantOffset int
	}{
		{"defaults", repository.ListOptions{}, DefaultListLimit, 0},
		{"negative", repository.ListOptions{Limit: -5, Offset: -10}, DefaultListLimit, 0},
		{"too large", repository.ListOptions{Limit: MaxListLimit + 1, Offset: 3}, MaxListLimit, 3},
		{"in range", repository.ListOptions{Limit: 7}, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			if _, err := svc.List(context.Background(), tt.in); err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if repo.lastList.Limit != tt.wantLimit || repo.lastList.Offset != tt.wantOffset {
				t.Errorf("repository saw %+v, want limit %d offset %d", repo.lastList, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestList_FiltersByOwner(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "mine", "user-a")
	mustCreate(t, svc, "theirs", "user-b")

	got, err := svc.List(context.Background(), repository.ListOptions{UserID: "user-a"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "mine" {
		t.Errorf("List(user-a) = %+v", got)
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdate_Success(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, "original", "")

	updated, err := svc.Update(context.Background(), created.ID, SnippetInput{
		Name:          "new name",
		ComponentType: "card",
		Source:        "export const ComponentDemo = () => Card('x');",
	}, "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "new name" || updated.ComponentType != "card" {
		t.Errorf("Update() = %+v", updated)
	}
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	owned := mustCreate(t, svc, "owned", "user-a")

	tests := []struct {
		name   string
		id     string
		in     SnippetInput
		caller string
		want   error
	}{
		{"not found", "nonexistent", input("name", ""), "", apperror.ErrNotFound},
		{"wrong owner", owned.ID, input("hack", "evil"), "user-b", apperror.ErrForbidden},
		{"anonymous on owned", owned.ID, input("hack", "evil"), "", apperror.ErrForbidden},
		{"invalid input", owned.ID, input("", ""), "user-a", apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tt.id, tt.in, tt.caller)
			if !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdate_OwnerCanUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, "mine", "user-a")

	if _, err := svc.Update(context.Background(), created.ID, input("updated", ""), "user-a"); err != nil {
		t.Fatalf("owner should be able to update their own snippet: %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	anon := mustCreate(t, svc, "to delete", "")
	owned := mustCreate(t, svc, "owned", "user-a")

	if err := svc.Delete(ctx, anon.ID, "user-b"); err != nil {
		t.Fatalf("Delete(anonymous snippet) error = %v", err)
	}
	if _, err := svc.GetByID(ctx, anon.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(ctx, owned.ID, "user-b"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete(wrong owner) error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, "", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Delete(\"\") error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PREVIEW TESTS
// =========================================================================

func TestPreview_RendersStoredSource(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, "Save", "")

	snippet, rendered, err := svc.Preview(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if snippet.ID != created.ID {
		t.Errorf("Preview() snippet = %q, want %q", snippet.ID, created.ID)
	}
	if rendered.Result.Kind != preview.KindOutput {
		t.Fatalf("Preview() result = %+v, want output", rendered.Result)
	}
	if !strings.Contains(rendered.HTML, `data-component-type="button"`) || !strings.Contains(rendered.HTML, "Save") {
		t.Errorf("Preview() HTML = %s", rendered.HTML)
	}
}

func TestPreview_BrokenSourceIsAResultNotAnError(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), input("broken", "export const ComponentDemo = () => Missing();"), "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, rendered, err := svc.Preview(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if !rendered.Result.Failed() || rendered.Result.Error.Kind != engine.KindReference {
		t.Errorf("Preview() result = %+v, want reference error", rendered.Result)
	}
	if !strings.Contains(rendered.HTML, `class="pg-error"`) {
		t.Errorf("Preview() HTML = %s, want error panel", rendered.HTML)
	}
}

func TestPreview_Unavailable(t *testing.T) {
	svc := NewSnippetService(newMockRepo(), nil, slog.New(slog.DiscardHandler))

	_, _, err := svc.Preview(context.Background(), "any")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("Preview() error = %v, want ErrUnavailable", err)
	}
}
