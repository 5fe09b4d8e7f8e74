package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
)

// newTestDB returns a private in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestSnippet(t *testing.T, db *DB, name, componentType, userID string) *model.Snippet {
	t.Helper()
	s := &model.Snippet{
		Name:          name,
		ComponentType: componentType,
		Source:        "export const ComponentDemo = () => Button('" + name + "');",
		UserID:        userID,
	}
	if err := db.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return s
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := &model.Snippet{
		Name:          "Primary button",
		ComponentType: "button",
		Source:        "export default function ComponentDemo() { return Button('Save'); }",
		Description:   "the default call to action",
	}
	if err := db.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" || s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Fatalf("Create() did not fill ID and timestamps: %+v", s)
	}

	got, err := db.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != s.Name || got.Source != s.Source || got.ComponentType != "button" || got.Description != s.Description {
		t.Errorf("GetByID() = %+v, want %+v", got, s)
	}
	if got.UserID != "" {
		t.Errorf("anonymous snippet has UserID %q", got.UserID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestList_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := &model.User{GitHubID: 1, Login: "octo"}
	if err := db.Upsert(ctx, owner); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	createTestSnippet(t, db, "a", "button", "")
	createTestSnippet(t, db, "b", "card", owner.ID)
	createTestSnippet(t, db, "c", "button", owner.ID)

	tests := []struct {
		name string
		opts repository.ListOptions
		want []string
	}{
		{name: "all, newest first", opts: repository.ListOptions{}, want: []string{"c", "b", "a"}},
		{name: "by component type", opts: repository.ListOptions{ComponentType: "button"}, want: []string{"c", "a"}},
		{name: "by owner", opts: repository.ListOptions{UserID: owner.ID}, want: []string{"c", "b"}},
		{name: "both", opts: repository.ListOptions{UserID: owner.ID, ComponentType: "card"}, want: []string{"b"}},
		{name: "paged", opts: repository.ListOptions{Limit: 1, Offset: 1}, want: []string{"b"}},
		{name: "negative offset", opts: repository.ListOptions{Limit: 1, Offset: -5}, want: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var names []string
			for _, s := range got {
				names = append(names, s.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, names[i], tt.want[i])
				}
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := createTestSnippet(t, db, "before", "button", "")
	created := s.UpdatedAt

	s.Name = "after"
	s.Source = "export const ComponentDemo = 1;"
	s.ComponentType = "badge"
	if err := db.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "after" || got.Source != s.Source || got.ComponentType != "badge" {
		t.Errorf("Update() did not persist: %+v", got)
	}
	if got.UpdatedAt.Before(created) {
		t.Errorf("UpdatedAt went backwards: %v < %v", got.UpdatedAt, created)
	}

	missing := &model.Snippet{ID: "missing", Name: "x"}
	if err := db.Update(ctx, missing); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := createTestSnippet(t, db, "doomed", "button", "")

	if err := db.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.GetByID(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Delete(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCreate_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)
	s := &model.Snippet{Name: "orphan", UserID: "no-such-user"}

	if err := db.Create(context.Background(), s); err == nil {
		t.Error("Create() with unknown owner succeeded, want foreign key error")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
