// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite implements them.
package repository

import (
	"context"

	"github.com/sakif/component-playground/internal/model"
)

// ListOptions filters and pages snippet listings. Zero values mean "no
// filter" and "default page".
type ListOptions struct {
	Limit         int
	Offset        int
	ComponentType string
	UserID        string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}
