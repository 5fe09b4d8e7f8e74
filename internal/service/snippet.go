// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services know nothing about HTTP. The same SnippetService backs the JSON
// API and the CLI, and tests drive it with plain function calls and an
// in-memory repository.
//
// DEPENDENCY INJECTION:
// SnippetService takes a repository.SnippetRepository (interface), NOT a
// *sqlite.DB. Tests pass a mock; the server passes SQLite.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
)

// Validation constants.
const (
	MaxSnippetNameLength   = 100
	MaxDescriptionLength   = 1000
	MaxComponentTypeLength = 64
	DefaultListLimit       = 20
	MaxListLimit           = 100
)

// SnippetInput holds the user-editable fields of a snippet.
type SnippetInput struct {
	Name          string `json:"name"`
	ComponentType string `json:"componentType"`
	Source        string `json:"source"`
	Description   string `json:"description"`
}

// SnippetService handles business logic for saved previews.
type SnippetService struct {
	repo     repository.SnippetRepository
	renderer *RenderService
	logger   *slog.Logger
}

// NewSnippetService creates a new SnippetService. renderer may be nil, in
// which case Preview reports the feature as unavailable.
func NewSnippetService(repo repository.SnippetRepository, renderer *RenderService, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:     repo,
		renderer: renderer,
		logger:   logger,
	}
}

// validate trims in and enforces the field rules shared by Create and Update.
func validate(in SnippetInput) (SnippetInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ComponentType = strings.TrimSpace(in.ComponentType)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, apperror.ValidationFailed("name", "snippet name is required")
	}
	if len(in.Name) > MaxSnippetNameLength {
		return in, apperror.ValidationFailed("name",
			fmt.Sprintf("snippet name must be %d characters or less", MaxSnippetNameLength))
	}
	if len(in.ComponentType) > MaxComponentTypeLength {
		return in, apperror.ValidationFailed("componentType",
			fmt.Sprintf("component type must be %d characters or less", MaxComponentTypeLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return in, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	// Source CAN be empty: an empty preview renders as an error panel, which
	// is a legitimate thing to save while drafting.
	if len(in.Source) > MaxSourceLength {
		return in, apperror.ValidationFailed("source",
			fmt.Sprintf("source must be %d characters or less", MaxSourceLength))
	}
	return in, nil
}

// Create validates and saves a new snippet owned by userID ("" for an
// anonymous snippet).
func (s *SnippetService) Create(ctx context.Context, in SnippetInput, userID string) (*model.Snippet, error) {
	in, err := validate(in)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Name:          in.Name,
		ComponentType: in.ComponentType,
		Source:        in.Source,
		Description:   in.Description,
		UserID:        userID,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("componentType", snippet.ComponentType),
	)
	return snippet, nil
}

// GetByID retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	// NotFound is a normal outcome, so it is returned without logging.
	return s.repo.GetByID(ctx, id)
}

// List retrieves snippets with pagination, newest first.
// limit is clamped to 1..MaxListLimit (default DefaultListLimit) and a
// negative offset counts as 0.
func (s *SnippetService) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	opts.Limit = min(opts.Limit, MaxListLimit)
	opts.Offset = max(opts.Offset, 0)
	opts.ComponentType = strings.TrimSpace(opts.ComponentType)

	snippets, err := s.repo.List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update replaces the editable fields of a snippet.
//
// STRATEGY: "Fetch, check owner, then update"
// Fetching first gives a consistent NotFound and lets the owner check run
// against what is actually stored, not what the caller claims.
func (s *SnippetService) Update(ctx context.Context, id string, in SnippetInput, userID string) (*model.Snippet, error) {
	snippet, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if in, err = validate(in); err != nil {
		return nil, err
	}

	snippet.Name = in.Name
	snippet.ComponentType = in.ComponentType
	snippet.Source = in.Source
	snippet.Description = in.Description

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

// Delete removes a snippet by its ID.
func (s *SnippetService) Delete(ctx context.Context, id, userID string) error {
	snippet, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, snippet.ID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", snippet.ID))
	return nil
}

// Preview renders a stored snippet the same way the editor would.
func (s *SnippetService) Preview(ctx context.Context, id string) (*model.Snippet, *Rendered, error) {
	if s.renderer == nil {
		return nil, nil, apperror.Unavailable("snippet previews")
	}
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rendered, err := s.renderer.Render(ctx, snippet.ComponentType, snippet.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("previewing snippet %s: %w", snippet.ID, err)
	}
	return snippet, rendered, nil
}

// owned fetches snippet id and checks that userID may change it.
func (s *SnippetService) owned(ctx context.Context, id, userID string) (*model.Snippet, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snippet.OwnedBy(userID) {
		s.logger.Warn("snippet ownership check failed",
			slog.String("id", snippet.ID),
			slog.String("userID", userID),
		)
		return nil, apperror.Forbidden("you do not own this snippet")
	}
	return snippet, nil
}
