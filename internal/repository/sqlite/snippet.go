package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
)

var _ repository.SnippetRepository = (*DB)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

const snippetColumns = `id, name, component_type, source, description, user_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s      model.Snippet
		userID sql.NullString
	)
	if err := row.Scan(
		&s.ID, &s.Name, &s.ComponentType, &s.Source, &s.Description,
		&userID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.UserID = userID.String
	return &s, nil
}

// nullable stores "" as NULL so the user_id foreign key is not violated by
// anonymous snippets.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts snippet, filling in its ID and timestamps.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	// xid: 20 URL-safe chars, sortable by creation time.
	snippet.ID = xid.New().String()
	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Name,
		snippet.ComponentType,
		snippet.Source,
		snippet.Description,
		nullable(snippet.UserID),
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound when no snippet has that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	)
	s, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return s, nil
}

// List returns snippets newest first, optionally filtered by component type
// and owner.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := max(opts.Offset, 0)

	var (
		where []string
		args  []any
	)
	if opts.ComponentType != "" {
		where = append(where, "component_type = ?")
		args = append(args, opts.ComponentType)
	}
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}

	query := `SELECT ` + snippetColumns + ` FROM snippets`
	if len(where) > 0 {
		// Only fixed fragments are joined; values stay in placeholders.
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}

// Update writes the mutable fields. ID, owner and created_at never change.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET name = ?, component_type = ?, source = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Name,
		snippet.ComponentType,
		snippet.Source,
		snippet.Description,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}
	return expectOneRow(result, "snippet", snippet.ID)
}

// Delete removes a snippet.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	return expectOneRow(result, "snippet", id)
}

// expectOneRow turns "nothing matched the WHERE clause" into NotFound.
func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
