package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, github_id, login, email, avatar_url, created_at, updated_at`

// Upsert creates the user on first login and refreshes the GitHub profile
// fields on later ones. The internal ID and created_at never change.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	existing, err := db.GetUserByGitHubID(ctx, user.GitHubID)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = time.Now().UTC()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil

	case errors.Is(err, apperror.ErrNotFound):
		now := time.Now().UTC()
		user.ID = xid.New().String()
		user.CreatedAt = now
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.GitHubID, user.Login, user.Email, user.AvatarURL,
			user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
		return nil

	default:
		return err
	}
}

// GetUserByID returns apperror.ErrNotFound when no user has that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByGitHubID looks a user up by their GitHub account.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.GitHubID, &u.Login, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
