package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or refreshes a user keyed by their GitHub ID.
//
// ON CONFLICT ... DO UPDATE keeps the existing row (and its internal ID) and
// only refreshes the profile fields. Keeping the ID stable matters: it is the
// identity stored as the owner of every posting this user created, so a new
// ID on each login would lock them out of deleting their own postings.
//
// RETURNING id tells us which ID won: the freshly generated xid for a new
// user, the stored one for a returning user.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	candidateID := xid.New().String()

	var id string
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
		   login      = excluded.login,
		   email      = excluded.email,
		   avatar_url = excluded.avatar_url,
		   updated_at = excluded.updated_at
		 RETURNING id`,
		candidateID,
		user.GitHubID,
		user.Login,
		user.Email,
		user.AvatarURL,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	user.ID = id
	user.UpdatedAt = now
	if id == candidateID {
		user.CreatedAt = now
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, email, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
