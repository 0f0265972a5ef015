// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/auth"
)

const userColumns = `id, email, name, password_hash, status, post_ids, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user and fills its timestamps.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, status, post_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`,
		user.ID.String(),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Status,
		idStrings(user.Posts),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("user_id", id.String()).Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("email", email).Wrap(err)
	}
	return user, nil
}

// Update saves email, name, password hash and status. post_ids is only
// changed through AddPost and RemovePost.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, status = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		user.ID.String(),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Status,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.Code("USER_NOT_FOUND").With("user_id", user.ID.String()).Wrap(auth.ErrNotFound)
	}
	if isUniqueViolation(err) {
		return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	return nil
}

// AddPost appends postID to the user's posts in a single statement. An id
// already present is left alone.
func (r *UserRepository) AddPost(ctx context.Context, userID, postID ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET post_ids = array_append(post_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY (post_ids))
	`, userID.String(), postID.String())
	if err != nil {
		return oops.Code("USER_ADD_POST_FAILED").
			With("user_id", userID.String()).
			With("post_id", postID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.ensureExists(ctx, userID)
}

// RemovePost removes postID from the user's posts in a single statement.
func (r *UserRepository) RemovePost(ctx context.Context, userID, postID ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET post_ids = array_remove(post_ids, $2), updated_at = now()
		WHERE id = $1
	`, userID.String(), postID.String())
	if err != nil {
		return oops.Code("USER_REMOVE_POST_FAILED").
			With("user_id", userID.String()).
			With("post_id", postID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) ensureExists(ctx context.Context, userID ulid.ULID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID.String()).Scan(&exists)
	if err != nil {
		return oops.Code("USER_GET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	if !exists {
		return oops.Code("USER_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u       auth.User
		idStr   string
		postIDs []string
	)
	if err := row.Scan(&idStr, &u.Email, &u.Name, &u.PasswordHash, &u.Status, &postIDs, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify pgx.ErrNoRows
	}

	var err error
	if u.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if u.Posts, err = parseIDs(postIDs); err != nil {
		return nil, oops.Code("USER_CORRUPT_POST_ID").With("user_id", idStr).Wrap(err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func idStrings(ids []ulid.ULID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) ([]ulid.ULID, error) {
	out := make([]ulid.ULID, 0, len(raw))
	for _, s := range raw {
		id, err := ulid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
