package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/videohub-auth/internal/model"
)

const userColumns = "id, username, email, fullname, password_hash, refresh_token_hash, created_at, updated_at"

// UserRepo encapsulates all queries against the `users` table except the
// refresh token column, which is owned by SessionRepo.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and fills its ID and timestamps. Username and email are
// normalised before the insert. A duplicate username or email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = normalize(u.Username)
	u.Email = normalize(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, fullname, password_hash) VALUES (?,?,?,?)",
		u.Username, u.Email, u.Fullname, u.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	// Follow-up SELECT populates the default timestamp columns.
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// GetByUsernameOrEmail fetches the user matching either identifier. Empty
// identifiers never match because both columns are NOT NULL and non-empty.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		normalize(username), normalize(email))
	return scanUser(row)
}

// UpdateAccount sets fullname and email and returns the updated row.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uint64, fullname, email string) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET fullname=?, email=? WHERE id=?",
		strings.TrimSpace(fullname), normalize(email), id)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrConflict
		}
		return model.User{}, fmt.Errorf("update account: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow(res)
}

// Ping checks the underlying connection; used by the health check.
func (r *UserRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.RefreshTokenHash = refresh.String
	return u, nil
}

// expectOneRow relies on clientFoundRows=true in the DSN, so an UPDATE that
// matches a row reports it even when no column value changed.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
