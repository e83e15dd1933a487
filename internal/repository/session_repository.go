package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SessionRepo persists the single live refresh token digest held on each
// user row. It is the only writer of users.refresh_token_hash.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Replace overwrites the stored digest unconditionally. Any refresh token the
// user held before stops working. Used by login.
func (r *SessionRepo) Replace(ctx context.Context, userID uint64, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", tokenHash, userID)
	if err != nil {
		return fmt.Errorf("replace refresh token: %w", err)
	}
	return expectOneRow(res)
}

// Swap stores next only if the row still holds expected. It reports false
// when another request rotated or cleared the session first; exactly one of
// several concurrent callers presenting the same token can win.
func (r *SessionRepo) Swap(ctx context.Context, userID uint64, expected, next string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?",
		next, userID, expected)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return n == 1, nil
}

// Clear removes the stored digest. Clearing an already empty session, or a
// user that no longer exists, is not an error.
func (r *SessionRepo) Clear(ctx context.Context, userID uint64) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL WHERE id=?", userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
