package model

import "time"

// User represents an application user record as stored in the `users` table.
// Each field corresponds to a column. Handlers never serialise this struct
// directly; they use Public() so the secrets stay server side.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Username         – unique, lower-cased handle.
//	Email            – unique, lower-cased email address.
//	Fullname         – display name.
//	PasswordHash     – bcrypt hashed password.
//	RefreshTokenHash – SHA-256 digest of the single live refresh token; empty when logged out.
//	CreatedAt        – timestamp of creation.
//	UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	Username         string    // users.username
	Email            string    // users.email
	Fullname         string    // users.fullname
	PasswordHash     string    // users.password_hash
	RefreshTokenHash string    // users.refresh_token_hash (nullable)
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// PublicUser is the user projection with password and refresh token stripped.
type PublicUser struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the stripped projection of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Fullname:  u.Fullname,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
