// Package service implements the authentication and session lifecycle:
// login, refresh-token rotation, logout and access-token verification, plus
// the account operations that sit next to them.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/model"
	"github.com/iliyamo/videohub-auth/internal/queue"
	"github.com/iliyamo/videohub-auth/internal/repository"
	"github.com/iliyamo/videohub-auth/internal/utils"
)

// UserStore is the user record store.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error)
	UpdateAccount(ctx context.Context, id uint64, fullname, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// SessionStore holds the single refresh token digest per user.
type SessionStore interface {
	Replace(ctx context.Context, userID uint64, tokenHash string) error
	// Swap stores next only while expected is still stored and reports
	// whether it did.
	Swap(ctx context.Context, userID uint64, expected, next string) (bool, error)
	Clear(ctx context.Context, userID uint64) error
}

// IdentityLookup resolves the public profile behind an access token.
type IdentityLookup interface {
	GetIdentity(ctx context.Context, id uint64) (model.PublicUser, error)
	Invalidate(ctx context.Context, id uint64)
}

// EventPublisher receives account events.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error
	PublishPasswordChanged(ctx context.Context, ev queue.PasswordChangedEvent) error
}

// Settings carries the token and hashing parameters.
type Settings struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

// TokenPair is returned once per issuance and never stored as a unit.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User   model.PublicUser
	Tokens TokenPair
}

// RegisterInput holds the fields required to create an account.
type RegisterInput struct {
	Fullname string
	Email    string
	Username string
	Password string
}

// AuthService orchestrates the credential and session flows.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	identities IdentityLookup
	events     EventPublisher
	cfg        Settings
	log        *zap.Logger
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithIdentityLookup sets the lookup used by Authenticate, typically the
// Redis identity cache. Without it the user store is queried directly.
func WithIdentityLookup(l IdentityLookup) Option {
	return func(s *AuthService) { s.identities = l }
}

// WithEvents sets the account event publisher. Without it events are dropped.
func WithEvents(p EventPublisher) Option {
	return func(s *AuthService) { s.events = p }
}

// NewAuthService wires an AuthService.
func NewAuthService(cfg Settings, users UserStore, sessions SessionStore, log *zap.Logger, opts ...Option) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AuthService{users: users, sessions: sessions, cfg: cfg, log: log}
	for _, opt := range opts {
		opt(s)
	}
	if s.identities == nil {
		s.identities = storeIdentities{users: users}
	}
	if s.events == nil {
		s.events = (*queue.Publisher)(nil)
	}
	return s
}

// Register creates an account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Fullname == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return model.PublicUser{}, badRequest("all fields are required")
	}
	if !strings.Contains(in.Email, "@") {
		return model.PublicUser{}, badRequest("email is invalid")
	}
	if err := checkLengths(in.Username, in.Email, in.Fullname); err != nil {
		return model.PublicUser{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.PublicUser{}, badRequest("password must be at most 72 bytes")
		}
		return model.PublicUser{}, internal("hash password", err)
	}

	u := &model.User{Username: in.Username, Email: in.Email, Fullname: in.Fullname, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.PublicUser{}, conflict("user already exists with this email or username")
		}
		return model.PublicUser{}, internal("create user", err)
	}

	if err := s.events.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Fullname:     u.Fullname,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn("publish user registered", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return u.Public(), nil
}

// Login verifies the password of the user matching username or email and
// starts a new session. Storing the new refresh token is the point where any
// previous session of the user stops being refreshable.
func (s *AuthService) Login(ctx context.Context, username, email, password string) (LoginResult, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" && email == "" {
		return LoginResult{}, badRequest("username or email is required")
	}
	if password == "" {
		return LoginResult{}, badRequest("password is required")
	}

	u, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, notFound("user does not exist with this email or username")
		}
		return LoginResult{}, internal("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, unauthenticated("invalid user credentials", nil)
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.sessions.Replace(ctx, u.ID, utils.HashRefreshRaw(pair.Refresh.Raw)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, notFound("user does not exist with this email or username")
		}
		return LoginResult{}, internal("store refresh token", err)
	}
	return LoginResult{User: u.Public(), Tokens: pair}, nil
}

// Logout clears the stored refresh token of userID. It succeeds whether or
// not a session was active.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	if err := s.sessions.Clear(ctx, userID); err != nil {
		return internal("clear refresh token", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair and rotates the stored
// token. The presented token must be the one currently stored; a superseded
// token fails even while its signature and expiry are still valid. The final
// write is conditional, so of two concurrent calls with the same token only
// one can succeed.
func (s *AuthService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, unauthenticated("unauthorized request", errNoToken)
	}

	claims, err := utils.ParseRefreshToken(presented, s.cfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, utils.ErrMissingSecret) {
			return TokenPair{}, internal("verify refresh token", err)
		}
		return TokenPair{}, unauthenticated("invalid refresh token", err)
	}
	uid, err := claims.UserID()
	if err != nil {
		return TokenPair{}, unauthenticated("invalid refresh token", err)
	}

	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, unauthenticated("invalid refresh token", err)
		}
		return TokenPair{}, internal("load user", err)
	}

	presentedHash := utils.HashRefreshRaw(presented)
	if u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(presentedHash), []byte(u.RefreshTokenHash)) != 1 {
		return TokenPair{}, unauthenticated("refresh token expired or is invalid", errStaleRefresh)
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return TokenPair{}, err
	}
	ok, err := s.sessions.Swap(ctx, u.ID, presentedHash, utils.HashRefreshRaw(pair.Refresh.Raw))
	if err != nil {
		return TokenPair{}, internal("rotate refresh token", err)
	}
	if !ok {
		return TokenPair{}, unauthenticated("refresh token expired or is invalid", errStaleRefresh)
	}
	return pair, nil
}

// Authenticate verifies an access token and resolves the identity it names.
// It never issues or rotates tokens.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (model.PublicUser, error) {
	if accessToken == "" {
		return model.PublicUser{}, unauthenticated("unauthorized request, no token provided", errNoToken)
	}
	claims, err := utils.ParseAccessToken(accessToken, s.cfg.AccessSecret)
	if err != nil {
		if errors.Is(err, utils.ErrMissingSecret) {
			return model.PublicUser{}, internal("verify access token", err)
		}
		return model.PublicUser{}, unauthenticated("invalid access token", err)
	}
	uid, err := claims.UserID()
	if err != nil {
		return model.PublicUser{}, unauthenticated("invalid access token", err)
	}

	pu, err := s.identities.GetIdentity(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PublicUser{}, unauthenticated("invalid access token", err)
		}
		return model.PublicUser{}, internal("load identity", err)
	}
	return pu, nil
}

// ChangePassword replaces the password of userID after checking the old one.
// The current session is left as it is.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return badRequest("old and new password are required")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		return internal("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return unauthenticated("old password is incorrect", nil)
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return badRequest("password must be at most 72 bytes")
		}
		return internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		return internal("update password", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, queue.PasswordChangedEvent{
		UserID:    u.ID,
		Email:     u.Email,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn("publish password changed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// UpdateAccount changes the fullname and email of userID.
func (s *AuthService) UpdateAccount(ctx context.Context, userID uint64, fullname, email string) (model.PublicUser, error) {
	fullname, email = strings.TrimSpace(fullname), strings.TrimSpace(email)
	if fullname == "" || email == "" {
		return model.PublicUser{}, badRequest("all fields are required")
	}
	if !strings.Contains(email, "@") {
		return model.PublicUser{}, badRequest("email is invalid")
	}
	if err := checkLengths("", email, fullname); err != nil {
		return model.PublicUser{}, err
	}

	u, err := s.users.UpdateAccount(ctx, userID, fullname, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return model.PublicUser{}, conflict("email is already in use")
		case errors.Is(err, repository.ErrNotFound):
			return model.PublicUser{}, notFound("user not found")
		}
		return model.PublicUser{}, internal("update account", err)
	}
	s.identities.Invalidate(ctx, userID)
	return u.Public(), nil
}

// Column widths of the users table, counted in characters.
const (
	maxUsernameLen = 64
	maxEmailLen    = 255
	maxFullnameLen = 255
)

func checkLengths(username, email, fullname string) error {
	switch {
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return badRequest("username must be at most 64 characters")
	case utf8.RuneCountInString(email) > maxEmailLen:
		return badRequest("email must be at most 255 characters")
	case utf8.RuneCountInString(fullname) > maxFullnameLen:
		return badRequest("fullname must be at most 255 characters")
	}
	return nil
}

func (s *AuthService) issuePair(u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, utils.AccessIdentity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Fullname: u.Fullname,
	}, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, internal("issue access token", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, internal("issue refresh token", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// storeIdentities reads identities straight from the user store.
type storeIdentities struct{ users UserStore }

func (l storeIdentities) GetIdentity(ctx context.Context, id uint64) (model.PublicUser, error) {
	u, err := l.users.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

func (storeIdentities) Invalidate(context.Context, uint64) {}
