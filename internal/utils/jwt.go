package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 digest of refresh tokens before they are persisted
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
	"github.com/google/uuid"
)

// Token verification failures. Callers at the HTTP boundary collapse all of
// them into a single 401; the distinction is kept for logging.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrMissingSecret         = errors.New("signing secret is empty")
)

// AccessIdentity is the minimal claim set carried by an access token.
type AccessIdentity struct {
	UserID   uint64
	Username string
	Email    string
	Fullname string
}

// AccessClaims is the wire schema of an access token:
// { sub, email, username, fullname, iat, exp }.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id held in the subject claim.
func (c *AccessClaims) UserID() (uint64, error) { return parseSubject(c.Subject) }

// RefreshClaims is the wire schema of a refresh token: { sub, jti, iat, exp }.
// The jti keeps two tokens minted for the same user in the same second distinct.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the numeric user id held in the subject claim.
func (c *RefreshClaims) UserID() (uint64, error) { return parseSubject(c.Subject) }

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are never persisted; validity is proven by signature and exp.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived signed token exchanged for a new pair.
// Only a SHA-256 digest of Raw is stored server side.
type RefreshToken struct {
	Raw string    // signed token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user identity.
func NewAccessToken(secret string, id AccessIdentity, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, ErrMissingSecret
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := AccessClaims{
		Email:    id.Email,
		Username: id.Username,
		Fullname: id.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: claims.ExpiresAt.Time}, nil
}

// NewRefreshToken builds and signs an HS256 refresh JWT for userID.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (RefreshToken, error) {
	if secret == "" {
		return RefreshToken{}, ErrMissingSecret
	}
	now := time.Now().UTC()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Exp: claims.ExpiresAt.Time}, nil
}

// ParseAccessToken verifies signature and expiry of an access token and
// checks that the claim set matches the access schema.
func ParseAccessToken(raw, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(raw, secret, claims); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil || claims.Username == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token and
// checks that the claim set matches the refresh schema.
func ParseRefreshToken(raw, secret string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(raw, secret, claims); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil || claims.ID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string. Equal digests mean byte-equal tokens, so the stored digest is enough
// for the rotation check while a leaked row cannot be replayed.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// parse runs the HS256-only parser. The signature is verified before any
// claim is validated, so a forged token never reaches the expiry check.
func parse(raw, secret string, claims jwt.Claims) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if raw == "" {
		return ErrTokenMalformed
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}

func parseSubject(sub string) (uint64, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrTokenMalformed
	}
	return id, nil
}
