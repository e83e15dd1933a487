package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = AccessIdentity{UserID: 42, Username: "alice", Email: "alice@example.com", Fullname: "Alice Liddell"}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("access-secret", testIdentity, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 2*time.Second)

	claims, err := ParseAccessToken(tok.Token, "access-secret")
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice Liddell", claims.Fullname)
	assert.NotNil(t, claims.IssuedAt)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewRefreshToken("refresh-secret", 7, 24*time.Hour)
	require.NoError(t, err)

	claims, err := ParseRefreshToken(tok.Raw, "refresh-secret")
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshToken_UniqueWithinSameSecond(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshToken("refresh-secret", 7, time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken("refresh-secret", 7, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a.Raw, b.Raw)
	assert.NotEqual(t, HashRefreshRaw(a.Raw), HashRefreshRaw(b.Raw))
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("right-secret", testIdentity, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(tok.Token, "wrong-secret")
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParse_FlippedPayloadByte(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", testIdentity, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok.Token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	forged := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = ParseAccessToken(forged, "secret")
	require.Error(t, err)
	assert.True(t, err == ErrTokenSignatureInvalid || err == ErrTokenMalformed, "unexpected error %v", err)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", testIdentity, -1*time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(tok.Token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)

	ref, err := NewRefreshToken("secret", 1, -1*time.Minute)
	require.NoError(t, err)

	_, err = ParseRefreshToken(ref.Raw, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_ExpiredAndForgedReportsSignature(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", testIdentity, -1*time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(tok.Token, "other")
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		_, err := ParseAccessToken(raw, "secret")
		assert.ErrorIs(t, err, ErrTokenMalformed, raw)
	}
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := AccessClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(raw, "secret")
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParse_SchemaMismatch(t *testing.T) {
	t.Parallel()

	// A refresh token carries no username, so it never passes as an access token.
	ref, err := NewRefreshToken("secret", 5, time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken(ref.Raw, "secret")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	// An access token carries no jti, so it never passes as a refresh token.
	acc, err := NewAccessToken("secret", testIdentity, time.Hour)
	require.NoError(t, err)
	_, err = ParseRefreshToken(acc.Token, "secret")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParse_NonNumericSubject(t *testing.T) {
	t.Parallel()

	claims := AccessClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseAccessToken(raw, "secret")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestMissingSecret(t *testing.T) {
	t.Parallel()

	_, err := NewAccessToken("", testIdentity, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = NewRefreshToken("", 1, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = ParseRefreshToken("x.y.z", "")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestHashRefreshRaw(t *testing.T) {
	t.Parallel()

	h := HashRefreshRaw("token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("token"))
	assert.NotEqual(t, h, HashRefreshRaw("token2"))
}
