package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	in := Session{Subject: "S1234567A", AuthType: models.AuthTypeMyInfo, UserInfo: "info"}

	tok, err := GenerateToken(in, secret, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "S1234567A", got.Subject)
	assert.Equal(t, models.AuthTypeMyInfo, got.AuthType)
	assert.Equal(t, "info", got.UserInfo)
	assert.False(t, got.Admin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, 2*time.Second)
}

func TestGenerateAndParse_CarriesPrefill(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	prefill := []models.PrefilledField{
		{Attr: "sex", FieldType: models.FieldTypeDropdown, Value: "MALE", ReadOnly: true},
		{Attr: "email", FieldType: models.FieldTypeEmail, Value: "a@b.sg"},
	}
	tok, err := GenerateToken(Session{Subject: "S1234567A", AuthType: models.AuthTypeMyInfo, Prefill: prefill}, secret, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, prefill, got.Prefill)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(Session{Subject: "u1"}, []byte("secret"), -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("secret"))
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(Session{Subject: "u2"}, []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.token", []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(s, []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RequiresSubjectAndExpiry(t *testing.T) {
	t.Parallel()

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken(noSub, []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken(noExp, []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSession_RemainingLifetime(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.Equal(t, time.Minute, s.RemainingLifetime(now))
	assert.Zero(t, s.RemainingLifetime(now.Add(2*time.Minute)))
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	s := &Session{Subject: "x"}
	got, ok := SessionFromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}
