package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIdentity(t *testing.T) {
	secret := []byte("session-secret")

	h1 := HashIdentity(secret, "S1234567A")
	h2 := HashIdentity(secret, "S1234567A")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "S1234567A")

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("S1234567A"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), h1)

	assert.NotEqual(t, h1, HashIdentity(secret, "S7654321B"))
	assert.NotEqual(t, h1, HashIdentity([]byte("other"), "S1234567A"))
}

func TestSealVerifiedContent_RoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	in := map[string]string{"uinFin": "S1234567A"}
	env, err := SealVerifiedContent(pub, in)
	require.NoError(t, err)
	assert.True(t, IsEncryptedEnvelope(env))

	var out map[string]string
	require.NoError(t, OpenEnvelope(priv, env, &out))
	assert.Equal(t, in, out)
}

func TestSealVerifiedContent_FreshNonce(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	a, err := SealVerifiedContent(pub, "x")
	require.NoError(t, err)
	b, err := SealVerifiedContent(pub, "x")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealVerifiedContent_BadKey(t *testing.T) {
	_, err := SealVerifiedContent("not base64!", "x")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = SealVerifiedContent(base64.StdEncoding.EncodeToString([]byte("short")), "x")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestOpenEnvelope_WrongKey(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)
	_, otherPriv, err := GenerateKeyPair()
	require.NoError(t, err)

	env, err := SealVerifiedContent(pub, "x")
	require.NoError(t, err)

	var out string
	assert.ErrorIs(t, OpenEnvelope(otherPriv, env, &out), ErrDecrypt)
}

func TestIsEncryptedEnvelope(t *testing.T) {
	enc := base64.StdEncoding
	key := enc.EncodeToString(make([]byte, 32))
	nonce := enc.EncodeToString(make([]byte, 24))
	ct := enc.EncodeToString([]byte("ciphertext"))

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", key + ";" + nonce + ":" + ct, true},
		{"empty", "", false},
		{"no separator", key + nonce + ct, false},
		{"no colon", key + ";" + nonce + ct, false},
		{"short key", enc.EncodeToString(make([]byte, 16)) + ";" + nonce + ":" + ct, false},
		{"short nonce", key + ";" + enc.EncodeToString(make([]byte, 8)) + ":" + ct, false},
		{"empty ciphertext", key + ";" + nonce + ":", false},
		{"not base64", key + ";" + nonce + ":" + strings.Repeat("!", 8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEncryptedEnvelope(tt.in))
		})
	}
}
