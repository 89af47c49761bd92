// Package cryptox holds the server-side cryptographic helpers: identity
// hashing and sealing of verified content to a form's public key.
//
// Sealed envelopes use the layout "<ephemeralPublicKey>;<nonce>:<ciphertext>"
// with every part standard base64 encoded, matching the format clients use
// for encrypted responses.
package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"golang.org/x/crypto/nacl/box"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	ErrMalformedEnvelope = errors.New("malformed encrypted envelope")
	ErrInvalidKey        = errors.New("invalid key")
	ErrDecrypt           = errors.New("unable to decrypt envelope")
)

// HashIdentity returns hex(HMAC-SHA256(secret, identity)). The result is
// stable for a given secret and safe to persist in place of the identity.
func HashIdentity(secret []byte, identity string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(identity))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateKeyPair returns a base64 encoded NaCl box key pair.
func GenerateKeyPair() (publicKey, secretKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(pub[:]), base64.StdEncoding.EncodeToString(priv[:]), nil
}

// SealVerifiedContent marshals v to JSON and seals it to publicKey using a
// fresh ephemeral key pair and nonce.
func SealVerifiedContent(publicKey string, v any) (string, error) {
	peer, err := decodeKey(publicKey)
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(ephPriv[:])

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	ciphertext := box.Seal(nil, plaintext, &nonce, peer, ephPriv)

	enc := base64.StdEncoding
	return enc.EncodeToString(ephPub[:]) + ";" + enc.EncodeToString(nonce[:]) + ":" + enc.EncodeToString(ciphertext), nil
}

// OpenEnvelope decrypts an envelope sealed to the key pair owning secretKey
// and unmarshals the JSON plaintext into v.
func OpenEnvelope(secretKey, envelope string, v any) error {
	priv, err := decodeKey(secretKey)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(priv[:])

	pub, nonce, ciphertext, err := splitEnvelope(envelope)
	if err != nil {
		return err
	}

	var pubKey [keySize]byte
	copy(pubKey[:], pub)
	var n [nonceSize]byte
	copy(n[:], nonce)

	plaintext, ok := box.Open(nil, ciphertext, &n, &pubKey, priv)
	if !ok {
		return ErrDecrypt
	}
	return json.Unmarshal(plaintext, v)
}

// IsEncryptedEnvelope reports whether s is well formed: three base64 parts
// with a 32 byte public key, a 24 byte nonce and a non-empty ciphertext.
func IsEncryptedEnvelope(s string) bool {
	_, _, _, err := splitEnvelope(s)
	return err == nil
}

func splitEnvelope(s string) (pub, nonce, ciphertext []byte, err error) {
	pubPart, rest, ok := strings.Cut(s, ";")
	if !ok {
		return nil, nil, nil, ErrMalformedEnvelope
	}
	noncePart, ctPart, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, nil, nil, ErrMalformedEnvelope
	}

	enc := base64.StdEncoding
	if pub, err = enc.DecodeString(pubPart); err != nil || len(pub) != keySize {
		return nil, nil, nil, ErrMalformedEnvelope
	}
	if nonce, err = enc.DecodeString(noncePart); err != nil || len(nonce) != nonceSize {
		return nil, nil, nil, ErrMalformedEnvelope
	}
	if ciphertext, err = enc.DecodeString(ctPart); err != nil || len(ciphertext) == 0 {
		return nil, nil, nil, ErrMalformedEnvelope
	}
	return pub, nonce, ciphertext, nil
}

func decodeKey(s string) (*[keySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, keySize, len(raw))
	}
	var k [keySize]byte
	copy(k[:], raw)
	common.WipeByteArray(raw)
	return &k, nil
}
