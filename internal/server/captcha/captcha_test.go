package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("shh", srv.URL, timeout)
}

func TestVerify_Success(t *testing.T) {
	c := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "shh", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}, time.Second)

	assert.NoError(t, c.Verify(context.Background(), "tok", "10.0.0.1"))
}

func TestVerify_MissingToken(t *testing.T) {
	called := false
	c := newVerifier(t, func(w http.ResponseWriter, r *http.Request) { called = true }, time.Second)

	assert.ErrorIs(t, c.Verify(context.Background(), "", "10.0.0.1"), ErrMissingToken)
	assert.False(t, called)
}

func TestVerify_Incorrect(t *testing.T) {
	c := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}, time.Second)

	err := c.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrIncorrect)
	assert.ErrorContains(t, err, "invalid-input-response")
}

func TestVerify_Unreachable(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"bad body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) }},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVerifier(t, tt.h, 50*time.Millisecond)
			assert.ErrorIs(t, c.Verify(context.Background(), "tok", ""), ErrUnreachable)
		})
	}
}

func TestVerify_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient("shh", url, time.Second)
	assert.ErrorIs(t, c.Verify(context.Background(), "tok", ""), ErrUnreachable)
}
