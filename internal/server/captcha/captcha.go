// Package captcha verifies reCAPTCHA response tokens against the siteverify
// endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingToken = errors.New("captcha token missing")
	ErrIncorrect    = errors.New("captcha incorrect")
	ErrUnreachable  = errors.New("captcha verifier unreachable")
)

// Verifier checks a token issued to the client at remoteIP. It returns nil
// on pass and one of the package errors otherwise.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Client is a Verifier backed by the reCAPTCHA siteverify API.
type Client struct {
	secret    string
	verifyURL string
	timeout   time.Duration
	http      *http.Client
}

func NewClient(secret, verifyURL string, timeout time.Duration) *Client {
	return &Client{
		secret:    secret,
		verifyURL: verifyURL,
		timeout:   timeout,
		http:      &http.Client{},
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the verifier. Transport failures, timeouts and
// non-2xx replies all map to ErrUnreachable.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrMissingToken
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrUnreachable, err)
	}
	if !body.Success {
		return fmt.Errorf("%w: %s", ErrIncorrect, strings.Join(body.ErrorCodes, ","))
	}
	return nil
}
