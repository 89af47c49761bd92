package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"endpoint_addr_http":      "www.example:9000",
		"database_dsn":            "postgres://db",
		"session_secret":          "my_secret",
		"session_max_age":         "45m",
		"autofill_hash_cost":      5,
		"captcha_secret":          "cs",
		"captcha_verify_url":      "http://verify",
		"captcha_timeout":         3000000000,
		"s3_root_user":            "user",
		"s3_root_password":        "password",
		"s3_bucket":               "bucket",
		"s3_region":               "region",
		"s3_base_endpoint":        "base_endpoint",
		"upload_concurrency":      2,
		"export_url_max_validity": "1h",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, Config{
			EndpointAddrHTTP:     "www.example:9000",
			DatabaseDSN:          "postgres://db",
			SessionSecret:        "my_secret",
			SessionMaxAge:        45 * time.Minute,
			AutofillHashCost:     5,
			CaptchaSecret:        "cs",
			CaptchaVerifyURL:     "http://verify",
			CaptchaTimeout:       3 * time.Second,
			S3RootUser:           "user",
			S3RootPassword:       "password",
			S3Bucket:             "bucket",
			S3Region:             "region",
			S3BaseEndpoint:       "base_endpoint",
			UploadConcurrency:    2,
			ExportURLMaxValidity: time.Hour,
		}, *cfg)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"database_dsn": "memory://"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		var want Config
		want.LoadDefaults()
		want.DatabaseDSN = "memory://"
		assert.Equal(t, want, *cfg)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SessionMaxAge: time.Minute}
		parseJson(cfg)

		assert.Equal(t, Config{EndpointAddrHTTP: "defaults:1234", SessionMaxAge: time.Minute}, *cfg)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
