package config

import (
	"encoding/json"
	"os"

	"github.com/opengovsg/FormSG-sub011/internal/flagx"
	"github.com/opengovsg/FormSG-sub011/internal/timex"
)

// JsonConfig is the JSON file representation of Config. Interval fields use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
//
// Fields absent from the file keep the value already present in Config.
type JsonConfig struct {
	EndpointAddrHTTP     *string         `json:"endpoint_addr_http"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SessionSecret        *string         `json:"session_secret"`
	SessionMaxAge        *timex.Duration `json:"session_max_age"`
	AutofillHashCost     *int            `json:"autofill_hash_cost"`
	CaptchaSecret        *string         `json:"captcha_secret"`
	CaptchaVerifyURL     *string         `json:"captcha_verify_url"`
	CaptchaTimeout       *timex.Duration `json:"captcha_timeout"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	UploadConcurrency    *int            `json:"upload_concurrency"`
	ExportURLMaxValidity *timex.Duration `json:"export_url_max_validity"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionMaxAge != nil {
		config.SessionMaxAge = c.SessionMaxAge.Duration
	}
	if c.AutofillHashCost != nil {
		config.AutofillHashCost = *c.AutofillHashCost
	}
	setString(&config.CaptchaSecret, c.CaptchaSecret)
	setString(&config.CaptchaVerifyURL, c.CaptchaVerifyURL)
	if c.CaptchaTimeout != nil {
		config.CaptchaTimeout = c.CaptchaTimeout.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.UploadConcurrency != nil {
		config.UploadConcurrency = *c.UploadConcurrency
	}
	if c.ExportURLMaxValidity != nil {
		config.ExportURLMaxValidity = c.ExportURLMaxValidity.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
