package config

import (
	"flag"
	"os"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-s", "-t", "-w", "-k", "-v", "-x",
	"-u", "-p", "-b", "-g", "-e", "-n", "-l",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or memory://
//	-s string   session secret
//	-t int      session max age, minutes
//	-w int      autofill bcrypt cost
//	-k string   reCAPTCHA secret
//	-v string   reCAPTCHA verify URL
//	-x int      reCAPTCHA timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-n int      attachment upload concurrency
//	-l int      export URL max validity, minutes
//
// os.Args is filtered with flagx.FilterArgs first so the -c/-config flag and
// unrelated arguments do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	sessionMaxAge := fs.Int("t", int(config.SessionMaxAge.Minutes()), "session max age (in minutes)")
	fs.IntVar(&config.AutofillHashCost, "w", config.AutofillHashCost, "autofill bcrypt cost")

	fs.StringVar(&config.CaptchaSecret, "k", config.CaptchaSecret, "reCAPTCHA secret")
	fs.StringVar(&config.CaptchaVerifyURL, "v", config.CaptchaVerifyURL, "reCAPTCHA verify URL")
	captchaTimeout := fs.Int("x", int(config.CaptchaTimeout.Seconds()), "reCAPTCHA timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.UploadConcurrency, "n", config.UploadConcurrency, "attachment upload concurrency")
	exportValidity := fs.Int("l", int(config.ExportURLMaxValidity.Minutes()), "export URL max validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionMaxAge = time.Duration(*sessionMaxAge) * time.Minute
	config.CaptchaTimeout = time.Duration(*captchaTimeout) * time.Second
	config.ExportURLMaxValidity = time.Duration(*exportValidity) * time.Minute
}
