// Package server wires the submission server together. It selects the
// document and blob stores from configuration, builds the admission and
// export services, and runs the HTTP server until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/admission"
	"github.com/opengovsg/FormSG-sub011/internal/server/attachments"
	"github.com/opengovsg/FormSG-sub011/internal/server/autofill"
	"github.com/opengovsg/FormSG-sub011/internal/server/blobstore"
	"github.com/opengovsg/FormSG-sub011/internal/server/captcha"
	"github.com/opengovsg/FormSG-sub011/internal/server/config"
	"github.com/opengovsg/FormSG-sub011/internal/server/export"
	"github.com/opengovsg/FormSG-sub011/internal/server/httpapi"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/autofillhashes"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/memory"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/repomanager"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/submissions"
)

// Seams for tests.
var (
	openPostgres   = repomanager.OpenPostgres
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newS3Store     = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) { return blobstore.NewS3Store(ctx, c) }
)

type stores struct {
	forms       forms.Repository
	submissions submissions.Repository
	hashes      autofillhashes.Repository
	blobs       blobstore.Store
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	st, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	secret := []byte(c.SessionSecret)
	af := autofill.NewService(st.hashes, secret, c.AutofillHashCost, logger.With("module", "autofill"))

	admitter := admission.NewAdmitter(admission.Deps{
		Forms:       st.forms,
		Submissions: st.submissions,
		Captcha:     captcha.NewClient(c.CaptchaSecret, c.CaptchaVerifyURL, c.CaptchaTimeout),
		Autofill:    af,
		Attachments: attachments.NewAddressor(st.blobs, c.UploadConcurrency, logger.With("module", "attachments")),
		Logger:      logger.With("module", "admission"),
	})

	app.http = httpapi.NewServer(c.EndpointAddrHTTP, httpapi.Deps{
		Forms:          st.forms,
		Admitter:       admitter,
		Autofill:       af,
		Prefill:        autofill.SessionProvider{},
		Exporter:       export.NewStreamer(st.submissions, st.blobs, logger.With("module", "export")),
		SessionSecret:  secret,
		MaxURLValidity: c.ExportURLMaxValidity,
		Logger:         logger,
	})
	return app, nil
}

func (app *App) openStores(ctx context.Context) (*stores, error) {
	c := app.config

	if c.DatabaseDSN == config.MemoryDSN {
		app.logger.Warn(ctx, "using in-memory document and blob stores")
		m := memory.NewStore()
		return &stores{
			forms:       m.Forms(),
			submissions: m.Submissions(),
			hashes:      m.AutofillHashes(),
			blobs:       blobstore.NewMemoryStore(),
		}, nil
	}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := newS3Store(ctx, blobstore.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	app.db = db
	return &stores{
		forms:       rm.Forms(db),
		submissions: rm.Submissions(db),
		hashes:      rm.AutofillHashes(db),
		blobs:       blobs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a shutdown signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "failed to close database", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
