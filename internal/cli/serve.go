package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgallion1/linkpost/internal/config"
	"github.com/dgallion1/linkpost/internal/linkedin"
	"github.com/dgallion1/linkpost/internal/newsletter"
	"github.com/dgallion1/linkpost/internal/pipeline"
	"github.com/dgallion1/linkpost/internal/session"
	"github.com/dgallion1/linkpost/internal/web"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(os.Stdout)
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, err := session.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		cleanupSessions(janitorCtx, store, log)
	}()
	defer func() {
		stopJanitor()
		<-janitorDone
	}()

	li := linkedin.NewClient(cfg.LinkedInAPIURL)
	defer li.Close()

	deps := web.Deps{
		Sessions: store,
		LinkedIn: li,
		OAuth:    linkedin.OAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL),
	}

	var orch *pipeline.Orchestrator
	if cfg.NewsletterEnabled() {
		stats := newsletter.NewLLMStats(time.Hour)
		agent, err := newsletter.NewAgent(ctx, newsletter.Options{
			APIKey:        cfg.GoogleAPIKey,
			Model:         cfg.GeminiModel,
			MaxToolRounds: cfg.MaxToolRounds,
		}, newsProvider(cfg, log), stats, log)
		if err != nil {
			return err
		}
		defer agent.Close()

		orch = pipeline.NewOrchestrator(agent, pipeline.Options{
			WorkerCount:  cfg.WorkerCount,
			MaxQueueSize: cfg.MaxQueueSize,
			JobTTL:       cfg.JobTTL,
		}, log)
		// Workers keep running while requests drain; Stop ends them.
		orch.Start(context.WithoutCancel(ctx))
		defer orch.Stop()
		deps.Newsletters = orch
		deps.Stats = stats
	} else {
		log.Warn("GOOGLE_API_KEY not set, newsletter generation disabled")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      web.NewServer(cfg, deps, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var challenge *http.Server
	if len(cfg.TLSDomains) > 0 {
		tlsConf, acme, err := managedTLS(ctx, cfg)
		if err != nil {
			return err
		}
		httpServer.Addr = ":443"
		httpServer.TLSConfig = tlsConf
		challenge = &http.Server{
			Addr:              ":80",
			Handler:           acme.HTTPChallengeHandler(http.HandlerFunc(redirectHTTPS)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http challenge server", "error", err)
			}
		}()
	}

	log.Info("starting linkpost",
		"addr", httpServer.Addr,
		"tls_domains", cfg.TLSDomains,
		"newsletter", cfg.NewsletterEnabled(),
		"max_upload", humanize.Bytes(uint64(cfg.MaxUploadBytes)),
	)
	listen := httpServer.ListenAndServe
	if httpServer.TLSConfig != nil {
		listen = func() error { return httpServer.ListenAndServeTLS("", "") }
	}
	return runUntilDone(ctx, httpServer, listen, func(shutdownCtx context.Context) {
		if challenge != nil {
			challenge.Shutdown(shutdownCtx)
		}
		if orch != nil {
			orch.Stop()
		}
	}, log)
}

const shutdownTimeout = 10 * time.Second

// runUntilDone runs listen until ctx is done or listen fails, then drains
// srv. It returns only after in-flight requests have finished and drained
// has run, so callers can close what the handlers use.
func runUntilDone(ctx context.Context, srv *http.Server, listen func() error, drained func(context.Context), log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
		drained(shutdownCtx)
	}()

	err := listen()
	cancel()
	<-done
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// managedTLS obtains certificates for the configured domains from Let's
// Encrypt, storing them next to the session database.
func managedTLS(ctx context.Context, cfg config.Config) (*tls.Config, *certmagic.ACMEIssuer, error) {
	storage := filepath.Join(filepath.Dir(cfg.DatabasePath), "certmagic")
	if err := os.MkdirAll(storage, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: storage}
	issuer := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:     certmagic.LetsEncryptProductionCA,
		Email:  cfg.ACMEEmail,
		Agreed: true,
	})
	cm.Issuers = []certmagic.Issuer{issuer}

	if err := cm.ManageSync(ctx, cfg.TLSDomains); err != nil {
		return nil, nil, fmt.Errorf("obtain certificates: %w", err)
	}
	tlsConf := cm.TLSConfig()
	tlsConf.MinVersion = tls.VersionTLS12
	return tlsConf, issuer, nil
}

func redirectHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + r.Host + r.URL.RequestURI()
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func cleanupSessions(ctx context.Context, store *session.Store, log *slog.Logger) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Cleanup(ctx)
			if err != nil {
				log.Error("session cleanup", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
