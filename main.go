package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmuoria/placement-agency/internal/api"
	"github.com/fmuoria/placement-agency/internal/auth"
	"github.com/fmuoria/placement-agency/internal/config"
	"github.com/fmuoria/placement-agency/internal/export"
	"github.com/fmuoria/placement-agency/internal/interview"
	"github.com/fmuoria/placement-agency/internal/logger"
	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/fmuoria/placement-agency/internal/sheets"
	"github.com/fmuoria/placement-agency/internal/status"
	"github.com/sirupsen/logrus"
)

func main() {
	reportPath := flag.String("interviews-report", "", "write the interview records report to this .xlsx path and exit")
	writeConfig := flag.Bool("write-config", false, "save the effective configuration (without secrets) to the config file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig {
		path, err := config.GetConfigPath()
		if err == nil {
			err = cfg.SaveTo(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved to %s\n", path)
		return
	}

	log, closer, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		Dir:         cfg.LogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx := context.Background()
	client, err := newClient(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize spreadsheet client")
	}

	ttl, _ := cfg.SessionDuration()
	rememberTTL, _ := cfg.RememberMeDuration()
	tokens := auth.NewTokenIssuer([]byte(cfg.SessionSecret), ttl, rememberTTL)

	authService := auth.NewService(client, tokens, log)
	sync := status.NewSynchronizer(client, log)
	exporter := interview.NewExporter(client, sync, log)

	if *reportPath != "" {
		if err := writeInterviewsReport(ctx, exporter, *reportPath, log); err != nil {
			log.WithError(err).Fatal("Failed to write interview report")
		}
		return
	}

	server := api.NewServer(authService, tokens, exporter, sync, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"store":       cfg.Store,
		"environment": cfg.Environment,
	}).Info("Starting Placement Agency Portal")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server failed to start")
	}

	<-idleConnsClosed
}

// newClient opens the configured spreadsheet backend
func newClient(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (sheets.Client, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("Using in-memory spreadsheet, data is lost on exit")
		client := sheets.NewSeededMemoryClient()
		if cfg.AdminPassword != "" {
			client.SetValues(sheets.TabUsers, [][]string{
				sheets.DefaultHeaders[sheets.TabUsers],
				{"admin", auth.HashPassword(cfg.AdminPassword), models.RoleAdmin, "Administrator", "", models.UserStatusActive, time.Now().Format("2006-01-02")},
			})
			log.Info("Seeded admin account")
		}
		return client, nil
	}

	creds, err := sheets.LoadCredentials(cfg.CredentialsPath, cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	return sheets.NewServiceAccountClient(ctx, cfg.SpreadsheetID, creds)
}

func writeInterviewsReport(ctx context.Context, exporter *interview.Exporter, path string, log logrus.FieldLogger) error {
	records, err := exporter.List(ctx)
	if err != nil {
		return err
	}

	written, err := export.SaveFile(path, func(w io.Writer) error {
		return export.Interviews(w, records, time.Now())
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"path": written, "records": len(records)}).Info("Interview report written")
	return nil
}
