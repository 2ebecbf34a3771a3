// Package logger builds the application's logrus logger
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction
type Options struct {
	Level       string
	Environment string
	// Dir receives a daily log file app_YYYYMMDD.log. Empty disables file output.
	Dir string
}

// New creates a logger writing to stdout and, when configured, to a daily log file.
// The returned closer releases the file and is never nil.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", opts.Level, err)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	env := strings.ToLower(opts.Environment)
	if env == "production" || env == "staging" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if opts.Dir == "" {
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(DailyFile(opts.Dir, time.Now()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	log.Debugf("Log level set to: %s", log.GetLevel().String())
	return log, f, nil
}

// DailyFile returns the log file path for the given day
func DailyFile(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("app_%s.log", t.Format("20060102")))
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
