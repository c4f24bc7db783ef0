// Package logging builds the process logger from the logging section of
// kimm.yaml: a console or JSON writer, an optional log file below logs/ and
// an optional Grafana Loki sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grafana/loki-client-go/loki"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/kim-interface/kimm/internal/config"
	"github.com/kim-interface/kimm/internal/defs"
)

// Stderr selects standard error as the log file.
const Stderr = "-"

// Setup creates a zerolog logger according to the provided configuration.
// Relative file names resolve under logsDir. The returned cleanup flushes
// the Loki client and closes the log file.
func Setup(cfg config.LoggingConfig, logsDir string) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	out, closeFile, err := openOutput(cfg.File, logsDir)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	writers := []io.Writer{formatWriter(out, cfg)}
	closers := []func(){closeFile}

	if cfg.Loki.URL != "" {
		lokiWriter, closer, err := newLokiWriter(cfg.Loki)
		if err != nil {
			closeFile()
			return zerolog.Logger{}, nil, err
		}
		writers = append(writers, lokiWriter)
		closers = append(closers, closer)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	multi := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multi).With().Timestamp().Logger().Level(level)
	return logger, cleanup, nil
}

// openOutput resolves the configured log file. An empty name is stderr.
func openOutput(name, logsDir string) (io.Writer, func(), error) {
	if name == "" || name == Stderr {
		return os.Stderr, func() {}, nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(logsDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), defs.DirPerm); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defs.FilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// formatWriter wraps out in a console writer for the text format. Colors
// are only used on a terminal.
func formatWriter(out io.Writer, cfg config.LoggingConfig) io.Writer {
	if !strings.EqualFold(cfg.Format, "text") {
		return out
	}
	noColor := cfg.NoColor
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
}

func newLokiWriter(cfg config.LokiConfig) (io.Writer, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("loki url is required")
	}
	lokiCfg, err := loki.NewDefaultConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare loki config: %w", err)
	}
	lokiCfg.TenantID = cfg.TenantID
	client, err := loki.New(lokiCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create loki client: %w", err)
	}

	writer := &lokiWriter{client: client, labels: Labels(cfg.Labels)}
	cleanup := func() {
		client.Stop()
	}
	return writer, cleanup, nil
}

// Labels converts configured labels into a Loki label set. An empty set
// gets the job label.
func Labels(in map[string]string) model.LabelSet {
	labels := model.LabelSet{}
	for k, v := range in {
		labels[model.LabelName(k)] = model.LabelValue(v)
	}
	if len(labels) == 0 {
		labels["job"] = model.LabelValue(config.DefaultLokiJobLabel)
	}
	return labels
}

type lokiWriter struct {
	client *loki.Client
	labels model.LabelSet
}

func (l *lokiWriter) Write(p []byte) (int, error) {
	entry := strings.TrimSpace(string(p))
	if entry == "" {
		return len(p), nil
	}
	err := l.client.Handle(l.labels, time.Now(), entry)
	return len(p), err
}
