package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/rs/zerolog"
)

// Dynamic token patterns that must not appear in settings values.
// These indicate unexpanded template variables.
var dynamicTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^}]+\}`),        // ${VAR}
	regexp.MustCompile(`\{\{[^}]+\}\}`),      // {{VAR}}
	regexp.MustCompile(`\$[A-Z_][A-Z0-9_]*`), // $VAR
}

// @MX:ANCHOR: [AUTO] Validate gates every command: the CLI refuses to start on invalid settings.
// @MX:REASON: [AUTO] called by ConfigManager.Load for every invocation
// Validate checks the settings for correctness.
// The loadedSections map indicates which sections were present in the file
// (as opposed to using defaults). Required field validation only applies
// to sections that were explicitly loaded.
func Validate(cfg *Config, loadedSections map[string]bool) error {
	var errs []ValidationError

	errs = append(errs, validateRequired(cfg, loadedSections)...)
	errs = append(errs, validateBackupConfig(&cfg.Backup)...)
	errs = append(errs, validateLoggingConfig(&cfg.Logging)...)
	errs = append(errs, validateURL("ireporter.base_url", cfg.IReporter.BaseURL, true)...)
	errs = append(errs, validateDynamicTokens(cfg)...)

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// validateRequired checks that required fields are populated for loaded sections.
func validateRequired(cfg *Config, loadedSections map[string]bool) []ValidationError {
	var errs []ValidationError

	if loadedSections["ireporter"] && cfg.IReporter.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "ireporter.base_url",
			Message: "required field is empty; remove the ireporter section or set base_url in kimm.yaml",
			Wrapped: ErrInvalidConfig,
		})
	}

	return errs
}

// validMirrorDrivers lists recognized mirror drivers.
var validMirrorDrivers = map[string]bool{
	"":     true,
	"none": true,
	"s3":   true,
	"dir":  true,
}

// validateBackupConfig checks the retention cap and the mirror.
func validateBackupConfig(b *BackupConfig) []ValidationError {
	var errs []ValidationError

	if b.Retention < 1 {
		errs = append(errs, ValidationError{
			Field:   "backup.retention",
			Message: "must be at least 1",
			Value:   b.Retention,
			Wrapped: ErrInvalidConfig,
		})
	}

	mr := b.Mirror
	switch {
	case !validMirrorDrivers[mr.Driver]:
		errs = append(errs, ValidationError{
			Field:   "backup.mirror.driver",
			Message: "must be one of: none, s3, dir",
			Value:   mr.Driver,
			Wrapped: ErrInvalidMirror,
		})
	case mr.Driver == "s3" && mr.Bucket == "":
		errs = append(errs, ValidationError{
			Field:   "backup.mirror.bucket",
			Message: "required when driver is s3",
			Wrapped: ErrInvalidMirror,
		})
	case mr.Driver == "dir" && mr.Dir == "":
		errs = append(errs, ValidationError{
			Field:   "backup.mirror.dir",
			Message: "required when driver is dir",
			Wrapped: ErrInvalidMirror,
		})
	}
	if mr.Endpoint != "" {
		errs = append(errs, validateURL("backup.mirror.endpoint", mr.Endpoint, false)...)
	}

	return errs
}

// validLogFormats lists recognized log formats.
var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// validateLoggingConfig checks the level, format and Loki endpoint.
func validateLoggingConfig(l *LoggingConfig) []ValidationError {
	var errs []ValidationError

	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic, disabled",
			Value:   l.Level,
			Wrapped: ErrInvalidConfig,
		})
	}
	if !validLogFormats[l.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be one of: text, json",
			Value:   l.Format,
			Wrapped: ErrInvalidConfig,
		})
	}
	if l.Loki.URL != "" {
		errs = append(errs, validateURL("logging.loki.url", l.Loki.URL, false)...)
	}

	return errs
}

// validateURL checks that raw is an absolute http(s) URL. Empty values pass
// unless required.
func validateURL(field, raw string, required bool) []ValidationError {
	if raw == "" {
		if !required {
			return nil
		}
		return []ValidationError{{Field: field, Message: "must not be empty", Wrapped: ErrInvalidConfig}}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []ValidationError{{
			Field:   field,
			Message: "must be an absolute http or https URL",
			Value:   raw,
			Wrapped: ErrInvalidConfig,
		}}
	}
	return nil
}

// validateDynamicTokens scans string settings for unexpanded dynamic tokens.
func validateDynamicTokens(cfg *Config) []ValidationError {
	var errs []ValidationError

	fields := map[string]string{
		"user.name":              cfg.User.Name,
		"logging.file":           cfg.Logging.File,
		"logging.loki.url":       cfg.Logging.Loki.URL,
		"metrics.textfile":       cfg.Metrics.Textfile,
		"ireporter.base_url":     cfg.IReporter.BaseURL,
		"backup.mirror.bucket":   cfg.Backup.Mirror.Bucket,
		"backup.mirror.prefix":   cfg.Backup.Mirror.Prefix,
		"backup.mirror.dir":      cfg.Backup.Mirror.Dir,
		"backup.mirror.endpoint": cfg.Backup.Mirror.Endpoint,
	}
	for field, value := range fields {
		if value == "" {
			continue
		}
		for _, pattern := range dynamicTokenPatterns {
			if pattern.MatchString(value) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("contains unexpanded dynamic token %q", pattern.FindString(value)),
					Value:   value,
					Wrapped: ErrDynamicToken,
				})
				break
			}
		}
	}

	return errs
}
