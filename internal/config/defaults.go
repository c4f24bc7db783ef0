package config

import (
	"github.com/kim-interface/kimm/pkg/version"
)

// Default value constants to avoid magic numbers and strings.
const (
	DefaultRetention     = 25
	DefaultMirrorDriver  = "none"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultLogFile       = "kimm.log"
	DefaultIReporterURL  = "http://10.1.30.90:3000/api/v1/getvalue/KIM_Interface"
	DefaultLokiJobLabel  = "kimm"
	DefaultMetricsOutput = ""
)

// NewDefaultConfig returns a Config with all fields set to compiled defaults.
func NewDefaultConfig() *Config {
	return &Config{
		User:      UserConfig{},
		Backup:    NewDefaultBackupConfig(),
		Machine:   MachineConfig{SeedDefaultMapping: false},
		Logging:   NewDefaultLoggingConfig(),
		Metrics:   MetricsConfig{Textfile: DefaultMetricsOutput},
		IReporter: IReporterConfig{BaseURL: DefaultIReporterURL},
		Release:   NewDefaultReleaseConfig(),
	}
}

// NewDefaultBackupConfig returns a BackupConfig with default values.
func NewDefaultBackupConfig() BackupConfig {
	return BackupConfig{
		Retention: DefaultRetention,
		OnStart:   true,
		Mirror:    MirrorConfig{Driver: DefaultMirrorDriver},
	}
}

// NewDefaultLoggingConfig returns a LoggingConfig with default values.
func NewDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  DefaultLogLevel,
		Format: DefaultLogFormat,
		File:   DefaultLogFile,
		Loki: LokiConfig{
			Labels: map[string]string{"job": DefaultLokiJobLabel},
		},
	}
}

// NewDefaultReleaseConfig returns the build's version information.
func NewDefaultReleaseConfig() ReleaseConfig {
	return ReleaseConfig{
		Version:     version.Version,
		VersionDate: version.VersionDate,
	}
}
