package defs

// Directory names of the environment layout, relative to the environment root.
const (
	// ConfigDir holds the root document and the mapping configuration tree.
	ConfigDir = "config"

	// MappingsDir holds one directory per Model under ConfigDir.
	MappingsDir = "mapping configurations"

	// LogsDir holds the changelog and the runtime log.
	LogsDir = "logs"

	// BackupsDir holds the latest and past snapshot slots.
	BackupsDir = "bin/backups"

	// LatestSlot is the single most recent copy of ConfigDir.
	LatestSlot = "latest"

	// PastSlot holds the bounded set of timestamped snapshots.
	PastSlot = "past"
)

// Common file names used across the project.
const (
	// RootJSON is the root document listing every Model and Machine.
	RootJSON = "KIM_interface_configuration.json"

	// ChangelogTXT is the append-only audit log of persisted edits.
	ChangelogTXT = "changelog.txt"

	// RuntimeLogTXT is written by the i-Reporter interface script; kimm only reads it.
	RuntimeLogTXT = "runtime_log.txt"

	// ResultsTXT holds the latest script results at the environment root; kimm only reads it.
	ResultsTXT = "results.txt"

	// SettingsYAML is the manager settings file at the environment root.
	SettingsYAML = "kimm.yaml"

	// SnapshotJSON marks a past snapshot with its creation metadata.
	SnapshotJSON = "snapshot.json"

	// ReleaseNotesMD is rendered by the notes command when present.
	ReleaseNotesMD = "CHANGELOG.md"

	// MachineExt is the extension of every machine document.
	MachineExt = ".json"
)

// File and directory permissions.
const (
	DirPerm  = 0o755
	FilePerm = 0o644
)
