// Package mirror copies finished backup snapshots off the machine, either to
// an S3-compatible bucket or to another directory such as a network share.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kim-interface/kimm/internal/fsutil"
)

// Driver names accepted in the backup.mirror.driver setting.
const (
	DriverNone = "none"
	DriverS3   = "s3"
	DriverDir  = "dir"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("mirror: unknown driver")

// Mirror uploads one snapshot directory under the given name.
type Mirror interface {
	Driver() string
	Upload(ctx context.Context, name, dir string) (int, error)
}

// Config holds the construction parameters of every driver.
type Config struct {
	Driver          string
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO and other S3-compatible stores
	Prefix          string
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default credentials chain
	SecretAccessKey string
	Dir             string
}

// Open builds the mirror selected by cfg.Driver. An empty or "none" driver
// returns a nil Mirror and no error.
func Open(ctx context.Context, cfg Config) (Mirror, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverS3:
		return NewS3(ctx, cfg)
	case DriverDir:
		return NewDir(cfg.Dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Dir mirrors snapshots into a local or mounted directory.
type Dir struct {
	root string
}

// NewDir returns a directory mirror rooted at root.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("mirror: dir driver needs backup.mirror.dir")
	}
	return &Dir{root: root}, nil
}

// Driver implements Mirror.
func (d *Dir) Driver() string { return DriverDir }

// Upload copies dir to <root>/<name>. An existing copy is left untouched.
func (d *Dir) Upload(ctx context.Context, name, dir string) (int, error) {
	target := filepath.Join(d.root, name)
	if fsutil.Exists(target) {
		return 0, nil
	}
	files, err := listFiles(dir)
	if err != nil {
		return 0, err
	}
	if err := fsutil.CopyTree(ctx, dir, target); err != nil {
		return 0, fmt.Errorf("mirror %s: %w", name, err)
	}
	return len(files), nil
}
