package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 mirrors snapshots into a single bucket. Object keys are
// <prefix>/<snapshot>/<relative path> with forward slashes.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Option customizes the client built by NewS3.
type S3Option func(*s3.Options)

// WithHTTPClient replaces the transport used by the S3 client.
func WithHTTPClient(c *http.Client) S3Option {
	return func(o *s3.Options) { o.HTTPClient = c }
}

// NewS3 creates an S3 mirror from cfg.
func NewS3(ctx context.Context, cfg Config, opts ...S3Option) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("mirror: s3 driver needs backup.mirror.bucket")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("mirror: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		for _, opt := range opts {
			opt(o)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// Driver implements Mirror.
func (m *S3) Driver() string { return DriverS3 }

// Key returns the object key of one snapshot file.
func (m *S3) Key(name, rel string) string {
	parts := []string{name, filepath.ToSlash(rel)}
	if m.prefix != "" {
		parts = append([]string{m.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Upload puts every regular file below dir. It stops at the first failure.
func (m *S3) Upload(ctx context.Context, name, dir string) (int, error) {
	files, err := listFiles(dir)
	if err != nil {
		return 0, err
	}
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := m.put(ctx, m.Key(name, rel), filepath.Join(dir, rel)); err != nil {
			return i, err
		}
	}
	return len(files), nil
}

func (m *S3) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("mirror: put %s: %w", key, err)
	}
	return nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// listFiles returns the regular files below dir as relative paths.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: list %s: %w", dir, err)
	}
	return files, nil
}
