// Package sink synchronizes local artifacts to remote object storage.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hashback/hashback/internal/domain"
	internalhttp "github.com/hashback/hashback/internal/http"
)

// Config holds connection settings for an S3-compatible object store.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	Bucket        string
	UploadTimeout time.Duration
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("remote endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("remote endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("remote access_key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("remote secret_key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("remote bucket is required")
	}
	return nil
}

// ObjectStore implements domain.RemoteSink against an S3-compatible
// backend. Containers map to key prefixes inside one bucket; uploads are
// upserts keyed by object name, so retries never create duplicates.
type ObjectStore struct {
	client *minio.Client
	cfg    Config
	retry  internalhttp.RetryConfig
	logger *slog.Logger
}

// Option configures an ObjectStore.
type Option func(*ObjectStore)

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg internalhttp.RetryConfig) Option {
	return func(s *ObjectStore) {
		s.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ObjectStore) {
		s.logger = logger
	}
}

// New creates an ObjectStore connected to the configured endpoint.
func New(cfg Config, opts ...Option) (*ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	s := &ObjectStore{
		client: client,
		cfg:    cfg,
		retry:  internalhttp.DefaultRetryConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// EnsureContainer makes sure the bucket exists and returns the key prefix
// for the named sub-container under parentID. Prefixes need no remote
// creation, so repeated calls trivially return the same id.
func (s *ObjectStore) EnsureContainer(ctx context.Context, name, parentID string) (string, error) {
	err := s.withRetry(ctx, "ensure container", func(ctx context.Context) error {
		exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		err = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
		// A concurrent run may have created it between the two calls.
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSink, err)
	}

	return containerKey(parentID, name), nil
}

// Upload upserts the artifact into the container, keyed by filename. An
// object of the same key is replaced in place; a missing one is created.
func (s *ObjectStore) Upload(ctx context.Context, artifact domain.Artifact, containerID string) (domain.RemoteFileRef, error) {
	name := filepath.Base(artifact.LocalPath)
	key := containerID + name

	var ref domain.RemoteFileRef
	err := s.withRetry(ctx, "upload "+name, func(ctx context.Context) error {
		existing, err := s.lookup(ctx, key)
		if err != nil {
			return err
		}
		if existing.Found {
			s.logger.Debug("replacing remote object", "key", key, "etag", existing.ID)
		} else {
			s.logger.Debug("creating remote object", "key", key)
		}

		info, err := s.client.FPutObject(ctx, s.cfg.Bucket, key, artifact.LocalPath,
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
		if err != nil {
			return err
		}

		remoteID := info.ETag
		if info.VersionID != "" {
			remoteID = info.VersionID
		}
		ref = domain.RemoteFileRef{
			RemoteID:    remoteID,
			Name:        name,
			ContainerID: containerID,
		}
		return nil
	})
	if err != nil {
		return domain.RemoteFileRef{}, fmt.Errorf("%w: %v", domain.ErrSink, err)
	}

	return ref, nil
}

// objectLookup is the typed result of a by-name object lookup.
type objectLookup struct {
	Found bool
	ID    string
}

// lookup checks whether an object already exists at key.
func (s *ObjectStore) lookup(ctx context.Context, key string) (objectLookup, error) {
	info, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return objectLookup{}, nil
		}
		return objectLookup{}, err
	}
	return objectLookup{Found: true, ID: info.ETag}, nil
}

// Validate checks that the endpoint is reachable and the bucket visible.
func (s *ObjectStore) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.client.BucketExists(ctx, s.cfg.Bucket); err != nil {
		return fmt.Errorf("object store not reachable at %s: %w", s.cfg.Endpoint, err)
	}
	return nil
}

// withRetry runs fn with bounded attempts and exponential backoff. Every
// sink operation is idempotent, so retrying is always safe. Each attempt
// is bounded by the configured upload timeout.
func (s *ObjectStore) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.UploadTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < s.retry.MaxAttempts {
			delay := internalhttp.Backoff(s.retry, attempt)
			s.logger.Warn("sink operation failed, retrying",
				"op", op,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, s.retry.MaxAttempts, lastErr)
}

// containerKey joins a parent prefix and container name into an object key
// prefix ending in "/".
func containerKey(parentID, name string) string {
	joined := path.Join(parentID, name)
	joined = strings.Trim(joined, "/")
	if joined == "" {
		return ""
	}
	return joined + "/"
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Ensure ObjectStore implements domain.RemoteSink.
var _ domain.RemoteSink = (*ObjectStore)(nil)
