// Package producer provides implementations of the Producer interface.
package producer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashback/hashback/internal/domain"
)

// DirectoryArchiver packages a directory tree into a single compressed
// tar.gz artifact.
type DirectoryArchiver struct {
	logger *slog.Logger
}

// DirectoryOption configures a DirectoryArchiver.
type DirectoryOption func(*DirectoryArchiver)

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(logger *slog.Logger) DirectoryOption {
	return func(a *DirectoryArchiver) {
		a.logger = logger
	}
}

// NewDirectoryArchiver creates a new DirectoryArchiver.
func NewDirectoryArchiver(opts ...DirectoryOption) *DirectoryArchiver {
	a := &DirectoryArchiver{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Produce archives spec.Path into <destDir>/<name>.tar.gz. A source path
// that does not exist or is not a directory wraps domain.ErrSourceMissing.
func (a *DirectoryArchiver) Produce(ctx context.Context, spec domain.ArtifactSpec, destDir string) (domain.Artifact, error) {
	info, err := os.Stat(spec.Path)
	if os.IsNotExist(err) {
		return domain.Artifact{}, fmt.Errorf("%w: directory %s", domain.ErrSourceMissing, spec.Path)
	}
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("stat %s: %w", spec.Path, err)
	}
	if !info.IsDir() {
		return domain.Artifact{}, fmt.Errorf("%w: %s is not a directory", domain.ErrSourceMissing, spec.Path)
	}

	outPath := filepath.Join(destDir, spec.Name+".tar.gz")

	a.logger.Debug("archiving directory", "name", spec.Name, "source", spec.Path, "dest", outPath)

	if err := a.archive(ctx, spec.Path, outPath); err != nil {
		_ = os.Remove(outPath)
		return domain.Artifact{}, fmt.Errorf("archive %s: %w", spec.Path, err)
	}

	st, err := os.Stat(outPath)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("stat archive: %w", err)
	}

	return domain.Artifact{
		Name:      spec.Name,
		LocalPath: outPath,
		SizeBytes: st.Size(),
	}, nil
}

// archive writes the tree rooted at src into a tar.gz file at outPath.
// WalkDir visits entries in lexical order, so identical trees always
// produce identical archives.
func (a *DirectoryArchiver) archive(ctx context.Context, src, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == src {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		// Sockets, devices, and pipes have no archive representation.
		if !info.Mode().IsRegular() && !info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		_ = f.Close()
		return err
	})
	if walkErr != nil {
		return walkErr
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}

// Ensure DirectoryArchiver implements domain.Producer.
var _ domain.Producer = (*DirectoryArchiver)(nil)
