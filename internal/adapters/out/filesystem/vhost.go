package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

// Ensure VhostStore implements out.VhostStore.
var _ out.VhostStore = (*VhostStore)(nil)

// VhostStore keeps site config files in the web server's sites-available
// directory.
type VhostStore struct {
	dir string
	log zerolog.Logger
}

// NewVhostStore creates a store writing into dir. The directory is owned by
// the web server package and must already exist.
func NewVhostStore(dir string, log zerolog.Logger) (*VhostStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("sites directory %s is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sites directory %s is not a directory", dir)
	}
	return &VhostStore{dir: dir, log: log}, nil
}

// Dir returns the directory config files are written to.
func (s *VhostStore) Dir() string {
	return s.dir
}

// Write stores config as dir/name through a temporary file and a rename, so
// the server never reads a half-written file.
func (s *VhostStore) Write(ctx context.Context, name, config string) (string, error) {
	target, err := s.pathFor(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".sitehost-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temporary config file: %v", domain.ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(config); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to write config: %v", domain.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to close config: %v", domain.ErrIO, err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to set config permissions: %v", domain.ErrIO, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to move config into place: %v", domain.ErrIO, err)
	}

	s.logger(ctx).Info().Str(logging.FieldPath, target).Msg("virtual host config written")
	return target, nil
}

// Remove deletes dir/name if present.
func (s *VhostStore) Remove(ctx context.Context, name string) error {
	target, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to remove config: %v", domain.ErrIO, err)
	}

	s.logger(ctx).Info().Str(logging.FieldPath, target).Msg("virtual host config removed")
	return nil
}

func (s *VhostStore) pathFor(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid config name %q", domain.ErrIO, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *VhostStore) logger(ctx context.Context) *zerolog.Logger {
	l := logging.FromCtx(ctx, s.log).With().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Logger()
	return &l
}
