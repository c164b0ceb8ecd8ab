// Package filesystem implements storage adapters using the local filesystem.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
	"github.com/bnema/sitehost/pkg/validation"
)

const (
	dirMode  fs.FileMode = 0755
	fileMode fs.FileMode = 0644
)

// Ensure DocumentRoots implements out.DocumentRoots.
var _ out.DocumentRoots = (*DocumentRoots)(nil)

// DocumentRoots stores each site's files in baseDir/<subdomain>.
type DocumentRoots struct {
	baseDir string
	log     zerolog.Logger
}

// NewDocumentRoots creates the base directory if needed.
func NewDocumentRoots(baseDir string, log zerolog.Logger) (*DocumentRoots, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("document root base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", baseDir, err)
	}
	if err := os.MkdirAll(abs, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", abs, err)
	}

	log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Str("base_dir", abs).
		Msg("document roots initialized")

	return &DocumentRoots{baseDir: abs, log: log}, nil
}

// BaseDir returns the absolute directory holding every document root.
func (d *DocumentRoots) BaseDir() string {
	return d.baseDir
}

// Path returns the document root for subdomain.
func (d *DocumentRoots) Path(subdomain domain.Subdomain) string {
	return filepath.Join(d.baseDir, subdomain.String())
}

// Exists reports whether the document root is present.
func (d *DocumentRoots) Exists(subdomain domain.Subdomain) (bool, error) {
	_, err := os.Lstat(d.Path(subdomain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: failed to stat document root: %v", domain.ErrIO, err)
}

// Provision creates the document root and writes every entry into it.
// Provisioning is not an upsert: an existing root is rejected untouched.
func (d *DocumentRoots) Provision(ctx context.Context, subdomain domain.Subdomain, entries []domain.FileEntry) (string, error) {
	log := d.logger(ctx)
	root := d.Path(subdomain)

	exists, err := d.Exists(subdomain)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: a project with subdomain %q already exists", domain.ErrAlreadyExists, subdomain)
	}

	// Mkdir, not MkdirAll: the final component must be created by us and
	// fail if someone else got there first.
	if err := os.Mkdir(root, dirMode); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: a project with subdomain %q already exists", domain.ErrAlreadyExists, subdomain)
		}
		return "", fmt.Errorf("%w: failed to create document root: %v", domain.ErrIO, err)
	}
	log.Debug().Str(logging.FieldPath, root).Msg("document root created")

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return root, fmt.Errorf("%w: provisioning interrupted: %v", domain.ErrIO, err)
		}
		if err := writeEntry(root, entry); err != nil {
			return root, err
		}
	}

	info, err := os.Stat(filepath.Join(root, domain.IndexFile))
	if err != nil || !info.Mode().IsRegular() {
		return root, fmt.Errorf("%w: %s not found in uploaded files", domain.ErrMissingIndex, domain.IndexFile)
	}

	log.Info().
		Str(logging.FieldPath, root).
		Int("files", len(entries)).
		Msg("document root provisioned")

	return root, nil
}

// Deprovision removes the document root recursively.
func (d *DocumentRoots) Deprovision(ctx context.Context, subdomain domain.Subdomain) error {
	root := d.Path(subdomain)
	if root == d.baseDir || filepath.Dir(root) != d.baseDir {
		return fmt.Errorf("%w: refusing to remove %s", domain.ErrIO, root)
	}

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("%w: failed to remove document root: %v", domain.ErrIO, err)
	}

	d.logger(ctx).Info().Str(logging.FieldPath, root).Msg("document root removed")
	return nil
}

func (d *DocumentRoots) logger(ctx context.Context) *zerolog.Logger {
	l := logging.FromCtx(ctx, d.log).With().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Logger()
	return &l
}

// writeEntry writes one bundle file below root.
func writeEntry(root string, entry domain.FileEntry) error {
	target, err := resolveEntryPath(root, entry.Path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return fmt.Errorf("%w: failed to create directory for %s: %v", domain.ErrIO, entry.Path, err)
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", domain.ErrIO, entry.Path, err)
	}
	if _, err := file.Write(entry.Content); err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to write %s: %v", domain.ErrIO, entry.Path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", domain.ErrIO, entry.Path, err)
	}
	return nil
}

// resolveEntryPath maps a bundle-relative path to an absolute path inside
// root, rejecting anything that could land outside it.
func resolveEntryPath(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty file path", domain.ErrPathTraversal)
	}

	slashed := strings.ReplaceAll(rel, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: absolute path %q", domain.ErrPathTraversal, rel)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: path %q escapes the site root", domain.ErrPathTraversal, rel)
		}
	}
	if strings.ContainsRune(slashed, 0) {
		return "", fmt.Errorf("%w: path %q contains a NUL byte", domain.ErrPathTraversal, rel)
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", fmt.Errorf("%w: path %q does not name a file", domain.ErrPathTraversal, rel)
	}

	target := filepath.Join(root, filepath.FromSlash(cleaned))
	if err := validation.ValidateStrictlyWithinRoot(root, target); err != nil {
		return "", fmt.Errorf("%w: path %q resolves outside the site root", domain.ErrPathTraversal, rel)
	}
	return target, nil
}
