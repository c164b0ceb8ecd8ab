// Package registry provides a SQLite-backed project registry.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	subdomain    TEXT NOT NULL,
	project_name TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_subdomain ON projects (subdomain);
`

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const projectColumns = `id, subdomain, project_name, status, url, created_at, updated_at`

// Ensure Store implements out.ProjectRegistry.
var _ out.ProjectRegistry = (*Store)(nil)

// Store keeps project records in a SQLite database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer, and every connection to ":memory:" would be
	// a separate database.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create projects table: %w", err)
	}

	return &Store{
		db: db,
		log: log.With().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "registry").
			Logger(),
		now: time.Now,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new record in the pending state.
func (s *Store) Create(ctx context.Context, projectID, projectName, subdomain string) (*domain.SiteRecord, error) {
	if projectID == "" || subdomain == "" {
		return nil, fmt.Errorf("%w: project id and subdomain are required", domain.ErrInvalidInput)
	}
	now := s.now().UTC()
	record := &domain.SiteRecord{
		ProjectID:   projectID,
		ProjectName: projectName,
		Subdomain:   subdomain,
		Status:      domain.SiteStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ProjectID, record.Subdomain, record.ProjectName, string(record.Status), record.URL,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: project %q", domain.ErrAlreadyExists, projectID)
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	s.log.Debug().Str(logging.FieldProjectID, projectID).Str(logging.FieldSubdomain, subdomain).Msg("project created")
	return record, nil
}

// EnsureProject inserts a pending record for projectID unless one exists.
func (s *Store) EnsureProject(ctx context.Context, projectID, subdomain string) error {
	if projectID == "" || subdomain == "" {
		return fmt.Errorf("%w: project id and subdomain are required", domain.ErrInvalidInput)
	}
	now := formatTime(s.now().UTC())

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, '', ?, '', ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		projectID, subdomain, string(domain.SiteStatusPending), now, now,
	)
	if err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Debug().Str(logging.FieldProjectID, projectID).Str(logging.FieldSubdomain, subdomain).Msg("project created")
	}
	return nil
}

// GetProject returns the record with the given id.
func (s *Store) GetProject(ctx context.Context, projectID string) (*domain.SiteRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID)
	return scanProject(row, projectID)
}

// FindBySubdomain returns the most recently updated record for subdomain.
func (s *Store) FindBySubdomain(ctx context.Context, subdomain string) (*domain.SiteRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE subdomain = ? ORDER BY updated_at DESC LIMIT 1`, subdomain)
	return scanProject(row, subdomain)
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SiteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var records []domain.SiteRecord
	for rows.Next() {
		record, err := scanProject(rows, "")
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateStatus sets the status of a record. url replaces the stored URL only
// when non-empty.
func (s *Store) UpdateStatus(ctx context.Context, projectID string, status domain.SiteStatus, url string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects
		 SET status = ?, url = CASE WHEN ? = '' THEN url ELSE ? END, updated_at = ?
		 WHERE id = ?`,
		string(status), url, url, formatTime(s.now().UTC()), projectID,
	)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectID)
	}

	s.log.Debug().
		Str(logging.FieldProjectID, projectID).
		Str("status", string(status)).
		Msg("project status updated")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner, key string) (*domain.SiteRecord, error) {
	var (
		record           domain.SiteRecord
		status           string
		created, updated string
	)
	err := row.Scan(&record.ProjectID, &record.Subdomain, &record.ProjectName, &status, &record.URL, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, key)
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	record.Status = domain.SiteStatus(status)
	if record.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if record.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &record, nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
