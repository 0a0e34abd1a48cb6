package persistence

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/MimeLyc/job-tracker/internal/jobs"
)

const jobSequenceName = "jobs"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists jobs and the id sequence in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ jobs.Backend = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return errors.Wrapf(err, "check migration %s", entry.Name())
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "read migration %s", entry.Name())
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return errors.Wrapf(err, "apply migration %s", entry.Name())
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return errors.Wrapf(err, "record migration %s", entry.Name())
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.Job, uint64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, description, created_at
		 FROM jobs
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query jobs")
	}
	defer rows.Close()

	ret := make([]*jobs.Job, 0)
	for rows.Next() {
		var item jobs.Job
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &createdAt); err != nil {
			return nil, 0, errors.Wrap(err, "scan job")
		}
		item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "parse created_at of job %d", item.ID)
		}
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate jobs")
	}

	lastID, err := s.lastID(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ret, lastID, nil
}

func (s *SQLiteStore) lastID(ctx context.Context) (uint64, error) {
	var lastID uint64
	err := s.db.QueryRowContext(ctx, `SELECT last_id FROM id_sequence WHERE name = ?`, jobSequenceName).Scan(&lastID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read id sequence")
	}
	return lastID, nil
}

func (s *SQLiteStore) InsertJob(ctx context.Context, job *jobs.Job) (err error) {
	if job == nil {
		return errors.New("job is nil")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin insert")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO jobs (id, title, description, created_at) VALUES (?, ?, ?, ?)`,
		int64(job.ID),
		job.Title,
		job.Description,
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return errors.Wrapf(err, "insert job %d", job.ID)
	}
	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO id_sequence (name, last_id) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_id = MAX(last_id, excluded.last_id)`,
		jobSequenceName,
		int64(job.ID),
	); err != nil {
		return errors.Wrap(err, "advance id sequence")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit insert")
	}
	return nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id uint64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, int64(id)); err != nil {
		return errors.Wrapf(err, "delete job %d", id)
	}
	return nil
}

// DeleteAllJobs empties the jobs table. The id sequence is left alone.
func (s *SQLiteStore) DeleteAllJobs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return errors.Wrap(err, "delete all jobs")
	}
	return nil
}
