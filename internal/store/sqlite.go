package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jobdeck/jobdeck/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceNotifications swaps the cached feed of one kind inside a single
// transaction so readers never observe a half-replaced cache.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	kind model.NotificationKind,
	ns []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notifications WHERE kind = ?", string(kind),
	); err != nil {
		return fmt.Errorf("clearing %s notification cache: %w", kind, err)
	}

	const query = `
		INSERT INTO notifications (
			id, kind, read, created_at,
			job_id, job_title, message, application_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range ns {
		_, err = stmt.ExecContext(ctx,
			n.ID, string(kind), boolToInt(n.Read), n.CreatedAt.UTC(),
			n.JobID, n.JobTitle, n.Message, n.ApplicationID,
		)
		if err != nil {
			return fmt.Errorf("caching notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications retrieves the cached notifications of both kinds,
// newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var ns []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}

	return ns, rows.Err()
}

// MarkNotificationRead flips the cached read flag for one notification.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context, kind model.NotificationKind, id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE kind = ? AND id = ?",
		string(kind), id,
	)
	if err != nil {
		return fmt.Errorf(
			"marking %s notification %s as read: %w", kind, id, err,
		)
	}
	return nil
}

// CreateTestLock inserts a test lock. Locks are write-once: inserting a
// second lock for the same application id fails on the primary key.
func (s *SQLiteStore) CreateTestLock(
	ctx context.Context, lock model.TestLock,
) error {
	createdAt := lock.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO test_locks (application_id, expires_at, created_at)
		VALUES (?, ?, ?)`,
		lock.ApplicationID, lock.ExpiresAt.UTC(), createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf(
			"creating test lock for application %s: %w",
			lock.ApplicationID, err,
		)
	}

	return nil
}

// GetTestLock retrieves the lock for an application id, or nil if none
// exists.
func (s *SQLiteStore) GetTestLock(
	ctx context.Context, applicationID string,
) (*model.TestLock, error) {
	var (
		lock      model.TestLock
		expiresAt time.Time
		createdAt time.Time
	)

	row := s.db.QueryRowxContext(ctx,
		"SELECT application_id, expires_at, created_at FROM test_locks WHERE application_id = ?",
		applicationID,
	)
	err := row.Scan(&lock.ApplicationID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf(
			"getting test lock for application %s: %w", applicationID, err,
		)
	}

	lock.ExpiresAt = expiresAt
	lock.CreatedAt = createdAt
	return &lock, nil
}

// DeleteTestLock removes the lock for an application id. Called when the
// server reports the test submitted; the server state is authoritative.
func (s *SQLiteStore) DeleteTestLock(
	ctx context.Context, applicationID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM test_locks WHERE application_id = ?", applicationID,
	)
	if err != nil {
		return fmt.Errorf(
			"deleting test lock for application %s: %w", applicationID, err,
		)
	}
	return nil
}

// UpsertEmailAlerts inserts alerts not seen before and reports how many
// were new. Duplicates (same digest message, link, and title) are
// ignored.
func (s *SQLiteStore) UpsertEmailAlerts(
	ctx context.Context, alerts []model.EmailAlert,
) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR IGNORE INTO email_alerts (
			id, message_id, title, company, link, read, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing email alert insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range alerts {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		res, err := stmt.ExecContext(ctx,
			a.ID, a.MessageID, a.Title, a.Company, a.Link,
			boolToInt(a.Read), a.ReceivedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting email alert %q: %w", a.Title, err)
		}
		if count, err := res.RowsAffected(); err == nil {
			inserted += int(count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetEmailAlerts retrieves all email alerts, newest first.
func (s *SQLiteStore) GetEmailAlerts(
	ctx context.Context,
) ([]model.EmailAlert, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM email_alerts ORDER BY received_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying email alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.EmailAlert
	for rows.Next() {
		a, err := scanEmailAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkEmailAlertRead marks a single email alert as read.
func (s *SQLiteStore) MarkEmailAlertRead(
	ctx context.Context, id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE email_alerts SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking email alert %s as read: %w", id, err)
	}
	return nil
}

// SaveJob bookmarks a posting locally.
func (s *SQLiteStore) SaveJob(ctx context.Context, job model.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO saved_jobs (
			job_id, title, company, location,
			salary_min, salary_max, posted_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Company, job.Location,
		job.SalaryMin, job.SalaryMax, job.PostedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	return nil
}

// UnsaveJob removes a local bookmark.
func (s *SQLiteStore) UnsaveJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM saved_jobs WHERE job_id = ?", jobID,
	)
	if err != nil {
		return fmt.Errorf("unsaving job %s: %w", jobID, err)
	}
	return nil
}

// SavedJobIDs returns the set of bookmarked posting ids.
func (s *SQLiteStore) SavedJobIDs(
	ctx context.Context,
) (map[string]bool, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, "SELECT job_id FROM saved_jobs")
	if err != nil {
		return nil, fmt.Errorf("querying saved jobs: %w", err)
	}

	saved := make(map[string]bool, len(ids))
	for _, id := range ids {
		saved[id] = true
	}
	return saved, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		kind      string
		readInt   int
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &kind, &readInt, &createdAt,
		&n.JobID, &n.JobTitle, &n.Message, &n.ApplicationID,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.NotificationKind(kind)
	n.Read = readInt != 0
	n.CreatedAt = createdAt

	return n, nil
}

// scanEmailAlert scans an email alert row from a sqlx.Rows result set.
func scanEmailAlert(rows *sqlx.Rows) (model.EmailAlert, error) {
	var (
		a          model.EmailAlert
		readInt    int
		receivedAt time.Time
	)

	err := rows.Scan(
		&a.ID, &a.MessageID, &a.Title, &a.Company, &a.Link,
		&readInt, &receivedAt,
	)
	if err != nil {
		return model.EmailAlert{}, fmt.Errorf("scanning email alert row: %w", err)
	}

	a.Read = readInt != 0
	a.ReceivedAt = receivedAt

	return a, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
