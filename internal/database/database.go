package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Database struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dbPath and ensures the schema exists
func Open(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == MemoryPath {
		// every pooled connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dbPath != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return d, nil
}

// IsConnected checks if database connection is alive
func (d *Database) IsConnected() bool {
	if d == nil || d.db == nil {
		return false
	}
	return d.db.Ping() == nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d != nil && d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS allowed_users (
		user_id TEXT PRIMARY KEY,
		added_by TEXT DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS security_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		user_id TEXT NOT NULL,
		details TEXT DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_security_events_user ON security_events(user_id);
	CREATE INDEX IF NOT EXISTS idx_security_events_timestamp ON security_events(timestamp);
	`

	_, err := d.db.Exec(schema)
	return err
}

// ===== Allow list =====

// AddAllowedUser persists an allow-list entry. Adding an existing user is a no-op.
func (d *Database) AddAllowedUser(ctx context.Context, userID, addedBy string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO allowed_users (user_id, added_by, created_at) VALUES (?, ?, ?)`,
		userID, addedBy, time.Now().Unix(),
	)
	return err
}

// RemoveAllowedUser deletes an allow-list entry
func (d *Database) RemoveAllowedUser(ctx context.Context, userID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM allowed_users WHERE user_id = ?`, userID)
	return err
}

// ListAllowedUsers returns persisted user ids in insertion order
func (d *Database) ListAllowedUsers(ctx context.Context) ([]string, error) {
	entries, err := d.GetAllowedUsers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

// GetAllowedUsers returns the full allow-list records
func (d *Database) GetAllowedUsers(ctx context.Context) ([]*AllowedUser, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id, added_by, created_at FROM allowed_users ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*AllowedUser
	for rows.Next() {
		var u AllowedUser
		if err := rows.Scan(&u.UserID, &u.AddedBy, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}

// ===== Security events =====

// LogEvent stores a security event, assigning an id and timestamp when missing
func (d *Database) LogEvent(ctx context.Context, event *SecurityEvent) error {
	if event == nil {
		return errors.New("nil event")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO security_events (id, event_type, user_id, details, timestamp) VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.EventType, event.UserID, event.Details, event.Timestamp,
	)
	return err
}

// GetRecentEvents retrieves the most recent security events, newest first
func (d *Database) GetRecentEvents(ctx context.Context, limit int) ([]*SecurityEvent, error) {
	return d.queryEvents(ctx,
		`SELECT id, event_type, user_id, details, timestamp
		 FROM security_events ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// GetUserEvents retrieves security events recorded for a user, newest first
func (d *Database) GetUserEvents(ctx context.Context, userID string, limit int) ([]*SecurityEvent, error) {
	return d.queryEvents(ctx,
		`SELECT id, event_type, user_id, details, timestamp
		 FROM security_events WHERE user_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
}

func (d *Database) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*SecurityEvent, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*SecurityEvent
	for rows.Next() {
		var e SecurityEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}
