// Package history provides the SQLite-backed notification history store:
// a durable log of past notifications, bounded to a configurable maximum
// number of entries, queryable by app and groupable for the history
// browser.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jmylchreest/swaynoti/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	notification_id INTEGER NOT NULL,
	app_name TEXT NOT NULL,
	summary TEXT NOT NULL,
	body TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	actions TEXT NOT NULL DEFAULT '[]',
	dismissed INTEGER NOT NULL DEFAULT 0,
	expired INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_timestamp ON notifications (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_app_name ON notifications (app_name);
`

// Store is a single-connection SQLite history log. A mutex serializes
// access the same way the original implementation guarded its connection,
// since database/sql's own pooling would otherwise let concurrent writers
// interleave the insert-then-evict sequence.
type Store struct {
	mu         sync.Mutex
	db         *sql.DB
	maxEntries int
}

// Open opens (creating if needed) the SQLite database at path and ensures
// its schema exists. maxEntries <= 0 disables retention-based eviction.
func Open(path string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new history entry and evicts the oldest rows beyond
// maxEntries. Eviction always runs after the insert, never before, so a
// burst of notifications never drops the one currently being recorded.
func (s *Store) Add(entry model.HistoryEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actionsJSON, err := json.Marshal(entry.Actions)
	if err != nil {
		return 0, fmt.Errorf("marshal actions: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO notifications (notification_id, app_name, summary, body, icon, urgency, timestamp, actions, dismissed, expired)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		entry.NotificationID, entry.AppName, entry.Summary, entry.Body, entry.Icon, entry.Urgency,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), string(actionsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	if err := s.evictLocked(); err != nil {
		return id, fmt.Errorf("evict old entries: %w", err)
	}
	return id, nil
}

func (s *Store) evictLocked() error {
	if s.maxEntries <= 0 {
		return nil
	}
	_, err := s.db.Exec(
		`DELETE FROM notifications WHERE id NOT IN (SELECT id FROM notifications ORDER BY timestamp DESC LIMIT ?)`,
		s.maxEntries,
	)
	return err
}

// MarkDismissed flags every row matching notificationID as dismissed.
func (s *Store) MarkDismissed(notificationID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE notifications SET dismissed = 1 WHERE notification_id = ?`, notificationID)
	return err
}

// MarkExpired flags every row matching notificationID as expired.
func (s *Store) MarkExpired(notificationID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE notifications SET expired = 1 WHERE notification_id = ?`, notificationID)
	return err
}

// GetAll returns every entry, newest first.
func (s *Store) GetAll() ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(`SELECT id, notification_id, app_name, summary, body, icon, urgency, timestamp, actions, dismissed, expired
		FROM notifications ORDER BY timestamp DESC`)
}

// GetByApp returns every entry for appName, newest first.
func (s *Store) GetByApp(appName string) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(`SELECT id, notification_id, app_name, summary, body, icon, urgency, timestamp, actions, dismissed, expired
		FROM notifications WHERE app_name = ? ORDER BY timestamp DESC`, appName)
}

// Group is a set of history entries for one app, ordered newest first,
// alongside that app's name.
type Group struct {
	AppName string
	Entries []model.HistoryEntry
}

// GetGrouped takes the newest limit entries overall, then partitions them
// by app name. Groups are ordered by each group's newest entry, descending.
// limit <= 0 means no cap.
func (s *Store) GetGrouped(limit int) ([]Group, error) {
	all, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	order := make([]string, 0)
	byApp := make(map[string][]model.HistoryEntry)
	for _, entry := range all {
		if _, seen := byApp[entry.AppName]; !seen {
			order = append(order, entry.AppName)
		}
		byApp[entry.AppName] = append(byApp[entry.AppName], entry)
	}

	groups := make([]Group, 0, len(order))
	for _, app := range order {
		groups = append(groups, Group{AppName: app, Entries: byApp[app]})
	}
	return groups, nil
}

// Clear deletes every history entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM notifications`)
	return err
}

// Delete removes a single entry by its surrogate primary key.
func (s *Store) Delete(surrogateID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM notifications WHERE id = ?`, surrogateID)
	return err
}

// Count returns the total number of stored entries.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&count)
	return count, err
}

func (s *Store) queryLocked(query string, args ...any) ([]model.HistoryEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var timestamp, actionsJSON string
		var dismissed, expired int
		if err := rows.Scan(&e.SurrogateID, &e.NotificationID, &e.AppName, &e.Summary, &e.Body,
			&e.Icon, &e.Urgency, &timestamp, &actionsJSON, &dismissed, &expired); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &e.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions: %w", err)
		}
		e.Dismissed = dismissed != 0
		e.Expired = expired != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
