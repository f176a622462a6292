package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kortex-labs/memory-enforce/internal/logger"
)

// Store persists decision entries in SQLite with an FTS5 mirror for
// full-text search. conventions.md stays the human-readable source;
// the store is what search and conflict detection run against.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	store.purgeDeleted()

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conventions (
		id TEXT PRIMARY KEY,
		topic TEXT UNIQUE NOT NULL,
		decision TEXT NOT NULL,
		rationale TEXT,
		alternatives TEXT,
		scope TEXT,
		decided_on TEXT,
		category TEXT DEFAULT 'decisions',
		tags TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		accessed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		access_count INTEGER DEFAULT 0,
		deleted_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_conventions_category ON conventions(category);
	CREATE INDEX IF NOT EXISTS idx_conventions_topic ON conventions(topic);

	CREATE VIRTUAL TABLE IF NOT EXISTS conventions_fts USING fts5(topic, body);

	CREATE TABLE IF NOT EXISTS thoughts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		content TEXT NOT NULL,
		revises INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_thoughts_session ON thoughts(session_id, number);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) purgeDeleted() {
	if _, err := s.db.Exec(`DELETE FROM conventions_fts WHERE topic IN (SELECT topic FROM conventions WHERE deleted_at IS NOT NULL AND deleted_at < datetime('now', '-30 days'))`); err != nil {
		return
	}
	result, err := s.db.Exec(`DELETE FROM conventions WHERE deleted_at IS NOT NULL AND deleted_at < datetime('now', '-30 days')`)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows > 0 {
			logger.ForComponent("memory").Info("purged soft-deleted decisions", "count", rows)
		}
	}
}

// Record inserts a new decision. The topic must be unique among live
// entries.
func (s *Store) Record(d *Decision) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM conventions WHERE topic = ? AND deleted_at IS NULL)", d.Topic).Scan(&exists)
	if err == nil && exists {
		return nil, fmt.Errorf("decision for topic '%s' already recorded", d.Topic)
	}

	tagsJSON, err := json.Marshal(d.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Category == "" {
		d.Category = CategoryDecisions
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	d.AccessedAt = now
	d.AccessCount = 0

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		"INSERT INTO conventions (id, topic, decision, rationale, alternatives, scope, decided_on, category, tags, created_at, updated_at, accessed_at, access_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		d.ID, d.Topic, d.Decision, d.Rationale, d.Alternatives, d.Scope, d.DecidedOn, d.Category, string(tagsJSON), now, now, now, 0,
	)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	_, err = tx.Exec(
		"INSERT INTO conventions_fts (topic, body) VALUES (?, ?)",
		d.Topic, d.Body(),
	)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return d, nil
}

// Upsert records the decision or replaces the live entry with the same
// topic. Used when syncing a parsed conventions.md into the store.
func (s *Store) Upsert(d *Decision) (*Decision, error) {
	existing, err := s.Get(d.Topic)
	if err != nil {
		return s.Record(d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, err := json.Marshal(d.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		"UPDATE conventions SET decision = ?, rationale = ?, alternatives = ?, scope = ?, decided_on = ?, category = ?, tags = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		d.Decision, d.Rationale, d.Alternatives, d.Scope, d.DecidedOn, d.Category, string(tagsJSON), now, existing.ID,
	)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	_, err = tx.Exec("DELETE FROM conventions_fts WHERE topic = ?", existing.Topic)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	_, err = tx.Exec("INSERT INTO conventions_fts (topic, body) VALUES (?, ?)", d.Topic, d.Body())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = now
	return d, nil
}

// Get resolves by id or topic and bumps the access counters.
func (s *Store) Get(identifier string) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT id, topic, decision, rationale, alternatives, scope, decided_on, category, tags, created_at, updated_at, accessed_at, access_count, deleted_at FROM conventions WHERE (id = ? OR topic = ?) AND deleted_at IS NULL",
		identifier, identifier,
	)

	d, err := scanDecision(row)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		"UPDATE conventions SET accessed_at = ?, access_count = access_count + 1 WHERE id = ?",
		time.Now().UTC(), d.ID,
	)

	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*Decision, error) {
	d := &Decision{}
	var tagsJSON, rationale, alternatives, scope, decidedOn sql.NullString

	err := row.Scan(
		&d.ID, &d.Topic, &d.Decision, &rationale, &alternatives, &scope, &decidedOn,
		&d.Category, &tagsJSON, &d.CreatedAt, &d.UpdatedAt, &d.AccessedAt, &d.AccessCount, &d.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Rationale = rationale.String
	d.Alternatives = alternatives.String
	d.Scope = scope.String
	d.DecidedOn = decidedOn.String

	if tagsJSON.Valid {
		if err := json.Unmarshal([]byte(tagsJSON.String), &d.Tags); err != nil {
			d.Tags = []string{}
		}
	} else {
		d.Tags = []string{}
	}

	return d, nil
}

// Delete soft-deletes; the entry is purged for good 30 days later.
func (s *Store) Delete(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM conventions_fts WHERE topic IN (SELECT topic FROM conventions WHERE id = ? OR topic = ?)`, identifier, identifier)
	if err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE conventions SET deleted_at = ? WHERE (id = ? OR topic = ?) AND deleted_at IS NULL`, now, identifier, identifier)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("decision '%s' not found", identifier)
	}

	return tx.Commit()
}

// All returns every live decision, oldest first. Conflict detection
// and validation run over this.
func (s *Store) All() ([]*Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, topic, decision, rationale, alternatives, scope, decided_on, category, tags, created_at, updated_at, accessed_at, access_count, deleted_at FROM conventions WHERE deleted_at IS NULL ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

func (s *Store) List(category *Category, limit int) ([]*ListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, topic, category, decision, created_at, accessed_at, access_count FROM conventions WHERE deleted_at IS NULL"
	var args []interface{}

	if category != nil {
		query += " AND category = ?"
		args = append(args, *category)
	}

	query += " ORDER BY accessed_at DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ListItem

	for rows.Next() {
		item := &ListItem{}
		var decision string

		err := rows.Scan(
			&item.ID, &item.Topic, &item.Category, &decision,
			&item.CreatedAt, &item.AccessedAt, &item.AccessCount,
		)
		if err != nil {
			return nil, err
		}

		item.Preview = truncate(decision, 100)
		items = append(items, item)
	}

	return items, rows.Err()
}

// Search runs the query through FTS5 and scores each hit with the
// relevance heuristic. An empty query lists by category instead.
func (s *Store) Search(query string, category *Category, limit int) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sqlQuery := "SELECT c.id, c.topic, c.category, c.decision, c.rationale, c.created_at, c.accessed_at, c.access_count FROM conventions c WHERE c.deleted_at IS NULL"
	var args []interface{}

	if query != "" {
		sqlQuery = "SELECT c.id, c.topic, c.category, c.decision, c.rationale, c.created_at, c.accessed_at, c.access_count FROM conventions c " +
			"INNER JOIN conventions_fts fts ON c.topic = fts.topic " +
			"WHERE fts.conventions_fts MATCH ? AND c.deleted_at IS NULL"
		args = append(args, ftsQuote(query))

		if category != nil {
			sqlQuery += " AND c.category = ?"
			args = append(args, *category)
		}
	} else if category != nil {
		sqlQuery += " AND category = ?"
		args = append(args, *category)
	}

	sqlQuery += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*SearchResult

	for rows.Next() {
		result := &SearchResult{}
		var decision, rationale sql.NullString

		err := rows.Scan(
			&result.ID, &result.Topic, &result.Category, &decision, &rationale,
			&result.CreatedAt, &result.AccessedAt, &result.AccessCount,
		)
		if err != nil {
			return nil, err
		}

		content := decision.String + " " + rationale.String
		result.Score = calculateRelevance(result.Topic, content, query)
		result.Snippet = truncate(decision.String, 150)

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, rows.Err()
}

func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &StoreStats{ByCategory: make(map[string]int)}

	rows, err := s.db.Query("SELECT category, COUNT(*) FROM conventions WHERE deleted_at IS NULL GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = count
		stats.TotalDecisions += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullTime
	if err := s.db.QueryRow("SELECT MAX(created_at) FROM conventions WHERE deleted_at IS NULL").Scan(&last); err == nil && last.Valid {
		stats.LastRecordedAt = last.Time
	}

	return stats, nil
}

// SyncDocument upserts every entry of a parsed conventions.md.
func (s *Store) SyncDocument(doc *Document) error {
	for _, d := range doc.Decisions() {
		if _, err := s.Upsert(d); err != nil {
			return fmt.Errorf("sync '%s': %w", d.Topic, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		// Checkpoint failure is not critical, the DB still closes cleanly.
	}
	return s.db.Close()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length] + "..."
}

// ftsQuote wraps each term so punctuation in user queries does not hit
// FTS5 syntax errors.
func ftsQuote(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(terms, " ")
}

func calculateRelevance(topic, content, query string) float64 {
	if query == "" {
		return 0
	}

	score := 0.0
	queryLower := strings.ToLower(query)
	topicLower := strings.ToLower(topic)
	contentLower := strings.ToLower(content)

	if topicLower == queryLower {
		score += 10.0
	} else if strings.HasPrefix(topicLower, queryLower) {
		score += 8.0
	} else if strings.Contains(topicLower, queryLower) {
		score += 5.0
	}

	contentMatches := strings.Count(contentLower, queryLower)
	if contentMatches > 0 {
		score += float64(contentMatches)
	}

	return score
}
