package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, err
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := GetSchema()

	lines := strings.Split(schema, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	cleanSchema := strings.Join(cleanLines, "\n")

	if _, err := s.db.Exec(cleanSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertFile(file *IndexedFile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO files (path, content_hash, encoding, language, status, error_message, indexed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			encoding = excluded.encoding,
			language = excluded.language,
			status = excluded.status,
			error_message = excluded.error_message,
			indexed_at = excluded.indexed_at,
			updated_at = CURRENT_TIMESTAMP
	`, file.Path, file.ContentHash, file.Encoding, file.Language, file.Status, file.ErrorMessage, now)

	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		row := s.db.QueryRow("SELECT id FROM files WHERE path = ?", file.Path)
		if err := row.Scan(&id); err != nil {
			return 0, fmt.Errorf("get file id: %w", err)
		}
	}

	return id, nil
}

const fileColumns = "id, path, content_hash, encoding, language, status, error_message, indexed_at, updated_at"

func scanFile(row interface{ Scan(...any) error }) (*IndexedFile, error) {
	file := &IndexedFile{}
	var indexedAt, updatedAt sql.NullTime
	var errorMsg sql.NullString

	err := row.Scan(
		&file.ID, &file.Path, &file.ContentHash, &file.Encoding, &file.Language,
		&file.Status, &errorMsg, &indexedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	file.ErrorMessage = errorMsg.String
	if indexedAt.Valid {
		file.IndexedAt = indexedAt.Time
	}
	if updatedAt.Valid {
		file.UpdatedAt = updatedAt.Time
	}

	return file, nil
}

// GetFile returns nil without error when the path was never indexed.
func (s *Store) GetFile(path string) (*IndexedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// AllFiles lists every tracked file, for drift checks and index
// regeneration.
func (s *Store) AllFiles() ([]*IndexedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + fileColumns + " FROM files ORDER BY path ASC")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*IndexedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func (s *Store) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *Store) UpdateFileStatus(path string, status FileStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		UPDATE files SET status = ?, error_message = ?, updated_at = ? WHERE path = ?
	`, status, errorMsg, now, path)

	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}

	return nil
}

// ReplaceSymbols swaps the symbol set of a file in one transaction.
// The FTS triggers keep symbols_fts in step.
func (s *Store) ReplaceSymbols(fileID int64, symbols []*Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM symbols WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("clear symbols: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (file_id, name, kind, signature, line_start, line_end, is_exported)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		_, err := stmt.Exec(
			fileID, sym.Name, sym.Kind, sym.Signature,
			sym.LineStart, sym.LineEnd, sym.IsExported,
		)
		if err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}

	return tx.Commit()
}

const symbolColumns = "id, file_id, name, kind, signature, line_start, line_end, is_exported"

func scanSymbol(row interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var signature sql.NullString
	var lineEnd, isExported sql.NullInt64

	err := row.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &signature,
		&sym.LineStart, &lineEnd, &isExported,
	)
	if err != nil {
		return nil, err
	}

	sym.Signature = signature.String
	if lineEnd.Valid {
		sym.LineEnd = int(lineEnd.Int64)
	}
	if isExported.Valid {
		sym.IsExported = isExported.Int64 != 0
	}

	return sym, nil
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+symbolColumns+" FROM symbols WHERE file_id = ? ORDER BY line_start ASC", fileID)
	if err != nil {
		return nil, fmt.Errorf("get symbols by file: %w", err)
	}
	defer rows.Close()

	return collectSymbols(rows)
}

func (s *Store) SearchSymbols(query string, limit int) ([]*Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT s.id, s.file_id, s.name, s.kind, s.signature, s.line_start, s.line_end, s.is_exported
		FROM symbols s
		INNER JOIN symbols_fts fts ON s.id = fts.rowid
		WHERE symbols_fts MATCH ? LIMIT ?
	`, ftsQuote(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search symbols: %w", err)
	}
	defer rows.Close()

	return collectSymbols(rows)
}

func collectSymbols(rows *sql.Rows) ([]*Symbol, error) {
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// ftsQuote wraps terms in quotes so paths and punctuation survive FTS5
// query parsing.
func ftsQuote(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(terms, " ")
}

func (s *Store) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	var lastIndexed sql.NullTime

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total_files,
			COALESCE(SUM(CASE WHEN status = 'indexed' THEN 1 ELSE 0 END), 0) as indexed_files,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_files,
			COALESCE(SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END), 0) as skipped_files,
			MAX(indexed_at) as last_indexed_at
		FROM files
	`).Scan(&stats.TotalFiles, &stats.IndexedFiles, &stats.FailedFiles, &stats.SkippedFiles, &lastIndexed)

	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if lastIndexed.Valid {
		stats.LastIndexedAt = lastIndexed.Time
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&stats.TotalSymbols)
	if err != nil {
		return nil, fmt.Errorf("get symbol count: %w", err)
	}

	return stats, nil
}
