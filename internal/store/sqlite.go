package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"inputprefs/internal/hkl"
)

// SQLite is the file-backed Store used where no native per-user registry exists.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string, busyTimeoutMs int) (*SQLite, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", path, busyTimeoutMs)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Reset clears both configuration areas in one transaction.
func (s *SQLite) Reset() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM preload`); err != nil {
		return fmt.Errorf("clear preload: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM substitutes`); err != nil {
		return fmt.Errorf("clear substitutes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) SetPreload(position int, key string) error {
	if position < 1 {
		return fmt.Errorf("store: invalid preload position %d", position)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO preload (position, key) VALUES (?, ?)`, position, key)
	if err != nil {
		return fmt.Errorf("set preload %d: %w", position, err)
	}
	return nil
}

func (s *SQLite) SetSubstitute(from, to string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO substitutes (source, target) VALUES (?, ?)`, from, to)
	if err != nil {
		return fmt.Errorf("set substitute %s: %w", from, err)
	}
	return nil
}

func (s *SQLite) Preload() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM preload ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query preload: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan preload: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLite) Substitutes() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT source, target FROM substitutes`)
	if err != nil {
		return nil, fmt.Errorf("query substitutes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan substitute: %w", err)
		}
		out[from] = to
	}
	return out, rows.Err()
}

// LiveMethods returns the remembered live set in load order.
func (s *SQLite) LiveMethods() ([]hkl.Handle, hkl.Handle, error) {
	rows, err := s.db.Query(`SELECT handle, is_default FROM live_methods ORDER BY ordinal`)
	if err != nil {
		return nil, 0, fmt.Errorf("query live methods: %w", err)
	}
	defer rows.Close()

	var (
		handles []hkl.Handle
		def     hkl.Handle
	)
	for rows.Next() {
		var (
			h         int64
			isDefault bool
		)
		if err := rows.Scan(&h, &isDefault); err != nil {
			return nil, 0, fmt.Errorf("scan live method: %w", err)
		}
		handles = append(handles, hkl.Handle(uint32(h)))
		if isDefault {
			def = hkl.Handle(uint32(h))
		}
	}
	return handles, def, rows.Err()
}

// SaveLiveMethods replaces the remembered live set.
func (s *SQLite) SaveLiveMethods(handles []hkl.Handle, def hkl.Handle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM live_methods`); err != nil {
		return fmt.Errorf("clear live methods: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO live_methods (handle, ordinal, is_default) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, h := range handles {
		if _, err := stmt.Exec(int64(uint32(h)), i, h == def); err != nil {
			return fmt.Errorf("insert live method %s: %w", h, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
