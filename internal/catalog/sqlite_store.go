package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"crawshaw.io/sqlite"
	"github.com/localrivet/semrank/internal/ranker"
	"github.com/localrivet/semrank/internal/vector"
)

// SQLiteStore is an implementation of Store that uses SQLite.
type SQLiteStore struct {
	conn   *sqlite.Conn
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Initialize initializes the store with the given database path.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.dbPath = dbPath

	// Open the SQLite database
	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	// Create the table if it doesn't exist
	err = s.createTable()
	if err != nil {
		// Close the connection on error
		s.conn.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// createTable creates the candidates table if it doesn't exist.
func (s *SQLiteStore) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		body TEXT NOT NULL,
		attrs TEXT NOT NULL,
		embedding BLOB NOT NULL,
		indexed_at INTEGER NOT NULL
	);`

	stmt, err := s.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Put stores a candidate and its embedding, replacing any existing entry
// with the same ID.
func (s *SQLiteStore) Put(candidate ranker.Candidate, embedding []float32, indexedAt time.Time) error {
	embeddingBytes, err := vector.Float32SliceToBytes(embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding for %s: %w", candidate.ID, err)
	}

	attrsJSON, err := json.Marshal(candidate.Attrs)
	if err != nil {
		return fmt.Errorf("failed to encode attrs for %s: %w", candidate.ID, err)
	}

	insertSQL := `
	INSERT OR REPLACE INTO candidates (id, kind, body, attrs, embedding, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?);`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// Bind parameters - indices in sqlite are 1-based
	stmt.BindText(1, candidate.ID)
	stmt.BindText(2, candidate.Kind)
	stmt.BindText(3, candidate.Text)
	stmt.BindText(4, string(attrsJSON))
	stmt.BindBytes(5, embeddingBytes)
	stmt.BindInt64(6, indexedAt.Unix())

	// Execute the statement
	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to insert candidate entry: %w", err)
	}

	return nil
}

// Get retrieves a single entry by ID.
func (s *SQLiteStore) Get(id string) (*Entry, error) {
	selectSQL := `
	SELECT id, kind, body, attrs, embedding, indexed_at FROM candidates
	WHERE id = ?;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, id)

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, fmt.Errorf("failed to execute select statement: %w", err)
	}
	if !hasRow {
		return nil, nil
	}

	entry, err := scanEntry(stmt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the entry with the given ID.
func (s *SQLiteStore) Delete(id string) error {
	deleteSQL := `DELETE FROM candidates WHERE id = ?;`

	stmt, err := s.conn.Prepare(deleteSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, id)

	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to delete candidate entry: %w", err)
	}

	return nil
}

// Clear removes all entries from the store.
func (s *SQLiteStore) Clear() error {
	clearSQL := `DELETE FROM candidates;`

	stmt, err := s.conn.Prepare(clearSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare clear statement: %w", err)
	}
	defer stmt.Reset()

	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to clear candidates: %w", err)
	}

	return nil
}

// List returns all entries of the given kind in insertion order. An empty
// kind returns every entry.
func (s *SQLiteStore) List(kind string) ([]Entry, error) {
	selectSQL := `
	SELECT id, kind, body, attrs, embedding, indexed_at FROM candidates
	ORDER BY rowid ASC;`
	if kind != "" {
		selectSQL = `
		SELECT id, kind, body, attrs, embedding, indexed_at FROM candidates
		WHERE kind = ?
		ORDER BY rowid ASC;`
	}

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	if kind != "" {
		stmt.BindText(1, kind)
	}

	var entries []Entry

	// Execute the query and process results
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break // No more rows
		}

		entry, err := scanEntry(stmt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// scanEntry reads one candidates row from the current statement position.
func scanEntry(stmt *sqlite.Stmt) (*Entry, error) {
	// Column indices are 0-based
	id := stmt.ColumnText(0)
	kind := stmt.ColumnText(1)
	body := stmt.ColumnText(2)
	attrsJSON := stmt.ColumnText(3)

	// For binary data, we need to create a buffer and use ColumnBytes to fill it
	embeddingBytesLen := stmt.ColumnLen(4)
	embeddingBytes := make([]byte, embeddingBytesLen)
	stmt.ColumnBytes(4, embeddingBytes)

	embedding, err := vector.BytesToFloat32Slice(embeddingBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedding for entry %s: %w", id, err)
	}

	var attrs map[string]string
	if attrsJSON != "" {
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return nil, fmt.Errorf("failed to decode attrs for entry %s: %w", id, err)
		}
	}

	return &Entry{
		Candidate: ranker.Candidate{
			ID:    id,
			Kind:  kind,
			Text:  body,
			Attrs: attrs,
		},
		Embedding: embedding,
		IndexedAt: time.Unix(stmt.ColumnInt64(5), 0),
	}, nil
}
