// Package storage persists extracted documents in SQLite, laid out for
// easy querying of element streams and per-document statistics.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/docstruct/internal/element"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_uuid TEXT UNIQUE NOT NULL,
	filename      TEXT NOT NULL,
	page_count    INTEGER NOT NULL,
	processed_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS elements (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id  INTEGER NOT NULL,
	element_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	page_number  INTEGER NOT NULL,
	position_x0  REAL,
	position_y0  REAL,
	position_x1  REAL,
	position_y1  REAL,
	font_name    TEXT,
	font_size    REAL,
	font_flags   INTEGER,
	created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (document_id) REFERENCES documents (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS document_statistics (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id               INTEGER NOT NULL,
	title_count               INTEGER,
	section_count             INTEGER,
	table_count               INTEGER,
	image_count               INTEGER,
	avg_text_density_per_page REAL,
	avg_hierarchical_depth    REAL,
	avg_paragraph_length      REAL,
	section_distribution      TEXT,
	created_at                TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (document_id) REFERENCES documents (id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_elements_document_id ON elements(document_id);
CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(element_type);
CREATE INDEX IF NOT EXISTS idx_elements_page ON elements(page_number);
CREATE INDEX IF NOT EXISTS idx_documents_uuid ON documents(document_uuid);
`

// Store wraps the SQLite database holding documents, elements, and
// statistics.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Pragmas are applied via EXEC so any database/sql SQLite
// driver works.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentRecord is the stored metadata of one processed document.
type DocumentRecord struct {
	UUID        string    `json:"document_uuid"`
	Filename    string    `json:"filename"`
	PageCount   int       `json:"page_count"`
	ProcessedAt time.Time `json:"processed_at"`
}

// StoredElement is one element row, flattened for relational storage.
type StoredElement struct {
	ID         int64   `json:"id"`
	Type       string  `json:"element_type"`
	Content    string  `json:"content"`
	PageNumber int     `json:"page_number"`
	X0         float64 `json:"position_x0"`
	Y0         float64 `json:"position_y0"`
	X1         float64 `json:"position_x1"`
	Y1         float64 `json:"position_y1"`
	FontName   string  `json:"font_name,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FontFlags  int     `json:"font_flags,omitempty"`
}

// SaveDocument writes the document metadata, its full element list, and
// its statistics in one transaction. Every call inserts fresh rows;
// re-processing the same source never merges with prior runs. Returns
// the new document UUID.
func (s *Store) SaveDocument(ctx context.Context, filename string, pageCount int, elements []element.Element, st stats.DocumentStatistics) (string, error) {
	docUUID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (document_uuid, filename, page_count, processed_at) VALUES (?, ?, ?, ?)`,
		docUUID, filename, pageCount, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("document id: %w", err)
	}

	elemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO elements (document_id, element_type, content, page_number,
			position_x0, position_y0, position_x1, position_y1,
			font_name, font_size, font_flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare element insert: %w", err)
	}
	defer elemStmt.Close()

	for _, e := range elements {
		_, err := elemStmt.ExecContext(ctx,
			docID, string(e.Type), e.Content, e.PageNumber,
			e.Position.X0, e.Position.Y0, e.Position.X1, e.Position.Y1,
			e.Font.Name, e.Font.Size, e.Font.Flags)
		if err != nil {
			return "", fmt.Errorf("insert element: %w", err)
		}
	}

	dist, err := json.Marshal(st.SectionDistribution)
	if err != nil {
		return "", fmt.Errorf("marshal section distribution: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_statistics (document_id, title_count, section_count,
			table_count, image_count, avg_text_density_per_page,
			avg_hierarchical_depth, avg_paragraph_length, section_distribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		docID, st.TitleCount, st.SectionCount, st.TableCount, st.ImageCount,
		st.AvgTextDensityPerPage, st.AvgHierarchicalDepth, st.AvgParagraphLength,
		string(dist))
	if err != nil {
		return "", fmt.Errorf("insert statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return docUUID, nil
}

// GetDocument returns metadata for one document, or nil if the UUID is
// unknown.
func (s *Store) GetDocument(ctx context.Context, docUUID string) (*DocumentRecord, error) {
	var rec DocumentRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT document_uuid, filename, page_count, processed_at
		FROM documents WHERE document_uuid = ?`, docUUID).
		Scan(&rec.UUID, &rec.Filename, &rec.PageCount, &rec.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &rec, nil
}

// ListDocuments returns up to limit documents, most recent first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_uuid, filename, page_count, processed_at
		FROM documents ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var rec DocumentRecord
		if err := rows.Scan(&rec.UUID, &rec.Filename, &rec.PageCount, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, rec)
	}
	return docs, rows.Err()
}

// ElementFilter narrows a GetElements query. Zero values mean no
// filtering.
type ElementFilter struct {
	Type       string
	PageNumber int
}

// GetElements returns the stored elements of a document, ordered by
// page and then top of page first, with optional filtering.
func (s *Store) GetElements(ctx context.Context, docUUID string, f ElementFilter) ([]StoredElement, error) {
	query := `
		SELECT e.id, e.element_type, e.content, e.page_number,
			e.position_x0, e.position_y0, e.position_x1, e.position_y1,
			e.font_name, e.font_size, e.font_flags
		FROM elements e
		JOIN documents d ON e.document_id = d.id
		WHERE d.document_uuid = ?`
	args := []any{docUUID}

	if f.Type != "" {
		query += " AND e.element_type = ?"
		args = append(args, f.Type)
	}
	if f.PageNumber > 0 {
		query += " AND e.page_number = ?"
		args = append(args, f.PageNumber)
	}
	query += " ORDER BY e.page_number, e.position_y0 DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var elems []StoredElement
	for rows.Next() {
		var e StoredElement
		if err := rows.Scan(&e.ID, &e.Type, &e.Content, &e.PageNumber,
			&e.X0, &e.Y0, &e.X1, &e.Y1,
			&e.FontName, &e.FontSize, &e.FontFlags); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		elems = append(elems, e)
	}
	return elems, rows.Err()
}

// GetStatistics returns the statistics of a document, or nil if the
// UUID is unknown. The sparse section distribution round-trips through
// its JSON column with integer keys intact.
func (s *Store) GetStatistics(ctx context.Context, docUUID string) (*stats.DocumentStatistics, error) {
	var st stats.DocumentStatistics
	var dist string
	err := s.db.QueryRowContext(ctx, `
		SELECT ds.title_count, ds.section_count, ds.table_count, ds.image_count,
			ds.avg_text_density_per_page, ds.avg_hierarchical_depth,
			ds.avg_paragraph_length, ds.section_distribution
		FROM document_statistics ds
		JOIN documents d ON ds.document_id = d.id
		WHERE d.document_uuid = ?`, docUUID).
		Scan(&st.TitleCount, &st.SectionCount, &st.TableCount, &st.ImageCount,
			&st.AvgTextDensityPerPage, &st.AvgHierarchicalDepth,
			&st.AvgParagraphLength, &dist)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}

	if err := json.Unmarshal([]byte(dist), &st.SectionDistribution); err != nil {
		return nil, fmt.Errorf("decode section distribution: %w", err)
	}
	return &st, nil
}

// AllStatistics returns the statistics rows of every stored document,
// for cross-document aggregation.
func (s *Store) AllStatistics(ctx context.Context) ([]stats.DocumentStatistics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title_count, section_count, table_count, image_count,
			avg_text_density_per_page, avg_hierarchical_depth,
			avg_paragraph_length, section_distribution
		FROM document_statistics`)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	var all []stats.DocumentStatistics
	for rows.Next() {
		var st stats.DocumentStatistics
		var dist string
		if err := rows.Scan(&st.TitleCount, &st.SectionCount, &st.TableCount,
			&st.ImageCount, &st.AvgTextDensityPerPage, &st.AvgHierarchicalDepth,
			&st.AvgParagraphLength, &dist); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		if err := json.Unmarshal([]byte(dist), &st.SectionDistribution); err != nil {
			return nil, fmt.Errorf("decode section distribution: %w", err)
		}
		all = append(all, st)
	}
	return all, rows.Err()
}

// ElementTypeSummary tallies element rows by type across all documents.
func (s *Store) ElementTypeSummary(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT element_type, COUNT(*) FROM elements GROUP BY element_type`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary[typ] = n
	}
	return summary, rows.Err()
}

// DeleteDocument removes a document; elements and statistics follow via
// foreign key cascade. Returns false when the UUID is unknown.
func (s *Store) DeleteDocument(ctx context.Context, docUUID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE document_uuid = ?`, docUUID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
