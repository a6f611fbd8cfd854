package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/skilldhq/skilld"
)

// DefaultSearchLimit bounds search results when the caller gives no limit.
const DefaultSearchLimit = 10

// Ensure Indexer implements skilld.Indexer at compile time.
var _ skilld.Indexer = (*Indexer)(nil)

// Indexer maintains one FTS5 database per package version. It is stateless;
// every operation opens the database at the given path.
type Indexer struct{}

// NewIndexer returns a new Indexer.
func NewIndexer() *Indexer {
	return &Indexer{}
}

// CreateIndex rebuilds the index at dbPath wholesale from docs. An existing
// index at the same path is replaced, never merged.
func (i *Indexer) CreateIndex(ctx context.Context, docs []skilld.IndexableDoc, dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return skilld.Errorf(skilld.EINTERNAL, "create index directory: %v", err)
	}

	db := NewDB(dbPath)
	if err := db.Open(); err != nil {
		return skilld.Errorf(skilld.EINTERNAL, "open index: %v", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return skilld.Errorf(skilld.EINTERNAL, "begin index transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM docs"); err != nil {
		return skilld.Errorf(skilld.EINTERNAL, "reset index: %v", err)
	}

	const insert = "INSERT INTO docs (doc_id, doc_type, title, content, path) VALUES (?, ?, ?, ?, ?)"
	for _, doc := range docs {
		path := doc.Metadata["path"]
		if _, err := tx.ExecContext(ctx, insert, doc.ID, string(doc.Type), titleFor(doc, path), doc.Content, path); err != nil {
			return skilld.Errorf(skilld.EINTERNAL, "index document %s: %v", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return skilld.Errorf(skilld.EINTERNAL, "commit index: %v", err)
	}
	return nil
}

// Search returns ranked hits for query against the index at dbPath. Ranking
// is bm25; lower bm25 is better, so scores are negated to make higher better.
func (i *Indexer) Search(ctx context.Context, dbPath, query string, opts skilld.SearchOptions) ([]skilld.SearchHit, error) {
	if query == "" {
		return nil, skilld.Errorf(skilld.EINVALID, "search query required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "no search index at %q", dbPath)
	}

	db := NewDB(dbPath)
	if err := db.Open(); err != nil {
		return nil, skilld.Errorf(skilld.EINTERNAL, "open index: %v", err)
	}
	defer db.Close()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT doc_id, doc_type, title,
			snippet(docs, 3, '[', ']', '...', 12),
			bm25(docs)
		FROM docs
		WHERE docs MATCH ?`)
	args := []any{query}

	if len(opts.Types) > 0 {
		sb.WriteString(" AND doc_type IN (?" + strings.Repeat(", ?", len(opts.Types)-1) + ")")
		for _, t := range opts.Types {
			args = append(args, string(t))
		}
	}

	sb.WriteString(" ORDER BY bm25(docs) LIMIT ?")
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, skilld.Errorf(skilld.EINVALID, "search %q: %v", query, err)
	}
	defer rows.Close()

	var hits []skilld.SearchHit
	for rows.Next() {
		var hit skilld.SearchHit
		var docType string
		var rank float64
		if err := rows.Scan(&hit.ID, &docType, &hit.Title, &hit.Snippet, &rank); err != nil {
			return nil, skilld.Errorf(skilld.EINTERNAL, "scan search hit: %v", err)
		}
		hit.Type = skilld.DocType(docType)
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, skilld.Errorf(skilld.EINTERNAL, "read search hits: %v", err)
	}
	return hits, nil
}

// RemoveIndex deletes the index at dbPath along with its WAL sidecar files.
// Reports whether an index existed.
func (i *Indexer) RemoveIndex(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, skilld.Errorf(skilld.EINTERNAL, "stat index: %v", err)
	}

	if err := os.Remove(dbPath); err != nil {
		return false, skilld.Errorf(skilld.EINTERNAL, "remove index: %v", err)
	}
	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
			return false, skilld.Errorf(skilld.EINTERNAL, "remove index sidecar: %v", err)
		}
	}
	return true, nil
}

// titleFor derives a display title: the first markdown heading, else the
// file path, else the document ID.
func titleFor(doc skilld.IndexableDoc, path string) string {
	for _, line := range strings.Split(doc.Content, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "#"); ok {
			return strings.TrimSpace(strings.TrimLeft(after, "#"))
		}
	}
	if path != "" {
		return path
	}
	return doc.ID
}
