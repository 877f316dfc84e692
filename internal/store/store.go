package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/erictseng47/Stock/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable keyed sink for normalized news items and the source
// of truth for the deduplication index. It is meant to be opened for the
// scope of one batch and released afterwards, never held across runs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path, applies pragmas and
// the idempotent schema. Safe to call on every run.
//
// WAL mode lets external read-only consumers see either the pre-batch or
// the fully committed post-batch state, never a partial batch.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports a single writer; keep the pool at one connection
	// to avoid SQLITE_BUSY on concurrent statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// UpsertMany writes a batch of items inside one transaction. Every write is
// a full-row replace keyed by newsId, so re-ingesting an unchanged record is
// a no-op in effect and a changed record replaces the old row entirely. Any
// error rolls the whole batch back, leaving the pre-batch state.
func (s *Store) UpsertMany(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO news
		(newsId, url, title, content, summary, keyword, publishAt, categoryName, categoryId)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			item.ID, item.URL, item.Title, item.Content, item.Summary,
			item.Keyword, item.PublishAt, item.CategoryName, item.CategoryID,
		); err != nil {
			return fmt.Errorf("upsert news %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

// Exists reports whether a news id is already persisted. It reads the
// committed state only; a wrong positive here would silently drop data, so
// lookup errors surface instead of defaulting to either answer.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM news WHERE newsId = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup news %d: %w", id, err)
	}
	return true, nil
}

// Get retrieves a single item by id. Returns sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, id int64) (models.NewsItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT newsId, url, title, content, summary, keyword, publishAt, categoryName, categoryId
		FROM news
		WHERE newsId = ?
	`, id)
	return scanItem(row)
}

// Recent returns up to limit items, newest id first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT newsId, url, title, content, summary, keyword, publishAt, categoryName, categoryId
		FROM news
		ORDER BY newsId DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent news: %w", err)
	}
	defer rows.Close()

	items := make([]models.NewsItem, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent news: %w", err)
	}
	return items, nil
}

// Count returns the number of persisted items.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.NewsItem, error) {
	var item models.NewsItem
	err := row.Scan(
		&item.ID, &item.URL, &item.Title, &item.Content, &item.Summary,
		&item.Keyword, &item.PublishAt, &item.CategoryName, &item.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewsItem{}, err
	}
	if err != nil {
		return models.NewsItem{}, fmt.Errorf("scan news row: %w", err)
	}
	return item, nil
}
