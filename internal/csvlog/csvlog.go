// Package csvlog implements the append-only export sinks: a schema-fixed
// CSV log of ingested items and an optional JSON-lines snapshot of raw
// pages. Neither sink deduplicates; filtering happens upstream.
package csvlog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/erictseng47/Stock/internal/models"
)

// AppendItems appends one CSV row per item to path, creating the file with
// a single header row when it does not yet exist. Repeated runs against the
// same destination accumulate rows and never duplicate the header. There is
// no atomicity beyond what the filesystem gives a sequential append.
func AppendItems(path string, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	_, statErr := os.Stat(path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv log: %w", err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(models.Columns); err != nil {
			f.Close()
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, item := range items {
		if err := w.Write(row(item)); err != nil {
			f.Close()
			return fmt.Errorf("write csv row %d: %w", item.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv log: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv log: %w", err)
	}
	return nil
}

// AppendRawSnapshot appends each raw record as one JSON line, preserving
// the page exactly as fetched for audit and replay.
func AppendRawSnapshot(path string, raw []models.RawRecord) error {
	if len(raw) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open raw snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, rec := range raw {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return fmt.Errorf("write raw snapshot line: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close raw snapshot: %w", err)
	}
	return nil
}

func row(item models.NewsItem) []string {
	return []string{
		strconv.FormatInt(item.ID, 10),
		item.URL,
		item.Title,
		item.Content,
		item.Summary,
		item.Keyword,
		item.PublishAt,
		item.CategoryName,
		item.CategoryID,
	}
}
