package csvlog_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erictseng47/Stock/internal/csvlog"
	"github.com/erictseng47/Stock/internal/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestAppendItemsHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")

	first := []models.NewsItem{
		{ID: 100, URL: "https://news.cnyes.com/news/id/100", Title: "第一則"},
		{ID: 101, URL: "https://news.cnyes.com/news/id/101", Title: "第二則"},
	}
	require.NoError(t, csvlog.AppendItems(path, first))

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, models.Columns, rows[0])
	require.Equal(t, "100", rows[1][0])
	require.Equal(t, "第一則", rows[1][2])

	// A second append adds data rows and zero additional header rows.
	require.NoError(t, csvlog.AppendItems(path, []models.NewsItem{{ID: 102}}))

	rows = readRows(t, path)
	require.Len(t, rows, 4)
	headerCount := 0
	for _, row := range rows {
		if row[0] == "newsId" {
			headerCount++
		}
	}
	require.Equal(t, 1, headerCount)
}

func TestAppendItemsNoDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	same := []models.NewsItem{{ID: 1, Title: "repeat"}}

	require.NoError(t, csvlog.AppendItems(path, same))
	require.NoError(t, csvlog.AppendItems(path, same))

	// The log is an audit trail of ingestion events, so both appends land.
	rows := readRows(t, path)
	require.Len(t, rows, 3)
}

func TestAppendItemsEmptyBatchCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, csvlog.AppendItems(path, nil))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestAppendRawSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")

	raw := []models.RawRecord{
		{"newsId": json.RawMessage("100"), "title": json.RawMessage(`"快訊"`)},
	}
	require.NoError(t, csvlog.AppendRawSnapshot(path, raw))
	require.NoError(t, csvlog.AppendRawSnapshot(path, raw))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	require.JSONEq(t, "100", string(decoded["newsId"]))
}
