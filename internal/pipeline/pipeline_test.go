package pipeline_test

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erictseng47/Stock/internal/feed"
	"github.com/erictseng47/Stock/internal/models"
	"github.com/erictseng47/Stock/internal/pipeline"
	"github.com/erictseng47/Stock/internal/store"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type paths struct {
	db  string
	csv string
	raw string
}

func tempPaths(t *testing.T) paths {
	t.Helper()
	dir := t.TempDir()
	return paths{
		db:  filepath.Join(dir, "news.db"),
		csv: filepath.Join(dir, "news.csv"),
		raw: filepath.Join(dir, "raw.jsonl"),
	}
}

func newPipeline(t *testing.T, feedURL string, p paths) *pipeline.Pipeline {
	t.Helper()
	fetcher := feed.NewClient(feedURL, time.Second, discardLog())
	return pipeline.New(discardLog(), fetcher, nil, pipeline.Options{
		Page:      1,
		Limit:     30,
		LinkBase:  "https://news.cnyes.com",
		StorePath: p.db,
		CSVPath:   p.csv,
	})
}

func seed(t *testing.T, dbPath string, items ...models.NewsItem) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.UpsertMany(context.Background(), items))
	require.NoError(t, st.Close())
}

func storeIDs(t *testing.T, dbPath string) []int64 {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	items, err := st.Recent(context.Background(), 100)
	require.NoError(t, err)

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func csvRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

const twoRecordPage = `{"items":{"data":[
	{"newsId": 100, "title": "既有新聞", "publishAt": 1700000000, "categoryId": 827},
	{"newsId": 101, "title": "<p>新進新聞</p>", "keyword": ["台股"], "categoryId": 827}
]}}`

func TestRunIngestsOnlyFreshRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRecordPage))
	}))
	defer server.Close()

	p := tempPaths(t)
	existing := models.NewsItem{ID: 100, URL: "https://news.cnyes.com/news/id/100", Title: "既有新聞"}
	seed(t, p.db, existing)

	rep, err := newPipeline(t, server.URL, p).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, pipeline.StateDone, rep.State)
	require.Equal(t, 2, rep.Fetched)
	require.Equal(t, 1, rep.Fresh)
	require.Equal(t, 1, rep.Persisted)
	require.NotEmpty(t, rep.RunID)

	require.ElementsMatch(t, []int64{100, 101}, storeIDs(t, p.db))

	// Pre-seeded row stayed untouched.
	st, err := store.Open(p.db)
	require.NoError(t, err)
	got, err := st.Get(context.Background(), 100)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Equal(t, existing, got)

	// Append log holds exactly one header and one data row, for 101.
	rows := csvRows(t, p.csv)
	require.Len(t, rows, 2)
	require.Equal(t, models.Columns, rows[0])
	require.Equal(t, "101", rows[1][0])
	require.Equal(t, "新進新聞", rows[1][2])
	require.Equal(t, `["台股"]`, rows[1][5])
}

func TestRunIsIdempotentAcrossReruns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRecordPage))
	}))
	defer server.Close()

	p := tempPaths(t)
	pl := newPipeline(t, server.URL, p)

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, rep.Persisted)

	// The second run fetches the same page and persists nothing.
	rep, err = pl.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, pipeline.StateDone, rep.State)
	require.Equal(t, 2, rep.Fetched)
	require.Zero(t, rep.Fresh)
	require.Zero(t, rep.Persisted)

	require.Len(t, storeIDs(t, p.db), 2)
	require.Len(t, csvRows(t, p.csv), 3) // header + two rows, no growth
}

func TestRunFetchFailureLeavesSinksUntouched(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRecordPage))
	}))
	defer good.Close()

	p := tempPaths(t)
	_, err := newPipeline(t, good.URL, p).Run(context.Background())
	require.NoError(t, err)

	preCSV, err := os.ReadFile(p.csv)
	require.NoError(t, err)
	preIDs := storeIDs(t, p.db)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	rep, err := newPipeline(t, bad.URL, p).Run(context.Background())
	require.ErrorIs(t, err, feed.ErrTransport)
	require.Equal(t, pipeline.StateFailed, rep.State)
	require.Zero(t, rep.Fetched)

	postCSV, err := os.ReadFile(p.csv)
	require.NoError(t, err)
	require.Equal(t, preCSV, postCSV)
	require.Equal(t, preIDs, storeIDs(t, p.db))
}

func TestRunSchemaFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	p := tempPaths(t)
	rep, err := newPipeline(t, server.URL, p).Run(context.Background())
	require.ErrorIs(t, err, feed.ErrSchema)
	require.Equal(t, pipeline.StateFailed, rep.State)

	_, statErr := os.Stat(p.csv)
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(p.db)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunWritesRawSnapshotWhenEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRecordPage))
	}))
	defer server.Close()

	p := tempPaths(t)
	fetcher := feed.NewClient(server.URL, time.Second, discardLog())
	pl := pipeline.New(discardLog(), fetcher, nil, pipeline.Options{
		Page:            1,
		Limit:           30,
		LinkBase:        "https://news.cnyes.com",
		StorePath:       p.db,
		CSVPath:         p.csv,
		RawSnapshotPath: p.raw,
	})

	_, err := pl.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(p.raw)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// The snapshot is not deduplicated: a rerun appends the page again.
	_, err = pl.Run(context.Background())
	require.NoError(t, err)

	again, err := os.ReadFile(p.raw)
	require.NoError(t, err)
	require.Greater(t, len(again), len(data))
}

type recordingPublisher struct {
	announced [][]models.NewsItem
}

func (r *recordingPublisher) Announce(_ context.Context, items []models.NewsItem) error {
	r.announced = append(r.announced, items)
	return nil
}

func TestRunAnnouncesFreshItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRecordPage))
	}))
	defer server.Close()

	p := tempPaths(t)
	pub := &recordingPublisher{}
	fetcher := feed.NewClient(server.URL, time.Second, discardLog())
	pl := pipeline.New(discardLog(), fetcher, pub, pipeline.Options{
		Page:      1,
		Limit:     30,
		LinkBase:  "https://news.cnyes.com",
		StorePath: p.db,
		CSVPath:   p.csv,
	})

	_, err := pl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.announced, 1)
	require.Len(t, pub.announced[0], 2)

	// Nothing fresh on the rerun, so nothing is announced.
	_, err = pl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.announced, 1)
}
