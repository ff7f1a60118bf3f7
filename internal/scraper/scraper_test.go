package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"programs-assistant/internal/config"
	"programs-assistant/internal/storage"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	pdfHits  atomic.Int32
	pageHits atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/plan.pdf", func(w http.ResponseWriter, r *http.Request) {
		ts.pdfHits.Add(1)
		w.Write([]byte("fake pdf bytes")) //nolint:errcheck
	})
	mux.HandleFunc("/program", func(w http.ResponseWriter, r *http.Request) {
		ts.pageHits.Add(1)
		assert.Equal(t, BrowserUserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html><body><header>nav</header><p>Program page</p><footer>foot</footer></body></html>")
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testPrograms(baseURL string) []config.Program {
	return []config.Program{
		{
			Key:        "ai",
			Title:      "AI",
			URL:        baseURL + "/program",
			PageText:   "data/ai_page.txt",
			PlanText:   "data/ai_plan.txt",
			PlanPDF:    "study_plans/ai.pdf",
			PlanPDFURL: baseURL + "/plan.pdf",
		},
		{
			Key:        "broken",
			Title:      "Broken",
			URL:        baseURL + "/broken",
			PageText:   "data/broken_page.txt",
			PlanText:   "data/broken_plan.txt",
			PlanPDF:    "study_plans/broken.pdf",
			PlanPDFURL: baseURL + "/broken",
		},
	}
}

func fakeExtractor(contents []byte) (string, error) {
	return "Учебный план: мате-\nматика\n\n\n\nИтог\n", nil
}

func newTestScraper(t *testing.T, ts *testServer) (*Scraper, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewScraper(
		storage.NewLocalProvider(dir),
		testPrograms(ts.URL),
		WithClient(resty.New()),
		WithPDFExtractor(fakeExtractor),
		WithProgress(nil),
	)
	return s, dir
}

func TestDownloadPDFsSkipsExisting(t *testing.T) {
	ts := newTestServer(t)
	s, dir := newTestScraper(t, ts)

	s.DownloadPDFs(context.Background())
	assert.Equal(t, int32(1), ts.pdfHits.Load())

	data, err := os.ReadFile(filepath.Join(dir, "study_plans", "ai.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "fake pdf bytes", string(data))

	_, err = os.Stat(filepath.Join(dir, "study_plans", "broken.pdf"))
	assert.True(t, os.IsNotExist(err), "failed downloads must not leave files behind")

	s.DownloadPDFs(context.Background())
	assert.Equal(t, int32(1), ts.pdfHits.Load(), "existing pdf should not be downloaded again")
}

func TestParseWebsites(t *testing.T) {
	ts := newTestServer(t)
	s, dir := newTestScraper(t, ts)

	s.ParseWebsites(context.Background())

	data, err := os.ReadFile(filepath.Join(dir, "data", "ai_page.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Program page", string(data))

	_, err = os.Stat(filepath.Join(dir, "data", "broken_page.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, int32(1), ts.pageHits.Load())
}

func TestExtractPlans(t *testing.T) {
	ts := newTestServer(t)
	s, dir := newTestScraper(t, ts)

	require.NoError(t, s.store.PutObject(context.Background(), "study_plans/ai.pdf", bytes.NewReader([]byte("pdf"))))

	s.ExtractPlans(context.Background())

	data, err := os.ReadFile(filepath.Join(dir, "data", "ai_plan.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Учебный план: математика\n\nИтог", string(data))

	_, err = os.Stat(filepath.Join(dir, "data", "broken_plan.txt"))
	assert.True(t, os.IsNotExist(err), "missing pdf should be skipped")
}

func TestExtractPlansSkipsOnExtractorError(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewLocalProvider(dir)
	programs := []config.Program{{Key: "ai", PlanPDF: "p.pdf", PlanText: "data/ai_plan.txt"}}
	require.NoError(t, store.PutObject(context.Background(), "p.pdf", bytes.NewReader([]byte("junk"))))

	s := NewScraper(store, programs, WithProgress(nil), WithPDFExtractor(func([]byte) (string, error) {
		return "", fmt.Errorf("corrupt pdf")
	}))
	s.ExtractPlans(context.Background())

	exists, err := store.Exists(context.Background(), "data/ai_plan.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun(t *testing.T) {
	ts := newTestServer(t)
	s, dir := newTestScraper(t, ts)

	s.Run(context.Background())

	for _, name := range []string{"ai_page.txt", "ai_plan.txt"} {
		_, err := os.Stat(filepath.Join(dir, "data", name))
		assert.NoError(t, err, name)
	}

	s.Run(context.Background())
	assert.Equal(t, int32(1), ts.pdfHits.Load())
	assert.Equal(t, int32(2), ts.pageHits.Load(), "page text is refreshed on every run")
}
