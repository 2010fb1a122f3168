package jobsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
)

func TestHTTPScraperPostsQuery(t *testing.T) {
	var got types.ScrapeQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[{"id":"in-1","title":"Go Developer","job_url":"https://x/1","job_type":null}]}`))
	}))
	defer srv.Close()

	s, err := NewHTTPScraper(srv.URL+"/", WithScrapeTimeout(5*time.Second), WithScrapeQPM(600))
	require.NoError(t, err)

	rows, err := s.Scrape(context.Background(), types.ScrapeQuery{
		SiteName: []string{"indeed"}, SearchTerm: "go", Location: "Cape Town", ResultsWanted: 5, HoursOld: 48,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go Developer", *rows[0].Title)
	assert.Nil(t, rows[0].JobType)
	assert.Nil(t, rows[0].Company)

	assert.Equal(t, "go", got.SearchTerm)
	assert.Equal(t, 5, got.ResultsWanted)
	assert.Equal(t, 48, got.HoursOld)
	assert.Equal(t, []string{"indeed"}, got.SiteName)
}

func TestHTTPScraperBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked by site", http.StatusBadGateway)
	}))
	defer srv.Close()

	s, err := NewHTTPScraper(srv.URL)
	require.NoError(t, err)

	_, err = s.Scrape(context.Background(), types.ScrapeQuery{SearchTerm: "go"})
	require.ErrorIs(t, err, ErrScrapeFailed)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPScraperBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	s, err := NewHTTPScraper(srv.URL)
	require.NoError(t, err)

	_, err = s.Scrape(context.Background(), types.ScrapeQuery{SearchTerm: "go"})
	assert.ErrorIs(t, err, ErrScrapeFailed)
}

func TestNewHTTPScraperRequiresURL(t *testing.T) {
	_, err := NewHTTPScraper(" ")
	assert.Error(t, err)
}
