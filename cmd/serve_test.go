package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zebutron/turbine-scoring-engine/internal/config"
	"github.com/zebutron/turbine-scoring-engine/internal/scoring"
	"github.com/zebutron/turbine-scoring-engine/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg = &config.Config{
		Scoring: config.ScoringConfig{MinMatchConfidence: 90, BaselineName: "master"},
		Batch:   config.BatchConfig{MaxConcurrentContacts: 2},
	}

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	return newRouter(scoring.DefaultRules(), st)
}

func TestServeHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeScoreCompanies(t *testing.T) {
	router := newTestRouter(t)

	body := `{"companies":[
		{"name":"Playtika","makes_games":"X","f2p":"X"},
		{"name":"Side Shop","rev_30d":"1200000"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/score/companies", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp scoreCompaniesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Companies, 2)
	for _, c := range resp.Companies {
		assert.GreaterOrEqual(t, c.CompanyScore, 0.0)
		assert.LessOrEqual(t, c.CompanyScore, 100.0)
	}
	// Sorted descending.
	assert.GreaterOrEqual(t, resp.Companies[0].CompanyScore, resp.Companies[1].CompanyScore)
}

func TestServeScoreCompaniesEmpty(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/score/companies", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeScoreContacts(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"contacts":[
			{"first_name":"Ada","last_name":"Quinn","job_title":"CEO","company_name":"Playtika"},
			{"first_name":"Bo","last_name":"Reed","job_title":"Engineer","company_name":"Nowhere Games"}
		],
		"companies":[{"name":"Playtika","makes_games":"X"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/score/contacts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp scoreContactsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Contacts, 2)

	// Results are sorted by descending lead score; the matched CEO leads.
	top := resp.Contacts[0]
	assert.Equal(t, "Ada Quinn", top.FullName)
	assert.Equal(t, "Playtika", top.MatchedCompany)
	require.NotNil(t, top.MatchConfidence)
	assert.InDelta(t, 100.0, *top.MatchConfidence, 0.001)
	require.NotNil(t, top.CompanyScore)

	other := resp.Contacts[1]
	assert.Empty(t, other.MatchedCompany)
	assert.Nil(t, other.MatchConfidence)
}

func TestDrainAndShutdownWaitsForInflight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(started)
			<-release
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("done"))
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln) //nolint:errcheck

	type result struct {
		status int
		body   string
		err    error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			got <- result{err: err}
			return
		}
		defer resp.Body.Close() //nolint:errcheck
		body, _ := io.ReadAll(resp.Body)
		got <- result{status: resp.StatusCode, body: string(body)}
	}()

	<-started
	done := make(chan struct{})
	go func() {
		drainAndShutdown(srv, 5*time.Second)
		close(done)
	}()

	// The shutdown must hold the connection open until the handler finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, "done", r.body)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete during drain")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestServeScoreContactsInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/score/contacts", strings.NewReader(`{"contacts":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
