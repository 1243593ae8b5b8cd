package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/ingestion"
	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/ranking"
	"github.com/jonathan/job-matcher/internal/server/middleware"
	"github.com/jonathan/job-matcher/internal/taxonomy/taxonomytest"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	payrollCV = "Gestionnaire de paie confirmée, 6 ans d'expérience. Établissement des bulletins de paie, " +
		"déclarations DSN, charges sociales, relations URSSAF. Maîtrise de Silae et Sage Paie."
	invoicingPosting = "Assistante facturation. Émission des factures, suivi des encaissements, " +
		"relances clients et recouvrement. Débutant accepté."
	managerPosting = "Manager de service. Management d'une équipe de 10 personnes, pilotage du budget " +
		"et reporting, conduite du changement."
)

// testServerConfig disables rate limiting and authentication.
func testServerConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg config.ServerConfig, opts pipeline.Options) *Server {
	t.Helper()
	if opts.Registry == nil {
		opts.Registry = taxonomytest.Default(t)
	}
	opts.Scoring = ranking.DefaultConfig()
	engine, err := pipeline.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	s, err := New(engine, cfg, observability.NewMetrics(), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(nil, testServerConfig(), nil, nil)
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "3.0.0", body["taxonomy_version"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodGet, "/health", nil)
	_, err := uuid.Parse(rec.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodOptions, "/v1/match", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestHandleClassify(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Text: payrollCV})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ClassifyResponse](t, rec)
	assert.Equal(t, "gestionnaire_paie", resp.Classification.SpecificJob)
	assert.Equal(t, types.LevelConfirmed, resp.Classification.JobLevel)
	assert.Equal(t, observability.OutcomeJob, resp.Outcome)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, ingestion.FormatText, resp.Metadata.Format)
	assert.Len(t, resp.Metadata.Hash, 64)
}

func TestHandleClassify_Posting(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Text: invoicingPosting, Context: "posting"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ClassifyResponse](t, rec)
	assert.Equal(t, "assistant_facturation", resp.Classification.SpecificJob)
	assert.Equal(t, types.LevelJunior, resp.Classification.JobLevel)
}

func TestHandleClassify_HTML(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	html := `<html><body><nav>Accueil</nav><div class="job-description">` +
		`<p>` + invoicingPosting + `</p></div></body></html>`
	rec := do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Text: html, Format: "html", Context: "posting"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ClassifyResponse](t, rec)
	assert.Equal(t, "assistant_facturation", resp.Classification.SpecificJob)
	assert.Equal(t, ingestion.FormatHTML, resp.Metadata.Format)
}

func TestHandleClassify_Record(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Record: &ingestion.Record{Text: payrollCV}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ClassifyResponse](t, rec)
	assert.Equal(t, "gestionnaire_paie", resp.Classification.SpecificJob)
	assert.Equal(t, ingestion.FormatRecord, resp.Metadata.Format)
}

func TestHandleClassify_Errors(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		errContains string
	}{
		{
			name:        "malformed JSON",
			body:        `{"text":`,
			wantStatus:  http.StatusBadRequest,
			errContains: "Invalid request body",
		},
		{
			name:        "unknown context",
			body:        `{"text":"Comptable","context":"letter"}`,
			wantStatus:  http.StatusBadRequest,
			errContains: "context",
		},
		{
			name:        "unknown format",
			body:        `{"text":"Comptable","format":"pdf"}`,
			wantStatus:  http.StatusBadRequest,
			errContains: "format",
		},
		{
			name:        "empty text",
			body:        `{"text":""}`,
			wantStatus:  http.StatusBadRequest,
			errContains: "no words",
		},
		{
			name:        "punctuation only",
			body:        `{"text":"--- !!! ..."}`,
			wantStatus:  http.StatusBadRequest,
			errContains: "no words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody[map[string]string](t, rec)
			assert.Contains(t, body["error"], tt.errContains)
		})
	}
}

func TestHandleClassify_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodGet, "/v1/classify", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func matchRequest() MatchRequest {
	return MatchRequest{
		Candidate: DocumentRequest{Text: payrollCV},
		Jobs: []DocumentRequest{
			{Text: managerPosting},
			{Text: invoicingPosting},
		},
	}
}

func TestHandleMatch(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodPost, "/v1/match", matchRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[MatchResponse](t, rec)
	assert.Equal(t, "3.0.0", resp.TaxonomyVersion)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.GreaterOrEqual(t, resp.Results[0].Score, resp.Results[1].Score)

	indexes := []int{resp.Results[0].JobIndex, resp.Results[1].JobIndex}
	assert.ElementsMatch(t, []int{0, 1}, indexes)
	for _, r := range resp.Results {
		assert.Equal(t, "gestionnaire_paie", r.Candidate.SpecificJob)
		assert.NotNil(t, r.BlockingFactors)
		assert.NotNil(t, r.Recommendations)
	}
}

func TestHandleMatch_Limit(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	req := matchRequest()
	req.Limit = 1
	rec := do(t, s, http.MethodPost, "/v1/match", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[MatchResponse](t, rec)
	assert.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Results, 1)
}

func TestHandleMatch_NoJobs(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	rec := do(t, s, http.MethodPost, "/v1/match", MatchRequest{Candidate: DocumentRequest{Text: payrollCV}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[MatchResponse](t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Results)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestHandleMatch_Errors(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{MaxJobsPerRequest: 2})

	tests := []struct {
		name        string
		req         func() MatchRequest
		errContains string
	}{
		{
			name: "empty candidate",
			req: func() MatchRequest {
				r := matchRequest()
				r.Candidate.Text = ""
				return r
			},
			errContains: "candidate.text",
		},
		{
			name: "empty job",
			req: func() MatchRequest {
				r := matchRequest()
				r.Jobs[1].Text = "  "
				return r
			},
			errContains: "jobs[1].text",
		},
		{
			name: "invalid job format",
			req: func() MatchRequest {
				r := matchRequest()
				r.Jobs[0].Format = "pdf"
				return r
			},
			errContains: "jobs[0].format",
		},
		{
			name: "unknown weight factor",
			req: func() MatchRequest {
				r := matchRequest()
				r.WeightOverrides = map[string]float64{"salary": 0.5}
				return r
			},
			errContains: "salary",
		},
		{
			name: "too many jobs",
			req: func() MatchRequest {
				r := matchRequest()
				r.Jobs = append(r.Jobs, DocumentRequest{Text: invoicingPosting})
				return r
			},
			errContains: "too many jobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/match", tt.req())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody[map[string]string](t, rec)
			assert.Contains(t, body["error"], tt.errContains)
		})
	}
}

func TestHandleMatch_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	big := strings.Repeat("paie ", maxBodyBytes/5+1)
	rec := do(t, s, http.MethodPost, "/v1/match", MatchRequest{Candidate: DocumentRequest{Text: big}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleMatchStream(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(matchRequest()))
	req := httptest.NewRequest(http.MethodPost, "/v1/match/stream", &buf)
	req.Header.Set(middleware.RequestIDHeader, "stream-1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: "+EventProgress+"\n"))
	assert.Contains(t, body, `"step":"`+pipeline.StepClassifyCandidate+`"`)
	assert.Contains(t, body, `"step":"`+pipeline.StepScore+`"`)
	assert.Contains(t, body, "event: "+EventResult+"\n")
	assert.Contains(t, body, `"count":2`)
	assert.Contains(t, body, "event: "+EventComplete+"\n")
	assert.Contains(t, body, `"request_id":"stream-1"`)

	assert.Less(t, strings.Index(body, "event: "+EventResult), strings.Index(body, "event: "+EventComplete))
}

func TestHandleMatchStream_Error(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	req := matchRequest()
	req.WeightOverrides = map[string]float64{"compatibility": -1}
	rec := do(t, s, http.MethodPost, "/v1/match/stream", req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: "+EventError+"\n")
	assert.Contains(t, body, `"status":400`)
	assert.NotContains(t, body, "event: "+EventComplete)
}

func TestHandleTaxonomy(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{Registry: taxonomytest.Registry(t)})

	rec := do(t, s, http.MethodGet, "/v1/taxonomy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[TaxonomyResponse](t, rec)
	assert.Equal(t, "test-1", resp.Version)
	assert.Equal(t, "fr", resp.Language)
	assert.Equal(t, 3, resp.Jobs)
	require.Len(t, resp.Sectors, 2)
	assert.Equal(t, "finance", resp.Sectors[0].ID)
	require.Len(t, resp.Sectors[0].SubSectors, 2)
	assert.Equal(t, []string{"gestionnaire_paie"}, resp.Sectors[0].SubSectors[0].Jobs)
	assert.Equal(t, "management", resp.Sectors[1].ID)
}

func TestHandleTaxonomyJob(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{Registry: taxonomytest.Registry(t)})

	rec := do(t, s, http.MethodGet, "/v1/taxonomy/jobs/gestionnaire_paie", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[JobResponse](t, rec)
	assert.Equal(t, "gestionnaire_paie", resp.ID)
	assert.Equal(t, "finance", resp.Sector)
	assert.Equal(t, "paie", resp.SubSector)
	assert.Equal(t, []string{"dsn"}, resp.CriticalSkills)
	require.Len(t, resp.IncompatibleWith, 1)
	assert.Equal(t, OverrideResponse{Job: "assistant_facturation", Coefficient: 0.1, Reason: "payroll is not invoicing"},
		resp.IncompatibleWith[0])

	rec = do(t, s, http.MethodGet, "/v1/taxonomy/jobs/astronaut", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCacheStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, testServerConfig(), pipeline.Options{})

		rec := do(t, s, http.MethodGet, "/v1/cache/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())
	})

	t.Run("enabled", func(t *testing.T) {
		s := newTestServer(t, testServerConfig(), pipeline.Options{
			Cache: &cache.Options{TTL: time.Hour, MaxEntries: 10},
		})

		for range 2 {
			rec := do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Text: payrollCV})
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := do(t, s, http.MethodGet, "/v1/cache/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Enabled bool `json:"enabled"`
			cache.Stats
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Enabled)
		assert.Equal(t, int64(1), resp.Hits)
		assert.Equal(t, int64(1), resp.Misses)
		assert.Equal(t, "memory", resp.Backend)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testServerConfig(), pipeline.Options{})

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/classify", ClassifyRequest{Text: payrollCV}).Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/match", matchRequest()).Code)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `jobmatch_http_requests_total{code="200",method="POST",route="/v1/classify"} 1`)
	assert.Contains(t, body, `jobmatch_classifications_total{context="cv",outcome="job"} 1`)
	assert.Contains(t, body, "jobmatch_match_score_count 2")
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/match", "/v1/match"},
		{"/v1/match/stream", "/v1/match/stream"},
		{"/v1/taxonomy/jobs/gestionnaire_paie", "/v1/taxonomy/jobs/{id}"},
		{"/health", "/health"},
		{"/wp-admin", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, routeLabel(tt.path), tt.path)
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := config.Default().Server
	cfg.RateLimit.RequestsPerMinute = 2
	cfg.RateLimit.Burst = 2
	s := newTestServer(t, cfg, pipeline.Options{})

	for range 2 {
		rec := do(t, s, http.MethodGet, "/v1/taxonomy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, s, http.MethodGet, "/v1/taxonomy", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// health stays reachable
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil).Code)
}

func TestAuthentication(t *testing.T) {
	cfg := testServerConfig()
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	s := newTestServer(t, cfg, pipeline.Options{})
	require.NotNil(t, s.tokens)

	rec := do(t, s, http.MethodGet, "/v1/taxonomy", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := s.tokens.GenerateToken(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/taxonomy", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/taxonomy", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
