package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/classify"
	"github.com/jonathan/job-matcher/internal/ingestion"
	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/server/middleware"
	"github.com/jonathan/job-matcher/internal/types"
)

// DocumentRequest is one résumé or posting: free text (plain or HTML) or a structured record.
// When Record is set and Text is empty, the record supplies both text and attributes.
type DocumentRequest struct {
	Text       string            `json:"text,omitempty"`
	Format     string            `json:"format,omitempty" validate:"omitempty,oneof=text html"`
	Record     *ingestion.Record `json:"record,omitempty"`
	Attributes types.Attributes  `json:"attributes"`
}

func (d DocumentRequest) format() string {
	switch {
	case d.Record != nil && strings.TrimSpace(d.Text) == "":
		return ingestion.FormatRecord
	case d.Format == "":
		return ingestion.FormatText
	default:
		return d.Format
	}
}

// input converts the document into an engine input. field names the document in errors.
func (d DocumentRequest) input(field string) (types.Input, error) {
	switch d.format() {
	case ingestion.FormatRecord:
		return d.Record.Input(), nil
	case ingestion.FormatHTML:
		text, err := ingestion.ExtractHTMLText(d.Text)
		if err != nil {
			return types.Input{}, &classify.InvalidInputError{Field: field, Message: "unreadable HTML: " + err.Error()}
		}
		return types.Input{Text: text, Attributes: d.Attributes}, nil
	default:
		return types.Input{Text: d.Text, Attributes: d.Attributes}, nil
	}
}

// ClassifyRequest represents the request body for /v1/classify
type ClassifyRequest struct {
	Text    string            `json:"text,omitempty"`
	Format  string            `json:"format,omitempty" validate:"omitempty,oneof=text html"`
	Record  *ingestion.Record `json:"record,omitempty"`
	Context string            `json:"context,omitempty" validate:"omitempty,oneof=cv posting"`
}

// ClassifyResponse represents the response for /v1/classify
type ClassifyResponse struct {
	Classification *types.Classification `json:"classification"`
	Outcome        string                `json:"outcome"`
	Metadata       *ingestion.Metadata   `json:"metadata"`
}

// MatchRequest represents the request body for /v1/match and /v1/match/stream
type MatchRequest struct {
	Candidate       DocumentRequest    `json:"candidate"`
	Jobs            []DocumentRequest  `json:"jobs" validate:"dive"`
	Limit           int                `json:"limit,omitempty"`
	WeightOverrides map[string]float64 `json:"weight_overrides,omitempty"`
}

func (m MatchRequest) inputs() (types.Input, []types.Input, error) {
	cand, err := m.Candidate.input("candidate.text")
	if err != nil {
		return types.Input{}, nil, err
	}
	jobs := make([]types.Input, len(m.Jobs))
	for i, j := range m.Jobs {
		if jobs[i], err = j.input(fmt.Sprintf("jobs[%d].text", i)); err != nil {
			return types.Input{}, nil, err
		}
	}
	return cand, jobs, nil
}

func (m MatchRequest) options() types.MatchOptions {
	return types.MatchOptions{Limit: m.Limit, WeightOverrides: m.WeightOverrides}
}

// MatchResponse represents the response for /v1/match
type MatchResponse struct {
	TaxonomyVersion string               `json:"taxonomy_version"`
	Count           int                  `json:"count"`
	Results         []*types.MatchResult `json:"results"`
}

// TaxonomyResponse represents the response for /v1/taxonomy
type TaxonomyResponse struct {
	Version  string           `json:"version"`
	Language string           `json:"language"`
	Jobs     int              `json:"jobs"`
	Sectors  []SectorResponse `json:"sectors"`
}

// SectorResponse is one sector of the taxonomy summary
type SectorResponse struct {
	ID         string              `json:"id"`
	Label      string              `json:"label"`
	SubSectors []SubSectorResponse `json:"sub_sectors"`
}

// SubSectorResponse lists the job ids of one sub-sector
type SubSectorResponse struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Jobs  []string `json:"jobs"`
}

// JobResponse represents the response for /v1/taxonomy/jobs/{id}
type JobResponse struct {
	ID               string             `json:"id"`
	Label            string             `json:"label"`
	Sector           string             `json:"sector"`
	SubSector        string             `json:"sub_sector"`
	Keywords         []string           `json:"keywords"`
	Skills           []string           `json:"skills"`
	CriticalSkills   []string           `json:"critical_skills,omitempty"`
	Levels           []LevelResponse    `json:"levels,omitempty"`
	IncompatibleWith []OverrideResponse `json:"incompatible_with,omitempty"`
}

// LevelResponse maps indicators to a seniority level
type LevelResponse struct {
	Level      string   `json:"level"`
	Indicators []string `json:"indicators"`
}

// OverrideResponse is a job-level compatibility override
type OverrideResponse struct {
	Job         string  `json:"job"`
	Coefficient float64 `json:"coefficient"`
	Reason      string  `json:"reason,omitempty"`
}

// CacheStatsResponse represents the response for /v1/cache/stats
type CacheStatsResponse struct {
	Enabled bool `json:"enabled"`
	*cache.Stats
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads and validates a JSON body. It writes the error response and returns false
// on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, r, fromValidator(err))
		return false
	}
	return true
}

// handleClassify classifies one text
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := types.ParseContext(req.Context)
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "context", Message: err.Error()})
		return
	}
	doc := DocumentRequest{Text: req.Text, Format: req.Format, Record: req.Record}
	in, err := doc.input("text")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cls, err := s.engine.Classify(r.Context(), in.Text, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveClassification(c, cls)

	s.jsonResponse(w, http.StatusOK, ClassifyResponse{
		Classification: cls,
		Outcome:        observability.ClassificationOutcome(cls),
		Metadata:       ingestion.NewMetadata(in.Text, "", doc.format()),
	})
}

// handleMatch scores a candidate against a list of jobs
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	cand, jobs, err := req.inputs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.engine.Match(r.Context(), cand, jobs, req.options())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveMatch(len(jobs), results)

	s.jsonResponse(w, http.StatusOK, s.matchResponse(results))
}

// handleMatchStream runs a match and streams its progress as server-sent events, ending
// with a result event and a complete event.
func (s *Server) handleMatchStream(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	cand, jobs, err := req.inputs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	engine := s.engine.WithProgress(func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, event); err != nil {
			s.logger.Debug("failed to write progress event", zap.Error(err))
		}
	})
	results, err := engine.Match(r.Context(), cand, jobs, req.options())
	if err != nil {
		status := HTTPStatus(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			s.logger.Error("match stream failed", zap.Error(err))
			message = http.StatusText(status)
		}
		sse.WriteError(status, message)
		return
	}
	s.metrics.ObserveMatch(len(jobs), results)

	if err := sse.WriteEvent(EventResult, s.matchResponse(results)); err != nil {
		s.logger.Warn("failed to write result event", zap.Error(err))
		return
	}
	sse.WriteComplete(middleware.GetRequestID(r.Context()), len(results))
}

func (s *Server) matchResponse(results []*types.MatchResult) MatchResponse {
	if results == nil {
		results = []*types.MatchResult{}
	}
	return MatchResponse{
		TaxonomyVersion: s.engine.Registry().Version(),
		Count:           len(results),
		Results:         results,
	}
}

// handleTaxonomy summarizes the loaded taxonomy
func (s *Server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	reg := s.engine.Registry()
	resp := TaxonomyResponse{
		Version:  reg.Version(),
		Language: reg.Language(),
		Jobs:     reg.Len(),
		Sectors:  make([]SectorResponse, 0, len(reg.Sectors())),
	}
	for _, sector := range reg.Sectors() {
		sr := SectorResponse{ID: sector.ID, Label: sector.Label, SubSectors: []SubSectorResponse{}}
		for _, sub := range reg.SubSectors(sector.ID) {
			ssr := SubSectorResponse{ID: sub.ID, Label: sub.Label, Jobs: []string{}}
			for _, job := range reg.JobsInSubSector(sub.ID) {
				ssr.Jobs = append(ssr.Jobs, job.ID)
			}
			sr.SubSectors = append(sr.SubSectors, ssr)
		}
		resp.Sectors = append(resp.Sectors, sr)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleTaxonomyJob returns one job definition
func (s *Server) handleTaxonomyJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.engine.Registry().Lookup(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := JobResponse{
		ID:             job.ID,
		Label:          job.Label,
		Sector:         job.Sector,
		SubSector:      job.SubSector,
		Keywords:       job.Keywords,
		Skills:         job.Skills,
		CriticalSkills: job.CriticalSkills,
	}
	for _, l := range job.Levels {
		resp.Levels = append(resp.Levels, LevelResponse{Level: l.Level, Indicators: l.Indicators})
	}
	for _, o := range job.Overrides {
		resp.IncompatibleWith = append(resp.IncompatibleWith, OverrideResponse{
			Job:         o.Job,
			Coefficient: o.Coefficient,
			Reason:      o.Reason,
		})
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleCacheStats returns the classification cache counters
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	stats, ok := s.engine.CacheStats()
	if !ok {
		s.jsonResponse(w, http.StatusOK, CacheStatsResponse{Enabled: false})
		return
	}
	s.jsonResponse(w, http.StatusOK, CacheStatsResponse{Enabled: true, Stats: &stats})
}
