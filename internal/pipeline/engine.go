// Package pipeline is the entry point of the matcher: it classifies candidate and job texts and
// scores the candidate against every job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/classify"
	"github.com/jonathan/job-matcher/internal/compat"
	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/ranking"
	"github.com/jonathan/job-matcher/internal/skills"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

// DefaultMaxJobsPerRequest caps the jobs of one Match call.
const DefaultMaxJobsPerRequest = 50

// Progress steps
const (
	StepClassifyCandidate = "classify_candidate"
	StepClassifyJobs      = "classify_jobs"
	StepScore             = "score"
)

// ProgressEvent represents a progress update during a match
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when match progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds everything an Engine is built from. The Engine never reads the environment
// or the filesystem itself.
type Options struct {
	Registry *taxonomy.Registry
	Scoring  ranking.Config
	// Workers bounds parallel classification and scoring. 0 uses GOMAXPROCS.
	Workers int
	// MaxJobsPerRequest caps len(jobs) in Match. 0 uses DefaultMaxJobsPerRequest.
	MaxJobsPerRequest int
	// Cache enables classification caching when non-nil.
	Cache      *cache.Options
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Engine classifies texts and ranks jobs for a candidate. It is safe for concurrent use.
type Engine struct {
	reg        *taxonomy.Registry
	classifier *classify.Classifier
	cached     *cache.Classifier
	scorer     *ranking.Scorer
	assembler  *ranking.Assembler
	workers    int
	maxJobs    int
	logger     *zap.Logger
	onProgress ProgressCallback
}

// New builds an Engine. It fails only on an invalid scoring configuration.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("pipeline: a taxonomy registry is required")
	}
	scorer, err := ranking.NewScorer(compat.New(opts.Registry), opts.Scoring)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	maxJobs := opts.MaxJobsPerRequest
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobsPerRequest
	}

	e := &Engine{
		reg:        opts.Registry,
		classifier: classify.New(opts.Registry),
		scorer:     scorer,
		assembler:  ranking.NewAssembler(workers),
		workers:    workers,
		maxJobs:    maxJobs,
		logger:     logger,
		onProgress: opts.OnProgress,
	}
	if opts.Cache != nil {
		cacheOpts := *opts.Cache
		if cacheOpts.Logger == nil {
			cacheOpts.Logger = logger
		}
		e.cached = cache.NewClassifier(e.classifier, cacheOpts)
	}
	return e, nil
}

// Registry returns the taxonomy the Engine classifies against.
func (e *Engine) Registry() *taxonomy.Registry {
	return e.reg
}

// CacheStats returns the cache counters. ok is false when caching is disabled.
func (e *Engine) CacheStats() (stats cache.Stats, ok bool) {
	if e.cached == nil {
		return cache.Stats{}, false
	}
	return e.cached.Stats(), true
}

// Close releases the cache tiers.
func (e *Engine) Close() error {
	if e.cached == nil {
		return nil
	}
	return e.cached.Close()
}

// WithProgress returns an Engine that shares e's registry, scorer and cache but reports
// progress to cb. Close only the original Engine.
func (e *Engine) WithProgress(cb ProgressCallback) *Engine {
	c := *e
	c.onProgress = cb
	return &c
}

// Classify classifies one text.
func (e *Engine) Classify(ctx context.Context, text string, c types.Context) (*types.Classification, error) {
	doc, err := classify.Prepare(text)
	if err != nil {
		return nil, err
	}
	return e.classifyDocument(ctx, doc, c)
}

func (e *Engine) classifyDocument(ctx context.Context, doc *parsing.Document, c types.Context) (*types.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.cached != nil {
		return e.cached.ClassifyDocument(ctx, doc, c)
	}
	return e.classifier.ClassifyDocument(doc, c), nil
}

// Match classifies the candidate and every job, then returns the scored jobs best first.
func (e *Engine) Match(ctx context.Context, cand types.Input, jobs []types.Input, opts types.MatchOptions) ([]*types.MatchResult, error) {
	if len(jobs) > e.maxJobs {
		return nil, &classify.InvalidInputError{
			Field:   "jobs",
			Message: fmt.Sprintf("too many jobs: %d (max %d)", len(jobs), e.maxJobs),
		}
	}
	scorer, err := e.scorer.WithWeights(opts.WeightOverrides)
	if err != nil {
		return nil, err
	}

	candidate, err := e.candidateProfile(ctx, cand)
	if err != nil {
		return nil, err
	}
	e.emit(StepClassifyCandidate, describeClassification(candidate.Classification), candidate.Classification)

	profiles := make([]ranking.Profile, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range jobs {
		g.Go(func() error {
			p, err := e.jobProfile(gCtx, jobs[i], fmt.Sprintf("jobs[%d].text", i))
			if err != nil {
				return err
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.emit(StepClassifyJobs, fmt.Sprintf("Classified %d job(s)", len(jobs)), nil)

	results, err := e.assembler.Rank(ctx, scorer, candidate, profiles, opts.Limit)
	if err != nil {
		return nil, err
	}
	e.emit(StepScore, fmt.Sprintf("Scored %d job(s), returning %d", len(jobs), len(results)), nil)

	e.logger.Debug("match completed",
		zap.String("candidate_job", candidate.Classification.SpecificJob),
		zap.Int("jobs", len(jobs)),
		zap.Int("results", len(results)))
	return results, nil
}

func (e *Engine) candidateProfile(ctx context.Context, in types.Input) (ranking.Profile, error) {
	doc, cls, err := e.classifyInput(ctx, in.Text, types.ContextCV, "candidate.text")
	if err != nil {
		return ranking.Profile{}, err
	}
	return ranking.Profile{
		Classification: cls,
		Attributes:     in.Attributes,
		Skills:         skills.CandidateSkills(in.Attributes, e.reg.SkillVocabulary(), doc),
	}, nil
}

func (e *Engine) jobProfile(ctx context.Context, in types.Input, field string) (ranking.Profile, error) {
	doc, cls, err := e.classifyInput(ctx, in.Text, types.ContextPosting, field)
	if err != nil {
		return ranking.Profile{}, err
	}

	var def *taxonomy.JobDefinition
	if cls.HasJob() {
		if d, err := e.reg.Lookup(cls.SpecificJob); err == nil {
			def = d
		}
	}
	return ranking.Profile{
		Classification: cls,
		Attributes:     in.Attributes,
		Targets:        skills.BuildSkillTargets(in.Attributes, def, doc),
	}, nil
}

// classifyInput normalizes text once and classifies it. The document is returned for the
// skill lookups.
func (e *Engine) classifyInput(ctx context.Context, text string, c types.Context, field string) (*parsing.Document, *types.Classification, error) {
	doc, err := classify.Prepare(text)
	if err != nil {
		return nil, nil, withField(err, field)
	}
	cls, err := e.classifyDocument(ctx, doc, c)
	if err != nil {
		return nil, nil, withField(err, field)
	}
	return doc, cls, nil
}

func (e *Engine) emit(step, message string, content any) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// withField points an InvalidInputError at the request field it came from.
func withField(err error, field string) error {
	var invalid *classify.InvalidInputError
	if errors.As(err, &invalid) {
		return &classify.InvalidInputError{Field: field, Message: invalid.Message}
	}
	return err
}

func describeClassification(c *types.Classification) string {
	switch {
	case c.HasJob():
		return fmt.Sprintf("Candidate classified as %s (%s)", c.SpecificJob, c.JobLevel)
	case c.HasSector():
		return fmt.Sprintf("Candidate classified in sector %s", c.PrimarySector)
	default:
		return "Candidate could not be classified"
	}
}
