package ranking

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-matcher/internal/types"
)

// Assembler scores a candidate against many jobs in parallel and orders the results.
type Assembler struct {
	workers int
}

// NewAssembler creates an Assembler running at most workers scorings at once.
// workers <= 0 uses GOMAXPROCS.
func NewAssembler(workers int) *Assembler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Assembler{workers: workers}
}

// Rank scores cand against every job and returns the results sorted by score (descending),
// ties broken by the job's position in jobs. limit <= 0 returns every result.
func (a *Assembler) Rank(ctx context.Context, scorer *Scorer, cand Profile, jobs []Profile, limit int) ([]*types.MatchResult, error) {
	results := make([]*types.MatchResult, len(jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range jobs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := scorer.Score(cand, jobs[i])
			res.JobIndex = i
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sort by score (descending); results are already in job order, so a stable sort
	// keeps ties in request order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
