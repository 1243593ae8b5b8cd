package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank job postings for a candidate",
	Long: `Score a candidate against a list of job postings and print them best first.

The candidate file holds one JSON record and the jobs file a JSON array of records. A record
is either {"text": ..., "attributes": {...}} or structured fields (title, description,
missions, skills, sector, profile).`,
	RunE: runMatch,
}

var (
	matchCandidateFile string
	matchJobsFile      string
	matchLimit         int
	matchJSON          bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchCandidateFile, "candidate", "c", "", "Path to the candidate JSON record (required)")
	matchCmd.Flags().StringVarP(&matchJobsFile, "jobs", "j", "", "Path to the JSON array of job records (required)")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "Maximum number of results (0 returns all)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print the results as JSON")

	_ = matchCmd.MarkFlagRequired("candidate")
	_ = matchCmd.MarkFlagRequired("jobs")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	candidate, err := readRecord(matchCandidateFile)
	if err != nil {
		return err
	}
	records, err := readRecords(matchJobsFile)
	if err != nil {
		return err
	}
	jobs := make([]types.Input, len(records))
	for i, r := range records {
		jobs[i] = r.Input()
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine, err := newEngine(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	results, err := engine.Match(cmd.Context(), candidate.Input(), jobs, types.MatchOptions{Limit: matchLimit})
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if matchJSON {
		if results == nil {
			results = []*types.MatchResult{}
		}
		return writeJSON(cmd.OutOrStdout(), results)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMatchResults(results)
	return nil
}
