package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and validate taxonomy artifacts",
}

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a taxonomy artifact",
	Long:  "Check a taxonomy artifact against the JSON schema and its internal consistency rules.",
	RunE:  runTaxonomyValidate,
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the taxonomy or one job",
	RunE:  runTaxonomyShow,
}

var (
	taxonomyPath string
	taxonomyJob  string
)

func init() {
	taxonomyCmd.PersistentFlags().StringVarP(&taxonomyPath, "taxonomy", "t", "", "Path to a taxonomy artifact (default: taxonomy.path, then the embedded taxonomy)")
	taxonomyShowCmd.Flags().StringVar(&taxonomyJob, "job", "", "Show this job id only")

	taxonomyCmd.AddCommand(taxonomyValidateCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

// resolveTaxonomy loads --taxonomy, falling back to the configured path.
func resolveTaxonomy() (*taxonomy.Registry, string, error) {
	path := taxonomyPath
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, "configuration", err
		}
		path = cfg.Taxonomy.Path
	}

	reg, err := loadRegistry(path)
	if path == "" {
		path = "embedded taxonomy"
	}
	return reg, path, err
}

func runTaxonomyValidate(cmd *cobra.Command, _ []string) error {
	reg, source, err := resolveTaxonomy()
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Taxonomy %s is valid (%s): %d sectors, %d sub-sectors, %d jobs\n",
		reg.Version(), source, len(reg.Sectors()), len(reg.AllSubSectors()), reg.Len())
	return nil
}

func runTaxonomyShow(cmd *cobra.Command, _ []string) error {
	reg, _, err := resolveTaxonomy()
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if taxonomyJob == "" {
		printer.PrintTaxonomy(reg)
		return nil
	}

	job, err := reg.Lookup(taxonomyJob)
	if err != nil {
		return err
	}
	printer.PrintJob(job)
	return nil
}
