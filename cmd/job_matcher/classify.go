package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/ingestion"
	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a résumé or a job posting",
	Long:  "Classify one text file against the taxonomy and print its sector, sub-sector, job and level.",
	RunE:  runClassify,
}

var (
	classifyInputFile string
	classifyContext   string
	classifyHTML      bool
	classifyJSON      bool
)

func init() {
	classifyCmd.Flags().StringVarP(&classifyInputFile, "in", "i", "", "Path to the text file to classify (required)")
	classifyCmd.Flags().StringVar(&classifyContext, "context", string(types.ContextCV), "Kind of text: cv or posting")
	classifyCmd.Flags().BoolVar(&classifyHTML, "html", false, "Treat the input as an HTML job page")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the result as JSON")

	_ = classifyCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(classifyCmd)
}

// ClassifyOutput is the JSON output of the classify command
type ClassifyOutput struct {
	Classification *types.Classification `json:"classification"`
	Outcome        string                `json:"outcome"`
	Metadata       *ingestion.Metadata   `json:"metadata"`
}

func runClassify(cmd *cobra.Command, _ []string) error {
	c, err := types.ParseContext(classifyContext)
	if err != nil {
		return err
	}

	text, metadata, err := readClassifyInput(classifyInputFile, classifyHTML)
	if err != nil {
		return err
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

	cls, err := engine.Classify(cmd.Context(), text, c)
	if err != nil {
		return fmt.Errorf("failed to classify %s: %w", classifyInputFile, err)
	}

	if classifyJSON {
		return writeJSON(cmd.OutOrStdout(), ClassifyOutput{
			Classification: cls,
			Outcome:        observability.ClassificationOutcome(cls),
			Metadata:       metadata,
		})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintClassification(cls)
	return nil
}

// readClassifyInput reads a plain text file, or extracts the posting text of an HTML page.
func readClassifyInput(path string, html bool) (string, *ingestion.Metadata, error) {
	if !html {
		return ingestion.ReadFile(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := ingestion.ExtractHTMLText(string(content))
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	return text, ingestion.NewMetadata(text, path, ingestion.FormatHTML), nil
}
