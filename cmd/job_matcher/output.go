package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/job-matcher/internal/ingestion"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", jsonBytes)
	return err
}

// readRecord reads one record file: a JSON object with text and/or record fields.
func readRecord(path string) (ingestion.Record, error) {
	var r ingestion.Record
	if err := readJSONFile(path, &r); err != nil {
		return ingestion.Record{}, err
	}
	return r, nil
}

// readRecords reads a JSON array of records.
func readRecords(path string) ([]ingestion.Record, error) {
	var rs []ingestion.Record
	if err := readJSONFile(path, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
