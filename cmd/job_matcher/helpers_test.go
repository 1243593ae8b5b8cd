package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const (
	payrollCV = "Gestionnaire de paie confirmée, 6 ans d'expérience. Établissement des bulletins de paie, " +
		"déclarations DSN, charges sociales, relations URSSAF. Maîtrise de Silae et Sage Paie."
	invoicingPosting = "Assistante facturation. Émission des factures, suivi des encaissements, " +
		"relances clients et recouvrement. Débutant accepté."
	managerPosting = "Manager de service. Management d'une équipe de 10 personnes, pilotage du budget " +
		"et reporting, conduite du changement."
)

// execute runs the CLI in-process and returns what it printed on stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })

	// Keep the tests independent of a developer's environment
	t.Setenv("JOBMATCH_TAXONOMY_PATH", "")
	t.Setenv("JOBMATCH_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeFile writes content into a file of the test's temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
