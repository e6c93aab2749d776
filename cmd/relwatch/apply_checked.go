package main

import (
	"fmt"
	"os"

	"github.com/relwatch/relwatch/internal/catalog"
	"github.com/relwatch/relwatch/internal/checklist"
	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	applyCSV    string
	applyOut    string
	applyPRBody string
)

var applyCheckedCmd = &cobra.Command{
	Use:   "apply-checked",
	Short: "Apply a reviewed checklist to the catalog",
	Long: `Read back a checklist document and set desired_version for every
checked item. The version applied is the one carried by the checked
line, so the command needs no network access. Unchecked items, unknown
keys, and malformed lines are reported but never fail the run.

--pr-body accepts either a path to a file containing the document or
the document text itself.

Examples:
  relwatch apply-checked --csv versions.csv --out versions.csv --pr-body checklist.md
  relwatch apply-checked --csv versions.csv --out new.csv --pr-body "$BODY"`,
	Run: runApplyChecked,
}

func init() {
	applyCheckedCmd.Flags().StringVar(&applyCSV, "csv", "", "Catalog CSV file (required)")
	applyCheckedCmd.Flags().StringVar(&applyOut, "out", "", "Output CSV file (required)")
	applyCheckedCmd.Flags().StringVar(&applyPRBody, "pr-body", "", "Checklist document: a file path or the literal text (required)")
	applyCheckedCmd.MarkFlagRequired("csv")
	applyCheckedCmd.MarkFlagRequired("out")
	applyCheckedCmd.MarkFlagRequired("pr-body")

	rootCmd.AddCommand(applyCheckedCmd)
}

func runApplyChecked(cmd *cobra.Command, args []string) {
	body, err := readDocument(applyPRBody)
	if err != nil {
		logger.Error("reading checklist: %v", err)
		os.Exit(1)
	}

	cat, err := catalog.LoadFile(applyCSV)
	if err != nil {
		logger.Error("loading catalog: %v", err)
		os.Exit(1)
	}

	result := checklist.Apply(cat, body)
	displayApplyResult(result)

	if err := cat.SaveFile(applyOut); err != nil {
		logger.Error("writing catalog: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("catalog written to %s", applyOut)
}

// readDocument resolves the --pr-body value: a path to an existing file
// is read; any other value is taken as the document itself.
func readDocument(value string) (string, error) {
	if fi, err := os.Stat(value); err == nil && !fi.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return value, nil
}

// displayApplyResult formats the changes and warnings
func displayApplyResult(result checklist.ApplyResult) {
	for _, ch := range result.Changes {
		output.Success.Printf("  %s: %s\n", ch.Key, output.FormatVersionChange(ch.Old, ch.New))
	}
	for _, key := range result.Unmatched {
		output.PrintWarning("checked key %q not found in catalog", key)
	}
	for _, line := range result.Malformed {
		output.PrintWarning("malformed checklist line: %s", line)
	}

	fmt.Println()
	output.Info.Printf("%d checked, %d applied\n", result.Checked, len(result.Changes))
}
