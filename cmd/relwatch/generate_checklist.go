package main

import (
	"os"

	"github.com/relwatch/relwatch/internal/catalog"
	"github.com/relwatch/relwatch/internal/checklist"
	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/spf13/cobra"
)

var generateCSV string

var generateChecklistCmd = &cobra.Command{
	Use:   "generate-checklist",
	Short: "Render pending updates as a markdown checklist",
	Long: `Render the catalog entries whose latest_version differs from their
desired_version as a markdown checklist on stdout. Check the items you
want and feed the document back with apply-checked.

Examples:
  relwatch generate-checklist --csv versions.csv
  relwatch generate-checklist --csv versions.csv > checklist.md`,
	Run: runGenerateChecklist,
}

func init() {
	generateChecklistCmd.Flags().StringVar(&generateCSV, "csv", "", "Catalog CSV file (required)")
	generateChecklistCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(generateChecklistCmd)
}

func runGenerateChecklist(cmd *cobra.Command, args []string) {
	cat, err := catalog.LoadFile(generateCSV)
	if err != nil {
		logger.Error("loading catalog: %v", err)
		os.Exit(1)
	}

	items := checklist.Generate(cat)
	if err := checklist.Render(os.Stdout, items); err != nil {
		logger.Error("rendering checklist: %v", err)
		os.Exit(1)
	}
}
