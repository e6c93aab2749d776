package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relwatch/relwatch/internal/catalog"
	"github.com/relwatch/relwatch/internal/common/config"
	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/common/output"
	"github.com/relwatch/relwatch/internal/fetch"
	"github.com/spf13/cobra"
)

var (
	// updateCSV is the catalog file to read
	updateCSV string
	// updateOut is where the updated catalog is written
	updateOut string
	// updateTimeout bounds each fetch attempt, in seconds
	updateTimeout int
	// updateWorkers bounds concurrent fetch attempts
	updateWorkers int
	// updateGitHubWorkers additionally bounds GitHub API fetchers
	updateGitHubWorkers int
	// updateSources is an optional TOML file overriding fetch sources
	updateSources string
	// updateDryRun reports what would change without writing
	updateDryRun bool
)

var updateLatestCmd = &cobra.Command{
	Use:   "update-latest [key...]",
	Short: "Fetch upstream versions and refresh the catalog",
	Long: `Fetch the latest upstream version for every tracked software entry and
update the latest_version column of the catalog. Entries whose fetch
fails keep their last known value.

Examples:
  relwatch update-latest --csv versions.csv --out versions.csv            Update every entry
  relwatch update-latest --csv versions.csv --out versions.csv python git Update selected keys
  relwatch update-latest --csv versions.csv --dry-run                     Report without writing
  relwatch update-latest --csv versions.csv --out new.csv --workers 3 --timeout 30`,
	Run: runUpdateLatest,
}

func init() {
	updateLatestCmd.Flags().StringVar(&updateCSV, "csv", "", "Catalog CSV file (required)")
	updateLatestCmd.Flags().StringVar(&updateOut, "out", "", "Output CSV file (required unless --dry-run)")
	updateLatestCmd.Flags().IntVar(&updateTimeout, "timeout", 0, "Per-fetch timeout in seconds")
	updateLatestCmd.Flags().IntVar(&updateWorkers, "workers", 0, "Concurrent fetch attempts")
	updateLatestCmd.Flags().IntVar(&updateGitHubWorkers, "github-workers", 0, "Concurrent GitHub API fetches")
	updateLatestCmd.Flags().StringVar(&updateSources, "sources", "", "TOML file adding or overriding fetch sources")
	updateLatestCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Report changes without writing the catalog")
	updateLatestCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(updateLatestCmd)
}

func runUpdateLatest(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	cat, err := catalog.LoadFile(updateCSV)
	if err != nil {
		logger.Error("loading catalog: %v", err)
		os.Exit(1)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	// Flags beat config file values
	timeout := cfg.HTTP.TimeoutSeconds
	if updateTimeout > 0 {
		timeout = updateTimeout
	}
	workers := cfg.Fetch.Workers
	if updateWorkers > 0 {
		workers = updateWorkers
	}
	githubWorkers := cfg.Fetch.GitHubWorkers
	if updateGitHubWorkers > 0 {
		githubWorkers = updateGitHubWorkers
	}

	keys := selectKeys(cat, args)
	logger.Debug("checking %d entries with %d workers", len(keys), workers)

	summary := fetch.Run(context.Background(), keys, reg, fetch.Options{
		Workers:       workers,
		GitHubWorkers: githubWorkers,
		Timeout:       time.Duration(timeout) * time.Second,
	})

	before := cat.Clone()
	cat.ApplyLatest(summary.Versions())
	changes := catalog.Diff(before, cat)
	displayFetchSummary(summary, changes)

	if updateDryRun {
		output.PrintInfo("dry run, catalog not written")
		return
	}
	if updateOut == "" {
		logger.Error("--out is required unless --dry-run is set")
		os.Exit(1)
	}
	if len(changes) == 0 && updateOut == updateCSV {
		output.PrintInfo("no changes, catalog left as is")
		return
	}

	// Individual fetch failures are already in the summary; they never
	// fail the run.
	if err := cat.SaveFile(updateOut); err != nil {
		logger.Error("writing catalog: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("catalog written to %s", updateOut)
}

// selectKeys returns the catalog keys to check: all of them, or the
// subset named on the command line (unknown names are kept so they show
// up as skipped rather than vanishing).
func selectKeys(cat *catalog.Catalog, args []string) []string {
	if len(args) > 0 {
		return args
	}
	entries := cat.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// buildRegistry assembles the fetcher registry from the built-ins plus
// any sources file named by flag or config.
func buildRegistry(cfg *config.Config) (*fetch.Registry, error) {
	opts := []fetch.HTTPClientOption{}
	if cfg.HTTP.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.HTTP.UserAgent))
	}
	if token := cfg.ResolveToken(); token != "" {
		opts = append(opts, fetch.WithGitHubToken(token))
	}
	client := fetch.NewHTTPClient(opts...)
	reg := fetch.BuiltinRegistry(client)

	sourcesPath := updateSources
	if sourcesPath == "" {
		sourcesPath = cfg.SourcesFile
	}
	if sourcesPath != "" {
		sources, err := fetch.LoadSources(sourcesPath)
		if err != nil {
			return nil, fmt.Errorf("loading sources file: %w", err)
		}
		if err := reg.ApplySources(client, sources); err != nil {
			return nil, fmt.Errorf("applying sources file: %w", err)
		}
		logger.Debug("applied %d source overrides from %s", len(sources), sourcesPath)
	}
	return reg, nil
}

// displayFetchSummary formats one line per entry plus totals
func displayFetchSummary(summary *fetch.Summary, changes []catalog.Change) {
	changed := make(map[string]catalog.Change, len(changes))
	for _, ch := range changes {
		changed[ch.Key] = ch
	}

	fmt.Println()
	output.Header.Println("Version Check Results")
	fmt.Println()

	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			output.Dim.Printf("  %s: skipped (no fetcher)\n", r.Key)
		case r.Err != nil:
			output.Error.Printf("  %s: %s\n", r.Key, r.FailureReason())
		default:
			if ch, ok := changed[r.Key]; ok {
				output.Success.Printf("  %s: %s\n", r.Key, output.FormatVersionChange(ch.Old, ch.New))
			} else {
				output.Dim.Printf("  %s: %s (unchanged)\n", r.Key, r.Version)
			}
		}
	}

	fmt.Println()
	output.Info.Printf("%d checked, %d updated, %d failed, %d skipped\n",
		summary.Successes+summary.Failures, len(changes), summary.Failures, summary.Skips)
}
