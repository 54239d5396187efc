// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-radar/internal/ingest"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

const dryRunSample = 3

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Fetch the recent window and replace the stored paper set",
	Long: `Rebuild fetches every cs.* paper created or revised within the last N
days and replaces the stored paper set and run metadata.

With --force-source auto (the default) the search API runs first and the
HTML listing is used only when the API keeps nothing. A fetch error leaves
the stored set untouched. --dry-run fetches without writing and prints a
short sample.`,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	orch := newOrchestrator(newClient(nil), repo, nil)
	opts := orch.DefaultOptions()
	if cmd.Flags().Changed("days") {
		opts.Days, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("force-source") {
		src, _ := cmd.Flags().GetString("force-source")
		opts.ForceSource = types.ForceSource(src)
	}
	if local, _ := cmd.Flags().GetBool("local-clock"); local {
		opts.UseServerClock = false
	}
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	res, err := orch.RebuildRecentNDays(ctx, opts)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(res)
	}
	printRebuild(res)
	return nil
}

func printRebuild(res ingest.RebuildResult) {
	st := res.Stats
	fmt.Fprintf(os.Stdout, "Source:        %s\n", st.Source)
	fmt.Fprintf(os.Stdout, "Window:        %d days (%s .. %s)\n", st.WindowDays, st.WindowStartISO, st.BaseNowISO)
	fmt.Fprintf(os.Stdout, "Server clock:  %t\n", st.UsedServerClock)
	if st.Source == types.StrategyHTML {
		fmt.Fprintf(os.Stdout, "Listing IDs:   %d in %d batches\n", st.TotalIDs, st.Batches)
	} else {
		fmt.Fprintf(os.Stdout, "Pages:         %d over %d chunks (%d categories)\n", st.PageCount, st.ChunksUsed, st.CategoriesCount)
		if st.FallbackSweep {
			fmt.Fprintln(os.Stdout, "Fallback:      lastUpdatedDate sweep")
		}
	}
	fmt.Fprintf(os.Stdout, "Fetched/kept:  %d/%d\n", st.TotalFetched, st.TotalKept)
	fmt.Fprintf(os.Stdout, "Papers:        %d\n", res.Count)

	if !res.Persisted {
		fmt.Fprintln(os.Stdout, "\nDry run, nothing written. Sample:")
		for i, p := range res.Papers {
			if i == dryRunSample {
				break
			}
			fmt.Fprintf(os.Stdout, "  %s  %s  %s\n", p.PublishedAt.Format("2006-01-02"), p.ArxivID, p.Title)
		}
		return
	}
	fmt.Fprintf(os.Stdout, "Run:           %s\n", res.Meta.RunID)
}

func init() {
	rebuildCmd.Flags().Int("days", 7, "window length in days")
	rebuildCmd.Flags().String("force-source", "auto", "strategy: auto, api or html")
	rebuildCmd.Flags().Bool("local-clock", false, "anchor the window on the local clock instead of arXiv's")
	rebuildCmd.Flags().Bool("dry-run", false, "fetch without writing")
	rebuildCmd.Flags().Bool("json", false, "print the result as JSON")

	rootCmd.AddCommand(rebuildCmd)
}
