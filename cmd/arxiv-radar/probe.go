// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// --- clock subcommand ---

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Compare the local clock with arXiv's Date header",
	RunE: func(cmd *cobra.Command, args []string) error {
		drift := newClient(nil).CompareClock(cmd.Context())
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(drift)
		}
		fmt.Fprintf(os.Stdout, "Local:   %s\n", drift.LocalNow.Format("2006-01-02T15:04:05.000Z07:00"))
		fmt.Fprintf(os.Stdout, "Server:  %s (header %q, status %d, from server %t)\n",
			drift.Server.ServerNow.Format("2006-01-02T15:04:05.000Z07:00"),
			drift.Server.DateHeader, drift.Server.Status, drift.Server.FromServer)
		fmt.Fprintf(os.Stdout, "Drift:   %d ms (%.2f min)\n", drift.DriftMs, drift.DriftMinutes)
		return nil
	},
}

// --- ping subcommand ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Probe the search API or the listing page with the 429 retry schedule",
	Long: `Ping sends one diagnostic request and reports status, body length and
whether the response carried entries (api) or /abs/ links (html). 429
responses are retried honouring Retry-After, else after 15s and 30s.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		cat, _ := cmd.Flags().GetString("cat")

		client := newClient(nil)
		policy := httputil.DiagnosticPolicy()

		var (
			report arxiv.PingReport
			err    error
		)
		switch mode {
		case "api":
			report, err = client.PingAPI(cmd.Context(), cat, policy)
		case "html":
			report, err = client.PingHTML(cmd.Context(), policy)
		default:
			return fmt.Errorf("unsupported mode %q: use api or html", mode)
		}
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

// --- listing subcommand ---

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Scrape the recent-items listing and print its identifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		listing, err := newClient(nil).FetchListingIDs(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d bytes, %d identifiers\n", listing.URL, listing.Bytes, len(listing.IDs))
		for i, id := range listing.IDs {
			if limit > 0 && i == limit {
				fmt.Fprintf(os.Stdout, "... %d more\n", len(listing.IDs)-limit)
				break
			}
			fmt.Fprintln(os.Stdout, id)
		}
		return nil
	},
}

// --- fetch subcommand ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [search expression]",
	Short: "Run one search API page and print the normalized entries",
	Long: `Fetch sends a single search request, for example

  arxiv-radar fetch 'cat:cs.LG AND ti:diffusion' --size 5

and prints each entry as it would be stored. Entries without a usable
identifier or date are reported as rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	sortFlag, _ := cmd.Flags().GetString("sort")
	start, _ := cmd.Flags().GetInt("start")
	size, _ := cmd.Flags().GetInt("size")

	sortBy := arxiv.SortSubmitted
	switch sortFlag {
	case "submitted":
	case "updated":
		sortBy = arxiv.SortLastUpdated
	default:
		return fmt.Errorf("unsupported sort %q: use submitted or updated", sortFlag)
	}

	page, err := newClient(nil).FetchPage(cmd.Context(), arxiv.PageRequest{
		Query: arxiv.SearchQuery(strings.Join(args, " "), sortBy),
		Start: start,
		Size:  size,
	})
	if err != nil {
		return err
	}

	papers := make([]types.Paper, 0, len(page.Entries))
	rejected := 0
	for _, e := range page.Entries {
		p, why := arxiv.NormalizeEntry(e)
		if why != arxiv.RejectNone {
			rejected++
			logger.Debug().Str("reason", string(why)).Str("id", e.ID).Msg("entry rejected")
			continue
		}
		papers = append(papers, p)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(papers)
	}
	fmt.Fprintf(os.Stdout, "%d of %d results (%d rejected)\n\n", len(papers), page.TotalResults, rejected)
	printPaperTable(papers)
	return nil
}

func init() {
	clockCmd.Flags().Bool("json", false, "print the drift report as JSON")

	pingCmd.Flags().String("mode", "api", "probe target: api or html")
	pingCmd.Flags().String("cat", "cs.AI", "category for the api probe")

	listingCmd.Flags().Int("limit", 20, "maximum identifiers to print (0 = all)")

	fetchCmd.Flags().String("sort", "submitted", "sort key: submitted or updated")
	fetchCmd.Flags().Int("start", 0, "result offset")
	fetchCmd.Flags().Int("size", 10, "page size")
	fetchCmd.Flags().Bool("json", false, "print papers as JSON")

	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(listingCmd)
	rootCmd.AddCommand(fetchCmd)
}
