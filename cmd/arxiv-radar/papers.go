// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-radar/internal/server"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// --- papers subcommand ---

var papersCmd = &cobra.Command{
	Use:   "papers [query]",
	Short: "List stored papers, optionally filtered",
	Long: `Papers reads the stored paper set, newest first. A query matches titles
by default; --mode author matches author names and --mode fulltext matches
title, abstract and authors. --days keeps papers created or revised within
the last 1, 3 or 7 days.`,
	RunE: runPapers,
}

func runPapers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	papers, err := repo.ReadPaperSet(ctx)
	if err != nil {
		return err
	}

	filter := server.PaperFilter{Query: strings.Join(args, " ")}
	filter.Mode, _ = cmd.Flags().GetString("mode")
	filter.Category, _ = cmd.Flags().GetString("category")
	filter.Days, _ = cmd.Flags().GetInt("days")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	papers = filter.Apply(papers, time.Now())

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(papers)
	}
	printPaperTable(papers)
	fmt.Fprintf(os.Stdout, "\n%d papers\n", len(papers))
	return nil
}

func printPaperTable(papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Println("No papers found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-18s  %-60s  %s\n", "Published", "arXiv ID", "Title", "Categories")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, p := range papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-18s  %-60s  %s\n",
			p.PublishedAt.Format("2006-01-02"), p.ArxivID, title, strings.Join(p.Categories, ","))
	}
}

// --- meta subcommand ---

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Print the metadata of the last rebuild",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		meta, err := repo.ReadRunMetadata(ctx)
		if err != nil {
			return err
		}
		return printJSON(meta)
	},
}

// --- repair subcommand ---

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Regenerate invalid paper URLs and re-normalize text",
	Long: `Repair rewrites stored papers whose source or PDF URL is off the arXiv
hosts or does not match the identifier, and collapses whitespace in titles
and abstracts. The set is written back only when something changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		report, err := repo.Repair(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Repaired %d of %d papers\n", report.Repaired, report.Total)
		return nil
	},
}

// --- export subcommand ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the paper set and metadata to YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		ctx := cmd.Context()
		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		if out == "" || out == "-" {
			return repo.Export(ctx, os.Stdout, format)
		}
		if err := repo.ExportFile(ctx, out, format); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
		return nil
	},
}

func init() {
	papersCmd.Flags().String("mode", server.ModeTitle, "match mode: title, author or fulltext")
	papersCmd.Flags().String("category", "", "keep papers tagged with this category")
	papersCmd.Flags().Int("days", 0, "keep papers from the last 1, 3 or 7 days (0 = all)")
	papersCmd.Flags().Int("limit", 0, "maximum papers to print (0 = all)")
	papersCmd.Flags().Bool("json", false, "print papers as JSON")

	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(exportCmd)
}
