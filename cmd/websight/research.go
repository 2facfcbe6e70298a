// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/websight/internal/archive"
	"github.com/pdiddy/websight/internal/research"
	"github.com/pdiddy/websight/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Run one research query and print the report",
	Long: `Research runs the full pipeline for a single query: the query is analyzed
into search keywords, web sources are fetched and scored, and the relevant
ones are synthesized into a report printed to stdout. Stage progress goes
to stderr.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("json", false, "output the full report as JSON")
	researchCmd.Flags().Bool("save", false, "store the report in the archive")
	researchCmd.Flags().String("data-dir", "", "directory for the report archive (default data)")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research query")
	}
	query := strings.Join(args, " ")

	cfg := loadPipelineConfig()
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Archive.DataDir = dataDir
	}

	ctx := context.Background()
	agent, err := buildAgent(ctx, cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("building research pipeline: %w", err)
	}

	hooks := research.Hooks{
		SourceStarted: func(num, total int, url, _ string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", num, total, url)
		},
	}

	rep := agent.Research(ctx, query, "", hooks)

	if save, _ := cmd.Flags().GetBool("save"); save && len(rep.Sources) > 0 {
		arch, err := archive.NewStore(cfg.Archive)
		if err != nil {
			return fmt.Errorf("opening report archive: %w", err)
		}
		defer arch.Close()
		id, err := arch.Save(ctx, rep)
		if err != nil {
			return fmt.Errorf("archiving report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved report %s\n", id)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Println(rep.Text)
	printSources(rep.Sources)
	return nil
}

func printSources(sources []types.SourceAnalysis) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, s := range sources {
		fmt.Printf("%d. %s (%.2f)\n   %s\n", i+1, s.Title, s.RelevanceScore, s.URL)
	}
}
