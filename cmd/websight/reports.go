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
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse the report archive (list, search, show)",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE:  runReportsList,
}

var reportsSearchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search over archived reports",
	RunE:  runReportsSearch,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one archived report in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

func init() {
	reportsCmd.PersistentFlags().String("data-dir", "data", "directory holding the report archive")
	reportsCmd.PersistentFlags().Int("limit", 0, "maximum results (0 = use default)")
	reportsCmd.PersistentFlags().Bool("json", false, "output results as JSON")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsSearchCmd)
	reportsCmd.AddCommand(reportsShowCmd)

	rootCmd.AddCommand(reportsCmd)
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg := loadPipelineConfig()
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Archive.DataDir = dataDir
	}
	return archive.NewStore(cfg.Archive)
}

func runReportsList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	reports, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatReports(reports, jsonOutput)
}

func runReportsSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	reports, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatReports(reports, jsonOutput)
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Printf("Query: %s\nCreated: %s\n\n%s\n", rep.Query, rep.Created.Format("2006-01-02 15:04"), rep.Text)
	return nil
}

func formatReports(reports []archive.ArchivedReport, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	if len(reports) == 0 {
		fmt.Println("No reports found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-17s  %s\n", "ID", "Created", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range reports {
		query := r.Query
		if len(query) > 50 {
			query = query[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-17s  %s\n", r.ID, r.Created.Format("2006-01-02 15:04"), query)
	}
	fmt.Fprintf(os.Stdout, "\n%d reports\n", len(reports))
	return nil
}
