// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/websight/internal/archive"
	"github.com/pdiddy/websight/internal/history"
	"github.com/pdiddy/websight/internal/progress"
	"github.com/pdiddy/websight/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websight HTTP server",
	Long: `Serve starts the web front end: research jobs are submitted over the API,
progress is available by polling or server-sent events, and finished reports
land in the conversation history and the report archive.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5001)")
	serveCmd.Flags().String("data-dir", "", "directory for the report archive (default data)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Archive.DataDir = dataDir
	}

	logger := log.New(os.Stderr, "websight ", log.LstdFlags)

	agent, err := buildAgent(context.Background(), cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("building research pipeline: %w", err)
	}

	arch, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening report archive: %w", err)
	}
	defer arch.Close()

	srv := server.New(
		agent,
		progress.NewTracker(cfg.Tracker),
		history.NewStore(cfg.History),
		arch,
		logger,
	)

	logger.Printf("listening on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv)
}
