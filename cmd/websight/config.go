// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/websight/pkg/types"
)

const configFileName = "websight.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the websight configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a websight.yaml with the default configuration",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(configFileName); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
	}

	data, err := yaml.Marshal(types.DefaultPipelineConfig())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}

	fmt.Printf("Wrote %s\n", configFileName)
	return nil
}
