package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-requester/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize go-requester with default configuration and directory structure",
	Long: `Creates the default configuration file (config.yaml) and data directory.

The generated configuration uses file storage under ./data.
If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	dataDir := filepath.Join(absPath, "data")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created directory: %s\n", dataDir)

	cfg := config.Default()
	cfg.Storage.Type = "file"
	cfg.Storage.Path = "./data"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	header := "# Go-Requester Configuration\n\n"
	if err := os.WriteFile(configFile, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", configFile)

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Initialization complete! You can now start the server with:")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "  cd %s\n", absPath)
	fmt.Fprintln(cmd.OutOrStdout(), "  go-requester serve")
	fmt.Fprintln(cmd.OutOrStdout())

	return nil
}
