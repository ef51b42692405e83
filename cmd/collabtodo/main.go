package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/collab-todo/internal/model"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "collabtodo",
		Short:         "Collaborative to-do list server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(initCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "collabtodo %s (%s)\n", Version, Commit)
		},
	}
}
