package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "tasks-api",
	Short: "Task management HTTP API backed by a flat-file store",
	Long: `tasks-api serves a small JSON API to create, list, update, complete and
delete tasks. Tasks are kept in memory and the whole table set is rewritten
to a JSON file (or a SQLite snapshot table) after every change.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
