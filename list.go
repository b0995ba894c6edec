package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/service"
)

var listSearch string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored tasks as JSON",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only tasks whose id contains this value")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, err := service.NewTaskService(repository.NewTaskRepository(db)).List(listSearch)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}
