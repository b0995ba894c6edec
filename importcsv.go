package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Create tasks from a CSV file with title,description columns",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewTaskService(repository.NewTaskRepository(db))
	result, err := importTasks(f, svc, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks, skipped %d rows\n", result.Imported, result.Skipped)
	return nil
}

type importResult struct {
	Imported int
	Skipped  int
}

// importTasks reads a header row naming the title and description columns
// (in any order) and creates one task per following row. Rows that fail
// validation are logged and skipped; any other error stops the import.
func importTasks(r io.Reader, svc *service.TaskService, logger *slog.Logger) (importResult, error) {
	var result importResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, errors.New("csv file is empty")
		}
		return result, fmt.Errorf("Error trying to read csv header: %w", err)
	}

	titleCol, descCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "title":
			titleCol = i
		case "description":
			descCol = i
		}
	}
	if titleCol < 0 && descCol < 0 {
		return result, errors.New("csv header must contain a title or description column")
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("Error trying to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		title := column(record, titleCol)
		description := column(record, descCol)

		task, err := svc.Create(title, description)
		if errors.Is(err, service.ErrTitleOrDescriptionRequired) {
			logger.Warn("skipping csv row", "line", line, "error", err)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, err
		}
		logger.Debug("imported task", "line", line, "id", task.ID)
		result.Imported++
	}

	return result, nil
}

func column(record []string, idx int) *string {
	if idx < 0 || idx >= len(record) {
		return nil
	}
	v := strings.TrimSpace(record[idx])
	if v == "" {
		return nil
	}
	return &v
}
