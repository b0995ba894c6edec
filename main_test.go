package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TWRT/tasks-api/internal/config"
	"github.com/TWRT/tasks-api/internal/models"
	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFileService(t *testing.T) (*service.TaskService, *repository.Database) {
	t.Helper()
	db, err := repository.Open(repository.NewFileSnapshotter(filepath.Join(t.TempDir(), "db.json")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return service.NewTaskService(repository.NewTaskRepository(db)), db
}

func TestImportTasks(t *testing.T) {
	svc, _ := newFileService(t)

	csvData := "description,title\n" +
		"Descrição da Task 01,Task 01\n" +
		"\"with, comma\",Task 02\n" +
		",\n" +
		"only description,\n"

	result, err := importTasks(strings.NewReader(csvData), svc, discardLogger())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 3 || result.Skipped != 1 {
		t.Fatalf("result=%+v", result)
	}

	tasks, err := svc.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks=%d", len(tasks))
	}
	if *tasks[0].Title != "Task 01" || *tasks[0].Description != "Descrição da Task 01" {
		t.Fatalf("first task=%+v", tasks[0])
	}
	if *tasks[1].Description != "with, comma" {
		t.Fatalf("quoted field=%q", *tasks[1].Description)
	}
	if tasks[2].Title != nil || *tasks[2].Description != "only description" {
		t.Fatalf("third task=%+v", tasks[2])
	}
}

func TestImportTasksReportsPhysicalLine(t *testing.T) {
	svc, _ := newFileService(t)

	csvData := "title,description\n" +
		"\"first\nsecond\",spans two lines\n" +
		",\n"

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	result, err := importTasks(strings.NewReader(csvData), svc, logger)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("result=%+v", result)
	}

	var entry struct {
		Msg  string `json:"msg"`
		Line int    `json:"line"`
	}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("decode log %q: %v", logs.String(), err)
	}
	if entry.Msg != "skipping csv row" || entry.Line != 4 {
		t.Fatalf("entry=%+v", entry)
	}
}

func TestImportTasksBadHeader(t *testing.T) {
	svc, _ := newFileService(t)

	for _, data := range []string{"", "name,notes\nx,y\n"} {
		if _, err := importTasks(strings.NewReader(data), svc, discardLogger()); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}

func TestOpenDatabaseStorages(t *testing.T) {
	for _, storage := range []string{config.StorageFile, config.StorageSQLite} {
		t.Run(storage, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage = storage
			cfg.DataPath = filepath.Join(t.TempDir(), "nested", "tasks.data")

			db, err := openDatabase(cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if err := db.Insert("tasks", repository.Record{"id": "1"}); err != nil {
				t.Fatalf("insert: %v", err)
			}
			if err := db.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := openDatabase(cfg)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			if rows, err := reopened.Select("tasks", nil); err != nil || len(rows) != 1 {
				t.Fatalf("rows=%v err=%v", rows, err)
			}
		})
	}
}

func TestImportThenListCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKS_DATA_PATH", filepath.Join(dir, "db.json"))
	t.Setenv("TASKS_STORAGE", "")
	t.Setenv("TASKS_LOG_LEVEL", "error")

	csvPath := filepath.Join(dir, "tasks.csv")
	if err := os.WriteFile(csvPath, []byte("title,description\nwrite docs,for the api\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	missingEnv := filepath.Join(dir, "missing.env")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"import", csvPath, "--env-file", missingEnv})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 1 tasks") {
		t.Fatalf("import output=%q", out.String())
	}

	out.Reset()
	rootCmd.SetArgs([]string{"list", "--env-file", missingEnv})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(out.Bytes(), &tasks); err != nil {
		t.Fatalf("unmarshal: %v; out=%s", err, out.String())
	}
	if len(tasks) != 1 || *tasks[0].Title != "write docs" {
		t.Fatalf("tasks=%+v", tasks)
	}
}
