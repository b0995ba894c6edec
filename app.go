package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/TWRT/tasks-api/internal/config"
	"github.com/TWRT/tasks-api/internal/logging"
	"github.com/TWRT/tasks-api/internal/repository"
)

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func openDatabase(cfg config.Config) (*repository.Database, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		conn, err := repository.InitDB(cfg.DataPath)
		if err != nil {
			return nil, err
		}
		db, err := repository.Open(repository.NewSQLiteSnapshotter(conn))
		if err != nil {
			conn.Close()
			return nil, err
		}
		return db, nil
	case config.StorageFile:
		return repository.Open(repository.NewFileSnapshotter(cfg.DataPath))
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
