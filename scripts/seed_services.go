package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rootedinspeech/internal/config"
	"rootedinspeech/internal/database"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ServicesFile is the layout of a standalone catalog file.
type ServicesFile struct {
	Services []models.Service `yaml:"services"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		servicesPath = flag.String("services", "configs/services.yaml", "path to services.yaml")
		dbPath       = flag.String("db", "./data/devapi.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*servicesPath)
	if err != nil {
		return fmt.Errorf("read services: %w", err)
	}
	var file ServicesFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse services: %w", err)
	}
	if len(file.Services) == 0 {
		return fmt.Errorf("no services in yaml")
	}
	if err = config.ValidateServices(file.Services); err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, svc := range existing {
		known[svc.ID] = true
	}

	if err = db.SyncServices(ctx, file.Services); err != nil {
		return fmt.Errorf("sync services: %w", err)
	}

	created, updated := 0, 0
	for _, svc := range file.Services {
		if known[svc.ID] {
			updated++
		} else {
			created++
		}
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
