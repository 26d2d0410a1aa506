package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"songbird/internal/config"
	"songbird/internal/database"
	"songbird/internal/extractor"
	"songbird/internal/logger"
	"songbird/internal/systems"
	"songbird/internal/ui"
	"songbird/internal/version"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		clearCache  = flag.Bool("clear-cache", false, "Clear all cached metadata and saved playback state")
		dataDirFlag = flag.String("data-dir", "", "Override the data directory")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("songbird v%s\n", version.Version)
		return
	}

	// Optional .env with catalog credentials; absence is fine.
	_ = godotenv.Load()

	dataDir := *dataDirFlag
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine config dir: %v\n", err)
			os.Exit(1)
		}
		dataDir = filepath.Join(base, "songbird")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create data dir: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(filepath.Join(dataDir, "logs", "songbird.log"), *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logging: %v\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(dataDir, "config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
		if err := config.Save(cfg, configPath); err != nil {
			logger.Warn("could not write default config: %v", err)
		}
	}

	if url := os.Getenv("SONGBIRD_CATALOG_URL"); url != "" {
		cfg.CatalogBaseURL = url
	}

	if *clearCache {
		db, err := database.Open(filepath.Join(dataDir, "songbird.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open database: %v\n", err)
			os.Exit(1)
		}
		if err := db.ClearAll(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot clear cache: %v\n", err)
			os.Exit(1)
		}
		db.Close()
		fmt.Println("Cache cleared.")
		return
	}

	sys, err := systems.Start(cfg, dataDir, extractor.New(os.Getenv("SONGBIRD_PLAYER_ENDPOINT")), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer sys.Stop()

	if email, password := os.Getenv("SONGBIRD_EMAIL"), os.Getenv("SONGBIRD_PASSWORD"); email != "" && password != "" {
		if _, err := sys.Catalog.Login(context.Background(), email, password); err != nil {
			logger.Warn("catalog login failed: %v", err)
		}
	}

	if sys.Controller.RestoreSaved() {
		logger.Info("resumed previous playback session")
	}

	if err := ui.Run(sys); err != nil {
		logger.Error("ui error: %v", err)
		os.Exit(1)
	}
}
