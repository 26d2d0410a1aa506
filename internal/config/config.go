package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"songbird/internal/structures"
)

// Load loads the configuration from a TOML file
func Load(path string) (*structures.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a TOML file
func Save(cfg *structures.Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the default configuration
func Default() *structures.Config {
	return &structures.Config{
		CatalogBaseURL: "https://music.holodex.net/api/v2",

		StreamCacheSize:   64,
		StreamCacheTTLMin: 40,
		ItemStoreTTLHours: 4,
		ListStoreTTLMin:   30,

		AutoplayEnabled:   true,
		RadioLowWaterMark: 5,
		SaveDebounceMs:    750,
		DefaultVolume:     0.7,
		SeekSeconds:       5,

		Theme: structures.Theme{
			Foreground: "#c0caf5",
			Selected:   "#7aa2f7",
			Playing:    "#9ece6a",
			Border:     "#3b4261",
		},
	}
}
