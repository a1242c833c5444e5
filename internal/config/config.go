package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL       string `toml:"base_url"`
	Token         string `toml:"token"`
	PerPage       int    `toml:"per_page"`
	IncludeDrafts bool   `toml:"include_drafts"`
	CachePath     string `toml:"cache_path"`
	ConfigPath    string `toml:"-"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mr-lens", "config.toml")
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "mr-lens", "cache.db")
}

// Load layers configuration: defaults, then the toml config file, then
// environment variables. A local .env file is picked up when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:   "https://gitlab.com",
		PerPage:   20,
		CachePath: defaultCachePath(),
	}

	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg.ConfigPath = configPath

	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envURL := os.Getenv("GITLAB_URL"); envURL != "" {
		cfg.BaseURL = envURL
	}

	if envToken := os.Getenv("GITLAB_TOKEN"); envToken != "" {
		cfg.Token = envToken
	}

	if envCache := os.Getenv("MR_LENS_CACHE"); envCache != "" {
		cfg.CachePath = envCache
	}

	if envPerPage := os.Getenv("MR_LENS_PER_PAGE"); envPerPage != "" {
		n, err := strconv.Atoi(envPerPage)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MR_LENS_PER_PAGE: %q", envPerPage)
		}
		cfg.PerPage = n
	}

	if cfg.CachePath == "" {
		cfg.CachePath = defaultCachePath()
	}

	return cfg, nil
}
