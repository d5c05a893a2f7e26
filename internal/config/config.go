package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// DefaultPermissionTimeoutSeconds is how long a permission request waits
// for a decision before being denied.
const DefaultPermissionTimeoutSeconds = 60

// Load loads configuration from multiple sources (later sources win):
//  1. Global config (~/.config/gatehouse/gatehouse.{json,jsonc,yaml})
//  2. Project config (<directory>/gatehouse.{json,jsonc,yaml} and
//     <directory>/.gatehouse/gatehouse.{json,jsonc,yaml})
//  3. GATEHOUSE_CONFIG file override
//  4. Environment variables (see env.go)
func Load(directory string) (*types.Config, error) {
	// A .env next to the project config participates like any other
	// environment source.
	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	cfg := &types.Config{}

	loaded := make(map[string]bool)
	loadOnce := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil || loaded[abs] {
			return
		}
		if loadFile(path, cfg) == nil {
			loaded[abs] = true
		}
	}

	globalDir := GetPaths().Config
	for _, name := range configNames() {
		loadOnce(filepath.Join(globalDir, name))
	}

	if directory != "" {
		for _, name := range configNames() {
			loadOnce(filepath.Join(directory, name))
			loadOnce(filepath.Join(directory, ".gatehouse", name))
		}
	}

	if override := os.Getenv("GATEHOUSE_CONFIG"); override != "" {
		loadOnce(override)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func configNames() []string {
	return []string{"gatehouse.json", "gatehouse.jsonc", "gatehouse.yaml", "gatehouse.yml"}
}

// loadFile merges a single config file into cfg. Missing files are skipped.
func loadFile(path string, cfg *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var layer types.Config
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		if err := yaml.Unmarshal(data, &layer); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &layer); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	merge(cfg, &layer)
	return nil
}

// merge overlays src onto dst, field by field. Zero values in src leave
// dst untouched.
func merge(dst, src *types.Config) {
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.Permission.TimeoutSeconds != 0 {
		dst.Permission.TimeoutSeconds = src.Permission.TimeoutSeconds
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Pretty {
		dst.Log.Pretty = true
	}
}

func applyDefaults(cfg *types.Config) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = GetPaths().StoragePath()
	}
	if cfg.Permission.TimeoutSeconds == 0 {
		cfg.Permission.TimeoutSeconds = DefaultPermissionTimeoutSeconds
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
