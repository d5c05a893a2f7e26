package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

const namespace = "GATEHOUSE"

// Env holds the environment variable overrides. They take priority over
// every config file.
type Env struct {
	Port                     int    `envconfig:"PORT"`
	Host                     string `envconfig:"HOST"`
	DataDir                  string `envconfig:"DATA_DIR"`
	PermissionTimeoutSeconds int    `envconfig:"PERMISSION_TIMEOUT_SECONDS"`
	LogLevel                 string `envconfig:"LOG_LEVEL"`
	LogPretty                bool   `envconfig:"LOG_PRETTY"`
}

// applyEnv overlays GATEHOUSE_* environment variables onto cfg.
func applyEnv(cfg *types.Config) error {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if env.Port != 0 {
		cfg.Port = env.Port
	}
	if env.Host != "" {
		cfg.Host = env.Host
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.PermissionTimeoutSeconds != 0 {
		cfg.Permission.TimeoutSeconds = env.PermissionTimeoutSeconds
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogPretty {
		cfg.Log.Pretty = true
	}
	return nil
}
