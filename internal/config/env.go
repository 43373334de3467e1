package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds process environment overrides. Empty values mean unset.
type Env struct {
	ConfigPath   string `env:"FBAGATE_CONFIG"`
	DBPath       string `env:"FBAGATE_DB_PATH"`
	AppName      string `env:"FBAGATE_APP_NAME"`
	DevMode      *bool  `env:"FBAGATE_DEV_MODE"`
	OTelEndpoint string `env:"FBAGATE_OTEL_ENDPOINT"`
}

// ParseEnv parses environment variables into the provided struct.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads the FBAGATE_* overrides.
func LoadEnv() (Env, error) {
	var out Env
	if err := ParseEnv(&out); err != nil {
		return Env{}, err
	}
	out.ConfigPath = strings.TrimSpace(out.ConfigPath)
	out.DBPath = strings.TrimSpace(out.DBPath)
	out.AppName = strings.TrimSpace(out.AppName)
	out.OTelEndpoint = strings.TrimSpace(out.OTelEndpoint)
	return out, nil
}
