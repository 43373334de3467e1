package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/fbagate/internal/domain"
	"github.com/evanschultz/fbagate/internal/platform"
)

type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	Server     ServerConfig     `toml:"server"`
	Gates      GatesConfig      `toml:"gates"`
	Commercial CommercialConfig `toml:"commercial"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the logfmt file sink used in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// GatesConfig tunes phase gate evaluation.
type GatesConfig struct {
	// ApprovalTokens replaces the default sample approval words when non-empty.
	ApprovalTokens []string `toml:"approval_tokens"`
}

type CommercialConfig struct {
	MinROIPercent      float64 `toml:"min_roi_percent"`
	CriticalStockUnits float64 `toml:"critical_stock_units"`
	HealthyStockUnits  float64 `toml:"healthy_stock_units"`
	MinDaysCover       float64 `toml:"min_days_cover"`
}

func Default(dbPath string) Config {
	thresholds := domain.DefaultCommercialThresholds()
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     platform.DefaultDevLogDir,
			},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Gates: GatesConfig{
			ApprovalTokens: append([]string(nil), domain.DefaultApprovalTokens...),
		},
		Commercial: CommercialConfig{
			MinROIPercent:      thresholds.MinROIPercent,
			CriticalStockUnits: thresholds.CriticalStockUnits,
			HealthyStockUnits:  thresholds.HealthyStockUnits,
			MinDaysCover:       thresholds.MinDaysCover,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	api := strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcp := strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if api != "" && api == mcp {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", c.Server.APIEndpoint)
	}

	for i, token := range c.Gates.ApprovalTokens {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("gates.approval_tokens[%d] is empty", i)
		}
	}

	if c.Commercial.MinROIPercent < 0 {
		return errors.New("commercial.min_roi_percent must be >= 0")
	}
	if c.Commercial.CriticalStockUnits < 0 || c.Commercial.HealthyStockUnits < 0 {
		return errors.New("commercial stock thresholds must be >= 0")
	}
	if c.Commercial.CriticalStockUnits > c.Commercial.HealthyStockUnits {
		return fmt.Errorf(
			"commercial.critical_stock_units (%v) must not exceed commercial.healthy_stock_units (%v)",
			c.Commercial.CriticalStockUnits,
			c.Commercial.HealthyStockUnits,
		)
	}
	if c.Commercial.MinDaysCover < 0 {
		return errors.New("commercial.min_days_cover must be >= 0")
	}

	return nil
}

// CommercialThresholds converts the [commercial] section into gate thresholds.
func (c Config) CommercialThresholds() domain.CommercialThresholds {
	return domain.CommercialThresholds{
		MinROIPercent:      c.Commercial.MinROIPercent,
		CriticalStockUnits: c.Commercial.CriticalStockUnits,
		HealthyStockUnits:  c.Commercial.HealthyStockUnits,
		MinDaysCover:       c.Commercial.MinDaysCover,
	}
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
