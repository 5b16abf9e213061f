// Package config loads server configuration from env files and the
// environment via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/warp/procurement-engine/engine"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Path string
}

type CalendarConfig struct {
	// Jurisdiction selects the holiday set: "metropole" (default) or
	// "alsace-moselle".
	Jurisdiction engine.Jurisdiction
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Calendar    CalendarConfig
	CORSOrigins []string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			Path: v.GetString("DB_PATH"),
		},
		Calendar: CalendarConfig{
			Jurisdiction: engine.Jurisdiction(v.GetString("CALENDAR_JURISDICTION")),
		},
		CORSOrigins: parseList(v.GetString("CORS_ORIGINS")),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "procurement.db"
	}
	if cfg.Calendar.Jurisdiction == "" {
		cfg.Calendar.Jurisdiction = engine.Metropole
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Calendar.Jurisdiction {
	case engine.Metropole, engine.AlsaceMoselle:
		return nil
	default:
		return fmt.Errorf("unknown CALENDAR_JURISDICTION %q", cfg.Calendar.Jurisdiction)
	}
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
