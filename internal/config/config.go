package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"` // empty disables the gRPC health endpoint

	// DB
	Env    string `yaml:"env"`     // "dev" | "prod"
	DBPath string `yaml:"db_path"` // e.g. "./data/veins.db"
	// SeedDev loads sample veins on startup.  Ignored outside dev.
	SeedDev bool `yaml:"seed_dev"`

	// PublicBaseURL prefixes invitation links handed out to users.
	PublicBaseURL string `yaml:"public_base_url"`
	CookieSecure  bool   `yaml:"cookie_secure"`

	SessionTTLHours    int `yaml:"session_ttl_hours"`
	InvitationTTLHours int `yaml:"invitation_ttl_hours"`
	PruneIntervalHours int `yaml:"prune_interval_hours"` // how often expired sessions are pruned (default 6)
}

func Defaults() Config {
	return Config{
		HTTPAddr:           ":24528",
		Env:                "dev",
		DBPath:             "./data/veins.db",
		PublicBaseURL:      "http://localhost:24528",
		SessionTTLHours:    168,
		InvitationTTLHours: 168,
		PruneIntervalHours: 6,
	}
}

// FromEnv returns the defaults overridden by VEIN_* environment variables.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg.normalize()
}

// Load reads an optional YAML file over the defaults, then applies the
// environment on top.  An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg.normalize(), nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c Config) InvitationTTL() time.Duration {
	return time.Duration(c.InvitationTTLHours) * time.Hour
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("VEIN_HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCAddr = getenvDefault("VEIN_GRPC_ADDR", cfg.GRPCAddr)
	cfg.Env = strings.ToLower(getenvDefault("VEIN_ENV", cfg.Env))
	cfg.DBPath = getenvDefault("VEIN_DB_PATH", cfg.DBPath)
	cfg.SeedDev = getenvBool("VEIN_SEED_DEV", cfg.SeedDev)
	cfg.PublicBaseURL = getenvDefault("VEIN_PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.CookieSecure = getenvBool("VEIN_COOKIE_SECURE", cfg.CookieSecure)
	cfg.SessionTTLHours = getenvInt("VEIN_SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.InvitationTTLHours = getenvInt("VEIN_INVITATION_TTL_HOURS", cfg.InvitationTTLHours)
	cfg.PruneIntervalHours = getenvInt("VEIN_PRUNE_INTERVAL_HOURS", cfg.PruneIntervalHours)
}

func (c Config) normalize() Config {
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	return c
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}
