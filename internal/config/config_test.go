package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluslatte/gt6-vein-manager/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VEIN_HTTP_ADDR", "VEIN_GRPC_ADDR", "VEIN_ENV", "VEIN_DB_PATH", "VEIN_SEED_DEV",
		"VEIN_PUBLIC_BASE_URL", "VEIN_COOKIE_SECURE", "VEIN_SESSION_TTL_HOURS",
		"VEIN_INVITATION_TTL_HOURS", "VEIN_PRUNE_INTERVAL_HOURS",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := config.FromEnv()
	assert.Equal(t, ":24528", cfg.HTTPAddr)
	assert.Equal(t, "", cfg.GRPCAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "./data/veins.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:24528", cfg.PublicBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 168*time.Hour, cfg.InvitationTTL())
	assert.Equal(t, 6, cfg.PruneIntervalHours)
	assert.False(t, cfg.CookieSecure)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VEIN_HTTP_ADDR", ":9000")
	t.Setenv("VEIN_ENV", "PROD")
	t.Setenv("VEIN_PUBLIC_BASE_URL", "https://veins.example.com/")
	t.Setenv("VEIN_COOKIE_SECURE", "1")
	t.Setenv("VEIN_SESSION_TTL_HOURS", "12")

	cfg := config.FromEnv()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "https://veins.example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
}

func TestFromEnv_FailSoft(t *testing.T) {
	clearEnv(t)
	t.Setenv("VEIN_ENV", "staging")
	t.Setenv("VEIN_SESSION_TTL_HOURS", "forever")
	t.Setenv("VEIN_PRUNE_INTERVAL_HOURS", "-3")

	cfg := config.FromEnv()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 168, cfg.SessionTTLHours)
	assert.Equal(t, 6, cfg.PruneIntervalHours)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "veins.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":7000"
grpc_addr: ":7001"
db_path: /var/lib/veins/veins.db
invitation_ttl_hours: 24
`), 0o644))
	t.Setenv("VEIN_HTTP_ADDR", ":7100")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.HTTPAddr, "environment wins over the file")
	assert.Equal(t, ":7001", cfg.GRPCAddr)
	assert.Equal(t, "/var/lib/veins/veins.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.InvitationTTL())
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL(), "unset keys keep their defaults")
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: [unterminated"), 0o644))
	_, err = config.Load(path)
	assert.Error(t, err)
}
