package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "wallet_ledger", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "wallet-projector", cfg.Broker.Group)
	assert.Equal(t, "projector-1", cfg.Broker.Consumer)
	assert.Equal(t, 5*time.Second, cfg.Broker.Block)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  mode: "release"
database:
  host: "db.example.com"
  port: 5433
  user: "ledger"
  password: "secret123"
  dbname: "ledgerdb"
  sslmode: "require"
redis:
  host: "redis.example.com"
  port: 6380
  password: "redispwd"
  db: 2
broker:
  group: "projector-group"
  consumer: "worker-7"
  block: "2s"
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)

	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "ledger", cfg.Database.User)
	assert.Equal(t, "require", cfg.Database.SSLMode)

	assert.Equal(t, "redis.example.com:6380", cfg.Redis.Addr())
	assert.Equal(t, 2, cfg.Redis.DB)

	assert.Equal(t, "projector-group", cfg.Broker.Group)
	assert.Equal(t, "worker-7", cfg.Broker.Consumer)
	assert.Equal(t, 2*time.Second, cfg.Broker.Block)

	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WLS_DATABASE_HOST", "env-db")
	t.Setenv("WLS_SERVER_PORT", "7070")
	t.Setenv("WLS_BROKER_GROUP", "env-group")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-group", cfg.Broker.Group)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432,
		User: "ledger", Password: "pw",
		DBName: "wallet_ledger", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://ledger:pw@localhost:5432/wallet_ledger?sslmode=disable", d.DSN())
}
