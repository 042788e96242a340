package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 200, cfg.Migration.ChunkSize)
	assert.True(t, cfg.Ledger.ValidateCatalog)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("MIGRATION_CHUNK_SIZE", "50")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LEDGER_VALIDATE_CATALOG", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.DB.SQLitePath)
	assert.Equal(t, 50, cfg.Migration.ChunkSize)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Ledger.ValidateCatalog)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "lab", Password: "p@ss/word", DBName: "labstock", SSLMode: "disable"}
	assert.Equal(t, "postgres://lab:p%40ss%2Fword@db:5432/labstock?sslmode=disable", c.ConnectionString())
}
