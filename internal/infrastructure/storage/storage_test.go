package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
	"github.com/jhoicas/labstock/pkg/config"
)

func TestOpen_SQLiteCreaDirectorioYEsquema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	b, err := storage.Open(context.Background(), config.DBConfig{Driver: config.DriverSQLite, SQLitePath: path}, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Catalog.CreateLocation(context.Background(), &entity.StorageLocation{ID: "L1", Name: "Armario", Type: "WAREHOUSE", IsActive: true}))
	loc, err := b.Catalog.GetLocation(context.Background(), "L1")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Armario", loc.Name)
}

func TestOpen_Memory(t *testing.T) {
	b, err := storage.Open(context.Background(), config.DBConfig{Driver: config.DriverMemory}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, b.Driver)
	b.Close()
	b.Close()
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := storage.Open(context.Background(), config.DBConfig{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}
