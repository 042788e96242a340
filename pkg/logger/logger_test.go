package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/pkg/logger"
)

func TestLogger_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "warn", Service: "labstock", Out: &buf})

	l.Info().Msg("descartado por nivel")
	assert.Zero(t, buf.Len())

	c := l.Component("ledger")
	c.Warn().Str("batch_id", "B1").Msg("saldo insuficiente")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "labstock", line["service"])
	assert.Equal(t, "ledger", line["component"])
	assert.Equal(t, "B1", line["batch_id"])
	assert.Equal(t, "warn", line["level"])
}
