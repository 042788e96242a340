package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/infrastructure/metrics"
)

func TestRecorder_Contadores(t *testing.T) {
	r := metrics.NewRecorder("labstock")
	r.MovementCommitted(entity.MovementEntrada, 5*time.Millisecond)
	r.MovementCommitted(entity.MovementEntrada, 7*time.Millisecond)
	r.MovementRejected(entity.MovementSaida, "insufficient_balance")
	r.PublishFailed()

	n, err := testutil.GatherAndCount(r.Registry(),
		"labstock_ledger_movements_committed_total",
		"labstock_ledger_movements_rejected_total",
		"labstock_ledger_publish_failures_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "una serie por combinación de etiquetas")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `labstock_ledger_movements_committed_total{type="ENTRADA"} 2`)
	assert.Contains(t, string(body), `reason="insufficient_balance"`)
}
