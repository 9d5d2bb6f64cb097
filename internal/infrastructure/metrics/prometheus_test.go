package metrics_test

import (
	"io"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
)

func TestPrometheus_CuentaPorResultado(t *testing.T) {
	m := metrics.New()

	m.ObserveAllocation(ports.ResultOK)
	m.ObserveAllocation(ports.ResultContention)
	m.ObserveAllocation(ports.ResultContention)
	m.ObserveMovement("sales", ports.ResultRejected)
	m.ObserveCreditDecision(ports.ResultHold)
	m.ObserveJournal(ports.ResultUnbalanced)
	m.ObservePayment(3)
	m.ObserveJob("aging_sweep", ports.ResultOK)

	expected := `
# HELP ledger_allocations_total Asignaciones FEFO por resultado (ok, insufficient_stock, lock_contention).
# TYPE ledger_allocations_total counter
ledger_allocations_total{result="lock_contention"} 2
ledger_allocations_total{result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ledger_allocations_total"))

	n, err := testutil.GatherAndCount(m.Registry(), "ledger_movements_total", "ledger_credit_decisions_total",
		"ledger_journal_entries_total", "ledger_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPrometheus_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveJournal(ports.ResultOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `ledger_journal_entries_total{result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
