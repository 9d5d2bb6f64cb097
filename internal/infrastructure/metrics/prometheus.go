package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

const namespace = "ledger"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implementa ports.Metrics con contadores sobre un registry propio.
type Prometheus struct {
	registry *prometheus.Registry

	allocations     *prometheus.CounterVec
	movements       *prometheus.CounterVec
	creditDecisions *prometheus.CounterVec
	journalEntries  *prometheus.CounterVec
	paymentAllocs   prometheus.Histogram
	jobRuns         *prometheus.CounterVec
}

// New registra los colectores del motor más los de proceso y runtime de Go.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Asignaciones FEFO por resultado (ok, insufficient_stock, lock_contention).",
		}, []string{"result"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movimientos de stock por tipo y resultado.",
		}, []string{"type", "result"}),
		creditDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_decisions_total",
			Help:      "Evaluaciones de crédito por resultado (ok, hold).",
		}, []string{"result"}),
		journalEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_total",
			Help:      "Asientos por resultado (ok, unbalanced, closed_period, flagged_for_audit).",
		}, []string{"result"}),
		paymentAllocs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_allocations",
			Help:      "Saldos tocados por cada pago.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25},
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Ejecuciones de procesos en segundo plano por job y resultado.",
		}, []string{"job", "result"}),
	}
	reg.MustRegister(
		p.allocations, p.movements, p.creditDecisions, p.journalEntries, p.paymentAllocs, p.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry registry subyacente (tests).
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler expone el registry en formato de texto de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) ObserveAllocation(result string) {
	p.allocations.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveMovement(movementType, result string) {
	p.movements.WithLabelValues(movementType, result).Inc()
}

func (p *Prometheus) ObserveCreditDecision(result string) {
	p.creditDecisions.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveJournal(result string) {
	p.journalEntries.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObservePayment(allocations int) {
	p.paymentAllocs.Observe(float64(allocations))
}

// ObserveJob cuenta una ejecución de job.
func (p *Prometheus) ObserveJob(job, result string) {
	p.jobRuns.WithLabelValues(job, result).Inc()
}
