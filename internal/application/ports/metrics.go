package ports

// Resultados usados como etiqueta en las métricas.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient_stock"
	ResultContention   = "lock_contention"
	ResultRejected     = "rejected"
	ResultHold         = "hold"
	ResultUnbalanced   = "unbalanced"
	ResultClosedPeriod = "closed_period"
	ResultFlagged      = "flagged_for_audit"
)

// Metrics puerto de métricas del motor. La implementación vive en infrastructure/metrics.
type Metrics interface {
	ObserveAllocation(result string)
	ObserveMovement(movementType, result string)
	ObserveCreditDecision(result string)
	ObserveJournal(result string)
	ObservePayment(allocations int)
}

// NopMetrics descarta todo.
type NopMetrics struct{}

func (NopMetrics) ObserveAllocation(string)       {}
func (NopMetrics) ObserveMovement(string, string) {}
func (NopMetrics) ObserveCreditDecision(string)   {}
func (NopMetrics) ObserveJournal(string)          {}
func (NopMetrics) ObservePayment(int)             {}
