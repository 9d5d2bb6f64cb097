package entity

import "time"

// Estados de un periodo contable.
const (
	PeriodOpen   = "open"
	PeriodClosed = "closed"
	PeriodLocked = "locked"
)

// AccountingPeriod rango de fechas con estado de cierre.
type AccountingPeriod struct {
	ID        string
	TenantID  string
	StartDate time.Time
	EndDate   time.Time
	Status    string
}

// Contains indica si date cae dentro del periodo (ambos extremos inclusive, por día).
func (p *AccountingPeriod) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(p.StartDate)) && !d.After(truncateDay(p.EndDate))
}

// AcceptsPostings falso para periodos cerrados o bloqueados.
func (p *AccountingPeriod) AcceptsPostings() bool {
	return p.Status != PeriodClosed && p.Status != PeriodLocked
}
