package repository

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Batches       BatchRepository
	BatchWriter   BatchWriter
	Movements     MovementRepository
	Outstanding   OutstandingRepository
	Allocations   PaymentAllocationRepository
	Journals      JournalRepository
	Periods       PeriodRepository
	Parties       PartyRepository
	Orders        SalesOrderRepository
	Notifications NotificationRepository
}
