package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/jobs"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/bootstrap"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

var today = time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

func memoryConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Name: "inventario-ledger", Store: bootstrap.StoreMemory},
		Ledger: config.LedgerConfig{BalanceTolerance: decimal.RequireFromString("0.01"), BackdateAuditDays: 7, NearExpiryDays: 90},
		Jobs:   config.JobsConfig{AgingSweepMinutes: 60, ExpirySweepMinutes: 60, OutboxRelaySeconds: 5, OutboxBatchSize: 50},
	}
}

func TestOpen_DriverDesconocido(t *testing.T) {
	cfg := memoryConfig()
	cfg.App.Store = "sqlite"
	_, err := bootstrap.Open(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestOpen_MemoriaSinRedisUsaLockLocal(t *testing.T) {
	e, err := bootstrap.Open(context.Background(), memoryConfig(), logger.NewNop(), bootstrap.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, bootstrap.StoreMemory, e.Store)
	assert.IsType(t, jobs.LogPublisher{}, e.Publisher)
	assert.NotNil(t, e.Orders)
	assert.Len(t, e.Jobs(memoryConfig().Jobs, logger.NewNop()), 3)
}

func TestOpen_JobsOperanSobreElMismoAlmacen(t *testing.T) {
	ctx := context.Background()
	now := today
	e, err := bootstrap.Open(ctx, memoryConfig(), logger.NewNop(), bootstrap.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Credit.RegisterParty(ctx, credit.PartyInput{TenantID: "t1", ID: "C1", Name: "Droguería Sur"})
	require.NoError(t, err)
	_, err = e.Ledger.PostOutstanding(ctx, receivables.PostOutstandingInput{
		TenantID: "t1", UserID: "u1", Kind: entity.OutstandingReceivable, PartyID: "C1",
		SourceType: "invoice", SourceID: "F-1", Amount: decimal.NewFromInt(100),
		DocumentDate: today.AddDate(0, -2, 0), DueDate: today.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	_, _, err = e.Recorder.Record(ctx, inventory.MovementInput{
		TenantID: "t1", UserID: "u1", Type: entity.MovementPurchase, ProductID: "P1",
		QuantityIn: decimal.NewFromInt(5), QuantityOut: decimal.Zero,
		NewBatch: &inventory.NewBatchInput{LotCode: "L1", ExpiryDate: today.AddDate(0, 0, 5)},
	})
	require.NoError(t, err)

	now = today.AddDate(0, 0, 10)
	processed := map[string]int{}
	for _, j := range e.Jobs(memoryConfig().Jobs, logger.NewNop()) {
		n, err := j.Run(ctx)
		require.NoError(t, err, j.Name)
		processed[j.Name] = n
	}
	assert.Equal(t, 1, processed[jobs.JobAgingSweep])
	assert.Equal(t, 1, processed[jobs.JobExpirySweep])
	assert.GreaterOrEqual(t, processed[jobs.JobOutboxRelay], 1, "el vencimiento deja una notificación batch_expired")
}
