package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/repository"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockEventRepository_CreateAssignsDefaults(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewStockEventRepository(suite.RawDB)

	event := suite.Fixtures.StockEvent()
	event.ID = uuid.Nil
	event.ProcessedAt = time.Time{}
	event.Signature = ptr("counted by jdoe")
	event.DocumentNumber = ptr("PI-2026-04")

	require.NoError(t, repo.Create(ctx, event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.ProcessedAt.IsZero())
}

func TestProvider_InTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)

	provider := repository.NewProvider(suite.DB)

	event := suite.Fixtures.StockEvent()
	err := provider.InTransaction(ctx, func(stores service.Stores) error {
		if err := stores.Events().Create(ctx, event); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// The write above must not survive the rollback: creating the same
	// event again succeeds because the first insert was discarded.
	err = provider.InTransaction(ctx, func(stores service.Stores) error {
		return stores.Events().Create(ctx, event)
	})
	require.NoError(t, err)
}

func TestProvider_InTransaction_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)

	provider := repository.NewProvider(suite.DB)

	event := suite.Fixtures.StockEvent()
	require.NoError(t, provider.InTransaction(ctx, func(stores service.Stores) error {
		return stores.Events().Create(ctx, event)
	}))

	// A committed event is a primary key conflict the second time around.
	err := provider.Stores().Events().Create(ctx, event)
	require.Error(t, err)
}
