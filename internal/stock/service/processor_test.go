package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stockflow/stockflow-backend/pkg/actor"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	stores    *memStores
	provider  *memProvider
	refdata   *fakeRefdata
	processor *service.Processor

	facilityID     uuid.UUID
	facilityTypeID uuid.UUID
	programID      uuid.UUID
	orderableID    uuid.UUID
	creditReason   *domain.Reason
	debitReason    *domain.Reason
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	log := logger.New("test", "test")

	f := &processorFixture{
		stores:         newMemStores(),
		refdata:        newFakeRefdata(),
		facilityID:     uuid.New(),
		facilityTypeID: uuid.New(),
		programID:      uuid.New(),
		orderableID:    uuid.New(),
	}
	f.provider = newMemProvider(f.stores)

	f.refdata.facilities[f.facilityID] = &refdata.Facility{
		ID: f.facilityID, Code: "HF01", Name: "Health Facility",
		FacilityTypeID: f.facilityTypeID, GeographicZoneID: uuid.New(),
	}
	f.refdata.programs[f.programID] = &refdata.Program{ID: f.programID, Code: "EM", Name: "Essential Medicines"}
	f.refdata.orderables = []*refdata.Orderable{
		{ID: f.orderableID, ProductCode: "C100", FullName: "Paracetamol"},
	}

	f.creditReason = &domain.Reason{
		ID: uuid.New(), Name: "Donation",
		ReasonType: domain.ReasonTypeCredit, ReasonCategory: domain.ReasonCategoryAdjustment,
	}
	f.debitReason = &domain.Reason{
		ID: uuid.New(), Name: "Damage",
		ReasonType: domain.ReasonTypeDebit, ReasonCategory: domain.ReasonCategoryAdjustment,
	}
	f.stores.addReason(f.creditReason, f.programID, f.facilityTypeID)
	f.stores.addReason(f.debitReason, f.programID, f.facilityTypeID)

	pipeline := validation.DefaultPipeline(log, f.stores.LineItems(), f.stores.Balances(), f.stores.Cards())
	contexts := service.NewContextBuilder(f.refdata, uuid.Nil)
	recalc := service.NewRecalculationService(log)
	f.processor = service.NewProcessor(f.provider, contexts, pipeline, recalc, nil, log)
	return f
}

func (f *processorFixture) adjustment(reason *domain.Reason, quantity int, occurred time.Time) *domain.StockEvent {
	return &domain.StockEvent{
		FacilityID: f.facilityID,
		ProgramID:  f.programID,
		UserID:     uuid.New(),
		LineItems: []*domain.StockEventLineItem{
			{OrderableID: f.orderableID, Quantity: quantity, OccurredDate: occurred, ReasonID: &reason.ID},
		},
	}
}

func (f *processorFixture) ctx(perms ...string) context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{
		ID: uuid.NewString(), Permissions: perms,
	})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var app *errors.AppError
	require.True(t, errors.As(err, &app))
	return app.StatusCode
}

func TestProcessor_AdjustmentCreatesCardAndBalances(t *testing.T) {
	f := newProcessorFixture(t)
	occurred := domain.Today().AddDate(0, 0, -3)

	eventID, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), f.adjustment(f.creditReason, 25, occurred))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, eventID)

	require.Len(t, f.stores.events, 1)
	require.Len(t, f.stores.cards, 1)
	for _, card := range f.stores.cards {
		assert.True(t, card.IsActive)
		assert.Equal(t, eventID, card.OriginEventID)
		assert.Equal(t, f.orderableID, card.OrderableID)

		rows := f.stores.cardBalances(card.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, occurred, rows[0].OccurredDate)
		assert.Equal(t, 25, rows[0].StockOnHand)
	}

	require.Len(t, f.stores.lineItems, 1)
	item := f.stores.lineItems[0]
	assert.Equal(t, int64(1), item.Position)
	require.NotNil(t, item.StockOnHand)
	assert.Equal(t, 25, *item.StockOnHand)
}

func TestProcessor_SecondEventReusesCard(t *testing.T) {
	f := newProcessorFixture(t)
	occurred := domain.Today().AddDate(0, 0, -3)
	ctx := f.ctx(service.PermissionAdjust)

	_, err := f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 25, occurred))
	require.NoError(t, err)
	_, err = f.processor.ProcessEvent(ctx, f.adjustment(f.debitReason, 10, occurred.AddDate(0, 0, 1)))
	require.NoError(t, err)

	require.Len(t, f.stores.cards, 1)
	for _, card := range f.stores.cards {
		rows := f.stores.cardBalances(card.ID)
		require.Len(t, rows, 2)
		assert.Equal(t, 25, rows[0].StockOnHand)
		assert.Equal(t, 15, rows[1].StockOnHand)
	}
}

func TestProcessor_BackdatedEventShiftsLaterBalances(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := f.ctx(service.PermissionAdjust)
	base := domain.Today().AddDate(0, 0, -10)

	_, err := f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 10, base.AddDate(0, 0, 2)))
	require.NoError(t, err)
	_, err = f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 10, base.AddDate(0, 0, 4)))
	require.NoError(t, err)

	// A movement for a day before both cached rows shifts them by its delta.
	_, err = f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 15, base))
	require.NoError(t, err)

	for _, card := range f.stores.cards {
		rows := f.stores.cardBalances(card.ID)
		require.Len(t, rows, 3)
		assert.Equal(t, 15, rows[0].StockOnHand)
		assert.Equal(t, 25, rows[1].StockOnHand)
		assert.Equal(t, 35, rows[2].StockOnHand)
	}
}

func TestProcessor_RequiresAuthentication(t *testing.T) {
	f := newProcessorFixture(t)

	_, err := f.processor.ProcessEvent(context.Background(), f.adjustment(f.creditReason, 5, domain.Today()))
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestProcessor_RequiresPermissionPerEventKind(t *testing.T) {
	f := newProcessorFixture(t)

	t.Run("adjustment needs the adjust permission", func(t *testing.T) {
		_, err := f.processor.ProcessEvent(f.ctx(service.PermissionReceive), f.adjustment(f.creditReason, 5, domain.Today()))
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})

	t.Run("receive needs the receive permission", func(t *testing.T) {
		sourceID := uuid.New()
		event := f.adjustment(f.creditReason, 5, domain.Today())
		event.LineItems[0].SourceID = &sourceID

		_, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), event)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})

	t.Run("issue needs the issue permission", func(t *testing.T) {
		destinationID := uuid.New()
		event := f.adjustment(f.debitReason, 5, domain.Today())
		event.LineItems[0].DestinationID = &destinationID

		_, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), event)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})

	t.Run("inventory needs the submit permission", func(t *testing.T) {
		event := &domain.StockEvent{
			FacilityID: f.facilityID,
			ProgramID:  f.programID,
			LineItems: []*domain.StockEventLineItem{
				{OrderableID: f.orderableID, Quantity: 40, OccurredDate: domain.Today()},
			},
		}
		_, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), event)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})

	t.Run("wildcard covers everything", func(t *testing.T) {
		_, err := f.processor.ProcessEvent(f.ctx("*"), f.adjustment(f.creditReason, 5, domain.Today()))
		require.NoError(t, err)
	})
}

func TestProcessor_RejectedEventLeavesNoTrace(t *testing.T) {
	f := newProcessorFixture(t)

	// Debit against an empty card fails validation before any write.
	_, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), f.adjustment(f.debitReason, 5, domain.Today()))
	require.Error(t, err)
	assert.Equal(t, validation.KeyDebitQuantityExceedsSoh, appMessageKey(err))

	assert.Empty(t, f.stores.events)
	assert.Empty(t, f.stores.cards)
	assert.Empty(t, f.stores.lineItems)
}

func TestProcessor_FailedTransactionRollsBack(t *testing.T) {
	f := newProcessorFixture(t)
	f.stores.failLineItemInsert = assert.AnError

	_, err := f.processor.ProcessEvent(f.ctx(service.PermissionAdjust), f.adjustment(f.creditReason, 5, domain.Today()))
	require.ErrorIs(t, err, assert.AnError)

	assert.Empty(t, f.stores.events)
	assert.Empty(t, f.stores.cards)
	assert.Empty(t, f.stores.lineItems)
}

func TestProcessor_PhysicalInventorySubmission(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := f.ctx(service.PermissionAdjust, service.PermissionInventorySubmit)
	occurred := domain.Today().AddDate(0, 0, -1)

	_, err := f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 60, occurred.AddDate(0, 0, -1)))
	require.NoError(t, err)

	// A lingering draft is replaced by the submitted record.
	draft := &domain.PhysicalInventory{
		ID: uuid.New(), ProgramID: f.programID, FacilityID: f.facilityID, IsDraft: true,
	}
	require.NoError(t, f.stores.Inventories().Save(ctx, draft))

	count := &domain.StockEvent{
		FacilityID: f.facilityID,
		ProgramID:  f.programID,
		UserID:     uuid.New(),
		LineItems: []*domain.StockEventLineItem{
			{OrderableID: f.orderableID, Quantity: 48, OccurredDate: occurred},
		},
	}
	eventID, err := f.processor.ProcessEvent(ctx, count)
	require.NoError(t, err)

	var submitted *domain.PhysicalInventory
	for _, inv := range f.stores.inventories {
		require.False(t, inv.IsDraft)
		submitted = inv
	}
	require.NotNil(t, submitted)
	require.NotNil(t, submitted.EventID)
	assert.Equal(t, eventID, *submitted.EventID)

	// The claim overwrites the running total for its day.
	for _, card := range f.stores.cards {
		rows := f.stores.cardBalances(card.ID)
		require.Len(t, rows, 2)
		assert.Equal(t, 60, rows[0].StockOnHand)
		assert.Equal(t, 48, rows[1].StockOnHand)
	}
}

func TestProcessor_DuplicateResubmissionRejected(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := f.ctx(service.PermissionAdjust)
	occurred := domain.Today().AddDate(0, 0, -2)

	_, err := f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 25, occurred))
	require.NoError(t, err)

	_, err = f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 25, occurred))
	require.Error(t, err)
	assert.Equal(t, validation.KeyEventIsDuplicate, appMessageKey(err))

	// Changing one field lets the resubmission through.
	_, err = f.processor.ProcessEvent(ctx, f.adjustment(f.creditReason, 26, occurred))
	require.NoError(t, err)
}

func appMessageKey(err error) string {
	var app *errors.AppError
	if ok := errors.As(err, &app); ok {
		return app.MessageKey
	}
	return ""
}
