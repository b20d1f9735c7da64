package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creditReason = &domain.Reason{
		ID:             uuid.New(),
		Name:           "Donation",
		ReasonType:     domain.ReasonTypeCredit,
		ReasonCategory: domain.ReasonCategoryAdjustment,
	}
	debitReason = &domain.Reason{
		ID:             uuid.New(),
		Name:           "Damage",
		ReasonType:     domain.ReasonTypeDebit,
		ReasonCategory: domain.ReasonCategoryAdjustment,
	}
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func movement(reason *domain.Reason, quantity int, occurred time.Time, processed time.Time, position int64) *domain.StockCardLineItem {
	item := &domain.StockCardLineItem{
		ID:           uuid.New(),
		Quantity:     quantity,
		OccurredDate: occurred,
		ProcessedAt:  processed,
		Position:     position,
	}
	if reason != nil {
		item.ReasonID = &reason.ID
		item.Reason = reason
	}
	return item
}

func inventoryClaim(quantity int, occurred time.Time, processed time.Time, position int64) *domain.StockCardLineItem {
	return movement(nil, quantity, occurred, processed, position)
}

func TestReplayLedger_SingleCredit(t *testing.T) {
	items := []*domain.StockCardLineItem{
		movement(creditReason, 15, day(0), day(0), 1),
	}

	balances, err := domain.ReplayLedger(0, items, nil)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, day(0), balances[0].Date)
	assert.Equal(t, 15, balances[0].StockOnHand)
	require.NotNil(t, items[0].StockOnHand)
	assert.Equal(t, 15, *items[0].StockOnHand)
}

func TestReplayLedger_BackdatedInsertShiftsLaterDays(t *testing.T) {
	// A movement arriving for a date before already-cached days must shift
	// every later day by its delta.
	items := []*domain.StockCardLineItem{
		movement(creditReason, 10, day(2), day(2), 2),
		movement(creditReason, 10, day(3), day(3), 3),
		movement(creditReason, 15, day(0), day(4), 4),
	}

	balances, err := domain.ReplayLedger(10, items, []time.Time{day(2), day(3)})
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, 25, balances[0].StockOnHand)
	assert.Equal(t, 35, balances[1].StockOnHand)
	assert.Equal(t, 45, balances[2].StockOnHand)
}

func TestReplayLedger_ExtraDatesWithoutItemsCarryRunningTotal(t *testing.T) {
	// Cached days after the new item have no line items of their own in the
	// replay window, yet still get refreshed rows.
	items := []*domain.StockCardLineItem{
		movement(creditReason, 5, day(0), day(5), 1),
	}

	balances, err := domain.ReplayLedger(20, items, []time.Time{day(1), day(4)})
	require.NoError(t, err)
	require.Len(t, balances, 3)
	for i, want := range []int{25, 25, 25} {
		assert.Equal(t, want, balances[i].StockOnHand)
	}
}

func TestReplayLedger_PhysicalInventoryOverwritesRunningTotal(t *testing.T) {
	items := []*domain.StockCardLineItem{
		movement(creditReason, 60, day(0), day(0), 1),
		inventoryClaim(150, day(1), day(1), 2),
	}

	balances, err := domain.ReplayLedger(0, items, nil)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, 60, balances[0].StockOnHand)
	assert.Equal(t, 150, balances[1].StockOnHand)
}

func TestReplayLedger_InventoryThenDebitsSameDay(t *testing.T) {
	// A count of 64 followed by four debits of 4 processed later the same
	// day ends at 48.
	processed := day(1)
	items := []*domain.StockCardLineItem{
		inventoryClaim(64, day(1), processed, 1),
	}
	for i := 0; i < 4; i++ {
		items = append(items, movement(debitReason, 4, day(1), processed.Add(time.Minute), int64(2+i)))
	}

	balances, err := domain.ReplayLedger(100, items, nil)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 48, balances[0].StockOnHand)
}

func TestReplayLedger_SameInstantInventoryAppliesAfterMovements(t *testing.T) {
	// When a count and a movement share occurred date and processed
	// timestamp, the count wins: it is applied last and overwrites.
	processed := day(0)
	items := []*domain.StockCardLineItem{
		inventoryClaim(30, day(0), processed, 1),
		movement(creditReason, 7, day(0), processed, 2),
	}

	balances, err := domain.ReplayLedger(0, items, nil)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 30, balances[0].StockOnHand)
}

func TestReplayLedger_DebitBelowZeroFails(t *testing.T) {
	items := []*domain.StockCardLineItem{
		movement(creditReason, 5, day(0), day(0), 1),
		movement(debitReason, 8, day(1), day(1), 2),
	}

	_, err := domain.ReplayLedger(0, items, nil)
	require.Error(t, err)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.StockOnHand)
	assert.Equal(t, 8, insufficient.Quantity)
	assert.Equal(t, day(1), insufficient.Date)
}

func TestReplayLedger_CreditOverflowFails(t *testing.T) {
	items := []*domain.StockCardLineItem{
		movement(creditReason, 10, day(0), day(0), 1),
	}

	_, err := domain.ReplayLedger(math.MaxInt32-5, items, nil)
	require.Error(t, err)
	var overflow *domain.StockOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, math.MaxInt32-5, overflow.StockOnHand)
}

func TestReplayLedger_Deterministic(t *testing.T) {
	build := func(order []int) []*domain.StockCardLineItem {
		all := []*domain.StockCardLineItem{
			movement(creditReason, 20, day(0), day(0), 1),
			movement(debitReason, 5, day(1), day(1), 2),
			inventoryClaim(40, day(2), day(2), 3),
			movement(creditReason, 3, day(3), day(3), 4),
		}
		items := make([]*domain.StockCardLineItem, len(all))
		for i, idx := range order {
			items[i] = all[idx]
		}
		return items
	}

	first, err := domain.ReplayLedger(0, build([]int{0, 1, 2, 3}), nil)
	require.NoError(t, err)
	shuffled, err := domain.ReplayLedger(0, build([]int{3, 1, 0, 2}), nil)
	require.NoError(t, err)

	require.Equal(t, first, shuffled)
	want := []int{20, 15, 40, 43}
	for i, balance := range first {
		assert.Equal(t, want[i], balance.StockOnHand)
	}

	// Replaying the already-replayed items changes nothing.
	again, err := domain.ReplayLedger(0, build([]int{0, 1, 2, 3}), nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestDateOnly_NormalizesToUTCMidnight(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	stamp := time.Date(2026, 3, 10, 23, 30, 0, 0, berlin)
	got := domain.DateOnly(stamp)
	assert.Equal(t, time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC).Truncate(24*time.Hour), got)
	assert.Equal(t, time.UTC, got.Location())
}
