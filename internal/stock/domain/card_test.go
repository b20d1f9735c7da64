package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stretchr/testify/assert"
)

func TestSortLineItems_OccurredDateFirst(t *testing.T) {
	later := movement(creditReason, 1, day(5), day(0), 1)
	earlier := movement(creditReason, 1, day(1), day(9), 2)

	items := []*domain.StockCardLineItem{later, earlier}
	domain.SortLineItems(items)

	assert.Same(t, earlier, items[0])
	assert.Same(t, later, items[1])
}

func TestSortLineItems_ProcessedAtBreaksSameDay(t *testing.T) {
	second := movement(creditReason, 1, day(0), day(0).Add(2*time.Hour), 1)
	first := movement(creditReason, 1, day(0), day(0).Add(time.Hour), 2)

	items := []*domain.StockCardLineItem{second, first}
	domain.SortLineItems(items)

	assert.Same(t, first, items[0])
	assert.Same(t, second, items[1])
}

func TestSortLineItems_InventoryClaimSortsLastAtSameInstant(t *testing.T) {
	processed := day(0).Add(time.Hour)
	claim := inventoryClaim(50, day(0), processed, 1)
	credit := movement(creditReason, 5, day(0), processed, 2)
	debit := movement(debitReason, 2, day(0), processed, 3)

	items := []*domain.StockCardLineItem{claim, credit, debit}
	domain.SortLineItems(items)

	assert.Same(t, credit, items[0])
	assert.Same(t, debit, items[1])
	assert.Same(t, claim, items[2])
}

func TestSortLineItems_PositionIsFinalTieBreak(t *testing.T) {
	processed := day(0)
	third := movement(creditReason, 1, day(0), processed, 30)
	first := movement(creditReason, 1, day(0), processed, 10)
	second := movement(creditReason, 1, day(0), processed, 20)

	items := []*domain.StockCardLineItem{third, first, second}
	domain.SortLineItems(items)

	assert.Equal(t, int64(10), items[0].Position)
	assert.Equal(t, int64(20), items[1].Position)
	assert.Equal(t, int64(30), items[2].Position)
}

func TestStockCardLineItem_SignedQuantity(t *testing.T) {
	credit := movement(creditReason, 7, day(0), day(0), 1)
	debit := movement(debitReason, 7, day(0), day(0), 2)
	claim := inventoryClaim(7, day(0), day(0), 3)

	assert.Equal(t, 7, credit.SignedQuantity())
	assert.Equal(t, -7, debit.SignedQuantity())
	assert.Equal(t, 7, claim.SignedQuantity())
	assert.True(t, claim.IsPhysicalInventory())
	assert.False(t, credit.IsPhysicalInventory())
}

func TestIdentityOfCard_MatchesLineItemIdentity(t *testing.T) {
	orderableID := uuid.New()
	lotID := uuid.New()

	card := &domain.StockCard{OrderableID: orderableID, LotID: &lotID}
	li := &domain.StockEventLineItem{OrderableID: orderableID, LotID: &lotID}

	assert.Equal(t, domain.IdentityOfCard(card), domain.IdentityOfLineItem(li))

	// A lot-less card matches a lot-less line item only.
	bare := &domain.StockCard{OrderableID: orderableID}
	assert.NotEqual(t, domain.IdentityOfCard(bare), domain.IdentityOfLineItem(li))
	assert.Equal(t, domain.IdentityOfCard(bare),
		domain.IdentityOfLineItem(&domain.StockEventLineItem{OrderableID: orderableID}))
}
