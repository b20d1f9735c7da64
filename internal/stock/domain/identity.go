package domain

import "github.com/google/uuid"

// OrderableLotIdentity identifies the product a movement acts on. A stock
// card exists per identity and facility/program pair. A zero LotID means the
// movement is not lot-tracked.
type OrderableLotIdentity struct {
	OrderableID uuid.UUID
	LotID       uuid.UUID
}

// OrderableLotUnitIdentity additionally distinguishes the unit of orderable,
// used when grouping sibling line items within one event (duplication checks
// and kit-unpacking accounting).
type OrderableLotUnitIdentity struct {
	OrderableID       uuid.UUID
	LotID             uuid.UUID
	UnitOfOrderableID uuid.UUID
}

// IdentityOfLineItem returns the orderable+lot identity of an event line item.
func IdentityOfLineItem(li *StockEventLineItem) OrderableLotIdentity {
	return OrderableLotIdentity{
		OrderableID: li.OrderableID,
		LotID:       uuidOrNil(li.LotID),
	}
}

// UnitIdentityOfLineItem returns the orderable+lot+unit identity of an event
// line item.
func UnitIdentityOfLineItem(li *StockEventLineItem) OrderableLotUnitIdentity {
	return OrderableLotUnitIdentity{
		OrderableID:       li.OrderableID,
		LotID:             uuidOrNil(li.LotID),
		UnitOfOrderableID: uuidOrNil(li.UnitOfOrderableID),
	}
}

// IdentityOfCard returns the orderable+lot identity a stock card tracks.
func IdentityOfCard(c *StockCard) OrderableLotIdentity {
	return OrderableLotIdentity{
		OrderableID: c.OrderableID,
		LotID:       uuidOrNil(c.LotID),
	}
}

func uuidOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
