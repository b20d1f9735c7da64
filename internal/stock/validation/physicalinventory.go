package validation

import (
	"context"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// OrderableLotDuplicationValidator rejects physical inventory events that
// list the same (orderable, lot, unit) identity more than once. One inventory
// carries exactly one authoritative count per product.
type OrderableLotDuplicationValidator struct{}

func NewOrderableLotDuplicationValidator() *OrderableLotDuplicationValidator {
	return &OrderableLotDuplicationValidator{}
}

func (v *OrderableLotDuplicationValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if !event.IsPhysicalInventory() {
		return nil
	}
	seen := make(map[domain.OrderableLotUnitIdentity]struct{}, len(event.LineItems))
	for _, li := range event.LineItems {
		identity := domain.UnitIdentityOfLineItem(li)
		if _, ok := seen[identity]; ok {
			return errors.ValidationWithKey(KeyOrderableLotDuplicated,
				map[string]string{"orderableId": li.OrderableID.String()})
		}
		seen[identity] = struct{}{}
	}
	return nil
}

// AdjustmentReasonsValidator checks stock adjustments attached to physical
// inventory claims: every adjustment reason must be in the valid reason list
// for the program and facility type, and quantities must be non-negative.
type AdjustmentReasonsValidator struct{}

func NewAdjustmentReasonsValidator() *AdjustmentReasonsValidator {
	return &AdjustmentReasonsValidator{}
}

func (v *AdjustmentReasonsValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		for _, adj := range li.StockAdjustments {
			if ectx.FindReason(adj.ReasonID) == nil {
				return errors.ValidationWithKey(KeyEventReasonNotInValidList,
					map[string]string{"reasonId": adj.ReasonID.String()})
			}
			if adj.Quantity < 0 {
				return errors.ValidationWithKey(KeyEventAdjustmentQtyInvalid, nil)
			}
		}
	}
	return nil
}
