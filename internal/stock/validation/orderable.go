package validation

import (
	"context"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// ApprovedOrderableValidator checks that every orderable in the event belongs
// to the approved product list of the event's program and facility type. The
// context builder resolves the approved list up front, so an orderable missing
// from the context is by definition not approved.
type ApprovedOrderableValidator struct{}

func NewApprovedOrderableValidator() *ApprovedOrderableValidator {
	return &ApprovedOrderableValidator{}
}

func (v *ApprovedOrderableValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if ectx.FindOrderable(li.OrderableID) == nil {
			return errors.ValidationWithKey(KeyEventOrderableNotApproved,
				map[string]string{"orderableId": li.OrderableID.String()})
		}
	}
	return nil
}

// LotValidator checks that every referenced lot exists and belongs to the
// trade item of its line item's orderable.
type LotValidator struct{}

func NewLotValidator() *LotValidator {
	return &LotValidator{}
}

func (v *LotValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if !li.HasLot() {
			continue
		}
		lot := ectx.FindLot(*li.LotID)
		if lot == nil {
			return errors.ValidationWithKey(KeyEventLotNotExist,
				map[string]string{"lotId": li.LotID.String()})
		}
		orderable := ectx.FindOrderable(li.OrderableID)
		if orderable != nil && lot.TradeItemID != orderable.TradeItemID() {
			return errors.ValidationWithKey(KeyEventLotOrderableNotMatch, map[string]string{
				"lotId":       lot.ID.String(),
				"orderableId": li.OrderableID.String(),
			})
		}
	}
	return nil
}
