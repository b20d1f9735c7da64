package validation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// UnpackKitValidator checks kit-unpacking accounting across one event. Two
// passes: first total the non-unpack credits per (orderable, unit), then
// drain those totals with each unpacked kit's constituent requirements. A
// constituent short of its requirement, an unpack of a non-kit orderable, or
// credit left over after draining all constituents fails the event.
type UnpackKitValidator struct{}

func NewUnpackKitValidator() *UnpackKitValidator {
	return &UnpackKitValidator{}
}

type orderableUnitKey struct {
	orderableID uuid.UUID
	unitID      uuid.UUID
}

func keyOfLineItem(li *domain.StockEventLineItem) orderableUnitKey {
	key := orderableUnitKey{orderableID: li.OrderableID}
	if li.UnitOfOrderableID != nil {
		key.unitID = *li.UnitOfOrderableID
	}
	return key
}

func (v *UnpackKitValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if !event.IsKitUnpacking(ectx.UnpackReasonID) {
		return nil
	}

	credits := make(map[orderableUnitKey]int)
	for _, li := range event.LineItems {
		if li.ReasonID == nil || *li.ReasonID != ectx.UnpackReasonID {
			credits[keyOfLineItem(li)] += li.Quantity
		}
	}

	for _, li := range event.LineItems {
		if li.ReasonID == nil || *li.ReasonID != ectx.UnpackReasonID {
			continue
		}
		if err := v.drainConstituents(li, ectx.FindOrderable(li.OrderableID), credits); err != nil {
			return err
		}
	}

	for _, remaining := range credits {
		if remaining > 0 {
			return errors.ValidationWithKey(KeyCannotUnpackExtraConstituents, nil)
		}
	}
	return nil
}

func (v *UnpackKitValidator) drainConstituents(kitLine *domain.StockEventLineItem, kit *refdata.Orderable, credits map[orderableUnitKey]int) error {
	if !kit.IsKit() {
		return errors.ValidationWithKey(KeyCannotUnpackRegularOrderable,
			map[string]string{"orderableId": kitLine.OrderableID.String()})
	}
	for _, child := range kit.Children {
		required := kitLine.Quantity * child.Quantity
		key := orderableUnitKey{orderableID: child.OrderableID}
		credited, ok := credits[key]
		if !ok || required > credited {
			return errors.ValidationWithKey(KeyCannotUnpackConstituent,
				map[string]string{"orderableId": kitLine.OrderableID.String()})
		}
		credits[key] = credited - required
	}
	return nil
}
