package validation

import (
	"context"
	"strconv"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// ActiveCardsValidator requires a physical inventory to cover every active
// stock card of the facility and program. Not part of the default pipeline;
// deployments that want full-count inventories opt in through configuration.
type ActiveCardsValidator struct {
	cards CardFinder
}

func NewActiveCardsValidator(cards CardFinder) *ActiveCardsValidator {
	return &ActiveCardsValidator{cards: cards}
}

func (v *ActiveCardsValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if !event.IsPhysicalInventory() {
		return nil
	}
	active, err := v.cards.FindActiveByProgramAndFacility(ctx, event.ProgramID, event.FacilityID)
	if err != nil {
		return err
	}

	covered := make(map[domain.OrderableLotIdentity]struct{}, len(event.LineItems))
	for _, li := range event.LineItems {
		covered[domain.IdentityOfLineItem(li)] = struct{}{}
	}

	missing := 0
	for _, card := range active {
		if _, ok := covered[domain.IdentityOfCard(card)]; !ok {
			missing++
		}
	}
	if missing > 0 {
		return errors.ValidationWithKey(KeyMissingActiveCards,
			map[string]string{"missing": strconv.Itoa(missing)})
	}
	return nil
}
