package validation

import (
	"context"
	"strconv"
	"time"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// QuantityValidator simulates applying the event against the persisted ledger
// and rejects any debit that would drive a card's running stock on hand below
// zero on any day, or any credit that would overflow the supported range. The
// simulation replays each touched card read-only from the earliest occurred
// date in the event; nothing is persisted.
type QuantityValidator struct {
	ledger   LedgerReader
	balances BalanceReader
	cards    CardFinder
}

func NewQuantityValidator(ledger LedgerReader, balances BalanceReader, cards CardFinder) *QuantityValidator {
	return &QuantityValidator{ledger: ledger, balances: balances, cards: cards}
}

func (v *QuantityValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	groups := make(map[domain.OrderableLotIdentity][]*domain.StockEventLineItem)
	for _, li := range event.LineItems {
		identity := domain.IdentityOfLineItem(li)
		groups[identity] = append(groups[identity], li)
	}

	for identity, group := range groups {
		if !v.hasDebit(group, ectx) {
			continue
		}
		if err := v.simulateCard(ctx, event, ectx, identity, group); err != nil {
			return err
		}
	}
	return nil
}

func (v *QuantityValidator) hasDebit(group []*domain.StockEventLineItem, ectx *domain.EventContext) bool {
	for _, li := range group {
		if !li.HasReason() {
			continue
		}
		if reason := ectx.FindReason(*li.ReasonID); reason.IsDebitReasonType() {
			return true
		}
	}
	return false
}

func (v *QuantityValidator) simulateCard(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext, identity domain.OrderableLotIdentity, group []*domain.StockEventLineItem) error {
	earliest := domain.DateOnly(group[0].OccurredDate)
	for _, li := range group[1:] {
		if d := domain.DateOnly(li.OccurredDate); d.Before(earliest) {
			earliest = d
		}
	}

	anchor := 0
	var existing []*domain.StockCardLineItem

	card, err := v.findCard(ctx, event, ectx, identity)
	if err != nil {
		return err
	}
	if card != nil {
		row, err := v.balances.FindLatestBefore(ctx, card.ID, earliest)
		if err != nil {
			return err
		}
		if row != nil {
			anchor = row.StockOnHand
		}
		existing, err = v.ledger.FindByCardFromDate(ctx, card.ID, earliest)
		if err != nil {
			return err
		}
	}

	items := append(existing, v.simulatedItems(event, ectx, group, maxPosition(existing))...)
	if _, err := domain.ReplayLedger(anchor, items, nil); err != nil {
		return replayError(err)
	}
	return nil
}

func (v *QuantityValidator) findCard(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext, identity domain.OrderableLotIdentity) (*domain.StockCard, error) {
	if card := ectx.FindCard(identity); card != nil {
		return card, nil
	}
	return v.cards.FindByIdentity(ctx, event.FacilityID, event.ProgramID, identity)
}

// simulatedItems converts the event's line items for one card into ledger
// line items. Positions continue past the persisted ones so same-instant
// simulated movements sort after what is already on the card.
func (v *QuantityValidator) simulatedItems(event *domain.StockEvent, ectx *domain.EventContext, group []*domain.StockEventLineItem, fromPosition int64) []*domain.StockCardLineItem {
	processedAt := event.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	items := make([]*domain.StockCardLineItem, 0, len(group))
	for i, li := range group {
		item := &domain.StockCardLineItem{
			Quantity:      li.Quantity,
			OccurredDate:  domain.DateOnly(li.OccurredDate),
			ProcessedAt:   processedAt,
			Position:      fromPosition + int64(i) + 1,
			ReasonID:      li.ReasonID,
			SourceID:      li.SourceID,
			DestinationID: li.DestinationID,
		}
		if li.HasReason() {
			item.Reason = ectx.FindReason(*li.ReasonID)
		}
		items = append(items, item)
	}
	return items
}

func maxPosition(items []*domain.StockCardLineItem) int64 {
	var max int64
	for _, li := range items {
		if li.Position > max {
			max = li.Position
		}
	}
	return max
}

func replayError(err error) error {
	switch e := err.(type) {
	case *domain.InsufficientStockError:
		return errors.ValidationWithKey(KeyDebitQuantityExceedsSoh, map[string]string{
			"stockOnHand":  strconv.Itoa(e.StockOnHand),
			"quantity":     strconv.Itoa(e.Quantity),
			"occurredDate": e.Date.Format("2006-01-02"),
		})
	case *domain.StockOverflowError:
		return errors.ValidationWithKey(KeySohExceedsLimit, nil)
	default:
		return err
	}
}
