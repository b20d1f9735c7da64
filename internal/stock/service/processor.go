package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/events"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// Permissions required per event kind.
const (
	PermissionAdjust          = "stock.events.adjust"
	PermissionReceive         = "stock.events.receive"
	PermissionIssue           = "stock.events.issue"
	PermissionInventorySubmit = "stock.inventories.submit"
)

// Processor is the stock event entry point: it builds the event context, runs
// the validation pipeline and persists the accepted event atomically with its
// ledger entries and recalculated balances.
type Processor struct {
	provider  StoreProvider
	contexts  *ContextBuilder
	pipeline  *validation.Pipeline
	recalc    *RecalculationService
	publisher *events.StockEventPublisher
	logger    *logger.Logger
}

// NewProcessor creates a stock event processor. publisher may be nil when
// messaging is disabled; notifications are then silently skipped.
func NewProcessor(provider StoreProvider, contexts *ContextBuilder, pipeline *validation.Pipeline, recalc *RecalculationService, publisher *events.StockEventPublisher, log *logger.Logger) *Processor {
	return &Processor{
		provider:  provider,
		contexts:  contexts,
		pipeline:  pipeline,
		recalc:    recalc,
		publisher: publisher,
		logger:    log.WithComponent("processor"),
	}
}

// processResult carries what the transaction produced, for post-commit
// notifications.
type processResult struct {
	createdCards []*domain.StockCard
	stockouts    []stockout
	inventory    *domain.PhysicalInventory
}

type stockout struct {
	card    *domain.StockCard
	balance domain.DailyBalance
}

// ProcessEvent validates and persists one stock event. On success it returns
// the event id; everything inside the transaction either commits as a whole
// or leaves no trace. Notifications fire after commit and never fail the
// call.
func (p *Processor) ProcessEvent(ctx context.Context, event *domain.StockEvent) (uuid.UUID, error) {
	if err := p.checkPermission(ctx, event); err != nil {
		return uuid.Nil, err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}

	ectx, err := p.contexts.Build(ctx, p.provider.Stores(), event)
	if err != nil {
		return uuid.Nil, err
	}

	if err := p.pipeline.Validate(ctx, event, ectx); err != nil {
		return uuid.Nil, err
	}

	result := &processResult{}
	err = p.provider.InTransaction(ctx, func(stores Stores) error {
		if err := stores.Events().Create(ctx, event); err != nil {
			return err
		}
		if event.IsPhysicalInventory() {
			if err := p.submitInventory(ctx, stores, event, result); err != nil {
				return err
			}
		}
		return p.saveLineItems(ctx, stores, event, ectx, result)
	})
	if err != nil {
		return uuid.Nil, err
	}

	p.notify(ctx, event, result)
	return event.ID, nil
}

func (p *Processor) checkPermission(ctx context.Context, event *domain.StockEvent) error {
	required := PermissionAdjust
	switch {
	case event.IsPhysicalInventory():
		required = PermissionInventorySubmit
	default:
		for _, li := range event.LineItems {
			if li.HasSource() {
				required = PermissionReceive
				break
			}
			if li.HasDestination() {
				required = PermissionIssue
				break
			}
		}
	}
	return requirePermission(ctx, required)
}

// submitInventory finalizes the physical inventory workflow for an accepted
// inventory event: the draft, if any, is replaced by the submitted record.
func (p *Processor) submitInventory(ctx context.Context, stores Stores, event *domain.StockEvent, result *processResult) error {
	if err := stores.Inventories().DeleteDraft(ctx, event.ProgramID, event.FacilityID); err != nil {
		return err
	}
	inventory := domain.FromEvent(event)
	if err := stores.Inventories().Save(ctx, inventory); err != nil {
		return err
	}
	result.inventory = inventory
	return nil
}

// saveLineItems finds or creates the touched cards, locks them, appends the
// ledger entries and recalculates each card's balances.
func (p *Processor) saveLineItems(ctx context.Context, stores Stores, event *domain.StockEvent, ectx *domain.EventContext, result *processResult) error {
	type cardWork struct {
		card  *domain.StockCard
		items []*domain.StockCardLineItem
	}
	workByCard := make(map[uuid.UUID]*cardWork)
	order := make([]uuid.UUID, 0)

	for _, li := range event.LineItems {
		identity := domain.IdentityOfLineItem(li)
		card := ectx.FindCard(identity)
		if card == nil {
			card = &domain.StockCard{
				ID:            uuid.New(),
				OriginEventID: event.ID,
				FacilityID:    event.FacilityID,
				ProgramID:     event.ProgramID,
				OrderableID:   li.OrderableID,
				LotID:         li.LotID,
				IsActive:      true,
			}
			if err := stores.Cards().Create(ctx, card); err != nil {
				return err
			}
			ectx.CacheCard(card)
			result.createdCards = append(result.createdCards, card)
		}

		work := workByCard[card.ID]
		if work == nil {
			work = &cardWork{card: card}
			workByCard[card.ID] = work
			order = append(order, card.ID)
		}
		work.items = append(work.items, p.toLineItem(event, ectx, card, li))
	}

	if err := stores.Cards().Lock(ctx, order); err != nil {
		return err
	}

	for _, cardID := range order {
		work := workByCard[cardID]
		for _, item := range work.items {
			if err := stores.LineItems().Insert(ctx, item); err != nil {
				return err
			}
		}
		balances, err := p.recalc.RecalculateCard(ctx, stores, cardID, work.items)
		if err != nil {
			return err
		}
		if n := len(balances); n > 0 && balances[n-1].StockOnHand == 0 {
			result.stockouts = append(result.stockouts, stockout{card: work.card, balance: balances[n-1]})
		}
	}
	return nil
}

func (p *Processor) toLineItem(event *domain.StockEvent, ectx *domain.EventContext, card *domain.StockCard, li *domain.StockEventLineItem) *domain.StockCardLineItem {
	item := &domain.StockCardLineItem{
		ID:                  uuid.New(),
		StockCardID:         card.ID,
		EventID:             event.ID,
		Quantity:            li.Quantity,
		OccurredDate:        domain.DateOnly(li.OccurredDate),
		ProcessedAt:         event.ProcessedAt,
		ReasonID:            li.ReasonID,
		ReasonFreeText:      li.ReasonFreeText,
		SourceID:            li.SourceID,
		SourceFreeText:      li.SourceFreeText,
		DestinationID:       li.DestinationID,
		DestinationFreeText: li.DestinationFreeText,
		UserID:              event.UserID,
		ExtraData:           li.ExtraData,
	}
	if li.ReasonID != nil {
		item.Reason = ectx.FindReason(*li.ReasonID)
	}
	if li.SourceID != nil {
		item.Source = ectx.FindNode(*li.SourceID)
	}
	if li.DestinationID != nil {
		item.Destination = ectx.FindNode(*li.DestinationID)
	}
	return item
}

// notify fires post-commit notifications. The event already committed;
// publish failures are logged inside the publisher and never surfaced.
func (p *Processor) notify(ctx context.Context, event *domain.StockEvent, result *processResult) {
	p.publisher.PublishEventProcessed(ctx, event)
	for _, card := range result.createdCards {
		p.publisher.PublishCardCreated(ctx, card)
	}
	for _, so := range result.stockouts {
		p.publisher.PublishStockout(ctx, so.card, so.balance)
	}
	if result.inventory != nil {
		p.publisher.PublishPhysicalInventorySubmitted(ctx, result.inventory)
	}
	p.logger.Info().
		Str("event_id", event.ID.String()).
		Int("line_items", len(event.LineItems)).
		Bool("physical_inventory", event.IsPhysicalInventory()).
		Msg("stock event processed")
}
