package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/logger"
	"github.com/stockflow/stockflow-backend/pkg/messaging"
)

// StockEventPublisher publishes stock-related events. All publishes are
// fire-and-forget: processing already committed, so failures are logged and
// never propagated. A nil publisher is safe to call.
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishEventProcessed publishes a stock event processed event
func (p *StockEventPublisher) PublishEventProcessed(ctx context.Context, event *domain.StockEvent) {
	if p == nil {
		return
	}
	data := messaging.StockEventProcessedEvent{
		EventID:    event.ID.String(),
		FacilityID: event.FacilityID.String(),
		ProgramID:  event.ProgramID.String(),
		UserID:     event.UserID.String(),
		LineItems:  len(event.LineItems),
		IsPhysical: event.IsPhysicalInventory(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockEventProcessed, data); err != nil {
		p.logger.Error().Err(err).Str("event_id", data.EventID).Msg("failed to publish stock event processed event")
	}
}

// PublishCardCreated publishes a stock card created event
func (p *StockEventPublisher) PublishCardCreated(ctx context.Context, card *domain.StockCard) {
	if p == nil {
		return
	}
	data := messaging.StockCardCreatedEvent{
		StockCardID: card.ID.String(),
		FacilityID:  card.FacilityID.String(),
		ProgramID:   card.ProgramID.String(),
		OrderableID: card.OrderableID.String(),
		LotID:       uuidString(card.LotID),
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockCardCreated, data); err != nil {
		p.logger.Error().Err(err).Str("stock_card_id", data.StockCardID).Msg("failed to publish stock card created event")
	}
}

// PublishCardDeactivated publishes a stock card deactivated event
func (p *StockEventPublisher) PublishCardDeactivated(ctx context.Context, cardID string) {
	if p == nil {
		return
	}
	data := messaging.StockCardDeactivatedEvent{StockCardID: cardID}

	if err := p.publisher.Publish(ctx, messaging.EventStockCardDeactivated, data); err != nil {
		p.logger.Error().Err(err).Str("stock_card_id", cardID).Msg("failed to publish stock card deactivated event")
	}
}

// PublishStockout publishes a stockout event for a card whose balance hit zero
func (p *StockEventPublisher) PublishStockout(ctx context.Context, card *domain.StockCard, balance domain.DailyBalance) {
	if p == nil {
		return
	}
	data := messaging.StockoutEvent{
		StockCardID:  card.ID.String(),
		FacilityID:   card.FacilityID.String(),
		ProgramID:    card.ProgramID.String(),
		OrderableID:  card.OrderableID.String(),
		LotID:        uuidString(card.LotID),
		OccurredDate: balance.Date,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockout, data); err != nil {
		p.logger.Error().Err(err).Str("stock_card_id", data.StockCardID).Msg("failed to publish stockout event")
	}
}

// PublishPhysicalInventorySubmitted publishes an inventory submitted event
func (p *StockEventPublisher) PublishPhysicalInventorySubmitted(ctx context.Context, inventory *domain.PhysicalInventory) {
	if p == nil {
		return
	}
	eventID := ""
	if inventory.EventID != nil {
		eventID = inventory.EventID.String()
	}
	data := messaging.PhysicalInventorySubmittedEvent{
		PhysicalInventoryID: inventory.ID.String(),
		EventID:             eventID,
		FacilityID:          inventory.FacilityID.String(),
		ProgramID:           inventory.ProgramID.String(),
		LineItems:           len(inventory.LineItems),
	}

	if err := p.publisher.Publish(ctx, messaging.EventPhysicalInventoryDone, data); err != nil {
		p.logger.Error().Err(err).Str("physical_inventory_id", data.PhysicalInventoryID).Msg("failed to publish physical inventory submitted event")
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
