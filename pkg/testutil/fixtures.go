package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Reason creates a reason catalog entry with defaults (a CREDIT adjustment)
func (f *FixtureFactory) Reason(opts ...func(*domain.Reason)) *domain.Reason {
	seq := f.nextSeq()

	reason := &domain.Reason{
		ID:             uuid.New(),
		Name:           fmt.Sprintf("Reason %d", seq),
		ReasonType:     domain.ReasonTypeCredit,
		ReasonCategory: domain.ReasonCategoryAdjustment,
		CreatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(reason)
	}

	return reason
}

// CreditAdjustment creates a CREDIT/ADJUSTMENT reason
func (f *FixtureFactory) CreditAdjustment() *domain.Reason {
	return f.Reason()
}

// DebitAdjustment creates a DEBIT/ADJUSTMENT reason
func (f *FixtureFactory) DebitAdjustment() *domain.Reason {
	return f.Reason(WithReasonType(domain.ReasonTypeDebit))
}

// TransferReason creates a TRANSFER reason of the given type
func (f *FixtureFactory) TransferReason(reasonType domain.ReasonType) *domain.Reason {
	return f.Reason(
		WithReasonType(reasonType),
		WithReasonCategory(domain.ReasonCategoryTransfer),
	)
}

// WithReasonType sets the reason type
func WithReasonType(reasonType domain.ReasonType) func(*domain.Reason) {
	return func(r *domain.Reason) {
		r.ReasonType = reasonType
	}
}

// WithReasonCategory sets the reason category
func WithReasonCategory(category domain.ReasonCategory) func(*domain.Reason) {
	return func(r *domain.Reason) {
		r.ReasonCategory = category
	}
}

// WithFreeTextAllowed marks the reason as accepting free text
func WithFreeTextAllowed() func(*domain.Reason) {
	return func(r *domain.Reason) {
		r.IsFreeTextAllowed = true
	}
}

// StockEvent creates a stock event with defaults and no line items
func (f *FixtureFactory) StockEvent(opts ...func(*domain.StockEvent)) *domain.StockEvent {
	event := &domain.StockEvent{
		ID:          uuid.New(),
		FacilityID:  uuid.New(),
		ProgramID:   uuid.New(),
		UserID:      uuid.New(),
		ProcessedAt: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(event)
	}

	return event
}

// WithFacility sets the event facility
func WithFacility(facilityID uuid.UUID) func(*domain.StockEvent) {
	return func(e *domain.StockEvent) {
		e.FacilityID = facilityID
	}
}

// WithProgram sets the event program
func WithProgram(programID uuid.UUID) func(*domain.StockEvent) {
	return func(e *domain.StockEvent) {
		e.ProgramID = programID
	}
}

// WithLineItems appends line items to the event
func WithLineItems(items ...*domain.StockEventLineItem) func(*domain.StockEvent) {
	return func(e *domain.StockEvent) {
		e.LineItems = append(e.LineItems, items...)
	}
}

// EventLineItem creates an event line item with defaults
func (f *FixtureFactory) EventLineItem(opts ...func(*domain.StockEventLineItem)) *domain.StockEventLineItem {
	item := &domain.StockEventLineItem{
		OrderableID:  uuid.New(),
		Quantity:     10,
		OccurredDate: time.Now().UTC().Truncate(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(item)
	}

	return item
}

// WithOrderable sets the line item orderable
func WithOrderable(orderableID uuid.UUID) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.OrderableID = orderableID
	}
}

// WithLot sets the line item lot
func WithLot(lotID uuid.UUID) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.LotID = &lotID
	}
}

// WithQuantity sets the line item quantity
func WithQuantity(quantity int) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.Quantity = quantity
	}
}

// WithOccurredDate sets the line item occurred date
func WithOccurredDate(date time.Time) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.OccurredDate = date
	}
}

// WithReason sets the line item reason id
func WithReason(reasonID uuid.UUID) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.ReasonID = &reasonID
	}
}

// WithSource sets the line item source node id
func WithSource(nodeID uuid.UUID) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.SourceID = &nodeID
	}
}

// WithDestination sets the line item destination node id
func WithDestination(nodeID uuid.UUID) func(*domain.StockEventLineItem) {
	return func(li *domain.StockEventLineItem) {
		li.DestinationID = &nodeID
	}
}

// StockCard creates a stock card with defaults
func (f *FixtureFactory) StockCard(opts ...func(*domain.StockCard)) *domain.StockCard {
	card := &domain.StockCard{
		ID:            uuid.New(),
		OriginEventID: uuid.New(),
		FacilityID:    uuid.New(),
		ProgramID:     uuid.New(),
		OrderableID:   uuid.New(),
		IsActive:      true,
		CreatedAt:     time.Now(),
	}

	for _, opt := range opts {
		opt(card)
	}

	return card
}

// WithCardIdentity sets the facility/program/orderable identity of a card
func WithCardIdentity(facilityID, programID, orderableID uuid.UUID) func(*domain.StockCard) {
	return func(c *domain.StockCard) {
		c.FacilityID = facilityID
		c.ProgramID = programID
		c.OrderableID = orderableID
	}
}

// WithCardLot sets the card lot
func WithCardLot(lotID uuid.UUID) func(*domain.StockCard) {
	return func(c *domain.StockCard) {
		c.LotID = &lotID
	}
}

// CardLineItem creates a persisted ledger line item with defaults
func (f *FixtureFactory) CardLineItem(cardID uuid.UUID, opts ...func(*domain.StockCardLineItem)) *domain.StockCardLineItem {
	seq := f.nextSeq()

	item := &domain.StockCardLineItem{
		ID:           uuid.New(),
		StockCardID:  cardID,
		EventID:      uuid.New(),
		Quantity:     10,
		OccurredDate: time.Now().UTC().Truncate(24 * time.Hour),
		ProcessedAt:  time.Now().UTC(),
		Position:     int64(seq),
		UserID:       uuid.New(),
	}

	for _, opt := range opts {
		opt(item)
	}

	return item
}

// WithItemQuantity sets the line item quantity
func WithItemQuantity(quantity int) func(*domain.StockCardLineItem) {
	return func(li *domain.StockCardLineItem) {
		li.Quantity = quantity
	}
}

// WithItemDate sets the line item occurred date
func WithItemDate(date time.Time) func(*domain.StockCardLineItem) {
	return func(li *domain.StockCardLineItem) {
		li.OccurredDate = date
	}
}

// WithItemProcessedAt sets the line item processed timestamp
func WithItemProcessedAt(at time.Time) func(*domain.StockCardLineItem) {
	return func(li *domain.StockCardLineItem) {
		li.ProcessedAt = at
	}
}

// WithItemReason attaches a resolved reason to the line item
func WithItemReason(reason *domain.Reason) func(*domain.StockCardLineItem) {
	return func(li *domain.StockCardLineItem) {
		li.ReasonID = &reason.ID
		li.Reason = reason
	}
}
