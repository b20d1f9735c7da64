package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Stock events
	EventStockEventProcessed   = "stock.event.processed"
	EventStockCardCreated      = "stock.card.created"
	EventStockCardDeactivated  = "stock.card.deactivated"
	EventStockout              = "stock.stockout"
	EventPhysicalInventoryDone = "stock.physical_inventory.submitted"
)

// Exchange names
const (
	ExchangeStockEvents = "stock.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Stock Events

// StockEventProcessedEvent is published after a stock event commits
type StockEventProcessedEvent struct {
	EventID    string `json:"event_id"`
	FacilityID string `json:"facility_id"`
	ProgramID  string `json:"program_id"`
	UserID     string `json:"user_id"`
	LineItems  int    `json:"line_items"`
	IsPhysical bool   `json:"is_physical_inventory"`
}

// StockCardCreatedEvent is published when a first movement creates a card
type StockCardCreatedEvent struct {
	StockCardID string  `json:"stock_card_id"`
	FacilityID  string  `json:"facility_id"`
	ProgramID   string  `json:"program_id"`
	OrderableID string  `json:"orderable_id"`
	LotID       *string `json:"lot_id,omitempty"`
}

// StockCardDeactivatedEvent is published when a card is taken out of use
type StockCardDeactivatedEvent struct {
	StockCardID string `json:"stock_card_id"`
}

// StockoutEvent is published when a card's stock on hand reaches zero
type StockoutEvent struct {
	StockCardID  string    `json:"stock_card_id"`
	FacilityID   string    `json:"facility_id"`
	ProgramID    string    `json:"program_id"`
	OrderableID  string    `json:"orderable_id"`
	LotID        *string   `json:"lot_id,omitempty"`
	OccurredDate time.Time `json:"occurred_date"`
}

// PhysicalInventorySubmittedEvent is published when an inventory is finalized
type PhysicalInventorySubmittedEvent struct {
	PhysicalInventoryID string `json:"physical_inventory_id"`
	EventID             string `json:"event_id"`
	FacilityID          string `json:"facility_id"`
	ProgramID           string `json:"program_id"`
	LineItems           int    `json:"line_items"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
