package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockEvent is an atomic submission of stock movements for one facility and
// program. Events are immutable audit records: once persisted they are never
// updated or deleted.
type StockEvent struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FacilityID     uuid.UUID `db:"facility_id" json:"facility_id"`
	ProgramID      uuid.UUID `db:"program_id" json:"program_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Signature      *string   `db:"signature" json:"signature,omitempty"`
	DocumentNumber *string   `db:"document_number" json:"document_number,omitempty"`
	ProcessedAt    time.Time `db:"processed_at" json:"processed_at"`

	LineItems []*StockEventLineItem `db:"-" json:"line_items"`
}

// StockEventLineItem is one declared movement within an event. A line item
// with no reason is a physical inventory claim: its quantity is an
// authoritative snapshot of stock on hand on the occurred date.
type StockEventLineItem struct {
	OrderableID       uuid.UUID  `json:"orderable_id"`
	LotID             *uuid.UUID `json:"lot_id,omitempty"`
	UnitOfOrderableID *uuid.UUID `json:"unit_of_orderable_id,omitempty"`
	Quantity          int        `json:"quantity"`
	OccurredDate      time.Time  `json:"occurred_date"`

	ReasonID       *uuid.UUID `json:"reason_id,omitempty"`
	ReasonFreeText *string    `json:"reason_free_text,omitempty"`

	SourceID            *uuid.UUID `json:"source_id,omitempty"`
	SourceFreeText      *string    `json:"source_free_text,omitempty"`
	DestinationID       *uuid.UUID `json:"destination_id,omitempty"`
	DestinationFreeText *string    `json:"destination_free_text,omitempty"`

	StockAdjustments []StockAdjustment `json:"stock_adjustments,omitempty"`
	ExtraData        ExtraData         `json:"extra_data,omitempty"`
}

// StockAdjustment explains part of a physical inventory discrepancy with a
// reason and a non-negative quantity.
type StockAdjustment struct {
	ReasonID uuid.UUID `json:"reason_id"`
	Quantity int       `json:"quantity"`
}

// HasReason reports whether the line item carries a reason id.
func (li *StockEventLineItem) HasReason() bool { return li.ReasonID != nil }

// HasLot reports whether the line item carries a lot id.
func (li *StockEventLineItem) HasLot() bool { return li.LotID != nil }

// HasSource reports whether the line item carries a source node id.
func (li *StockEventLineItem) HasSource() bool { return li.SourceID != nil }

// HasDestination reports whether the line item carries a destination node id.
func (li *StockEventLineItem) HasDestination() bool { return li.DestinationID != nil }

// HasLineItems reports whether the event has at least one line item.
func (e *StockEvent) HasLineItems() bool { return len(e.LineItems) > 0 }

// IsPhysicalInventory reports whether the event is a physical inventory
// submission. By convention a line item without a reason is a physical
// inventory claim, and claims never mix with reason-based movements in one
// event; the whole event follows the first reason-less line item.
func (e *StockEvent) IsPhysicalInventory() bool {
	if !e.HasLineItems() {
		return false
	}
	for _, li := range e.LineItems {
		if !li.HasReason() {
			return true
		}
	}
	return false
}

// IsKitUnpacking reports whether any line item uses the configured unpack
// reason, which triggers constituent accounting across the whole event.
func (e *StockEvent) IsKitUnpacking(unpackReasonID uuid.UUID) bool {
	if unpackReasonID == uuid.Nil {
		return false
	}
	for _, li := range e.LineItems {
		if li.ReasonID != nil && *li.ReasonID == unpackReasonID {
			return true
		}
	}
	return false
}
