package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhysicalInventory is a facility-wide stock count for one program. It lives
// as a draft while counting is underway; submitting the matching stock event
// finalizes it and binds it to that event.
type PhysicalInventory struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ProgramID      uuid.UUID  `db:"program_id" json:"program_id"`
	FacilityID     uuid.UUID  `db:"facility_id" json:"facility_id"`
	EventID        *uuid.UUID `db:"event_id" json:"event_id,omitempty"`
	OccurredDate   *time.Time `db:"occurred_date" json:"occurred_date,omitempty"`
	DocumentNumber *string    `db:"document_number" json:"document_number,omitempty"`
	Signature      *string    `db:"signature" json:"signature,omitempty"`
	IsDraft        bool       `db:"is_draft" json:"is_draft"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`

	LineItems []*PhysicalInventoryLineItem `db:"-" json:"line_items,omitempty"`
}

// PhysicalInventoryLineItem is one counted product within an inventory. A nil
// quantity on a draft means the product has not been counted yet.
type PhysicalInventoryLineItem struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	PhysicalInventoryID uuid.UUID  `db:"physical_inventory_id" json:"physical_inventory_id"`
	OrderableID         uuid.UUID  `db:"orderable_id" json:"orderable_id"`
	LotID               *uuid.UUID `db:"lot_id" json:"lot_id,omitempty"`
	Quantity            *int       `db:"quantity" json:"quantity,omitempty"`
	PreviousStockOnHand *int       `db:"previous_stock_on_hand" json:"previous_stock_on_hand,omitempty"`
	ExtraData           ExtraData  `db:"extra_data" json:"extra_data,omitempty"`
}

// FromEvent builds the submitted inventory record bound to an accepted
// physical inventory event.
func FromEvent(event *StockEvent) *PhysicalInventory {
	pi := &PhysicalInventory{
		ID:             uuid.New(),
		ProgramID:      event.ProgramID,
		FacilityID:     event.FacilityID,
		EventID:        &event.ID,
		DocumentNumber: event.DocumentNumber,
		Signature:      event.Signature,
		IsDraft:        false,
	}
	for _, li := range event.LineItems {
		quantity := li.Quantity
		occurred := DateOnly(li.OccurredDate)
		if pi.OccurredDate == nil || occurred.After(*pi.OccurredDate) {
			d := occurred
			pi.OccurredDate = &d
		}
		pi.LineItems = append(pi.LineItems, &PhysicalInventoryLineItem{
			ID:                  uuid.New(),
			PhysicalInventoryID: pi.ID,
			OrderableID:         li.OrderableID,
			LotID:               li.LotID,
			Quantity:            &quantity,
			ExtraData:           li.ExtraData,
		})
	}
	return pi
}
