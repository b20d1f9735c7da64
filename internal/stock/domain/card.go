package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// StockCard is the per-facility/program/orderable/lot ledger. Cards are
// created lazily on the first accepted movement for their identity.
//
// StockOnHand is a read-side convenience refreshed from the calculated stock
// on hand rows; it is never authoritative and is nil for cards without any
// calculated value yet.
type StockCard struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OriginEventID uuid.UUID  `db:"origin_event_id" json:"origin_event_id"`
	FacilityID    uuid.UUID  `db:"facility_id" json:"facility_id"`
	ProgramID     uuid.UUID  `db:"program_id" json:"program_id"`
	OrderableID   uuid.UUID  `db:"orderable_id" json:"orderable_id"`
	LotID         *uuid.UUID `db:"lot_id" json:"lot_id,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`

	StockOnHand  *int       `db:"-" json:"stock_on_hand,omitempty"`
	OccurredDate *time.Time `db:"-" json:"occurred_date,omitempty"`

	LineItems []*StockCardLineItem `db:"-" json:"line_items,omitempty"`
}

// StockCardLineItem is the persisted, enriched copy of an event line item.
// Position is a monotonic database sequence used as the final ordering
// tie-break when occurred date and processed timestamp are equal.
//
// StockOnHand is the cached running balance as of the last recalculation; the
// calculated stock on hand rows remain the source of truth.
type StockCardLineItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StockCardID uuid.UUID `db:"stock_card_id" json:"stock_card_id"`
	EventID     uuid.UUID `db:"event_id" json:"event_id"`

	Quantity     int       `db:"quantity" json:"quantity"`
	OccurredDate time.Time `db:"occurred_date" json:"occurred_date"`
	ProcessedAt  time.Time `db:"processed_at" json:"processed_at"`
	Position     int64     `db:"position" json:"-"`

	ReasonID       *uuid.UUID `db:"reason_id" json:"reason_id,omitempty"`
	ReasonFreeText *string    `db:"reason_free_text" json:"reason_free_text,omitempty"`

	SourceID            *uuid.UUID `db:"source_id" json:"source_id,omitempty"`
	SourceFreeText      *string    `db:"source_free_text" json:"source_free_text,omitempty"`
	DestinationID       *uuid.UUID `db:"destination_id" json:"destination_id,omitempty"`
	DestinationFreeText *string    `db:"destination_free_text" json:"destination_free_text,omitempty"`

	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	ExtraData   ExtraData `db:"extra_data" json:"extra_data,omitempty"`
	StockOnHand *int      `db:"stock_on_hand" json:"stock_on_hand,omitempty"`

	Reason      *Reason `db:"-" json:"reason,omitempty"`
	Source      *Node   `db:"-" json:"source,omitempty"`
	Destination *Node   `db:"-" json:"destination,omitempty"`
}

// IsPhysicalInventory reports whether the line item is a physical inventory
// claim (no reason attached).
func (li *StockCardLineItem) IsPhysicalInventory() bool {
	return li.ReasonID == nil
}

// SignedQuantity returns the quantity with the reason's sign applied.
// Physical inventory claims have no sign; callers must treat their quantity
// as an absolute balance.
func (li *StockCardLineItem) SignedQuantity() int {
	if li.Reason != nil {
		return li.Reason.SignedQuantity(li.Quantity)
	}
	return li.Quantity
}

// SortLineItems orders line items for replay: occurred date ascending, then
// processed timestamp ascending, then physical inventory claims after
// reason-based movements, then insert position. The physical-inventory
// tie-break makes a same-instant inventory count overwrite the movements
// recorded with it, while movements processed strictly later still layer on
// top of the counted baseline.
func SortLineItems(items []*StockCardLineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ad, bd := DateOnly(a.OccurredDate), DateOnly(b.OccurredDate)
		if !ad.Equal(bd) {
			return ad.Before(bd)
		}
		if !a.ProcessedAt.Equal(b.ProcessedAt) {
			return a.ProcessedAt.Before(b.ProcessedAt)
		}
		if a.IsPhysicalInventory() != b.IsPhysicalInventory() {
			return !a.IsPhysicalInventory()
		}
		return a.Position < b.Position
	})
}
