package domain

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateFilter describes one submitted line item for duplicate
// transaction detection. A persisted line item is a duplicate only when
// every field matches exactly, including absent optional fields and the
// vvmStatus tag.
type DuplicateFilter struct {
	FacilityID    uuid.UUID
	OrderableID   uuid.UUID
	LotID         *uuid.UUID
	SourceID      *uuid.UUID
	DestinationID *uuid.UUID
	OccurredDate  time.Time
	Quantity      int
	ReasonID      *uuid.UUID
	VVMStatus     *string
}

// DuplicateFilterFor builds the filter for one event line item.
func DuplicateFilterFor(event *StockEvent, li *StockEventLineItem) DuplicateFilter {
	f := DuplicateFilter{
		FacilityID:    event.FacilityID,
		OrderableID:   li.OrderableID,
		LotID:         li.LotID,
		SourceID:      li.SourceID,
		DestinationID: li.DestinationID,
		OccurredDate:  DateOnly(li.OccurredDate),
		Quantity:      li.Quantity,
		ReasonID:      li.ReasonID,
	}
	if vvm, ok := li.ExtraData[ExtraDataKeyVVMStatus]; ok {
		f.VVMStatus = &vvm
	}
	return f
}
