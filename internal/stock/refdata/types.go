package refdata

import (
	"time"

	"github.com/google/uuid"
)

// Facility is a reference-data facility as served by the external reference
// data service.
type Facility struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	FacilityTypeID   uuid.UUID `json:"facility_type_id"`
	GeographicZoneID uuid.UUID `json:"geographic_zone_id"`
}

// Program is a reference-data program (e.g. Essential Medicines, EPI).
type Program struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// OrderableChild is one constituent of a kit orderable together with the
// number of units one kit unpacks into.
type OrderableChild struct {
	OrderableID uuid.UUID `json:"orderable_id"`
	Quantity    int       `json:"quantity"`
}

// Orderable is a product approved for ordering. Identifiers carries
// cross-system keys; the "tradeItem" identifier links lots to orderables.
type Orderable struct {
	ID          uuid.UUID         `json:"id"`
	ProductCode string            `json:"product_code"`
	FullName    string            `json:"full_name"`
	NetContent  int64             `json:"net_content"`
	Children    []OrderableChild  `json:"children,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
}

// IsKit reports whether the orderable unpacks into constituent products.
func (o *Orderable) IsKit() bool { return o != nil && len(o.Children) > 0 }

// TradeItemID returns the orderable's trade item identifier, or uuid.Nil when
// it has none.
func (o *Orderable) TradeItemID() uuid.UUID {
	if o == nil {
		return uuid.Nil
	}
	raw, ok := o.Identifiers["tradeItem"]
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Lot is a reference-data lot (batch) of a trade item.
type Lot struct {
	ID             uuid.UUID  `json:"id"`
	LotCode        string     `json:"lot_code"`
	TradeItemID    uuid.UUID  `json:"trade_item_id"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Active         bool       `json:"active"`
}
