package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ReasonType determines the sign of a movement's quantity.
type ReasonType string

// ReasonCategory classifies what kind of movement a reason describes.
type ReasonCategory string

const (
	ReasonTypeCredit ReasonType = "CREDIT"
	ReasonTypeDebit  ReasonType = "DEBIT"

	ReasonCategoryTransfer          ReasonCategory = "TRANSFER"
	ReasonCategoryAdjustment        ReasonCategory = "ADJUSTMENT"
	ReasonCategoryPhysicalInventory ReasonCategory = "PHYSICAL_INVENTORY"
)

// Reason is a stock card line item reason catalog entry. Entries are
// immutable once created; validators and the recalculation engine rely on the
// type and category predicates below.
type Reason struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Description       *string        `db:"description" json:"description,omitempty"`
	ReasonType        ReasonType     `db:"reason_type" json:"reason_type"`
	ReasonCategory    ReasonCategory `db:"reason_category" json:"reason_category"`
	IsFreeTextAllowed bool           `db:"is_free_text_allowed" json:"is_free_text_allowed"`
	Tags              pq.StringArray `db:"tags" json:"tags,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// IsCreditReasonType reports whether the reason adds stock.
func (r *Reason) IsCreditReasonType() bool {
	return r != nil && r.ReasonType == ReasonTypeCredit
}

// IsDebitReasonType reports whether the reason removes stock.
func (r *Reason) IsDebitReasonType() bool {
	return r != nil && r.ReasonType == ReasonTypeDebit
}

// IsAdjustmentReasonCategory reports whether the reason belongs to the
// ADJUSTMENT category.
func (r *Reason) IsAdjustmentReasonCategory() bool {
	return r != nil && r.ReasonCategory == ReasonCategoryAdjustment
}

// SignedQuantity applies the reason's sign to a submitted quantity:
// CREDIT yields +quantity, DEBIT yields -quantity.
func (r *Reason) SignedQuantity(quantity int) int {
	if r.IsDebitReasonType() {
		return -quantity
	}
	return quantity
}

// ReasonAssignment binds a reason to a (program, facility type) pair. Hidden
// assignments stay valid for event submission but are not offered in pick
// lists.
type ReasonAssignment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ProgramID      uuid.UUID `db:"program_id" json:"program_id"`
	FacilityTypeID uuid.UUID `db:"facility_type_id" json:"facility_type_id"`
	ReasonID       uuid.UUID `db:"reason_id" json:"reason_id"`
	Hidden         bool      `db:"hidden" json:"hidden"`

	Reason *Reason `db:"-" json:"reason,omitempty"`
}
