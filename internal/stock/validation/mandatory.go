package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// MandatoryFieldsValidator checks the fields every stock event must carry:
// a resolvable facility and program, at least one line item, orderable ids,
// occurred dates that are present and not in the future, and non-negative
// quantities.
type MandatoryFieldsValidator struct{}

func NewMandatoryFieldsValidator() *MandatoryFieldsValidator {
	return &MandatoryFieldsValidator{}
}

func (v *MandatoryFieldsValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if ectx.Facility == nil {
		return errors.ValidationWithKey(KeyEventFacilityInvalid,
			map[string]string{"facilityId": event.FacilityID.String()})
	}
	if ectx.Program == nil {
		return errors.ValidationWithKey(KeyEventProgramInvalid,
			map[string]string{"programId": event.ProgramID.String()})
	}
	if !event.HasLineItems() {
		return errors.ValidationWithKey(KeyEventNoLineItems, nil)
	}

	for _, li := range event.LineItems {
		if li.OrderableID == uuid.Nil {
			return errors.ValidationWithKey(KeyEventOrderableInvalid, nil)
		}
	}

	if err := v.validateOccurredDates(event); err != nil {
		return err
	}
	return v.validateQuantities(event)
}

func (v *MandatoryFieldsValidator) validateOccurredDates(event *domain.StockEvent) error {
	today := domain.Today()
	for _, li := range event.LineItems {
		if li.OccurredDate.IsZero() {
			return errors.ValidationWithKey(KeyEventOccurredDateInvalid, nil)
		}
		occurred := domain.DateOnly(li.OccurredDate)
		if occurred.After(today) {
			return errors.ValidationWithKey(KeyEventOccurredDateInFuture,
				map[string]string{"occurredDate": occurred.Format("2006-01-02")})
		}
	}
	return nil
}

func (v *MandatoryFieldsValidator) validateQuantities(event *domain.StockEvent) error {
	var invalid []string
	for _, li := range event.LineItems {
		if li.Quantity < 0 {
			invalid = append(invalid, fmt.Sprintf("%d", li.Quantity))
		}
	}
	if len(invalid) > 0 {
		return errors.ValidationWithKey(KeyEventQuantityInvalid,
			map[string]string{"quantities": strings.Join(invalid, ", ")})
	}
	return nil
}
