package validation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// FreeTextValidator enforces the free text rules: free text is a fallback for
// partners the system cannot resolve, so it never accompanies a node backed by
// a reference-data facility; source and destination free text never appear
// together; and reason free text requires a reason that allows it.
type FreeTextValidator struct{}

func NewFreeTextValidator() *FreeTextValidator {
	return &FreeTextValidator{}
}

func (v *FreeTextValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if hasText(li.SourceFreeText) && hasText(li.DestinationFreeText) {
			return errors.ValidationWithKey(KeyFreeTextBothPresent, nil)
		}
		if li.HasSource() && hasText(li.SourceFreeText) && isRefDataNode(ectx, *li.SourceID) {
			return errors.ValidationWithKey(KeySourceFreeTextNotAllowed,
				map[string]string{"sourceId": li.SourceID.String()})
		}
		if li.HasDestination() && hasText(li.DestinationFreeText) && isRefDataNode(ectx, *li.DestinationID) {
			return errors.ValidationWithKey(KeyDestinationFreeTextNotAllowed,
				map[string]string{"destinationId": li.DestinationID.String()})
		}
		if hasText(li.ReasonFreeText) {
			if err := v.checkReasonFreeText(li, ectx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *FreeTextValidator) checkReasonFreeText(li *domain.StockEventLineItem, ectx *domain.EventContext) error {
	if !li.HasReason() {
		// Physical inventory claims carry no reason and accept no free text.
		return errors.ValidationWithKey(KeyReasonFreeTextNotAllowed,
			map[string]string{"reasonId": ""})
	}
	reason := ectx.FindReason(*li.ReasonID)
	if reason != nil && !reason.IsFreeTextAllowed {
		return errors.ValidationWithKey(KeyReasonFreeTextNotAllowed,
			map[string]string{"reasonId": li.ReasonID.String()})
	}
	return nil
}

func isRefDataNode(ectx *domain.EventContext, nodeID uuid.UUID) bool {
	node := ectx.FindNode(nodeID)
	return node != nil && node.IsRefDataFacility
}

func hasText(s *string) bool { return s != nil && *s != "" }
