package validation

import (
	"context"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// ReasonExistenceValidator checks that every given reason id resolves to a
// catalog entry.
type ReasonExistenceValidator struct{}

func NewReasonExistenceValidator() *ReasonExistenceValidator {
	return &ReasonExistenceValidator{}
}

func (v *ReasonExistenceValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if !li.HasReason() {
			continue
		}
		if ectx.FindReason(*li.ReasonID) == nil {
			return errors.ValidationWithKey(KeyEventReasonNotExist,
				map[string]string{"reasonId": li.ReasonID.String()})
		}
	}
	return nil
}

// AdjustmentReasonValidator checks that line items without a source or
// destination use CREDIT or DEBIT reasons of the ADJUSTMENT category.
// Unresolvable reason ids are someone else's concern.
type AdjustmentReasonValidator struct{}

func NewAdjustmentReasonValidator() *AdjustmentReasonValidator {
	return &AdjustmentReasonValidator{}
}

func (v *AdjustmentReasonValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if !li.HasReason() || li.HasSource() || li.HasDestination() {
			continue
		}
		reason := ectx.FindReason(*li.ReasonID)
		if reason == nil {
			continue
		}
		if !reason.IsCreditReasonType() && !reason.IsDebitReasonType() {
			return errors.ValidationWithKey(KeyAdjustmentReasonTypeInvalid,
				map[string]string{"reasonType": string(reason.ReasonType)})
		}
		if !reason.IsAdjustmentReasonCategory() {
			return errors.ValidationWithKey(KeyAdjustmentReasonCatInvalid,
				map[string]string{"reasonCategory": string(reason.ReasonCategory)})
		}
	}
	return nil
}

// ReceiveIssueReasonValidator checks that receives (line items with a
// source) use CREDIT reasons of the TRANSFER category and issues (line items
// with a destination) use DEBIT reasons of the TRANSFER category.
type ReceiveIssueReasonValidator struct{}

func NewReceiveIssueReasonValidator() *ReceiveIssueReasonValidator {
	return &ReceiveIssueReasonValidator{}
}

func (v *ReceiveIssueReasonValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if !li.HasReason() {
			continue
		}
		reason := ectx.FindReason(*li.ReasonID)
		if reason == nil {
			continue
		}
		if li.HasSource() {
			if err := checkTransferReason(reason, domain.ReasonTypeCredit,
				KeyReceiveReasonTypeInvalid, KeyReceiveReasonCatInvalid); err != nil {
				return err
			}
		}
		if li.HasDestination() {
			if err := checkTransferReason(reason, domain.ReasonTypeDebit,
				KeyIssueReasonTypeInvalid, KeyIssueReasonCatInvalid); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTransferReason(reason *domain.Reason, want domain.ReasonType, typeKey, categoryKey string) error {
	if reason.ReasonType != want {
		return errors.ValidationWithKey(typeKey, map[string]string{
			"reasonId":   reason.ID.String(),
			"reasonType": string(reason.ReasonType),
		})
	}
	if reason.ReasonCategory != domain.ReasonCategoryTransfer {
		return errors.ValidationWithKey(categoryKey, map[string]string{
			"reasonId":       reason.ID.String(),
			"reasonCategory": string(reason.ReasonCategory),
		})
	}
	return nil
}
