package validation

import (
	"context"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// DuplicateTransactionValidator rejects an event only when EVERY line item
// exactly duplicates a previously persisted line item on facility, orderable,
// lot, source, destination, occurred date, quantity, reason and vvmStatus.
// A single differing field on any line item lets the whole event through;
// legitimate resubmissions of corrected data must not be blocked.
type DuplicateTransactionValidator struct {
	ledger LedgerReader
}

func NewDuplicateTransactionValidator(ledger LedgerReader) *DuplicateTransactionValidator {
	return &DuplicateTransactionValidator{ledger: ledger}
}

func (v *DuplicateTransactionValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if !event.HasLineItems() {
		return nil
	}
	for _, li := range event.LineItems {
		count, err := v.ledger.CountMatching(ctx, domain.DuplicateFilterFor(event, li))
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
	}
	return errors.ValidationWithKey(KeyEventIsDuplicate, nil)
}
