// Package validation implements the stock event validation pipeline: an
// explicit, ordered chain of independent validators assembled at startup.
// Each validator inspects one concern and fails fast with a typed validation
// error carrying an i18n message key and parameters; the first failure aborts
// the whole event.
package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// Message keys for validation failures.
const (
	KeyEventFacilityInvalid          = "errors.event.facility_invalid"
	KeyEventProgramInvalid           = "errors.event.program_invalid"
	KeyEventNoLineItems              = "errors.event.no_line_items"
	KeyEventOrderableInvalid         = "errors.event.orderable_invalid"
	KeyEventOrderableNotApproved     = "errors.event.orderable_not_approved"
	KeyEventOccurredDateInvalid      = "errors.event.occurred_date_invalid"
	KeyEventOccurredDateInFuture     = "errors.event.occurred_date_in_future"
	KeyEventQuantityInvalid          = "errors.event.quantity_invalid"
	KeyEventAdjustmentQtyInvalid     = "errors.event.adjustment_quantity_invalid"
	KeyEventReasonNotExist           = "errors.event.reason_not_exist"
	KeyEventReasonNotInValidList     = "errors.event.reason_not_in_valid_list"
	KeyAdjustmentReasonTypeInvalid   = "errors.event.adjustment_reason_type_invalid"
	KeyAdjustmentReasonCatInvalid    = "errors.event.adjustment_reason_category_invalid"
	KeyReceiveReasonTypeInvalid      = "errors.event.receive_reason_type_invalid"
	KeyReceiveReasonCatInvalid       = "errors.event.receive_reason_category_invalid"
	KeyIssueReasonTypeInvalid        = "errors.event.issue_reason_type_invalid"
	KeyIssueReasonCatInvalid         = "errors.event.issue_reason_category_invalid"
	KeySourceDestinationBothPresent  = "errors.event.source_destination_both_present"
	KeySourceNotInValidList          = "errors.event.source_not_in_valid_list"
	KeyDestinationNotInValidList     = "errors.event.destination_not_in_valid_list"
	KeySourceNoGeoAffinity           = "errors.event.source_no_geo_affinity"
	KeyDestinationNoGeoAffinity      = "errors.event.destination_no_geo_affinity"
	KeySourceFreeTextNotAllowed      = "errors.event.source_free_text_not_allowed"
	KeyDestinationFreeTextNotAllowed = "errors.event.destination_free_text_not_allowed"
	KeyFreeTextBothPresent           = "errors.event.source_destination_free_text_both_present"
	KeyReasonFreeTextNotAllowed      = "errors.event.reason_free_text_not_allowed"
	KeyEventLotNotExist              = "errors.event.lot_not_exist"
	KeyEventLotOrderableNotMatch     = "errors.event.lot_orderable_not_match"
	KeyOrderableLotDuplicated        = "errors.event.orderable_lot_duplicated"
	KeyEventIsDuplicate              = "errors.event.is_duplicate"
	KeyCannotUnpackRegularOrderable  = "errors.event.cannot_unpack_regular_orderable"
	KeyCannotUnpackConstituent       = "errors.event.cannot_unpack_constituent_not_accounted_for"
	KeyCannotUnpackExtraConstituents = "errors.event.cannot_unpack_extra_constituents_credited"
	KeyDebitQuantityExceedsSoh       = "errors.event.debit_quantity_exceeds_soh"
	KeySohExceedsLimit               = "errors.event.soh_exceeds_limit"
	KeyMissingActiveCards            = "errors.event.physical_inventory_missing_active_cards"
)

// Validator checks one concern of a stock event submission. Implementations
// must be independent of each other; validators that do not care about the
// event's shape return nil without side effects.
type Validator interface {
	Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error
}

// LedgerReader is the read-only access to persisted line items needed by the
// duplicate transaction and quantity validators.
type LedgerReader interface {
	// FindByCardFromDate returns a card's line items with occurred date
	// on or after the given date.
	FindByCardFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.StockCardLineItem, error)
	// CountMatching counts persisted line items matching every field of
	// the filter.
	CountMatching(ctx context.Context, filter domain.DuplicateFilter) (int, error)
}

// BalanceReader reads calculated stock on hand rows for read-only replay.
type BalanceReader interface {
	FindLatestBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error)
}

// CardFinder resolves existing stock cards outside the event context cache.
type CardFinder interface {
	FindByIdentity(ctx context.Context, facilityID, programID uuid.UUID, identity domain.OrderableLotIdentity) (*domain.StockCard, error)
	FindActiveByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error)
}

// Pipeline runs validators in their configured order and stops at the first
// failure.
type Pipeline struct {
	validators []Validator
	logger     *logger.Logger
}

// NewPipeline assembles a validation pipeline. The order of validators is
// significant and fixed at startup.
func NewPipeline(log *logger.Logger, validators ...Validator) *Pipeline {
	return &Pipeline{
		validators: validators,
		logger:     log.WithComponent("validation"),
	}
}

// Validate runs the chain against one event. The first error is returned
// unchanged; later validators are not consulted.
func (p *Pipeline) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, v := range p.validators {
		if err := v.Validate(ctx, event, ectx); err != nil {
			p.logger.Debug().Err(err).Msg("stock event rejected")
			return err
		}
	}
	return nil
}
