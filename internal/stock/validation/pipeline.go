package validation

import "github.com/stockflow/stockflow-backend/pkg/logger"

// DefaultPipeline assembles the standard validator chain in its fixed order.
// The active-cards coverage validator is deliberately left out; wire it in
// explicitly for deployments that require full-count physical inventories.
func DefaultPipeline(log *logger.Logger, ledger LedgerReader, balances BalanceReader, cards CardFinder) *Pipeline {
	return NewPipeline(log,
		NewMandatoryFieldsValidator(),
		NewApprovedOrderableValidator(),
		NewLotValidator(),
		NewReasonExistenceValidator(),
		NewAdjustmentReasonValidator(),
		NewReceiveIssueReasonValidator(),
		NewSourceDestinationValidator(),
		NewGeoAffinityValidator(),
		NewFreeTextValidator(),
		NewOrderableLotDuplicationValidator(),
		NewAdjustmentReasonsValidator(),
		NewDuplicateTransactionValidator(ledger),
		NewUnpackKitValidator(),
		NewQuantityValidator(ledger, balances, cards),
	)
}
