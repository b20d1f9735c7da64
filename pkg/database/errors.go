package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "reason_type_valid"):
		return errors.Validation(map[string]string{
			"reason_type": "must be one of: CREDIT, DEBIT",
		})

	case strings.Contains(constraint, "reason_category_valid"):
		return errors.Validation(map[string]string{
			"reason_category": "must be one of: TRANSFER, ADJUSTMENT, PHYSICAL_INVENTORY",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "stock_cards"):
		return "a stock card for this facility, program, orderable and lot already exists"
	case strings.Contains(constraint, "valid_reason_assignments"):
		return "this reason is already assigned to the program and facility type"
	case strings.Contains(constraint, "valid_source_assignments"), strings.Contains(constraint, "valid_destination_assignments"):
		return "this node is already assigned to the program and facility type"
	case strings.Contains(constraint, "physical_inventory_draft"):
		return "a physical inventory draft already exists for this program and facility"
	default:
		return "a record with these values already exists"
	}
}
