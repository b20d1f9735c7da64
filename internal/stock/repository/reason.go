package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/database"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// ReasonRepository persists the reason catalog and its program/facility-type
// assignments.
type ReasonRepository struct {
	q queryer
}

// NewReasonRepository creates a reason repository.
func NewReasonRepository(q queryer) *ReasonRepository {
	return &ReasonRepository{q: q}
}

// Create inserts a catalog entry.
func (r *ReasonRepository) Create(ctx context.Context, reason *domain.Reason) error {
	if reason.ID == uuid.Nil {
		reason.ID = uuid.New()
	}

	query := `
		INSERT INTO stock_card_line_item_reasons (
			id, name, description, reason_type, reason_category, is_free_text_allowed, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		reason.ID, reason.Name, reason.Description, reason.ReasonType,
		reason.ReasonCategory, reason.IsFreeTextAllowed, reason.Tags,
	).Scan(&reason.CreatedAt)
}

// FindByID returns one reason or a not-found error.
func (r *ReasonRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reason, error) {
	var reason domain.Reason
	query := `SELECT * FROM stock_card_line_item_reasons WHERE id = $1`
	if err := r.q.GetContext(ctx, &reason, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("reason")
		}
		return nil, err
	}
	return &reason, nil
}

// FindByIDs returns the reasons with the given ids; missing ids are simply
// absent from the result.
func (r *ReasonRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Reason, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM stock_card_line_item_reasons WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var reasons []*domain.Reason
	if err := r.q.SelectContext(ctx, &reasons, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return reasons, nil
}

// FindAll returns the whole catalog ordered by name.
func (r *ReasonRepository) FindAll(ctx context.Context) ([]*domain.Reason, error) {
	var reasons []*domain.Reason
	query := `SELECT * FROM stock_card_line_item_reasons ORDER BY name`
	if err := r.q.SelectContext(ctx, &reasons, query); err != nil {
		return nil, err
	}
	return reasons, nil
}

// FindValidAssignments returns the reason assignments for a program and
// facility type with their reasons resolved. Hidden assignments are included;
// hiding only affects pick lists, not validity.
func (r *ReasonRepository) FindValidAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.ReasonAssignment, error) {
	var assignments []*domain.ReasonAssignment
	query := `
		SELECT * FROM valid_reason_assignments
		WHERE program_id = $1 AND facility_type_id = $2
	`
	if err := r.q.SelectContext(ctx, &assignments, query, programID, facilityTypeID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ReasonID)
	}
	reasons, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Reason, len(reasons))
	for _, reason := range reasons {
		byID[reason.ID] = reason
	}
	for _, a := range assignments {
		a.Reason = byID[a.ReasonID]
	}
	return assignments, nil
}

// CreateAssignment binds a reason to a program/facility-type pair.
func (r *ReasonRepository) CreateAssignment(ctx context.Context, assignment *domain.ReasonAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	query := `
		INSERT INTO valid_reason_assignments (
			id, program_id, facility_type_id, reason_id, hidden
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		assignment.ID, assignment.ProgramID, assignment.FacilityTypeID,
		assignment.ReasonID, assignment.Hidden,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// DeleteAssignment removes one assignment.
func (r *ReasonRepository) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM valid_reason_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("reason")
	}
	return nil
}
