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

// StockCardRepository persists stock cards.
type StockCardRepository struct {
	q queryer
}

// NewStockCardRepository creates a stock card repository.
func NewStockCardRepository(q queryer) *StockCardRepository {
	return &StockCardRepository{q: q}
}

// Create inserts a new card, assigning its id when unset.
func (r *StockCardRepository) Create(ctx context.Context, card *domain.StockCard) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}

	query := `
		INSERT INTO stock_cards (
			id, origin_event_id, facility_id, program_id, orderable_id, lot_id, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		card.ID, card.OriginEventID, card.FacilityID, card.ProgramID,
		card.OrderableID, card.LotID, card.IsActive,
	).Scan(&card.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// FindByID returns one card or a not-found error.
func (r *StockCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.StockCard, error) {
	var card domain.StockCard
	query := `SELECT * FROM stock_cards WHERE id = $1`
	if err := r.q.GetContext(ctx, &card, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("stock_card")
		}
		return nil, err
	}
	return &card, nil
}

// FindByIdentity returns the card tracking an orderable/lot identity for a
// facility and program, or nil when no movement has created one yet.
func (r *StockCardRepository) FindByIdentity(ctx context.Context, facilityID, programID uuid.UUID, identity domain.OrderableLotIdentity) (*domain.StockCard, error) {
	var card domain.StockCard
	query := `
		SELECT * FROM stock_cards
		WHERE facility_id = $1 AND program_id = $2 AND orderable_id = $3
		AND lot_id IS NOT DISTINCT FROM $4
	`
	var lotID interface{}
	if identity.LotID != uuid.Nil {
		lotID = identity.LotID
	}
	if err := r.q.GetContext(ctx, &card, query, facilityID, programID, identity.OrderableID, lotID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// FindByProgramAndFacility returns all cards for a program/facility pair.
func (r *StockCardRepository) FindByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error) {
	var cards []*domain.StockCard
	query := `
		SELECT * FROM stock_cards
		WHERE program_id = $1 AND facility_id = $2
		ORDER BY orderable_id, lot_id
	`
	if err := r.q.SelectContext(ctx, &cards, query, programID, facilityID); err != nil {
		return nil, err
	}
	return cards, nil
}

// FindActiveByProgramAndFacility returns the active cards for a
// program/facility pair.
func (r *StockCardRepository) FindActiveByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error) {
	var cards []*domain.StockCard
	query := `
		SELECT * FROM stock_cards
		WHERE program_id = $1 AND facility_id = $2 AND is_active = true
		ORDER BY orderable_id, lot_id
	`
	if err := r.q.SelectContext(ctx, &cards, query, programID, facilityID); err != nil {
		return nil, err
	}
	return cards, nil
}

// FindByIDs returns a page of cards plus the total match count.
func (r *StockCardRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]*domain.StockCard, int, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM stock_cards WHERE id IN (?)`, ids)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.q.GetContext(ctx, &total, r.q.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := sqlx.In(`
		SELECT * FROM stock_cards WHERE id IN (?)
		ORDER BY facility_id, program_id, orderable_id, lot_id
		LIMIT ? OFFSET ?
	`, ids, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var cards []*domain.StockCard
	if err := r.q.SelectContext(ctx, &cards, r.q.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Lock acquires row locks on the given cards in ascending id order, so two
// transactions touching overlapping card sets always queue instead of
// deadlocking.
func (r *StockCardRepository) Lock(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`SELECT id FROM stock_cards WHERE id IN (?) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	rows, err := r.q.QueryxContext(ctx, r.q.Rebind(query), args...)
	if err != nil {
		return err
	}
	return rows.Close()
}

// SetActive flips a card's active flag.
func (r *StockCardRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE stock_cards SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("stock_card")
	}
	return nil
}
