package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// BalanceRepository persists calculated stock on hand rows: one row per
// (stock card, occurred date), enforced by a unique constraint and upserted
// during recalculation.
type BalanceRepository struct {
	q queryer
}

// NewBalanceRepository creates a balance repository.
func NewBalanceRepository(q queryer) *BalanceRepository {
	return &BalanceRepository{q: q}
}

// FindLatestBefore returns the most recent row strictly before the date, or
// nil when the card has no earlier balance.
func (r *BalanceRepository) FindLatestBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error) {
	return r.findLatest(ctx, cardID, `occurred_date < $2`, date)
}

// FindLatestOnOrBefore returns the most recent row on or before the date, or
// nil. This is the read path for "stock on hand as of day X".
func (r *BalanceRepository) FindLatestOnOrBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error) {
	return r.findLatest(ctx, cardID, `occurred_date <= $2`, date)
}

func (r *BalanceRepository) findLatest(ctx context.Context, cardID uuid.UUID, cond string, date time.Time) (*domain.CalculatedStockOnHand, error) {
	var row domain.CalculatedStockOnHand
	query := `
		SELECT * FROM calculated_stocks_on_hand
		WHERE stock_card_id = $1 AND ` + cond + `
		ORDER BY occurred_date DESC
		LIMIT 1
	`
	if err := r.q.GetContext(ctx, &row, query, cardID, domain.DateOnly(date)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindFromDate returns a card's rows with occurred date on or after the given
// date, ascending.
func (r *BalanceRepository) FindFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.CalculatedStockOnHand, error) {
	var rows []*domain.CalculatedStockOnHand
	query := `
		SELECT * FROM calculated_stocks_on_hand
		WHERE stock_card_id = $1 AND occurred_date >= $2
		ORDER BY occurred_date
	`
	if err := r.q.SelectContext(ctx, &rows, query, cardID, domain.DateOnly(date)); err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes one balance row, replacing any existing row for the same card
// and date.
func (r *BalanceRepository) Upsert(ctx context.Context, row *domain.CalculatedStockOnHand) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ProcessedAt.IsZero() {
		row.ProcessedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO calculated_stocks_on_hand (
			id, stock_card_id, occurred_date, stock_on_hand, processed_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_card_id, occurred_date)
		DO UPDATE SET stock_on_hand = EXCLUDED.stock_on_hand, processed_at = EXCLUDED.processed_at
	`
	_, err := r.q.ExecContext(ctx, query,
		row.ID, row.StockCardID, domain.DateOnly(row.OccurredDate),
		row.StockOnHand, row.ProcessedAt,
	)
	return err
}
