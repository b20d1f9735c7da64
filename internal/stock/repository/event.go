package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// StockEventRepository persists stock events. Events are append-only audit
// records; there is no update or delete path.
type StockEventRepository struct {
	q queryer
}

// NewStockEventRepository creates a stock event repository.
func NewStockEventRepository(q queryer) *StockEventRepository {
	return &StockEventRepository{q: q}
}

// Create inserts one event, assigning its id and processed timestamp when
// unset.
func (r *StockEventRepository) Create(ctx context.Context, event *domain.StockEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO stock_events (
			id, facility_id, program_id, user_id, signature, document_number, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		event.ID, event.FacilityID, event.ProgramID, event.UserID,
		event.Signature, event.DocumentNumber, event.ProcessedAt,
	)
	return err
}
