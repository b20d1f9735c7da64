package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// LineItemRepository persists the append-only stock card ledger. The position
// column is a bigserial and serves as the final ordering tie-break, so inserts
// always go through the database sequence.
type LineItemRepository struct {
	q queryer
}

// NewLineItemRepository creates a line item repository.
func NewLineItemRepository(q queryer) *LineItemRepository {
	return &LineItemRepository{q: q}
}

// Insert appends one line item and reads back its assigned position.
func (r *LineItemRepository) Insert(ctx context.Context, item *domain.StockCardLineItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `
		INSERT INTO stock_card_line_items (
			id, stock_card_id, event_id, quantity, occurred_date, processed_at,
			reason_id, reason_free_text, source_id, source_free_text,
			destination_id, destination_free_text, user_id, extra_data, stock_on_hand
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING position
	`
	return r.q.QueryRowxContext(ctx, query,
		item.ID, item.StockCardID, item.EventID, item.Quantity,
		domain.DateOnly(item.OccurredDate), item.ProcessedAt,
		item.ReasonID, item.ReasonFreeText, item.SourceID, item.SourceFreeText,
		item.DestinationID, item.DestinationFreeText, item.UserID,
		item.ExtraData, item.StockOnHand,
	).Scan(&item.Position)
}

// FindByCard returns a card's whole ledger with resolved reasons, ordered for
// replay.
func (r *LineItemRepository) FindByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.StockCardLineItem, error) {
	query := `
		SELECT * FROM stock_card_line_items
		WHERE stock_card_id = $1
		ORDER BY occurred_date, processed_at, position
	`
	return r.selectWithReasons(ctx, query, cardID)
}

// FindByCardFromDate returns a card's line items with occurred date on or
// after the given date.
func (r *LineItemRepository) FindByCardFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.StockCardLineItem, error) {
	query := `
		SELECT * FROM stock_card_line_items
		WHERE stock_card_id = $1 AND occurred_date >= $2
		ORDER BY occurred_date, processed_at, position
	`
	return r.selectWithReasons(ctx, query, cardID, domain.DateOnly(date))
}

func (r *LineItemRepository) selectWithReasons(ctx context.Context, query string, args ...interface{}) ([]*domain.StockCardLineItem, error) {
	var items []*domain.StockCardLineItem
	if err := r.q.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	if err := r.attachReasons(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachReasons resolves the reasons referenced by the given items so replay
// can apply signed quantities without further lookups.
func (r *LineItemRepository) attachReasons(ctx context.Context, items []*domain.StockCardLineItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.ReasonID == nil {
			continue
		}
		if _, ok := seen[*item.ReasonID]; !ok {
			seen[*item.ReasonID] = struct{}{}
			ids = append(ids, *item.ReasonID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	reasons, err := NewReasonRepository(r.q).FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*domain.Reason, len(reasons))
	for _, reason := range reasons {
		byID[reason.ID] = reason
	}
	for _, item := range items {
		if item.ReasonID != nil {
			item.Reason = byID[*item.ReasonID]
		}
	}
	return nil
}

// CountMatching counts persisted line items matching every field of the
// duplicate filter, absent optional fields included.
func (r *LineItemRepository) CountMatching(ctx context.Context, filter domain.DuplicateFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM stock_card_line_items li
		JOIN stock_cards sc ON sc.id = li.stock_card_id
		WHERE sc.facility_id = $1
		AND sc.orderable_id = $2
		AND sc.lot_id IS NOT DISTINCT FROM $3
		AND li.source_id IS NOT DISTINCT FROM $4
		AND li.destination_id IS NOT DISTINCT FROM $5
		AND li.occurred_date = $6
		AND li.quantity = $7
		AND li.reason_id IS NOT DISTINCT FROM $8
		AND li.extra_data->>'vvmStatus' IS NOT DISTINCT FROM $9
	`
	var count int
	err := r.q.GetContext(ctx, &count, query,
		filter.FacilityID, filter.OrderableID, filter.LotID,
		filter.SourceID, filter.DestinationID, filter.OccurredDate,
		filter.Quantity, filter.ReasonID, filter.VVMStatus,
	)
	return count, err
}

// UpdateStockOnHand refreshes one line item's cached running balance.
func (r *LineItemRepository) UpdateStockOnHand(ctx context.Context, itemID uuid.UUID, stockOnHand int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE stock_card_line_items SET stock_on_hand = $2 WHERE id = $1`,
		itemID, stockOnHand)
	return err
}
