package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// RecalculationService maintains the calculated stock on hand cache. Line
// items can land on any past date, so recalculation never appends blindly: it
// anchors on the last balance before the earliest touched date, replays the
// ledger forward and rewrites every affected daily row, shifting later days
// by the same deltas.
type RecalculationService struct {
	logger *logger.Logger
}

// NewRecalculationService creates a recalculation service.
func NewRecalculationService(log *logger.Logger) *RecalculationService {
	return &RecalculationService{logger: log.WithComponent("recalculation")}
}

// RecalculateCard rebuilds the balances of one card after the given line
// items were inserted. It returns the recomputed per-day balances (including
// previously cached later days that shifted). Cards are independent; callers
// recalculating several cards invoke this per card inside one transaction.
func (s *RecalculationService) RecalculateCard(ctx context.Context, stores Stores, cardID uuid.UUID, newItems []*domain.StockCardLineItem) ([]domain.DailyBalance, error) {
	if len(newItems) == 0 {
		return nil, nil
	}

	earliest := domain.DateOnly(newItems[0].OccurredDate)
	for _, li := range newItems[1:] {
		if d := domain.DateOnly(li.OccurredDate); d.Before(earliest) {
			earliest = d
		}
	}

	anchor := 0
	if row, err := stores.Balances().FindLatestBefore(ctx, cardID, earliest); err != nil {
		return nil, err
	} else if row != nil {
		anchor = row.StockOnHand
	}

	// The new items are already persisted, so this load covers them along
	// with every older item they interleave with.
	items, err := stores.LineItems().FindByCardFromDate(ctx, cardID, earliest)
	if err != nil {
		return nil, err
	}

	existingRows, err := stores.Balances().FindFromDate(ctx, cardID, earliest)
	if err != nil {
		return nil, err
	}
	extraDates := make([]time.Time, 0, len(existingRows))
	for _, row := range existingRows {
		extraDates = append(extraDates, row.OccurredDate)
	}

	balances, err := domain.ReplayLedger(anchor, items, extraDates)
	if err != nil {
		return nil, err
	}

	for i := range balances {
		row := &domain.CalculatedStockOnHand{
			StockCardID:  cardID,
			OccurredDate: balances[i].Date,
			StockOnHand:  balances[i].StockOnHand,
		}
		if err := stores.Balances().Upsert(ctx, row); err != nil {
			return nil, err
		}
	}

	// Refresh the cached running balance on every replayed item.
	for _, li := range items {
		if li.StockOnHand == nil || li.ID == uuid.Nil {
			continue
		}
		if err := stores.LineItems().UpdateStockOnHand(ctx, li.ID, *li.StockOnHand); err != nil {
			return nil, err
		}
	}

	s.logger.Debug().
		Str("stock_card_id", cardID.String()).
		Int("new_items", len(newItems)).
		Int("days", len(balances)).
		Msg("stock on hand recalculated")
	return balances, nil
}
