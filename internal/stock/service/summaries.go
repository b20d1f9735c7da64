package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// SummaryService answers "how much stock was on hand" questions from the
// calculated rows, per card or across a whole program/facility pair.
type SummaryService struct {
	provider StoreProvider
	logger   *logger.Logger
}

// NewSummaryService creates a summary service.
func NewSummaryService(provider StoreProvider, log *logger.Logger) *SummaryService {
	return &SummaryService{provider: provider, logger: log.WithComponent("summaries")}
}

// FindStockCardsWithStockOnHand returns every card of a program/facility pair
// with its stock on hand as of the given date (today when nil). Cards without
// a calculated row on or before the date keep a nil stock on hand; absence of
// data is not a zero balance.
func (s *SummaryService) FindStockCardsWithStockOnHand(ctx context.Context, programID, facilityID uuid.UUID, asOf *time.Time) ([]*domain.StockCard, error) {
	if err := requirePermission(ctx, PermissionCardsView); err != nil {
		return nil, err
	}

	date := domain.Today()
	if asOf != nil {
		date = domain.DateOnly(*asOf)
	}

	stores := s.provider.Stores()
	cards, err := stores.Cards().FindByProgramAndFacility(ctx, programID, facilityID)
	if err != nil {
		return nil, err
	}

	for _, card := range cards {
		row, err := stores.Balances().FindLatestOnOrBefore(ctx, card.ID, date)
		if err != nil {
			return nil, err
		}
		if row != nil {
			soh := row.StockOnHand
			occurred := row.OccurredDate
			card.StockOnHand = &soh
			card.OccurredDate = &occurred
		}
	}
	return cards, nil
}

// StockOnHandForDate returns one card's stock on hand as of a date, or nil
// when the card has no balance on or before it.
func (s *SummaryService) StockOnHandForDate(ctx context.Context, cardID uuid.UUID, date time.Time) (*int, error) {
	if err := requirePermission(ctx, PermissionCardsView); err != nil {
		return nil, err
	}
	row, err := s.provider.Stores().Balances().FindLatestOnOrBefore(ctx, cardID, date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	soh := row.StockOnHand
	return &soh, nil
}
