package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/events"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// StockCardService serves single-card reads and card lifecycle commands. The
// cached stock on hand on returned cards is always recomputed from the
// calculated rows; the ledger stays the source of truth.
type StockCardService struct {
	provider  StoreProvider
	publisher *events.StockEventPublisher
	logger    *logger.Logger
}

// NewStockCardService creates a stock card service.
func NewStockCardService(provider StoreProvider, publisher *events.StockEventPublisher, log *logger.Logger) *StockCardService {
	return &StockCardService{
		provider:  provider,
		publisher: publisher,
		logger:    log.WithComponent("stockcard"),
	}
}

// FindStockCardByID returns one card with its full ledger and its current
// stock on hand.
func (s *StockCardService) FindStockCardByID(ctx context.Context, id uuid.UUID) (*domain.StockCard, error) {
	if err := requirePermission(ctx, PermissionCardsView); err != nil {
		return nil, err
	}
	stores := s.provider.Stores()

	card, err := stores.Cards().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := stores.LineItems().FindByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	domain.SortLineItems(items)
	card.LineItems = items

	if err := s.attachBalance(ctx, stores, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Search returns a page of card summaries for the given ids plus the total
// match count. Cards without any calculated balance carry a nil stock on
// hand, not zero.
func (s *StockCardService) Search(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]*domain.StockCard, int, error) {
	if err := requirePermission(ctx, PermissionCardsView); err != nil {
		return nil, 0, err
	}
	stores := s.provider.Stores()

	cards, total, err := stores.Cards().FindByIDs(ctx, ids, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, card := range cards {
		if err := s.attachBalance(ctx, stores, card); err != nil {
			return nil, 0, err
		}
	}
	return cards, total, nil
}

// Deactivate takes a card out of use. Its ledger and balances stay readable;
// only new movements and active-card coverage stop considering it.
func (s *StockCardService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := requirePermission(ctx, PermissionCardsManage); err != nil {
		return err
	}
	err := s.provider.InTransaction(ctx, func(stores Stores) error {
		return stores.Cards().SetActive(ctx, id, false)
	})
	if err != nil {
		return err
	}
	s.publisher.PublishCardDeactivated(ctx, id.String())
	s.logger.Info().Str("stock_card_id", id.String()).Msg("stock card deactivated")
	return nil
}

func (s *StockCardService) attachBalance(ctx context.Context, stores Stores, card *domain.StockCard) error {
	row, err := stores.Balances().FindLatestOnOrBefore(ctx, card.ID, domain.Today())
	if err != nil {
		return err
	}
	if row != nil {
		soh := row.StockOnHand
		occurred := row.OccurredDate
		card.StockOnHand = &soh
		card.OccurredDate = &occurred
	}
	return nil
}
