// Package repository implements the stock stores on PostgreSQL via sqlx.
// Every repository runs against a queryer, so the same code serves both
// auto-commit reads and transaction-bound writes.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/database"
)

// queryer is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Provider hands out store bundles over one database connection pool.
type Provider struct {
	db *database.DB
}

// NewProvider creates a store provider.
func NewProvider(db *database.DB) *Provider {
	return &Provider{db: db}
}

// Stores returns auto-commit stores for read paths.
func (p *Provider) Stores() service.Stores {
	return newStores(p.db)
}

// InTransaction runs fn against transaction-bound stores. The transaction
// commits only when fn returns nil; any error rolls everything back.
func (p *Provider) InTransaction(ctx context.Context, fn func(service.Stores) error) error {
	return p.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(newStores(tx))
	})
}

type stores struct {
	events      *StockEventRepository
	cards       *StockCardRepository
	lineItems   *LineItemRepository
	balances    *BalanceRepository
	reasons     *ReasonRepository
	nodes       *NodeRepository
	inventories *PhysicalInventoryRepository
}

func newStores(q queryer) *stores {
	return &stores{
		events:      NewStockEventRepository(q),
		cards:       NewStockCardRepository(q),
		lineItems:   NewLineItemRepository(q),
		balances:    NewBalanceRepository(q),
		reasons:     NewReasonRepository(q),
		nodes:       NewNodeRepository(q),
		inventories: NewPhysicalInventoryRepository(q),
	}
}

func (s *stores) Events() service.EventStore          { return s.events }
func (s *stores) Cards() service.CardStore            { return s.cards }
func (s *stores) LineItems() service.LineItemStore    { return s.lineItems }
func (s *stores) Balances() service.BalanceStore      { return s.balances }
func (s *stores) Reasons() service.ReasonStore        { return s.reasons }
func (s *stores) Nodes() service.NodeStore            { return s.nodes }
func (s *stores) Inventories() service.InventoryStore { return s.inventories }
