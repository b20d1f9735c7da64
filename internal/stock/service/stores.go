// Package service orchestrates stock event processing: per-event context
// building, the validation pipeline, transactional persistence, stock on hand
// recalculation and the read-side query services.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// EventStore persists immutable stock events.
type EventStore interface {
	Create(ctx context.Context, event *domain.StockEvent) error
}

// CardStore persists and resolves stock cards.
type CardStore interface {
	Create(ctx context.Context, card *domain.StockCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.StockCard, error)
	FindByIdentity(ctx context.Context, facilityID, programID uuid.UUID, identity domain.OrderableLotIdentity) (*domain.StockCard, error)
	FindByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error)
	FindActiveByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]*domain.StockCard, int, error)
	// Lock acquires row locks on the given cards. Implementations must lock
	// in ascending id order so concurrent events touching the same cards
	// cannot deadlock.
	Lock(ctx context.Context, ids []uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// LineItemStore persists the append-only stock card ledger.
type LineItemStore interface {
	Insert(ctx context.Context, item *domain.StockCardLineItem) error
	FindByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.StockCardLineItem, error)
	FindByCardFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.StockCardLineItem, error)
	CountMatching(ctx context.Context, filter domain.DuplicateFilter) (int, error)
	UpdateStockOnHand(ctx context.Context, itemID uuid.UUID, stockOnHand int) error
}

// BalanceStore persists calculated stock on hand rows.
type BalanceStore interface {
	FindLatestBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error)
	FindLatestOnOrBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error)
	FindFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.CalculatedStockOnHand, error)
	Upsert(ctx context.Context, row *domain.CalculatedStockOnHand) error
}

// ReasonStore resolves the reason catalog and its program/facility-type
// assignments.
type ReasonStore interface {
	Create(ctx context.Context, reason *domain.Reason) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Reason, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Reason, error)
	FindAll(ctx context.Context) ([]*domain.Reason, error)
	FindValidAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.ReasonAssignment, error)
	CreateAssignment(ctx context.Context, assignment *domain.ReasonAssignment) error
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
}

// NodeStore resolves source/destination nodes, organizations and the valid
// assignment lists.
type NodeStore interface {
	FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Node, error)
	FindOrCreateNode(ctx context.Context, referenceID uuid.UUID, isRefDataFacility bool) (*domain.Node, error)
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	FindOrganizations(ctx context.Context) ([]*domain.Organization, error)
	FindSourceAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error)
	FindDestinationAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error)
	CreateSourceAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error
	CreateDestinationAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error
}

// InventoryStore persists physical inventory drafts and submissions.
type InventoryStore interface {
	FindDraft(ctx context.Context, programID, facilityID uuid.UUID) (*domain.PhysicalInventory, error)
	Save(ctx context.Context, inventory *domain.PhysicalInventory) error
	DeleteDraft(ctx context.Context, programID, facilityID uuid.UUID) error
}

// Stores bundles every store over one database handle, transactional or not.
type Stores interface {
	Events() EventStore
	Cards() CardStore
	LineItems() LineItemStore
	Balances() BalanceStore
	Reasons() ReasonStore
	Nodes() NodeStore
	Inventories() InventoryStore
}

// StoreProvider hands out store bundles. Stores returns auto-commit stores
// for reads; InTransaction runs fn against transaction-bound stores and
// commits only when fn returns nil.
type StoreProvider interface {
	Stores() Stores
	InTransaction(ctx context.Context, fn func(Stores) error) error
}
