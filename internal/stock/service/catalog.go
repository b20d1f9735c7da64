package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// CatalogService administers the local catalogs: reasons and their
// assignments, organizations, and the valid source/destination lists.
type CatalogService struct {
	provider StoreProvider
	logger   *logger.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(provider StoreProvider, log *logger.Logger) *CatalogService {
	return &CatalogService{provider: provider, logger: log.WithComponent("catalog")}
}

// CreateReason adds a catalog entry.
func (s *CatalogService) CreateReason(ctx context.Context, reason *domain.Reason) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		return stores.Reasons().Create(ctx, reason)
	})
}

// FindReasons returns the whole reason catalog.
func (s *CatalogService) FindReasons(ctx context.Context) ([]*domain.Reason, error) {
	return s.provider.Stores().Reasons().FindAll(ctx)
}

// FindReason returns one reason.
func (s *CatalogService) FindReason(ctx context.Context, id uuid.UUID) (*domain.Reason, error) {
	return s.provider.Stores().Reasons().FindByID(ctx, id)
}

// FindValidReasons returns the reasons assigned to a program/facility-type
// pair.
func (s *CatalogService) FindValidReasons(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.ReasonAssignment, error) {
	return s.provider.Stores().Reasons().FindValidAssignments(ctx, programID, facilityTypeID)
}

// AssignReason binds a reason to a program/facility-type pair.
func (s *CatalogService) AssignReason(ctx context.Context, assignment *domain.ReasonAssignment) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		return stores.Reasons().CreateAssignment(ctx, assignment)
	})
}

// UnassignReason removes a reason assignment.
func (s *CatalogService) UnassignReason(ctx context.Context, id uuid.UUID) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		return stores.Reasons().DeleteAssignment(ctx, id)
	})
}

// CreateOrganization adds a locally managed trading partner and its node.
func (s *CatalogService) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		if err := stores.Nodes().CreateOrganization(ctx, org); err != nil {
			return err
		}
		_, err := stores.Nodes().FindOrCreateNode(ctx, org.ID, false)
		return err
	})
}

// FindOrganizations returns all organizations.
func (s *CatalogService) FindOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return s.provider.Stores().Nodes().FindOrganizations(ctx)
}

// FindValidSources returns the valid sources for a program/facility-type
// pair.
func (s *CatalogService) FindValidSources(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return s.provider.Stores().Nodes().FindSourceAssignments(ctx, programID, facilityTypeID)
}

// FindValidDestinations returns the valid destinations for a
// program/facility-type pair.
func (s *CatalogService) FindValidDestinations(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return s.provider.Stores().Nodes().FindDestinationAssignments(ctx, programID, facilityTypeID)
}

// AssignSource marks a node as a valid source. The node is created on first
// use from its reference id.
func (s *CatalogService) AssignSource(ctx context.Context, assignment *domain.SourceDestinationAssignment, referenceID uuid.UUID, isRefDataFacility bool) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		node, err := stores.Nodes().FindOrCreateNode(ctx, referenceID, isRefDataFacility)
		if err != nil {
			return err
		}
		assignment.NodeID = node.ID
		return stores.Nodes().CreateSourceAssignment(ctx, assignment)
	})
}

// AssignDestination marks a node as a valid destination.
func (s *CatalogService) AssignDestination(ctx context.Context, assignment *domain.SourceDestinationAssignment, referenceID uuid.UUID, isRefDataFacility bool) error {
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		node, err := stores.Nodes().FindOrCreateNode(ctx, referenceID, isRefDataFacility)
		if err != nil {
			return err
		}
		assignment.NodeID = node.ID
		return stores.Nodes().CreateDestinationAssignment(ctx, assignment)
	})
}
