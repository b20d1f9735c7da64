package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// PhysicalInventoryService manages inventory drafts. Counting a whole
// facility takes time, so users build a draft incrementally; submitting goes
// through the stock event processor, which replaces the draft with the final
// record inside the event's transaction.
type PhysicalInventoryService struct {
	provider StoreProvider
	logger   *logger.Logger
}

// NewPhysicalInventoryService creates a physical inventory service.
func NewPhysicalInventoryService(provider StoreProvider, log *logger.Logger) *PhysicalInventoryService {
	return &PhysicalInventoryService{provider: provider, logger: log.WithComponent("physicalinventory")}
}

// FindDraft returns the draft for a program/facility pair, or a not-found
// error when none exists.
func (s *PhysicalInventoryService) FindDraft(ctx context.Context, programID, facilityID uuid.UUID) (*domain.PhysicalInventory, error) {
	if err := requirePermission(ctx, PermissionInventoryEdit); err != nil {
		return nil, err
	}
	draft, err := s.provider.Stores().Inventories().FindDraft(ctx, programID, facilityID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, errors.NotFoundWithKey("physical_inventory")
	}
	return draft, nil
}

// SaveDraft creates or replaces the draft for the inventory's
// program/facility pair.
func (s *PhysicalInventoryService) SaveDraft(ctx context.Context, inventory *domain.PhysicalInventory) error {
	if err := requirePermission(ctx, PermissionInventoryEdit); err != nil {
		return err
	}
	inventory.IsDraft = true
	inventory.EventID = nil
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		existing, err := stores.Inventories().FindDraft(ctx, inventory.ProgramID, inventory.FacilityID)
		if err != nil {
			return err
		}
		if existing != nil {
			inventory.ID = existing.ID
		}
		return stores.Inventories().Save(ctx, inventory)
	})
}

// DeleteDraft discards the draft for a program/facility pair.
func (s *PhysicalInventoryService) DeleteDraft(ctx context.Context, programID, facilityID uuid.UUID) error {
	if err := requirePermission(ctx, PermissionInventoryEdit); err != nil {
		return err
	}
	return s.provider.InTransaction(ctx, func(stores Stores) error {
		return stores.Inventories().DeleteDraft(ctx, programID, facilityID)
	})
}
