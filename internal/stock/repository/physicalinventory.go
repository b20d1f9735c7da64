package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
)

// PhysicalInventoryRepository persists physical inventories. At most one
// draft exists per program/facility pair; submitting replaces the draft with
// the finalized record bound to its stock event.
type PhysicalInventoryRepository struct {
	q queryer
}

// NewPhysicalInventoryRepository creates a physical inventory repository.
func NewPhysicalInventoryRepository(q queryer) *PhysicalInventoryRepository {
	return &PhysicalInventoryRepository{q: q}
}

// FindDraft returns the draft for a program/facility pair with its line
// items, or nil when no draft exists.
func (r *PhysicalInventoryRepository) FindDraft(ctx context.Context, programID, facilityID uuid.UUID) (*domain.PhysicalInventory, error) {
	var inventory domain.PhysicalInventory
	query := `
		SELECT * FROM physical_inventories
		WHERE program_id = $1 AND facility_id = $2 AND is_draft = true
	`
	if err := r.q.GetContext(ctx, &inventory, query, programID, facilityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	itemsQuery := `
		SELECT * FROM physical_inventory_line_items
		WHERE physical_inventory_id = $1
		ORDER BY orderable_id, lot_id
	`
	if err := r.q.SelectContext(ctx, &inventory.LineItems, itemsQuery, inventory.ID); err != nil {
		return nil, err
	}
	return &inventory, nil
}

// Save writes an inventory and its line items, replacing any previous line
// items of the same record.
func (r *PhysicalInventoryRepository) Save(ctx context.Context, inventory *domain.PhysicalInventory) error {
	if inventory.ID == uuid.Nil {
		inventory.ID = uuid.New()
	}

	query := `
		INSERT INTO physical_inventories (
			id, program_id, facility_id, event_id, occurred_date,
			document_number, signature, is_draft
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			event_id = EXCLUDED.event_id,
			occurred_date = EXCLUDED.occurred_date,
			document_number = EXCLUDED.document_number,
			signature = EXCLUDED.signature,
			is_draft = EXCLUDED.is_draft
	`
	_, err := r.q.ExecContext(ctx, query,
		inventory.ID, inventory.ProgramID, inventory.FacilityID, inventory.EventID,
		inventory.OccurredDate, inventory.DocumentNumber, inventory.Signature,
		inventory.IsDraft,
	)
	if err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM physical_inventory_line_items WHERE physical_inventory_id = $1`,
		inventory.ID); err != nil {
		return err
	}
	for _, li := range inventory.LineItems {
		if li.ID == uuid.Nil {
			li.ID = uuid.New()
		}
		li.PhysicalInventoryID = inventory.ID
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO physical_inventory_line_items (
				id, physical_inventory_id, orderable_id, lot_id,
				quantity, previous_stock_on_hand, extra_data
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, li.ID, li.PhysicalInventoryID, li.OrderableID, li.LotID,
			li.Quantity, li.PreviousStockOnHand, li.ExtraData)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteDraft removes the draft for a program/facility pair, if any.
func (r *PhysicalInventoryRepository) DeleteDraft(ctx context.Context, programID, facilityID uuid.UUID) error {
	query := `
		DELETE FROM physical_inventories
		WHERE program_id = $1 AND facility_id = $2 AND is_draft = true
	`
	_, err := r.q.ExecContext(ctx, query, programID, facilityID)
	return err
}
