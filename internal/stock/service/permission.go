package service

import (
	"context"

	"github.com/stockflow/stockflow-backend/pkg/actor"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/permissions"
)

// Rights guarding the read and draft paths. The per-event-kind rights live
// next to the processor.
const (
	PermissionCardsView     = "stock.cards.view"
	PermissionCardsManage   = "stock.cards.manage"
	PermissionInventoryEdit = "stock.inventories.edit"
)

// requirePermission resolves the acting user from the context and checks the
// required right, honoring wildcard grants.
func requirePermission(ctx context.Context, required string) error {
	act := actor.FromContext(ctx)
	if act == nil {
		return errors.Unauthorized("authentication required")
	}
	if !permissions.HasPermission(act.Permissions, required) {
		return errors.Forbidden("missing permission " + required)
	}
	return nil
}
