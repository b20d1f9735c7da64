package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicalInventoryService_DraftLifecycle(t *testing.T) {
	ctx := authCtx(service.PermissionInventoryEdit)
	stores := newMemStores()
	svc := service.NewPhysicalInventoryService(newMemProvider(stores), logger.New("test", "test"))

	programID := uuid.New()
	facilityID := uuid.New()

	t.Run("no draft yet", func(t *testing.T) {
		_, err := svc.FindDraft(ctx, programID, facilityID)
		require.Error(t, err)
	})

	quantity := 12
	draft := &domain.PhysicalInventory{
		ProgramID:  programID,
		FacilityID: facilityID,
		LineItems: []*domain.PhysicalInventoryLineItem{
			{OrderableID: uuid.New(), Quantity: &quantity},
		},
	}

	t.Run("save and find", func(t *testing.T) {
		require.NoError(t, svc.SaveDraft(ctx, draft))
		assert.True(t, draft.IsDraft)

		got, err := svc.FindDraft(ctx, programID, facilityID)
		require.NoError(t, err)
		assert.Equal(t, draft.ID, got.ID)
		require.Len(t, got.LineItems, 1)
	})

	t.Run("saving again replaces instead of duplicating", func(t *testing.T) {
		updated := &domain.PhysicalInventory{
			ProgramID:  programID,
			FacilityID: facilityID,
			LineItems: []*domain.PhysicalInventoryLineItem{
				{OrderableID: uuid.New(), Quantity: &quantity},
				{OrderableID: uuid.New(), Quantity: &quantity},
			},
		}
		require.NoError(t, svc.SaveDraft(ctx, updated))
		assert.Equal(t, draft.ID, updated.ID)
		assert.Len(t, stores.inventories, 1)
	})

	t.Run("submitted flag is never persisted through the draft path", func(t *testing.T) {
		eventID := uuid.New()
		sneaky := &domain.PhysicalInventory{
			ProgramID: programID, FacilityID: facilityID,
			IsDraft: false, EventID: &eventID,
		}
		require.NoError(t, svc.SaveDraft(ctx, sneaky))
		assert.True(t, sneaky.IsDraft)
		assert.Nil(t, sneaky.EventID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.DeleteDraft(ctx, programID, facilityID))
		_, err := svc.FindDraft(ctx, programID, facilityID)
		require.Error(t, err)
	})
}

func TestPhysicalInventoryService_RequiresEditPermission(t *testing.T) {
	stores := newMemStores()
	svc := service.NewPhysicalInventoryService(newMemProvider(stores), logger.New("test", "test"))

	programID := uuid.New()
	facilityID := uuid.New()
	draft := &domain.PhysicalInventory{ProgramID: programID, FacilityID: facilityID}

	_, err := svc.FindDraft(context.Background(), programID, facilityID)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// Being allowed to submit the count does not imply editing drafts.
	err = svc.SaveDraft(authCtx(service.PermissionInventorySubmit), draft)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.Empty(t, stores.inventories)

	err = svc.DeleteDraft(authCtx(service.PermissionInventorySubmit), programID, facilityID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	require.NoError(t, svc.SaveDraft(authCtx("stock.inventories.*"), draft))
}

func TestCatalogService_Reasons(t *testing.T) {
	ctx := context.Background()
	stores := newMemStores()
	svc := service.NewCatalogService(newMemProvider(stores), logger.New("test", "test"))

	reason := &domain.Reason{
		ID: uuid.New(), Name: "Expired",
		ReasonType: domain.ReasonTypeDebit, ReasonCategory: domain.ReasonCategoryAdjustment,
	}
	require.NoError(t, svc.CreateReason(ctx, reason))

	all, err := svc.FindReasons(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	programID := uuid.New()
	facilityTypeID := uuid.New()
	assignment := &domain.ReasonAssignment{
		ID: uuid.New(), ProgramID: programID, FacilityTypeID: facilityTypeID, ReasonID: reason.ID,
	}
	require.NoError(t, svc.AssignReason(ctx, assignment))

	valid, err := svc.FindValidReasons(ctx, programID, facilityTypeID)
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, reason.ID, valid[0].ReasonID)

	// Another program/facility-type pair sees nothing.
	valid, err = svc.FindValidReasons(ctx, uuid.New(), facilityTypeID)
	require.NoError(t, err)
	assert.Empty(t, valid)

	require.NoError(t, svc.UnassignReason(ctx, assignment.ID))
	valid, err = svc.FindValidReasons(ctx, programID, facilityTypeID)
	require.NoError(t, err)
	assert.Empty(t, valid)
}

func TestCatalogService_OrganizationsAndNodes(t *testing.T) {
	ctx := context.Background()
	stores := newMemStores()
	svc := service.NewCatalogService(newMemProvider(stores), logger.New("test", "test"))

	org := &domain.Organization{ID: uuid.New(), Name: "Partner NGO"}
	require.NoError(t, svc.CreateOrganization(ctx, org))

	orgs, err := svc.FindOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)

	// The organization got a node keyed by its own id.
	node, err := stores.Nodes().FindOrCreateNode(ctx, org.ID, false)
	require.NoError(t, err)
	assert.False(t, node.IsRefDataFacility)
	assert.Len(t, stores.nodes, 1)
}

func TestCatalogService_SourceDestinationAssignments(t *testing.T) {
	ctx := context.Background()
	stores := newMemStores()
	svc := service.NewCatalogService(newMemProvider(stores), logger.New("test", "test"))

	programID := uuid.New()
	facilityTypeID := uuid.New()
	warehouseID := uuid.New()

	source := &domain.SourceDestinationAssignment{
		ID: uuid.New(), ProgramID: programID, FacilityTypeID: facilityTypeID,
	}
	require.NoError(t, svc.AssignSource(ctx, source, warehouseID, true))
	assert.NotEqual(t, uuid.Nil, source.NodeID)

	sources, err := svc.FindValidSources(ctx, programID, facilityTypeID)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	// Assigning the same facility as a destination reuses its node.
	destination := &domain.SourceDestinationAssignment{
		ID: uuid.New(), ProgramID: programID, FacilityTypeID: facilityTypeID,
	}
	require.NoError(t, svc.AssignDestination(ctx, destination, warehouseID, true))
	assert.Equal(t, source.NodeID, destination.NodeID)

	destinations, err := svc.FindValidDestinations(ctx, programID, facilityTypeID)
	require.NoError(t, err)
	require.Len(t, destinations, 1)
	assert.Len(t, stores.nodes, 1)
}
