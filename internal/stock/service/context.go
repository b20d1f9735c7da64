package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
)

// ContextBuilder resolves everything one stock event needs up front: the
// reference data (facility, program, approved orderables, lots), the local
// catalogs (reasons, nodes, valid assignments) and the already-existing stock
// cards. One build per event; validators and the processor work off the
// result without further lookups.
type ContextBuilder struct {
	refdata        refdata.Client
	unpackReasonID uuid.UUID
}

// NewContextBuilder creates a context builder. unpackReasonID may be the zero
// uuid when the deployment has no kit unpacking configured.
func NewContextBuilder(client refdata.Client, unpackReasonID uuid.UUID) *ContextBuilder {
	return &ContextBuilder{refdata: client, unpackReasonID: unpackReasonID}
}

// Build resolves the context for one event against auto-commit stores.
func (b *ContextBuilder) Build(ctx context.Context, stores Stores, event *domain.StockEvent) (*domain.EventContext, error) {
	ectx := domain.NewEventContext()
	ectx.UnpackReasonID = b.unpackReasonID

	facility, err := b.refdata.Facility(ctx, event.FacilityID)
	if err != nil {
		return nil, err
	}
	ectx.Facility = facility

	program, err := b.refdata.Program(ctx, event.ProgramID)
	if err != nil {
		return nil, err
	}
	ectx.Program = program

	if facility == nil || program == nil {
		// The mandatory fields validator rejects the event; nothing else
		// in the context can be resolved without the pair.
		return ectx, nil
	}

	if err := b.loadOrderablesAndLots(ctx, ectx, event); err != nil {
		return nil, err
	}
	if err := b.loadReasons(ctx, stores, ectx, event); err != nil {
		return nil, err
	}
	if err := b.loadNodes(ctx, stores, ectx, event); err != nil {
		return nil, err
	}
	if err := b.loadCards(ctx, stores, ectx, event); err != nil {
		return nil, err
	}
	return ectx, nil
}

func (b *ContextBuilder) loadOrderablesAndLots(ctx context.Context, ectx *domain.EventContext, event *domain.StockEvent) error {
	orderables, err := b.refdata.ApprovedOrderables(ctx, event.FacilityID, event.ProgramID)
	if err != nil {
		return err
	}
	for _, orderable := range orderables {
		ectx.Orderables[orderable.ID] = orderable
	}

	lotIDs := collectIDs(event, func(li *domain.StockEventLineItem) *uuid.UUID { return li.LotID })
	lots, err := b.refdata.LotsByIDs(ctx, lotIDs)
	if err != nil {
		return err
	}
	for _, lot := range lots {
		ectx.Lots[lot.ID] = lot
	}
	return nil
}

// loadReasons resolves the valid reason assignments for the program and
// facility type. Only assigned reasons land in the context, which is what
// makes "reason not found" and "reason not in valid list" the same lookup.
func (b *ContextBuilder) loadReasons(ctx context.Context, stores Stores, ectx *domain.EventContext, event *domain.StockEvent) error {
	assignments, err := stores.Reasons().FindValidAssignments(ctx, event.ProgramID, ectx.Facility.FacilityTypeID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if a.Reason != nil {
			ectx.Reasons[a.Reason.ID] = a.Reason
		}
	}

	// Reasons referenced by the event but outside the assignment list are
	// still resolved so validators can report the precise failure.
	missing := make([]uuid.UUID, 0)
	for _, li := range event.LineItems {
		if li.ReasonID != nil && ectx.Reasons[*li.ReasonID] == nil {
			missing = append(missing, *li.ReasonID)
		}
	}
	if len(missing) > 0 {
		reasons, err := stores.Reasons().FindByIDs(ctx, missing)
		if err != nil {
			return err
		}
		for _, reason := range reasons {
			ectx.Reasons[reason.ID] = reason
		}
	}
	return nil
}

func (b *ContextBuilder) loadNodes(ctx context.Context, stores Stores, ectx *domain.EventContext, event *domain.StockEvent) error {
	sources, err := stores.Nodes().FindSourceAssignments(ctx, event.ProgramID, ectx.Facility.FacilityTypeID)
	if err != nil {
		return err
	}
	ectx.Sources = sources

	destinations, err := stores.Nodes().FindDestinationAssignments(ctx, event.ProgramID, ectx.Facility.FacilityTypeID)
	if err != nil {
		return err
	}
	ectx.Destinations = destinations

	for _, a := range sources {
		if a.Node != nil {
			ectx.Nodes[a.Node.ID] = a.Node
		}
	}
	for _, a := range destinations {
		if a.Node != nil {
			ectx.Nodes[a.Node.ID] = a.Node
		}
	}

	nodeIDs := make([]uuid.UUID, 0)
	for _, li := range event.LineItems {
		if li.SourceID != nil && ectx.Nodes[*li.SourceID] == nil {
			nodeIDs = append(nodeIDs, *li.SourceID)
		}
		if li.DestinationID != nil && ectx.Nodes[*li.DestinationID] == nil {
			nodeIDs = append(nodeIDs, *li.DestinationID)
		}
	}
	if len(nodeIDs) > 0 {
		nodes, err := stores.Nodes().FindNodesByIDs(ctx, nodeIDs)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			ectx.Nodes[node.ID] = node
		}
	}

	// Facilities behind referenced nodes, for geo affinity checks.
	for _, node := range ectx.Nodes {
		if !node.IsRefDataFacility {
			continue
		}
		if ectx.NodeFacilities[node.ReferenceID] != nil {
			continue
		}
		facility, err := b.refdata.Facility(ctx, node.ReferenceID)
		if err != nil {
			return err
		}
		if facility != nil {
			ectx.NodeFacilities[node.ReferenceID] = facility
		}
	}
	return nil
}

func (b *ContextBuilder) loadCards(ctx context.Context, stores Stores, ectx *domain.EventContext, event *domain.StockEvent) error {
	cards, err := stores.Cards().FindByProgramAndFacility(ctx, event.ProgramID, event.FacilityID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		ectx.CacheCard(card)
	}
	return nil
}

func collectIDs(event *domain.StockEvent, pick func(*domain.StockEventLineItem) *uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, li := range event.LineItems {
		if id := pick(li); id != nil {
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	return ids
}
