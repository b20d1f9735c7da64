package domain

import (
	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
)

// EventContext carries everything one stock event submission needs resolved:
// reference data, the local reason and source/destination catalogs, and the
// stock cards already existing for the event's facility and program. It is
// built once per event so validators and the processor never fan out extra
// lookups per line item.
type EventContext struct {
	Facility *refdata.Facility
	Program  *refdata.Program

	Orderables map[uuid.UUID]*refdata.Orderable
	Lots       map[uuid.UUID]*refdata.Lot

	// NodeFacilities maps a node's reference id to the facility it points
	// at, for nodes backed by reference data.
	NodeFacilities map[uuid.UUID]*refdata.Facility

	Reasons      map[uuid.UUID]*Reason
	Nodes        map[uuid.UUID]*Node
	Sources      []*SourceDestinationAssignment
	Destinations []*SourceDestinationAssignment

	UnpackReasonID uuid.UUID

	cards map[OrderableLotIdentity]*StockCard
}

// NewEventContext returns an empty context ready to be populated by the
// context builder.
func NewEventContext() *EventContext {
	return &EventContext{
		Orderables:     make(map[uuid.UUID]*refdata.Orderable),
		Lots:           make(map[uuid.UUID]*refdata.Lot),
		NodeFacilities: make(map[uuid.UUID]*refdata.Facility),
		Reasons:        make(map[uuid.UUID]*Reason),
		Nodes:          make(map[uuid.UUID]*Node),
		cards:          make(map[OrderableLotIdentity]*StockCard),
	}
}

// FindOrderable returns the approved orderable with the given id, or nil.
func (c *EventContext) FindOrderable(id uuid.UUID) *refdata.Orderable {
	return c.Orderables[id]
}

// FindLot returns the resolved lot with the given id, or nil.
func (c *EventContext) FindLot(id uuid.UUID) *refdata.Lot {
	return c.Lots[id]
}

// FindReason returns the resolved reason with the given id, or nil.
func (c *EventContext) FindReason(id uuid.UUID) *Reason {
	return c.Reasons[id]
}

// FindNode returns the resolved source/destination node, or nil.
func (c *EventContext) FindNode(id uuid.UUID) *Node {
	return c.Nodes[id]
}

// FindCard returns the cached stock card for an identity, or nil when no
// movement has created one yet.
func (c *EventContext) FindCard(identity OrderableLotIdentity) *StockCard {
	return c.cards[identity]
}

// CacheCard registers a stock card under its identity.
func (c *EventContext) CacheCard(card *StockCard) {
	c.cards[IdentityOfCard(card)] = card
}

// Cards returns all cached stock cards.
func (c *EventContext) Cards() []*StockCard {
	cards := make([]*StockCard, 0, len(c.cards))
	for _, card := range c.cards {
		cards = append(cards, card)
	}
	return cards
}

// FindNodeFacility returns the reference-data facility a node points at, or
// nil for organization-backed nodes.
func (c *EventContext) FindNodeFacility(referenceID uuid.UUID) *refdata.Facility {
	return c.NodeFacilities[referenceID]
}

// FindSourceAssignment returns the valid-source assignment for a node under
// the event's program and facility type, or nil.
func (c *EventContext) FindSourceAssignment(nodeID uuid.UUID) *SourceDestinationAssignment {
	return findAssignment(c.Sources, nodeID)
}

// FindDestinationAssignment returns the valid-destination assignment for a
// node under the event's program and facility type, or nil.
func (c *EventContext) FindDestinationAssignment(nodeID uuid.UUID) *SourceDestinationAssignment {
	return findAssignment(c.Destinations, nodeID)
}

func findAssignment(assignments []*SourceDestinationAssignment, nodeID uuid.UUID) *SourceDestinationAssignment {
	for _, a := range assignments {
		if a.NodeID == nodeID {
			return a
		}
	}
	return nil
}
