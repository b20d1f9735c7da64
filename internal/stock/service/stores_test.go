package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/actor"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// authCtx returns a context carrying an authenticated actor with the given
// permissions.
func authCtx(perms ...string) context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{
		ID: uuid.NewString(), Permissions: perms,
	})
}

// memStores is an in-memory Stores implementation backing the service tests.
// It keeps pointers, so rollback works by restoring snapshotted maps and
// slices rather than deep copies.
type memStores struct {
	events      map[uuid.UUID]*domain.StockEvent
	cards       map[uuid.UUID]*domain.StockCard
	lineItems   []*domain.StockCardLineItem
	balances    map[uuid.UUID]map[time.Time]*domain.CalculatedStockOnHand
	reasons     map[uuid.UUID]*domain.Reason
	assignments []*domain.ReasonAssignment
	nodes       map[uuid.UUID]*domain.Node
	orgs        []*domain.Organization
	sources     []*domain.SourceDestinationAssignment
	dests       []*domain.SourceDestinationAssignment
	inventories map[uuid.UUID]*domain.PhysicalInventory

	nextPosition int64
	lockedCards  []uuid.UUID

	failLineItemInsert error
}

func newMemStores() *memStores {
	return &memStores{
		events:      make(map[uuid.UUID]*domain.StockEvent),
		cards:       make(map[uuid.UUID]*domain.StockCard),
		balances:    make(map[uuid.UUID]map[time.Time]*domain.CalculatedStockOnHand),
		reasons:     make(map[uuid.UUID]*domain.Reason),
		nodes:       make(map[uuid.UUID]*domain.Node),
		inventories: make(map[uuid.UUID]*domain.PhysicalInventory),
	}
}

func (m *memStores) Events() service.EventStore         { return (*memEvents)(m) }
func (m *memStores) Cards() service.CardStore           { return (*memCards)(m) }
func (m *memStores) LineItems() service.LineItemStore   { return (*memLineItems)(m) }
func (m *memStores) Balances() service.BalanceStore     { return (*memBalances)(m) }
func (m *memStores) Reasons() service.ReasonStore       { return (*memReasons)(m) }
func (m *memStores) Nodes() service.NodeStore           { return (*memNodes)(m) }
func (m *memStores) Inventories() service.InventoryStore { return (*memInventories)(m) }

func (m *memStores) addReason(reason *domain.Reason, programID, facilityTypeID uuid.UUID) {
	m.reasons[reason.ID] = reason
	m.assignments = append(m.assignments, &domain.ReasonAssignment{
		ID: uuid.New(), ProgramID: programID, FacilityTypeID: facilityTypeID,
		ReasonID: reason.ID, Reason: reason,
	})
}

func (m *memStores) cardBalances(cardID uuid.UUID) []*domain.CalculatedStockOnHand {
	rows := make([]*domain.CalculatedStockOnHand, 0, len(m.balances[cardID]))
	for _, row := range m.balances[cardID] {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OccurredDate.Before(rows[j].OccurredDate) })
	return rows
}

type memEvents memStores

func (m *memEvents) Create(ctx context.Context, event *domain.StockEvent) error {
	m.events[event.ID] = event
	return nil
}

type memCards memStores

func (m *memCards) Create(ctx context.Context, card *domain.StockCard) error {
	m.cards[card.ID] = card
	return nil
}

func (m *memCards) FindByID(ctx context.Context, id uuid.UUID) (*domain.StockCard, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, errors.NotFound("stock_card")
	}
	return card, nil
}

func (m *memCards) FindByIdentity(ctx context.Context, facilityID, programID uuid.UUID, identity domain.OrderableLotIdentity) (*domain.StockCard, error) {
	for _, card := range m.cards {
		if card.FacilityID == facilityID && card.ProgramID == programID && domain.IdentityOfCard(card) == identity {
			return card, nil
		}
	}
	return nil, nil
}

func (m *memCards) FindByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error) {
	var out []*domain.StockCard
	for _, card := range m.cards {
		if card.ProgramID == programID && card.FacilityID == facilityID {
			out = append(out, card)
		}
	}
	return out, nil
}

func (m *memCards) FindActiveByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error) {
	all, _ := m.FindByProgramAndFacility(ctx, programID, facilityID)
	var out []*domain.StockCard
	for _, card := range all {
		if card.IsActive {
			out = append(out, card)
		}
	}
	return out, nil
}

func (m *memCards) FindByIDs(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]*domain.StockCard, int, error) {
	var out []*domain.StockCard
	for _, id := range ids {
		if card, ok := m.cards[id]; ok {
			out = append(out, card)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memCards) Lock(ctx context.Context, ids []uuid.UUID) error {
	m.lockedCards = append(m.lockedCards, ids...)
	return nil
}

func (m *memCards) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if card, ok := m.cards[id]; ok {
		card.IsActive = active
	}
	return nil
}

type memLineItems memStores

func (m *memLineItems) Insert(ctx context.Context, item *domain.StockCardLineItem) error {
	if m.failLineItemInsert != nil {
		return m.failLineItemInsert
	}
	m.nextPosition++
	item.Position = m.nextPosition
	m.lineItems = append(m.lineItems, item)
	return nil
}

func (m *memLineItems) FindByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.StockCardLineItem, error) {
	var out []*domain.StockCardLineItem
	for _, li := range m.lineItems {
		if li.StockCardID == cardID {
			out = append(out, li)
		}
	}
	domain.SortLineItems(out)
	return out, nil
}

func (m *memLineItems) FindByCardFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.StockCardLineItem, error) {
	var out []*domain.StockCardLineItem
	for _, li := range m.lineItems {
		if li.StockCardID == cardID && !domain.DateOnly(li.OccurredDate).Before(domain.DateOnly(date)) {
			out = append(out, li)
		}
	}
	return out, nil
}

func (m *memLineItems) CountMatching(ctx context.Context, filter domain.DuplicateFilter) (int, error) {
	count := 0
	for _, li := range m.lineItems {
		card := m.cards[li.StockCardID]
		if card == nil || card.FacilityID != filter.FacilityID {
			continue
		}
		if card.OrderableID != filter.OrderableID {
			continue
		}
		if !uuidPtrEqual(card.LotID, filter.LotID) {
			continue
		}
		if !domain.DateOnly(li.OccurredDate).Equal(filter.OccurredDate) || li.Quantity != filter.Quantity {
			continue
		}
		if !uuidPtrEqual(li.ReasonID, filter.ReasonID) ||
			!uuidPtrEqual(li.SourceID, filter.SourceID) ||
			!uuidPtrEqual(li.DestinationID, filter.DestinationID) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memLineItems) UpdateStockOnHand(ctx context.Context, itemID uuid.UUID, stockOnHand int) error {
	for _, li := range m.lineItems {
		if li.ID == itemID {
			soh := stockOnHand
			li.StockOnHand = &soh
		}
	}
	return nil
}

type memBalances memStores

func (m *memBalances) FindLatestBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error) {
	var latest *domain.CalculatedStockOnHand
	for _, row := range m.balances[cardID] {
		if row.OccurredDate.Before(domain.DateOnly(date)) {
			if latest == nil || row.OccurredDate.After(latest.OccurredDate) {
				latest = row
			}
		}
	}
	return latest, nil
}

func (m *memBalances) FindLatestOnOrBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error) {
	return m.FindLatestBefore(ctx, cardID, domain.DateOnly(date).AddDate(0, 0, 1))
}

func (m *memBalances) FindFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.CalculatedStockOnHand, error) {
	var out []*domain.CalculatedStockOnHand
	for _, row := range m.balances[cardID] {
		if !row.OccurredDate.Before(domain.DateOnly(date)) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredDate.Before(out[j].OccurredDate) })
	return out, nil
}

func (m *memBalances) Upsert(ctx context.Context, row *domain.CalculatedStockOnHand) error {
	if m.balances[row.StockCardID] == nil {
		m.balances[row.StockCardID] = make(map[time.Time]*domain.CalculatedStockOnHand)
	}
	m.balances[row.StockCardID][row.OccurredDate] = row
	return nil
}

type memReasons memStores

func (m *memReasons) Create(ctx context.Context, reason *domain.Reason) error {
	m.reasons[reason.ID] = reason
	return nil
}

func (m *memReasons) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reason, error) {
	return m.reasons[id], nil
}

func (m *memReasons) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Reason, error) {
	var out []*domain.Reason
	for _, id := range ids {
		if reason, ok := m.reasons[id]; ok {
			out = append(out, reason)
		}
	}
	return out, nil
}

func (m *memReasons) FindAll(ctx context.Context) ([]*domain.Reason, error) {
	var out []*domain.Reason
	for _, reason := range m.reasons {
		out = append(out, reason)
	}
	return out, nil
}

func (m *memReasons) FindValidAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.ReasonAssignment, error) {
	var out []*domain.ReasonAssignment
	for _, a := range m.assignments {
		if a.ProgramID == programID && a.FacilityTypeID == facilityTypeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memReasons) CreateAssignment(ctx context.Context, assignment *domain.ReasonAssignment) error {
	m.assignments = append(m.assignments, assignment)
	return nil
}

func (m *memReasons) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	for i, a := range m.assignments {
		if a.ID == id {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return nil
}

type memNodes memStores

func (m *memNodes) FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Node, error) {
	var out []*domain.Node
	for _, id := range ids {
		if node, ok := m.nodes[id]; ok {
			out = append(out, node)
		}
	}
	return out, nil
}

func (m *memNodes) FindOrCreateNode(ctx context.Context, referenceID uuid.UUID, isRefDataFacility bool) (*domain.Node, error) {
	for _, node := range m.nodes {
		if node.ReferenceID == referenceID {
			return node, nil
		}
	}
	node := &domain.Node{ID: uuid.New(), ReferenceID: referenceID, IsRefDataFacility: isRefDataFacility}
	m.nodes[node.ID] = node
	return node, nil
}

func (m *memNodes) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	m.orgs = append(m.orgs, org)
	return nil
}

func (m *memNodes) FindOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return m.orgs, nil
}

func (m *memNodes) FindSourceAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return filterAssignments(m.sources, programID, facilityTypeID), nil
}

func (m *memNodes) FindDestinationAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return filterAssignments(m.dests, programID, facilityTypeID), nil
}

func (m *memNodes) CreateSourceAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error {
	m.sources = append(m.sources, assignment)
	return nil
}

func (m *memNodes) CreateDestinationAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error {
	m.dests = append(m.dests, assignment)
	return nil
}

func filterAssignments(assignments []*domain.SourceDestinationAssignment, programID, facilityTypeID uuid.UUID) []*domain.SourceDestinationAssignment {
	var out []*domain.SourceDestinationAssignment
	for _, a := range assignments {
		if a.ProgramID == programID && a.FacilityTypeID == facilityTypeID {
			out = append(out, a)
		}
	}
	return out
}

type memInventories memStores

func (m *memInventories) FindDraft(ctx context.Context, programID, facilityID uuid.UUID) (*domain.PhysicalInventory, error) {
	for _, inv := range m.inventories {
		if inv.IsDraft && inv.ProgramID == programID && inv.FacilityID == facilityID {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *memInventories) Save(ctx context.Context, inventory *domain.PhysicalInventory) error {
	if inventory.ID == uuid.Nil {
		inventory.ID = uuid.New()
	}
	m.inventories[inventory.ID] = inventory
	return nil
}

func (m *memInventories) DeleteDraft(ctx context.Context, programID, facilityID uuid.UUID) error {
	for id, inv := range m.inventories {
		if inv.IsDraft && inv.ProgramID == programID && inv.FacilityID == facilityID {
			delete(m.inventories, id)
		}
	}
	return nil
}

// memProvider hands out one shared memStores bundle. InTransaction snapshots
// the maps and slices up front and restores them when fn fails, mimicking a
// rollback.
type memProvider struct {
	stores *memStores
}

func newMemProvider(stores *memStores) *memProvider { return &memProvider{stores: stores} }

func (p *memProvider) Stores() service.Stores { return p.stores }

func (p *memProvider) InTransaction(ctx context.Context, fn func(service.Stores) error) error {
	snapshot := p.snapshot()
	if err := fn(p.stores); err != nil {
		p.restore(snapshot)
		return err
	}
	return nil
}

type storesSnapshot struct {
	events      map[uuid.UUID]*domain.StockEvent
	cards       map[uuid.UUID]*domain.StockCard
	lineItems   []*domain.StockCardLineItem
	balances    map[uuid.UUID]map[time.Time]*domain.CalculatedStockOnHand
	inventories map[uuid.UUID]*domain.PhysicalInventory
	position    int64
}

func (p *memProvider) snapshot() storesSnapshot {
	s := storesSnapshot{
		events:      make(map[uuid.UUID]*domain.StockEvent, len(p.stores.events)),
		cards:       make(map[uuid.UUID]*domain.StockCard, len(p.stores.cards)),
		lineItems:   append([]*domain.StockCardLineItem(nil), p.stores.lineItems...),
		balances:    make(map[uuid.UUID]map[time.Time]*domain.CalculatedStockOnHand, len(p.stores.balances)),
		inventories: make(map[uuid.UUID]*domain.PhysicalInventory, len(p.stores.inventories)),
		position:    p.stores.nextPosition,
	}
	for k, v := range p.stores.events {
		s.events[k] = v
	}
	for k, v := range p.stores.cards {
		s.cards[k] = v
	}
	for card, rows := range p.stores.balances {
		copied := make(map[time.Time]*domain.CalculatedStockOnHand, len(rows))
		for d, row := range rows {
			copied[d] = row
		}
		s.balances[card] = copied
	}
	for k, v := range p.stores.inventories {
		s.inventories[k] = v
	}
	return s
}

func (p *memProvider) restore(s storesSnapshot) {
	p.stores.events = s.events
	p.stores.cards = s.cards
	p.stores.lineItems = s.lineItems
	p.stores.balances = s.balances
	p.stores.inventories = s.inventories
	p.stores.nextPosition = s.position
}

// fakeRefdata serves reference data from fixed maps.
type fakeRefdata struct {
	facilities map[uuid.UUID]*refdata.Facility
	programs   map[uuid.UUID]*refdata.Program
	orderables []*refdata.Orderable
	lots       map[uuid.UUID]*refdata.Lot
}

func newFakeRefdata() *fakeRefdata {
	return &fakeRefdata{
		facilities: make(map[uuid.UUID]*refdata.Facility),
		programs:   make(map[uuid.UUID]*refdata.Program),
		lots:       make(map[uuid.UUID]*refdata.Lot),
	}
}

func (f *fakeRefdata) Facility(ctx context.Context, id uuid.UUID) (*refdata.Facility, error) {
	return f.facilities[id], nil
}

func (f *fakeRefdata) Program(ctx context.Context, id uuid.UUID) (*refdata.Program, error) {
	return f.programs[id], nil
}

func (f *fakeRefdata) ApprovedOrderables(ctx context.Context, facilityID, programID uuid.UUID) ([]*refdata.Orderable, error) {
	return f.orderables, nil
}

func (f *fakeRefdata) LotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*refdata.Lot, error) {
	var out []*refdata.Lot
	for _, id := range ids {
		if lot, ok := f.lots[id]; ok {
			out = append(out, lot)
		}
	}
	return out, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
