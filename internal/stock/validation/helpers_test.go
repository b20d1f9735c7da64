package validation_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// fakeLedger implements validation.LedgerReader from in-memory data.
type fakeLedger struct {
	items  map[uuid.UUID][]*domain.StockCardLineItem
	counts map[domain.OrderableLotIdentity]int
	err    error
}

func (f *fakeLedger) FindByCardFromDate(ctx context.Context, cardID uuid.UUID, date time.Time) ([]*domain.StockCardLineItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.StockCardLineItem
	for _, li := range f.items[cardID] {
		if !domain.DateOnly(li.OccurredDate).Before(domain.DateOnly(date)) {
			out = append(out, li)
		}
	}
	return out, nil
}

func (f *fakeLedger) CountMatching(ctx context.Context, filter domain.DuplicateFilter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	identity := domain.OrderableLotIdentity{OrderableID: filter.OrderableID}
	if filter.LotID != nil {
		identity.LotID = *filter.LotID
	}
	return f.counts[identity], nil
}

// fakeBalances implements validation.BalanceReader.
type fakeBalances struct {
	rows map[uuid.UUID][]*domain.CalculatedStockOnHand
}

func (f *fakeBalances) FindLatestBefore(ctx context.Context, cardID uuid.UUID, date time.Time) (*domain.CalculatedStockOnHand, error) {
	var latest *domain.CalculatedStockOnHand
	for _, row := range f.rows[cardID] {
		if row.OccurredDate.Before(domain.DateOnly(date)) {
			if latest == nil || row.OccurredDate.After(latest.OccurredDate) {
				latest = row
			}
		}
	}
	return latest, nil
}

// fakeCards implements validation.CardFinder.
type fakeCards struct {
	cards  []*domain.StockCard
	active []*domain.StockCard
}

func (f *fakeCards) FindByIdentity(ctx context.Context, facilityID, programID uuid.UUID, identity domain.OrderableLotIdentity) (*domain.StockCard, error) {
	for _, card := range f.cards {
		if card.FacilityID == facilityID && card.ProgramID == programID && domain.IdentityOfCard(card) == identity {
			return card, nil
		}
	}
	return nil, nil
}

func (f *fakeCards) FindActiveByProgramAndFacility(ctx context.Context, programID, facilityID uuid.UUID) ([]*domain.StockCard, error) {
	return f.active, nil
}

func testDate(offset int) time.Time {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func newReason(reasonType domain.ReasonType, category domain.ReasonCategory) *domain.Reason {
	return &domain.Reason{
		ID:             uuid.New(),
		Name:           string(reasonType) + " " + string(category),
		ReasonType:     reasonType,
		ReasonCategory: category,
	}
}

// newContext builds an event context with a resolvable facility and program
// for the given event.
func newContext(event *domain.StockEvent) *domain.EventContext {
	ectx := domain.NewEventContext()
	ectx.Facility = &refdata.Facility{
		ID:               event.FacilityID,
		Code:             "HF01",
		Name:             "Test Facility",
		FacilityTypeID:   uuid.New(),
		GeographicZoneID: uuid.New(),
	}
	ectx.Program = &refdata.Program{ID: event.ProgramID, Code: "EM", Name: "Essential Medicines"}
	return ectx
}

func addOrderable(ectx *domain.EventContext, id uuid.UUID) *refdata.Orderable {
	orderable := &refdata.Orderable{ID: id, ProductCode: "P-" + id.String()[:8], FullName: "Product"}
	ectx.Orderables[id] = orderable
	return orderable
}

func addReason(ectx *domain.EventContext, reason *domain.Reason) *domain.Reason {
	ectx.Reasons[reason.ID] = reason
	return reason
}

func messageKey(err error) string {
	var app *errors.AppError
	if ok := errors.As(err, &app); ok {
		return app.MessageKey
	}
	return ""
}

func ptr[T any](v T) *T { return &v }
