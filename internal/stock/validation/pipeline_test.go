package validation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stockflow/stockflow-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingValidator struct {
	calls *[]string
	name  string
	err   error
}

func (v *recordingValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	*v.calls = append(*v.calls, v.name)
	return v.err
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	boom := assert.AnError
	p := validation.NewPipeline(logger.New("test", "test"),
		&recordingValidator{calls: &calls, name: "first"},
		&recordingValidator{calls: &calls, name: "second", err: boom},
		&recordingValidator{calls: &calls, name: "third"},
	)

	err := p.Validate(context.Background(), &domain.StockEvent{}, domain.NewEventContext())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPipeline_RunsAllValidatorsOnSuccess(t *testing.T) {
	var calls []string
	p := validation.NewPipeline(logger.New("test", "test"),
		&recordingValidator{calls: &calls, name: "first"},
		&recordingValidator{calls: &calls, name: "second"},
	)

	require.NoError(t, p.Validate(context.Background(), &domain.StockEvent{}, domain.NewEventContext()))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDefaultPipeline_RejectsAnInvalidEventEndToEnd(t *testing.T) {
	p := validation.DefaultPipeline(logger.New("test", "test"),
		&fakeLedger{}, &fakeBalances{}, &fakeCards{})

	event := &domain.StockEvent{ID: uuid.New(), FacilityID: uuid.New(), ProgramID: uuid.New()}
	ectx := newContext(event)

	err := p.Validate(context.Background(), event, ectx)
	require.Error(t, err)
	assert.Equal(t, validation.KeyEventNoLineItems, messageKey(err))
}

func TestDefaultPipeline_AcceptsACompleteAdjustment(t *testing.T) {
	p := validation.DefaultPipeline(logger.New("test", "test"),
		&fakeLedger{}, &fakeBalances{}, &fakeCards{})

	reason := newReason(domain.ReasonTypeCredit, domain.ReasonCategoryAdjustment)
	event := &domain.StockEvent{
		ID:         uuid.New(),
		FacilityID: uuid.New(),
		ProgramID:  uuid.New(),
		LineItems: []*domain.StockEventLineItem{
			{OrderableID: uuid.New(), Quantity: 25, OccurredDate: testDate(0), ReasonID: &reason.ID},
		},
	}
	ectx := newContext(event)
	addOrderable(ectx, event.LineItems[0].OrderableID)
	addReason(ectx, reason)

	require.NoError(t, p.Validate(context.Background(), event, ectx))
}
