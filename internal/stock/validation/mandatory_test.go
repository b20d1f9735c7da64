package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMandatoryFieldsValidator(t *testing.T) {
	ctx := context.Background()
	v := validation.NewMandatoryFieldsValidator()

	baseEvent := func() *domain.StockEvent {
		reasonID := uuid.New()
		return &domain.StockEvent{
			ID:         uuid.New(),
			FacilityID: uuid.New(),
			ProgramID:  uuid.New(),
			LineItems: []*domain.StockEventLineItem{
				{
					OrderableID:  uuid.New(),
					Quantity:     10,
					OccurredDate: domain.Today(),
					ReasonID:     &reasonID,
				},
			},
		}
	}

	t.Run("accepts a complete event", func(t *testing.T) {
		event := baseEvent()
		require.NoError(t, v.Validate(ctx, event, newContext(event)))
	})

	t.Run("rejects unresolvable facility", func(t *testing.T) {
		event := baseEvent()
		ectx := newContext(event)
		ectx.Facility = nil
		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventFacilityInvalid, messageKey(err))
	})

	t.Run("rejects unresolvable program", func(t *testing.T) {
		event := baseEvent()
		ectx := newContext(event)
		ectx.Program = nil
		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventProgramInvalid, messageKey(err))
	})

	t.Run("rejects event without line items", func(t *testing.T) {
		event := baseEvent()
		event.LineItems = nil
		err := v.Validate(ctx, event, newContext(event))
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventNoLineItems, messageKey(err))
	})

	t.Run("rejects nil orderable id", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].OrderableID = uuid.Nil
		err := v.Validate(ctx, event, newContext(event))
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventOrderableInvalid, messageKey(err))
	})

	t.Run("rejects missing occurred date", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].OccurredDate = time.Time{}
		err := v.Validate(ctx, event, newContext(event))
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventOccurredDateInvalid, messageKey(err))
	})

	t.Run("rejects future occurred date", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].OccurredDate = domain.Today().AddDate(0, 0, 2)
		err := v.Validate(ctx, event, newContext(event))
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventOccurredDateInFuture, messageKey(err))
	})

	t.Run("accepts today as occurred date", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].OccurredDate = domain.Today()
		require.NoError(t, v.Validate(ctx, event, newContext(event)))
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].Quantity = -3
		err := v.Validate(ctx, event, newContext(event))
		require.Error(t, err)
		assert.Equal(t, validation.KeyEventQuantityInvalid, messageKey(err))
	})

	t.Run("accepts zero quantity", func(t *testing.T) {
		event := baseEvent()
		event.LineItems[0].Quantity = 0
		require.NoError(t, v.Validate(ctx, event, newContext(event)))
	})
}
