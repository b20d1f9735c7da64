package validation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackKitValidator(t *testing.T) {
	ctx := context.Background()
	v := validation.NewUnpackKitValidator()

	unpackReasonID := uuid.New()
	kitID := uuid.New()
	childAID := uuid.New()
	childBID := uuid.New()

	kit := &refdata.Orderable{
		ID:          kitID,
		ProductCode: "KIT01",
		FullName:    "Emergency Kit",
		Children: []refdata.OrderableChild{
			{OrderableID: childAID, Quantity: 3},
			{OrderableID: childBID, Quantity: 1},
		},
	}

	// Two kits unpacked: requires 6 of child A and 2 of child B credited in
	// the same event.
	buildEvent := func(creditA, creditB int) (*domain.StockEvent, *domain.EventContext) {
		event := &domain.StockEvent{
			ID:         uuid.New(),
			FacilityID: uuid.New(),
			ProgramID:  uuid.New(),
			LineItems: []*domain.StockEventLineItem{
				{OrderableID: kitID, Quantity: 2, OccurredDate: testDate(0), ReasonID: &unpackReasonID},
				{OrderableID: childAID, Quantity: creditA, OccurredDate: testDate(0)},
				{OrderableID: childBID, Quantity: creditB, OccurredDate: testDate(0)},
			},
		}
		ectx := newContext(event)
		ectx.UnpackReasonID = unpackReasonID
		ectx.Orderables[kitID] = kit
		addOrderable(ectx, childAID)
		addOrderable(ectx, childBID)
		return event, ectx
	}

	t.Run("accepts a balanced unpack", func(t *testing.T) {
		event, ectx := buildEvent(6, 2)
		require.NoError(t, v.Validate(ctx, event, ectx))
	})

	t.Run("skips events without the unpack reason", func(t *testing.T) {
		event, ectx := buildEvent(6, 2)
		otherID := uuid.New()
		event.LineItems[0].ReasonID = &otherID
		require.NoError(t, v.Validate(ctx, event, ectx))
	})

	t.Run("rejects unpacking a regular orderable", func(t *testing.T) {
		event, ectx := buildEvent(6, 2)
		plainID := uuid.New()
		addOrderable(ectx, plainID)
		event.LineItems[0].OrderableID = plainID

		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyCannotUnpackRegularOrderable, messageKey(err))
	})

	t.Run("rejects a short constituent credit", func(t *testing.T) {
		event, ectx := buildEvent(5, 2)
		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyCannotUnpackConstituent, messageKey(err))
	})

	t.Run("rejects a missing constituent credit", func(t *testing.T) {
		event, ectx := buildEvent(6, 2)
		event.LineItems = event.LineItems[:2]
		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyCannotUnpackConstituent, messageKey(err))
	})

	t.Run("rejects credit left over after draining", func(t *testing.T) {
		event, ectx := buildEvent(6, 5)
		err := v.Validate(ctx, event, ectx)
		require.Error(t, err)
		assert.Equal(t, validation.KeyCannotUnpackExtraConstituents, messageKey(err))
	})
}
