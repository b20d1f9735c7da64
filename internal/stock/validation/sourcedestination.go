package validation

import (
	"context"

	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/errors"
)

// SourceDestinationValidator checks that a line item never carries both a
// source and a destination, and that every referenced node is in the valid
// assignment list for the event's program and facility type.
type SourceDestinationValidator struct{}

func NewSourceDestinationValidator() *SourceDestinationValidator {
	return &SourceDestinationValidator{}
}

func (v *SourceDestinationValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	for _, li := range event.LineItems {
		if li.HasSource() && li.HasDestination() {
			return errors.ValidationWithKey(KeySourceDestinationBothPresent, nil)
		}
		if li.HasSource() && ectx.FindSourceAssignment(*li.SourceID) == nil {
			return errors.ValidationWithKey(KeySourceNotInValidList,
				map[string]string{"sourceId": li.SourceID.String()})
		}
		if li.HasDestination() && ectx.FindDestinationAssignment(*li.DestinationID) == nil {
			return errors.ValidationWithKey(KeyDestinationNotInValidList,
				map[string]string{"destinationId": li.DestinationID.String()})
		}
	}
	return nil
}

// GeoAffinityValidator enforces geo-level affinity on source and destination
// assignments: when the matching assignment carries an affinity, a node backed
// by a reference-data facility must share the event facility's geographic
// zone. Physical inventory events never carry nodes and are skipped.
type GeoAffinityValidator struct{}

func NewGeoAffinityValidator() *GeoAffinityValidator {
	return &GeoAffinityValidator{}
}

func (v *GeoAffinityValidator) Validate(ctx context.Context, event *domain.StockEvent, ectx *domain.EventContext) error {
	if event.IsPhysicalInventory() {
		return nil
	}
	for _, li := range event.LineItems {
		if li.HasSource() {
			if err := v.checkAffinity(ectx, ectx.FindSourceAssignment(*li.SourceID), KeySourceNoGeoAffinity, "sourceId", li.SourceID.String()); err != nil {
				return err
			}
		}
		if li.HasDestination() {
			if err := v.checkAffinity(ectx, ectx.FindDestinationAssignment(*li.DestinationID), KeyDestinationNoGeoAffinity, "destinationId", li.DestinationID.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *GeoAffinityValidator) checkAffinity(ectx *domain.EventContext, assignment *domain.SourceDestinationAssignment, key, param, nodeID string) error {
	if assignment == nil || assignment.GeoLevelAffinityID == nil {
		return nil
	}
	node := ectx.FindNode(assignment.NodeID)
	if node == nil || !node.IsRefDataFacility {
		return nil
	}
	nodeFacility := ectx.FindNodeFacility(node.ReferenceID)
	if nodeFacility == nil || nodeFacility.GeographicZoneID != ectx.Facility.GeographicZoneID {
		return errors.ValidationWithKey(key, map[string]string{
			param:          nodeID,
			"facilityName": ectx.Facility.Name,
		})
	}
	return nil
}
