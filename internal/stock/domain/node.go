package domain

import (
	"time"

	"github.com/google/uuid"
)

// Node is a source or destination of a stock movement. It points either at a
// reference-data facility or at a locally managed organization.
type Node struct {
	ID                uuid.UUID `db:"id" json:"id"`
	ReferenceID       uuid.UUID `db:"reference_id" json:"reference_id"`
	IsRefDataFacility bool      `db:"is_ref_data_facility" json:"is_ref_data_facility"`
}

// Organization is a non-facility trading partner (e.g. an NGO warehouse)
// managed locally rather than by the reference data service.
type Organization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SourceDestinationAssignment marks a node as a valid source or destination
// for a (program, facility type) pair. The geo-level affinity id, when set,
// restricts the assignment to facilities inside the named geographic level.
type SourceDestinationAssignment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ProgramID          uuid.UUID  `db:"program_id" json:"program_id"`
	FacilityTypeID     uuid.UUID  `db:"facility_type_id" json:"facility_type_id"`
	NodeID             uuid.UUID  `db:"node_id" json:"node_id"`
	GeoLevelAffinityID *uuid.UUID `db:"geo_level_affinity_id" json:"geo_level_affinity_id,omitempty"`

	Node *Node `db:"-" json:"node,omitempty"`
}
