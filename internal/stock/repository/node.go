package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/pkg/database"
)

// NodeRepository persists source/destination nodes, organizations and the
// valid assignment lists.
type NodeRepository struct {
	q queryer
}

// NewNodeRepository creates a node repository.
func NewNodeRepository(q queryer) *NodeRepository {
	return &NodeRepository{q: q}
}

// FindNodesByIDs returns the nodes with the given ids.
func (r *NodeRepository) FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM nodes WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var nodes []*domain.Node
	if err := r.q.SelectContext(ctx, &nodes, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return nodes, nil
}

// FindOrCreateNode returns the node for a reference id, creating it on first
// use. Facilities and organizations share the node table; the flag records
// which world the reference id lives in.
func (r *NodeRepository) FindOrCreateNode(ctx context.Context, referenceID uuid.UUID, isRefDataFacility bool) (*domain.Node, error) {
	var node domain.Node
	query := `SELECT * FROM nodes WHERE reference_id = $1`
	err := r.q.GetContext(ctx, &node, query, referenceID)
	if err == nil {
		return &node, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	node = domain.Node{
		ID:                uuid.New(),
		ReferenceID:       referenceID,
		IsRefDataFacility: isRefDataFacility,
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO nodes (id, reference_id, is_ref_data_facility) VALUES ($1, $2, $3)`,
		node.ID, node.ReferenceID, node.IsRefDataFacility)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// CreateOrganization inserts a locally managed trading partner.
func (r *NodeRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	query := `INSERT INTO organizations (id, name) VALUES ($1, $2) RETURNING created_at`
	return r.q.QueryRowxContext(ctx, query, org.ID, org.Name).Scan(&org.CreatedAt)
}

// FindOrganizations returns all organizations ordered by name.
func (r *NodeRepository) FindOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	if err := r.q.SelectContext(ctx, &orgs, `SELECT * FROM organizations ORDER BY name`); err != nil {
		return nil, err
	}
	return orgs, nil
}

// FindSourceAssignments returns the valid sources for a program and facility
// type with their nodes resolved.
func (r *NodeRepository) FindSourceAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return r.findAssignments(ctx, "valid_source_assignments", programID, facilityTypeID)
}

// FindDestinationAssignments returns the valid destinations for a program and
// facility type with their nodes resolved.
func (r *NodeRepository) FindDestinationAssignments(ctx context.Context, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	return r.findAssignments(ctx, "valid_destination_assignments", programID, facilityTypeID)
}

func (r *NodeRepository) findAssignments(ctx context.Context, table string, programID, facilityTypeID uuid.UUID) ([]*domain.SourceDestinationAssignment, error) {
	var assignments []*domain.SourceDestinationAssignment
	query := `SELECT * FROM ` + table + ` WHERE program_id = $1 AND facility_type_id = $2`
	if err := r.q.SelectContext(ctx, &assignments, query, programID, facilityTypeID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.NodeID)
	}
	nodes, err := r.FindNodesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}
	for _, a := range assignments {
		a.Node = byID[a.NodeID]
	}
	return assignments, nil
}

// CreateSourceAssignment marks a node as a valid source.
func (r *NodeRepository) CreateSourceAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error {
	return r.createAssignment(ctx, "valid_source_assignments", assignment)
}

// CreateDestinationAssignment marks a node as a valid destination.
func (r *NodeRepository) CreateDestinationAssignment(ctx context.Context, assignment *domain.SourceDestinationAssignment) error {
	return r.createAssignment(ctx, "valid_destination_assignments", assignment)
}

func (r *NodeRepository) createAssignment(ctx context.Context, table string, assignment *domain.SourceDestinationAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	query := `
		INSERT INTO ` + table + ` (
			id, program_id, facility_type_id, node_id, geo_level_affinity_id
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		assignment.ID, assignment.ProgramID, assignment.FacilityTypeID,
		assignment.NodeID, assignment.GeoLevelAffinityID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
