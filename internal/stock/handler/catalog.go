package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/httputil"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// CatalogHandler handles the local catalog endpoints: reasons, organizations
// and valid source/destination assignments.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  log,
	}
}

type reasonRequest struct {
	Name              string   `json:"name" validate:"required"`
	Description       *string  `json:"description"`
	ReasonType        string   `json:"reason_type" validate:"required,oneof=CREDIT DEBIT"`
	ReasonCategory    string   `json:"reason_category" validate:"required,oneof=TRANSFER ADJUSTMENT PHYSICAL_INVENTORY"`
	IsFreeTextAllowed bool     `json:"is_free_text_allowed"`
	Tags              []string `json:"tags"`
}

// ListReasons returns the reason catalog
func (h *CatalogHandler) ListReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.catalog.FindReasons(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, reasons)
}

// GetReason returns one reason
func (h *CatalogHandler) GetReason(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid reason id"))
		return
	}

	reason, err := h.catalog.FindReason(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, reason)
}

// CreateReason adds a reason catalog entry
func (h *CatalogHandler) CreateReason(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	reason := &domain.Reason{
		Name:              req.Name,
		Description:       req.Description,
		ReasonType:        domain.ReasonType(req.ReasonType),
		ReasonCategory:    domain.ReasonCategory(req.ReasonCategory),
		IsFreeTextAllowed: req.IsFreeTextAllowed,
		Tags:              pq.StringArray(req.Tags),
	}
	if err := h.catalog.CreateReason(r.Context(), reason); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, reason)
}

type reasonAssignmentRequest struct {
	ProgramID      string `json:"program_id" validate:"required,uuid"`
	FacilityTypeID string `json:"facility_type_id" validate:"required,uuid"`
	ReasonID       string `json:"reason_id" validate:"required,uuid"`
	Hidden         bool   `json:"hidden"`
}

// ListValidReasons returns the reasons valid for a program/facility type
func (h *CatalogHandler) ListValidReasons(w http.ResponseWriter, r *http.Request) {
	programID, facilityTypeID, err := programFacilityType(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	assignments, err := h.catalog.FindValidReasons(r.Context(), programID, facilityTypeID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, assignments)
}

// AssignReason binds a reason to a program/facility type
func (h *CatalogHandler) AssignReason(w http.ResponseWriter, r *http.Request) {
	var req reasonAssignmentRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	assignment := &domain.ReasonAssignment{
		ProgramID:      uuid.MustParse(req.ProgramID),
		FacilityTypeID: uuid.MustParse(req.FacilityTypeID),
		ReasonID:       uuid.MustParse(req.ReasonID),
		Hidden:         req.Hidden,
	}
	if err := h.catalog.AssignReason(r.Context(), assignment); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, assignment)
}

// UnassignReason removes a reason assignment
func (h *CatalogHandler) UnassignReason(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid assignment id"))
		return
	}

	if err := h.catalog.UnassignReason(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

type organizationRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListOrganizations returns all organizations
func (h *CatalogHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.catalog.FindOrganizations(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, orgs)
}

// CreateOrganization adds a locally managed trading partner
func (h *CatalogHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	org := &domain.Organization{Name: req.Name}
	if err := h.catalog.CreateOrganization(r.Context(), org); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, org)
}

type nodeAssignmentRequest struct {
	ProgramID          string  `json:"program_id" validate:"required,uuid"`
	FacilityTypeID     string  `json:"facility_type_id" validate:"required,uuid"`
	ReferenceID        string  `json:"reference_id" validate:"required,uuid"`
	IsRefDataFacility  bool    `json:"is_ref_data_facility"`
	GeoLevelAffinityID *string `json:"geo_level_affinity_id" validate:"omitempty,uuid"`
}

// ListValidSources returns the valid sources for a program/facility type
func (h *CatalogHandler) ListValidSources(w http.ResponseWriter, r *http.Request) {
	programID, facilityTypeID, err := programFacilityType(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	assignments, err := h.catalog.FindValidSources(r.Context(), programID, facilityTypeID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, assignments)
}

// ListValidDestinations returns the valid destinations for a program/facility type
func (h *CatalogHandler) ListValidDestinations(w http.ResponseWriter, r *http.Request) {
	programID, facilityTypeID, err := programFacilityType(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	assignments, err := h.catalog.FindValidDestinations(r.Context(), programID, facilityTypeID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, assignments)
}

// AssignSource marks a node as a valid source
func (h *CatalogHandler) AssignSource(w http.ResponseWriter, r *http.Request) {
	h.assignNode(w, r, h.catalog.AssignSource)
}

// AssignDestination marks a node as a valid destination
func (h *CatalogHandler) AssignDestination(w http.ResponseWriter, r *http.Request) {
	h.assignNode(w, r, h.catalog.AssignDestination)
}

func (h *CatalogHandler) assignNode(w http.ResponseWriter, r *http.Request, assign func(ctx context.Context, assignment *domain.SourceDestinationAssignment, referenceID uuid.UUID, isRefDataFacility bool) error) {
	var req nodeAssignmentRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	assignment := &domain.SourceDestinationAssignment{
		ProgramID:          uuid.MustParse(req.ProgramID),
		FacilityTypeID:     uuid.MustParse(req.FacilityTypeID),
		GeoLevelAffinityID: parseOptionalUUID(req.GeoLevelAffinityID),
	}
	if err := assign(r.Context(), assignment, uuid.MustParse(req.ReferenceID), req.IsRefDataFacility); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, assignment)
}

func programFacilityType(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	programID, err := uuid.Parse(r.URL.Query().Get("program_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.BadRequest("program_id is required")
	}
	facilityTypeID, err := uuid.Parse(r.URL.Query().Get("facility_type_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.BadRequest("facility_type_id is required")
	}
	return programID, facilityTypeID, nil
}
