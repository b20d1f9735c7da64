package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/domain"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/httputil"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// PhysicalInventoryHandler handles physical inventory draft endpoints.
// Submitting an inventory goes through the stock event endpoint; drafts are
// the work-in-progress state while a facility counts.
type PhysicalInventoryHandler struct {
	inventories *service.PhysicalInventoryService
	logger      *logger.Logger
}

// NewPhysicalInventoryHandler creates a new physical inventory handler
func NewPhysicalInventoryHandler(inventories *service.PhysicalInventoryService, log *logger.Logger) *PhysicalInventoryHandler {
	return &PhysicalInventoryHandler{
		inventories: inventories,
		logger:      log,
	}
}

type draftLineItemRequest struct {
	OrderableID string            `json:"orderable_id" validate:"required,uuid"`
	LotID       *string           `json:"lot_id" validate:"omitempty,uuid"`
	Quantity    *int              `json:"quantity"`
	ExtraData   map[string]string `json:"extra_data"`
}

type draftRequest struct {
	ProgramID      string                 `json:"program_id" validate:"required,uuid"`
	FacilityID     string                 `json:"facility_id" validate:"required,uuid"`
	OccurredDate   *string                `json:"occurred_date"`
	DocumentNumber *string                `json:"document_number"`
	Signature      *string                `json:"signature"`
	LineItems      []draftLineItemRequest `json:"line_items" validate:"dive"`
}

// GetDraft returns the draft for a program/facility pair
func (h *PhysicalInventoryHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.URL.Query().Get("program_id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("program_id is required"))
		return
	}
	facilityID, err := uuid.Parse(r.URL.Query().Get("facility_id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("facility_id is required"))
		return
	}

	draft, err := h.inventories.FindDraft(r.Context(), programID, facilityID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, draft)
}

// SaveDraft creates or replaces the draft for a program/facility pair
func (h *PhysicalInventoryHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	inventory := &domain.PhysicalInventory{
		ProgramID:      uuid.MustParse(req.ProgramID),
		FacilityID:     uuid.MustParse(req.FacilityID),
		DocumentNumber: req.DocumentNumber,
		Signature:      req.Signature,
	}
	if req.OccurredDate != nil {
		occurred, err := time.Parse("2006-01-02", *req.OccurredDate)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.BadRequest("occurred_date must use the YYYY-MM-DD format"))
			return
		}
		inventory.OccurredDate = &occurred
	}
	for _, li := range req.LineItems {
		inventory.LineItems = append(inventory.LineItems, &domain.PhysicalInventoryLineItem{
			OrderableID: uuid.MustParse(li.OrderableID),
			LotID:       parseOptionalUUID(li.LotID),
			Quantity:    li.Quantity,
			ExtraData:   domain.ExtraData(li.ExtraData),
		})
	}

	if err := h.inventories.SaveDraft(r.Context(), inventory); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, inventory)
}

// DeleteDraft discards the draft for a program/facility pair
func (h *PhysicalInventoryHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.URL.Query().Get("program_id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("program_id is required"))
		return
	}
	facilityID, err := uuid.Parse(r.URL.Query().Get("facility_id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("facility_id is required"))
		return
	}

	if err := h.inventories.DeleteDraft(r.Context(), programID, facilityID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
