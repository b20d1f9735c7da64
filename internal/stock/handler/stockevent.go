// Package handler exposes the stock service HTTP API.
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

// StockEventHandler handles stock event submission
type StockEventHandler struct {
	processor *service.Processor
	logger    *logger.Logger
}

// NewStockEventHandler creates a new stock event handler
func NewStockEventHandler(processor *service.Processor, log *logger.Logger) *StockEventHandler {
	return &StockEventHandler{
		processor: processor,
		logger:    log,
	}
}

type stockAdjustmentRequest struct {
	ReasonID string `json:"reason_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type stockEventLineItemRequest struct {
	OrderableID       string  `json:"orderable_id" validate:"required,uuid"`
	LotID             *string `json:"lot_id" validate:"omitempty,uuid"`
	UnitOfOrderableID *string `json:"unit_of_orderable_id" validate:"omitempty,uuid"`
	Quantity          int     `json:"quantity"`
	OccurredDate      string  `json:"occurred_date" validate:"required"`

	ReasonID       *string `json:"reason_id" validate:"omitempty,uuid"`
	ReasonFreeText *string `json:"reason_free_text"`

	SourceID            *string `json:"source_id" validate:"omitempty,uuid"`
	SourceFreeText      *string `json:"source_free_text"`
	DestinationID       *string `json:"destination_id" validate:"omitempty,uuid"`
	DestinationFreeText *string `json:"destination_free_text"`

	StockAdjustments []stockAdjustmentRequest `json:"stock_adjustments" validate:"omitempty,dive"`
	ExtraData        map[string]string        `json:"extra_data"`
}

type stockEventRequest struct {
	FacilityID     string                      `json:"facility_id" validate:"required,uuid"`
	ProgramID      string                      `json:"program_id" validate:"required,uuid"`
	Signature      *string                     `json:"signature"`
	DocumentNumber *string                     `json:"document_number"`
	LineItems      []stockEventLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

// Create accepts one stock event submission
func (h *StockEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req stockEventRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	event, err := req.toDomain()
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if userID, parseErr := uuid.Parse(httputil.GetUserID(r.Context())); parseErr == nil {
		event.UserID = userID
	}

	id, err := h.processor.ProcessEvent(r.Context(), event)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, map[string]string{"id": id.String()})
}

func (req *stockEventRequest) toDomain() (*domain.StockEvent, error) {
	event := &domain.StockEvent{
		FacilityID:     uuid.MustParse(req.FacilityID),
		ProgramID:      uuid.MustParse(req.ProgramID),
		Signature:      req.Signature,
		DocumentNumber: req.DocumentNumber,
	}

	for _, li := range req.LineItems {
		occurred, err := time.Parse("2006-01-02", li.OccurredDate)
		if err != nil {
			return nil, errors.BadRequest("occurred_date must use the YYYY-MM-DD format")
		}
		item := &domain.StockEventLineItem{
			OrderableID:         uuid.MustParse(li.OrderableID),
			LotID:               parseOptionalUUID(li.LotID),
			UnitOfOrderableID:   parseOptionalUUID(li.UnitOfOrderableID),
			Quantity:            li.Quantity,
			OccurredDate:        occurred,
			ReasonID:            parseOptionalUUID(li.ReasonID),
			ReasonFreeText:      li.ReasonFreeText,
			SourceID:            parseOptionalUUID(li.SourceID),
			SourceFreeText:      li.SourceFreeText,
			DestinationID:       parseOptionalUUID(li.DestinationID),
			DestinationFreeText: li.DestinationFreeText,
			ExtraData:           domain.ExtraData(li.ExtraData),
		}
		for _, adj := range li.StockAdjustments {
			item.StockAdjustments = append(item.StockAdjustments, domain.StockAdjustment{
				ReasonID: uuid.MustParse(adj.ReasonID),
				Quantity: adj.Quantity,
			})
		}
		event.LineItems = append(event.LineItems, item)
	}
	return event, nil
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}
