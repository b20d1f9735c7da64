package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/pkg/errors"
	"github.com/stockflow/stockflow-backend/pkg/httputil"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// StockCardHandler handles stock card endpoints
type StockCardHandler struct {
	cards     *service.StockCardService
	summaries *service.SummaryService
	logger    *logger.Logger
}

// NewStockCardHandler creates a new stock card handler
func NewStockCardHandler(cards *service.StockCardService, summaries *service.SummaryService, log *logger.Logger) *StockCardHandler {
	return &StockCardHandler{
		cards:     cards,
		summaries: summaries,
		logger:    log,
	}
}

// Get returns one stock card with its ledger
func (h *StockCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid stock card id"))
		return
	}

	card, err := h.cards.FindStockCardByID(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, card)
}

// Search returns a page of stock card summaries by id
func (h *StockCardHandler) Search(w http.ResponseWriter, r *http.Request) {
	ids, err := parseUUIDList(r.URL.Query().Get("id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid stock card id list"))
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}

	cards, total, err := h.cards.Search(r.Context(), ids, perPage, (page-1)*perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, cards, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int64(total),
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Summaries returns every card of a program/facility with stock on hand
func (h *StockCardHandler) Summaries(w http.ResponseWriter, r *http.Request) {
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

	var asOf *time.Time
	if raw := r.URL.Query().Get("as_of_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.BadRequest("as_of_date must use the YYYY-MM-DD format"))
			return
		}
		asOf = &parsed
	}

	cards, err := h.summaries.FindStockCardsWithStockOnHand(r.Context(), programID, facilityID, asOf)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cards)
}

// Deactivate takes a stock card out of use
func (h *StockCardHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid stock card id"))
		return
	}

	if err := h.cards.Deactivate(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

func parseUUIDList(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
