package handler

import (
	"encoding/json"
	"net/http"

	"maitred/internal/reservations/service"
	apperrors "maitred/pkg/errors"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reservation model.Reservation
	if err := json.NewDecoder(r.Body).Decode(&reservation); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &reservation); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, reservation)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	filter := model.ReservationFilter{
		TenantID:      query.Get("tenant_id"),
		Date:          query.Get("date"),
		Status:        query.Get("status"),
		CustomerPhone: query.Get("customer_phone"),
		TableID:       query.Get("table_id"),
	}
	if filter.TenantID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("'tenant_id' query parameter is required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservations, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reservations, total, limit, offset)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}
	if req.Status == "" {
		httputil.WriteError(w, apperrors.InvalidInput("'status' field is required"))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), req.Status); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Cancel(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id/status", h.UpdateStatus)
	router.DELETE("/api/v1/reservations/id/:id", h.Cancel)
}
