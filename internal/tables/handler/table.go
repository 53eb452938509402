package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"maitred/internal/tables/service"
	apperrors "maitred/pkg/errors"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TableHandler struct {
	service service.TableService
	log     *logger.Logger
}

func NewTableHandler(service service.TableService, log *logger.Logger) *TableHandler {
	return &TableHandler{
		service: service,
		log:     log,
	}
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var table model.Table
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &table); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, table)
}

func (h *TableHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	table, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, table)
}

func (h *TableHandler) GetByTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	tenantID := query.Get("tenant_id")
	if tenantID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("'tenant_id' query parameter is required"))
		return
	}

	if state := query.Get("state"); state != "" {
		tables, err := h.service.GetByState(r.Context(), tenantID, model.TableState(state))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteSuccess(w, tables)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tables, total, err := h.service.GetByTenant(r.Context(), tenantID, query.Get("zone"), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, tables, total, limit, offset)
}

func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.TableUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

type transitionRequest struct {
	ReservationID string `json:"reservation_id,omitempty"`
	UpdatedBy     string `json:"updated_by,omitempty"`
}

func (h *TableHandler) Seat(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.applyTransition(w, r, ps, h.service.Seat)
}

func (h *TableHandler) Reserve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.applyTransition(w, r, ps, h.service.Reserve)
}

func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req transitionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}
	}

	table, err := h.service.Release(r.Context(), ps.ByName("id"), req.UpdatedBy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, table)
}

func (h *TableHandler) applyTransition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	apply func(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error),
) {
	var req transitionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}
	}

	table, err := apply(r.Context(), ps.ByName("id"), req.ReservationID, req.UpdatedBy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, table)
}

func (h *TableHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tables", h.Create)
	router.GET("/api/v1/tables", h.GetByTenant)
	router.GET("/api/v1/tables/id/:id", h.GetByID)
	router.PATCH("/api/v1/tables/id/:id", h.Update)
	router.DELETE("/api/v1/tables/id/:id", h.Delete)
	router.POST("/api/v1/tables/id/:id/seat", h.Seat)
	router.POST("/api/v1/tables/id/:id/reserve", h.Reserve)
	router.POST("/api/v1/tables/id/:id/release", h.Release)
}
