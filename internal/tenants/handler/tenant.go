package handler

import (
	"encoding/json"
	"net/http"

	"maitred/internal/tenants/service"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TenantHandler struct {
	service service.TenantService
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		log:     log,
	}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var tenant model.Tenant
	if err := json.NewDecoder(r.Body).Decode(&tenant); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &tenant); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, tenant)
}

func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenant, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenants, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, tenants, total, limit, offset)
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.TenantUpdate
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

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TenantHandler) GetByAdminPhone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	phone := r.URL.Query().Get("phone")

	tenants, err := h.service.GetByAdminPhone(r.Context(), phone)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, tenants)
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tenants", h.Create)
	router.GET("/api/v1/tenants", h.GetAll)
	router.GET("/api/v1/tenants/id/:id", h.GetByID)
	router.PATCH("/api/v1/tenants/id/:id", h.Update)
	router.DELETE("/api/v1/tenants/id/:id", h.Delete)
	router.GET("/api/v1/tenants/search", h.GetByAdminPhone)
}
