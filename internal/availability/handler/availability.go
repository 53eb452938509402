package handler

import (
	"net/http"
	"strconv"

	"maitred/internal/availability/service"
	apperrors "maitred/pkg/errors"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	tenantID := query.Get("tenant_id")
	if tenantID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("'tenant_id' query parameter is required"))
		return
	}

	partySize := 0
	if s := query.Get("party_size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("invalid party_size parameter: "+s))
			return
		}
		partySize = v
	}

	result, err := h.service.Check(r.Context(), service.Query{
		TenantID:  tenantID,
		Date:      query.Get("date"),
		Time:      query.Get("time"),
		PartySize: partySize,
		Zone:      query.Get("zone"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Check)
}
