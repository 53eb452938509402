package handler

import (
	"net/http"

	"maitred/internal/sweeper"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// SweepHandler exposes the auto-release sweep as an on-demand endpoint.
// The periodic trigger lives in cmd/sweeper; this surface exists for
// operators and for external schedulers that prefer HTTP.
type SweepHandler struct {
	service sweeper.SweepService
	log     *logger.Logger
}

func NewSweepHandler(service sweeper.SweepService, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		service: service,
		log:     log,
	}
}

func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID := r.URL.Query().Get("tenant_id")

	report, err := h.service.Sweep(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.log.Info("Sweep triggered via API",
		"tenant_id", tenantID,
		"tenants_swept", report.TenantsSwept,
		"tables_released", report.TablesReleased,
		"failures", report.Failures,
	)

	httputil.WriteSuccess(w, report)
}

func (h *SweepHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sweeps", h.Trigger)
}
