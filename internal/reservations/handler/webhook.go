package handler

import (
	"encoding/json"
	"net/http"

	availability "maitred/internal/availability/service"
	"maitred/internal/reservations/service"
	apperrors "maitred/pkg/errors"
	httputil "maitred/pkg/http"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// VoiceWebhookHandler serves the voice agent's booking callback. Unlike the
// REST surface it never asks the caller to pick a table: availability
// resolution and table assignment happen inside the one call, because the
// agent is mid-conversation with a human.
type VoiceWebhookHandler struct {
	reservations service.ReservationService
	availability availability.AvailabilityService
	log          *logger.Logger
}

func NewVoiceWebhookHandler(
	reservations service.ReservationService,
	avail availability.AvailabilityService,
	log *logger.Logger,
) *VoiceWebhookHandler {
	return &VoiceWebhookHandler{
		reservations: reservations,
		availability: avail,
		log:          log,
	}
}

type voiceRequest struct {
	Action        string `json:"action"`
	TenantID      string `json:"tenant_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PartySize     int    `json:"party_size"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Zone          string `json:"zone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type voiceResponse struct {
	Success          bool                `json:"success"`
	ReservationID    string              `json:"reservation_id,omitempty"`
	TableID          string              `json:"table_id,omitempty"`
	TableLabel       string              `json:"table_label,omitempty"`
	ConfirmationCode string              `json:"confirmation_code,omitempty"`
	Error            string              `json:"error,omitempty"`
	Alternatives     []availability.Slot `json:"alternatives,omitempty"`
}

func (h *VoiceWebhookHandler) Handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, voiceResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	switch req.Action {
	case "", "book":
		h.book(w, r, req)
	case "cancel":
		h.cancel(w, r, req)
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, voiceResponse{
			Success: false,
			Error:   "Unknown action: " + req.Action,
		})
	}
}

func (h *VoiceWebhookHandler) book(w http.ResponseWriter, r *http.Request, req voiceRequest) {
	result, err := h.availability.Check(r.Context(), availability.Query{
		TenantID:  req.TenantID,
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
		Zone:      req.Zone,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	if !result.Available {
		httputil.WriteJSON(w, http.StatusConflict, voiceResponse{
			Success:      false,
			Error:        "No table available at the requested time",
			Alternatives: result.Alternatives,
		})
		return
	}

	reservation := &model.Reservation{
		TenantID:      req.TenantID,
		Date:          req.Date,
		Time:          req.Time,
		PartySize:     req.PartySize,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Zone:          req.Zone,
		TableID:       result.Table.ID,
		Notes:         req.Notes,
	}

	if err := h.reservations.Create(r.Context(), reservation); err != nil {
		h.writeFailure(w, err)
		return
	}

	h.log.Info("Voice booking completed",
		"reservation_id", reservation.ID,
		"tenant_id", reservation.TenantID,
		"table_id", reservation.TableID,
	)

	httputil.WriteJSON(w, http.StatusCreated, voiceResponse{
		Success:          true,
		ReservationID:    reservation.ID,
		TableID:          reservation.TableID,
		TableLabel:       result.Table.Label,
		ConfirmationCode: reservation.ConfirmationCode,
	})
}

func (h *VoiceWebhookHandler) cancel(w http.ResponseWriter, r *http.Request, req voiceRequest) {
	if req.ReservationID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, voiceResponse{
			Success: false,
			Error:   "'reservation_id' is required for cancel",
		})
		return
	}

	if err := h.reservations.Cancel(r.Context(), req.ReservationID); err != nil {
		h.writeFailure(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, voiceResponse{
		Success:       true,
		ReservationID: req.ReservationID,
	})
}

func (h *VoiceWebhookHandler) writeFailure(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	httputil.WriteJSON(w, appErr.StatusCode(), voiceResponse{
		Success: false,
		Error:   appErr.Message,
	})
}

func (h *VoiceWebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/webhooks/voice", h.Handle)
}
