package api

import (
	"encoding/json"
	"net/http"

	"github.com/cliniks/academy-notify/internal/dispatch"
)

type DispatchHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewDispatchHandler(d *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: d}
}

type dispatchRequest struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EventType == "" {
		respondError(w, http.StatusBadRequest, "eventType is required")
		return
	}
	if len(req.Data) > 0 && !json.Valid(req.Data) {
		respondError(w, http.StatusBadRequest, "data must be valid JSON")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.EventType, req.Data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to dispatch event")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
