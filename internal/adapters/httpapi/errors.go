package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"floorline/internal/domain"
	"floorline/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Conflict payloads, present when the error carries context.
	OccupiedByWorker string `json:"occupied_by_worker,omitempty"`
	Available        *int   `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeDomainError maps the core's error taxonomy onto transport codes.
// Ownership conflicts are expected control flow, not faults: they are
// answered without error-level logging.
func writeDomainError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errValidation):
		status = http.StatusBadRequest
		resp.Code = "validation"
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrWorkerNotFound),
		errors.Is(err, domain.ErrStationNotFound),
		errors.Is(err, domain.ErrStatusEventNotFound),
		errors.Is(err, domain.ErrStatusDefinitionNotFound):
		status = http.StatusNotFound
		resp.Code = "not_found"
	case errors.Is(err, domain.ErrStationOccupied):
		status = http.StatusConflict
		resp.Code = "station_occupied"
		var occ *domain.StationOccupiedError
		if errors.As(err, &occ) {
			resp.OccupiedByWorker = occ.WorkerCode
		}
	case errors.Is(err, domain.ErrInstanceMismatch):
		status = http.StatusConflict
		resp.Code = "instance_mismatch"
	case errors.Is(err, domain.ErrSessionNotActive):
		status = http.StatusConflict
		resp.Code = "session_not_active"
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
		resp.Code = "unauthorized"
	case errors.Is(err, domain.ErrStatusEventAlreadyEnded):
		status = http.StatusConflict
		resp.Code = "status_event_already_ended"
	case errors.Is(err, domain.ErrStatusEventSessionMismatch):
		status = http.StatusConflict
		resp.Code = "status_event_session_mismatch"
	case errors.Is(err, domain.ErrStatusEventNotProduction):
		status = http.StatusConflict
		resp.Code = "status_event_not_production"
	case errors.Is(err, domain.ErrWipDownstreamConsumed):
		status = http.StatusConflict
		resp.Code = "wip_downstream_consumed"
		var conflict *domain.WipConflictError
		if errors.As(err, &conflict) {
			resp.Available = &conflict.Available
		}
	case errors.Is(err, domain.ErrWipInsufficientUpstream):
		status = http.StatusConflict
		resp.Code = "wip_insufficient_upstream"
	case errors.Is(err, domain.ErrInvalidQuantity):
		status = http.StatusUnprocessableEntity
		resp.Code = "invalid_quantity"
	case errors.Is(err, domain.ErrWorkerInactive):
		status = http.StatusUnprocessableEntity
		resp.Code = "worker_inactive"
	case errors.Is(err, domain.ErrFirstProductNotApproved):
		status = http.StatusUnprocessableEntity
		resp.Code = "first_product_not_approved"
	case errors.Is(err, domain.ErrJobItemStepNotFound):
		status = http.StatusUnprocessableEntity
		resp.Code = "job_item_step_not_found"
	default:
		resp.Code = "internal"
		logging.Logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, resp)
}
