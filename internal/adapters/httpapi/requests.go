package httpapi

import (
	"errors"
	"fmt"
)

var errValidation = errors.New("invalid request")

// Typed request schemas. Every request is decoded and validated before
// any transaction begins; loose payloads never reach the services.

type createSessionRequest struct {
	WorkerID   string `json:"worker_id"`
	StationID  string `json:"station_id"`
	JobID      string `json:"job_id,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
}

func (r *createSessionRequest) Validate() error {
	if r.WorkerID == "" {
		return fmt.Errorf("%w: worker_id is required", errValidation)
	}
	if r.StationID == "" {
		return fmt.Errorf("%w: station_id is required", errValidation)
	}
	return nil
}

type heartbeatRequest struct {
	InstanceID string `json:"instance_id,omitempty"`
}

func (r *heartbeatRequest) Validate() error { return nil }

type takeoverRequest struct {
	WorkerID   string `json:"worker_id"`
	InstanceID string `json:"instance_id"`
}

func (r *takeoverRequest) Validate() error {
	if r.WorkerID == "" {
		return fmt.Errorf("%w: worker_id is required", errValidation)
	}
	if r.InstanceID == "" {
		return fmt.Errorf("%w: instance_id is required", errValidation)
	}
	return nil
}

type abandonRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r *abandonRequest) Validate() error {
	switch r.Reason {
	case "", "worker_choice", "expired":
		return nil
	}
	return fmt.Errorf("%w: reason must be worker_choice or expired", errValidation)
}

type startStatusRequest struct {
	StatusID        string `json:"status_id,omitempty"`
	StatusCode      string `json:"status_code,omitempty"`
	StationReasonID string `json:"station_reason_id,omitempty"`
	Note            string `json:"note,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

func (r *startStatusRequest) Validate() error {
	if r.StatusID == "" && r.StatusCode == "" {
		return fmt.Errorf("%w: status_id or status_code is required", errValidation)
	}
	return nil
}

type endProductionRequest struct {
	StatusEventID string `json:"status_event_id"`
	QuantityGood  int    `json:"quantity_good"`
	QuantityScrap int    `json:"quantity_scrap"`
	JobItemID     string `json:"job_item_id,omitempty"`
	JobItemStepID string `json:"job_item_step_id,omitempty"`

	NextStatusID   string `json:"next_status_id,omitempty"`
	NextStatusCode string `json:"next_status_code,omitempty"`
	NextReasonID   string `json:"next_reason_id,omitempty"`
	NextNote       string `json:"next_note,omitempty"`
}

func (r *endProductionRequest) Validate() error {
	if r.StatusEventID == "" {
		return fmt.Errorf("%w: status_event_id is required", errValidation)
	}
	if r.QuantityGood < 0 || r.QuantityScrap < 0 {
		return fmt.Errorf("%w: quantities must not be negative", errValidation)
	}
	if r.NextStatusID == "" && r.NextStatusCode == "" {
		return fmt.Errorf("%w: next_status_id or next_status_code is required", errValidation)
	}
	return nil
}

type updateQuantitiesRequest struct {
	GoodDelta  int `json:"good_delta"`
	ScrapDelta int `json:"scrap_delta"`
}

func (r *updateQuantitiesRequest) Validate() error { return nil }
