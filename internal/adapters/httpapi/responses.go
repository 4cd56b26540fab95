package httpapi

import (
	"time"

	"floorline/internal/domain"
)

type sessionResponse struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	StationID string `json:"station_id"`
	JobID     string `json:"job_id,omitempty"`
	JobItemID string `json:"job_item_id,omitempty"`
	Status    string `json:"status"`

	ActiveInstanceID string `json:"active_instance_id,omitempty"`

	StartedAt      time.Time  `json:"started_at"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	ForcedClosedAt *time.Time `json:"forced_closed_at,omitempty"`

	CurrentStatusID string `json:"current_status_id,omitempty"`
	TotalGood       int    `json:"total_good"`
	TotalScrap      int    `json:"total_scrap"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:               s.ID,
		WorkerID:         s.WorkerID,
		StationID:        s.StationID,
		JobID:            s.JobID,
		JobItemID:        s.JobItemID,
		Status:           string(s.Status),
		ActiveInstanceID: s.ActiveInstanceID,
		StartedAt:        s.StartedAt,
		LastSeenAt:       s.LastSeenAt,
		EndedAt:          s.EndedAt,
		ForcedClosedAt:   s.ForcedClosedAt,
		CurrentStatusID:  s.CurrentStatusID,
		TotalGood:        s.TotalGood,
		TotalScrap:       s.TotalScrap,
	}
}

type statusEventResponse struct {
	ID                 string     `json:"id"`
	SessionID          string     `json:"session_id"`
	StatusDefinitionID string     `json:"status_definition_id"`
	StationReasonID    string     `json:"station_reason_id,omitempty"`
	Note               string     `json:"note,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	QuantityGood       int        `json:"quantity_good"`
	QuantityScrap      int        `json:"quantity_scrap"`
	JobItemID          string     `json:"job_item_id,omitempty"`
	JobItemStepID      string     `json:"job_item_step_id,omitempty"`
}

func toStatusEventResponse(e *domain.StatusEvent) statusEventResponse {
	return statusEventResponse{
		ID:                 e.ID,
		SessionID:          e.SessionID,
		StatusDefinitionID: e.StatusDefinitionID,
		StationReasonID:    e.StationReasonID,
		Note:               e.Note,
		ImageURL:           e.ImageURL,
		StartedAt:          e.StartedAt,
		EndedAt:            e.EndedAt,
		QuantityGood:       e.QuantityGood,
		QuantityScrap:      e.QuantityScrap,
		JobItemID:          e.JobItemID,
		JobItemStepID:      e.JobItemStepID,
	}
}

type occupancyResponse struct {
	Occupied   bool   `json:"occupied"`
	SessionID  string `json:"session_id,omitempty"`
	WorkerID   string `json:"worker_id,omitempty"`
	WorkerCode string `json:"worker_code,omitempty"`
}

type wipBalanceResponse struct {
	JobItemID     string `json:"job_item_id"`
	StationID     string `json:"station_id"`
	GoodAvailable int    `json:"good_available"`
	IsTerminal    bool   `json:"is_terminal"`
}

type configResponse struct {
	HeartbeatIntervalSeconds int    `json:"heartbeat_interval_seconds"`
	IdleThresholdSeconds     int    `json:"idle_threshold_seconds"`
	BroadcastChannelName     string `json:"broadcast_channel_name"`
}
