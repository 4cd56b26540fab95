package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"floorline/internal/config"
	"floorline/internal/domain"
	"floorline/internal/services"
	"floorline/internal/takeover"
)

// Server exposes the session and ledger operations over HTTP. It owns no
// state of its own; all decisions happen in the services it wraps.
type Server struct {
	ownership *services.OwnershipService
	status    *services.StatusService
	wip       *services.WipService
	hub       *takeover.Hub

	heartbeatInterval time.Duration
	idleThreshold     time.Duration
}

// NewServer creates a new Server
func NewServer(
	ownership *services.OwnershipService,
	status *services.StatusService,
	wip *services.WipService,
	hub *takeover.Hub,
	heartbeatInterval, idleThreshold time.Duration,
) *Server {
	return &Server{
		ownership:         ownership,
		status:            status,
		wip:               wip,
		hub:               hub,
		heartbeatInterval: heartbeatInterval,
		idleThreshold:     idleThreshold,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/config", s.handleConfig)

	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("POST /v1/sessions/{id}/takeover", s.handleTakeover)
	mux.HandleFunc("POST /v1/sessions/{id}/abandon", s.handleAbandon)
	mux.HandleFunc("GET /v1/sessions/{id}/events", s.handleSessionEvents)

	mux.HandleFunc("POST /v1/sessions/{id}/status-events", s.handleStartStatus)
	mux.HandleFunc("GET /v1/sessions/{id}/status-events", s.handleStatusHistory)
	mux.HandleFunc("POST /v1/sessions/{id}/production/end", s.handleEndProduction)
	mux.HandleFunc("POST /v1/sessions/{id}/quantities", s.handleUpdateQuantities)

	mux.HandleFunc("GET /v1/stations/{id}/occupancy", s.handleOccupancy)
	mux.HandleFunc("GET /v1/wip/{jobItemID}/{stationID}", s.handleWipBalance)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		HeartbeatIntervalSeconds: int(s.heartbeatInterval.Seconds()),
		IdleThresholdSeconds:     int(s.idleThreshold.Seconds()),
		BroadcastChannelName:     config.BroadcastChannelName,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.ownership.CreateSession(r.Context(), services.CreateSessionParams{
		WorkerID:   req.WorkerID,
		StationID:  req.StationID,
		JobID:      req.JobID,
		InstanceID: req.InstanceID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active")
	activeOnly := active == "true" || active == "1"
	sessions, err := s.ownership.ListSessions(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownership.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.ownership.Heartbeat(r.Context(), r.PathValue("id"), req.InstanceID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTakeover(w http.ResponseWriter, r *http.Request) {
	var req takeoverRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.ownership.Takeover(r.Context(), r.PathValue("id"), req.WorkerID, req.InstanceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	var req abandonRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.ownership.Abandon(r.Context(), r.PathValue("id"), domain.AbandonReason(req.Reason))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleStartStatus(w http.ResponseWriter, r *http.Request) {
	var req startStatusRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	event, err := s.status.Start(r.Context(), services.StartStatusParams{
		SessionID:       r.PathValue("id"),
		StatusID:        req.StatusID,
		StatusCode:      req.StatusCode,
		StationReasonID: req.StationReasonID,
		Note:            req.Note,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStatusEventResponse(event))
}

func (s *Server) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.status.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]statusEventResponse, 0, len(events))
	for i := range events {
		out = append(out, toStatusEventResponse(&events[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEndProduction(w http.ResponseWriter, r *http.Request) {
	var req endProductionRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	event, err := s.status.EndProduction(r.Context(), services.EndProductionParams{
		SessionID:      r.PathValue("id"),
		StatusEventID:  req.StatusEventID,
		QuantityGood:   req.QuantityGood,
		QuantityScrap:  req.QuantityScrap,
		JobItemID:      req.JobItemID,
		JobItemStepID:  req.JobItemStepID,
		NextStatusID:   req.NextStatusID,
		NextStatusCode: req.NextStatusCode,
		NextReasonID:   req.NextReasonID,
		NextNote:       req.NextNote,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusEventResponse(event))
}

func (s *Server) handleUpdateQuantities(w http.ResponseWriter, r *http.Request) {
	var req updateQuantitiesRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.wip.UpdateQuantities(r.Context(), r.PathValue("id"), req.GoodDelta, req.ScrapDelta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	occ, err := s.ownership.Occupancy(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occupancyResponse{
		Occupied:   occ.Occupied,
		SessionID:  occ.SessionID,
		WorkerID:   occ.WorkerID,
		WorkerCode: occ.WorkerCode,
	})
}

func (s *Server) handleWipBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.wip.Balance(r.Context(), r.PathValue("jobItemID"), r.PathValue("stationID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wipBalanceResponse{
		JobItemID:     balance.JobItemID,
		StationID:     balance.StationID,
		GoodAvailable: balance.GoodAvailable,
		IsTerminal:    balance.IsTerminal,
	})
}

// decode parses and validates a request body. Validation failures carry
// errValidation so the transport answers 400 before any work happens.
func decode(r *http.Request, req interface{ Validate() error }) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return fmt.Errorf("%w: malformed JSON body: %v", errValidation, err)
		}
	}
	return req.Validate()
}
