package storage

import (
	"floorline/internal/domain"
)

func workerModelToDomain(m WorkerModel) domain.Worker {
	return domain.Worker{
		ID:       m.ID,
		Code:     m.Code,
		Name:     m.Name,
		IsActive: m.IsActive,
	}
}

func stationModelToDomain(m StationModel) domain.Station {
	return domain.Station{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		PipelineType: m.PipelineType,
		Position:     m.Position,
		IsTerminal:   m.IsTerminal,
	}
}

func jobItemModelToDomain(m JobItemModel) domain.JobItem {
	return domain.JobItem{
		ID:                           m.ID,
		JobID:                        m.JobID,
		ProductCode:                  m.ProductCode,
		RequiresFirstProductApproval: m.RequiresFirstProductApproval,
		FirstProductApprovedAt:       m.FirstProductApprovedAt,
	}
}

func statusDefinitionModelToDomain(m StatusDefinitionModel) domain.StatusDefinition {
	return domain.StatusDefinition{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		IsProduction: m.IsProduction,
	}
}

func sessionModelToDomain(m SessionModel) domain.Session {
	s := domain.Session{
		ID:               m.ID,
		WorkerID:         m.WorkerID,
		StationID:        m.StationID,
		JobID:            deref(m.JobID),
		JobItemID:        deref(m.JobItemID),
		JobItemStepID:    deref(m.JobItemStepID),
		Status:           domain.SessionStatus(m.Status),
		ActiveInstanceID: m.ActiveInstanceID,
		StartedAt:        m.StartedAt,
		EndedAt:          m.EndedAt,
		ForcedClosedAt:   m.ForcedClosedAt,
		CurrentStatusID:  deref(m.CurrentStatusID),
		TotalGood:        m.TotalGood,
		TotalScrap:       m.TotalScrap,
	}
	if m.LastSeenAt != nil {
		s.LastSeenAt = *m.LastSeenAt
	}
	return s
}

func statusEventModelToDomain(m StatusEventModel) domain.StatusEvent {
	return domain.StatusEvent{
		ID:                 m.ID,
		SessionID:          m.SessionID,
		StatusDefinitionID: m.StatusDefinitionID,
		StationReasonID:    deref(m.StationReasonID),
		Note:               m.Note,
		ImageURL:           m.ImageURL,
		StartedAt:          m.StartedAt,
		EndedAt:            m.EndedAt,
		QuantityGood:       m.QuantityGood,
		QuantityScrap:      m.QuantityScrap,
		JobItemID:          deref(m.JobItemID),
		JobItemStepID:      deref(m.JobItemStepID),
	}
}

func wipBalanceModelToDomain(m WipBalanceModel) domain.WipBalance {
	return domain.WipBalance{
		JobItemID:     m.JobItemID,
		StationID:     m.StationID,
		GoodAvailable: m.GoodAvailable,
		IsTerminal:    m.IsTerminal,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
