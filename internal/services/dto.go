package services

// CreateSessionParams describes a session-creation request.
type CreateSessionParams struct {
	WorkerID   string
	StationID  string
	JobID      string
	InstanceID string
}

// StartStatusParams describes a status transition request. Either the
// definition id or its code identifies the target status.
type StartStatusParams struct {
	SessionID       string
	StatusID        string
	StatusCode      string
	StationReasonID string
	Note            string
	ImageURL        string
}

// EndProductionParams closes a production interval with final quantities
// and names the status that follows it.
type EndProductionParams struct {
	SessionID     string
	StatusEventID string
	QuantityGood  int
	QuantityScrap int
	JobItemID     string
	JobItemStepID string

	NextStatusID   string
	NextStatusCode string
	NextReasonID   string
	NextNote       string
}

// SweepReport summarizes one idle-sweep round.
type SweepReport struct {
	Scanned int
	Closed  int
	Errors  []error
}
