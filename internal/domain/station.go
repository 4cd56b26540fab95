package domain

// Station is one machine position in a production line.
type Station struct {
	ID           string
	Code         string
	Name         string
	PipelineType string
	// Position is the station's fixed slot in its line; zero means the
	// station is not part of an ordered line.
	Position int
	// IsTerminal marks the last station of a line; units produced here
	// leave the pipeline instead of feeding a downstream balance.
	IsTerminal bool
}

// Occupancy describes who currently holds a station, if anyone.
type Occupancy struct {
	Occupied   bool
	SessionID  string
	WorkerID   string
	WorkerCode string
}
