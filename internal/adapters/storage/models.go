package storage

import "time"

// WorkerModel is the GORM model for workers
type WorkerModel struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"not null;uniqueIndex:idx_worker_code"`
	Name      string `gorm:"not null;default:''"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (WorkerModel) TableName() string { return "workers" }

// StationModel is the GORM model for stations
type StationModel struct {
	ID           string `gorm:"primaryKey"`
	Code         string `gorm:"not null;uniqueIndex:idx_station_code"`
	Name         string `gorm:"not null;default:''"`
	PipelineType string `gorm:"not null;default:''"`
	Position     int    `gorm:"not null;default:0"`
	IsTerminal   bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (StationModel) TableName() string { return "stations" }

// JobModel is the GORM model for jobs
type JobModel struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"not null;uniqueIndex:idx_job_code"`
	Name      string `gorm:"not null;default:''"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (JobModel) TableName() string { return "jobs" }

// JobItemModel is the GORM model for job items
type JobItemModel struct {
	ID                           string `gorm:"primaryKey"`
	JobID                        string `gorm:"not null;index:idx_job_item_job"`
	ProductCode                  string `gorm:"not null;default:''"`
	RequiresFirstProductApproval bool   `gorm:"not null;default:false"`
	FirstProductApprovedAt       *time.Time
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// TableName specifies the table name for GORM
func (JobItemModel) TableName() string { return "job_items" }

// JobItemStepModel is the GORM model for job item routing steps
type JobItemStepModel struct {
	ID        string `gorm:"primaryKey"`
	JobItemID string `gorm:"not null;index:idx_step_item;uniqueIndex:idx_step_item_pos"`
	StationID string `gorm:"not null;index:idx_step_station"`
	Position  int    `gorm:"not null;uniqueIndex:idx_step_item_pos"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (JobItemStepModel) TableName() string { return "job_item_steps" }

// StatusDefinitionModel is the GORM model for the status catalog
type StatusDefinitionModel struct {
	ID           string `gorm:"primaryKey"`
	Code         string `gorm:"not null;uniqueIndex:idx_status_def_code"`
	Name         string `gorm:"not null;default:''"`
	IsProduction bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (StatusDefinitionModel) TableName() string { return "status_definitions" }

// StationReasonModel is the GORM model for per-station reason catalogs
type StationReasonModel struct {
	ID        string `gorm:"primaryKey"`
	StationID string `gorm:"not null;index:idx_reason_station"`
	Code      string `gorm:"not null"`
	Label     string `gorm:"not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (StationReasonModel) TableName() string { return "station_reasons" }

// SessionModel is the GORM model for worker sessions
type SessionModel struct {
	ID               string `gorm:"primaryKey"`
	WorkerID         string `gorm:"not null;index:idx_session_worker"`
	StationID        string `gorm:"not null;index:idx_session_station"`
	JobID            *string
	JobItemID        *string
	JobItemStepID    *string
	Status           string `gorm:"not null;default:'active';index:idx_session_status;check:status IN ('active','completed','abandoned')"`
	ActiveInstanceID string `gorm:"not null;default:''"`
	StartedAt        time.Time
	LastSeenAt       *time.Time `gorm:"index:idx_session_last_seen"`
	EndedAt          *time.Time
	ForcedClosedAt   *time.Time
	CurrentStatusID  *string
	TotalGood        int `gorm:"not null;default:0"`
	TotalScrap       int `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string { return "sessions" }

// StatusEventModel is the GORM model for status events
type StatusEventModel struct {
	ID                 string `gorm:"primaryKey"`
	SessionID          string `gorm:"not null;index:idx_event_session"`
	StatusDefinitionID string `gorm:"not null"`
	StationReasonID    *string
	Note               string    `gorm:"not null;default:''"`
	ImageURL           string    `gorm:"not null;default:''"`
	StartedAt          time.Time `gorm:"not null;index:idx_event_started"`
	EndedAt            *time.Time
	QuantityGood       int `gorm:"not null;default:0"`
	QuantityScrap      int `gorm:"not null;default:0"`
	JobItemID          *string
	JobItemStepID      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (StatusEventModel) TableName() string { return "status_events" }

// WipBalanceModel is the GORM model for per-(job item, station) balances
type WipBalanceModel struct {
	JobItemID     string `gorm:"primaryKey"`
	StationID     string `gorm:"primaryKey"`
	GoodAvailable int    `gorm:"not null;default:0;check:good_available >= 0"`
	IsTerminal    bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (WipBalanceModel) TableName() string { return "wip_balances" }

// WipConsumptionModel is the GORM model for the append-only consumption ledger
type WipConsumptionModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	JobItemID     string `gorm:"not null;index:idx_consumption_item"`
	FromStationID string `gorm:"not null;index:idx_consumption_from"`
	ToStationID   string `gorm:"not null"`
	Quantity      int    `gorm:"not null"`
	ConsumedAt    time.Time
	CreatedAt     time.Time
}

// TableName specifies the table name for GORM
func (WipConsumptionModel) TableName() string { return "wip_consumptions" }
