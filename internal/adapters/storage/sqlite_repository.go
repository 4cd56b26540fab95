package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"floorline/internal/domain"
	"floorline/internal/logging"
	"floorline/internal/ports"
)

// SQLiteRepository implements ports.Repository using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.Repository = (*SQLiteRepository)(nil)

// gormLogger wraps the floorline logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("FLOORLINE_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository creates a new SQLiteRepository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(
		&WorkerModel{},
		&StationModel{},
		&JobModel{},
		&JobItemModel{},
		&JobItemStepModel{},
		&StatusDefinitionModel{},
		&StationReasonModel{},
		&SessionModel{},
		&StatusEventModel{},
		&WipBalanceModel{},
		&WipConsumptionModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetWorker implements ports.ReferenceReader
func (r *SQLiteRepository) GetWorker(ctx context.Context, id string) (*domain.Worker, error) {
	var m WorkerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorkerNotFound
		}
		return nil, err
	}
	w := workerModelToDomain(m)
	return &w, nil
}

// GetWorkerByCode implements ports.ReferenceReader
func (r *SQLiteRepository) GetWorkerByCode(ctx context.Context, code string) (*domain.Worker, error) {
	var m WorkerModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorkerNotFound
		}
		return nil, err
	}
	w := workerModelToDomain(m)
	return &w, nil
}

// GetStation implements ports.ReferenceReader
func (r *SQLiteRepository) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	var m StationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStationNotFound
		}
		return nil, err
	}
	s := stationModelToDomain(m)
	return &s, nil
}

// GetStationByCode implements ports.ReferenceReader
func (r *SQLiteRepository) GetStationByCode(ctx context.Context, code string) (*domain.Station, error) {
	var m StationModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStationNotFound
		}
		return nil, err
	}
	s := stationModelToDomain(m)
	return &s, nil
}

// GetStatusDefinition implements ports.ReferenceReader
func (r *SQLiteRepository) GetStatusDefinition(ctx context.Context, id string) (*domain.StatusDefinition, error) {
	var m StatusDefinitionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStatusDefinitionNotFound
		}
		return nil, err
	}
	d := statusDefinitionModelToDomain(m)
	return &d, nil
}

// GetStatusDefinitionByCode implements ports.ReferenceReader
func (r *SQLiteRepository) GetStatusDefinitionByCode(ctx context.Context, code string) (*domain.StatusDefinition, error) {
	var m StatusDefinitionModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStatusDefinitionNotFound
		}
		return nil, err
	}
	d := statusDefinitionModelToDomain(m)
	return &d, nil
}

// GetJobItem implements ports.ReferenceReader
func (r *SQLiteRepository) GetJobItem(ctx context.Context, id string) (*domain.JobItem, error) {
	var m JobItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobItemStepNotFound
		}
		return nil, err
	}
	ji := jobItemModelToDomain(m)
	return &ji, nil
}

// GetSession implements ports.SessionReader
func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	s := sessionModelToDomain(m)
	return &s, nil
}

// ListSessions implements ports.SessionReader
func (r *SQLiteRepository) ListSessions(ctx context.Context, activeOnly bool) ([]domain.Session, error) {
	var models []SessionModel
	query := r.db.WithContext(ctx).Order("started_at DESC")
	if activeOnly {
		query = query.Where("status = ?", string(domain.SessionActive))
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	sessions := make([]domain.Session, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, sessionModelToDomain(m))
	}
	return sessions, nil
}

// ListStatusEvents implements ports.SessionReader
func (r *SQLiteRepository) ListStatusEvents(ctx context.Context, sessionID string) ([]domain.StatusEvent, error) {
	var models []StatusEventModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	events := make([]domain.StatusEvent, 0, len(models))
	for _, m := range models {
		events = append(events, statusEventModelToDomain(m))
	}
	return events, nil
}

// StationOccupancy implements ports.SessionReader. A station counts as
// occupied while an active session's liveness instant is at or after
// liveAfter.
func (r *SQLiteRepository) StationOccupancy(ctx context.Context, stationID string, liveAfter time.Time) (*domain.Occupancy, error) {
	var m SessionModel
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND status = ?", stationID, string(domain.SessionActive)).
		Where("COALESCE(last_seen_at, started_at) >= ?", liveAfter).
		Order("COALESCE(last_seen_at, started_at) DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.Occupancy{}, nil
		}
		return nil, err
	}

	occ := &domain.Occupancy{
		Occupied:  true,
		SessionID: m.ID,
		WorkerID:  m.WorkerID,
	}
	var worker WorkerModel
	if err := r.db.WithContext(ctx).Where("id = ?", m.WorkerID).First(&worker).Error; err == nil {
		occ.WorkerCode = worker.Code
	}
	return occ, nil
}

// GetWipBalance implements ports.SessionReader
func (r *SQLiteRepository) GetWipBalance(ctx context.Context, jobItemID, stationID string) (*domain.WipBalance, error) {
	var m WipBalanceModel
	err := r.db.WithContext(ctx).
		Where("job_item_id = ? AND station_id = ?", jobItemID, stationID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.WipBalance{JobItemID: jobItemID, StationID: stationID}, nil
		}
		return nil, err
	}
	b := wipBalanceModelToDomain(m)
	return &b, nil
}

// withRetry retries a closure on sqlite busy/locked errors
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
