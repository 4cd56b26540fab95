package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floorline/internal/domain"
	"floorline/internal/logging"
)

// Seed inserts the reference catalog a fresh floor needs: the status
// definitions the core depends on, plus a small demo line when demo is
// set. Idempotent: existing rows are matched by code and left alone.
func (r *SQLiteRepository) Seed(ctx context.Context, demo bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedStatusDefinitionsTx(tx); err != nil {
			return err
		}
		if !demo {
			return nil
		}
		return seedDemoFloorTx(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	logging.Logger.Info("reference data seeded", "demo", demo)
	return nil
}

func seedStatusDefinitionsTx(tx *gorm.DB) error {
	defs := []StatusDefinitionModel{
		{Code: domain.StatusProduction, Name: "Production", IsProduction: true},
		{Code: domain.StatusSetup, Name: "Setup"},
		{Code: domain.StatusStoppage, Name: "Stoppage"},
		{Code: domain.StatusMalfunction, Name: "Malfunction"},
		{Code: domain.StatusStopped, Name: "Stopped"},
	}
	for _, def := range defs {
		def.ID = uuid.NewString()
		if err := tx.Where("code = ?", def.Code).FirstOrCreate(&def).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedDemoFloorTx builds a three-station cutting line with two workers
// and one routed job so a new install has something to drive.
func seedDemoFloorTx(tx *gorm.DB) error {
	workers := []WorkerModel{
		{Code: "W-100", Name: "Ana Pereira", IsActive: true},
		{Code: "W-101", Name: "Marco Silva", IsActive: true},
	}
	for _, w := range workers {
		w.ID = uuid.NewString()
		if err := tx.Where("code = ?", w.Code).FirstOrCreate(&w).Error; err != nil {
			return err
		}
	}

	stations := []StationModel{
		{Code: "CUT-01", Name: "Cutting", PipelineType: "line-a", Position: 1},
		{Code: "SEW-01", Name: "Sewing", PipelineType: "line-a", Position: 2},
		{Code: "PCK-01", Name: "Packing", PipelineType: "line-a", Position: 3, IsTerminal: true},
	}
	stationIDs := make(map[string]string, len(stations))
	for _, s := range stations {
		s.ID = uuid.NewString()
		if err := tx.Where("code = ?", s.Code).FirstOrCreate(&s).Error; err != nil {
			return err
		}
		stationIDs[s.Code] = s.ID
	}

	reasons := []StationReasonModel{
		{StationID: stationIDs["CUT-01"], Code: "blade-change", Label: "Blade change"},
		{StationID: stationIDs["SEW-01"], Code: "thread-break", Label: "Thread break"},
		{StationID: stationIDs["PCK-01"], Code: "no-boxes", Label: "Out of boxes"},
	}
	for _, reason := range reasons {
		reason.ID = uuid.NewString()
		err := tx.Where("station_id = ? AND code = ?", reason.StationID, reason.Code).
			FirstOrCreate(&reason).Error
		if err != nil {
			return err
		}
	}

	job := JobModel{ID: uuid.NewString(), Code: "JOB-1000", Name: "Demo order", Active: true}
	if err := tx.Where("code = ?", job.Code).FirstOrCreate(&job).Error; err != nil {
		return err
	}

	item := JobItemModel{ID: uuid.NewString(), JobID: job.ID, ProductCode: "SHIRT-M"}
	if err := tx.Where("job_id = ? AND product_code = ?", job.ID, item.ProductCode).
		FirstOrCreate(&item).Error; err != nil {
		return err
	}

	steps := []JobItemStepModel{
		{JobItemID: item.ID, StationID: stationIDs["CUT-01"], Position: 1},
		{JobItemID: item.ID, StationID: stationIDs["SEW-01"], Position: 2},
		{JobItemID: item.ID, StationID: stationIDs["PCK-01"], Position: 3},
	}
	for _, step := range steps {
		step.ID = uuid.NewString()
		err := tx.Where("job_item_id = ? AND position = ?", step.JobItemID, step.Position).
			FirstOrCreate(&step).Error
		if err != nil {
			return err
		}
	}

	return nil
}
