package repository

import (
	"tabular-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Migrate() error {
	return r.db.AutoMigrate(&models.ReconciliationRun{})
}

func (r *RunRepository) Create(run *models.ReconciliationRun) error {
	return r.db.Create(run).Error
}

// GetByID fetch a single run by ID
func (r *RunRepository) GetByID(id uuid.UUID) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs first, optionally filtered by status.
func (r *RunRepository) List(limit int, status string) ([]models.ReconciliationRun, error) {
	var runs []models.ReconciliationRun

	query := r.db.Model(&models.ReconciliationRun{}).Order("created_at DESC")
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&runs).Error
	return runs, err
}
