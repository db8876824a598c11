package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ReconciliationRun is the audit record of one reconciliation. It stores the
// summary only, never the uploaded rows.
type ReconciliationRun struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	File1Name      string
	File2Name      string
	File1Rows      int
	File2Rows      int
	File1Skipped   int
	File2Skipped   int
	Columns1       datatypes.JSON
	Columns2       datatypes.JSON
	Mode           string
	TieBreak       string
	MatchedCount   int
	UnmatchedCount int
	UnknownCount   int
	TotalRecords   int
	Status         string `gorm:"index"`
	Error          string
	StartedAt      time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time `gorm:"index"`
}
