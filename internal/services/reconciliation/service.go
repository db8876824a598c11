package reconciliation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"tabular-reconciliation-backend/internal/export"
	"tabular-reconciliation-backend/internal/loader"
	"tabular-reconciliation-backend/internal/models"
	"tabular-reconciliation-backend/internal/repository"
	"tabular-reconciliation-backend/internal/services/matching"
	"tabular-reconciliation-backend/internal/table"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/datatypes"
)

var (
	// ErrInvalidOption is returned for an unknown mode or tie-break value.
	ErrInvalidOption   = errors.New("invalid reconciliation option")
	// ErrHistoryDisabled is returned by GetRun when no database is configured.
	ErrHistoryDisabled = errors.New("run history is disabled")
)

type Options struct {
	Normalizer matching.Normalizer
	Loader     loader.Options
	Match      matching.Options
	CacheSize  int
}

func DefaultOptions() Options {
	return Options{
		Normalizer: matching.DefaultNormalizer(),
		Loader:     loader.DefaultOptions(),
		Match:      matching.DefaultOptions(),
		CacheSize:  64,
	}
}

type ReconciliationService struct {
	runRepo *repository.RunRepository
	opts    Options
	// recent results by run ID, for download
	results *lru.Cache[uuid.UUID, *RunResult]
}

// Upload is one file as received from the client.
type Upload struct {
	Name   string
	Reader io.Reader
}

type RunInput struct {
	File1    Upload
	File2    Upload
	Columns1 []string
	Columns2 []string
	// Mode and TieBreak override the service defaults when set.
	Mode     string
	TieBreak string
}

type RunResult struct {
	ID        uuid.UUID
	File1     string
	File2     string
	Summary   matching.Summary
	Records   []export.DisplayRow
	CSV       []byte
	Result    *matching.Result
	CreatedAt time.Time
}

type TableInfo struct {
	File        string   `json:"file"`
	Columns     []string `json:"columns"`
	RowCount    int      `json:"row_count"`
	SkippedRows int      `json:"skipped_rows"`
	Encoding    string   `json:"encoding,omitempty"`
}

// NewReconciliationService builds the service. runRepo may be nil, in which
// case runs are not recorded.
func NewReconciliationService(runRepo *repository.RunRepository, opts Options) (*ReconciliationService, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	cache, err := lru.New[uuid.UUID, *RunResult](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &ReconciliationService{
		runRepo: runRepo,
		opts:    opts,
		results: cache,
	}, nil
}

// Inspect loads a file and reports its cleaned column names for selection.
func (s *ReconciliationService) Inspect(u Upload) (*TableInfo, error) {
	t, err := loader.Load(u.Name, u.Reader, s.opts.Loader)
	if err != nil {
		return nil, err
	}
	return tableInfo(t), nil
}

func tableInfo(t *table.Table) *TableInfo {
	return &TableInfo{
		File:        t.Name,
		Columns:     t.Columns,
		RowCount:    t.Len(),
		SkippedRows: t.SkippedRows,
		Encoding:    t.Encoding,
	}
}

// Run executes one full reconciliation. Selection errors are reported before
// any file is parsed.
func (s *ReconciliationService) Run(in RunInput) (*RunResult, error) {
	if err := matching.ValidateSelection(in.Columns1, in.Columns2); err != nil {
		return nil, err
	}
	opts, err := s.matchOptions(in)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	run := &models.ReconciliationRun{
		ID:        uuid.New(),
		File1Name: in.File1.Name,
		File2Name: in.File2.Name,
		Columns1:  columnsJSON(in.Columns1),
		Columns2:  columnsJSON(in.Columns2),
		Mode:      string(opts.Mode),
		TieBreak:  string(opts.TieBreak),
		StartedAt: started,
		CreatedAt: started,
	}

	left, err := loader.Load(in.File1.Name, in.File1.Reader, s.opts.Loader)
	if err != nil {
		s.recordFailure(run, err)
		return nil, err
	}
	right, err := loader.Load(in.File2.Name, in.File2.Reader, s.opts.Loader)
	if err != nil {
		s.recordFailure(run, err)
		return nil, err
	}
	run.File1Rows, run.File1Skipped = left.Len(), left.SkippedRows
	run.File2Rows, run.File2Skipped = right.Len(), right.SkippedRows

	keys1, err := matching.BuildKeys(left, in.Columns1, s.opts.Normalizer)
	if err != nil {
		s.recordFailure(run, err)
		return nil, err
	}
	keys2, err := matching.BuildKeys(right, in.Columns2, s.opts.Normalizer)
	if err != nil {
		s.recordFailure(run, err)
		return nil, err
	}

	res := matching.Reconcile(left, right, keys1, keys2, opts)

	csv, err := export.CSV(res)
	if err != nil {
		err = fmt.Errorf("export result: %w", err)
		s.recordFailure(run, err)
		return nil, err
	}

	out := &RunResult{
		ID:        run.ID,
		File1:     left.Name,
		File2:     right.Name,
		Summary:   res.Summary,
		Records:   export.Display(res),
		CSV:       csv,
		Result:    res,
		CreatedAt: started,
	}
	s.results.Add(out.ID, out)

	completed := time.Now()
	run.MatchedCount = res.Summary.Matched
	run.UnmatchedCount = res.Summary.Unmatched
	run.UnknownCount = res.Summary.Unknown
	run.TotalRecords = res.Summary.Total
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completed
	s.record(run)

	log.Printf("run %s: %s vs %s: %s (%s)", run.ID, left.Name, right.Name, res.Summary, completed.Sub(started))
	return out, nil
}

func (s *ReconciliationService) matchOptions(in RunInput) (matching.Options, error) {
	opts := s.opts.Match
	if in.Mode != "" {
		m, err := matching.ParseMode(in.Mode)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		opts.Mode = m
	}
	if in.TieBreak != "" {
		tb, err := matching.ParseTieBreak(in.TieBreak)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		opts.TieBreak = tb
	}
	return opts, nil
}

// GetResult returns a recent result still held in memory.
func (s *ReconciliationService) GetResult(id uuid.UUID) (*RunResult, bool) {
	return s.results.Get(id)
}

// ListRuns returns recorded runs, newest first. Without a database it
// returns an empty list.
func (s *ReconciliationService) ListRuns(limit int, status string) ([]models.ReconciliationRun, error) {
	if s.runRepo == nil {
		return []models.ReconciliationRun{}, nil
	}
	return s.runRepo.List(limit, status)
}

func (s *ReconciliationService) GetRun(id uuid.UUID) (*models.ReconciliationRun, error) {
	if s.runRepo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runRepo.GetByID(id)
}

func (s *ReconciliationService) HistoryEnabled() bool {
	return s.runRepo != nil
}

func (s *ReconciliationService) recordFailure(run *models.ReconciliationRun, cause error) {
	completed := time.Now()
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &completed
	s.record(run)
}

// record never fails the run; history is best effort.
func (s *ReconciliationService) record(run *models.ReconciliationRun) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Create(run); err != nil {
		log.Printf("run %s: failed to record history: %v", run.ID, err)
	}
}

func columnsJSON(cols []string) datatypes.JSON {
	b, _ := json.Marshal(cols)
	return datatypes.JSON(b)
}
