package handler

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"tabular-reconciliation-backend/internal/export"
	"tabular-reconciliation-backend/internal/loader"
	"tabular-reconciliation-backend/internal/services/matching"
	service "tabular-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const selectColumnsPrompt = "Please select columns to match from both files."

type ReconciliationHandler struct {
	service   *service.ReconciliationService
	maxUpload int64
}

func NewReconciliationHandler(s *service.ReconciliationService, maxUploadBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{service: s, maxUpload: maxUploadBytes}
}

// Inspect returns the cleaned column names of one uploaded file so the
// client can offer them for selection.
func (h *ReconciliationHandler) Inspect(c *gin.Context) {
	h.limitBody(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.uploadError(c, err, "file")
		return
	}
	defer file.Close()

	log.Println("Received file:", header.Filename, "size:", header.Size)

	info, err := h.service.Inspect(service.Upload{Name: header.Filename, Reader: file})
	if err != nil {
		h.runError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Run reconciles file1 against file2 on the selected columns.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	h.limitBody(c)

	file1, header1, err := c.Request.FormFile("file1")
	if err != nil {
		h.uploadError(c, err, "file1")
		return
	}
	defer file1.Close()

	file2, header2, err := c.Request.FormFile("file2")
	if err != nil {
		h.uploadError(c, err, "file2")
		return
	}
	defer file2.Close()

	log.Printf("Reconciling %s (%d bytes) against %s (%d bytes)", header1.Filename, header1.Size, header2.Filename, header2.Size)

	res, err := h.service.Run(service.RunInput{
		File1:    upload(header1, file1),
		File2:    upload(header2, file2),
		Columns1: c.PostFormArray("columns1"),
		Columns2: c.PostFormArray("columns2"),
		Mode:     c.PostForm("mode"),
		TieBreak: c.PostForm("tie_break"),
	})
	if err != nil {
		h.runError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  res.ID.String(),
		"summary": res.Summary,
		"message": res.Summary.String(),
		"records": res.Records,
	})
}

// GetResult returns a cached run with its records.
func (h *ReconciliationHandler) GetResult(c *gin.Context) {
	res, ok := h.cachedResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":  res.ID.String(),
		"file1":   res.File1,
		"file2":   res.File2,
		"summary": res.Summary,
		"records": res.Records,
	})
}

// Download serves the result CSV as an attachment.
func (h *ReconciliationHandler) Download(c *gin.Context) {
	res, ok := h.cachedResult(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", res.CSV)
}

func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := h.service.ListRuns(limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":           runs,
		"history_enabled": h.service.HistoryEnabled(),
	})
}

func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	run, err := h.service.GetRun(id)
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, run)
	}
}

func (h *ReconciliationHandler) cachedResult(c *gin.Context) (*service.RunResult, bool) {
	id, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return nil, false
	}
	res, ok := h.service.GetResult(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found or expired"})
		return nil, false
	}
	return res, true
}

func (h *ReconciliationHandler) limitBody(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
}

func (h *ReconciliationHandler) uploadError(c *gin.Context, err error, field string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
		return
	}
	log.Printf("ERROR: no %s received: %v", field, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": field + " required"})
}

// runError maps pipeline errors onto responses. A missing column selection
// is a prompt, not a failure.
func (h *ReconciliationHandler) runError(c *gin.Context, err error) {
	var loadErr *loader.LoadError
	switch {
	case errors.Is(err, matching.ErrNoColumnsSelected):
		c.JSON(http.StatusOK, gin.H{"info": selectColumnsPrompt})
	case errors.Is(err, matching.ErrColumnCountMismatch),
		errors.Is(err, matching.ErrUnknownColumn),
		errors.Is(err, service.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &loadErr):
		log.Printf("ERROR loading %s: %v", loadErr.File, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "file": loadErr.File})
	default:
		log.Printf("ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func upload(header *multipart.FileHeader, file multipart.File) service.Upload {
	return service.Upload{Name: header.Filename, Reader: file}
}
