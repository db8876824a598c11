package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	service "tabular-reconciliation-backend/internal/services/reconciliation"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := service.NewReconciliationService(nil, service.DefaultOptions())
	require.NoError(t, err)
	r := gin.New()
	RegisterRoutes(r, s, 1<<20)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRunHistoryRoutes(t *testing.T) {
	r := newEngine(t)

	rec := get(r, "/api/runs?status=all")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["history_enabled"])

	rec = get(r, "/api/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconciliationRoutes(t *testing.T) {
	r := newEngine(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, content := range map[string]string{"file1": "id\n1\n2\n", "file2": "id\n1\n"} {
		part, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("columns1", "id"))
	require.NoError(t, w.WriteField("columns2", "id"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/run", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	runID := body["run_id"].(string)

	assert.Equal(t, http.StatusOK, get(r, "/api/reconciliation/"+runID).Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/reconciliation/"+runID+"/download").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/health").Code)
}
