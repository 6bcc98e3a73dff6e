package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tietracker/tiexport/internal/delivery"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/tietracker/tiexport/internal/export"
	"github.com/tietracker/tiexport/internal/i18n"
	"github.com/tietracker/tiexport/internal/repository"
	"github.com/tietracker/tiexport/internal/share"
	"github.com/tietracker/tiexport/internal/storage"
	"github.com/tietracker/tiexport/internal/worker"
	"go.uber.org/zap"
)

type stubProjects map[string]*entity.Project

func (s stubProjects) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	p, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", repository.ErrNotFound, id)
	}
	return p, nil
}

type testEnv struct {
	router    http.Handler
	nativeDir string
	sandbox   string
	generated chan *entity.ExportRequest
}

func newTestEnv(t *testing.T, gen worker.GeneratorFunc) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	generated := make(chan *entity.ExportRequest, 8)
	if gen == nil {
		gen = func(ctx context.Context, req *entity.ExportRequest) ([]byte, error) {
			generated <- req
			return []byte("PK-" + req.ProjectID), nil
		}
	}

	w := worker.NewExportWorker(gen, worker.ExportWorkerConfig{QueueSize: 4, Timeout: 5 * time.Second}, logger)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	nativeDir := t.TempDir()
	sandboxDir := t.TempDir()
	sandbox := storage.NewSandbox(map[delivery.DirectoryScope]string{delivery.ScopeDocuments: sandboxDir}, logger)

	svc := export.NewService(w, catalog, export.NewResolver(), logger,
		delivery.NewNativeStrategy(storage.NewDirectoryPicker(nativeDir, false, nil, logger), logger),
		delivery.NewDownloadStrategy(delivery.NewResourceRegistry(0), nil, logger),
		delivery.NewMobileStrategy(sandbox, share.NewLogSharer(logger), export.ShareSubject, delivery.DefaultMobileConfig(), logger),
	)

	projects := stubProjects{
		"p1": {ID: "p1", ClientID: "c1", Name: "Website", HourlyRate: 100, Client: &entity.Client{ID: "c1", Name: "Acme"}},
	}

	handlers := NewHandlers(svc, projects, "USD", time.UTC, logger)
	server := NewServer(DefaultServerConfig(), handlers, logger)

	return &testEnv{router: server.Router(), nativeDir: nativeDir, sandbox: sandboxDir, generated: generated}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	handlers := NewHandlers(nil, stubProjects{}, "USD", time.UTC, zap.NewNop()).
		WithHealthCheck(func(ctx context.Context) error { return errors.New("database unhealthy") })
	router := NewServer(DefaultServerConfig(), handlers, zap.NewNop()).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "database unhealthy", resp.Error)
}

func TestExportDownload(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post(t, "/api/v1/exports/download", map[string]interface{}{
		"project_id": "p1",
		"from":       "2024-03-01",
		"to":         "2024-03-03",
		"vat":        7.7,
		"billable":   true,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PK-p1", rec.Body.String())
	assert.Equal(t, entity.SpreadsheetMIMEType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Acme-2024-03-01-2024-03-03.xlsx`, rec.Header().Get("Content-Disposition"))

	req := <-env.generated
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, req.InvoiceDays)
	assert.Equal(t, "USD", req.Currency.Code)
	require.NotNil(t, req.VATRate)
	assert.Equal(t, 7.7, *req.VATRate)
	assert.True(t, req.Billable)
}

func TestExportFileSystem(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post(t, "/api/v1/exports/filesystem", map[string]interface{}{
		"project_id": "p1",
		"from":       "2024-03-01",
		"to":         "2024-03-01",
		"currency":   "CHF",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Acme-2024-03-01-2024-03-01.xlsx", data["filename"])
	assert.Equal(t, delivery.StrategyNative, data["strategy"])

	got, err := os.ReadFile(filepath.Join(env.nativeDir, "Acme-2024-03-01-2024-03-01.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "PK-p1", string(got))

	t.Run("second save is refused", func(t *testing.T) {
		rec := env.post(t, "/api/v1/exports/filesystem", map[string]interface{}{
			"project_id": "p1",
			"from":       "2024-03-01",
			"to":         "2024-03-01",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestExportMobile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post(t, "/api/v1/exports/mobile", map[string]interface{}{
		"project_id": "p1",
		"from":       "2024-03-01",
		"to":         "2024-03-02",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, err := os.ReadFile(filepath.Join(env.sandbox, "tietracker", "Acme-2024-03-01-2024-03-02.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "PK-p1", string(got))
}

func TestExport_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"missing project", map[string]interface{}{"from": "2024-03-01"}, http.StatusBadRequest},
		{"bad day", map[string]interface{}{"project_id": "p1", "from": "01.03.2024"}, http.StatusBadRequest},
		{"bad currency", map[string]interface{}{"project_id": "p1", "from": "2024-03-01", "currency": "dollars"}, http.StatusBadRequest},
		{"bad vat", map[string]interface{}{"project_id": "p1", "from": "2024-03-01", "vat": 150}, http.StatusBadRequest},
		{"unknown project", map[string]interface{}{"project_id": "nope", "from": "2024-03-01"}, http.StatusNotFound},
		{"no from", map[string]interface{}{"project_id": "p1"}, http.StatusUnprocessableEntity},
		{"inverted range", map[string]interface{}{"project_id": "p1", "from": "2024-03-05", "to": "2024-03-01"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post(t, "/api/v1/exports/download", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Empty(t, env.generated)
}

func TestExport_GeneratorFailure(t *testing.T) {
	env := newTestEnv(t, func(ctx context.Context, req *entity.ExportRequest) ([]byte, error) {
		return nil, errors.New("boom")
	})

	rec := env.post(t, "/api/v1/exports/download", map[string]interface{}{"project_id": "p1", "from": "2024-03-01", "to": "2024-03-01"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("generate export: %w", worker.ErrWorkerTimeout)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(worker.ErrQueueFull))
	assert.Equal(t, http.StatusForbidden, statusFor(delivery.ErrHandleCancelled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}
