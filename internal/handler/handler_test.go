package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/repository"
	"github.com/noah-isme/tutor-billing/internal/service"
	"github.com/noah-isme/tutor-billing/internal/state"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/storage"
)

type credentialsMock struct {
	url       string
	signInErr error
	codes     []string
	signedOut bool
}

func (m *credentialsMock) AuthCodeURL() (string, error) { return m.url, nil }

func (m *credentialsMock) CompleteSignIn(_ context.Context, code, _ string) error {
	if m.signInErr != nil {
		return m.signInErr
	}
	m.codes = append(m.codes, code)
	return nil
}

func (m *credentialsMock) SignOut(context.Context) error {
	m.signedOut = true
	return nil
}

func (m *credentialsMock) Status() models.AuthStatus {
	return models.AuthStatus{SignedIn: len(m.codes) > 0 && !m.signedOut, SignedOut: m.signedOut}
}

type syncMock struct {
	mu          sync.Mutex
	status      models.SyncStatus
	loads       int
	loadCtxErr  error
	disconnects int
	saveErr     error
	reloadErr   error
	imported    []models.Bundle
}

func (m *syncMock) Status() models.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *syncMock) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	m.loadCtxErr = ctx.Err()
	m.status.Connected = true
	return nil
}

func (m *syncMock) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	m.status.Connected = false
}

func (m *syncMock) SaveNow(context.Context) (models.SyncOutcome, error) {
	if m.saveErr != nil {
		return models.SyncOutcomeSkipped, m.saveErr
	}
	return models.SyncOutcomeSaved, nil
}

func (m *syncMock) Reload(context.Context) error { return m.reloadErr }

func (m *syncMock) Import(_ context.Context, bundle models.Bundle) (models.SyncOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imported = append(m.imported, bundle)
	return models.SyncOutcomeSkipped, nil
}

type exportsMock struct {
	formats []service.ExportFormat
	file    string
}

func (m *exportsMock) ExportParentBill(month, parentID string, format service.ExportFormat) (*service.ExportResult, error) {
	m.formats = append(m.formats, format)
	return &service.ExportResult{RelativePath: month + "_" + parentID + "." + string(format), Format: format, Token: "tok"}, nil
}

func (m *exportsMock) ParseToken(token string) (storage.SignedLink, error) {
	if token != "good" {
		return storage.SignedLink{}, appErrors.Clone(appErrors.ErrValidation, "invalid token")
	}
	return storage.SignedLink{ID: "1", Path: m.file, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *exportsMock) Open(relPath string) (*os.File, error) {
	f, err := os.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	return f, nil
}

func (m *exportsMock) BundleJSON() ([]byte, string, error) {
	return []byte(`{"studentsData":[]}`), "tutor_billing_2024-03-01_120000.json", nil
}

type backupsMock struct {
	names []string
	err   error
	last  *service.BackupRecord
}

func (m *backupsMock) Enqueue(filename string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.names = append(m.names, filename)
	return "job-1", nil
}

func (m *backupsMock) Last() *service.BackupRecord { return m.last }

type testDeps struct {
	store       *state.Store
	sync        *syncMock
	credentials *credentialsMock
	exports     *exportsMock
	backups     *backupsMock
	broker      *service.ConflictBroker
	hub         *StatusHub
}

func newTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := &testDeps{
		store:       state.NewStore(),
		sync:        &syncMock{status: models.SyncStatus{Phase: models.SyncPhaseIdle, Message: "Not connected to Drive."}},
		credentials: &credentialsMock{url: "https://accounts.example.test/auth?state=abc"},
		exports:     &exportsMock{},
		backups:     &backupsMock{},
		broker:      service.NewConflictBroker(time.Minute, nil),
	}
	deps.hub = NewStatusHub(deps.sync.Status, nil, nil)

	files, err := repository.NewFileMirrorRepository(t.TempDir())
	require.NoError(t, err)
	c := codec.New(nil)
	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	router := NewRouter(RouterConfig{APIPrefix: "/api/v1", EnableMetrics: true}, Handlers{
		Auth:      NewAuthHandler(deps.credentials, deps.sync),
		Roster:    NewRosterHandler(service.NewRosterService(deps.store, validate, nil), deps.store),
		Mirror:    NewMirrorHandler(service.NewMirrorService(files, deps.store, c, nil, metrics)),
		Schedules: NewScheduleHandler(service.NewScheduleService(deps.store, validate, nil)),
		Billing:   NewBillingHandler(service.NewBillingService(deps.store, service.DefaultViolationPenalty, nil), deps.exports),
		Sync:      NewSyncHandler(deps.sync, deps.broker, deps.hub),
		Data:      NewDataHandler(deps.sync, deps.exports, deps.backups, c),
		Metrics:   NewMetricsHandler(metrics, deps.sync),
	}, metrics, nil)
	return router, deps
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func seedMarchRoster(store *state.Store) {
	bundle := models.EmptyBundle()
	bundle.StudentsData = []models.Student{{
		ID: "s1", Name: "Ana", ClassDays: []string{"Monday"}, SessionLength: 1, HourlyRate: 100,
	}}
	bundle.ParentsData = []models.Parent{{ID: "p1", Name: "Maria", Children: []string{"s1"}}}
	bundle.Months = models.MonthlySchedules{
		"2024-03": {"s1": {
			{Date: "2024/03/04"}, {Date: "2024/03/11"}, {Date: "2024/03/18"}, {Date: "2024/03/25"},
		}},
	}
	store.Replace(bundle)
}
