package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func TestHealthAndMetricsRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"degraded"`)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAuthRoutes(t *testing.T) {
	router, deps := newTestRouter(t)

	t.Run("login redirects to consent", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		assert.Equal(t, deps.credentials.url, resp.Header().Get("Location"))
	})

	t.Run("login without redirect returns url", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login?redirect=false", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		var body struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &body))
		assert.Equal(t, deps.credentials.url, body.URL)
	})

	t.Run("callback with consent error", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?error=access_denied", nil))
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, appErrors.ErrNotAuthenticated.Code, decodeEnvelope(t, resp).Error.Code)
	})

	t.Run("callback without code", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?state=s", nil))
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("callback signs in and loads", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?code=abc&state=s", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, []string{"abc"}, deps.credentials.codes)
		assert.Equal(t, 1, deps.sync.loads)
		assert.Contains(t, resp.Body.String(), `"connected":true`)
	})

	t.Run("callback load outlives the request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?code=def&state=s", nil).WithContext(ctx)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 2, deps.sync.loads)
		assert.NoError(t, deps.sync.loadCtxErr)
	})

	t.Run("logout disconnects", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, deps.credentials.signedOut)
		assert.Equal(t, 1, deps.sync.disconnects)
	})
}

func TestMirrorRoutes(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := performRequest(router, httptest.NewRequest(http.MethodDelete, "/api/v1/mirror", nil))
	require.Equal(t, http.StatusPreconditionRequired, resp.Code)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, decodeEnvelope(t, resp).Error.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/mirror/studentsData", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)

	payload := `[{"id":"s1","name":"Ana","classDays":["Monday"],"sessionLength":1,"hourlyRate":100}]`
	resp = performRequest(router, httptest.NewRequest(http.MethodPut, "/api/v1/mirror/studentsData", bytes.NewBufferString(payload)))
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Len(t, deps.store.Students(), 1)
	assert.Equal(t, "Ana", deps.store.Students()[0].Name)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/mirror/studentsData", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Ana")

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/mirror", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "studentsData")

	resp = performRequest(router, httptest.NewRequest(http.MethodDelete, "/api/v1/mirror?confirm=true", nil))
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestScheduleRoutes(t *testing.T) {
	router, deps := newTestRouter(t)
	seedMarchRoster(deps.store)

	t.Run("invalid json", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/schedules/2024-03/students/s1/sessions/cancel", `{"date":`))
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, resp).Error.Code)
	})

	t.Run("cancel with violation", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/schedules/2024-03/students/s1/sessions/cancel", `{"date":"2024/03/04","violation":true}`))
		require.Equal(t, http.StatusOK, resp.Code)
		var session models.ClassSession
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &session))
		assert.True(t, session.Canceled)
		assert.True(t, session.Violation)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/schedules/2024-03/students/s1/sessions/cancel", `{"date":"2024/03/05"}`))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("uncancel clears violation", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/schedules/2024-03/students/s1/sessions/uncancel", `{"date":"2024/03/04"}`))
		require.Equal(t, http.StatusOK, resp.Code)
		var session models.ClassSession
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &session))
		assert.False(t, session.Canceled)
		assert.False(t, session.Violation)
	})

	t.Run("generate without body", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/schedules/2024-04/generate", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"studentIds":["s1"]`)
		assert.Len(t, deps.store.Month("2024-04")["s1"], 5)
	})
}

func TestBillingRoutes(t *testing.T) {
	router, deps := newTestRouter(t)
	seedMarchRoster(deps.store)

	t.Run("temp modifier must be numeric", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/billing/2024-03/students/s1?tempModifier=abc", nil))
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("temp modifier applied to actual charge", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/billing/2024-03/students/s1?tempModifier=50", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		var summary models.ChargeSummary
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &summary))
		assert.Equal(t, 400.0, summary.ExpectedCharge)
		assert.Equal(t, 450.0, summary.ActualCharge)
	})

	t.Run("unknown student", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/billing/2024-03/students/nope", nil))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("parent bill", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/billing/2024-03/parents/p1", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"total":400`)
	})

	t.Run("range review", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/billing/review?from=2024-03&to=2024-03", nil))
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("export defaults to pdf", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/billing/2024-03/parents/p1/export", nil))
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, []service.ExportFormat{service.ExportFormatPDF}, deps.exports.formats)
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/billing/2024-03/parents/p1/export", `{"format":"xls"}`))
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "2024-03_bill_Maria.csv")
		require.NoError(t, os.WriteFile(path, []byte("Total,,,,,,400\n"), 0o600))
		deps.exports.file = path

		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/exports/download?token=bad", nil))
		require.Equal(t, http.StatusBadRequest, resp.Code)

		resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/exports/download?token=good", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, `attachment; filename="2024-03_bill_Maria.csv"`, resp.Header().Get("Content-Disposition"))
		assert.Equal(t, "Total,,,,,,400\n", resp.Body.String())
	})
}

func TestSyncRoutes(t *testing.T) {
	router, deps := newTestRouter(t)

	t.Run("answer requires a choice", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/sync/conflicts/c1", `{}`))
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("overwrite without confirmation", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/sync/conflicts/c1", `{"choice":"overwrite"}`))
		require.Equal(t, http.StatusPreconditionRequired, resp.Code)
	})

	t.Run("unknown conflict", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/sync/conflicts/c1", `{"choice":"cancel"}`))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("answer pending conflict", func(t *testing.T) {
		answered := make(chan models.ConflictChoice, 1)
		go func() {
			choice, _ := deps.broker.Resolve(context.Background(), models.Conflict{ID: "c2", RemoteVersion: "9"})
			answered <- choice
		}()
		require.Eventually(t, func() bool { return len(deps.broker.Pending()) == 1 }, time.Second, 5*time.Millisecond)

		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/sync/conflicts", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"id":"c2"`)

		resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/sync/conflicts/c2", `{"choice":"overwrite","confirmed":true}`))
		require.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, models.ConflictOverwrite, <-answered)
	})

	t.Run("save when not connected", func(t *testing.T) {
		deps.sync.saveErr = appErrors.ErrNotConnected
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/sync/save", nil))
		require.Equal(t, http.StatusPreconditionFailed, resp.Code)
	})

	t.Run("reload", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/sync/reload", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"outcome":"reloaded"`)
	})
}

func TestDataRoutes(t *testing.T) {
	router, deps := newTestRouter(t)

	t.Run("bundle must be an object", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/import/bundle", `[1,2]`))
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, appErrors.ErrImportFailed.Code, decodeEnvelope(t, resp).Error.Code)
		assert.Empty(t, deps.sync.imported)
	})

	t.Run("bundle import", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/import/bundle",
			`{"studentsData":[{"id":"s1","name":"Ana"}],"parentsData":[{"id":"p1","name":"Maria","children":["s1"]}]}`))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"students":1`)
		assert.Contains(t, resp.Body.String(), `"parents":1`)
		require.Len(t, deps.sync.imported, 1)
	})

	t.Run("legacy import", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		part, err := mw.CreateFormFile("students", "students.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(`{"active":[{"id":"a"}],"archived":[{"id":"b","archivedSince":"2024-01"}]}`))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/legacy", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"archived":1`)
		require.Len(t, deps.sync.imported, 2)
	})

	t.Run("legacy import needs a file", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("note", "empty"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/legacy", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("export bundle", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/export/bundle", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Header().Get("Content-Disposition"), "tutor_billing_")
	})

	t.Run("no backup yet", func(t *testing.T) {
		resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/backups/last", nil))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("backup accepted", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/backups", `{"name":"march.json"}`))
		require.Equal(t, http.StatusAccepted, resp.Code)
		assert.Contains(t, resp.Body.String(), `"jobId":"job-1"`)
		assert.Equal(t, []string{"march.json"}, deps.backups.names)
	})

	t.Run("backup without connection", func(t *testing.T) {
		deps.backups.err = appErrors.ErrNotConnected
		resp := performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/backups", nil))
		require.Equal(t, http.StatusPreconditionFailed, resp.Code)
	})
}

func TestRosterRoutes(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := performRequest(router, jsonRequest(http.MethodPut, "/api/v1/students",
		`{"students":[{"id":"s1","name":"Ana","classDays":["Monday"],"sessionLength":1,"hourlyRate":100}]}`))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, deps.store.Students(), 1)

	resp = performRequest(router, jsonRequest(http.MethodPut, "/api/v1/parents", `{"parents":[{"id":"p1","name":"Maria","children":["ghost"]}]}`))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/students/s1/archive", `{"since":"2024-03"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, deps.store.Students())
	require.Len(t, deps.store.ArchivedStudents(), 1)

	resp = performRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/students/s1/restore", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, deps.store.Students(), 1)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/bundle", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"studentsData"`)
}
