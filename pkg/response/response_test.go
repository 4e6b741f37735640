package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.ErrNotConnected)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotConnected.Code, env.Error.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAttachmentSanitisesFilename(t *testing.T) {
	c, rec := newContext()
	Attachment(c, "bill \"March\"\r\n.csv", "", []byte("a,b\n"))

	assert.Equal(t, `attachment; filename="bill March.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestAttachmentFromReader(t *testing.T) {
	c, rec := newContext()
	body := "%PDF-1.3"
	AttachmentFromReader(c, "2024-03_bill.pdf", "application/pdf", int64(len(body)), strings.NewReader(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="2024-03_bill.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, body, rec.Body.String())
}
