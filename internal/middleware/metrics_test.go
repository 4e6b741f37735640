package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutor-billing/internal/service"
)

func TestMetricsSkipsLongLivedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewMetricsService()

	r := gin.New()
	r.Use(Metrics(svc, "/api/v1/sync/ws"))
	r.GET("/api/v1/sync/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/sync/ws", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/sync/status", "/api/v1/sync/ws", "/api/v1/sync/status", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(3), svc.Snapshot().RequestsTotal)
}

func TestMetricsWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
