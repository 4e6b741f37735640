package handler

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/dto"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
	"github.com/noah-isme/tutor-billing/pkg/storage"
)

type billingService interface {
	StudentCharge(month, studentID string, tempModifier float64) (*models.ChargeSummary, error)
	ParentBill(month, parentID string) (*models.ParentBill, error)
	Review(month string) (*models.MonthReview, error)
	RangeReview(from, to string) (*models.RangeReview, error)
}

type billExporter interface {
	ExportParentBill(month, parentID string, format service.ExportFormat) (*service.ExportResult, error)
	ParseToken(token string) (storage.SignedLink, error)
	Open(relPath string) (*os.File, error)
}

// BillingHandler exposes charges, reviews and bill exports.
type BillingHandler struct {
	billing billingService
	exports billExporter
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(billing billingService, exports billExporter) *BillingHandler {
	return &BillingHandler{billing: billing, exports: exports}
}

// StudentCharge godoc
// @Summary Charge of one student for a month
// @Tags Billing
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param id path string true "Student ID"
// @Param tempModifier query number false "One-off adjustment"
// @Success 200 {object} response.Envelope
// @Router /billing/{month}/students/{id} [get]
func (h *BillingHandler) StudentCharge(c *gin.Context) {
	var temp float64
	if raw := strings.TrimSpace(c.Query("tempModifier")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tempModifier must be a number"))
			return
		}
		temp = v
	}
	summary, err := h.billing.StudentCharge(c.Param("month"), c.Param("id"), temp)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ParentBill godoc
// @Summary Monthly bill of a parent
// @Tags Billing
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /billing/{month}/parents/{id} [get]
func (h *BillingHandler) ParentBill(c *gin.Context) {
	bill, err := h.billing.ParentBill(c.Param("month"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bill, nil)
}

// Review godoc
// @Summary Expected versus actual charges for a month
// @Tags Billing
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /billing/{month}/review [get]
func (h *BillingHandler) Review(c *gin.Context) {
	review, err := h.billing.Review(c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// RangeReview godoc
// @Summary Expected versus actual charges over a month range
// @Tags Billing
// @Produce json
// @Param from query string true "First month (YYYY-MM)"
// @Param to query string true "Last month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /billing/review [get]
func (h *BillingHandler) RangeReview(c *gin.Context) {
	review, err := h.billing.RangeReview(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// ExportBill godoc
// @Summary Render a parent bill
// @Tags Billing
// @Accept json
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param id path string true "Parent ID"
// @Param payload body dto.ExportBillRequest false "Format (pdf or csv)"
// @Success 201 {object} response.Envelope
// @Router /billing/{month}/parents/{id}/export [post]
func (h *BillingHandler) ExportBill(c *gin.Context) {
	var req dto.ExportBillRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	format := service.ExportFormat(strings.ToLower(req.Format))
	if format == "" {
		format = service.ExportFormatPDF
	}
	result, err := h.exports.ExportParentBill(c.Param("month"), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// Download godoc
// @Summary Download a rendered bill
// @Tags Billing
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /exports/download [get]
func (h *BillingHandler) Download(c *gin.Context) {
	link, err := h.exports.ParseToken(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	f, err := h.exports.Open(link.Path)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	name := filepath.Base(link.Path)
	response.AttachmentFromReader(c, name, mime.TypeByExtension(filepath.Ext(name)), info.Size(), f)
}
