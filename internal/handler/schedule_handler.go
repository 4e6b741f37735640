package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/dto"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

type scheduleService interface {
	Month(key string) (models.StudentSchedules, error)
	Generate(key string, req service.GenerateScheduleRequest) ([]string, error)
	CancelSession(key, studentID string, req service.CancelSessionRequest) (*models.ClassSession, error)
	UncancelSession(key, studentID string, req service.UncancelSessionRequest) (*models.ClassSession, error)
	SetTimeModified(key, studentID string, req service.TimeModifiedRequest) (*models.ClassSession, error)
	MarkDaysOff(req service.DaysOffRequest) (*service.DaysOffResult, error)
}

// ScheduleHandler exposes monthly schedules.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Month godoc
// @Summary Schedules of one month
// @Tags Schedules
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{month} [get]
func (h *ScheduleHandler) Month(c *gin.Context) {
	month, err := h.schedules.Month(c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, month, nil)
}

// Generate godoc
// @Summary Generate schedules from class days
// @Tags Schedules
// @Accept json
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param payload body service.GenerateScheduleRequest false "Students and overwrite flag"
// @Success 200 {object} response.Envelope
// @Router /schedules/{month}/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req service.GenerateScheduleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	month := c.Param("month")
	written, err := h.schedules.Generate(month, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GenerateScheduleResponse{Month: month, StudentIDs: written}, nil)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param studentId path string true "Student ID"
// @Param payload body service.CancelSessionRequest true "Cancellation"
// @Success 200 {object} response.Envelope
// @Router /schedules/{month}/students/{studentId}/sessions/cancel [post]
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	var req service.CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.schedules.CancelSession(c.Param("month"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Uncancel godoc
// @Summary Restore a canceled session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param studentId path string true "Student ID"
// @Param payload body service.UncancelSessionRequest true "Session"
// @Success 200 {object} response.Envelope
// @Router /schedules/{month}/students/{studentId}/sessions/uncancel [post]
func (h *ScheduleHandler) Uncancel(c *gin.Context) {
	var req service.UncancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.schedules.UncancelSession(c.Param("month"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// TimeModified godoc
// @Summary Adjust the billed hours of a session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param month path string true "Month (YYYY-MM)"
// @Param studentId path string true "Student ID"
// @Param payload body service.TimeModifiedRequest true "Adjustment"
// @Success 200 {object} response.Envelope
// @Router /schedules/{month}/students/{studentId}/sessions/time [post]
func (h *ScheduleHandler) TimeModified(c *gin.Context) {
	var req service.TimeModifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.schedules.SetTimeModified(c.Param("month"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// DaysOff godoc
// @Summary Cancel every session in a date range
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.DaysOffRequest true "Range and students"
// @Success 200 {object} response.Envelope
// @Router /schedules/days-off [post]
func (h *ScheduleHandler) DaysOff(c *gin.Context) {
	var req service.DaysOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.schedules.MarkDaysOff(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
