package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

type rosterService interface {
	ReplaceStudents(req service.ReplaceStudentsRequest) ([]models.Student, error)
	ReplaceArchivedStudents(req service.ReplaceStudentsRequest) ([]models.Student, error)
	ReplaceParents(req service.ReplaceParentsRequest) ([]models.Parent, error)
	ArchiveStudent(id string, req service.ArchiveStudentRequest) (*models.Student, error)
	RestoreStudent(id string) (*models.Student, error)
}

type bundleReader interface {
	Snapshot() models.Bundle
}

// RosterHandler exposes the business collections.
type RosterHandler struct {
	roster rosterService
	state  bundleReader
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster rosterService, state bundleReader) *RosterHandler {
	return &RosterHandler{roster: roster, state: state}
}

// Bundle godoc
// @Summary Current in-memory bundle
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bundle [get]
func (h *RosterHandler) Bundle(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.state.Snapshot(), nil)
}

// ReplaceStudents godoc
// @Summary Replace active students
// @Description Students without an id receive a generated one. Triggers a debounced save.
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.ReplaceStudentsRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /students [put]
func (h *RosterHandler) ReplaceStudents(c *gin.Context) {
	var req service.ReplaceStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	students, err := h.roster.ReplaceStudents(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ReplaceArchivedStudents godoc
// @Summary Replace archived students
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.ReplaceStudentsRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /students/archived [put]
func (h *RosterHandler) ReplaceArchivedStudents(c *gin.Context) {
	var req service.ReplaceStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	students, err := h.roster.ReplaceArchivedStudents(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ReplaceParents godoc
// @Summary Replace parents
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.ReplaceParentsRequest true "Parents"
// @Success 200 {object} response.Envelope
// @Router /parents [put]
func (h *RosterHandler) ReplaceParents(c *gin.Context) {
	var req service.ReplaceParentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	parents, err := h.roster.ReplaceParents(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, nil)
}

// Archive godoc
// @Summary Archive a student
// @Description keepDates lists the sessions of the archive month to keep; omit it to keep all.
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.ArchiveStudentRequest true "Archive request"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/archive [post]
func (h *RosterHandler) Archive(c *gin.Context) {
	var req service.ArchiveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.roster.ArchiveStudent(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Restore godoc
// @Summary Restore an archived student
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/restore [post]
func (h *RosterHandler) Restore(c *gin.Context) {
	student, err := h.roster.RestoreStudent(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
