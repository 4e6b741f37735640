package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/dto"
	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

type syncController interface {
	Status() models.SyncStatus
	SaveNow(ctx context.Context) (models.SyncOutcome, error)
	Reload(ctx context.Context) error
}

type conflictPrompts interface {
	Pending() []models.Conflict
	Answer(id string, choice models.ConflictChoice, confirmed bool) error
}

// SyncHandler exposes the save pipeline.
type SyncHandler struct {
	sync      syncController
	conflicts conflictPrompts
	hub       *StatusHub
}

// NewSyncHandler constructs SyncHandler.
func NewSyncHandler(sync syncController, conflicts conflictPrompts, hub *StatusHub) *SyncHandler {
	return &SyncHandler{sync: sync, conflicts: conflicts, hub: hub}
}

// Status godoc
// @Summary Current sync status
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.sync.Status(), nil)
}

// Stream godoc
// @Summary Stream sync status over a websocket
// @Tags Sync
// @Router /sync/ws [get]
func (h *SyncHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status stream not configured"))
		return
	}
	h.hub.Serve(c.Writer, c.Request)
}

// Conflicts godoc
// @Summary List unanswered conflict prompts
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/conflicts [get]
func (h *SyncHandler) Conflicts(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.ConflictListResponse{Conflicts: h.conflicts.Pending()}, nil)
}

// Answer godoc
// @Summary Answer a conflict prompt
// @Description Overwrite replaces the newer copy on Drive and requires confirmed=true.
// @Tags Sync
// @Accept json
// @Produce json
// @Param id path string true "Conflict ID"
// @Param payload body dto.ConflictAnswerRequest true "Choice"
// @Success 204
// @Failure 428 {object} response.Envelope
// @Router /sync/conflicts/{id} [post]
func (h *SyncHandler) Answer(c *gin.Context) {
	var req dto.ConflictAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.conflicts.Answer(c.Param("id"), req.Choice, req.Confirmed); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Save godoc
// @Summary Save to Drive now
// @Description Runs one check-and-save cycle. Blocks while a conflict prompt is open.
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/save [post]
func (h *SyncHandler) Save(c *gin.Context) {
	outcome, err := h.sync.SaveNow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SyncActionResponse{Outcome: outcome, Status: h.sync.Status()}, nil)
}

// Reload godoc
// @Summary Reload the bundle from Drive
// @Description Replaces local state with the Drive copy and drops any pending save.
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/reload [post]
func (h *SyncHandler) Reload(c *gin.Context) {
	if err := h.sync.Reload(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SyncActionResponse{Outcome: models.SyncOutcomeReloaded, Status: h.sync.Status()}, nil)
}
