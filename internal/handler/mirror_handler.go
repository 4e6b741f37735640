package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/dto"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

const maxMirrorValueBytes = 16 << 20

type mirrorService interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, confirm bool) error
}

// MirrorHandler exposes the local key-value mirror.
type MirrorHandler struct {
	mirror mirrorService
}

// NewMirrorHandler constructs MirrorHandler.
func NewMirrorHandler(mirror mirrorService) *MirrorHandler {
	return &MirrorHandler{mirror: mirror}
}

// Keys godoc
// @Summary List mirror keys
// @Tags Mirror
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mirror [get]
func (h *MirrorHandler) Keys(c *gin.Context) {
	keys, err := h.mirror.Keys(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MirrorKeysResponse{Keys: keys}, nil)
}

// Get godoc
// @Summary Read a mirror value
// @Description Returns the stored value verbatim.
// @Tags Mirror
// @Produce json
// @Param key path string true "Mirror key"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /mirror/{key} [get]
func (h *MirrorHandler) Get(c *gin.Context) {
	value, err := h.mirror.GetItem(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/json", value)
}

// Set godoc
// @Summary Write a mirror value
// @Description Writes to the four business keys are applied to the in-memory state and trigger a save.
// @Tags Mirror
// @Accept json
// @Param key path string true "Mirror key"
// @Success 204
// @Router /mirror/{key} [put]
func (h *MirrorHandler) Set(c *gin.Context) {
	value, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMirrorValueBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read body"))
		return
	}
	if len(value) > maxMirrorValueBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "value too large"))
		return
	}
	if err := h.mirror.SetItem(c.Request.Context(), c.Param("key"), value); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Remove every mirror key
// @Tags Mirror
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 428 {object} response.Envelope
// @Router /mirror [delete]
func (h *MirrorHandler) Clear(c *gin.Context) {
	if err := h.mirror.Clear(c.Request.Context(), c.Query("confirm") == "true"); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
