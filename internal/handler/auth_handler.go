package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/dto"
	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

type credentialProvider interface {
	AuthCodeURL() (string, error)
	CompleteSignIn(ctx context.Context, code, state string) error
	SignOut(ctx context.Context) error
	Status() models.AuthStatus
}

type syncSession interface {
	Load(ctx context.Context) error
	Disconnect()
	Status() models.SyncStatus
}

// AuthHandler drives the Drive consent flow.
type AuthHandler struct {
	credentials credentialProvider
	sync        syncSession
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(credentials credentialProvider, sync syncSession) *AuthHandler {
	return &AuthHandler{credentials: credentials, sync: sync}
}

// Login godoc
// @Summary Start Drive sign-in
// @Description Redirects to the consent screen. Pass redirect=false to receive the URL instead.
// @Tags Auth
// @Produce json
// @Param redirect query bool false "Follow redirect"
// @Success 302
// @Success 200 {object} response.Envelope
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url, err := h.credentials.AuthCodeURL()
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("redirect") == "false" {
		response.JSON(c, http.StatusOK, dto.LoginResponse{URL: url}, nil)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback godoc
// @Summary Complete Drive sign-in
// @Description Exchanges the authorization code, then loads the bundle from Drive.
// @Tags Auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotAuthenticated, "consent not granted: "+reason))
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "code is required"))
		return
	}
	// The browser may leave the callback page before Drive answers; the
	// exchange and first load must finish regardless.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.credentials.CompleteSignIn(ctx, code, c.Query("state")); err != nil {
		response.Error(c, err)
		return
	}
	// A failed load is reported through the sync status.
	_ = h.sync.Load(ctx)
	response.JSON(c, http.StatusOK, dto.AuthStatusResponse{
		Auth: h.credentials.Status(),
		Sync: h.sync.Status(),
	}, nil)
}

// Logout godoc
// @Summary Sign out of Drive
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.credentials.SignOut(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.sync.Disconnect()
	response.JSON(c, http.StatusOK, dto.AuthStatusResponse{
		Auth: h.credentials.Status(),
		Sync: h.sync.Status(),
	}, nil)
}

// Status godoc
// @Summary Credential and sync status
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.AuthStatusResponse{
		Auth: h.credentials.Status(),
		Sync: h.sync.Status(),
	}, nil)
}
