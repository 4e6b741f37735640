package dto

import "github.com/noah-isme/tutor-billing/internal/models"

// LoginResponse carries the consent URL for clients that do not follow
// redirects.
type LoginResponse struct {
	URL string `json:"url"`
}

// AuthStatusResponse combines credential and sync state.
type AuthStatusResponse struct {
	Auth models.AuthStatus `json:"auth"`
	Sync models.SyncStatus `json:"sync"`
}
