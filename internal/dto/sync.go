package dto

import "github.com/noah-isme/tutor-billing/internal/models"

// ConflictAnswerRequest answers a pending conflict prompt. Overwrite must be
// confirmed explicitly.
type ConflictAnswerRequest struct {
	Choice    models.ConflictChoice `json:"choice" binding:"required"`
	Confirmed bool                  `json:"confirmed"`
}

// SyncActionResponse reports the result of an explicit sync action.
type SyncActionResponse struct {
	Outcome models.SyncOutcome `json:"outcome"`
	Status  models.SyncStatus  `json:"status"`
}

// ConflictListResponse lists prompts awaiting an answer.
type ConflictListResponse struct {
	Conflicts []models.Conflict `json:"conflicts"`
}
