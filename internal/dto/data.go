package dto

import (
	"github.com/noah-isme/tutor-billing/internal/models"
)

// ImportResponse reports how an import was applied.
type ImportResponse struct {
	Outcome  models.SyncOutcome `json:"outcome"`
	Students int                `json:"students"`
	Archived int                `json:"archived"`
	Parents  int                `json:"parents"`
	Months   int                `json:"months"`
	Status   models.SyncStatus  `json:"status"`
}

// BackupRequest names a manual backup. Empty uses a timestamped name.
type BackupRequest struct {
	Name string `json:"name"`
}

// BackupJobResponse is returned after enqueueing a backup.
type BackupJobResponse struct {
	JobID string `json:"jobId"`
}

// MirrorKeysResponse lists stored mirror keys.
type MirrorKeysResponse struct {
	Keys []string `json:"keys"`
}

// ExportBillRequest selects the rendered bill format.
type ExportBillRequest struct {
	Format string `json:"format" binding:"omitempty,oneof=pdf csv"`
}

// GenerateScheduleResponse lists students whose schedule was written.
type GenerateScheduleResponse struct {
	Month      string   `json:"month"`
	StudentIDs []string `json:"studentIds"`
}
