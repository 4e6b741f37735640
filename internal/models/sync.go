package models

import "time"

// SyncPhase is the save pipeline state.
type SyncPhase string

const (
	SyncPhaseIdle            SyncPhase = "idle"
	SyncPhaseArmed           SyncPhase = "armed"
	SyncPhasePreflight       SyncPhase = "preflight"
	SyncPhaseConflictPending SyncPhase = "conflict_pending"
	SyncPhaseSaving          SyncPhase = "saving"
	SyncPhaseLoading         SyncPhase = "loading"
	SyncPhaseBackingUp       SyncPhase = "backing_up"
)

// SyncOutcome is the result of the most recent pipeline activity.
type SyncOutcome string

const (
	SyncOutcomeNone      SyncOutcome = ""
	SyncOutcomeSaved     SyncOutcome = "saved"
	SyncOutcomeReloaded  SyncOutcome = "reloaded"
	SyncOutcomeCanceled  SyncOutcome = "canceled"
	SyncOutcomeFailed    SyncOutcome = "failed"
	SyncOutcomeSkipped   SyncOutcome = "skipped"
	SyncOutcomeLoaded    SyncOutcome = "loaded"
	SyncOutcomeBackedUp  SyncOutcome = "backed_up"
	SyncOutcomeSignedOut SyncOutcome = "signed_out"
)

// ConflictChoice is the user's answer to a detected remote drift.
type ConflictChoice string

const (
	ConflictReload    ConflictChoice = "reload"
	ConflictOverwrite ConflictChoice = "overwrite"
	ConflictCancel    ConflictChoice = "cancel"
)

// Valid reports whether c is a known choice.
func (c ConflictChoice) Valid() bool {
	switch c {
	case ConflictReload, ConflictOverwrite, ConflictCancel:
		return true
	}
	return false
}

// Conflict describes remote drift detected before a save.
type Conflict struct {
	ID                 string    `json:"id"`
	FileID             string    `json:"fileId"`
	LastSeenVersion    string    `json:"lastSeenVersion"`
	RemoteVersion      string    `json:"remoteVersion"`
	RemoteModifiedTime time.Time `json:"remoteModifiedTime"`
	DetectedAt         time.Time `json:"detectedAt"`
}

// SyncStatus is the user-visible indicator of the save pipeline.
type SyncStatus struct {
	Phase                SyncPhase   `json:"phase"`
	Outcome              SyncOutcome `json:"outcome,omitempty"`
	Message              string      `json:"message"`
	Error                string      `json:"error,omitempty"`
	Connected            bool        `json:"connected"`
	FileID               string      `json:"fileId,omitempty"`
	LastSeenVersion      string      `json:"lastSeenVersion,omitempty"`
	LastSeenModifiedTime *time.Time  `json:"lastSeenModifiedTime,omitempty"`
	Conflict             *Conflict   `json:"conflict,omitempty"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// AuthStatus summarises the Drive credential state.
type AuthStatus struct {
	SignedIn  bool       `json:"signedIn"`
	SignedOut bool       `json:"signedOut"`
	HasGrant  bool       `json:"hasGrant"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
