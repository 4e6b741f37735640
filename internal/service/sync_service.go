package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/state"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/jobs"
)

const statusTimeLayout = "2006-01-02 15:04:05"

type remoteStore interface {
	EnsureFile(ctx context.Context) (*models.RemoteFileMetadata, error)
	Metadata(ctx context.Context, fileID string) (*models.RemoteFileMetadata, error)
	ReadFile(ctx context.Context) ([]byte, *models.RemoteFileMetadata, error)
	WriteFile(ctx context.Context, content []byte, fileID string) (*models.RemoteFileMetadata, error)
	WriteVisibleBackup(ctx context.Context, content []byte, filename string) (*models.RemoteFileMetadata, error)
}

type syncState interface {
	Snapshot() models.Bundle
	Replace(bundle models.Bundle)
	OnUpdate(fn state.UpdateListener)
}

// SyncConfig tunes the save pipeline.
type SyncConfig struct {
	Debounce time.Duration
}

// SyncService debounces state changes into whole-bundle writes of the
// hidden Drive file and guards them with a version check. Cycles never
// overlap: a change arriving mid-cycle arms a fresh debounce window once the
// cycle ends.
type SyncService struct {
	remote   remoteStore
	state    syncState
	codec    *codec.Codec
	resolver ConflictResolver
	logger   *zap.Logger
	metrics  *MetricsService
	task     *jobs.DelayedTask
	now      func() time.Time

	// pipeline serialises everything that talks to the hidden file.
	pipeline sync.Mutex

	mu               sync.Mutex
	meta             *models.RemoteFileMetadata
	lastSeenVersion  string
	lastSeenModified *time.Time
	status           models.SyncStatus
	cycleActive      bool
	rearm            bool

	lmu       sync.RWMutex
	listeners []func(models.SyncStatus)
}

// NewSyncService wires the orchestrator to the state container. ctx bounds
// the lifetime of debounced saves.
func NewSyncService(ctx context.Context, remote remoteStore, st syncState, c *codec.Codec, resolver ConflictResolver, cfg SyncConfig, logger *zap.Logger, metrics *MetricsService) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = codec.New(logger)
	}
	if resolver == nil {
		resolver = FixedResolver(models.ConflictCancel)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 1500 * time.Millisecond
	}
	s := &SyncService{
		remote:   remote,
		state:    st,
		codec:    c,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
	s.status = models.SyncStatus{Phase: models.SyncPhaseIdle, Message: "Not connected to Drive.", UpdatedAt: s.now().UTC()}
	s.task = jobs.NewDelayedTask(ctx, "drive-save", cfg.Debounce, func(ctx context.Context) {
		_, _ = s.runCycle(ctx)
	}, logger)
	st.OnUpdate(func(string) { s.RequestSave() })
	return s
}

// OnStatus registers a listener for status transitions.
func (s *SyncService) OnStatus(fn func(models.SyncStatus)) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Status returns the current status indicator.
func (s *SyncService) Status() models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotStatusLocked()
}

// Connected reports whether the hidden file has been loaded.
func (s *SyncService) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta != nil
}

// LastSeenVersion returns the remote version observed by the last load or save.
func (s *SyncService) LastSeenVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeenVersion
}

// RequestSave arms the debounced save. It is a no-op until the hidden file
// is loaded.
func (s *SyncService) RequestSave() {
	s.mu.Lock()
	if s.meta == nil {
		s.mu.Unlock()
		return
	}
	if s.cycleActive {
		s.rearm = true
		s.mu.Unlock()
		return
	}
	s.setStatusLocked(models.SyncPhaseArmed, models.SyncOutcomeNone, "Changes pending…", nil, nil)
	status := s.snapshotStatusLocked()
	s.mu.Unlock()

	s.task.Arm()
	s.metrics.SetPendingSave(true)
	s.publish(status)
}

// Load ensures the hidden file exists, reads it and replaces the in-memory
// state with its content.
func (s *SyncService) Load(ctx context.Context) error {
	s.pipeline.Lock()
	defer s.pipeline.Unlock()

	s.transition(models.SyncPhaseLoading, models.SyncOutcomeNone, "Loading from Drive…", nil, nil)
	_, err := s.loadLocked(ctx, models.SyncOutcomeLoaded, "Loaded from Drive")
	return err
}

// Reload discards unsaved local changes and replaces the state with the
// Drive copy.
func (s *SyncService) Reload(ctx context.Context) error {
	if !s.Connected() {
		return appErrors.ErrNotConnected
	}
	s.pipeline.Lock()
	defer s.pipeline.Unlock()

	s.transition(models.SyncPhaseLoading, models.SyncOutcomeNone, "Loading from Drive…", nil, nil)
	_, err := s.loadLocked(ctx, models.SyncOutcomeReloaded, "Reloaded cloud version")
	return err
}

// SaveNow runs a save cycle immediately, dropping any pending debounce.
func (s *SyncService) SaveNow(ctx context.Context) (models.SyncOutcome, error) {
	if !s.Connected() {
		return models.SyncOutcomeSkipped, appErrors.ErrNotConnected
	}
	if s.task.Cancel() {
		s.metrics.SetPendingSave(false)
	}
	return s.runCycle(ctx)
}

// Import replaces the state with bundle and saves it when connected.
func (s *SyncService) Import(ctx context.Context, bundle models.Bundle) (models.SyncOutcome, error) {
	s.state.Replace(bundle)
	if !s.Connected() {
		s.transition(models.SyncPhaseIdle, models.SyncOutcomeSkipped, "Imported bundle; not connected to Drive.", nil, nil)
		return models.SyncOutcomeSkipped, nil
	}
	s.transition(models.SyncPhaseSaving, models.SyncOutcomeNone, "Imported bundle; saving to Drive…", nil, nil)
	return s.SaveNow(ctx)
}

// Backup writes the current state as a new visible file.
func (s *SyncService) Backup(ctx context.Context, filename string) (*models.RemoteFileMetadata, error) {
	s.pipeline.Lock()
	defer s.pipeline.Unlock()

	s.transition(models.SyncPhaseBackingUp, models.SyncOutcomeNone, "Backing up to My Drive…", nil, nil)
	content, err := s.codec.Encode(s.state.Snapshot())
	if err != nil {
		s.fail("Backup failed.", err)
		return nil, err
	}
	meta, err := s.remote.WriteVisibleBackup(ctx, content, filename)
	if err != nil {
		s.fail("Backup failed.", err)
		return nil, err
	}
	s.transition(models.SyncPhaseIdle, models.SyncOutcomeBackedUp,
		fmt.Sprintf("Backup saved to My Drive: %s (%s)", meta.Name, s.stamp(meta.ModifiedTime)), nil, nil)
	return meta, nil
}

// Disconnect forgets the hidden file and drops any pending save.
func (s *SyncService) Disconnect() {
	if s.task.Cancel() {
		s.metrics.SetPendingSave(false)
	}
	s.mu.Lock()
	s.meta = nil
	s.lastSeenVersion = ""
	s.lastSeenModified = nil
	s.rearm = false
	s.setStatusLocked(models.SyncPhaseIdle, models.SyncOutcomeSignedOut, "Signed out of Drive.", nil, nil)
	status := s.snapshotStatusLocked()
	s.mu.Unlock()
	s.publish(status)
}

// Close stops the debounce timer.
func (s *SyncService) Close() {
	s.task.Close()
}

func (s *SyncService) runCycle(ctx context.Context) (models.SyncOutcome, error) {
	s.pipeline.Lock()
	defer s.pipeline.Unlock()

	s.mu.Lock()
	if s.meta == nil {
		s.mu.Unlock()
		return models.SyncOutcomeSkipped, nil
	}
	s.cycleActive = true
	s.rearm = false
	s.mu.Unlock()
	s.metrics.SetPendingSave(false)

	outcome, err := s.cycle(ctx)

	s.mu.Lock()
	s.cycleActive = false
	rearm := s.rearm && s.meta != nil
	s.rearm = false
	s.mu.Unlock()

	s.metrics.RecordSyncCycle(outcome)
	if rearm {
		s.RequestSave()
	}
	return outcome, err
}

func (s *SyncService) cycle(ctx context.Context) (models.SyncOutcome, error) {
	s.mu.Lock()
	fileID := s.meta.ID
	lastSeen := s.lastSeenVersion
	s.mu.Unlock()

	s.transition(models.SyncPhasePreflight, models.SyncOutcomeNone, "Checking Drive for changes…", nil, nil)
	fresh, err := s.remote.Metadata(ctx, fileID)
	if err != nil {
		s.fail("Save failed…", err)
		return models.SyncOutcomeFailed, err
	}

	// A remote that reports no version cannot be compared and is not drift.
	if lastSeen != "" && fresh.Version != "" && fresh.Version != lastSeen {
		conflict := models.Conflict{
			ID:                 uuid.NewString(),
			FileID:             fileID,
			LastSeenVersion:    lastSeen,
			RemoteVersion:      fresh.Version,
			RemoteModifiedTime: fresh.ModifiedTime,
			DetectedAt:         s.now().UTC(),
		}
		s.logger.Info("remote drift detected",
			zap.String("conflict_id", conflict.ID),
			zap.String("last_seen_version", lastSeen),
			zap.String("remote_version", fresh.Version))
		s.transition(models.SyncPhaseConflictPending, models.SyncOutcomeNone, "Conflict detected.", &conflict, nil)

		choice, err := s.resolver.Resolve(ctx, conflict)
		if err != nil || !choice.Valid() {
			s.logger.Warn("conflict resolution failed, canceling save", zap.Error(err), zap.String("choice", string(choice)))
			choice = models.ConflictCancel
		}
		s.metrics.RecordConflict(choice)

		switch choice {
		case models.ConflictReload:
			s.transition(models.SyncPhaseLoading, models.SyncOutcomeNone, "Loading from Drive…", nil, nil)
			return s.loadLocked(ctx, models.SyncOutcomeReloaded, "Reloaded cloud version")
		case models.ConflictCancel:
			s.transition(models.SyncPhaseIdle, models.SyncOutcomeCanceled, "Save canceled due to conflict.", nil, nil)
			return models.SyncOutcomeCanceled, nil
		}
	}

	return s.save(ctx, fileID)
}

func (s *SyncService) save(ctx context.Context, fileID string) (models.SyncOutcome, error) {
	s.transition(models.SyncPhaseSaving, models.SyncOutcomeNone, "Saving…", nil, nil)
	content, err := s.codec.Encode(s.state.Snapshot())
	if err != nil {
		s.fail("Save failed…", err)
		return models.SyncOutcomeFailed, err
	}
	written, err := s.remote.WriteFile(ctx, content, fileID)
	if err != nil {
		s.fail("Save failed…", err)
		return models.SyncOutcomeFailed, err
	}

	s.mu.Lock()
	s.adoptLocked(written)
	s.setStatusLocked(models.SyncPhaseIdle, models.SyncOutcomeSaved, "Saved: "+s.stamp(written.ModifiedTime), nil, nil)
	status := s.snapshotStatusLocked()
	s.mu.Unlock()
	s.publish(status)
	s.logger.Info("bundle saved", zap.String("file_id", written.ID), zap.String("version", written.Version))
	return models.SyncOutcomeSaved, nil
}

// loadLocked reads the hidden file and replaces the state. The caller holds
// the pipeline lock.
func (s *SyncService) loadLocked(ctx context.Context, outcome models.SyncOutcome, label string) (models.SyncOutcome, error) {
	failure := "Load failed…"
	if outcome == models.SyncOutcomeReloaded {
		failure = "Reload failed…"
	}
	raw, meta, err := s.remote.ReadFile(ctx)
	if err != nil {
		s.fail(failure, err)
		return models.SyncOutcomeFailed, err
	}
	bundle := s.codec.Decode(raw)

	if s.task.Cancel() {
		s.metrics.SetPendingSave(false)
	}
	s.mu.Lock()
	s.adoptLocked(meta)
	s.rearm = false
	s.mu.Unlock()

	s.state.Replace(bundle)

	s.transition(models.SyncPhaseIdle, outcome, fmt.Sprintf("%s (%s)", label, s.stamp(meta.ModifiedTime)), nil, nil)
	s.logger.Info("bundle loaded", zap.String("file_id", meta.ID), zap.String("version", meta.Version), zap.String("outcome", string(outcome)))
	return outcome, nil
}

func (s *SyncService) adoptLocked(meta *models.RemoteFileMetadata) {
	copied := *meta
	s.meta = &copied
	s.lastSeenVersion = meta.Version
	if meta.ModifiedTime.IsZero() {
		s.lastSeenModified = nil
		return
	}
	modified := meta.ModifiedTime
	s.lastSeenModified = &modified
}

func (s *SyncService) fail(message string, err error) {
	detail := err.Error()
	if errors.Is(err, appErrors.ErrNotAuthenticated) {
		detail = "not signed in"
	}
	s.logger.Error("sync pipeline failed", zap.String("status", message), zap.Error(err))
	s.transition(models.SyncPhaseIdle, models.SyncOutcomeFailed, message, nil, &detail)
}

func (s *SyncService) transition(phase models.SyncPhase, outcome models.SyncOutcome, message string, conflict *models.Conflict, detail *string) {
	s.mu.Lock()
	s.setStatusLocked(phase, outcome, message, conflict, detail)
	status := s.snapshotStatusLocked()
	s.mu.Unlock()
	s.publish(status)
}

func (s *SyncService) setStatusLocked(phase models.SyncPhase, outcome models.SyncOutcome, message string, conflict *models.Conflict, detail *string) {
	s.status.Phase = phase
	s.status.Outcome = outcome
	s.status.Message = message
	s.status.Conflict = conflict
	s.status.Error = ""
	if detail != nil {
		s.status.Error = *detail
	}
	s.status.UpdatedAt = s.now().UTC()
}

func (s *SyncService) snapshotStatusLocked() models.SyncStatus {
	status := s.status
	status.Connected = s.meta != nil
	status.FileID = ""
	if s.meta != nil {
		status.FileID = s.meta.ID
	}
	status.LastSeenVersion = s.lastSeenVersion
	status.LastSeenModifiedTime = nil
	if s.lastSeenModified != nil {
		modified := *s.lastSeenModified
		status.LastSeenModifiedTime = &modified
	}
	if s.status.Conflict != nil {
		conflict := *s.status.Conflict
		status.Conflict = &conflict
	}
	return status
}

func (s *SyncService) publish(status models.SyncStatus) {
	s.lmu.RLock()
	listeners := append(([]func(models.SyncStatus))(nil), s.listeners...)
	s.lmu.RUnlock()
	for _, fn := range listeners {
		fn(status)
	}
}

func (s *SyncService) stamp(t time.Time) string {
	if t.IsZero() {
		t = s.now()
	}
	return t.Local().Format(statusTimeLayout)
}
