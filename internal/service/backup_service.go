package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/jobs"
)

const backupJobKind = "drive-backup"

type backupTarget interface {
	Connected() bool
	Backup(ctx context.Context, filename string) (*models.RemoteFileMetadata, error)
}

// BackupConfig tunes the backup queue.
type BackupConfig struct {
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
}

// BackupRecord describes the most recent backup attempt.
type BackupRecord struct {
	JobID     string                     `json:"jobId"`
	Succeeded bool                       `json:"succeeded"`
	File      *models.RemoteFileMetadata `json:"file,omitempty"`
	Error     string                     `json:"error,omitempty"`
	At        time.Time                  `json:"at"`
}

// BackupService writes visible backups through a retrying job queue,
// either on demand or every configured interval.
type BackupService struct {
	target  backupTarget
	queue   *jobs.Queue
	cfg     BackupConfig
	logger  *zap.Logger
	metrics *MetricsService

	mu   sync.RWMutex
	last *BackupRecord
}

// NewBackupService builds the service and its queue. Call Start before
// enqueueing.
func NewBackupService(target backupTarget, cfg BackupConfig, logger *zap.Logger, metrics *MetricsService) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	s := &BackupService{target: target, cfg: cfg, logger: logger, metrics: metrics}
	s.queue = jobs.NewQueue("backups", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			s.metrics.RecordBackup(false)
			s.record(&BackupRecord{JobID: job.ID, Error: err.Error(), At: time.Now()})
		},
	})
	return s
}

// Start launches the queue workers and, when an interval is configured,
// the periodic scheduler.
func (s *BackupService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.Interval > 0 {
		go s.schedule(ctx)
	}
}

// Stop halts the queue.
func (s *BackupService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a backup. An empty filename uses the timestamped
// default name.
func (s *BackupService) Enqueue(filename string) (string, error) {
	if !s.target.Connected() {
		return "", appErrors.ErrNotConnected
	}
	return s.queue.Enqueue(jobs.Job{Kind: backupJobKind, Payload: filename})
}

// Last returns the most recent attempt, or nil.
func (s *BackupService) Last() *BackupRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	record := *s.last
	return &record
}

func (s *BackupService) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.target.Connected() {
				s.logger.Debug("periodic backup skipped, not connected")
				continue
			}
			if _, err := s.Enqueue(""); err != nil {
				s.logger.Warn("periodic backup not queued", zap.Error(err))
			}
		}
	}
}

func (s *BackupService) handle(ctx context.Context, job jobs.Job) error {
	filename, _ := job.Payload.(string)
	meta, err := s.target.Backup(ctx, filename)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotAuthenticated) {
			s.metrics.RecordBackup(false)
			s.record(&BackupRecord{JobID: job.ID, Error: err.Error(), At: time.Now()})
			s.logger.Warn("backup abandoned, not signed in", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	s.metrics.RecordBackup(true)
	s.record(&BackupRecord{JobID: job.ID, Succeeded: true, File: meta, At: time.Now()})
	s.logger.Info("backup written", zap.String("job_id", job.ID), zap.String("name", meta.Name))
	return nil
}

func (s *BackupService) record(r *BackupRecord) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
}
