package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/state"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

type mirrorStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

type mirrorState interface {
	UpdateStudents(students []models.Student)
	UpdateArchivedStudents(students []models.Student)
	UpdateParents(parents []models.Parent)
	UpdateMonths(months models.MonthlySchedules)
	Collection(key string) (interface{}, bool)
	OnUpdate(fn state.UpdateListener)
	OnReplace(fn state.ReplaceListener)
}

const (
	mirrorWriteTimeout = 5 * time.Second
	// Writes still in flight when a watcher event is handled must all be
	// recognised as our own; this bounds how far behind the watcher may lag.
	selfWriteHistory = 64
)

// selfWrites remembers digests of the values this process wrote per key.
type selfWrites struct {
	mu     sync.Mutex
	recent map[string][][sha256.Size]byte
}

func (w *selfWrites) record(key string, value []byte) {
	sum := sha256.Sum256(bytes.TrimSpace(value))
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.recent == nil {
		w.recent = make(map[string][][sha256.Size]byte)
	}
	history := append(w.recent[key], sum)
	if len(history) > selfWriteHistory {
		history = history[len(history)-selfWriteHistory:]
	}
	w.recent[key] = history
}

func (w *selfWrites) contains(key string, value []byte) bool {
	sum := sha256.Sum256(bytes.TrimSpace(value))
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, seen := range w.recent[key] {
		if seen == sum {
			return true
		}
	}
	return false
}

// MirrorService keeps the local key-value mirror in step with the in-memory
// state. Writes to the four business keys flow into the state through its
// update entry points; state changes are written back to the mirror.
type MirrorService struct {
	store      mirrorStore
	state      mirrorState
	codec      *codec.Codec
	logger     *zap.Logger
	metrics    *MetricsService
	suppressed atomic.Bool
	written    selfWrites

	saveMu      sync.RWMutex
	saveRequest func()
}

// NewMirrorService wires the mirror to the state container.
func NewMirrorService(store mirrorStore, st mirrorState, c *codec.Codec, logger *zap.Logger, metrics *MetricsService) *MirrorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = codec.New(logger)
	}
	m := &MirrorService{store: store, state: st, codec: c, logger: logger, metrics: metrics}
	st.OnUpdate(m.writeThrough)
	st.OnReplace(func(bundle models.Bundle) {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
		defer cancel()
		if err := m.Seed(ctx, bundle); err != nil {
			m.logger.Warn("mirror seed failed", zap.Error(err))
		}
	})
	return m
}

// OnSaveRequest registers fn to arm a save for writes to a business key that
// could not be applied to the state.
func (m *MirrorService) OnSaveRequest(fn func()) {
	m.saveMu.Lock()
	m.saveRequest = fn
	m.saveMu.Unlock()
}

// Suppressed reports whether a bulk seed is in progress.
func (m *MirrorService) Suppressed() bool {
	return m.suppressed.Load()
}

// SetItem writes value under key. Values for the business keys are decoded
// and applied to the state unless a seed is in progress; malformed values
// are stored and leave the state untouched but still arm a save.
func (m *MirrorService) SetItem(ctx context.Context, key string, value []byte) error {
	m.written.record(key, value)
	if err := m.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("mirror set %s: %w", key, err)
	}
	m.metrics.RecordMirrorWrite(key)
	if !models.IsMirrorKey(key) || m.suppressed.Load() {
		return nil
	}
	if !m.apply(key, value) {
		m.requestSave()
	}
	return nil
}

// GetItem returns the raw mirrored value.
func (m *MirrorService) GetItem(ctx context.Context, key string) ([]byte, error) {
	return m.store.Get(ctx, key)
}

// Keys lists the mirrored keys.
func (m *MirrorService) Keys(ctx context.Context) ([]string, error) {
	return m.store.Keys(ctx)
}

// Clear wipes the mirror. It refuses without explicit confirmation.
func (m *MirrorService) Clear(ctx context.Context, confirm bool) error {
	if !confirm {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "clearing the local mirror requires confirm=true")
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	m.logger.Info("local mirror cleared")
	return nil
}

// Seed writes the four business keys from bundle with mirror-triggered
// state updates suppressed.
func (m *MirrorService) Seed(ctx context.Context, bundle models.Bundle) error {
	m.suppressed.Store(true)
	defer m.suppressed.Store(false)

	values := map[string]interface{}{
		models.MirrorKeyStudents:         bundle.StudentsData,
		models.MirrorKeyArchivedStudents: bundle.ArchivedStudentsData,
		models.MirrorKeyParents:          bundle.ParentsData,
		models.MirrorKeySchedules:        bundle.Months,
	}
	for _, key := range models.MirrorKeys {
		payload, err := json.Marshal(values[key])
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		m.written.record(key, payload)
		if err := m.store.Set(ctx, key, payload); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
		m.metrics.RecordMirrorWrite(key)
	}
	return nil
}

// ApplyExternal handles a value that was changed behind the service's back
// (for example a hand-edited mirror file). Values this process wrote itself
// are ignored, however stale. It reports whether the state changed.
func (m *MirrorService) ApplyExternal(key string, value []byte) bool {
	if !models.IsMirrorKey(key) || m.suppressed.Load() {
		return false
	}
	if m.written.contains(key, value) || m.matchesState(key, value) {
		return false
	}
	return m.apply(key, value)
}

func (m *MirrorService) apply(key string, value []byte) bool {
	trimmed := bytes.TrimSpace(value)
	if !json.Valid(trimmed) {
		m.logger.Warn("ignoring malformed mirror value", zap.String("key", key))
		return false
	}
	wantObject := key == models.MirrorKeySchedules
	if len(trimmed) == 0 || (wantObject && trimmed[0] != '{') || (!wantObject && trimmed[0] != '[') {
		m.logger.Warn("ignoring mirror value with unexpected shape", zap.String("key", key))
		return false
	}

	switch key {
	case models.MirrorKeyStudents:
		m.state.UpdateStudents(m.codec.DecodeStudents(trimmed))
	case models.MirrorKeyArchivedStudents:
		m.state.UpdateArchivedStudents(m.codec.DecodeStudents(trimmed))
	case models.MirrorKeyParents:
		m.state.UpdateParents(m.codec.DecodeParents(trimmed))
	case models.MirrorKeySchedules:
		m.state.UpdateMonths(m.codec.DecodeMonths(trimmed))
	}
	return true
}

func (m *MirrorService) writeThrough(key string) {
	value, ok := m.state.Collection(key)
	if !ok {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		m.logger.Error("failed to encode mirror value", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()
	m.written.record(key, payload)
	if err := m.store.Set(ctx, key, payload); err != nil {
		m.logger.Warn("mirror write-through failed", zap.String("key", key), zap.Error(err))
		return
	}
	m.metrics.RecordMirrorWrite(key)
}

func (m *MirrorService) requestSave() {
	m.saveMu.RLock()
	fn := m.saveRequest
	m.saveMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (m *MirrorService) matchesState(key string, value []byte) bool {
	current, ok := m.state.Collection(key)
	if !ok {
		return false
	}
	encoded, err := json.Marshal(current)
	if err != nil {
		return false
	}
	var a, b interface{}
	if json.Unmarshal(encoded, &a) != nil || json.Unmarshal(value, &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
