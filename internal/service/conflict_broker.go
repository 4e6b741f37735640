package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// ConflictResolver asks the user how to handle remote drift. The save
// pipeline is suspended until it returns.
type ConflictResolver interface {
	Resolve(ctx context.Context, conflict models.Conflict) (models.ConflictChoice, error)
}

// ResolverFunc adapts a function to ConflictResolver.
type ResolverFunc func(ctx context.Context, conflict models.Conflict) (models.ConflictChoice, error)

// Resolve implements ConflictResolver.
func (f ResolverFunc) Resolve(ctx context.Context, conflict models.Conflict) (models.ConflictChoice, error) {
	return f(ctx, conflict)
}

// FixedResolver always answers choice.
func FixedResolver(choice models.ConflictChoice) ConflictResolver {
	return ResolverFunc(func(context.Context, models.Conflict) (models.ConflictChoice, error) {
		return choice, nil
	})
}

type pendingConflict struct {
	conflict models.Conflict
	answer   chan models.ConflictChoice
}

// ConflictBroker parks detected conflicts until an API client answers them.
// Unanswered conflicts resolve as cancel after the timeout.
type ConflictBroker struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingConflict
}

// NewConflictBroker constructs a broker.
func NewConflictBroker(timeout time.Duration, logger *zap.Logger) *ConflictBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ConflictBroker{timeout: timeout, logger: logger, pending: map[string]*pendingConflict{}}
}

// Resolve implements ConflictResolver.
func (b *ConflictBroker) Resolve(ctx context.Context, conflict models.Conflict) (models.ConflictChoice, error) {
	p := &pendingConflict{conflict: conflict, answer: make(chan models.ConflictChoice, 1)}
	b.mu.Lock()
	b.pending[conflict.ID] = p
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, conflict.ID)
		b.mu.Unlock()
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case choice := <-p.answer:
		return choice, nil
	case <-timer.C:
		b.logger.Warn("conflict unanswered, canceling save", zap.String("conflict_id", conflict.ID), zap.Duration("timeout", b.timeout))
		return models.ConflictCancel, nil
	case <-ctx.Done():
		return models.ConflictCancel, ctx.Err()
	}
}

// Pending lists the conflicts awaiting an answer, oldest first.
func (b *ConflictBroker) Pending() []models.Conflict {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Conflict, 0, len(b.pending))
	for _, p := range b.pending {
		out = append(out, p.conflict)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out
}

// Answer delivers the user's choice. Overwrite must be confirmed.
func (b *ConflictBroker) Answer(id string, choice models.ConflictChoice, confirmed bool) error {
	if !choice.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "choice must be reload, overwrite or cancel")
	}
	if choice == models.ConflictOverwrite && !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "overwriting the Drive copy requires confirmation")
	}
	b.mu.Lock()
	p, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "conflict not pending")
	}
	p.answer <- choice
	return nil
}
