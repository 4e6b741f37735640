package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func TestConflictBrokerAnswer(t *testing.T) {
	broker := NewConflictBroker(time.Second, nil)
	conflict := models.Conflict{ID: "c1", RemoteVersion: "2", LastSeenVersion: "1", DetectedAt: time.Now()}

	result := make(chan models.ConflictChoice, 1)
	go func() {
		choice, err := broker.Resolve(context.Background(), conflict)
		assert.NoError(t, err)
		result <- choice
	}()

	require.Eventually(t, func() bool { return len(broker.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "c1", broker.Pending()[0].ID)

	assert.ErrorIs(t, broker.Answer("c1", "merge", true), appErrors.ErrValidation)
	assert.ErrorIs(t, broker.Answer("c1", models.ConflictOverwrite, false), appErrors.ErrConfirmationRequired)
	assert.ErrorIs(t, broker.Answer("missing", models.ConflictReload, false), appErrors.ErrNotFound)
	require.NoError(t, broker.Answer("c1", models.ConflictOverwrite, true))

	select {
	case choice := <-result:
		assert.Equal(t, models.ConflictOverwrite, choice)
	case <-time.After(time.Second):
		t.Fatal("resolver did not return")
	}
	assert.Empty(t, broker.Pending())
}

func TestConflictBrokerTimesOutToCancel(t *testing.T) {
	broker := NewConflictBroker(20*time.Millisecond, nil)

	choice, err := broker.Resolve(context.Background(), models.Conflict{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.ConflictCancel, choice)
	assert.Empty(t, broker.Pending())
}

func TestConflictBrokerContextCanceled(t *testing.T) {
	broker := NewConflictBroker(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	choice, err := broker.Resolve(ctx, models.Conflict{ID: "c1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.ConflictCancel, choice)
}
