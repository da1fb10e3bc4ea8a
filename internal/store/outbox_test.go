package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avandyck/newsdock/internal/models"
)

func TestEnqueueAndSnapshotOrder(t *testing.T) {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	now := base
	s := newTestStore(t, WithNow(func() time.Time { return now }))
	ctx := context.Background()

	for i, actionType := range []string{models.ActionSaveArticle, models.ActionMarkRead, models.ActionBookmark} {
		now = base.Add(time.Duration(i) * time.Second)
		_, ok := s.EnqueueAction(ctx, actionType, map[string]any{"article_id": "a1"})
		require.True(t, ok)
	}

	pending := s.PendingActions(ctx)
	require.Len(t, pending, 3)
	require.Equal(t, models.ActionSaveArticle, pending[0].Type)
	require.Equal(t, models.ActionMarkRead, pending[1].Type)
	require.Equal(t, models.ActionBookmark, pending[2].Type)

	for _, action := range pending {
		require.Equal(t, models.ActionStatusPending, action.Status)
		require.NotEmpty(t, action.ID)
	}
}

func TestSetActionStatusIsOneDirectional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	action, ok := s.EnqueueAction(ctx, models.ActionMarkRead, nil)
	require.True(t, ok)

	require.True(t, s.SetActionStatus(ctx, action.ID, models.ActionStatusFailed))

	// failed -> completed is rejected; the terminal state sticks.
	require.False(t, s.SetActionStatus(ctx, action.ID, models.ActionStatusCompleted))

	actions := s.ListActions(ctx)
	require.Len(t, actions, 1)
	require.Equal(t, models.ActionStatusFailed, actions[0].Status)
}

func TestSetActionStatusRejectsPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	action, ok := s.EnqueueAction(ctx, models.ActionBookmark, nil)
	require.True(t, ok)

	// pending is not a terminal status and cannot be re-applied.
	require.False(t, s.SetActionStatus(ctx, action.ID, models.ActionStatusPending))
}

func TestFailedActionsExcludedFromSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, ok := s.EnqueueAction(ctx, models.ActionSaveArticle, nil)
	require.True(t, ok)
	_, ok = s.EnqueueAction(ctx, models.ActionMarkRead, nil)
	require.True(t, ok)

	require.True(t, s.SetActionStatus(ctx, first.ID, models.ActionStatusFailed))

	pending := s.PendingActions(ctx)
	require.Len(t, pending, 1)
	require.Equal(t, models.ActionMarkRead, pending[0].Type)
}
