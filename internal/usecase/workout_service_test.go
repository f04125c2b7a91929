package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

func TestDurationMinutes(t *testing.T) {
	start := testNow
	testCases := []struct {
		name string
		end  time.Time
		want int
	}{
		{"zero", start, 0},
		{"thirty seconds rounds up", start.Add(30 * time.Second), 1},
		{"exactly one minute", start.Add(time.Minute), 1},
		{"just over one minute", start.Add(61 * time.Second), 2},
		{"forty five minutes", start.Add(45 * time.Minute), 45},
		{"end before start", start.Add(-10 * time.Minute), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DurationMinutes(start, tc.end); got != tc.want {
				t.Errorf("DurationMinutes() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestWorkoutService(t *testing.T) {
	ctx := context.Background()

	newService := func() (*WorkoutService, *memStore) {
		store := newMemStore()
		svc := NewWorkoutService(store, nil)
		svc.now = func() time.Time { return testNow }
		return svc, store
	}

	t.Run("start then end", func(t *testing.T) {
		svc, _ := newService()
		started, err := svc.Start(ctx, "u1", testNow.Add(-45*time.Minute))
		require.NoError(t, err)
		assert.True(t, started.Active())

		active, err := svc.Active(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, started.ID, active.ID)

		ended, err := svc.End(ctx, "u1", EndWorkoutRequest{
			WorkoutTypes: []string{"strength"},
			Intensity:    domain.IntensityHigh,
		})
		require.NoError(t, err)
		require.NotNil(t, ended.EndTs)
		assert.Equal(t, testNow, *ended.EndTs)
		require.NotNil(t, ended.DurationMin)
		assert.Equal(t, 45, *ended.DurationMin)
		assert.Equal(t, []string{"strength"}, ended.WorkoutTypes)
		assert.Equal(t, domain.IntensityHigh, ended.Intensity)

		_, err = svc.Active(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
	})

	t.Run("start defaults to now", func(t *testing.T) {
		svc, _ := newService()
		started, err := svc.Start(ctx, "u1", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, testNow, started.StartTs)
	})

	t.Run("end closes every active session", func(t *testing.T) {
		svc, store := newService()
		_, err := svc.Start(ctx, "u1", testNow.Add(-time.Hour))
		require.NoError(t, err)
		later, err := svc.Start(ctx, "u1", testNow.Add(-20*time.Minute))
		require.NoError(t, err)

		ended, err := svc.End(ctx, "u1", EndWorkoutRequest{Intensity: domain.IntensityMedium})
		require.NoError(t, err)
		assert.Equal(t, later.ID, ended.ID)
		assert.Equal(t, 20, *ended.DurationMin)

		remaining, err := store.ActiveWorkouts(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("end without an active session", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.End(ctx, "u1", EndWorkoutRequest{})
		assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
	})

	t.Run("unknown intensity rejected", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Start(ctx, "u1", testNow)
		require.NoError(t, err)
		_, err = svc.End(ctx, "u1", EndWorkoutRequest{Intensity: "extreme"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("list and delete", func(t *testing.T) {
		svc, _ := newService()
		first, err := svc.Start(ctx, "u1", testNow.Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = svc.Start(ctx, "u1", testNow.Add(-time.Hour))
		require.NoError(t, err)

		list, err := svc.List(ctx, "u1", 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[1].ID)

		require.NoError(t, svc.Delete(ctx, "u1", first.ID))
		assert.ErrorIs(t, svc.Delete(ctx, "u1", first.ID), domain.ErrNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Start(ctx, "", testNow)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
