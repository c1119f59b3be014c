// File: internal/engine/pressure/dispatcher_test.go
package pressure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBelowWarningRaisesNothing(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	called := false
	d.Subscribe(func(ctx context.Context, ev Event) error {
		called = true
		return nil
	})

	_, ok := d.Check(context.Background(), statsAt(50))
	assert.False(t, ok)
	assert.False(t, called)
}

func TestCheckDispatchesInRegistrationOrder(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Subscribe(func(ctx context.Context, ev Event) error {
			order = append(order, name)
			return nil
		})
	}

	ev, ok := d.Check(context.Background(), statsAt(75))
	require.True(t, ok)
	assert.Equal(t, LevelModerate, ev.Level)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestCheckIsolatesFailingHandlers(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	var reached []string
	d.Subscribe(func(ctx context.Context, ev Event) error {
		reached = append(reached, "erroring")
		return errors.New("handler broke")
	})
	d.Subscribe(func(ctx context.Context, ev Event) error {
		reached = append(reached, "panicking")
		panic("handler exploded")
	})
	d.Subscribe(func(ctx context.Context, ev Event) error {
		reached = append(reached, "healthy")
		return nil
	})

	_, ok := d.Check(context.Background(), statsAt(75))
	require.True(t, ok)
	assert.Equal(t, []string{"erroring", "panicking", "healthy"}, reached)
}

func TestCheckRunsCriticalActionAfterHandlers(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	var order []string
	d.CriticalAction = func(ctx context.Context) {
		order = append(order, "optimize")
	}
	d.Subscribe(func(ctx context.Context, ev Event) error {
		order = append(order, "handler")
		return nil
	})

	_, ok := d.Check(context.Background(), statsAt(96))
	require.True(t, ok)
	assert.Equal(t, []string{"handler", "optimize"}, order)
}

func TestCheckSkipsCriticalActionOnModerate(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	ran := false
	d.CriticalAction = func(ctx context.Context) { ran = true }

	_, ok := d.Check(context.Background(), statsAt(75))
	require.True(t, ok)
	assert.False(t, ran)
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	var calls int
	id := d.Subscribe(func(ctx context.Context, ev Event) error {
		calls++
		return nil
	})

	require.Equal(t, 1, d.Len())
	assert.True(t, d.Unsubscribe(id))
	assert.False(t, d.Unsubscribe(id))
	assert.Zero(t, d.Len())

	d.Check(context.Background(), statsAt(96))
	assert.Zero(t, calls)
}

func TestReset(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)

	d.Subscribe(func(ctx context.Context, ev Event) error { return nil })
	d.Subscribe(func(ctx context.Context, ev Event) error { return nil })

	d.Reset()
	assert.Zero(t, d.Len())
}

func TestCheckUsesCacheUsageForRecommendations(t *testing.T) {
	d := NewDispatcher(DefaultThresholds(), nil)
	d.CacheUsageFunc = func() CacheUsage {
		return CacheUsage{TotalBytes: 95, CapacityBytes: 100}
	}

	ev, ok := d.Check(context.Background(), statsAt(75))
	require.True(t, ok)
	assert.Contains(t, ev.Recommendations, "clear low-priority cached data")
}
