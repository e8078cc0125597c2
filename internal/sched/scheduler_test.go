package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_After_Fires(t *testing.T) {
	s := New(zap.NewNop())

	fired := make(chan struct{})
	s.After(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_Cancel_PreventsRun(t *testing.T) {
	s := New(zap.NewNop())

	var ran atomic.Bool
	cancel := s.After(20*time.Millisecond, func() { ran.Store(true) })

	require.True(t, cancel(), "cancel before firing should report success")
	assert.Equal(t, 0, s.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, ran.Load(), "cancelled task must not run")
}

func TestScheduler_Cancel_AfterFire(t *testing.T) {
	s := New(zap.NewNop())

	fired := make(chan struct{})
	cancel := s.After(time.Millisecond, func() { close(fired) })
	<-fired

	assert.False(t, cancel(), "cancel after firing should report failure")
}

func TestScheduler_CancelAll(t *testing.T) {
	s := New(zap.NewNop())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		s.After(20*time.Millisecond, func() { ran.Add(1) })
	}
	require.Equal(t, 5, s.Pending())

	s.CancelAll()
	assert.Equal(t, 0, s.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}

func TestScheduler_Cron_RejectsInvalidExpression(t *testing.T) {
	s := New(zap.NewNop())

	err := s.Cron(context.Background(), "not a cron expr", func() {})
	require.Error(t, err)

	var invalid *InvalidCronError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "not a cron expr", invalid.Expr)
}

func TestScheduler_Cron_StopsOnContextCancel(t *testing.T) {
	s := New(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Cron(ctx, "* * * * *", func() {}))
	cancel()
	// Nothing to assert beyond not leaking: the loop exits on ctx.Done.
}
