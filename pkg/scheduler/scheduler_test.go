package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(time.Second, zap.NewNop().Sugar())
	assert.Error(t, s.Add("every morning", "bad", func(context.Context) (int, error) { return 0, nil }))
	assert.NoError(t, s.Add("0 6 * * *", "reminders", func(context.Context) (int, error) { return 0, nil }))
	assert.NoError(t, s.Add("@hourly", "purge", func(context.Context) (int, error) { return 0, nil }))
}

func TestRunAppliesTimeout(t *testing.T) {
	s := New(10*time.Millisecond, zap.NewNop().Sugar())
	var deadline bool
	s.run("slow-job", func(ctx context.Context) (int, error) {
		_, deadline = ctx.Deadline()
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, deadline)

	calls := 0
	s.run("fails", func(context.Context) (int, error) { calls++; return 0, errors.New("boom") })
	assert.Equal(t, 1, calls)
}

func TestStartStop(t *testing.T) {
	s := New(time.Second, zap.NewNop().Sugar())
	require.NoError(t, s.Add("@daily", "noop", func(context.Context) (int, error) { return 0, nil }))
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
