package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAfter_Fires(t *testing.T) {
	bpm := NewBackgroundProcessManager(context.Background())
	fired := make(chan struct{})

	bpm.RunAfter("giveaway:1", "expire post", 10*time.Millisecond, func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	require.Eventually(t, func() bool { return bpm.GetProcessCount() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bpm.Shutdown(time.Second))
}

func TestRunAfter_StoppedBeforeDelay(t *testing.T) {
	bpm := NewBackgroundProcessManager(context.Background())
	fired := make(chan struct{}, 1)

	bpm.RunAfter("giveaway:2", "expire post", time.Hour, func(ctx context.Context) {
		fired <- struct{}{}
	})
	assert.Equal(t, 1, bpm.GetProcessCount())

	bpm.StopProcess("giveaway:2")
	require.NoError(t, bpm.Shutdown(time.Second))
	assert.Empty(t, fired)
}

func TestStartProcess_ReplacesSameName(t *testing.T) {
	bpm := NewBackgroundProcessManager(context.Background())
	firstDone := make(chan struct{})

	bpm.StartProcess("sync", "first", func(ctx context.Context) {
		<-ctx.Done()
		close(firstDone)
	})
	bpm.StartProcess("sync", "second", func(ctx context.Context) {
		<-ctx.Done()
	})

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("first process was not stopped")
	}

	procs := bpm.ListProcesses()
	require.Len(t, procs, 1)
	assert.Equal(t, "second", procs[0].Description)

	require.NoError(t, bpm.Shutdown(time.Second))
}

func TestStartProcess_RecoversPanic(t *testing.T) {
	bpm := NewBackgroundProcessManager(context.Background())
	bpm.StartProcess("boom", "panics", func(ctx context.Context) {
		panic("boom")
	})
	require.NoError(t, bpm.Shutdown(time.Second))
}
