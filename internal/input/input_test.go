package input

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	n atomic.Int32
}

func (r *countingRefresher) Trigger() { r.n.Add(1) }

type fakeRunner struct {
	argv []string
	res  exec.Result
	err  error
}

func (f *fakeRunner) Run(_ context.Context, argv []string) (exec.Result, error) {
	f.argv = argv
	return f.res, f.err
}

func TestHandle_ScrollEvents(t *testing.T) {
	cmds := make(chan display.Command, 4)
	c := NewController(cmds, nil, nil, nil)
	ctx := context.Background()

	for _, ev := range []Event{EventUp, EventDown, EventLeft, EventRight} {
		require.NoError(t, c.Handle(ctx, ev))
	}

	assert.Equal(t, display.ScrollUp, <-cmds)
	assert.Equal(t, display.ScrollDown, <-cmds)
	assert.Equal(t, display.ScrollLeft, <-cmds)
	assert.Equal(t, display.ScrollRight, <-cmds)
}

func TestHandle_FullChannelDrops(t *testing.T) {
	cmds := make(chan display.Command, 1)
	log := logger.NewBufferLogger()
	c := NewController(cmds, nil, nil, log)

	require.NoError(t, c.Handle(context.Background(), EventDown))
	require.NoError(t, c.Handle(context.Background(), EventDown))

	assert.Len(t, cmds, 1)
	assert.True(t, log.Contains("debug", "dropped"))
}

func TestHandle_NilChannel(t *testing.T) {
	c := NewController(nil, nil, nil, nil)
	assert.NoError(t, c.Handle(context.Background(), EventUp))
	assert.NoError(t, c.Handle(context.Background(), EventRefresh))
	assert.NoError(t, c.Handle(context.Background(), EventShutdown))
	assert.NoError(t, c.Handle(context.Background(), Event(42)))
}

func TestHandle_Refresh(t *testing.T) {
	r := &countingRefresher{}
	c := NewController(nil, r, nil, nil)

	require.NoError(t, c.Handle(context.Background(), EventRefresh))
	require.NoError(t, c.Handle(context.Background(), EventRefresh))

	assert.Equal(t, int32(2), r.n.Load())
}

func TestHandle_ShutdownRunsOnce(t *testing.T) {
	var calls atomic.Int32
	c := NewController(nil, nil, ShutdownFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Handle(context.Background(), EventShutdown))
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandle_ShutdownFailureIsReported(t *testing.T) {
	log := logger.NewBufferLogger()
	c := NewController(nil, nil, ShutdownFunc(func(context.Context) error {
		return stderrors.New("permission denied")
	}), log)

	err := c.Handle(context.Background(), EventShutdown)
	require.Error(t, err)
	assert.True(t, log.Contains("error", "permission denied"))

	// Still only once.
	assert.Equal(t, err, c.Handle(context.Background(), EventShutdown))
}

func TestCommandShutdown(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := &fakeRunner{}
		s := CommandShutdown{Runner: r, Argv: []string{"sudo", "poweroff"}}

		require.NoError(t, s.Shutdown(context.Background()))
		assert.Equal(t, []string{"sudo", "poweroff"}, r.argv)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		r := &fakeRunner{res: exec.Result{ExitCode: 1, Stderr: []byte("sudo: a password is required\n")}}
		err := CommandShutdown{Runner: r, Argv: []string{"sudo", "poweroff"}}.Shutdown(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "a password is required")
	})

	t.Run("cannot start", func(t *testing.T) {
		r := &fakeRunner{err: stderrors.New("not found")}
		err := CommandShutdown{Runner: r, Argv: []string{"poweroff"}}.Shutdown(context.Background())
		assert.EqualError(t, err, "not found")
	})
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "shutdown", EventShutdown.String())
	assert.Equal(t, "left", EventLeft.String())
	assert.Equal(t, "unknown", Event(0).String())
}
