package lldp

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers Run with a canned function and records every call.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ctx context.Context, argv []string) (exec.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) (exec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()
	return f.fn(ctx, argv)
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func answer(stdout []byte) *fakeRunner {
	return &fakeRunner{fn: func(context.Context, []string) (exec.Result, error) {
		return exec.Result{Stdout: stdout}, nil
	}}
}

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector(nil, CollectorConfig{}, nil)

	assert.Equal(t, DefaultCommand, c.cfg.Command)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.IsType(t, &exec.LocalRunner{}, c.runner)
	assert.NotNil(t, c.log)
}

func TestDiscover_Success(t *testing.T) {
	runner := answer(readFixture(t, "single.json"))
	c := NewCollector(runner, CollectorConfig{Command: []string{"lldpcli", "-f", "json"}}, nil)

	rec, err := c.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Gi0/1", rec.PortID)
	require.Equal(t, 1, runner.Calls())
	assert.Equal(t, []string{"lldpcli", "-f", "json"}, runner.calls[0])
}

func TestDiscover_UsesInterface(t *testing.T) {
	c := NewCollector(answer(readFixture(t, "multi.json")), CollectorConfig{Interface: "eth0"}, nil)

	rec, err := c.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1:24", rec.PortID)
}

func TestDiscover_Failures(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr error
		wantMsg string
	}{
		{
			name: "command missing",
			runner: &fakeRunner{fn: func(context.Context, []string) (exec.Result, error) {
				return exec.Result{ExitCode: -1}, stderrors.New("executable file not found")
			}},
			wantErr: ErrCommandFailed,
			wantMsg: "executable file not found",
		},
		{
			name: "non-zero exit",
			runner: &fakeRunner{fn: func(context.Context, []string) (exec.Result, error) {
				return exec.Result{ExitCode: 1, Stderr: []byte("unable to connect to lldpd daemon\nmore")}, nil
			}},
			wantErr: ErrCommandFailed,
			wantMsg: "unable to connect to lldpd daemon",
		},
		{
			name:    "garbage output",
			runner:  answer([]byte("lldpd is starting")),
			wantErr: ErrParseFailed,
		},
		{
			name:    "no neighbors",
			runner:  answer([]byte(`{"lldp":{}}`)),
			wantErr: ErrNoNeighbors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(tt.runner, CollectorConfig{}, nil)

			rec, err := c.Discover(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.True(t, rec.IsSentinel())
		})
	}
}

func TestDiscover_Timeout(t *testing.T) {
	var sawDeadline bool
	runner := &fakeRunner{fn: func(ctx context.Context, _ []string) (exec.Result, error) {
		_, sawDeadline = ctx.Deadline()
		<-ctx.Done()
		return exec.Result{ExitCode: -1}, ctx.Err()
	}}
	c := NewCollector(runner, CollectorConfig{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	rec, err := c.Discover(context.Background())

	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.True(t, rec.IsSentinel())
	assert.True(t, sawDeadline)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCollect_LogsByOutcome(t *testing.T) {
	tests := []struct {
		name      string
		runner    *fakeRunner
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "success",
			runner:    answer([]byte(`{"lldp":{"interface":{"eth0":{"port":{"id":{"value":"Gi0/1"}}}}}}`)),
			wantLevel: "debug",
			wantMsg:   "port Gi0/1",
		},
		{
			name:      "no neighbors",
			runner:    answer([]byte(`{"lldp":{}}`)),
			wantLevel: "info",
			wantMsg:   "no LLDP neighbor",
		},
		{
			name:      "parse failure",
			runner:    answer([]byte(`not json`)),
			wantLevel: "warn",
			wantMsg:   "discovery failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewBufferLogger()
			c := NewCollector(tt.runner, CollectorConfig{}, log)

			rec := c.Collect(context.Background())
			assert.Len(t, rec.Fields(), len(FieldNames))
			assert.True(t, log.Contains(tt.wantLevel, tt.wantMsg), "messages: %v", log.Messages())
		})
	}
}

func TestCollect_CancelledIsQuiet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{fn: func(ctx context.Context, _ []string) (exec.Result, error) {
		return exec.Result{ExitCode: -1}, ctx.Err()
	}}
	log := logger.NewBufferLogger()
	c := NewCollector(runner, CollectorConfig{}, log)

	rec := c.Collect(ctx)
	assert.True(t, rec.IsSentinel())
	assert.False(t, log.HasLevel("warn"))
}
