package display

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps every frame it is given.
type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
	err    error
	closed bool
}

func (s *recordingSink) Present(_ context.Context, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recordingSink) Last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

func testConfig() Config {
	return Config{
		Period:   time.Hour,
		Width:    128,
		Height:   128,
		Lines:    3,
		FontSize: 12,
		Flags: map[string]bool{
			"show_chassis_id":     true,
			"show_port_id":        true,
			"show_vlan_id":        true,
			"show_port_descr":     true,
			"show_auto_supported": true,
		},
	}
}

func seed(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemory()
	require.NoError(t, s.SetHash(context.Background(), store.KeyNeighbors, map[string]string{
		"chassis_id":     "00:1b:54:aa:bb:cc",
		"port_id":        "Gi0/1",
		"vlan_id":        "10",
		"port_descr":     "GigabitEthernet0/1 uplink to the core switch",
		"auto_supported": "true",
	}))
	return s
}

func TestCompose_Layout(t *testing.T) {
	cfg := testConfig()
	lines := []Line{{Label: "PORT ID", Value: "Gi0/1"}, {Label: "VLAN ID", Value: "10"}}

	f := Compose(lines, State{X: 20}, "BATTERY 87%", cfg)

	assert.Equal(t, 128, f.Width)
	assert.Equal(t, []DrawOp{
		{Text: "BATTERY 87%", X: 1, Y: 0, Color: ColorYellow},
		{Text: "PORT ID", X: -19, Y: 25, Color: ColorLime},
		{Text: "Gi0/1", X: -19, Y: 38, Color: ColorCyan},
		{Text: "VLAN ID", X: -19, Y: 51, Color: ColorLime},
		{Text: "10", X: -19, Y: 64, Color: ColorCyan},
	}, f.Ops)
}

func TestCompose_NoBattery(t *testing.T) {
	f := Compose([]Line{{Label: "EMPTY"}}, State{}, "", testConfig())

	require.Len(t, f.Ops, 2)
	assert.Equal(t, DrawOp{Text: "EMPTY", X: 1, Y: 25, Color: ColorLime}, f.Ops[0])
	assert.Equal(t, "", f.Ops[1].Text)
}

func TestRenderOnce_PortIDOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Flags = map[string]bool{"show_port_id": true}
	sink := &recordingSink{}
	r := NewRenderer(seed(t), sink, FixedWidth(7), nil, cfg, nil)

	require.NoError(t, r.RenderOnce(context.Background()))

	assert.Equal(t, []Line{{Label: "PORT ID", Value: "Gi0/1"}}, r.lines)
	assert.Equal(t, []DrawOp{
		{Text: "PORT ID", X: 1, Y: 25, Color: ColorLime},
		{Text: "Gi0/1", X: 1, Y: 38, Color: ColorCyan},
	}, sink.Last().Ops)
}

func TestRenderOnce_BatteryHeader(t *testing.T) {
	cfg := testConfig()
	cfg.ShowBattery = true
	sink := &recordingSink{}
	s := seed(t)
	r := NewRenderer(s, sink, FixedWidth(7), nil, cfg, nil)

	require.NoError(t, r.RenderOnce(context.Background()))
	assert.Equal(t, "BATTERY --%", sink.Last().Ops[0].Text)

	require.NoError(t, s.SetMany(context.Background(), map[string]string{store.KeyBatteryPower: "64"}))
	require.NoError(t, r.RenderOnce(context.Background()))
	assert.Equal(t, DrawOp{Text: "BATTERY 64%", X: 1, Y: 0, Color: ColorYellow}, sink.Last().Ops[0])
}

func TestRenderer_ScrollAcrossFrames(t *testing.T) {
	sink := &recordingSink{}
	r := NewRenderer(seed(t), sink, FixedWidth(7), nil, testConfig(), nil)
	ctx := context.Background()

	require.NoError(t, r.RenderOnce(ctx))
	for i := 0; i < 5; i++ {
		r.Apply(ScrollDown)
	}
	require.NoError(t, r.RenderOnce(ctx))

	// Five lines, three visible: the last page starts at row 2.
	assert.Equal(t, 2, r.State().Row)
	assert.Equal(t, "VLAN ID", sink.Last().Ops[0].Text)

	// The port description is 44 runes at 7px: 308 - 128 + 10.
	for i := 0; i < 20; i++ {
		r.Apply(ScrollRight)
	}
	assert.Equal(t, 190, r.State().X)
}

func TestRenderer_ClampsWhenContentShrinks(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	sink := &recordingSink{}
	r := NewRenderer(s, sink, FixedWidth(7), nil, testConfig(), nil)

	require.NoError(t, r.RenderOnce(ctx))
	r.Apply(ScrollDown)
	r.Apply(ScrollDown)
	r.Apply(ScrollRight)
	require.Equal(t, State{Row: 2, X: Step}, r.State())

	// Narrow values pull x back while the row stays put.
	require.NoError(t, s.SetHash(ctx, store.KeyNeighbors, map[string]string{"port_id": "1"}))
	require.NoError(t, r.RenderOnce(ctx))
	assert.Equal(t, State{Row: 2}, r.State())

	// Fewer lines pull the row back.
	r.cfg.Flags = map[string]bool{"show_port_id": true}
	require.NoError(t, r.RenderOnce(ctx))
	assert.Equal(t, State{}, r.State())
}

func TestRenderOnce_SinkErrorIsFatal(t *testing.T) {
	sink := &recordingSink{err: stderrors.New("write /dev/fb1: no such device")}
	r := NewRenderer(seed(t), sink, FixedWidth(7), nil, testConfig(), nil)

	err := r.RenderOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDisplay))
}

func TestRun_CommandRendersImmediately(t *testing.T) {
	sink := &recordingSink{}
	cmds := make(chan Command, 4)
	r := NewRenderer(seed(t), sink, FixedWidth(7), cmds, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.Count() == 1 }, time.Second, 5*time.Millisecond)

	// The tick is an hour away, so this frame can only come from the command.
	cmds <- ScrollDown
	require.Eventually(t, func() bool { return sink.Count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "PORT ID", sink.Last().Ops[0].Text)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("render loop did not stop")
	}
}

func TestRun_Ticks(t *testing.T) {
	cfg := testConfig()
	cfg.Period = 5 * time.Millisecond
	sink := &recordingSink{}
	r := NewRenderer(seed(t), sink, FixedWidth(7), nil, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.Count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRun_StopsOnSinkError(t *testing.T) {
	sink := &recordingSink{err: stderrors.New("broken")}
	r := NewRenderer(seed(t), sink, FixedWidth(7), nil, testConfig(), nil)

	err := r.Run(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrDisplay))
}

func TestLogSink(t *testing.T) {
	log := logger.NewBufferLogger()
	sink := NewLogSink(log)

	require.NoError(t, sink.Present(context.Background(), Frame{Ops: []DrawOp{{Text: "PORT ID"}, {Text: "Gi0/1"}}}))
	require.NoError(t, sink.Close())

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "debug", msgs[0].Level)
	assert.True(t, strings.HasSuffix(msgs[0].Message, "PORT ID | Gi0/1"))
}
