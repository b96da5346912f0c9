package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), "line: %s", line)
		out = append(out, m)
	}
	return out
}

func TestWriterLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     zerolog.Level
		wantCount int
	}{
		{name: "debug level logs everything", level: zerolog.DebugLevel, wantCount: 4},
		{name: "info level drops debug", level: zerolog.InfoLevel, wantCount: 3},
		{name: "error level keeps only errors", level: zerolog.ErrorLevel, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWriter(&buf, tt.level)

			l.Debug("debug %s", "msg")
			l.Info("info %s", "msg")
			l.Warn("warn %s", "msg")
			l.Error("error %s", "msg")

			assert.Len(t, decodeLines(t, &buf), tt.wantCount)
		})
	}
}

func TestWriterLogger_FormatStrings(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel)

	l.Info("int: %d, string: %s, float: %.2f", 42, "hello", 3.14159)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "int: 42, string: hello, float: 3.14", lines[0]["message"])
	assert.Contains(t, lines[0], "time")
}

func TestWriterLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).With("lldp")

	l.Warn("lldpcli exited with %d", 1)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "lldp", lines[0]["component"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultConfig()},
		{name: "json to stdout", cfg: Config{Level: "debug", Format: FormatJSON, Output: "stdout"}},
		{name: "console format", cfg: Config{Level: "warn", Format: FormatConsole}},
		{name: "uppercase level", cfg: Config{Level: "ERROR"}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
		{name: "bad output", cfg: Config{Output: "/dev/null"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNoopLogger(t *testing.T) {
	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Equal(t, l, l.With("anything"))
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, "debug", msgs[0].Level)
	assert.Equal(t, "debug msg", msgs[0].Message)

	assert.Equal(t, "info", msgs[1].Level)
	assert.Equal(t, "info msg", msgs[1].Message)

	assert.Equal(t, "warn", msgs[2].Level)
	assert.Equal(t, "warn msg", msgs[2].Message)

	assert.Equal(t, "error", msgs[3].Level)
	assert.Equal(t, "error msg", msgs[3].Message)
}

func TestBufferLogger_HasLevel(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Debug("test")
	assert.True(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Error("test")
	assert.True(t, l.HasLevel("error"))
}

func TestBufferLogger_ChildSharesBuffer(t *testing.T) {
	l := NewBufferLogger()
	child := l.With("power")

	child.Error("INA219 read failed")

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "power", msgs[0].Component)
	assert.True(t, l.Contains("error", "INA219"))
	assert.False(t, l.Contains("warn", "INA219"))
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("worker %d tick %d", n, j)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Messages(), 400)
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("test1")
	l.Info("test2")
	require.Len(t, l.Messages(), 2)

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	assert.NotNil(t, Default())

	buf := NewBufferLogger()
	SetDefault(buf)

	assert.Equal(t, buf, Default())
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = NewWriter(&bytes.Buffer{}, zerolog.InfoLevel)
	var _ Logger = Noop()
	var _ Logger = NewBufferLogger()
}
