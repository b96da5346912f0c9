package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/lldp"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/netif"
	"github.com/rpint/rpint/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type stubRunner struct {
	res   exec.Result
	err   error
	calls int
}

func (r *stubRunner) Run(context.Context, []string) (exec.Result, error) {
	r.calls++
	return r.res, r.err
}

type stubLinks struct{ err error }

func (l stubLinks) Lookup(_ context.Context, name string) (netif.Link, error) {
	if l.err != nil {
		return netif.Link{}, l.err
	}
	return netif.Link{Interface: name, Hostname: "rpint-01", LocalIP: "10.0.0.9", LocalMAC: "b8:27:eb:00:00:01", State: "up"}, nil
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "lldp", "testdata", name))
	require.NoError(t, err)
	return data
}

func lldpOpts(format string, stdout []byte) lldpOptions {
	return lldpOptions{
		Format: format,
		Runner: &stubRunner{res: exec.Result{Stdout: stdout}},
		Links:  stubLinks{},
		Log:    logger.Noop(),
	}
}

func TestLLDPCommand_Table(t *testing.T) {
	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), lldpOpts(formatTable, fixture(t, "single.json")))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Neighbor on eth0")
	assert.Contains(t, out, "PORT ID")
	assert.Contains(t, out, "Gi0/1")
	assert.Contains(t, out, "LOCAL IP")
	assert.Contains(t, out, "10.0.0.9")
	assert.NotContains(t, out, "BATTERY")
}

func TestLLDPCommand_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), lldpOpts(formatJSON, fixture(t, "single.json")))
	require.NoError(t, err)

	var env struct {
		Success bool       `json:"success"`
		Data    lldpResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.True(t, env.Data.Found)
	assert.Equal(t, "Gi0/1", env.Data.Neighbor.PortID)
	assert.Equal(t, "10.0.0.9", env.Data.Local.LocalIP)
}

func TestLLDPCommand_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), lldpOpts(formatYAML, fixture(t, "single.json")))
	require.NoError(t, err)

	var res lldpResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &res))
	assert.True(t, res.Found)
	assert.Equal(t, "Gi0/1", res.Neighbor.PortID)
	assert.Contains(t, buf.String(), "port_id: Gi0/1")
}

func TestLLDPCommand_NoNeighborsIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), lldpOpts(formatJSON, fixture(t, "empty.json")))
	require.NoError(t, err)

	var env struct {
		Data lldpResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Data.Found)
	assert.True(t, env.Data.Neighbor.IsSentinel())
}

func TestLLDPCommand_CommandFailure(t *testing.T) {
	opts := lldpOpts(formatTable, nil)
	opts.Runner = &stubRunner{res: exec.Result{ExitCode: 1, Stderr: []byte("unable to connect to lldpd")}}

	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), opts)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLLDP))
	assert.Contains(t, err.Error(), "lldpd")
	assert.Empty(t, buf.String())
}

func TestLLDPCommand_CommandFailureJSON(t *testing.T) {
	opts := lldpOpts(formatJSON, []byte("not json"))

	var buf bytes.Buffer
	err := lldpCommand(context.Background(), &buf, config.DefaultConfig(), opts)
	code, ok := errors.GetExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeLLDPFailed, env.Error.Code)
}

func TestLLDPCommand_UnknownFormat(t *testing.T) {
	opts := lldpOpts("xml", nil)
	runner := opts.Runner.(*stubRunner)

	err := lldpCommand(context.Background(), &bytes.Buffer{}, config.DefaultConfig(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown format 'xml'")
	assert.Zero(t, runner.calls)
}

func TestLLDPCommand_LinkLookupFailure(t *testing.T) {
	opts := lldpOpts(formatJSON, fixture(t, "single.json"))
	opts.Links = stubLinks{err: assert.AnError}

	var buf bytes.Buffer
	require.NoError(t, lldpCommand(context.Background(), &buf, config.DefaultConfig(), opts))

	var env struct {
		Data lldpResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, netif.Unknown("eth0"), env.Data.Local)
}

func TestLLDPCommand_SaveToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultConfig()
	cfg.Store = config.StoreConfig{Backend: config.BackendRedis, Address: mr.Addr(), Prefix: "rpint:"}

	opts := lldpOpts(formatTable, fixture(t, "single.json"))
	opts.Save = true
	require.NoError(t, lldpCommand(context.Background(), &bytes.Buffer{}, cfg, opts))

	assert.Equal(t, "Gi0/1", mr.HGet("rpint:"+store.KeyNeighbors, "port_id"))
	assert.Equal(t, "10.0.0.9", mr.HGet("rpint:"+store.KeyLocalLink, "local_ip"))
}

func TestLLDPCommand_SaveFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store = config.StoreConfig{Backend: config.BackendRedis, Address: "127.0.0.1:1"}

	opts := lldpOpts(formatTable, fixture(t, "single.json"))
	opts.Save = true
	err := lldpCommand(context.Background(), &bytes.Buffer{}, cfg, opts)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStore))
}

func TestFieldRows_SkipsBattery(t *testing.T) {
	rows := fieldRows(lldp.SentinelRecord(), netif.Link{LocalIP: "10.0.0.9"})

	require.Len(t, rows, 16)
	assert.Equal(t, "CHASSIS ID", rows[0].Label)
	assert.Equal(t, "LOCAL MAC", rows[len(rows)-1].Label)
	assert.Equal(t, "--", rows[len(rows)-1].Value)
}
