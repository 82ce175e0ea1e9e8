package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

var box = filepath.Join("testdata", "box.yaml")

func TestRunGolden(t *testing.T) {
	out, _, err := execute(t, "run", box)
	require.NoError(t, err)
	golden(t).Assert(t, "run_box", []byte(out))
}

func TestRunFailureExitCode(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join("testdata", "broken.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	golden(t).Assert(t, "run_broken", []byte(out))
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "run", box)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Passed)
	assert.Equal(t, "box", resp.Data.Name)
	assert.Equal(t, uint64(4), resp.Data.Tick)
	require.Len(t, resp.Data.Steps, 10)
	assert.Equal(t, "snapshot", resp.Data.Steps[9].Action)
}

func TestRunWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "run", box, "--snapshots", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+dir)

	files, err := filepath.Glob(filepath.Join(dir, "*_end.svg"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestTopoGolden(t *testing.T) {
	out, _, err := execute(t, "topo", box)
	require.NoError(t, err)
	golden(t).Assert(t, "topo_box", []byte(out))

	out, _, err = execute(t, "topo", box, "--from", "width")
	require.NoError(t, err)
	golden(t).Assert(t, "topo_box_from_width", []byte(out))
}

func TestTopoJSON(t *testing.T) {
	out, _, err := execute(t, "--format=json", "topo", box, "--from", "height")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"from":"height","order":["height","area","half","perimeter"]}}`, out)
}

func TestTopoUnknownStart(t *testing.T) {
	_, _, err := execute(t, "topo", box, "--from", "depth")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown property "depth"`)
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.svg")
	out, _, err := execute(t, "render", box, "-o", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+": 7 nodes, 6 edges\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(string(data), "<circle"))
}

func TestRenderToStdout(t *testing.T) {
	out, _, err := execute(t, "render", box)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "Nodes: 7  Edges: 6  Subscriptions: 0  Tick: 0")
}

func TestBadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("properties:\n  - {name: a, expr: {op: sum, deps: [b]}}\n"), 0o644))

	out, _, err := execute(t, "--format", "json", "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"status":"error"`)
	assert.Contains(t, out, "unknown property")
}

func TestMissingManifest(t *testing.T) {
	_, _, err := execute(t, "topo", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "topo", box)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestVerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, "-v", "run", box)
	require.NoError(t, err)
	assert.Contains(t, errOut, "built 6 properties from "+box)
	assert.Contains(t, errOut, `msg="clock advanced"`)
	assert.NotContains(t, out, "clock advanced")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
}

func TestTraceColorsOnlyForTerminals(t *testing.T) {
	f := newFormatter(&RootOptions{Format: "text"}, &bytes.Buffer{}, nil)
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.Equal(t, "PASS", f.pass.Sprint("PASS"))
}
