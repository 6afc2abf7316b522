package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyyve/flowcanvas/internal/auth"
	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/minimap"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTypesCommand(t *testing.T) {
	out, _, err := run(t, "types", "--category", "chatbot")
	require.NoError(t, err)
	assert.Contains(t, out, "bot_says")
	assert.Contains(t, out, "100x60")
	assert.NotContains(t, out, "llm")
}

func TestTypesWithTOML(t *testing.T) {
	types := writeFile(t, "types.toml", `
[[type]]
type = "webhook"
category = "custom"
width = 220
height = 90
render = "card"

  [[type.handles]]
  id = "out"
  role = "output"
  side = "right"
`)
	out, _, err := run(t, "--types", types, "types", "--category", "custom")
	require.NoError(t, err)
	assert.Contains(t, out, "webhook")
	assert.Contains(t, out, "220x90")
	assert.Contains(t, out, "out(output,right)")
}

func TestSeedCommand(t *testing.T) {
	out, _, err := run(t, "seed", "chatbot")
	require.NoError(t, err)
	var s graph.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Len(t, s.Nodes, 4)
	assert.Equal(t, "start-1", s.Nodes[0].ID)

	_, _, err = run(t, "seed", "bogus")
	assert.Error(t, err)
}

func TestSeedToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.json")
	out, _, err := run(t, "seed", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote module seed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s graph.Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Len(t, s.Edges, 3)
}

func TestCheckClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.json")
	_, _, err := run(t, "seed", "-o", path)
	require.NoError(t, err)

	out, _, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "4/4 nodes, 3/3 edges accepted")
}

func TestCheckReportsProblems(t *testing.T) {
	path := writeFile(t, "bad.json", `{
  "nodes": [
    {"id": "a", "type": "trigger", "position": {"x": 0, "y": 0}},
    {"id": "b", "type": "llm", "position": {"x": 300, "y": 0}},
    {"id": "b", "type": "llm", "position": {"x": 600, "y": 0}},
    {"id": "c", "type": "sticky_note", "position": {"x": 0, "y": 300}}
  ],
  "edges": [
    {"id": "e1", "source": {"nodeId": "a", "handleId": "out"}, "target": {"nodeId": "b", "handleId": "in"}},
    {"id": "e2", "source": {"nodeId": "a", "handleId": "out"}, "target": {"nodeId": "b", "handleId": "in"}},
    {"id": "e3", "source": {"nodeId": "b", "handleId": "in"}, "target": {"nodeId": "a", "handleId": "out"}},
    {"id": "e4", "source": {"nodeId": "a", "handleId": "out"}, "target": {"nodeId": "zzz", "handleId": "in"}}
  ]
}`)
	out, stderr, err := run(t, "check", path)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Contains(t, out, "3/4 nodes, 1/4 edges accepted")
	assert.Contains(t, out, `node type "sticky_note" is not registered`)
	assert.Contains(t, out, "DuplicateConnection")
	assert.Contains(t, out, "IncompatibleHandles")
	assert.Contains(t, out, "duplicate id")
	assert.Contains(t, out, "unknown node")
	assert.Contains(t, stderr, "sticky_note", "the engine warns about the unknown type")
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.json")
	_, _, err := run(t, "seed", "-o", path)
	require.NoError(t, err)

	out, _, err := run(t, "render", path, "--width", "800", "--height", "600")
	require.NoError(t, err)
	var cmds []engine.DrawCommand
	require.NoError(t, json.Unmarshal([]byte(out), &cmds))
	ops := map[string]int{}
	for _, c := range cmds {
		ops[c.Op]++
	}
	assert.Equal(t, 3, ops["edge"])
	assert.Equal(t, 4, ops["node"])
	assert.Equal(t, "edge", cmds[0].Op)

	_, _, err = run(t, "render", path, "--width", "0")
	assert.Error(t, err)
}

func TestMinimapCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbot.json")
	_, _, err := run(t, "seed", "chatbot", "-o", path)
	require.NoError(t, err)

	out, _, err := run(t, "minimap", path, "--mini-width", "200", "--mini-height", "100")
	require.NoError(t, err)
	var p minimap.Projection
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Len(t, p.Nodes, 4)
	assert.Greater(t, p.Scale, 0.0)
	for _, r := range p.Nodes {
		assert.GreaterOrEqual(t, r.X, 0.0)
		assert.LessOrEqual(t, r.X+r.Width, 200.0+1e-9)
	}
}

func TestTokenCommand(t *testing.T) {
	out, _, err := run(t, "token", "dev-user", "--secret", "s3cret")
	require.NoError(t, err)

	sub, err := auth.NewService("s3cret").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "dev-user", sub)
}

func TestTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	table(&buf, []string{"A", "Long header"}, [][]string{{"x", "y"}, {"longer", "z"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  A       Long header", lines[0])
	assert.Equal(t, "  longer  z", lines[3])

	buf.Reset()
	table(&buf, []string{"A"}, nil)
	assert.Empty(t, buf.String())
}
