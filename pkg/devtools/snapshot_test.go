package devtools

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintui/glint/pkg/reactive"
)

func buildDebugGraph(t *testing.T) (*reactive.Signal[int], *reactive.Memo[int], *reactive.Effect) {
	t.Helper()
	reactive.EnableGraphDebug()
	t.Cleanup(reactive.DisableGraphDebug)

	s := reactive.NewSignal(1).WithName("source")
	m := reactive.NewMemo(func() int { return s.Get() * 2 }).WithName("double")
	e := reactive.CreateEffect(func() reactive.Cleanup {
		m.Get()
		return nil
	}, reactive.EffectName("sink"))
	t.Cleanup(e.Dispose)
	return s, m, e
}

func TestCaptureBuildsNodesAndEdges(t *testing.T) {
	s, m, e := buildDebugGraph(t)

	snap := Capture()
	require.False(t, snap.TakenAt.IsZero())

	byID := make(map[uint64]Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		byID[n.ID] = n
	}

	require.Contains(t, byID, s.ID())
	require.Contains(t, byID, m.ID())
	require.Contains(t, byID, e.ID())

	assert.Equal(t, "signal", byID[s.ID()].Kind)
	assert.Equal(t, "source", byID[s.ID()].Name)
	assert.Equal(t, "memo", byID[m.ID()].Kind)
	assert.Equal(t, "clean", byID[m.ID()].State)
	assert.Equal(t, "effect", byID[e.ID()].Kind)

	want := []Edge{
		{From: s.ID(), To: m.ID()},
		{From: m.ID(), To: e.ID()},
	}
	if diff := cmp.Diff(want, snap.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	assert.GreaterOrEqual(t, snap.Stats.SignalsCreated, uint64(1))
}

func TestCaptureWithoutDebugHasStatsOnly(t *testing.T) {
	s := reactive.NewSignal(1)
	s.Set(2)

	snap := Capture()
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
	assert.GreaterOrEqual(t, snap.Stats.Writes, uint64(1))
}

func TestWriteDOT(t *testing.T) {
	s, m, e := buildDebugGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, Capture()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph glint {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, fmt.Sprintf(`n%d [label="source\nsignal#%d" shape=box]`, s.ID(), s.ID()))
	assert.Contains(t, out, fmt.Sprintf(`n%d [label="double\nmemo#%d" shape=ellipse]`, m.ID(), m.ID()))
	assert.Contains(t, out, "shape=hexagon")
	assert.Contains(t, out, fmt.Sprintf("n%d -> n%d;", s.ID(), m.ID()))
	assert.Contains(t, out, fmt.Sprintf("n%d -> n%d;", m.ID(), e.ID()))
}

func TestWriteDOTMarksDisposedNodes(t *testing.T) {
	_, m, _ := buildDebugGraph(t)
	m.Dispose()

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, Capture()))

	assert.Contains(t, buf.String(), "style=dashed color=gray")
}

func TestWriteDOTEscapesLabels(t *testing.T) {
	reactive.EnableGraphDebug()
	t.Cleanup(reactive.DisableGraphDebug)

	reactive.NewSignal(0).WithName(`say "hi"`)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, Capture()))

	assert.Contains(t, buf.String(), `say \"hi\"`)
}
