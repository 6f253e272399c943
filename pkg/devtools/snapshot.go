package devtools

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/glintui/glint/pkg/reactive"
)

// Node is one reactive node in a snapshot.
type Node struct {
	ID    uint64   `json:"id"`
	Kind  string   `json:"kind"`
	Name  string   `json:"name,omitempty"`
	State string   `json:"state"`
	Deps  []uint64 `json:"deps,omitempty"`
	Subs  []uint64 `json:"subs,omitempty"`
}

// Edge is one dependency edge in data-flow direction: From is the source
// node, To the subscriber that reads it.
type Edge struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Snapshot is a point-in-time view of the reactive graph.
type Snapshot struct {
	TakenAt time.Time           `json:"taken_at"`
	Stats   reactive.GraphStats `json:"stats"`
	Nodes   []Node              `json:"nodes"`
	Edges   []Edge              `json:"edges"`
}

// Capture takes a snapshot of the runtime. Stats are always populated;
// Nodes and Edges are empty unless reactive.EnableGraphDebug was called
// before the nodes of interest were created.
func Capture() Snapshot {
	infos := reactive.GraphSnapshot()

	nodes := make([]Node, 0, len(infos))
	seen := make(map[Edge]bool)
	var edges []Edge

	for _, in := range infos {
		nodes = append(nodes, Node{
			ID:    in.ID,
			Kind:  in.Kind.String(),
			Name:  in.Name,
			State: in.State.String(),
			Deps:  in.Deps,
			Subs:  in.Subs,
		})
		for _, dep := range in.Deps {
			e := Edge{From: dep, To: in.ID}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
		for _, sub := range in.Subs {
			e := Edge{From: in.ID, To: sub}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return Snapshot{
		TakenAt: time.Now(),
		Stats:   reactive.Stats(),
		Nodes:   nodes,
		Edges:   edges,
	}
}

// WriteDOT renders the snapshot as a Graphviz digraph. Signals are boxes,
// memos ellipses, effects hexagons, owners folders; disposed nodes render
// dashed and errored nodes red.
func WriteDOT(w io.Writer, snap Snapshot) error {
	ew := &errWriter{w: w}

	ew.printf("digraph glint {\n")
	ew.printf("  rankdir=LR;\n")
	ew.printf("  node [fontname=\"monospace\" fontsize=10];\n")

	for _, n := range snap.Nodes {
		label := fmt.Sprintf("%s#%d", n.Kind, n.ID)
		if n.Name != "" {
			label = escapeDOT(n.Name) + `\n` + label
		}
		attrs := fmt.Sprintf("label=\"%s\" shape=%s", label, dotShape(n.Kind))
		switch n.State {
		case "disposed":
			attrs += " style=dashed color=gray"
		case "errored":
			attrs += " color=red"
		}
		ew.printf("  n%d [%s];\n", n.ID, attrs)
	}

	for _, e := range snap.Edges {
		ew.printf("  n%d -> n%d;\n", e.From, e.To)
	}

	ew.printf("}\n")
	return ew.err
}

func dotShape(kind string) string {
	switch kind {
	case "signal":
		return "box"
	case "memo":
		return "ellipse"
	case "effect":
		return "hexagon"
	case "owner":
		return "folder"
	default:
		return "plaintext"
	}
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// errWriter remembers the first write error so formatting loops stay flat.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
