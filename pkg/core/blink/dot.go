package blink

import (
	"fmt"
	"strings"

	"github.com/emicklei/dot"
)

// RenderDot draws the tree as a Graphviz digraph: solid edges go from a
// parent to its children, dashed edges follow sibling links.
func (t *Tree) RenderDot() (string, error) {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	levels := t.Levels()
	nodes := make(map[NodeID]dot.Node)
	for _, level := range levels {
		for _, info := range level {
			nodes[info.ID] = graph.Node(fmt.Sprintf("n%d", info.ID)).Label(label(info)).Attr("shape", "box")
		}
	}

	for depth, level := range levels {
		for _, info := range level {
			from := nodes[info.ID]
			if info.Sibling != 0 {
				to, ok := nodes[info.Sibling]
				if !ok {
					return "", invalid("node %d links to sibling %d outside its level", info.ID, info.Sibling)
				}
				graph.Edge(from, to).Attr("style", "dashed").Attr("constraint", "false")
			}
		}
		if depth+1 == len(levels) {
			continue
		}
		// children of a level are the next level's chain in order
		below := levels[depth+1]
		k := 0
		for _, info := range level {
			for j := 0; j < info.Size; j++ {
				if k >= len(below) {
					return "", invalid("inner %d has more children than the level below", info.ID)
				}
				graph.Edge(nodes[info.ID], nodes[below[k].ID])
				k++
			}
		}
	}
	return graph.String(), nil
}

func label(info NodeInfo) string {
	high := "+inf"
	if !info.Open {
		high = fmt.Sprintf("%q", string(info.High))
	}
	keys := make([]string, 0, len(info.Keys))
	for _, k := range info.Keys {
		keys = append(keys, string(k))
	}
	return fmt.Sprintf("%s #%d [%q, %s)\n%s", info.Kind, info.ID, string(info.Floor), high, strings.Join(keys, " "))
}
