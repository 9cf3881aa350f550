package simulation

import (
	"fmt"
	"sort"
)

type defect struct {
	nodeID string
	reason string
}

// Build validates nodes and returns an immutable graph.
// An empty rootID selects DefaultRootID. All structural defects are
// collected into a single *GraphIntegrityError. Cycles are allowed.
func Build(nodes map[string]Node, rootID string) (*Graph, error) {
	if rootID == "" {
		rootID = DefaultRootID
	}

	var defects []defect

	if len(nodes) == 0 {
		defects = append(defects, defect{reason: "graph has no nodes"})
	} else if _, ok := nodes[rootID]; !ok {
		defects = append(defects, defect{nodeID: rootID, reason: "root node does not exist"})
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	built := make(map[string]Node, len(nodes))
	for _, id := range ids {
		node := nodes[id]
		defects = append(defects, checkNode(id, node, nodes)...)

		node = node.clone()
		node.ID = id
		built[id] = node
	}

	if len(defects) > 0 {
		problems := make([]string, len(defects))
		for i, d := range defects {
			if d.nodeID == "" {
				problems[i] = d.reason
			} else {
				problems[i] = fmt.Sprintf("node %q: %s", d.nodeID, d.reason)
			}
		}
		return nil, &GraphIntegrityError{
			NodeID:   defects[0].nodeID,
			Reason:   defects[0].reason,
			Problems: problems,
		}
	}

	return &Graph{rootID: rootID, nodes: built}, nil
}

func checkNode(id string, node Node, nodes map[string]Node) []defect {
	var out []defect

	if id == "" {
		out = append(out, defect{reason: "node with empty id"})
	}
	if node.ID != "" && node.ID != id {
		out = append(out, defect{nodeID: id, reason: fmt.Sprintf("declared id %q does not match key", node.ID)})
	}

	switch {
	case node.Outcome != nil && node.Options != nil:
		out = append(out, defect{nodeID: id, reason: "node has both options and an outcome"})
	case node.Outcome == nil && node.Options == nil:
		out = append(out, defect{nodeID: id, reason: "node has neither options nor an outcome"})
	case node.Outcome == nil && len(node.Options) == 0:
		out = append(out, defect{nodeID: id, reason: "options list is empty"})
	}

	if node.Outcome != nil && node.Outcome.Score < 0 {
		out = append(out, defect{nodeID: id, reason: fmt.Sprintf("outcome score %d is negative", node.Outcome.Score)})
	}

	for i, opt := range node.Options {
		if _, ok := nodes[opt.Next]; !ok {
			out = append(out, defect{nodeID: id, reason: fmt.Sprintf("option %d (%q) points to unknown node %q", i, opt.Label, opt.Next)})
		}
	}

	return out
}

// Lint returns authoring warnings for a built graph. Warnings do not block play.
func Lint(g *Graph) []string {
	var warnings []string
	for _, id := range g.Unreachable() {
		warnings = append(warnings, fmt.Sprintf("node %q is unreachable from root %q", id, g.RootID()))
	}
	if !g.HasReachableTerminal() {
		warnings = append(warnings, fmt.Sprintf("no terminal node is reachable from root %q", g.RootID()))
	}
	return warnings
}
