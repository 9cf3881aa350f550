package simulation

import (
	"sort"
)

// DefaultRootID is the conventional id of the entry node.
const DefaultRootID = "start"

// Node is one situation in a scenario.
// A node carries either Options (non-terminal) or an Outcome (terminal), never both.
type Node struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// Option is a single choice offered by a non-terminal node.
type Option struct {
	Label  string `json:"label" yaml:"label"`
	Next   string `json:"next" yaml:"next"`
	Impact string `json:"impact" yaml:"impact"`
}

// Outcome ends a play-through.
type Outcome struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
	Score   int    `json:"score" yaml:"score"`
}

// IsTerminal returns true if the node ends the session.
func (n Node) IsTerminal() bool {
	return n.Outcome != nil
}

// clone returns a copy that shares nothing mutable with n.
func (n Node) clone() Node {
	out := n
	if n.Options != nil {
		out.Options = append([]Option(nil), n.Options...)
	}
	if n.Outcome != nil {
		oc := *n.Outcome
		out.Outcome = &oc
	}
	return out
}

// Graph is a validated decision graph. It is never mutated after Build
// and may be shared by any number of sessions.
type Graph struct {
	rootID string
	nodes  map[string]Node
}

// RootID returns the id of the entry node.
func (g *Graph) RootID() string {
	return g.rootID
}

// Root returns the entry node.
func (g *Graph) Root() Node {
	return g.nodes[g.rootID].clone()
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// HasNode returns true if the node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeIDs returns all node ids in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns a copy of every node keyed by id.
func (g *Graph) Nodes() map[string]Node {
	out := make(map[string]Node, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = n.clone()
	}
	return out
}

// Terminals returns the ids of all terminal nodes, sorted.
func (g *Graph) Terminals() []string {
	var ids []string
	for _, id := range g.NodeIDs() {
		if g.nodes[id].IsTerminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reachable returns the set of node ids reachable from the root, root included.
func (g *Graph) Reachable() map[string]bool {
	visited := make(map[string]bool)
	queue := []string{g.rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, opt := range g.nodes[current].Options {
			if !visited[opt.Next] {
				queue = append(queue, opt.Next)
			}
		}
	}

	return visited
}

// Unreachable returns the sorted ids of nodes that no path from the root visits.
func (g *Graph) Unreachable() []string {
	reachable := g.Reachable()
	var ids []string
	for _, id := range g.NodeIDs() {
		if !reachable[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasReachableTerminal returns true if at least one terminal node can be reached from the root.
func (g *Graph) HasReachableTerminal() bool {
	return g.ShortestPathLength() >= 0
}

// ShortestPathLength returns the fewest decisions needed to reach any terminal
// node from the root, or -1 if no terminal is reachable.
func (g *Graph) ShortestPathLength() int {
	depth := map[string]int{g.rootID: 0}
	queue := []string{g.rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		if node.IsTerminal() {
			return depth[current]
		}
		for _, opt := range node.Options {
			if _, seen := depth[opt.Next]; seen {
				continue
			}
			depth[opt.Next] = depth[current] + 1
			queue = append(queue, opt.Next)
		}
	}

	return -1
}
