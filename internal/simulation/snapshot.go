package simulation

import (
	"fmt"
)

// Snapshot is the plain-data state needed to resume a session.
type Snapshot struct {
	CurrentNodeID   string     `json:"current_node_id"`
	CumulativeScore int        `json:"cumulative_score"`
	DecisionLog     []Decision `json:"decision_log"`
}

// Snapshot captures the session state. The returned value shares nothing with s.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		CurrentNodeID:   s.currentNodeID,
		CumulativeScore: s.score,
		DecisionLog:     s.History(),
	}
}

// FromSnapshot restores a session from snap without replaying its decisions.
// The snapshot must point at a node of graph and carry a non-negative score.
func FromSnapshot(graph *Graph, policy ScoringPolicy, snap Snapshot, opts ...SessionOption) (*Session, error) {
	if snap.CurrentNodeID == "" {
		return nil, &SnapshotError{Reason: "current node id is empty"}
	}
	if !graph.HasNode(snap.CurrentNodeID) {
		return nil, &SnapshotError{Reason: fmt.Sprintf("node %q does not exist in graph", snap.CurrentNodeID)}
	}
	if snap.CumulativeScore < 0 {
		return nil, &SnapshotError{Reason: fmt.Sprintf("cumulative score %d is negative", snap.CumulativeScore)}
	}

	s := NewSession(graph, policy, opts...)
	s.currentNodeID = snap.CurrentNodeID
	s.score = snap.CumulativeScore
	if len(snap.DecisionLog) > 0 {
		s.log = append([]Decision{}, snap.DecisionLog...)
	}
	s.progress = s.computeProgress()
	s.terminated = graph.nodes[s.currentNodeID].IsTerminal()

	return s, nil
}
