package simulation

import (
	"fmt"
	"strings"
)

// GraphIntegrityError reports structural defects found while building a graph.
// NodeID and Reason describe the first defect; Problems lists all of them.
type GraphIntegrityError struct {
	NodeID   string
	Reason   string
	Problems []string
}

func (e *GraphIntegrityError) Error() string {
	if len(e.Problems) > 1 {
		return fmt.Sprintf("graph integrity: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
	}
	if e.NodeID == "" {
		return "graph integrity: " + e.Reason
	}
	return fmt.Sprintf("graph integrity: node %q: %s", e.NodeID, e.Reason)
}

// InvalidTransitionError indicates Advance was called on a terminated session.
type InvalidTransitionError struct {
	NodeID string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session already terminated at node %q", e.NodeID)
}

// IndexOutOfRangeError indicates an option index outside the current node's options.
type IndexOutOfRangeError struct {
	NodeID string
	Index  int
	Count  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("option index %d out of range for node %q (%d options)", e.Index, e.NodeID, e.Count)
}

// DecisionLimitError indicates the session reached its decision ceiling without an outcome.
type DecisionLimitError struct {
	Limit int
}

func (e *DecisionLimitError) Error() string {
	return fmt.Sprintf("decision limit of %d reached without an outcome", e.Limit)
}

// SnapshotError indicates a snapshot that cannot be restored onto the given graph.
type SnapshotError struct {
	Reason string
}

func (e *SnapshotError) Error() string {
	return "invalid snapshot: " + e.Reason
}
