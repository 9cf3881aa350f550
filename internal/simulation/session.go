package simulation

import (
	"math"
)

// FlatProgressStep is the per-decision progress increment used when a
// scenario does not declare an expected path length.
const FlatProgressStep = 20

// Decision is one entry of the decision log.
type Decision struct {
	Prompt string `json:"prompt"`
	Label  string `json:"label"`
	Impact string `json:"impact"`
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithExpectedPathLength sets the number of decisions along the main path.
// Progress is then reported relative to it instead of the flat step.
func WithExpectedPathLength(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.expectedPathLength = n
		}
	}
}

// WithMaxDecisions caps the number of decisions a play-through may take.
// Zero means no limit.
func WithMaxDecisions(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxDecisions = n
		}
	}
}

// Session is the mutable state of one play-through over an immutable graph.
// It is not safe for concurrent use; callers must serialize Advance and Reset.
type Session struct {
	graph  *Graph
	policy ScoringPolicy

	expectedPathLength int
	maxDecisions       int

	currentNodeID string
	score         int
	progress      int
	log           []Decision
	terminated    bool
}

// NewSession creates a session positioned at the graph root.
// A nil policy selects DefaultPolicy.
func NewSession(graph *Graph, policy ScoringPolicy, opts ...SessionOption) *Session {
	if policy == nil {
		policy = DefaultPolicy
	}
	s := &Session{
		graph:  graph,
		policy: policy,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Advance chooses the option at optionIndex on the current node.
func (s *Session) Advance(optionIndex int) error {
	if s.terminated {
		return &InvalidTransitionError{NodeID: s.currentNodeID}
	}

	node := s.graph.nodes[s.currentNodeID]
	if optionIndex < 0 || optionIndex >= len(node.Options) {
		return &IndexOutOfRangeError{
			NodeID: s.currentNodeID,
			Index:  optionIndex,
			Count:  len(node.Options),
		}
	}

	if s.maxDecisions > 0 && len(s.log) >= s.maxDecisions {
		return &DecisionLimitError{Limit: s.maxDecisions}
	}

	opt := node.Options[optionIndex]

	// Negative deltas from custom policies count as zero.
	delta := s.policy.Score(opt.Impact)
	if delta < 0 {
		delta = 0
	}

	s.log = append(s.log, Decision{
		Prompt: node.Prompt,
		Label:  opt.Label,
		Impact: opt.Impact,
	})
	s.score += delta
	s.currentNodeID = opt.Next
	s.progress = s.computeProgress()
	s.terminated = s.graph.nodes[s.currentNodeID].IsTerminal()

	return nil
}

// Reset returns the session to the root with an empty log and zero score.
func (s *Session) Reset() {
	s.currentNodeID = s.graph.rootID
	s.score = 0
	s.log = nil
	s.progress = 0
	s.terminated = s.graph.nodes[s.currentNodeID].IsTerminal()
}

func (s *Session) computeProgress() int {
	steps := len(s.log)
	if s.expectedPathLength > 0 {
		pct := int(math.Round(100 * float64(steps) / float64(s.expectedPathLength)))
		return min(100, pct)
	}
	return min(100, steps*FlatProgressStep)
}

// Graph returns the graph the session plays over.
func (s *Session) Graph() *Graph {
	return s.graph
}

// CurrentNodeID returns the id of the current node.
func (s *Session) CurrentNodeID() string {
	return s.currentNodeID
}

// CurrentNode returns the current node. It always resolves on a built graph.
func (s *Session) CurrentNode() Node {
	return s.graph.nodes[s.currentNodeID].clone()
}

// Outcome returns the terminal outcome once the session has ended.
func (s *Session) Outcome() (*Outcome, bool) {
	if !s.terminated {
		return nil, false
	}
	oc := *s.graph.nodes[s.currentNodeID].Outcome
	return &oc, true
}

// IsTerminated returns true if the current node is terminal.
func (s *Session) IsTerminated() bool {
	return s.terminated
}

// Score returns the cumulative score.
func (s *Session) Score() int {
	return s.score
}

// Progress returns the display progress in percent, 0 to 100.
func (s *Session) Progress() int {
	return s.progress
}

// Steps returns the number of decisions taken since the last reset.
func (s *Session) Steps() int {
	return len(s.log)
}

// ExpectedPathLength returns the configured main-path length, or 0 if unset.
func (s *Session) ExpectedPathLength() int {
	return s.expectedPathLength
}

// MaxDecisions returns the decision ceiling, or 0 if unlimited.
func (s *Session) MaxDecisions() int {
	return s.maxDecisions
}

// History returns a copy of the decision log.
func (s *Session) History() []Decision {
	return append([]Decision{}, s.log...)
}
