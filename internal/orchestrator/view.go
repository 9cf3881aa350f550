package orchestrator

import (
	"time"

	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

// View is a point-in-time copy of a live session's state.
type View struct {
	ID            string          `json:"id"`
	ScenarioID    string          `json:"scenario_id"`
	ScenarioTitle string          `json:"scenario_title"`
	CurrentNode   simulation.Node `json:"current_node"`
	Score         int             `json:"score"`
	Progress      int             `json:"progress"`
	Steps         int             `json:"steps"`
	MaxDecisions  int             `json:"max_decisions,omitempty"`
	// ExpectedPathLength is the main-path decision count Progress is
	// measured against, or 0 when progress advances by a flat step.
	ExpectedPathLength int                   `json:"expected_path_length,omitempty"`
	Terminated         bool                  `json:"terminated"`
	Outcome            *simulation.Outcome   `json:"outcome,omitempty"`
	History            []simulation.Decision `json:"history"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func newView(ls *liveSession) View {
	s := ls.session
	v := View{
		ID:                 ls.id,
		ScenarioID:         ls.def.ID,
		ScenarioTitle:      ls.def.Title,
		CurrentNode:        s.CurrentNode(),
		Score:              s.Score(),
		Progress:           s.Progress(),
		Steps:              s.Steps(),
		MaxDecisions:       s.MaxDecisions(),
		ExpectedPathLength: s.ExpectedPathLength(),
		Terminated:         s.IsTerminated(),
		History:            s.History(),
		CreatedAt:          ls.createdAt,
		UpdatedAt:          ls.updatedAt,
	}
	if oc, ok := s.Outcome(); ok {
		v.Outcome = oc
	}
	return v
}
