package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

// Difficulty is an ordered scenario difficulty level.
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	Beginner
	Intermediate
	Advanced
	Expert
)

var difficultyNames = map[Difficulty]string{
	Beginner:     "beginner",
	Intermediate: "intermediate",
	Advanced:     "advanced",
	Expert:       "expert",
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range difficultyNames {
		if n == name {
			return d, nil
		}
	}
	return DifficultyUnknown, fmt.Errorf("unknown difficulty: %q", s)
}

func (d Difficulty) String() string {
	if n, ok := difficultyNames[d]; ok {
		return n
	}
	return "unknown"
}

// Less reports whether d is easier than other.
func (d Difficulty) Less(other Difficulty) bool {
	return d < other
}

// MarshalText implements encoding.TextMarshaler.
func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Definition describes one playable scenario. It is immutable once loaded.
type Definition struct {
	ID          string
	Title       string
	Category    string
	Description string
	Difficulty  Difficulty
	Duration    time.Duration
	Objectives  []string
	Skills      []string

	// ExpectedPathLength is the number of decisions along the main path.
	// Zero selects the flat progress step.
	ExpectedPathLength int

	// MaxDecisions caps a play-through. Zero means no limit.
	MaxDecisions int

	Policy simulation.ScoringPolicy
	Graph  *simulation.Graph
}

func (d Definition) sessionOptions() []simulation.SessionOption {
	return []simulation.SessionOption{
		simulation.WithExpectedPathLength(d.ExpectedPathLength),
		simulation.WithMaxDecisions(d.MaxDecisions),
	}
}

// NewSession starts a play-through of the scenario.
func (d Definition) NewSession() *simulation.Session {
	return simulation.NewSession(d.Graph, d.Policy, d.sessionOptions()...)
}

// Restore resumes a play-through from a snapshot.
func (d Definition) Restore(snap simulation.Snapshot) (*simulation.Session, error) {
	return simulation.FromSnapshot(d.Graph, d.Policy, snap, d.sessionOptions()...)
}

// HasSkill returns true if the scenario trains the given skill.
func (d Definition) HasSkill(skill string) bool {
	for _, s := range d.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}
