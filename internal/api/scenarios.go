package api

import (
	"errors"
	"net/http"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
)

type ScenarioSummary struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	Duration           string   `json:"duration,omitempty"`
	Description        string   `json:"description,omitempty"`
	Objectives         []string `json:"objectives,omitempty"`
	Skills             []string `json:"skills,omitempty"`
	ExpectedPathLength int      `json:"expected_path_length,omitempty"`
	MaxDecisions       int      `json:"max_decisions,omitempty"`
	Nodes              int      `json:"nodes"`
}

func summarize(d catalog.Definition) ScenarioSummary {
	s := ScenarioSummary{
		ID:                 d.ID,
		Title:              d.Title,
		Category:           d.Category,
		Difficulty:         d.Difficulty.String(),
		Description:        d.Description,
		Objectives:         d.Objectives,
		Skills:             d.Skills,
		ExpectedPathLength: d.ExpectedPathLength,
		MaxDecisions:       d.MaxDecisions,
		Nodes:              d.Graph.Len(),
	}
	if d.Duration > 0 {
		s.Duration = d.Duration.String()
	}
	return s
}

// listScenariosHandler supports ?category=, ?max_difficulty= and ?skill=.
func (s *Server) listScenariosHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.Query{
		Category: q.Get("category"),
		Skill:    q.Get("skill"),
	}
	if v := q.Get("max_difficulty"); v != "" {
		d, err := catalog.ParseDifficulty(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.MaxDifficulty = d
	}

	defs := s.manager.Catalog().Filter(query)
	out := make([]ScenarioSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, summarize(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getScenarioHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.Catalog().Get(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(d))
}

func (s *Server) scenarioGraphHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.Catalog().Get(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Graph.Document())
}

func isNotFound(err error) bool {
	var nf *catalog.NotFoundError
	return errors.As(err, &nf)
}
