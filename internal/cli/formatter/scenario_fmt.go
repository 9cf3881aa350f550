package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

// FormatScenarioList renders the catalog as a table.
func FormatScenarioList(defs []catalog.Definition) string {
	if len(defs) == 0 {
		return Dim("No scenarios.") + "\n"
	}
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		duration := "-"
		if d.Duration > 0 {
			duration = d.Duration.String()
		}
		rows = append(rows, []string{
			d.ID,
			d.Title,
			d.Category,
			d.Difficulty.String(),
			duration,
			strconv.Itoa(d.Graph.Len()),
		})
	}
	return RenderTable([]string{"ID", "TITLE", "CATEGORY", "DIFFICULTY", "DURATION", "NODES"}, rows)
}

// FormatScenario renders one scenario's metadata.
func FormatScenario(d catalog.Definition) string {
	var b strings.Builder
	b.WriteString(Header(d.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", Dim("id:        "), d.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("category:  "), d.Category)
	fmt.Fprintf(&b, "%s %s\n", Dim("difficulty:"), d.Difficulty)
	if d.Duration > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("duration:  "), d.Duration)
	}
	fmt.Fprintf(&b, "%s %d (%d terminal)\n", Dim("nodes:     "), d.Graph.Len(), len(d.Graph.Terminals()))
	if d.Description != "" {
		b.WriteString("\n" + d.Description + "\n")
	}
	if len(d.Objectives) > 0 {
		b.WriteString("\n" + Bold("Objectives") + "\n")
		for _, o := range d.Objectives {
			b.WriteString("  • " + o + "\n")
		}
	}
	if len(d.Skills) > 0 {
		fmt.Fprintf(&b, "\n%s %s\n", Bold("Skills:"), strings.Join(d.Skills, ", "))
	}
	return b.String()
}

// FormatNode renders a decision point with numbered options starting at 1.
func FormatNode(n simulation.Node) string {
	var b strings.Builder
	b.WriteString(Bold(n.Prompt) + "\n")
	for i, o := range n.Options {
		fmt.Fprintf(&b, "  %d) %s %s\n", i+1, o.Label, ImpactStyle(o.Impact).Render("["+o.Impact+"]"))
	}
	return b.String()
}

// FormatStatus renders score and progress on one line.
func FormatStatus(score, progress int) string {
	return fmt.Sprintf("%s %d  %s %s", Dim("score"), score, Dim("progress"), RenderProgress(progress, 20))
}

// FormatOutcome renders the end of a play-through.
func FormatOutcome(o simulation.Outcome, score int, history []simulation.Decision) string {
	var b strings.Builder
	verdict := StyleGreen.Render("SUCCESS")
	if !o.Success {
		verdict = StyleRed.Render("FAILURE")
	}
	fmt.Fprintf(&b, "%s  %s\n", verdict, o.Message)
	fmt.Fprintf(&b, "%s %d  %s %d\n", Dim("outcome score"), o.Score, Dim("decision score"), score)
	if len(history) > 0 {
		b.WriteString("\n" + Bold("Decisions") + "\n")
		for i, d := range history {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, d.Label, Dim("("+d.Impact+")"))
		}
	}
	return RenderBox("Outcome", strings.TrimRight(b.String(), "\n"))
}
