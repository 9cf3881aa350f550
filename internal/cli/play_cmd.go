package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/cli/formatter"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

const playHelp = "Enter an option number, r to restart or q to quit."

func newPlayCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "play <scenario-id>",
		Short: "Play a scenario in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}
			d, err := cat.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatScenario(d))
			return play(d.NewSession(), cmd.InOrStdin(), out)
		},
	}
}

// play runs the prompt loop until the session ends, the user quits or input
// runs out.
func play(s *simulation.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for !s.IsTerminated() {
		fmt.Fprintln(out, formatter.FormatNode(s.CurrentNode()))
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(out, "\n"+formatter.Dim("Session abandoned."))
			return scanner.Err()
		}

		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch input {
		case "q", "quit":
			fmt.Fprintln(out, formatter.Dim("Session abandoned."))
			return nil
		case "r", "reset", "restart":
			s.Reset()
			fmt.Fprintln(out, formatter.Dim("Restarted."))
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(out, formatter.StyleYellow.Render(playHelp))
			continue
		}
		if err := s.Advance(n - 1); err != nil {
			var oor *simulation.IndexOutOfRangeError
			if errors.As(err, &oor) {
				fmt.Fprintf(out, "%s\n", formatter.StyleYellow.Render(fmt.Sprintf("Choose between 1 and %d.", oor.Count)))
				continue
			}
			return err
		}
		fmt.Fprintln(out, formatter.FormatStatus(s.Score(), s.Progress()))
	}

	outcome, _ := s.Outcome()
	fmt.Fprintln(out, formatter.FormatOutcome(*outcome, s.Score(), s.History()))
	return nil
}
