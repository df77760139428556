package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetor-ai/praetor/internal/directory"
	"github.com/praetor-ai/praetor/internal/engine"
	"github.com/praetor-ai/praetor/internal/event"
	"github.com/praetor-ai/praetor/internal/logging"
	"github.com/praetor-ai/praetor/internal/model"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted three-agent debate and print its lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := directory.NewStatic(map[string]directory.AgentInfo{
			"analyst":  {TrustWeight: 0.9, MediatorEligible: true},
			"engineer": {TrustWeight: 0.8},
			"reviewer": {TrustWeight: 0.7},
		})

		defaults, err := engine.DefaultsFrom(cfg.Debate)
		if err != nil {
			return err
		}
		defaults.MaxRounds = 2
		defaults.TurnTimeout = time.Minute

		eng := engine.New(defaults,
			engine.WithDirectory(dir),
			engine.WithLogger(logging.Nop()),
		)
		defer eng.Close()

		out := cmd.OutOrStdout()
		eng.Bus().SubscribeAll(func(e event.Event) {
			switch ev := e.(type) {
			case event.TransitionEvent:
				fmt.Fprintf(out, "  [%s] %s -> %s (%s)\n", ev.EventType(), ev.From, ev.To, ev.Reason)
			case event.VerdictEvent:
				fmt.Fprintf(out, "  [%s] %s wins at confidence %.2f (%s)\n", ev.EventType(), ev.WinningPosition, ev.ConfidenceScore, ev.Algorithm)
			default:
				fmt.Fprintf(out, "  [%s]\n", e.EventType())
			}
		})

		topic := "adopt request rate limiting at the gateway"
		agents := []string{"analyst", "engineer", "reviewer"}
		id, err := eng.InitiateDebate(engine.InitiateRequest{Topic: topic, Agents: agents})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "debate %s: %s\n", id, topic)

		if err := eng.Begin(id); err != nil {
			return err
		}

		claims := map[string]struct {
			stance model.Stance
			text   string
		}{
			"analyst":  {model.StanceFor, "gateway saturation incidents correlate with unthrottled clients"},
			"engineer": {model.StanceFor, "a token bucket at the gateway is a one-sprint change"},
			"reviewer": {model.StanceAgainst, "rate limiting may mask the underlying capacity problem"},
		}
		for round := 1; round <= 2; round++ {
			for _, agent := range agents {
				c := claims[agent]
				arg, err := eng.SubmitArgument(id, agent, c.stance, fmt.Sprintf("round %d: %s", round, c.text), "")
				if err != nil {
					return err
				}
				if agent == "analyst" {
					if _, err := eng.SubmitEvidence(id, arg.ID, agent, model.SourceEmpirical, 0.85, "incident reports from the last quarter"); err != nil {
						return err
					}
				}
			}
		}

		for agent, position := range map[string]string{
			"analyst":  "adopt",
			"engineer": "adopt",
			"reviewer": "defer",
		} {
			if err := eng.SubmitVote(id, agent, position, 0.8, ""); err != nil {
				return err
			}
		}

		v, err := eng.GetVerdict(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "verdict: %s (confidence %.2f, dissenting %v)\n", v.WinningPosition, v.ConfidenceScore, v.Dissenting)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
