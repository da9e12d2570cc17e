package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

func (c *cli) spotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spot",
		Short: "Spot exercises: one sentence, story beats, failures, promises and constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showSpot(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var (
		sentence, mirror string
		completed        bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the one-sentence pitch and viewers-in-the-mirror answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var patch workshop.SpotExercisesPatch
			if f.Changed("sentence") {
				patch.OneSentence = &sentence
			}
			if f.Changed("mirror") {
				patch.ViewersInMirror = &mirror
			}
			if f.Changed("completed") {
				patch.Completed = &completed
			}
			if patch == (workshop.SpotExercisesPatch{}) {
				return fmt.Errorf("nothing to update; pass at least one flag (see --help)")
			}
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if err := a.ctrl.UpdateSpotExercises(patch); err != nil {
					return err
				}
				c.printer().Success("Updated spot exercises")
				return nil
			})
		},
	}
	set.Flags().StringVar(&sentence, "sentence", "", "The whole piece in one sentence")
	set.Flags().StringVar(&mirror, "mirror", "", "What viewers should see of themselves")
	set.Flags().BoolVar(&completed, "completed", false, "Mark the step completed")

	cmd.AddCommand(
		set,
		c.spotList("failure", "Ways the work could fail",
			"add <text...>", 1,
			func(a *App, args []string) error { return a.ctrl.AddFailure(strings.Join(args, " ")) },
			func(a *App, i int) error { return a.ctrl.RemoveFailure(i) },
			func(s workshop.SessionState) int { return len(s.SpotExercises.Failures) },
		),
		c.spotList("promise", "Promises and their visual proof",
			"add <claim> <proof>", 2,
			func(a *App, args []string) error { return a.ctrl.AddPromiseAndProof(args[0], strings.Join(args[1:], " ")) },
			func(a *App, i int) error { return a.ctrl.RemovePromiseAndProof(i) },
			func(s workshop.SessionState) int { return len(s.SpotExercises.PromisesAndProofs) },
		),
		c.spotList("constraint", "Production constraints and their style implications",
			"add <description> <implication>", 2,
			func(a *App, args []string) error { return a.ctrl.AddConstraint(args[0], strings.Join(args[1:], " ")) },
			func(a *App, i int) error { return a.ctrl.RemoveConstraint(i) },
			func(s workshop.SessionState) int { return len(s.SpotExercises.Constraints) },
		),
		&cobra.Command{
			Use:   "beat <id> <text...>",
			Short: "Write one story beat (setup, conflict, turning-point, resolution, call-to-action)",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				text := strings.Join(args[1:], " ")
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.ctrl.SetStoryBeat(args[0], text); err != nil {
						return err
					}
					c.printer().Success("Story beat %s set", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the spot exercises",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.showSpot(a.ctrl.Snapshot())
					return nil
				})
			},
		},
	)
	return cmd
}

// spotList builds the add/rm pair for one spot exercise list. Items are
// addressed by their 1-based position as shown by 'spot show'.
func (c *cli) spotList(
	name, short, addUse string, addArgs int,
	add func(a *App, args []string) error,
	remove func(a *App, index int) error,
	count func(workshop.SessionState) int,
) *cobra.Command {
	cmd := &cobra.Command{Use: name, Short: short}
	cmd.AddCommand(
		&cobra.Command{
			Use:   addUse,
			Short: "Add a " + name,
			Args:  cobra.MinimumNArgs(addArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := add(a, args); err != nil {
						return err
					}
					c.printer().Success("Added %s %d", name, count(a.ctrl.Snapshot()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <number>",
			Short: "Remove a " + name + " by its number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("%q is not a %s number", args[0], name)
				}
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if n < 1 || n > count(a.ctrl.Snapshot()) {
						c.printer().Warning("No %s %d; nothing changed", name, n)
						return nil
					}
					if err := remove(a, n-1); err != nil {
						return err
					}
					c.printer().Success("Removed %s %d", name, n)
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) showSpot(s workshop.SessionState) {
	p := c.printer()
	se := s.SpotExercises
	p.Heading(workshop.PhaseSpotExercises.Title())
	p.Field("One sentence", se.OneSentence)
	p.Field("Viewers in mirror", se.ViewersInMirror)

	p.Heading("Story")
	for _, b := range se.Story {
		label := b.Label
		if b.Kind == workshop.BeatRequired {
			label += " *"
		}
		p.Field(label, b.Text)
	}

	p.Heading("Failures")
	for i, f := range se.Failures {
		p.Info("  %d. %s", i+1, f)
	}
	p.Heading("Promises and proofs")
	for i, pp := range se.PromisesAndProofs {
		p.Info("  %d. %s  →  %s", i+1, pp.Claim, pp.VisualProof)
	}
	p.Heading("Constraints")
	for i, sc := range se.Constraints {
		p.Info("  %d. %s  →  %s", i+1, sc.Description, sc.StyleImplication)
	}
	if se.AISynthesis != "" {
		p.Heading("Synthesis")
		p.Info("%s", se.AISynthesis)
	}
	p.Field("Completed", yesNo(se.Completed))
}
