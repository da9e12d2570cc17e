package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

func (c *cli) timerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Workshop countdown timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.printer().Info("%s", c.timerLine(a))
				return nil
			})
		},
	}

	action := func(use, short string, fn func(*workshop.Controller) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := fn(a.ctrl); err != nil {
						return err
					}
					c.printer().Success("Timer %s", c.timerLine(a))
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <duration>",
			Short: "Start the countdown (minutes, or a duration like 90s or 10m)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				seconds, err := parseSeconds(args[0])
				if err != nil {
					return err
				}
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.ctrl.StartTimer(seconds); err != nil {
						return err
					}
					c.printer().Success("Timer %s", c.timerLine(a))
					return nil
				})
			},
		},
		action("pause", "Pause the countdown", (*workshop.Controller).PauseTimer),
		action("resume", "Resume a paused countdown", (*workshop.Controller).ResumeTimer),
		action("stop", "Stop and clear the countdown", (*workshop.Controller).StopTimer),
		&cobra.Command{
			Use:   "status",
			Short: "Show the countdown",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.printer().Info("%s", c.timerLine(a))
					return nil
				})
			},
		},
	)
	return cmd
}

// timerLine renders the timer state, e.g. "running 4:32 of 10:00".
func (c *cli) timerLine(a *App) string {
	status := a.ctrl.TimerStatus()
	if status == workshop.TimerIdle {
		return string(status)
	}
	snap := a.ctrl.Snapshot()
	return string(status) + " " + clock(a.ctrl.TimerRemaining()) + " of " + clock(snap.Timer.Duration)
}
