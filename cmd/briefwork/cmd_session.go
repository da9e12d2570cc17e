package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show and manage workshop sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showSession(a)
				return nil
			})
		},
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if !asJSON {
					c.showSession(a)
					return nil
				}
				snap := a.ctrl.Snapshot()
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("encode session: %w", err)
				}
				fmt.Fprintln(c.out, string(data))
				return nil
			})
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "Print the full session state as JSON")

	cmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "new",
			Short: "Start a new session and make it active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.newSession(ctx); err != nil {
						return err
					}
					c.printer().Success("Started session %s", a.ctrl.SessionID())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List saved sessions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), c.listSessions)
			},
		},
		&cobra.Command{
			Use:   "use <id>",
			Short: "Make a saved session active",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
					id, _, err := c.resolveSessionID(ctx, a, args[0])
					if err != nil {
						return err
					}
					if err := a.openSession(ctx, id); err != nil {
						return err
					}
					c.printer().Success("Active session is now %s", id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Discard the active session and start over",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					old := a.ctrl.SessionID()
					if err := a.ctrl.Reset(); err != nil {
						return err
					}
					if err := a.gateway.Delete(ctx, old); err != nil {
						return err
					}
					c.printer().Success("Reset session; new id is %s", a.ctrl.SessionID())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
					id, found, err := c.resolveSessionID(ctx, a, args[0])
					if err != nil {
						return err
					}
					if !found {
						c.printer().Warning("No session %q; nothing changed", args[0])
						return nil
					}
					if err := a.gateway.Delete(ctx, id); err != nil {
						return err
					}
					c.printer().Success("Deleted session %s", id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "demo",
			Short: "Fill the active session with demo answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.ctrl.FillDemoData(); err != nil {
						return err
					}
					c.printer().Success("Filled session %s with demo data", a.ctrl.SessionID())
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) showSession(a *App) {
	s := a.ctrl.Snapshot()
	p := c.printer()
	p.Heading("Session " + s.SessionID)
	p.Field("Project", s.ProjectContext.ProjectName)
	p.Field("Phase", fmt.Sprintf("%s (%d/%d)", s.CurrentPhase.Title(), s.CurrentPhase.Index()+1, len(workshop.Phases())))
	p.Field("Provider", fmt.Sprintf("%s / %s", s.LLMConfig.Provider, s.LLMConfig.ResolvedModel()))
	p.Field("Notes", fmt.Sprintf("%d in %d clusters", len(s.StickyNoteExercise.Notes), len(s.StickyNoteExercise.Clusters)))
	p.Field("Cards", fmt.Sprintf("%d will, %d could, %d won't",
		len(s.Prioritization.WillHave), len(s.Prioritization.CouldHave), len(s.Prioritization.WontHave)))
	p.Field("Timer", c.timerLine(a))
	p.Field("Updated", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

func (c *cli) listSessions(ctx context.Context, a *App) error {
	summaries, err := a.gateway.List(ctx)
	if err != nil {
		return err
	}
	p := c.printer()
	if len(summaries) == 0 {
		p.Info("No saved sessions. Run 'briefwork session new' to start one.")
		return nil
	}
	active := a.readActiveSession()
	for _, s := range summaries {
		marker := " "
		if s.SessionID == active {
			marker = "*"
		}
		name := s.ProjectName
		if name == "" {
			name = "(untitled)"
		}
		p.Info("%s %s  %-28s %-22s %s", marker, shortID(s.SessionID), name, s.Phase, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// resolveSessionID expands a session id prefix against the saved sessions.
// An unmatched prefix is returned as is so the store reports it missing.
func (c *cli) resolveSessionID(ctx context.Context, a *App, prefix string) (string, bool, error) {
	summaries, err := a.gateway.List(ctx)
	if err != nil {
		return "", false, err
	}
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.SessionID
	}
	return resolveID("session", prefix, ids)
}
