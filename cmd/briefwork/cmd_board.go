package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

// Default size of a cluster created from the command line.
const (
	defaultClusterWidth  = 320
	defaultClusterHeight = 240
)

// lookup resolves an id prefix against ids and warns when nothing matches.
// ok is false when the caller should stop without error.
func (c *cli) lookup(kind, prefix string, ids []string) (id string, ok bool, err error) {
	id, found, err := resolveID(kind, prefix, ids)
	if err != nil {
		return "", false, err
	}
	if !found {
		c.printer().Warning("No %s %q; nothing changed", kind, prefix)
		return "", false, nil
	}
	return id, true, nil
}

func parseFloats(args ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = f
	}
	return out, nil
}

func (c *cli) noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Sticky notes for the diverge and converge phases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showBoard(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var x, y float64
	add := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a sticky note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				note, err := a.ctrl.AddStickyNote(text, x, y)
				if err != nil {
					return err
				}
				c.printer().Success("Added note %s", shortID(note.ID))
				return nil
			})
		},
	}
	add.Flags().Float64Var(&x, "x", 0, "Board x position")
	add.Flags().Float64Var(&y, "y", 0, "Board y position")

	noteOp := func(use, short string, nargs int, fn func(a *App, id string, rest []string) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					id, ok, err := c.lookup("note", args[0], noteIDs(a.ctrl.Snapshot()))
					if !ok {
						return err
					}
					msg, err := fn(a, id, args[1:])
					if err != nil {
						return err
					}
					c.printer().Success("%s", msg)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		add,
		noteOp("edit <id> <text...>", "Replace the text of a note", 2, func(a *App, id string, rest []string) (string, error) {
			text := strings.Join(rest, " ")
			return "Updated note " + shortID(id), a.ctrl.UpdateStickyNote(id, workshop.StickyNotePatch{Text: &text})
		}),
		noteOp("move <id> <x> <y>", "Move a note on the board", 3, func(a *App, id string, rest []string) (string, error) {
			pos, err := parseFloats(rest[:2]...)
			if err != nil {
				return "", err
			}
			return "Moved note " + shortID(id), a.ctrl.MoveStickyNote(id, pos[0], pos[1])
		}),
		noteOp("rm <id>", "Delete a note", 1, func(a *App, id string, _ []string) (string, error) {
			return "Deleted note " + shortID(id), a.ctrl.DeleteStickyNote(id)
		}),
		noteOp("assign <id> <cluster|none>", "Put a note in a cluster, or take it out with 'none'", 2, func(a *App, id string, rest []string) (string, error) {
			if rest[0] == "none" {
				return "Unclustered note " + shortID(id), a.ctrl.AssignNoteToCluster(id, nil)
			}
			clusterID, _, err := resolveID("cluster", rest[0], clusterIDs(a.ctrl.Snapshot()))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Assigned note %s to cluster %s", shortID(id), shortID(clusterID)),
				a.ctrl.AssignNoteToCluster(id, &clusterID)
		}),
		&cobra.Command{
			Use:   "list",
			Short: "List notes and clusters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.showBoard(a.ctrl.Snapshot())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "focus <prompt...>",
			Short: "Set the question the notes are answering",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				prompt := strings.Join(args, " ")
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.ctrl.SetFocusPrompt(prompt); err != nil {
						return err
					}
					c.printer().Success("Focus prompt set")
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) clusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cluster",
		Aliases: []string{"clusters"},
		Short:   "Group sticky notes into clusters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showBoard(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var (
		notes         []string
		x, y          float64
		width, height float64
	)
	add := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a cluster, optionally moving notes into it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				ids := noteIDs(a.ctrl.Snapshot())
				resolved := make([]string, 0, len(notes))
				for _, prefix := range notes {
					id, _, err := resolveID("note", prefix, ids)
					if err != nil {
						return err
					}
					resolved = append(resolved, id)
				}
				cl, err := a.ctrl.AddCluster(workshop.NewCluster{
					Title:   title,
					NoteIDs: resolved,
					X:       x,
					Y:       y,
					Width:   width,
					Height:  height,
				})
				if err != nil {
					return err
				}
				c.printer().Success("Added cluster %s with %d notes", shortID(cl.ID), len(cl.NoteIDs))
				return nil
			})
		},
	}
	add.Flags().StringSliceVar(&notes, "notes", nil, "Note ids to move into the cluster")
	add.Flags().Float64Var(&x, "x", 0, "Board x position")
	add.Flags().Float64Var(&y, "y", 0, "Board y position")
	add.Flags().Float64Var(&width, "width", defaultClusterWidth, "Cluster width")
	add.Flags().Float64Var(&height, "height", defaultClusterHeight, "Cluster height")

	clusterOp := func(use, short string, nargs int, fn func(a *App, id string, rest []string) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					id, ok, err := c.lookup("cluster", args[0], clusterIDs(a.ctrl.Snapshot()))
					if !ok {
						return err
					}
					msg, err := fn(a, id, args[1:])
					if err != nil {
						return err
					}
					c.printer().Success("%s", msg)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		add,
		clusterOp("rename <id> <title...>", "Rename a cluster", 2, func(a *App, id string, rest []string) (string, error) {
			title := strings.Join(rest, " ")
			return "Renamed cluster " + shortID(id), a.ctrl.UpdateCluster(id, workshop.ClusterPatch{Title: &title})
		}),
		clusterOp("move <id> <x> <y>", "Move a cluster", 3, func(a *App, id string, rest []string) (string, error) {
			pos, err := parseFloats(rest[:2]...)
			if err != nil {
				return "", err
			}
			return "Moved cluster " + shortID(id), a.ctrl.MoveCluster(id, pos[0], pos[1])
		}),
		clusterOp("resize <id> <width> <height>", "Resize a cluster", 3, func(a *App, id string, rest []string) (string, error) {
			size, err := parseFloats(rest[:2]...)
			if err != nil {
				return "", err
			}
			return "Resized cluster " + shortID(id), a.ctrl.ResizeCluster(id, size[0], size[1])
		}),
		clusterOp("rm <id>", "Delete a cluster; its notes stay on the board", 1, func(a *App, id string, _ []string) (string, error) {
			return "Deleted cluster " + shortID(id), a.ctrl.DeleteCluster(id)
		}),
		&cobra.Command{
			Use:   "list",
			Short: "List clusters and their notes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.showBoard(a.ctrl.Snapshot())
					return nil
				})
			},
		},
	)
	return cmd
}

// showBoard prints clusters with their notes, then the unclustered notes.
func (c *cli) showBoard(s workshop.SessionState) {
	p := c.printer()
	ex := s.StickyNoteExercise
	if ex.FocusPrompt != "" {
		p.Field("Focus", ex.FocusPrompt)
	}
	if len(ex.Notes) == 0 && len(ex.Clusters) == 0 {
		p.Info("The board is empty. Add a note with 'briefwork note add <text>'.")
		return
	}

	for _, cl := range ex.Clusters {
		p.Heading(fmt.Sprintf("[%s] %s", shortID(cl.ID), cl.Title))
		for _, n := range s.ClusterNotes(cl.ID) {
			p.Info("  %s  %s", shortID(n.ID), n.Text)
		}
		if cl.AISummary != "" {
			faint.Fprintf(p.out, "  summary: %s\n", cl.AISummary)
		}
	}

	var loose []workshop.StickyNote
	for _, n := range ex.Notes {
		if n.ClusterID == nil {
			loose = append(loose, n)
		}
	}
	if len(loose) > 0 {
		p.Heading("Unclustered")
		for _, n := range loose {
			p.Info("  %s  %s", shortID(n.ID), n.Text)
		}
	}
}
