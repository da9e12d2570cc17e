package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

var bucketTitles = map[workshop.Bucket]string{
	workshop.BucketWillHave:  "Will have",
	workshop.BucketCouldHave: "Could have",
	workshop.BucketWontHave:  "Won't have",
}

func (c *cli) cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"cards"},
		Short:   "Prioritize requirement cards into will, could and won't have",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showCards(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var source string
	add := &cobra.Command{
		Use:   "add <description...>",
		Short: "Add a requirement card to will-have",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.Join(args, " ")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				card, err := a.ctrl.AddRequirementCard(workshop.NewRequirementCard{Description: desc, Source: source})
				if err != nil {
					return err
				}
				c.printer().Success("Added card %s", shortID(card.ID))
				return nil
			})
		},
	}
	add.Flags().StringVar(&source, "source", "", "Where the requirement came from")

	var index int
	move := &cobra.Command{
		Use:   "move <id> <bucket>",
		Short: "Move a card to a bucket (will, could, wont)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := parseBucket(args[1])
			if err != nil {
				return err
			}
			useIndex := cmd.Flags().Changed("index")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				id, ok, err := c.lookup("card", args[0], cardIDs(a.ctrl.Snapshot()))
				if !ok {
					return err
				}
				if useIndex {
					err = a.ctrl.MoveRequirementCardTo(id, bucket, index-1)
				} else {
					err = a.ctrl.MoveRequirementCard(id, bucket)
				}
				if err != nil {
					return err
				}
				c.printer().Success("Card %s is in %s", shortID(id), bucketTitles[bucket])
				return nil
			})
		},
	}
	move.Flags().IntVar(&index, "index", 0, "1-based position in the bucket (default: last)")

	var editSource string
	edit := &cobra.Command{
		Use:   "edit <id> [description...]",
		Short: "Change a card's description or source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch workshop.RequirementCardPatch
			if len(args) > 1 {
				desc := strings.Join(args[1:], " ")
				patch.Description = &desc
			}
			if cmd.Flags().Changed("source") {
				patch.Source = &editSource
			}
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				id, ok, err := c.lookup("card", args[0], cardIDs(a.ctrl.Snapshot()))
				if !ok {
					return err
				}
				if err := a.ctrl.UpdateRequirementCard(id, patch); err != nil {
					return err
				}
				c.printer().Success("Updated card %s", shortID(id))
				return nil
			})
		},
	}
	edit.Flags().StringVar(&editSource, "source", "", "Where the requirement came from")

	cmd.AddCommand(
		add,
		move,
		edit,
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a card",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					id, ok, err := c.lookup("card", args[0], cardIDs(a.ctrl.Snapshot()))
					if !ok {
						return err
					}
					if err := a.ctrl.DeleteRequirementCard(id); err != nil {
						return err
					}
					c.printer().Success("Deleted card %s", shortID(id))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List cards by bucket",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.showCards(a.ctrl.Snapshot())
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) showCards(s workshop.SessionState) {
	p := c.printer()
	for _, b := range workshop.Buckets() {
		cards := s.Prioritization.Cards(b)
		p.Heading(bucketTitles[b])
		if len(cards) == 0 {
			faint.Fprintln(p.out, "  (none)")
			continue
		}
		for i, card := range cards {
			line := card.Description
			if card.Source != "" {
				line += " [" + card.Source + "]"
			}
			p.Info("  %d. %s  %s", i+1, shortID(card.ID), line)
		}
	}
}
