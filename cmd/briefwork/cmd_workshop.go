package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/workshop"
)

func (c *cli) phaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Show or change the workshop phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.listPhases(a.ctrl.Phase())
				return nil
			})
		},
	}

	step := func(use, short string, move func(*workshop.Controller) (workshop.Phase, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					p, err := move(a.ctrl)
					if err != nil {
						return err
					}
					c.printer().Success("Phase: %s", p.Title())
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <phase>",
			Short: "Jump to a phase",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := workshop.ParsePhase(args[0])
				if err != nil {
					return err
				}
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.ctrl.SetPhase(p); err != nil {
						return err
					}
					c.printer().Success("Phase: %s", p.Title())
					return nil
				})
			},
		},
		step("next", "Advance to the next phase", (*workshop.Controller).NextPhase),
		step("prev", "Go back to the previous phase", (*workshop.Controller).PreviousPhase),
	)
	return cmd
}

func (c *cli) listPhases(current workshop.Phase) {
	p := c.printer()
	for i, ph := range workshop.Phases() {
		marker := " "
		if ph == current {
			marker = ">"
		}
		note := ""
		if ph.Optional() {
			note = " (optional)"
		}
		line := fmt.Sprintf("%s %d. %-24s %s%s", marker, i+1, ph.Title(), ph, note)
		if ph == current {
			cyan.Fprintln(p.out, line)
			continue
		}
		p.Info("%s", line)
	}
}

func (c *cli) contextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or edit the project context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showContext(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var (
		name, description, stakeholders, constraints, timeline string
		duration                                                int
		completed                                               bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update project context fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var patch workshop.ProjectContextPatch
			if f.Changed("name") {
				patch.ProjectName = &name
			}
			if f.Changed("description") {
				patch.ProjectDescription = &description
			}
			if f.Changed("stakeholders") {
				patch.Stakeholders = &stakeholders
			}
			if f.Changed("constraints") {
				patch.Constraints = &constraints
			}
			if f.Changed("timeline") {
				patch.Timeline = &timeline
			}
			if f.Changed("duration") {
				patch.Duration = &duration
			}
			if f.Changed("completed") {
				patch.Completed = &completed
			}
			if patch == (workshop.ProjectContextPatch{}) {
				return fmt.Errorf("nothing to update; pass at least one flag (see --help)")
			}
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if err := a.ctrl.UpdateProjectContext(patch); err != nil {
					return err
				}
				c.printer().Success("Updated project context")
				return nil
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "Project name")
	set.Flags().StringVar(&description, "description", "", "Project description")
	set.Flags().StringVar(&stakeholders, "stakeholders", "", "Stakeholders")
	set.Flags().StringVar(&constraints, "constraints", "", "Constraints")
	set.Flags().StringVar(&timeline, "timeline", "", "Timeline")
	set.Flags().IntVar(&duration, "duration", 0, "Workshop duration in minutes (15-480)")
	set.Flags().BoolVar(&completed, "completed", false, "Mark the step completed")

	cmd.AddCommand(set)
	return cmd
}

func (c *cli) showContext(s workshop.SessionState) {
	p := c.printer()
	pc := s.ProjectContext
	p.Heading(workshop.PhaseProjectContext.Title())
	field := func(label, key, value string) {
		if m, ok := s.ProjectContextMetadata[key]; ok && m.Source == workshop.SourceAI && value != "" {
			value = fmt.Sprintf("%s (ai, %.0f%%)", value, m.Confidence*100)
		}
		p.Field(label, value)
	}
	field("Name", workshop.FieldProjectName, pc.ProjectName)
	field("Description", workshop.FieldProjectDescription, pc.ProjectDescription)
	field("Stakeholders", workshop.FieldStakeholders, pc.Stakeholders)
	field("Constraints", workshop.FieldConstraints, pc.Constraints)
	field("Timeline", workshop.FieldTimeline, pc.Timeline)
	field("Duration", workshop.FieldDuration, fmt.Sprintf("%d min", pc.Duration))
	p.Field("Completed", yesNo(pc.Completed))
}

func (c *cli) discoveryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discovery",
		Short: "Show or edit customer discovery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showDiscovery(a.ctrl.Snapshot())
				return nil
			})
		},
	}

	var (
		who, what, whyNow, success string
		completed                  bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Answer the four discovery questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var patch workshop.CustomerDiscoveryPatch
			if f.Changed("who") {
				patch.WhoIsThisFor = &who
			}
			if f.Changed("what") {
				patch.WhatIsBeingOffered = &what
			}
			if f.Changed("why-now") {
				patch.WhyNow = &whyNow
			}
			if f.Changed("success") {
				patch.WhatIsSuccess = &success
			}
			if f.Changed("completed") {
				patch.Completed = &completed
			}
			if patch == (workshop.CustomerDiscoveryPatch{}) {
				return fmt.Errorf("nothing to update; pass at least one flag (see --help)")
			}
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if err := a.ctrl.UpdateCustomerDiscovery(patch); err != nil {
					return err
				}
				c.printer().Success("Updated customer discovery")
				return nil
			})
		},
	}
	set.Flags().StringVar(&who, "who", "", "Who is this for?")
	set.Flags().StringVar(&what, "what", "", "What is being offered?")
	set.Flags().StringVar(&whyNow, "why-now", "", "Why now?")
	set.Flags().StringVar(&success, "success", "", "What is success?")
	set.Flags().BoolVar(&completed, "completed", false, "Mark the step completed")

	var category string
	questions := &cobra.Command{
		Use:   "questions",
		Short: "List the granular discovery questions and answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				qs := a.ctrl.Snapshot().CustomerDiscovery.GranularQuestions
				for _, cat := range workshop.Categories() {
					if category != "" && string(cat) != strings.ToLower(category) {
						continue
					}
					c.printer().Heading(strings.ToUpper(string(cat)[:1]) + string(cat)[1:])
					for _, q := range workshop.QuestionsByCategory(qs, cat) {
						c.printer().Info("  %s", q.Question)
						c.printer().Field(q.ID, q.Answer)
					}
				}
				return nil
			})
		},
	}
	questions.Flags().StringVar(&category, "category", "", "Only one category (audience, offering, timing, success)")

	cmd.AddCommand(set, questions)
	return cmd
}

func (c *cli) showDiscovery(s workshop.SessionState) {
	p := c.printer()
	d := s.CustomerDiscovery
	p.Heading(workshop.PhaseCustomerDiscovery.Title())
	p.Field("Who is this for", d.WhoIsThisFor)
	p.Field("What is offered", d.WhatIsBeingOffered)
	p.Field("Why now", d.WhyNow)
	p.Field("What is success", d.WhatIsSuccess)

	answered := 0
	for _, q := range d.GranularQuestions {
		if strings.TrimSpace(q.Answer) != "" {
			answered++
		}
	}
	p.Field("Granular answers", fmt.Sprintf("%d of %d", answered, len(d.GranularQuestions)))
	p.Field("Completed", yesNo(d.Completed))
}

func (c *cli) answerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <question-id> <answer...>",
		Short: "Answer a granular discovery question",
		Long: `Answer a granular discovery question. Run 'briefwork discovery questions'
to see the ids. An empty answer clears it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !workshop.IsGranularQuestion(id) {
				return fmt.Errorf("%w: no discovery question %q", workshop.ErrInvalidReference, id)
			}
			answer := strings.Join(args[1:], " ")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if err := a.ctrl.AnswerGranularQuestion(id, answer); err != nil {
					return err
				}
				c.printer().Success("Answered %s", id)
				return nil
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
