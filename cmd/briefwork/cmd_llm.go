package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/export"
	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/synthesis"
	"github.com/c360studio/briefwork/workshop"
)

func (c *cli) llmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Configure and test the session's LLM provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				c.showLLM(a)
				return nil
			})
		},
	}

	var apiKey, model string
	set := &cobra.Command{
		Use:   "config <provider>",
		Short: "Set the session's provider (openai, anthropic, ollama, mock)",
		Long: `Set the provider, API key and model stored with the session. Without an
API key requests are answered by the offline mock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if err := a.ctrl.SetLLMConfig(llm.ProviderName(strings.ToLower(args[0])), apiKey, model); err != nil {
					return err
				}
				c.printer().Success("LLM provider set")
				c.showLLM(a)
				return nil
			})
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "Provider API key")
	set.Flags().StringVar(&model, "model", "", "Model (default: the provider's default)")

	cmd.AddCommand(
		set,
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective provider settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					c.showLLM(a)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "test",
			Short: "Send a small request to check the provider answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
					client, err := a.llmClient(nil)
					if err != nil {
						return err
					}
					c.printer().Step("Contacting %s", client.Provider())
					if err := client.TestConnection(ctx); err != nil {
						return err
					}
					c.printer().Success("%s answered", client.Provider())
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) showLLM(a *App) {
	cfg := a.llmConfig()
	p := c.printer()
	p.Heading("LLM")
	p.Field("Provider", string(cfg.Provider))
	p.Field("Model", cfg.ResolvedModel())
	p.Field("API key", llm.MaskSecret(cfg.APIKey))
	p.Field("Base URL", cfg.BaseURL)
	if cfg.APIKey == "" && cfg.Provider != llm.ProviderMock {
		p.Warning("No API key; requests are answered by the offline mock")
	}
}

func (c *cli) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <description...>",
		Short: "Fill the project context from a free-text description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.Join(args, " ")
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				svc, err := a.synthesis()
				if err != nil {
					return err
				}
				c.printer().Step("Extracting project context")
				result, err := svc.ExtractProjectContext(ctx, desc)
				if err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("%w: %s", synthesis.ErrUnparseable, result.Error)
				}
				c.printer().Success("Project context filled in; %d discovery answers suggested", len(result.Data.GranularAnswers))
				c.showContext(a.ctrl.Snapshot())
				return nil
			})
		},
	}
}

// Synthesis targets accepted by 'synthesize'.
const (
	targetClusters  = "clusters"
	targetDiscovery = "discovery"
	targetExercises = "exercises"
	targetAll       = "all"
)

func (c *cli) synthesizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "synthesize <clusters|discovery|exercises|all>",
		Short:     "Summarize workshop answers with the LLM",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{targetClusters, targetDiscovery, targetExercises, targetAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				svc, err := a.synthesis()
				if err != nil {
					return err
				}
				if target == targetClusters || target == targetAll {
					if err := c.synthesizeClusters(ctx, svc); err != nil {
						return err
					}
				}
				if target == targetDiscovery || target == targetAll {
					c.printer().Step("Synthesizing discovery")
					text, err := svc.SynthesizeDiscovery(ctx)
					if err != nil {
						return err
					}
					c.printer().Field("Discovery summary", text)
				}
				if target == targetExercises || target == targetAll {
					c.printer().Step("Synthesizing spot exercises")
					text, err := svc.SynthesizeExercises(ctx)
					if err != nil {
						return err
					}
					c.printer().Field("Exercise synthesis", text)
				}
				return nil
			})
		},
	}
}

func (c *cli) synthesizeClusters(ctx context.Context, svc *synthesis.Service) error {
	p := c.printer()
	p.Step("Synthesizing clusters")
	reports, err := svc.SynthesizeClusters(ctx)
	for _, r := range reports {
		switch {
		case r.Skipped:
			faint.Fprintf(p.out, "  %s: skipped (no notes)\n", r.Title)
		case r.Err != nil:
			p.Warning("%s: %s", r.Title, synthesis.UserMessage(r.Err).Title)
		default:
			p.Field(r.Title, r.Summary)
		}
	}
	if len(reports) == 0 && err == nil {
		p.Info("No clusters to synthesize.")
	}
	return err
}

func (c *cli) briefCmd() *cobra.Command {
	var (
		format       string
		generate     bool
		output       string
		includeEmpty bool
	)
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Compile the creative brief",
		Long: `Compile the creative brief from the session. With --generate the LLM drafts
the sections first; otherwise they are composed from the workshop answers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") && output != "" {
				if byExt, err := export.ParseFormat(filepath.Ext(output)); err == nil {
					f = byExt
				}
			}

			return c.withSession(cmd.Context(), func(ctx context.Context, a *App) error {
				if generate {
					if err := c.generateBrief(ctx, a); err != nil {
						return err
					}
				}

				var opts []export.Option
				if includeEmpty {
					opts = append(opts, export.WithEmptySections("(not yet written)"))
				}
				text, err := export.NewExporter(opts...).Export(a.ctrl.BriefDocument(), f)
				if err != nil {
					return err
				}

				if output == "" {
					fmt.Fprint(c.out, text)
					return nil
				}
				if err := os.WriteFile(output, []byte(text), 0644); err != nil {
					return fmt.Errorf("write brief: %w", err)
				}
				c.printer().Success("Wrote %s", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "Output format (markdown, json, text)")
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "Draft the brief with the LLM first")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Keep sections that have no text")
	return cmd
}

func (c *cli) generateBrief(ctx context.Context, a *App) error {
	svc, err := a.synthesis()
	if err != nil {
		return err
	}
	a.logger.Info("Drafting brief", "provider", a.llmConfig().Provider)
	result, err := svc.GenerateBrief(ctx)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", synthesis.ErrUnparseable, result.Error)
	}
	return a.ctrl.SetPhase(workshop.PhaseBriefComplete)
}
