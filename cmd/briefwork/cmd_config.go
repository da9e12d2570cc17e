package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/briefwork/llm"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
					shown := *a.cfg
					shown.LLM.APIKey = llm.MaskSecret(shown.LLM.APIKey)
					data, err := yaml.Marshal(&shown)
					if err != nil {
						return fmt.Errorf("encode config: %w", err)
					}
					faint.Fprintf(c.out, "# user config: %s\n", a.loader.UserConfigPath())
					fmt.Fprint(c.out, string(data))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default user config if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
					if err := a.loader.EnsureUserConfig(); err != nil {
						return err
					}
					c.printer().Success("User config at %s", a.loader.UserConfigPath())
					return nil
				})
			},
		},
	)
	return cmd
}
