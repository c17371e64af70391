package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/viqi/internal/buildinfo"
	"github.com/dmitrijs2005/viqi/internal/client/config"
	"github.com/spf13/cobra"
)

// newApp is a test seam for NewApp.
var newApp = NewApp

// NewRootCommand builds the viqi command tree. args are the raw command-line
// arguments; configuration is resolved from them (see config.Load) before
// any subcommand runs.
func NewRootCommand(args []string, in io.Reader, out io.Writer) *cobra.Command {
	var cfg *config.Config

	withApp := func(fn func(ctx context.Context, a *App) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfg, in, out)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd.Context(), a)
		}
	}

	root := &cobra.Command{
		Use:           "viqi",
		Short:         "Find the right people to talk to, from your terminal",
		Long:          "ViQi walks you from a plain-language query through sign-in, AI matching, payment and reveal of contact details.",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(args)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	var defaults config.Config
	defaults.LoadDefaults()
	config.RegisterFlags(root.PersistentFlags(), &defaults)

	repl := withApp(func(ctx context.Context, a *App) error {
		a.Root(ctx)
		return nil
	})
	root.RunE = repl

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive session (default)",
			Args:  cobra.NoArgs,
			RunE:  repl,
		},
		&cobra.Command{
			Use:   "match <query>",
			Short: "Submit a query and show matches",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, qargs []string) error {
				return withApp(func(ctx context.Context, a *App) error {
					return a.Query(ctx, qargs)
				})(cmd, qargs)
			},
		},
		&cobra.Command{
			Use:   "reveal",
			Short: "Show unlocked contacts for the current query",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.Reveal(ctx) }),
		},
		&cobra.Command{
			Use:   "return <url>",
			Short: "Handle the link the payment page redirected to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, rargs []string) error {
				return withApp(func(ctx context.Context, a *App) error {
					return a.Return(ctx, rargs)
				})(cmd, rargs)
			},
		},
		&cobra.Command{
			Use:   "plans",
			Short: "List the available plans",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.Paywall(ctx) }),
		},
		&cobra.Command{
			Use:   "signin <email>",
			Short: "Sign in with your work email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, sargs []string) error {
				return withApp(func(ctx context.Context, a *App) error {
					return a.SignIn(ctx, sargs)
				})(cmd, sargs)
			},
		},
		&cobra.Command{
			Use:   "sso <id-token>",
			Short: "Sign in with an identity-provider ID token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, sargs []string) error {
				return withApp(func(ctx context.Context, a *App) error {
					return a.SSO(ctx, sargs)
				})(cmd, sargs)
			},
		},
		&cobra.Command{
			Use:   "signout",
			Short: "Forget every stored sign-in",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.SignOut(ctx) }),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in identity",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.WhoAmI(ctx) }),
		},
		&cobra.Command{
			Use:   "credits",
			Short: "Show the credit balance",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.Credits(ctx) }),
		},
		&cobra.Command{
			Use:   "dashboard",
			Short: "Show account, credits, plans and recent matches",
			Args:  cobra.NoArgs,
			RunE:  withApp(func(ctx context.Context, a *App) error { return a.Dashboard(ctx) }),
		},
	)
	return root
}
