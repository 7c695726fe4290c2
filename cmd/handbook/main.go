package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/handbook/internal/app"
	"github.com/five82/handbook/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "handbook: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	prefsPath  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "handbook",
		Short: "Browse and maintain the error handbook",
		Long: `handbook mirrors the error handbook (entries and categories) from a
Supabase project, or a local SQLite file, into a terminal UI. Signed-in
admins can add, edit and delete entries and add categories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.configPath,
				PrefsPath:  opts.prefsPath,
			})
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/handbook/config.toml)")
	root.Flags().StringVar(&opts.prefsPath, "prefs", "", "preferences file (default ~/.config/handbook/prefs.toml)")

	root.AddCommand(newListCmd(opts), newCategoriesCmd(opts), newHashPasswordCmd())
	return root
}

// openRuntime loads the config and starts a state container for a one-shot
// command. Diagnostics go to stderr.
func openRuntime(cmd *cobra.Command, opts *rootOptions) (*app.Runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewCLILogger(cmd.ErrOrStderr(), cfg)

	rt, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := rt.Store.Start(cmd.Context()); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}
