// Package cli wires the command line of the service.
package cli

import (
	"github.com/MosinFAM/redditclone/internal/config"
	"github.com/MosinFAM/redditclone/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is filled by the root command before any subcommand runs
type app struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
}

// RootCommand creates the redditclone command tree
func RootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "redditclone",
		Short:         "Forum backend with threaded comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a config file (yaml, json or toml)")

	root.AddCommand(serveCommand(a), migrateCommand(a))
	return root
}
