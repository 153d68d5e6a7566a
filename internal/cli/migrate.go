package cli

import (
	"errors"

	"github.com/MosinFAM/redditclone/internal/config"
	"github.com/MosinFAM/redditclone/internal/db"
	"github.com/MosinFAM/redditclone/internal/logger"

	"github.com/spf13/cobra"
)

var errMigrateNeedsPostgres = errors.New("migrations apply to postgres storage only; set storage.type=postgres")

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the PostgreSQL schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Type != config.StoragePostgres {
				return errMigrateNeedsPostgres
			}
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			ctx := logger.WithContext(cmd.Context(), a.log)
			conn, err := db.Connect(ctx, a.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer conn.Close()
			return db.Migrate(ctx, conn, a.cfg.Migrations.Dir, command)
		},
	}
}
