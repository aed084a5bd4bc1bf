package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/config"
	dbmigrate "github.com/mpapenbr/f1-telemetry-lab/pkg/db/migrate"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "applies the schema migrations to the archive database",
		Long: `Applies the schema migrations to the archive given by --archive-url.
Postgres urls (postgresql://...) and sqlite archives (sqlite3://path or a plain path)
are supported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}
	return cmd
}

func startMigration(ctx context.Context) error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	if config.ArchiveURL == "" {
		return fmt.Errorf("%w: --archive-url required", dbmigrate.ErrUnsupportedURL)
	}
	// wait for database
	if addr := utils.ExtractFromDBURL(config.ArchiveURL); addr != "" {
		timeout := config.ParseDuration(config.WaitForServices, 0)
		if timeout > 0 {
			if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
				log.Error("database not ready", log.ErrorField(err))
				return err
			}
		}
	}

	if err := dbmigrate.MigrateDB(config.ArchiveURL); err != nil {
		log.Error("migration failed", log.ErrorField(err))
		return err
	}
	version, dirty, err := dbmigrate.Version(config.ArchiveURL)
	if err != nil {
		return err
	}
	log.Info("Archive schema up to date",
		log.Uint("version", version),
		log.Bool("dirty", dirty))
	return nil
}
