// Package cli はlaserctlコマンドを提供します。
package cli

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"laser_backend/internal/app/di"
	"laser_backend/internal/platform/db"
)

// NewRootCmd creates the laserctl root command. Configuration is loaded
// once per invocation from --config, the environment and the global flags.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	cfg := &di.Config{}

	root := &cobra.Command{
		Use:   "laserctl",
		Short: "Maintenance tools for laser output profiles",
		Long: `laserctl seeds, replays and inspects stored output profiles and
follows the snapshots published to the output engine.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			loaded, err := di.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			*cfg = loaded
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("profile", "", "output profile (default from config)")
	pf.String("channel", "", "Redis snapshot channel")
	pf.String("db-driver", "", "database driver: sqlite or postgres")
	pf.String("db-path", "", "SQLite database file")

	root.AddCommand(
		newSeedCmd(cfg),
		newReplayCmd(cfg),
		newWatchCmd(cfg),
		newProfilesCmd(cfg),
		newHistoryCmd(cfg),
	)
	return root
}

func openDB(cfg *di.Config) (*gorm.DB, error) {
	return db.OpenDB(cfg.DB, di.Models()...)
}
