package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"laser_backend/internal/app/di"
	"laser_backend/internal/feature/outputsettings/adapters"
	"laser_backend/internal/feature/outputsettings/usecase"
	"laser_backend/internal/shared/ratelimiter"
)

func newReplayCmd(cfg *di.Config) *cobra.Command {
	var rate int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the profile from its event log and republish every snapshot",
		Long: `replay folds the recorded events of --profile from factory defaults,
publishes each intermediate snapshot to the output engine at no more than
--rate snapshots per second and stores the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}
			rdb := di.NewRedis(cmd.Context(), cfg.Redis)
			if rdb != nil {
				defer rdb.Close()
			}

			repo := adapters.NewProfileRepository(gdb)
			uc := usecase.NewReplayUsecase(repo, repo, di.NewSnapshotPublisher(rdb, cfg.Channel),
				ratelimiter.NewRateLimiter(rate, time.Second))

			snap, err := uc.Rebuild(cmd.Context(), cfg.Profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %s at version %d\n", snap.Profile, snap.Version)
			return nil
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 50, "snapshots published per second")
	return cmd
}
