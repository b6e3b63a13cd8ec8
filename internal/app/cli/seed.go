package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"laser_backend/internal/app/di"
	"laser_backend/internal/feature/outputsettings/adapters"
	"laser_backend/internal/feature/outputsettings/usecase"
)

func newSeedCmd(cfg *di.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Store preset profiles from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := adapters.LoadPresets(args[0])
			if err != nil {
				return err
			}
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}

			uc := usecase.NewSeedUsecase(adapters.NewProfileRepository(gdb))
			if err := uc.Seed(cmd.Context(), presets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profile(s)\n", len(presets))
			return nil
		},
	}
}
