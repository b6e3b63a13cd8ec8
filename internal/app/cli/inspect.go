package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"laser_backend/internal/app/di"
	"laser_backend/internal/feature/outputsettings/adapters"
	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
)

func newProfilesCmd(cfg *di.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored output profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}
			list, err := adapters.NewProfileRepository(gdb).List(cmd.Context())
			if err != nil {
				return err
			}
			renderProfiles(cmd.OutOrStdout(), list, cfg.Profile)
			return nil
		},
	}
}

func newHistoryCmd(cfg *di.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent events of a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > usecase.MaxHistoryLimit {
				return fmt.Errorf("--limit must be between 1 and %d", usecase.MaxHistoryLimit)
			}
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}
			recs, err := adapters.NewProfileRepository(gdb).Recent(cmd.Context(), cfg.Profile, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultHistoryLimit, "number of events")
	return cmd
}

func renderProfiles(w io.Writer, list []entity.ProfileSummary, active string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Profile", "Version", "Updated"})
	for _, p := range list {
		mark := ""
		if p.Name == active {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, p.Name, p.Version, p.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	t.Render()
}

func renderHistory(w io.Writer, recs []entity.EventRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Event", "Detail", "Operator", "Time"})
	for _, r := range recs {
		t.AppendRow(table.Row{r.Version, r.Event.Kind.String(), describe(r.Event), r.OperatorID, r.CreatedAt.UTC().Format(time.RFC3339)})
	}
	t.Render()
}

// describe は履歴表示用にイベントの引数を1行にまとめます。
func describe(ev entity.Event) string {
	switch ev.Kind {
	case entity.EventToggle:
		return fmt.Sprintf("%s=%t", ev.Control, ev.On)
	case entity.EventSetValue:
		return fmt.Sprintf("%s=%d", ev.Slider, ev.Value)
	case entity.EventMovePoint:
		return fmt.Sprintf("point %d -> (%.3f, %.3f)", ev.Index, ev.Point.X, ev.Point.Y)
	case entity.EventSetQuad:
		q := ev.Quad
		return fmt.Sprintf("(%.2f,%.2f) (%.2f,%.2f) (%.2f,%.2f) (%.2f,%.2f)",
			q[0].X, q[0].Y, q[1].X, q[1].Y, q[2].X, q[2].Y, q[3].X, q[3].Y)
	case entity.EventSetAspect:
		return ev.Aspect.String()
	case entity.EventSetSafety:
		if ev.On {
			return "on"
		}
		return fmt.Sprintf("off (confirmed=%t)", ev.Confirmed)
	}
	return ""
}
