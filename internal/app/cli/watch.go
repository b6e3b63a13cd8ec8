package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"laser_backend/internal/app/di"
	infrahttp "laser_backend/internal/platform/http"
	"laser_backend/internal/platform/snapshotbus"
)

// snapshotSource は受信方式ごとのスナップショット取得元です。
type snapshotSource interface {
	Latest(ctx context.Context) (snapshotbus.Message, error)
	Subscribe(ctx context.Context) (<-chan snapshotbus.Message, error)
}

func newWatchCmd(cfg *di.Config) *cobra.Command {
	var (
		mode     string
		url      string
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print published snapshots as JSON lines",
		Long: `watch runs next to the output engine and prints every snapshot it
receives, either from Redis pub/sub or by polling the settings endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				src   snapshotSource
				prime bool
			)
			switch mode {
			case "redis":
				rdb := di.NewRedis(ctx, cfg.Redis)
				if rdb == nil {
					return errors.New("redis mode requires a reachable REDIS_HOST")
				}
				defer rdb.Close()
				src = snapshotbus.NewRedisSubscriber(rdb, cfg.Channel)
				// pub/sub は購読前の値を届けないため最新値を先に出力する
				prime = !once
			case "http":
				if url == "" {
					url = "http://localhost:" + cfg.Port
				}
				src = snapshotbus.NewHTTPPoller(infrahttp.NewHTTPClient(5*time.Second), url, interval)
			default:
				return fmt.Errorf("unknown mode %q (want redis or http)", mode)
			}

			out := cmd.OutOrStdout()
			if once {
				m, err := src.Latest(ctx)
				if err != nil {
					return err
				}
				return emit(out, m)
			}

			if prime {
				if m, err := src.Latest(ctx); err == nil {
					if err := emit(out, m); err != nil {
						return err
					}
				}
			}
			ch, err := src.Subscribe(ctx)
			if err != nil {
				return err
			}
			for m := range ch {
				if err := emit(out, m); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", "redis", "snapshot source: redis or http")
	f.StringVar(&url, "url", "", "server base URL for http mode (default http://localhost:$PORT)")
	f.DurationVar(&interval, "interval", time.Second, "poll interval for http mode")
	f.BoolVar(&once, "once", false, "print the latest snapshot and exit")
	return cmd
}

func emit(w io.Writer, m snapshotbus.Message) error {
	return json.NewEncoder(w).Encode(m)
}
