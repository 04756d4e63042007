// internal/cli/serve.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/llamagallery/internal/logging"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui/web"
)

const (
	shutdownGrace = 5 * time.Second
	expireEvery   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gallery over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		cfg := config()
		srv := web.NewServer(web.Options{
			Sections:  r.Sections(),
			Run:       r.Run,
			Store:     session.NewStore(),
			RateLimit: cfg.RateLimit,
			Logger:    logging.Logger(),
		})
		return serve(commandContext(cmd), cfg.Listen, cfg.SessionIdle(), srv)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default :8501)")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}

// serve runs srv on addr until ctx ends, then drains in-flight page runs.
func serve(ctx context.Context, addr string, idle time.Duration, srv *web.Server) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go srv.ExpireSessions(ctx, expireEvery, idle)

	errc := make(chan error, 1)
	go func() {
		errc <- httpSrv.ListenAndServe()
	}()
	logging.Logger().Info().Str("listen", addr).Msg("gallery listening")
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.LogWarn(err, "sd_notify failed")
	} else if sent {
		logging.LogEvent("notified systemd of readiness")
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownGrace)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
