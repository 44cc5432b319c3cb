package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/taskgroup"
	"github.com/lanshare/lanshare/pkg/consent"
	"github.com/lanshare/lanshare/pkg/discovery"
	"github.com/lanshare/lanshare/pkg/identity"
	"github.com/lanshare/lanshare/pkg/server"
)

func newReceiveCommand() *cobra.Command {
	cfg := config.Default()
	var autoAccept bool
	var alias string

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Advertise this node and accept incoming transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Alias = deviceAlias(alias)
			return runReceive(cmd.Context(), cfg, autoAccept)
		},
	}
	cmd.Flags().StringVar(&cfg.SaveDir, "directory", cfg.SaveDir, "where to write received files")
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "UDP/HTTP port to listen on")
	cmd.Flags().StringVar(&cfg.Pin, "pin", "", "require this pin on prepare-upload")
	cmd.Flags().BoolVar(&autoAccept, "auto-accept", false, "accept every incoming transfer without prompting")
	cmd.Flags().BoolVar(&cfg.HTTPS, "https", false, "serve over self-signed HTTPS")
	cmd.Flags().StringVar(&alias, "alias", "", "advertised device name (default: hostname)")
	return cmd
}

// runReceive starts the discovery participant and the receiver server
// concurrently and blocks until ctx is cancelled (by a shutdown signal),
// per spec §5's cancellation contract.
func runReceive(ctx context.Context, cfg config.NodeConfig, autoAccept bool) error {
	log := newLogger("receive")

	id, err := identity.New(cfg.HTTPS)
	if err != nil {
		return fmt.Errorf("bootstrap identity: %w", err)
	}
	self := selfDeviceInfo(cfg, id)

	bridge := consent.New()
	var decider consent.Decider
	if autoAccept {
		decider = consent.DeciderFunc(func(context.Context, *consent.PendingTransfer) bool { return true })
	} else {
		decider = consent.DeciderFunc(func(_ context.Context, p *consent.PendingTransfer) bool {
			fmt.Printf("incoming transfer from %s (%d file(s)) — rejecting, no interactive UI attached; use --auto-accept or `tui`\n", p.Sender.Alias, len(p.Files))
			return false
		})
	}

	tasks := taskgroup.New()
	tasks.Spawn(func() { consent.RunDecider(ctx, bridge, decider) })

	participant := discovery.New(discovery.Config{Self: self, Port: cfg.Port, Logger: log})
	if err := participant.Start(ctx); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	tasks.Spawn(func() {
		if err := participant.AnnouncePresence(ctx); err != nil {
			log.Debug("announce failed", "error", err)
		}
	})

	srv := server.New(server.Config{Self: self, Identity: id, SaveDir: cfg.SaveDir, Pin: cfg.Pin, Bridge: bridge, Logger: log})

	serveErr := make(chan error, 1)
	tasks.Spawn(func() { serveErr <- srv.Start(cfg.Port) })

	log.Info("node ready", "alias", self.Alias, "fingerprint", self.Fingerprint, "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("server exited", "error", err)
		}
	}

	_ = participant.Stop()
	_ = srv.Stop()
	tasks.Wait()
	return nil
}
