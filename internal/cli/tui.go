package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/taskgroup"
	"github.com/lanshare/lanshare/pkg/consent"
	"github.com/lanshare/lanshare/pkg/discovery"
	"github.com/lanshare/lanshare/pkg/identity"
	"github.com/lanshare/lanshare/pkg/server"
)

// newTUICommand wires a line-based interactive consent loop on top of the
// same discovery participant and server receive.go runs. Full-screen TUI
// frameworks like bubbletea are not pulled in here: nothing else in this
// node needs a screen-managed render loop, and a prompt-per-transfer
// question fits a plain bufio.Scanner over stdin without one.
func newTUICommand() *cobra.Command {
	cfg := config.Default()
	var alias string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the receiver with an interactive accept/reject prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Alias = deviceAlias(alias)
			return runTUI(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "UDP/HTTP port to listen on")
	cmd.Flags().StringVar(&alias, "alias", "", "advertised device name (default: hostname)")
	cmd.Flags().BoolVar(&cfg.HTTPS, "https", false, "serve over self-signed HTTPS")
	return cmd
}

func runTUI(ctx context.Context, cfg config.NodeConfig) error {
	log := newLogger("tui")

	id, err := identity.New(cfg.HTTPS)
	if err != nil {
		return fmt.Errorf("bootstrap identity: %w", err)
	}
	self := selfDeviceInfo(cfg, id)

	bridge := consent.New()
	decider := consent.DeciderFunc(func(_ context.Context, p *consent.PendingTransfer) bool {
		return promptAccept(p)
	})

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

	fmt.Printf("lanshare tui: %s listening on port %d, ctrl-c to quit\n", self.Alias, cfg.Port)

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

// promptAccept blocks on stdin asking the operator to accept or reject a
// pending transfer. It runs on its own goroutine per consent.RunDecider,
// so blocking here never stalls discovery or other in-flight handlers.
func promptAccept(p *consent.PendingTransfer) bool {
	fmt.Printf("\nincoming transfer from %s (%d file(s)):\n", p.Sender.Alias, len(p.Files))
	for _, f := range p.Files {
		fmt.Printf("  - %s (%d bytes, %s)\n", f.FileName, f.Size, f.FileType)
	}
	fmt.Print("accept? [y/N] ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
