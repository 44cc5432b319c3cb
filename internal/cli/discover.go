package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/pkg/discovery"
	"github.com/lanshare/lanshare/pkg/protocol"
)

func newDiscoverCommand() *cobra.Command {
	var timeout time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Announce and list peers on the LAN for a fixed window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd.Context(), timeout, asJSON)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to listen for peers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as a JSON array")
	return cmd
}

func runDiscover(ctx context.Context, timeout time.Duration, asJSON bool) error {
	self := protocol.DeviceInfo{
		Alias:       deviceAlias(""),
		Version:     protocol.ProtocolVersion,
		DeviceType:  protocol.DeviceHeadless,
		Fingerprint: uuid.NewString(),
		Port:        config.Default().Port,
		Protocol:    protocol.ProtoHTTP,
	}

	log := newLogger("discover")
	participant := discovery.New(discovery.Config{Self: self, Logger: log})
	if err := participant.Start(ctx); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	defer participant.Stop()

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		if err := participant.AnnouncePresence(scanCtx); err != nil {
			log.Debug("announce failed", "error", err)
		}
	}()

	<-scanCtx.Done()
	peers := participant.Peers()

	if asJSON {
		body, err := json.MarshalIndent(peers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	}

	if len(peers) == 0 {
		fmt.Println("no peers found")
		return nil
	}
	for _, p := range peers {
		fmt.Printf("%s\t%s\t%s://%s:%d\n", p.Alias, p.Fingerprint, p.Protocol, p.IP, p.Port)
	}
	return nil
}
