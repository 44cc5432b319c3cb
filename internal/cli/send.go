package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/pkg/client"
	"github.com/lanshare/lanshare/pkg/protocol"
	"github.com/lanshare/lanshare/pkg/transfer"
)

func newSendCommand() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "send <target> <file-or-text>...",
		Short: "Resolve a peer and send one or more files or text snippets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, args[0], args[1:], pin)
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "pin required by the receiving node")
	return cmd
}

func runSend(cmd *cobra.Command, target string, inputs []string, pin string) error {
	ctx := cmd.Context()
	log := newLogger("send")

	self := client.StaticDevice{
		Alias:       deviceAlias(""),
		Version:     protocol.ProtocolVersion,
		DeviceType:  protocol.DeviceHeadless,
		Fingerprint: uuid.NewString(),
		Port:        config.Default().Port,
		Protocol:    protocol.ProtoHTTP,
	}
	c := client.New(self)

	peer, err := c.ResolveTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("resolve target %q: %w", target, err)
	}
	log.Info("resolved target", "alias", peer.Alias, "addr", fmt.Sprintf("%s://%s:%d", peer.Protocol, peer.IP, peer.Port))

	sources, err := transfer.BuildSources(inputs)
	if err != nil {
		return fmt.Errorf("prepare inputs: %w", err)
	}

	result, err := transfer.Send(ctx, c, peer, sources, pin, log)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if result.MessageOnly {
		fmt.Println("sent as text message")
		return nil
	}
	fmt.Printf("sent %d file(s) to %s\n", len(result.UploadedIDs), result.Target.Alias)
	return nil
}
