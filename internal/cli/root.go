// Package cli wires the cobra command tree described in the node's
// external interface: discover, receive, send, and the optional tui.
// Grounded on the corpus's widespread spf13/cobra usage for CLI entry
// points; the commands themselves call into pkg/discovery, pkg/server,
// pkg/client, and pkg/transfer, keeping command bodies thin.
package cli

import (
	"github.com/spf13/cobra"
)

var verbose bool

// NewRootCommand builds the top-level "lanshare" command with every
// subcommand attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lanshare",
		Short: "Peer-to-peer LAN file and text transfer",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDiscoverCommand())
	root.AddCommand(newReceiveCommand())
	root.AddCommand(newSendCommand())
	root.AddCommand(newTUICommand())
	return root
}
