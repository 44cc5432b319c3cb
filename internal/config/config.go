// Package config holds the runtime settings a node is constructed from.
// There is no global singleton: every component that needs configuration
// takes a NodeConfig (or a narrower view of one) through its constructor.
package config

import "github.com/lanshare/lanshare/pkg/protocol"

// NodeConfig is the set of user-facing knobs for one running node.
type NodeConfig struct {
	Alias       string
	DeviceModel string
	DeviceType  protocol.DeviceType
	Port        int
	SaveDir     string
	Pin         string
	HTTPS       bool
	AutoAccept  bool
}

// Default returns a NodeConfig with the protocol's default port, a
// desktop device type and "./downloads" as SaveDir, leaving the caller to
// fill in Alias.
func Default() NodeConfig {
	return NodeConfig{
		DeviceType: protocol.DeviceDesktop,
		Port:       protocol.DefaultMulticastPort,
		SaveDir:    "./downloads",
	}
}
