package cli

import (
	"os"

	charm "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/logging"
	"github.com/lanshare/lanshare/pkg/identity"
	"github.com/lanshare/lanshare/pkg/protocol"
)

func newLogger(name string) logging.Logger {
	level := charm.InfoLevel
	if verbose {
		level = charm.DebugLevel
	}
	return logging.NewWithLevel(name, level)
}

func deviceAlias(flagAlias string) string {
	if flagAlias != "" {
		return flagAlias
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "lanshare-" + uuid.NewString()[:8]
}

// selfDeviceInfo builds this process's advertised DeviceInfo from its
// config and bootstrapped identity.
func selfDeviceInfo(cfg config.NodeConfig, id *identity.Identity) protocol.DeviceInfo {
	proto := protocol.ProtoHTTP
	if cfg.HTTPS {
		proto = protocol.ProtoHTTPS
	}
	return protocol.DeviceInfo{
		Alias:       cfg.Alias,
		Version:     protocol.ProtocolVersion,
		DeviceModel: cfg.DeviceModel,
		DeviceType:  cfg.DeviceType,
		Fingerprint: id.Fingerprint,
		Port:        cfg.Port,
		Protocol:    proto,
		Download:    false,
	}
}
