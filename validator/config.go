package validator

import (
	"time"
)

const (
	DefaultHeloName       = "mxprobe.local"
	DefaultSender         = "probe@mxprobe.local"
	DefaultAcceptedDomain = "gmail.com"
	DefaultPort           = 25
	DefaultTimeout        = 5 * time.Second
	DefaultSessionTimeout = 30 * time.Second
)

// ProbeConfig holds the identities and bounds used when probing mail exchanges.
type ProbeConfig struct {
	// HeloName is the client identity announced with HELO
	HeloName string

	// Sender is the probing identity used for MAIL FROM, it's never the address under test
	Sender string

	// AcceptedDomain restricts probing to addresses on this domain. Empty means no restriction
	AcceptedDomain string

	Port uint16

	// Timeout is the idle bound, re-armed before every read and write
	Timeout time.Duration

	// SessionTimeout bounds an entire handshake, 0 leaves it to the caller's context
	SessionTimeout time.Duration
}

// DefaultProbeConfig returns the configuration used when nothing else is specified
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		HeloName:       DefaultHeloName,
		Sender:         DefaultSender,
		AcceptedDomain: DefaultAcceptedDomain,
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		SessionTimeout: DefaultSessionTimeout,
	}
}

// withDefaults fills in zero values, so a partially specified config still probes sensibly
func (c ProbeConfig) withDefaults() ProbeConfig {
	if c.HeloName == "" {
		c.HeloName = DefaultHeloName
	}

	if c.Sender == "" {
		c.Sender = DefaultSender
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return c
}
