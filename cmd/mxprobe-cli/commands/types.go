package commands

import (
	"net"
	"time"

	"github.com/Dynom/mxprobe/cmd/web/config"
)

// ReportStats summarises a complete run
type ReportStats struct {
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
	Duration int64  `json:"run_duration_ms"`
}

type CheckResultFull struct {
	Email   string `json:"email"`
	Valid   bool   `json:"valid"`
	Outcome string `json:"outcome"`
	// Confirmed is true only when the mail exchange acknowledged the recipient
	Confirmed bool             `json:"confirmed"`
	Checks    []string         `json:"checks_run"`
	Passed    []string         `json:"checks_passed"`
	MX        string           `json:"mx,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timings   map[string]int64 `json:"timings_ms,omitempty"`
	Total     int64            `json:"total_ms"`
	Version   int              `json:"version"`
}

type CheckSettings struct {
	Format string
	CSV    csvOptions
	Check  checkOptions
}

type checkOptions struct {
	Resolver       net.IP
	Validator      config.ValidatorType
	Concurrency    int
	HeloName       string
	From           string
	AcceptedDomain string
	Port           uint16
	Timeout        time.Duration
	SessionTimeout time.Duration
	Verbose        bool
}

type csvOptions struct {
	skipRows uint64
	column   uint64
}
