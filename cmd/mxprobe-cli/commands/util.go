package commands

import (
	"net"
	"os"
	"time"

	"github.com/Dynom/mxprobe/validator"
	"golang.org/x/term"
)

// isStdinPiped returns true if our input is from a pipe or a redirected file
func isStdinPiped() bool {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return isPiped(fi)
}

func isPiped(fi os.FileInfo) bool {
	if fi == nil {
		return false
	}

	return fi.Mode()&os.ModeNamedPipe == os.ModeNamedPipe || fi.Mode().IsRegular()
}

// newResolver sends every query to ip on port 53. Without ip the system resolver is used.
func newResolver(ip net.IP, timeout time.Duration) validator.LookupMX {
	if ip == nil {
		return net.DefaultResolver
	}

	return validator.NewDNSResolver(ip.String(), timeout)
}
