package netutil

import (
	"net"
)

// MustParseCIDRs parses CIDR strings into []*net.IPNet. Invalid entries are
// dropped silently so a bad allowlist entry never blocks startup.
func MustParseCIDRs(cidrs []string) (out []*net.IPNet) {
	for _, s := range cidrs {
		_, n, err := net.ParseCIDR(s)
		if err == nil && n != nil {
			out = append(out, n)
		}
	}
	return
}
