// Package privacy masks client identifiers before they reach logs.
package privacy

import "net/netip"

// AnonymizeIP masks an address to its /24 (IPv4) or /48 (IPv6) network,
// e.g. "192.168.1.47" -> "192.168.1.0". IPv4-mapped IPv6 is treated as IPv4.
// Returns "unknown" for empty input and "invalid" when the address does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
