// Package netutil provides small host-networking helpers that exist
// purely for display purposes — they never gate behavior.
package netutil

import "net"

// LocalIP discovers the local outbound IP by dialing a UDP socket to a
// well-known public address and reading back the chosen source
// address; no packet is actually sent. Falls back to 127.0.0.1 if the
// dial fails (e.g. no network interface is up), mirroring
// get_local_ip's fallback behavior.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
