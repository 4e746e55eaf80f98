package netutil_test

import (
	"net"
	"testing"

	"github.com/netsort/distsort/internal/netutil"
	"github.com/stretchr/testify/require"
)

func TestLocalIPReturnsParseableAddress(t *testing.T) {
	ip := netutil.LocalIP()
	require.NotEmpty(t, ip)
	require.NotNil(t, net.ParseIP(ip), "expected a parseable IP, got %q", ip)
}
