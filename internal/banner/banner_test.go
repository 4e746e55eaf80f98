package banner_test

import (
	"testing"
	"time"

	"github.com/netsort/distsort/internal/banner"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
	"github.com/stretchr/testify/require"
)

func TestWorkerListEmpty(t *testing.T) {
	require.Contains(t, banner.WorkerList(nil), "no workers available")
}

func TestWorkerListRendersEachWorker(t *testing.T) {
	workers := []registry.WorkerRecord{
		{Address: registry.Address{IP: "127.0.0.1", Port: 9001}, Name: "W1", LastResponseTime: 0.25},
		{Address: registry.Address{IP: "127.0.0.1", Port: 9002}, Name: "W2"},
	}
	out := banner.WorkerList(workers)
	require.Contains(t, out, "W1")
	require.Contains(t, out, "0.25s")
	require.Contains(t, out, "W2")
	require.Contains(t, out, "n/a")
	require.Contains(t, out, "starting distributed sort")
}

func TestStartupAndShutdownDoNotPanic(t *testing.T) {
	require.NotPanics(t, func() { banner.Startup("127.0.0.1", 60000) })

	snap := stats.Snapshot{BytesProcessed: 100, NumbersSorted: 10}
	clientSnap := stats.ClientSnapshot{TotalOperations: 3, SuccessfulOperations: 2}
	require.NotPanics(t, func() { banner.Shutdown(90*time.Second, snap, clientSnap) })
}
