// Package dispatch implements the distributed-sort algorithm: it
// partitions an input sequence over the currently active workers,
// dispatches every partition in parallel over the wire framing layer,
// tolerates partial worker failure, and k-way merges what survives.
package dispatch

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/netsort/distsort/internal/logging"
	"github.com/netsort/distsort/internal/protocol"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
	"github.com/netsort/distsort/internal/wire"
)

const (
	// WorkerConnectTimeout bounds the TCP connect to a worker.
	WorkerConnectTimeout = 10 * time.Second

	// WorkerReadTimeout bounds waiting for a worker's sorted reply once
	// connected.
	WorkerReadTimeout = 5 * time.Minute
)

// dialFunc matches net.DialTimeout's signature so tests can substitute
// an in-memory dialer.
type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Dispatcher owns one sort job end-to-end: partitioning, parallel
// worker round trips and k-way merge.
type Dispatcher struct {
	registry *registry.Registry
	stats    *stats.SortStats
	log      logging.Logger
	dial     dialFunc
}

// New builds a Dispatcher backed by the given registry and stats.
func New(reg *registry.Registry, st *stats.SortStats, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		stats:    st,
		log:      log,
		dial:     net.DialTimeout,
	}
}

type outcome struct {
	sorted     []int64
	workerName string
	failed     bool
}

// Dispatch runs one job: probe the fleet, partition input, fan out to
// every active worker in parallel, merge the successful partitions, and
// write the result to clientConn. It returns true iff a result (however
// partial) was produced and sent. On failure it writes an unframed
// {"error": ...} JSON object to clientConn itself.
func (d *Dispatcher) Dispatch(clientConn net.Conn, input []int64) bool {
	d.registry.ProbeAll()
	workers := d.registry.ActiveSnapshot()

	if len(workers) == 0 {
		d.sendError(clientConn, "no workers")
		return false
	}

	partitions := buildPartitions(input, len(workers))
	outcomes := make([]outcome, len(workers))

	var wg sync.WaitGroup
	for i := range workers {
		if len(partitions[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = d.dispatchOne(workers[i], partitions[i])
		}(i)
	}
	wg.Wait()

	var successful [][]int64
	var failedNames []string
	var errorCount uint64
	for _, o := range outcomes {
		switch {
		case o.failed:
			failedNames = append(failedNames, o.workerName)
			errorCount++
		case o.sorted != nil:
			successful = append(successful, o.sorted)
		}
	}
	if errorCount > 0 {
		d.stats.IncErrors(errorCount)
	}

	if len(successful) == 0 {
		d.sendError(clientConn, fmt.Sprintf("all workers failed: %s", strings.Join(failedNames, ", ")))
		return false
	}

	if len(failedNames) > 0 {
		d.log.Warnf("some workers failed: %s", strings.Join(failedNames, ", "))
	}

	merged := MergeSorted(successful)
	d.stats.AddNumbersSorted(uint64(len(input)))

	if err := wire.Send(clientConn, merged); err != nil {
		d.log.Errorf("failed sending merged result to client: %v", err)
		return false
	}
	return true
}

// dispatchOne performs one worker's round trip: connect, frame-send the
// partition, frame-receive the sorted reply, and record the outcome.
func (d *Dispatcher) dispatchOne(worker registry.WorkerRecord, partition []int64) outcome {
	addr := worker.Address
	start := time.Now()

	conn, err := d.dial("tcp", addr.String(), WorkerConnectTimeout)
	if err != nil {
		d.log.Errorf("connect to worker %s [%s] failed: %v", worker.Name, addr, err)
		d.registry.MarkInactive(addr)
		return outcome{failed: true, workerName: worker.Name}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(WorkerReadTimeout)); err != nil {
		d.log.Errorf("failed setting deadline for worker %s: %v", worker.Name, err)
	}

	if err := wire.Send(conn, partition); err != nil {
		d.log.Errorf("failed sending partition to worker %s: %v", worker.Name, err)
		d.registry.MarkInactive(addr)
		return outcome{failed: true, workerName: worker.Name}
	}

	var sorted []int64
	if err := wire.Receive(conn, &sorted); err != nil {
		d.log.Errorf("failed receiving reply from worker %s: %v", worker.Name, err)
		d.registry.MarkInactive(addr)
		return outcome{failed: true, workerName: worker.Name}
	}

	elapsed := time.Since(start)
	if len(sorted) != len(partition) {
		// Non-fatal: the merge still proceeds, but the final output
		// length will differ from the input length.
		d.log.Warnf("worker %s returned %d items for a %d-item partition", worker.Name, len(sorted), len(partition))
	}

	d.registry.RecordSuccess(addr, elapsed, len(partition))
	d.stats.RecordResponseTime(elapsed.Seconds())
	return outcome{sorted: sorted}
}

// sendError writes an unframed {"error": message} JSON object.
func (d *Dispatcher) sendError(conn net.Conn, message string) {
	body, err := json.Marshal(protocol.ErrorResponse{Error: message})
	if err != nil {
		d.log.Errorf("failed marshaling error response: %v", err)
		return
	}
	if _, err := conn.Write(body); err != nil {
		d.log.Errorf("failed sending error response: %v", err)
	}
}

// buildPartitions splits input into len(workers) contiguous,
// non-overlapping slices: chunk = max(1, floor(len(input)/len(workers)));
// the last partition absorbs the remainder. When len(input) <
// len(workers), trailing partitions come back empty — callers skip
// those rather than dispatching them.
func buildPartitions(input []int64, numWorkers int) [][]int64 {
	if numWorkers == 0 {
		return nil
	}

	chunk := len(input) / numWorkers
	if chunk < 1 {
		chunk = 1
	}

	partitions := make([][]int64, numWorkers)
	for i := 0; i < numWorkers; i++ {
		start := i * chunk
		if start > len(input) {
			start = len(input)
		}

		var end int
		if i == numWorkers-1 {
			end = len(input)
		} else {
			end = start + chunk
			if end > len(input) {
				end = len(input)
			}
		}
		partitions[i] = input[start:end]
	}
	return partitions
}
