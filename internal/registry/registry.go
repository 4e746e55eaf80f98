// Package registry tracks the fleet of worker nodes that have
// self-registered with the middleware: who they are, whether they were
// last seen reachable, and how much work they've done.
package registry

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/netsort/distsort/internal/logging"
)

var (
	// ErrMissingFields is returned when register is called without all
	// of ip, port and name.
	ErrMissingFields = errors.New("registry: ip, port and name are required")

	// ErrInvalidPort is returned when port is outside [1, 65535].
	ErrInvalidPort = errors.New("registry: invalid port")
)

// Address uniquely identifies a worker: an (ip, port) pair.
type Address struct {
	IP   string
	Port int
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// WorkerRecord is everything the registry knows about one worker.
type WorkerRecord struct {
	Address Address
	Name    string

	// Active reflects the outcome of the last liveness probe, or true
	// on fresh registration (the worker is trusted until proven
	// otherwise).
	Active bool

	// LastResponseTime is the wall-clock duration, in seconds, of the
	// last successful sort request this worker served. Zero if none.
	LastResponseTime float64

	// LastCheckTime is when this record was last probed.
	LastCheckTime time.Time

	// TotalProcessed is a monotone counter of items this worker has
	// successfully sorted.
	TotalProcessed uint64
}

// Registry is the process-wide, mutex-guarded worker fleet. Insertion
// order is preserved and used both for display and for deterministic
// partition assignment within a single job.
type Registry struct {
	mu      sync.Mutex
	order   []Address
	workers map[Address]*WorkerRecord
	log     logging.Logger

	// Liveness-probe connect timeouts for loopback and for other
	// addresses; New sets them to 1s and 3s.
	localDialTimeout  time.Duration
	remoteDialTimeout time.Duration
}

// New creates an empty registry.
func New(log logging.Logger) *Registry {
	return &Registry{
		workers:           make(map[Address]*WorkerRecord),
		log:               log,
		localDialTimeout:  time.Second,
		remoteDialTimeout: 3 * time.Second,
	}
}

// Register validates and inserts or replaces the record for (ip, port).
// Re-registration from the same address resets all counters, per spec
// §3/§9 — this is preserved for fidelity with the observed source.
func (r *Registry) Register(ip string, port int, name string) error {
	if ip == "" || name == "" || port == 0 {
		return ErrMissingFields
	}
	if port < 1 || port > 65535 {
		return ErrInvalidPort
	}

	addr := Address{IP: ip, Port: port}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	record := &WorkerRecord{
		Address:       addr,
		Name:          name,
		Active:        true,
		LastCheckTime: now,
	}

	if _, exists := r.workers[addr]; !exists {
		r.order = append(r.order, addr)
		r.log.Infof("registered new worker %s at %s", name, addr)
	} else {
		r.log.Infof("re-registered worker %s at %s, counters reset", name, addr)
	}
	r.workers[addr] = record
	return nil
}

// ActiveSnapshot returns a copy of the currently-active workers in
// registry insertion order. Callers never hold the registry lock while
// doing I/O with the result.
func (r *Registry) ActiveSnapshot() []WorkerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]WorkerRecord, 0, len(r.order))
	for _, addr := range r.order {
		if w := r.workers[addr]; w.Active {
			snapshot = append(snapshot, *w)
		}
	}
	return snapshot
}

// Snapshot returns a copy of every known record, active or not, in
// insertion order.
func (r *Registry) Snapshot() []WorkerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]WorkerRecord, 0, len(r.order))
	for _, addr := range r.order {
		snapshot = append(snapshot, *r.workers[addr])
	}
	return snapshot
}

// RecordSuccess updates a worker's response time and processed-item
// counter after a successful dispatch. A no-op if the record is gone.
func (r *Registry) RecordSuccess(addr Address, elapsed time.Duration, itemCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[addr]
	if !ok {
		return
	}
	w.LastResponseTime = elapsed.Seconds()
	w.TotalProcessed += uint64(itemCount)
}

// MarkInactive flips a worker's Active flag to false immediately,
// without waiting for the next liveness probe. Used by the dispatcher
// on a transport failure.
func (r *Registry) MarkInactive(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[addr]; ok {
		w.Active = false
	}
}

// ProbeAll dials every registered worker and updates its Active flag
// based on whether the TCP connect succeeded. It returns (active,
// total). The whole sweep runs under the registry lock: acceptable for
// the small fleet sizes this middleware targets; at fleet sizes in the
// hundreds, probes should be parallelized outside the lock with results
// merged back under it.
func (r *Registry) ProbeAll() (active int, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, addr := range r.order {
		w := r.workers[addr]
		wasActive := w.Active
		isActive := r.dial(addr)
		w.Active = isActive
		w.LastCheckTime = now

		if isActive {
			active++
		}
		if wasActive != isActive {
			if isActive {
				r.log.Infof("worker %s [%s] is now reachable", w.Name, addr)
			} else {
				r.log.Warnf("worker %s [%s] is now unreachable", w.Name, addr)
			}
		}
	}
	return active, len(r.order)
}

func (r *Registry) dial(addr Address) bool {
	timeout := r.remoteDialTimeout
	if isLocal(addr.IP) {
		timeout = r.localDialTimeout
	}
	conn, err := net.DialTimeout("tcp", addr.String(), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func isLocal(ip string) bool {
	if ip == "127.0.0.1" || ip == "localhost" || ip == "::1" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
