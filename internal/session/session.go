// Package session implements the per-connection client state machine:
// read the first message, route to worker registration, the "LIST then
// sort" flow, or a direct sort, and own the process-wide client
// counters.
package session

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/netsort/distsort/internal/banner"
	"github.com/netsort/distsort/internal/dispatch"
	"github.com/netsort/distsort/internal/logging"
	"github.com/netsort/distsort/internal/protocol"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
	"github.com/netsort/distsort/internal/wire"
)

// firstReadSize bounds the unframed probe read from a new connection:
// the first message is either the literal "LIST" or a single small
// JSON object, never a bulk payload.
const firstReadSize = 8 * 1024

// MiddlewareName is echoed back on successful registration.
const MiddlewareName = "distsort-middleware"

// Handler owns everything one client session needs: the registry to
// register against or list, the dispatcher to hand sort jobs to, and
// the counters every session increments.
type Handler struct {
	Registry    *registry.Registry
	Dispatcher  *dispatch.Dispatcher
	SortStats   *stats.SortStats
	ClientStats *stats.ClientStats
	Log         logging.Logger
}

// Handle drives one connection's session to completion, closing conn on
// every exit path — normal completion, protocol error, or peer reset.
func (h *Handler) Handle(conn net.Conn) {
	addr := conn.RemoteAddr()
	defer func() {
		conn.Close()
		h.Log.Infof("connection with %s closed", addr)
	}()
	h.Log.Infof("client %s connected", addr)

	buf := make([]byte, firstReadSize)
	n, err := conn.Read(buf)
	if err != nil {
		if isConnReset(err) {
			h.Log.Warnf("client %s disconnected abruptly: %v", addr, err)
			return
		}
		h.Log.Errorf("error reading first message from %s: %v", addr, err)
		return
	}

	first := string(buf[:n])
	if first == protocol.ListLiteral {
		h.Log.Infof("client %s requested worker list", addr)
		h.handleListThenSort(conn)
		return
	}

	var msg protocol.FirstMessage
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		h.Log.Warnf("client %s sent invalid JSON", addr)
		h.writeUnframed(conn, protocol.RegisterResponse{Status: "error", Message: "invalid JSON"})
		return
	}

	switch msg.Action {
	case protocol.ActionRegister:
		h.handleRegister(conn, msg)
	case protocol.ActionSort:
		h.Log.Infof("client %s requested a sort", addr)
		h.handleDispatch(conn)
	default:
		h.Log.Warnf("client %s sent unknown action %q", addr, msg.Action)
		h.writeUnframed(conn, protocol.RegisterResponse{Status: "error", Message: fmt.Sprintf("unknown action: %s", msg.Action)})
	}
}

// handleListThenSort probes and shows the active fleet, then — if any
// worker is active — falls through to the same framed sort flow as a
// direct "sort" action.
func (h *Handler) handleListThenSort(conn net.Conn) {
	h.Registry.ProbeAll()
	active := h.Registry.ActiveSnapshot()

	if _, err := conn.Write([]byte(banner.WorkerList(active))); err != nil {
		h.Log.Errorf("failed sending worker banner: %v", err)
		return
	}
	if len(active) == 0 {
		return
	}

	h.handleDispatch(conn)
}

// handleRegister delegates to the registry and replies with its result.
func (h *Handler) handleRegister(conn net.Conn, msg protocol.FirstMessage) {
	err := h.Registry.Register(msg.IP, msg.Port, msg.Name)
	if err != nil {
		h.writeUnframed(conn, protocol.RegisterResponse{Status: "error", Message: err.Error()})
		return
	}
	h.writeUnframed(conn, protocol.RegisterResponse{
		Status:         "registered",
		Distributed:    true,
		MiddlewareName: MiddlewareName,
	})
}

// handleDispatch implements the DISPATCH state: announce readiness,
// read the framed input, invoke the dispatcher, and update the
// unconditional/successful operation counters.
func (h *Handler) handleDispatch(conn net.Conn) {
	h.writeUnframed(conn, protocol.ReadyResponse{Status: "ready", Message: "distributed sort ready"})

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Minute)); err != nil {
		h.Log.Errorf("failed setting read deadline: %v", err)
	}

	body, err := wire.ReceiveBytes(conn)
	if err != nil {
		h.Log.Warnf("failed receiving input sequence: %v", err)
		return
	}
	h.SortStats.AddBytesProcessed(uint64(len(body)))

	var input []int64
	if jsonErr := json.Unmarshal(body, &input); jsonErr != nil {
		h.writeFramedError(conn, "input is not a JSON array of integers")
		return
	}

	h.ClientStats.IncTotal()
	success := h.Dispatcher.Dispatch(conn, input)
	if success {
		h.ClientStats.IncSuccessful()
	}
}

func (h *Handler) writeUnframed(conn net.Conn, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		h.Log.Errorf("failed marshaling response: %v", err)
		return
	}
	if _, err := conn.Write(body); err != nil {
		h.Log.Errorf("failed writing response: %v", err)
	}
}

func (h *Handler) writeFramedError(conn net.Conn, message string) {
	h.writeUnframed(conn, protocol.ErrorResponse{Error: message})
}

func isConnReset(err error) bool {
	return strings.Contains(err.Error(), "reset by peer") || strings.Contains(err.Error(), "EOF")
}
