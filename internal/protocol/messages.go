// Package protocol defines the JSON shapes exchanged on the
// client-facing and worker-facing sockets.
package protocol

// FirstMessage is the unframed JSON object a client may send as its
// first message (the alternative is the literal ASCII string "LIST").
type FirstMessage struct {
	Action string `json:"action"`
	IP     string `json:"ip,omitempty"`
	Port   int    `json:"port,omitempty"`
	Name   string `json:"name,omitempty"`
}

const (
	ActionRegister = "register"
	ActionSort     = "sort"
)

// ListLiteral is the unframed probe a client sends to request the
// active-worker banner.
const ListLiteral = "LIST"

// RegisterResponse answers a register FirstMessage.
type RegisterResponse struct {
	Status         string `json:"status"`
	Distributed    bool   `json:"distributed,omitempty"`
	MiddlewareName string `json:"middleware_name,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ReadyResponse answers a sort FirstMessage before the framed input
// array is read.
type ReadyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the single shape used for every user-visible failure
// that isn't a registration error.
type ErrorResponse struct {
	Error string `json:"error"`
}
