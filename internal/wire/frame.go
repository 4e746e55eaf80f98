// Package wire implements the length-prefixed JSON framing protocol used
// on every TCP connection distsort owns: a 4-byte big-endian length
// followed by exactly that many bytes of UTF-8 JSON.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ChunkSize bounds a single read/write call so large payloads don't tie
// up a goroutine in one syscall and so progress can, in principle, be
// observed on very large transfers.
const ChunkSize = 1 << 20 // 1 MiB

// MaxFrameSize bounds the length prefix accepted on Receive, so a
// malformed or hostile peer can't force an unbounded allocation.
const MaxFrameSize = 512 << 20 // 512 MiB

var (
	// ErrPeerClosed is returned when the peer closes the connection
	// before a full message (length prefix or body) has arrived.
	ErrPeerClosed = errors.New("wire: peer closed connection")

	// ErrFraming is returned when the length prefix declares a size
	// above MaxFrameSize, and by Receive when the body does not decode
	// as JSON into the target value.
	ErrFraming = errors.New("wire: invalid frame")
)

// Send serializes v as JSON and writes it as one framed message:
// a 4-byte big-endian length prefix followed by the body, written in
// ChunkSize pieces.
func Send(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal: %w", err)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}

	for off := 0; off < len(body); {
		end := off + ChunkSize
		if end > len(body) {
			end = len(body)
		}
		n, err := w.Write(body[off:end])
		if err != nil {
			return fmt.Errorf("wire: write body: %w", err)
		}
		off += n
	}
	return nil
}

// Receive reads one framed message from r and unmarshals its JSON body
// into v. It reads the body in ChunkSize pieces so very large transfers
// never require a single giant read.
func Receive(r io.Reader, v interface{}) error {
	body, err := ReceiveBytes(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrFraming, err)
	}
	return nil
}

// ReceiveBytes reads one framed message and returns its raw JSON body
// without unmarshaling it, for callers that need the byte count (e.g.
// to update SortStats.bytes_processed) before decoding.
func ReceiveBytes(r io.Reader) ([]byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPeerClosed
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenPrefix[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: length %d exceeds cap %d", ErrFraming, length, MaxFrameSize)
	}

	body := make([]byte, length)
	received := 0
	for received < int(length) {
		end := received + ChunkSize
		if end > int(length) {
			end = int(length)
		}
		n, err := r.Read(body[received:end])
		if n > 0 {
			received += n
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: received %d of %d bytes", ErrPeerClosed, received, length)
			}
			return nil, err
		}
	}
	return body, nil
}
