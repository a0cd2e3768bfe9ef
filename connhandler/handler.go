// Package connhandler drives one TCP connection's request/response loop:
// accumulate bytes, parse RESP frames, dispatch, write replies.
package connhandler

import (
	"errors"
	"net"

	"github.com/mshaverdo/radish/dispatch"
	"github.com/mshaverdo/radish/log"
	"github.com/mshaverdo/radish/resp"
)

const readChunkSize = 4096

// Handler drives the byte-accumulation/parse/dispatch/write loop for a
// single connection against a shared Dispatcher.
type Handler struct {
	dispatcher *dispatch.Dispatcher
}

// New builds a Handler around the given Dispatcher. A single Handler (and
// the Dispatcher it wraps) is shared by every accepted connection.
func New(d *dispatch.Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Handle reads and serves requests from conn until the client disconnects
// or a malformed frame is seen, then closes conn.
func (h *Handler) Handle(conn net.Conn) {
	defer conn.Close()

	addr := conn.RemoteAddr()
	log.Debugf("New connection from %s", addr)

	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}

		for {
			value, rest, perr := resp.Parse(buf)
			if perr != nil {
				if !errors.Is(perr, resp.ErrIncomplete) {
					log.Warningf("malformed frame from %s: %s", addr, perr)
					return
				}
				break
			}
			buf = rest

			if value.Kind != resp.Array {
				if writeErr := writeValue(conn, resp.NewError("ERR expected array")); writeErr != nil {
					log.Errorf("write to %s failed: %s", addr, writeErr)
					return
				}
				continue
			}

			args := extractArgs(value)
			if len(args) == 0 {
				if writeErr := writeValue(conn, resp.NewError("ERR empty command")); writeErr != nil {
					log.Errorf("write to %s failed: %s", addr, writeErr)
					return
				}
				continue
			}

			cmd := args[0]
			rawArgs := make([][]byte, len(args)-1)
			for i, a := range args[1:] {
				rawArgs[i] = []byte(a)
			}

			log.Debugf("dispatching %s %q from %s", cmd, rawArgs, addr)
			reply := h.dispatcher.Dispatch(cmd, rawArgs)

			if writeErr := writeValue(conn, reply); writeErr != nil {
				log.Errorf("write to %s failed: %s", addr, writeErr)
				return
			}
		}

		if err != nil {
			log.Debugf("connection %s closed: %s", addr, err)
			return
		}
	}
}

func writeValue(conn net.Conn, v resp.Value) error {
	_, err := conn.Write(resp.Serialize(v))
	return err
}

// extractArgs flattens a top-level Array into its command argument strings,
// dropping nil BulkString elements and any non-BulkString element. This is
// deliberately lenient, matching the documented behavior of the reference
// implementation this server's wire semantics were derived from.
func extractArgs(v resp.Value) []string {
	var args []string
	for _, item := range v.Items {
		if item.Kind == resp.BulkString && !item.IsNilBulkString() {
			args = append(args, string(item.Bulk))
		}
	}
	return args
}
