package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"vocmd/internal/macro"
)

const DefaultSocketPath = "/tmp/vocmd.sock"

const (
	CmdResolve = "resolve"
	CmdRun     = "run"
	CmdReload  = "reload"
	CmdAliases = "aliases"
	CmdAlias   = "alias"
	CmdUnalias = "unalias"
)

const (
	StatusOK      = "ok"
	StatusNoMatch = "no_match"
	// StatusConfirm: the macro needs confirmation and the request did not carry it.
	StatusConfirm = "confirm"
	StatusError   = "error"
)

// Request is sent by vocmd-ctl, one per connection.
// Approved is the macro the user was shown and agreed to; a run carrying
// it executes only if the text still resolves to the same macro.
// Confirmed without Approved is a blanket yes.
type Request struct {
	ID        string       `json:"id"`
	Cmd       string       `json:"cmd"`
	Text      string       `json:"text,omitempty"`
	Command   string       `json:"command,omitempty"`
	Confirmed bool         `json:"confirmed,omitempty"`
	Approved  *macro.Macro `json:"approved,omitempty"`
}

// Reply answers a Request with the same ID.
type Reply struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	Macro   *macro.Macro      `json:"macro,omitempty"`
	Message string            `json:"message,omitempty"`
	Aliases map[string]string `json:"aliases,omitempty"`
}

func NewRequest(cmd, text string) Request {
	return Request{ID: uuid.NewString(), Cmd: cmd, Text: text}
}

type Handler func(Request) Reply

// StartServer serves handler on the unix socket at path until the returned
// listener is closed.
func StartServer(path string, handler Handler) (net.Listener, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if err != nil {
				log.Warn("Failed to accept ipc connection", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return ln, nil
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var req Request
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&req); err != nil {
		log.Warn("Bad ipc request", "err", err)
		writeReply(conn, Reply{Status: StatusError, Message: fmt.Sprintf("bad request: %v", err)})
		return
	}

	reply := handler(req)
	reply.ID = req.ID
	writeReply(conn, reply)
}

func writeReply(w io.Writer, r Reply) {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		log.Warn("Failed to write ipc reply", "err", err)
	}
}

// Send delivers req to the daemon at path and waits up to timeout for the reply.
func Send(path string, req Request, timeout time.Duration) (Reply, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.ID != req.ID {
		return Reply{}, fmt.Errorf("reply id %q does not match request %q", reply.ID, req.ID)
	}

	return reply, nil
}
