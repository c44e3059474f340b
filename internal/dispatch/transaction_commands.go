// Package dispatch adapts the transaction coordinator and a handful of
// representative mutating commands to a (client, args) -> reply shape, the
// way pikiwidb's *Cmd::DoCmd methods do (spec §6 command table). The full
// network command parser and ACL system are out of scope (spec §1); this
// package only implements the five transaction commands plus enough
// mutating commands to exercise the write-path contract in spec §4.7.
package dispatch

import (
	"github.com/rsms/pikistore/internal/client"
	"github.com/rsms/pikistore/internal/resp"
	"github.com/rsms/pikistore/internal/txn"
	"github.com/rsms/pikistore/pkg/buf"
)

// Handlers bundles the coordinator a connection's command loop dispatches
// against. One Handlers (or at least one Coordinator) per process; the db
// number is per-connection state that the caller passes to each handler
// that needs it.
type Handlers struct {
	Coordinator *txn.Coordinator
}

// Watch implements WATCH key [key ...] (arity >= 2).
func (h *Handlers) Watch(c *client.Client, db int, args []string) []byte {
	var b buf.Buffer
	if len(args) < 1 {
		resp.WriteError(&b, "ERR wrong number of arguments for 'watch' command")
		return b.Bytes()
	}
	if err := h.Coordinator.Watch(c, db, args...); err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteOK(&b)
	return b.Bytes()
}

// Unwatch implements UNWATCH (arity 1): always succeeds.
func (h *Handlers) Unwatch(c *client.Client) []byte {
	c.ClearWatch()
	var b buf.Buffer
	resp.WriteOK(&b)
	return b.Bytes()
}

// Multi implements MULTI (arity 1).
func (h *Handlers) Multi(c *client.Client) []byte {
	var b buf.Buffer
	if err := h.Coordinator.Multi(c); err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteOK(&b)
	return b.Bytes()
}

// Exec implements EXEC (arity 1).
func (h *Handlers) Exec(c *client.Client) []byte {
	var b buf.Buffer
	replies, err := h.Coordinator.Exec(c)
	switch {
	case err == txn.ErrDirtyExec:
		resp.WriteNilArray(&b)
	case err != nil:
		resp.WriteCommandError(&b, err)
	default:
		resp.WriteArray(&b, replies)
	}
	return b.Bytes()
}

// Discard implements DISCARD (arity 1).
func (h *Handlers) Discard(c *client.Client) []byte {
	var b buf.Buffer
	if err := h.Coordinator.Discard(c); err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteOK(&b)
	return b.Bytes()
}
