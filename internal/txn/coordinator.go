package txn

import (
	"errors"

	"github.com/rsms/pikistore/internal/client"
)

var (
	// ErrExecWithoutMulti is returned by Exec when no MULTI block is open.
	ErrExecWithoutMulti = errors.New("txn: EXEC without MULTI")
	// ErrDirtyExec is returned by Exec when a watched key was mutated
	// between WATCH and EXEC.
	ErrDirtyExec = errors.New("txn: EXEC aborted, watched key modified")
)

// Coordinator is the process-wide mediator between command handlers and the
// Registry (spec §9 "Singletons" — construct once, pass by reference; no
// lazy-init global). It implements the WATCH/MULTI/EXEC/DISCARD contract of
// spec §4.7 and §6.
type Coordinator struct {
	Registry *Registry
}

// NewCoordinator returns a Coordinator backed by the given registry.
func NewCoordinator(r *Registry) *Coordinator {
	return &Coordinator{Registry: r}
}

// Watch registers keys for c to watch in db. Fails with
// client.ErrWatchInsideMulti (surfaced to the caller) if c is in MULTI;
// otherwise every key is both recorded in the client's watch set and
// registered in the global registry.
func (co *Coordinator) Watch(c *client.Client, db int, keys ...string) error {
	for _, key := range keys {
		added, err := c.Watch(db, key)
		if err != nil {
			return err
		}
		if added {
			co.Registry.Register(c, db, key)
		}
	}
	return nil
}

// Multi begins a MULTI block for c. Fails with client.ErrMultiNested if
// already in MULTI.
func (co *Coordinator) Multi(c *client.Client) error {
	return c.SetMulti()
}

// Exec runs c's queued commands. Fails with ErrExecWithoutMulti if no MULTI
// block is open, or ErrDirtyExec if a watched key was mutated underneath it.
func (co *Coordinator) Exec(c *client.Client) ([][]byte, error) {
	if !c.IsMulti() {
		return nil, ErrExecWithoutMulti
	}
	replies, ok := c.Exec()
	if !ok {
		return nil, ErrDirtyExec
	}
	return replies, nil
}

// Discard aborts c's MULTI block. Fails with client.ErrDiscardWithoutMulti
// if no MULTI block is open.
func (co *Coordinator) Discard(c *client.Client) error {
	return c.Discard()
}

// NotifyDirty must be called by every mutating command's write path (spec
// §4.7) for every key it mutated, before the command returns success. This
// is the sole coupling point between the storage core and the transaction
// core.
func (co *Coordinator) NotifyDirty(db int, key string) {
	co.Registry.NotifyDirty(db, key)
}

// NotifyDirtyAll marks every watcher in db (or every db, if db == -1) dirty.
// Used on flush/swap-style operations that touch an entire database at once.
func (co *Coordinator) NotifyDirtyAll(db int) {
	co.Registry.NotifyDirtyAll(db)
}
