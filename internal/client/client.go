// Package client implements the per-client optimistic-transaction state
// (spec C5): the MULTI queue, WATCH set, and dirty/multi flags, plus the
// Client type the transaction coordinator depends on.
package client

import (
	"errors"
	"sync"

	uid "github.com/rsms/go-uuid"
)

var (
	// ErrWatchInsideMulti is returned by Watch when called while a MULTI
	// block is open.
	ErrWatchInsideMulti = errors.New("client: WATCH inside MULTI")
	// ErrMultiNested is returned by SetMulti when a MULTI block is already open.
	ErrMultiNested = errors.New("client: MULTI calls can not be nested")
	// ErrDiscardWithoutMulti is returned by Discard when no MULTI block is open.
	ErrDiscardWithoutMulti = errors.New("client: DISCARD without MULTI")
)

// WatchKey identifies a watched key within a logical database.
type WatchKey struct {
	DB  int
	Key string
}

// Command is a single queued MULTI command: a name plus its arguments, and
// the function that actually executes it against the store when EXEC runs.
type Command struct {
	Name string
	Args [][]byte
	Run  func() (reply []byte, err error)
}

// Client holds one connection's transaction state. Mutated only from the
// goroutine currently dispatching this client's command; NotifyDirty may be
// called concurrently from whichever goroutine is executing a different
// client's write, so all access goes through mu.
type Client struct {
	ID uid.UUID // identity for diagnostics

	mu        sync.Mutex
	multiFlag bool
	dirtyFlag bool
	watchSet  map[WatchKey]struct{}
	queued    []Command
	closed    bool
}

// New returns a fresh, idle Client.
func New() *Client {
	return &Client{ID: uid.New()}
}

// Watch adds (db, key) to the watch set. Returns true iff it was newly
// added (spec §4.5). Fails with ErrWatchInsideMulti if a MULTI block is open.
func (c *Client) Watch(db int, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.multiFlag {
		return false, ErrWatchInsideMulti
	}
	k := WatchKey{db, key}
	if _, exists := c.watchSet[k]; exists {
		return false, nil
	}
	if c.watchSet == nil {
		c.watchSet = make(map[WatchKey]struct{})
	}
	c.watchSet[k] = struct{}{}
	return true, nil
}

// WatchedKeys returns a snapshot of the client's current watch set.
func (c *Client) WatchedKeys() []WatchKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]WatchKey, 0, len(c.watchSet))
	for k := range c.watchSet {
		keys = append(keys, k)
	}
	return keys
}

// ClearWatch empties the watch set (used by UNWATCH and by Discard/Exec completion).
func (c *Client) ClearWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearWatchLocked()
}

func (c *Client) clearWatchLocked() {
	c.watchSet = nil
}

// SetMulti begins a MULTI block, clearing any previously queued commands.
// Fails with ErrMultiNested if already inside MULTI.
func (c *Client) SetMulti() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.multiFlag {
		return ErrMultiNested
	}
	c.multiFlag = true
	c.queued = nil
	return nil
}

// IsMulti reports whether a MULTI block is currently open.
func (c *Client) IsMulti() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.multiFlag
}

// Queue appends cmd to the pending MULTI block. Only valid while multiFlag
// is set; callers (the dispatcher) are expected to check IsMulti first and
// reject nested MULTI/WATCH at queue time per spec §4.5.
func (c *Client) Queue(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = append(c.queued, cmd)
}

// Exec runs the queued commands in submission order and clears transaction
// state. If the client is dirty, it aborts instead: state is cleared and ok
// is false, signaling the dispatcher to reply with the DirtyExec abort.
func (c *Client) Exec() (replies [][]byte, ok bool) {
	c.mu.Lock()
	if c.dirtyFlag {
		c.resetLocked()
		c.mu.Unlock()
		return nil, false
	}
	queued := c.queued
	c.resetLocked()
	c.mu.Unlock()

	replies = make([][]byte, 0, len(queued))
	for _, cmd := range queued {
		reply, err := cmd.Run()
		if err != nil {
			reply = []byte(err.Error())
		}
		replies = append(replies, reply)
	}
	return replies, true
}

// Discard aborts a MULTI block without executing it, clearing multi state,
// watch set, and dirty flag. Fails with ErrDiscardWithoutMulti if no MULTI
// block is open.
func (c *Client) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.multiFlag {
		return ErrDiscardWithoutMulti
	}
	c.resetLocked()
	return nil
}

// resetLocked clears multi/dirty/queued/watch state. Caller holds c.mu.
func (c *Client) resetLocked() {
	c.multiFlag = false
	c.dirtyFlag = false
	c.queued = nil
	c.clearWatchLocked()
}

// NotifyDirty marks the client dirty if it is watching (db, key). Returns
// true if the client is (now) dirty and watching this key, signaling the
// watch registry that it may drop this client from the key's watcher list
// (further notifications for an already-dirty client are redundant).
func (c *Client) NotifyDirty(db int, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, watching := c.watchSet[WatchKey{db, key}]; !watching {
		return false
	}
	c.dirtyFlag = true
	return true
}

// IsDirty reports the current dirty flag.
func (c *Client) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyFlag
}

// Close marks the client disconnected. Alive() will report false from this
// point on, so any racing NotifyDirty sees a dead client. Close does not
// remove the client's entries from the watch registry; the registry drops
// them the next time it notifies the watched key.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Alive reports whether the client is still connected.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
