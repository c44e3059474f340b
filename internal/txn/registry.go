// Package txn implements the global watch registry (C6) and the
// process-wide transaction coordinator (C7) that mediate WATCH/MULTI/EXEC/
// DISCARD, ported from pikiwidb's transaction.{h,cc}.
package txn

import (
	"sync"

	"github.com/rsms/go-log"
	"github.com/rsms/pikistore/internal/client"
)

// watcher is a weak reference to a watching client: Go has no std::weak_ptr,
// so liveness is modeled by asking the client itself whether it's still
// connected (client.Alive), which the client also flips eagerly on
// disconnect (spec §9's two complementary strategies).
type watcher struct {
	c *client.Client
}

func (w *watcher) alive() bool { return w.c.Alive() }

// Registry maintains WatchedClients: map<dbno, map<key, list<weak_ref<Client>>>>.
type Registry struct {
	Logger *log.Logger

	mu   sync.Mutex
	dbs  map[int]map[string][]*watcher
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{Logger: logger, dbs: make(map[int]map[string][]*watcher)}
}

// Register adds c as a watcher of (db, key). Idempotent: registering the
// same client for the same key twice just appends a second weak reference,
// which is harmless (NotifyDirty drops duplicates the first time either is
// visited); the call site (Coordinator.Watch) only registers on a
// newly-added watch set entry, which keeps this effectively idempotent in
// practice.
func (r *Registry) Register(c *client.Client, db int, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, ok := r.dbs[db]
	if !ok {
		keys = make(map[string][]*watcher)
		r.dbs[db] = keys
	}
	keys[key] = append(keys[key], &watcher{c: c})
}

// NotifyDirty marks every live watcher of (db, key) dirty, in registration
// order. Dead weak references are dropped; watchers that report themselves
// already dirty are also dropped (further notifications would be
// redundant). Empty buckets are compacted away.
func (r *Registry) NotifyDirty(db int, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.dbs[db]
	if !ok {
		return
	}
	watchers, ok := keys[key]
	if !ok {
		return
	}

	kept := watchers[:0]
	for _, w := range watchers {
		if !w.alive() {
			if r.Logger != nil {
				r.Logger.Warn("dropping dead watcher when notifying dirty key %q (db %d)", key, db)
			}
			continue
		}
		if w.c.NotifyDirty(db, key) {
			// already dirty (or now is): no point tracking it further
			continue
		}
		kept = append(kept, w)
	}

	if len(kept) == 0 {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.dbs, db)
		}
	} else {
		keys[key] = kept
	}
}

// NotifyDirtyAll marks every client in every watched bucket dirty, without
// removing entries (used on flush/swap, where a later NotifyDirty pass does
// the cleanup). db == -1 means "every database".
func (r *Registry) NotifyDirtyAll(db int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	markAll := func(forDB int, keys map[string][]*watcher) {
		for key, watchers := range keys {
			for _, w := range watchers {
				if c := w.c; c.Alive() {
					c.NotifyDirty(forDB, key)
				}
			}
		}
	}

	if db == -1 {
		for dbno, keys := range r.dbs {
			markAll(dbno, keys)
		}
		return
	}
	if keys, ok := r.dbs[db]; ok {
		markAll(db, keys)
	}
}
