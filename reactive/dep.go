// Package reactive provides the fine-grained dependency tracking primitives
// the reconciliation engine consumes: reactive maps, watchers with
// deep/immediate options, lazily recomputed values, and a batching
// scheduler that coalesces flushes.
//
// The whole package assumes the engine's single-threaded cooperative model:
// all reads and writes happen on one logical thread of control.
package reactive

import "sort"

// activeWatcher is the watcher currently evaluating its read function.
// Reads performed while it is set register dependencies on it.
var activeWatcher *Watcher

type dep struct {
	subs map[int]*Watcher
}

func newDep() *dep {
	return &dep{subs: make(map[int]*Watcher)}
}

func (d *dep) depend() {
	if activeWatcher == nil {
		return
	}
	d.subs[activeWatcher.id] = activeWatcher
	activeWatcher.newDeps[d] = struct{}{}
}

func (d *dep) notify() {
	if len(d.subs) == 0 {
		return
	}
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	// Watchers run in creation order so parent watchers settle
	// before the watchers they spawned.
	sort.Ints(ids)
	for _, id := range ids {
		if w, ok := d.subs[id]; ok {
			w.update()
		}
	}
}
