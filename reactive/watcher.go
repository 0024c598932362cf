package reactive

import (
	"reflect"
)

var watcherIDCounter int

// Unwatch detaches a watcher from all of its dependencies.
// After calling it the watcher never fires again.
type Unwatch func()

// Watcher re-evaluates a read function whenever one of the reactive values
// it read changes, and invokes a callback when the computed result differs
// from the previous one.
type Watcher struct {
	id      int
	fn      func() any
	cb      func(newVal, oldVal any)
	deep    bool
	effect  bool
	lazy    bool
	dirty   bool
	active  bool
	value   any
	deps    map[*dep]struct{}
	newDeps map[*dep]struct{}
	ownDep  *dep
}

type watchOptions struct {
	deep      bool
	immediate bool
}

// Option configures a Watch call.
type Option func(*watchOptions)

// WithDeep makes the watcher traverse the returned value so that nested
// reactive reads also register as dependencies.
func WithDeep() Option {
	return func(o *watchOptions) { o.deep = true }
}

// WithImmediate fires the callback right away with the initial value.
func WithImmediate() Option {
	return func(o *watchOptions) { o.immediate = true }
}

// Watch evaluates fn, tracking every reactive read, and re-evaluates it when
// any dependency changes. The callback receives (new, old) and only fires
// when the computed value actually changed; an unrelated dependency change
// that evaluates to the same result is swallowed.
func Watch(fn func() any, cb func(newVal, oldVal any), opts ...Option) Unwatch {
	var o watchOptions
	for _, opt := range opts {
		opt(&o)
	}
	w := newWatcher(fn, cb, o.deep, false)
	w.value = w.get()
	if o.immediate && cb != nil {
		cb(w.value, nil)
	}
	return w.teardown
}

// WatchEffect runs fn immediately and re-runs it whenever any reactive value
// it read changes. The re-run itself is the effect.
func WatchEffect(fn func()) Unwatch {
	w := newWatcher(func() any {
		fn()
		return nil
	}, nil, false, true)
	w.get()
	return w.teardown
}

func newWatcher(fn func() any, cb func(newVal, oldVal any), deep, effect bool) *Watcher {
	watcherIDCounter++
	return &Watcher{
		id:      watcherIDCounter,
		fn:      fn,
		cb:      cb,
		deep:    deep,
		effect:  effect,
		active:  true,
		deps:    make(map[*dep]struct{}),
		newDeps: make(map[*dep]struct{}),
	}
}

func (w *Watcher) get() any {
	prev := activeWatcher
	activeWatcher = w
	w.newDeps = make(map[*dep]struct{})
	val := w.fn()
	if w.deep {
		traverse(val, make(map[*Map]struct{}))
	}
	activeWatcher = prev

	// Unsubscribe from dependencies that were not read this time.
	for d := range w.deps {
		if _, ok := w.newDeps[d]; !ok {
			delete(d.subs, w.id)
		}
	}
	w.deps = w.newDeps
	return val
}

func (w *Watcher) update() {
	if !w.active {
		return
	}
	if w.lazy {
		if !w.dirty {
			w.dirty = true
			if w.ownDep != nil {
				w.ownDep.notify()
			}
		}
		return
	}
	sched.queueWatcher(w)
}

func (w *Watcher) run() {
	if !w.active {
		return
	}
	newVal := w.get()
	if w.effect {
		return
	}
	oldVal := w.value
	w.value = newVal
	// Deep watchers fire on any dependency change: the interesting
	// mutation may be nested inside a value that compares identical.
	if w.cb != nil && (w.deep || valueChanged(oldVal, newVal)) {
		w.cb(newVal, oldVal)
	}
}

func (w *Watcher) teardown() {
	if !w.active {
		return
	}
	w.active = false
	for d := range w.deps {
		delete(d.subs, w.id)
	}
	w.deps = nil
	w.newDeps = nil
}

// valueChanged reports whether a watcher result changed between runs.
// Comparable values (scalars, pointers) compare directly; containers cannot
// be diffed against themselves after in-place mutation, so they always count
// as changed.
func valueChanged(oldVal, newVal any) bool {
	if oldVal == nil && newVal == nil {
		return false
	}
	if oldVal == nil || newVal == nil {
		return true
	}
	oldType := reflect.TypeOf(oldVal)
	newType := reflect.TypeOf(newVal)
	if oldType == newType && oldType.Comparable() {
		return oldVal != newVal
	}
	return true
}

// traverse walks nested reactive maps and plain containers so that a deep
// watcher depends on every reachable key.
func traverse(val any, seen map[*Map]struct{}) {
	switch v := val.(type) {
	case *Map:
		if v == nil {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		for _, key := range v.Keys() {
			traverse(v.Get(key), seen)
		}
	case []any:
		for _, item := range v {
			traverse(item, seen)
		}
	case map[string]any:
		for _, item := range v {
			traverse(item, seen)
		}
	}
}
