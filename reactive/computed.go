package reactive

// Computed returns a getter for a lazily memoized value. The read function
// only re-runs after one of its dependencies changed, and watchers reading
// the getter re-run when the memoized value is invalidated.
func Computed(fn func() any) func() any {
	w := newWatcher(fn, nil, false, false)
	w.lazy = true
	w.dirty = true
	w.ownDep = newDep()
	return func() any {
		if w.dirty {
			w.value = w.get()
			w.dirty = false
		}
		w.ownDep.depend()
		return w.value
	}
}
