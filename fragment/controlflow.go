package fragment

import (
	"github.com/fork-tongue/kolla/reactive"
)

// activeBranch evaluates branch conditions in declaration order and returns
// the first matching branch. A branch without a condition is the else arm
// and always matches. Evaluating inside a watcher tracks the dependencies
// of every condition up to and including the matching one, so a flip
// anywhere in that prefix re-selects.
func (f *Fragment) activeBranch() any {
	for _, branch := range f.children {
		if branch.condition == nil || branch.condition() {
			return branch
		}
	}
	return (*Fragment)(nil)
}

func (f *Fragment) mountControlFlow(target, anchor any) {
	f.target = target
	initial := true
	f.watchers["control_flow"] = reactive.Watch(f.activeBranch, func(newVal, oldVal any) {
		old, _ := oldVal.(*Fragment)
		next, _ := newVal.(*Fragment)
		if old != nil {
			old.Unmount(false)
		}
		f.active = next
		if next == nil {
			return
		}
		at := anchor
		if !initial {
			at = next.Anchor()
		}
		next.Mount(f.target, at)
	}, reactive.WithImmediate())
	initial = false
	f.mounted = true
}
