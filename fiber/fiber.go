// Package fiber implements the first-generation reconciler: an
// interruptible work loop over a linked fiber tree with an atomic commit
// phase. It renders vdom trees produced by function and class components
// and keeps the previous tree as alternates for structural reuse.
package fiber

import (
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/vdom"
)

// RenderFn is a function component: it derives a vdom tree from props.
// Reactive reads made during the call are tracked, and changes re-render.
type RenderFn func(props *reactive.Map) *vdom.VNode

// Component is a class component: render plus lifecycle callbacks fired
// around commit. Mounted and Updated run in the post-commit pass, children
// before their parent; BeforeUnmount runs before any native removal of the
// component's subtree.
type Component interface {
	Render(props *reactive.Map) *vdom.VNode
	Mounted()
	Updated()
	BeforeUnmount()
}

// ComponentFn constructs a component instance. The instance is created the
// first time its fiber renders and carried across passes through the
// alternate chain.
type ComponentFn func(props *reactive.Map) Component

// EffectTag describes the commit-phase action for a fiber.
type EffectTag int

const (
	// Placement inserts a freshly created native object.
	Placement EffectTag = iota + 1
	// Update patches an existing native object in place.
	Update
	// Deletion removes the fiber's native subtree.
	Deletion
)

func (t EffectTag) String() string {
	switch t {
	case Placement:
		return "placement"
	case Update:
		return "update"
	case Deletion:
		return "deletion"
	default:
		return "none"
	}
}

// Fiber is one unit of work. Child/Sibling/Parent link the
// work-in-progress tree; Alternate points at the committed fiber this one
// was derived from, enabling dom and type reuse.
type Fiber struct {
	Type  any
	Props *reactive.Map
	Key   any
	Text  string

	Dom any
	// Snapshot is the plain prop map applied to Dom at the last commit;
	// the next update diffs against it.
	Snapshot map[string]any

	Parent    *Fiber
	Child     *Fiber
	Sibling   *Fiber
	Alternate *Fiber

	// Children holds the pending vdom children to reconcile against the
	// alternate's fiber children.
	Children []*vdom.VNode

	EffectTag EffectTag
	// Move marks a keyed fiber that kept its dom but changed position;
	// AnchorKey names the sibling key it must be inserted before (nil
	// means append).
	Move      bool
	AnchorKey any
	HasAnchor bool

	// Component is the class component instance behind a ComponentFn
	// fiber, carried across passes; hook records which lifecycle call
	// commit owes it.
	Component Component
	hook      EffectTag

	watcher reactive.Unwatch
}

func (f *Fiber) isComponent() bool {
	if _, ok := f.Type.(ComponentFn); ok {
		return true
	}
	_, ok := asRenderFn(f.Type)
	return ok
}

// notifyBeforeUnmount fires BeforeUnmount through the subtree, parent
// first, before any native removal.
func (f *Fiber) notifyBeforeUnmount() {
	if f.Component != nil {
		f.Component.BeforeUnmount()
	}
	for child := f.Child; child != nil; child = child.Sibling {
		child.notifyBeforeUnmount()
	}
}

// cancelWatchers releases reactive subscriptions of this fiber and its
// subtree. Called on deletion so dropped components stop re-rendering.
func (f *Fiber) cancelWatchers() {
	if f.watcher != nil {
		f.watcher()
		f.watcher = nil
	}
	for child := f.Child; child != nil; child = child.Sibling {
		child.cancelWatchers()
	}
}
