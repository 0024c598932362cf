package fiber

import (
	"reflect"

	"github.com/go-logr/logr"

	"github.com/fork-tongue/kolla/diff"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
	"github.com/fork-tongue/kolla/vdom"
)

// Mode selects how the work loop is driven.
type Mode int

const (
	// ModeSync runs every render to completion on the calling goroutine.
	ModeSync Mode = iota
	// ModeDeferred splits work into units; the embedder drives Work with
	// a deadline whenever the event loop is idle.
	ModeDeferred
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMode sets the scheduling mode.
func WithMode(mode Mode) Option {
	return func(r *Reconciler) { r.mode = mode }
}

// WithLogger sets the side channel for guarded renderer failures.
func WithLogger(log logr.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithRequestWork installs the deferred-mode callback invoked whenever
// units of work are pending. The embedder responds by calling Work.
func WithRequestWork(fn func()) Option {
	return func(r *Reconciler) { r.requestWork = fn }
}

// Reconciler renders vdom trees into a renderer, reusing the previously
// committed fiber tree through alternates.
type Reconciler struct {
	rend renderer.Renderer
	log  logr.Logger
	mode Mode

	requestWork func()

	currentRoot *Fiber
	wipRoot     *Fiber
	nextUnit    *Fiber
	deletions   []*Fiber

	working bool
	dirty   bool
}

// New creates a reconciler for the given renderer. Default mode is
// synchronous.
func New(rend renderer.Renderer, opts ...Option) *Reconciler {
	r := &Reconciler{rend: rend, log: logr.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render schedules a full render of node into target.
func (r *Reconciler) Render(node *vdom.VNode, target any) {
	r.wipRoot = &Fiber{
		Dom:       target,
		Props:     reactive.NewMap(nil),
		Children:  []*vdom.VNode{node},
		Alternate: r.currentRoot,
	}
	r.deletions = nil
	r.nextUnit = r.wipRoot
	r.schedule()
}

// Unmount removes the committed tree from the renderer and releases all
// reactive subscriptions.
func (r *Reconciler) Unmount() {
	if r.currentRoot == nil {
		return
	}
	for child := r.currentRoot.Child; child != nil; child = child.Sibling {
		r.commitDeletion(child)
	}
	r.currentRoot = nil
	r.wipRoot = nil
	r.nextUnit = nil
}

// HasWork reports whether units of work are pending.
func (r *Reconciler) HasWork() bool {
	return r.nextUnit != nil
}

func (r *Reconciler) schedule() {
	if r.mode == ModeDeferred && r.requestWork != nil {
		r.requestWork()
		return
	}
	r.Work(nil)
}

// Work performs units of work until none remain or deadline reports that
// the time slice is up. When the tree is fully built it commits atomically
// within the same call. Returns true while work remains.
func (r *Reconciler) Work(deadline func() bool) bool {
	r.working = true
	for r.nextUnit != nil {
		if deadline != nil && deadline() {
			r.working = false
			return true
		}
		r.nextUnit = r.performUnitOfWork(r.nextUnit)
	}
	if r.wipRoot != nil {
		r.commitRoot()
	}
	r.working = false
	if r.dirty {
		r.dirty = false
		r.stateUpdated()
	}
	return r.nextUnit != nil
}

func (r *Reconciler) performUnitOfWork(f *Fiber) *Fiber {
	if f.isComponent() {
		r.updateComponent(f)
	} else {
		r.updateHost(f)
	}
	if f.Child != nil {
		return f.Child
	}
	for n := f; n != nil; n = n.Parent {
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}

func (r *Reconciler) updateComponent(f *Fiber) {
	fn := r.componentRender(f)
	if f.watcher != nil {
		f.watcher()
		f.watcher = nil
	}
	if f.Alternate != nil && f.Alternate.watcher != nil {
		f.Alternate.watcher()
		f.Alternate.watcher = nil
	}
	var out *vdom.VNode
	f.watcher = reactive.Watch(func() any {
		out = fn(f.Props)
		return out
	}, func(_, _ any) {
		r.stateUpdated()
	})
	f.Children = nil
	if out != nil {
		f.Children = []*vdom.VNode{out}
	}
	r.reconcileChildren(f)
}

// componentRender resolves the render entry for a component fiber. Class
// component instances are carried over from the alternate; a fiber without
// one constructs a fresh instance.
func (r *Reconciler) componentRender(f *Fiber) RenderFn {
	ctor, ok := f.Type.(ComponentFn)
	if !ok {
		fn, _ := asRenderFn(f.Type)
		return fn
	}
	if f.Component == nil {
		if f.Alternate != nil && f.Alternate.Component != nil {
			f.Component = f.Alternate.Component
		} else {
			f.Component = ctor(f.Props)
		}
	}
	return f.Component.Render
}

func (r *Reconciler) updateHost(f *Fiber) {
	if f.Dom == nil {
		f.Dom = r.createDom(f)
	}
	r.reconcileChildren(f)
}

func (r *Reconciler) createDom(f *Fiber) any {
	if f.Type == vdom.TextTag {
		dom := r.rend.CreateTextElement()
		renderer.Guard(r.log, dom, "setElementText", func() {
			r.rend.SetElementText(dom, f.Text)
		})
		return dom
	}
	tag, _ := f.Type.(string)
	dom := r.rend.CreateElement(tag)
	next := f.Props.Raw()
	diff.Apply(r.rend, r.log, dom, nil, next, diff.Compute(nil, next))
	f.Snapshot = next
	return dom
}

// stateUpdated re-renders from the committed root. Updates landing while a
// pass is in flight coalesce into exactly one follow-up pass.
func (r *Reconciler) stateUpdated() {
	if r.working {
		r.dirty = true
		return
	}
	if r.currentRoot == nil {
		return
	}
	r.wipRoot = &Fiber{
		Dom:       r.currentRoot.Dom,
		Props:     r.currentRoot.Props,
		Children:  r.currentRoot.Children,
		Alternate: r.currentRoot,
	}
	r.deletions = nil
	r.nextUnit = r.wipRoot
	r.schedule()
}

// reconcileChildren matches the pending vdom children against the
// alternate's fiber children: keyed children reuse by key with an edit
// script deciding moves, unkeyed children match by position and type.
// Unmatched old fibers become deletions.
func (r *Reconciler) reconcileChildren(wip *Fiber) {
	elements := wip.Children

	var oldFibers []*Fiber
	if wip.Alternate != nil {
		for o := wip.Alternate.Child; o != nil; o = o.Sibling {
			oldFibers = append(oldFibers, o)
		}
	}

	oldByKey := make(map[any]*Fiber)
	var currentKeys []any
	for _, o := range oldFibers {
		if o.Key != nil {
			oldByKey[o.Key] = o
			currentKeys = append(currentKeys, o.Key)
		}
	}
	var futureKeys []any
	for _, el := range elements {
		if el.Key != nil {
			futureKeys = append(futureKeys, el.Key)
		}
	}

	moveOps := make(map[any]Op)
	addOps := make(map[any]Op)
	if len(currentKeys) > 0 || len(futureKeys) > 0 {
		for _, op := range CreateOps(currentKeys, futureKeys) {
			switch op.Op {
			case OpMove:
				moveOps[op.Value] = op
			case OpAdd:
				addOps[op.Value] = op
			}
		}
	}

	used := make(map[*Fiber]bool)
	var prev *Fiber
	wip.Child = nil
	for i, el := range elements {
		var old *Fiber
		if el.Key != nil {
			old = oldByKey[el.Key]
		} else if i < len(oldFibers) && oldFibers[i].Key == nil {
			old = oldFibers[i]
		}

		var nf *Fiber
		if old != nil && sameType(old.Type, el.Type) {
			nf = &Fiber{
				Type:      old.Type,
				Props:     el.Props,
				Key:       el.Key,
				Text:      el.Text,
				Dom:       old.Dom,
				Snapshot:  old.Snapshot,
				Children:  el.Children,
				Parent:    wip,
				Alternate: old,
				EffectTag: Update,
			}
			used[old] = true
			if op, moved := moveOps[el.Key]; moved && el.Key != nil {
				nf.Move = true
				nf.AnchorKey = op.Anchor
				nf.HasAnchor = op.HasAnchor
			}
		} else {
			nf = &Fiber{
				Type:      el.Type,
				Props:     el.Props,
				Key:       el.Key,
				Text:      el.Text,
				Children:  el.Children,
				Parent:    wip,
				EffectTag: Placement,
			}
			if op, added := addOps[el.Key]; added && el.Key != nil {
				nf.AnchorKey = op.Anchor
				nf.HasAnchor = op.HasAnchor
			}
		}

		if prev == nil {
			wip.Child = nf
		} else {
			prev.Sibling = nf
		}
		prev = nf
	}

	for _, old := range oldFibers {
		if !used[old] {
			old.EffectTag = Deletion
			r.deletions = append(r.deletions, old)
		}
	}
}

// commitRoot applies the whole pass atomically: deletions first, then
// placements, moves and updates in tree order, then alternate pruning so
// fibers from two generations back are released, then the lifecycle pass
// over the committed tree.
func (r *Reconciler) commitRoot() {
	for _, d := range r.deletions {
		r.commitDeletion(d)
	}
	r.deletions = nil
	r.commitWork(r.wipRoot.Child)
	r.pruneAlternates(r.wipRoot)
	r.currentRoot = r.wipRoot
	r.wipRoot = nil
	r.commitLifecycle(r.currentRoot.Child)
}

func (r *Reconciler) commitWork(f *Fiber) {
	if f == nil {
		return
	}
	if f.Component != nil {
		switch f.EffectTag {
		case Placement, Update:
			f.hook = f.EffectTag
		}
	}
	switch f.EffectTag {
	case Placement:
		if f.Dom != nil {
			parentDom := r.parentDom(f)
			anchor := r.resolveAnchor(f)
			dom := f.Dom
			renderer.Guard(r.log, dom, "insert", func() {
				r.rend.Insert(dom, parentDom, anchor)
			})
		}
	case Update:
		if f.Dom != nil {
			r.updateNode(f)
			if f.Move {
				r.commitMove(f)
			}
		}
	}
	f.EffectTag = 0
	f.Move = false
	r.commitWork(f.Child)
	r.commitWork(f.Sibling)
}

func (r *Reconciler) updateNode(f *Fiber) {
	if f.Type == vdom.TextTag {
		if f.Alternate == nil || f.Alternate.Text != f.Text {
			dom := f.Dom
			renderer.Guard(r.log, dom, "setElementText", func() {
				r.rend.SetElementText(dom, f.Text)
			})
		}
		return
	}
	prev := f.Snapshot
	next := f.Props.Raw()
	if res := diff.Compute(prev, next); !res.Empty() {
		diff.Apply(r.rend, r.log, f.Dom, prev, next, res)
	}
	f.Snapshot = next
}

func (r *Reconciler) commitMove(f *Fiber) {
	parentDom := r.parentDom(f)
	anchor := r.resolveAnchor(f)
	dom := f.Dom
	renderer.Guard(r.log, dom, "move", func() {
		r.rend.Remove(dom, parentDom)
		r.rend.Insert(dom, parentDom, anchor)
	})
}

// lifecycleEntry queues a fiber for the post-commit hook pass together
// with its traversal direction.
type lifecycleEntry struct {
	fiber *Fiber
	up    bool
}

// commitLifecycle is the second pass over the committed tree: it fires the
// mounted/updated hooks recorded during commitWork. Entries carry a
// down/up flag; a fiber's hook only runs on the way up, so children's
// hooks run before their parent's and siblings run left to right.
func (r *Reconciler) commitLifecycle(f *Fiber) {
	var work []lifecycleEntry
	descend := func(first *Fiber) {
		var chain []*Fiber
		for s := first; s != nil; s = s.Sibling {
			chain = append(chain, s)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			work = append(work, lifecycleEntry{fiber: chain[i]})
		}
	}
	descend(f)
	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]
		if !e.up {
			work = append(work, lifecycleEntry{fiber: e.fiber, up: true})
			descend(e.fiber.Child)
			continue
		}
		hook := e.fiber.hook
		e.fiber.hook = 0
		if e.fiber.Component == nil {
			continue
		}
		switch hook {
		case Placement:
			e.fiber.Component.Mounted()
		case Update:
			e.fiber.Component.Updated()
		}
	}
}

func (r *Reconciler) commitDeletion(f *Fiber) {
	f.notifyBeforeUnmount()
	f.cancelWatchers()
	r.removeDom(f, r.parentDom(f))
}

func (r *Reconciler) removeDom(f *Fiber, parentDom any) {
	if f.Dom != nil {
		dom := f.Dom
		renderer.Guard(r.log, dom, "remove", func() {
			r.rend.Remove(dom, parentDom)
		})
		return
	}
	for child := f.Child; child != nil; child = child.Sibling {
		r.removeDom(child, parentDom)
	}
}

// pruneAlternates severs the links of the previous generation so deleted
// fibers and the generation before it become unreachable.
func (r *Reconciler) pruneAlternates(f *Fiber) {
	for ; f != nil; f = f.Sibling {
		if alt := f.Alternate; alt != nil {
			alt.Alternate = nil
			alt.Child = nil
			alt.Sibling = nil
			alt.Parent = nil
		}
		r.pruneAlternates(f.Child)
	}
}

func (r *Reconciler) parentDom(f *Fiber) any {
	for p := f.Parent; p != nil; p = p.Parent {
		if p.Dom != nil {
			return p.Dom
		}
	}
	return nil
}

// resolveAnchor maps a fiber's anchor key to the dom of the sibling it
// must precede.
func (r *Reconciler) resolveAnchor(f *Fiber) any {
	if !f.HasAnchor || f.AnchorKey == nil || f.Parent == nil {
		return nil
	}
	for s := f.Parent.Child; s != nil; s = s.Sibling {
		if s.Key == f.AnchorKey {
			return s.Dom
		}
	}
	return nil
}

func asRenderFn(t any) (RenderFn, bool) {
	switch fn := t.(type) {
	case RenderFn:
		return fn, true
	case func(*reactive.Map) *vdom.VNode:
		return fn, true
	default:
		return nil, false
	}
}

func sameType(a, b any) bool {
	ca, caok := a.(ComponentFn)
	cb, cbok := b.(ComponentFn)
	if caok || cbok {
		return caok && cbok &&
			reflect.ValueOf(ca).Pointer() == reflect.ValueOf(cb).Pointer()
	}
	fa, aok := asRenderFn(a)
	fb, bok := asRenderFn(b)
	if aok || bok {
		return aok && bok &&
			reflect.ValueOf(fa).Pointer() == reflect.ValueOf(fb).Pointer()
	}
	return a == b
}
