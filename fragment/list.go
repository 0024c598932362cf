package fragment

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// DuplicateKeyError is raised (as a panic) when a keyed list expression
// produces the same key more than once in one pass. It names the list
// fragment and every offending key, and fires before any native mutation,
// so the rendered tree is left exactly as it was.
type DuplicateKeyError struct {
	FragmentID string
	Keys       []any
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("list %s: duplicate keys in expression: %v", e.FragmentID, e.Keys)
}

// SetExpression sets the sequence the list renders. The expression is
// watched deeply, so both replacing the slice and mutating items in place
// trigger reconciliation.
func (f *Fragment) SetExpression(expr func() []any) {
	f.expression = expr
}

// SetCreateFragment sets the factory for per-item fragments. The factory
// receives the item context, a reactive map holding the current item under
// "item"; reused fragments see in-place updates through it.
func (f *Fragment) SetCreateFragment(fn func(ctx *reactive.Map) *Fragment) {
	f.makeItem = fn
}

// SetKey switches the list to keyed reconciliation using fn to derive each
// item's identity.
func (f *Fragment) SetKey(fn func(item any) any) {
	f.keyFn = fn
}

func (f *Fragment) mountList(target, anchor any) {
	f.target = target
	f.keyToFrag = linkedhashmap.New()
	initial := true
	f.watchers["list"] = reactive.Watch(func() any {
		if f.expression == nil {
			return []any(nil)
		}
		return f.expression()
	}, func(newVal, _ any) {
		items, _ := newVal.([]any)
		var at any
		if initial {
			at = anchor
		} else {
			at = f.Anchor()
		}
		if f.keyFn != nil {
			f.reconcileKeyed(items, at)
		} else {
			f.reconcileUnkeyed(items, at)
		}
	}, reactive.WithImmediate(), reactive.WithDeep())
	initial = false
	f.mounted = true
}

func (f *Fragment) newItemFragment(item any) *Fragment {
	ctx := reactive.NewMap(map[string]any{"item": item})
	frag := f.makeItem(ctx)
	frag.parent = f
	frag.log = f.log
	frag.itemCtx = ctx
	return frag
}

// reconcileKeyed reuses fragments by item key: removed keys unmount first,
// surviving fragments are updated through their item context, new keys get
// fresh fragments, and a reverse-order pass mounts or moves everything into
// place. Moves are skipped when the renderer can report that a fragment
// already sits before its computed anchor.
func (f *Fragment) reconcileKeyed(items []any, listAnchor any) {
	keys := make([]any, len(items))
	seen := make(map[any]struct{}, len(items))
	var dups []any
	for i, item := range items {
		key := f.keyFn(item)
		if _, dup := seen[key]; dup {
			dups = append(dups, key)
		}
		seen[key] = struct{}{}
		keys[i] = key
	}
	if len(dups) > 0 {
		panic(DuplicateKeyError{FragmentID: f.id, Keys: dups})
	}

	// Drop fragments whose key disappeared before touching anything else.
	for _, key := range f.keyToFrag.Keys() {
		if _, ok := seen[key]; ok {
			continue
		}
		if frag, found := f.keyToFrag.Get(key); found {
			frag.(*Fragment).Unmount(true)
		}
		f.keyToFrag.Remove(key)
	}

	next := linkedhashmap.New()
	children := make([]*Fragment, len(items))
	for i, item := range items {
		if existing, found := f.keyToFrag.Get(keys[i]); found {
			frag := existing.(*Fragment)
			frag.itemCtx.Set("item", item)
			children[i] = frag
		} else {
			children[i] = f.newItemFragment(item)
		}
		next.Put(keys[i], children[i])
	}
	f.keyToFrag = next
	f.children = children

	sibling, _ := f.rend.(renderer.SiblingReader)
	at := listAnchor
	for i := len(children) - 1; i >= 0; i-- {
		frag := children[i]
		if !frag.mounted {
			frag.Mount(f.target, at)
		} else if el := frag.First(); el != nil {
			inPlace := false
			if sibling != nil {
				inPlace = sibling.NextSibling(el, f.target) == at
			}
			if !inPlace {
				f.moveFragment(frag, at)
			}
		}
		if el := frag.First(); el != nil {
			at = el
		}
	}
}

// moveFragment reinserts the fragment's top-level elements before anchor.
func (f *Fragment) moveFragment(frag *Fragment, anchor any) {
	roots := frag.rootElements()
	for i := len(roots) - 1; i >= 0; i-- {
		el := roots[i]
		renderer.Guard(f.oplog(), el, "move", func() {
			f.rend.Remove(el, f.target)
			f.rend.Insert(el, f.target, anchor)
		})
		anchor = el
	}
}

// rootElements returns the fragment's top-level native elements, in
// document order.
func (f *Fragment) rootElements() []any {
	if f.element != nil {
		return []any{f.element}
	}
	var roots []any
	for _, child := range f.RenderChildren() {
		roots = append(roots, child.rootElements()...)
	}
	return roots
}

// reconcileUnkeyed matches fragments by position: the shared prefix is
// updated in place, surplus positions unmount, missing positions get fresh
// fragments appended at the end.
func (f *Fragment) reconcileUnkeyed(items []any, listAnchor any) {
	shared := len(items)
	if len(f.children) < shared {
		shared = len(f.children)
	}
	for i := 0; i < shared; i++ {
		f.children[i].itemCtx.Set("item", items[i])
	}
	for i := shared; i < len(f.children); i++ {
		f.children[i].Unmount(true)
	}
	f.children = f.children[:shared]
	for i := shared; i < len(items); i++ {
		frag := f.newItemFragment(items[i])
		f.children = append(f.children, frag)
		frag.Mount(f.target, listAnchor)
	}
}
