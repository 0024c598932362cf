package fragment

import (
	"github.com/fork-tongue/kolla/reactive"
)

// mountDynamic installs the tag watcher and activates the initial shape.
// The watcher re-activates on every tag change; attributes, binds and
// events live on the dynamic fragment itself and are forwarded to whatever
// shape is currently active.
func (f *Fragment) mountDynamic(target, anchor any) {
	f.target = target
	f.installBinds()
	initial := true
	f.watchers["dynamic"] = reactive.Watch(func() any {
		if f.typeExpr == nil {
			return nil
		}
		return f.typeExpr()
	}, func(newVal, _ any) {
		var at any
		if initial {
			at = anchor
		} else {
			at = f.Anchor()
		}
		f.activateTag(newVal, at)
	}, reactive.WithImmediate())
	initial = false
	f.mounted = true
}

// activateTag swaps the active fragment to the shape named by tag: a
// Constructor yields a component usage site, a string a plain element.
// Declared children carry over between shapes, becoming default slot
// content in component mode.
func (f *Fragment) activateTag(tag any, anchor any) {
	old := f.active
	if old != nil {
		// Children must be released from the old shape before they can
		// be carried over, so unmount precedes the transfer.
		old.Unmount(false)
		f.active = nil
	}

	var kids []*Fragment
	switch {
	case old != nil && old.kind == Comp:
		kids = old.slotContents
		old.slotContents = nil
	case old != nil:
		kids = old.children
		old.children = nil
	default:
		kids = f.children
		f.children = nil
	}

	var next *Fragment
	switch t := tag.(type) {
	case Constructor:
		next = NewComponent(f.rend, t, nil)
	case string:
		if t != "" {
			next = New(f.rend, t, nil)
		}
	}
	if next == nil {
		return
	}
	next.parent = f
	next.log = f.log
	for k, v := range f.attributes {
		next.SetAttribute(k, v)
	}
	for event, handler := range f.events {
		next.SetEvent(event, handler)
	}
	for _, kid := range kids {
		kid.parent = next
		next.registerChild(kid)
	}

	f.active = next
	next.Mount(f.target, anchor)
}

func (f *Fragment) unmountDynamic(destroy bool) {
	if f.active == nil {
		return
	}
	if destroy {
		f.active.Unmount(true)
		f.active = nil
		return
	}
	// Keep the active fragment as the carrier of the transferred children
	// so a later mount can pick them back up.
	f.active.Unmount(false)
}
