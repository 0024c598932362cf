// Package component provides the base type user components embed. Base
// satisfies everything of fragment.Component except Render, which the
// embedding type supplies.
package component

import (
	"reflect"

	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/util"
)

// Base carries the standard component plumbing: reactive props and state,
// element and parent references, event handlers, refs, and provide/inject.
type Base struct {
	props    *reactive.Map
	state    *reactive.Map
	element  any
	parent   fragment.Component
	handlers map[string][]any
	refs     map[string]any
	provided map[string]any
}

var _ fragment.Initializer = (*Base)(nil)

// Init wires the engine-supplied props and parent. Constructors call it
// right after allocating the component.
func (b *Base) Init(props *reactive.Map, parent fragment.Component) {
	if props == nil {
		props = reactive.NewMap(nil)
	}
	b.props = props
	b.state = reactive.NewMap(nil)
	b.parent = parent
}

// Props returns the reactive props passed by the parent.
func (b *Base) Props() *reactive.Map {
	if b.props == nil {
		b.props = reactive.NewMap(nil)
	}
	return b.props
}

// State returns the component's own reactive state.
func (b *Base) State() *reactive.Map {
	if b.state == nil {
		b.state = reactive.NewMap(nil)
	}
	return b.state
}

// Element returns the first native element of the rendered subtree.
func (b *Base) Element() any { return b.element }

// SetElement records the component's first native element.
func (b *Base) SetElement(el any) { b.element = el }

// Parent returns the enclosing component.
func (b *Base) Parent() fragment.Component { return b.parent }

// Mounted is a default no-op lifecycle hook.
func (b *Base) Mounted() {}

// Updated is a default no-op lifecycle hook.
func (b *Base) Updated() {}

// BeforeUnmount is a default no-op lifecycle hook.
func (b *Base) BeforeUnmount() {}

// Emit invokes the handlers registered for event, in registration order.
func (b *Base) Emit(event string, args ...any) {
	for _, handler := range b.handlers[event] {
		callHandler(handler, args...)
	}
}

// AddEventHandler registers a handler for event.
func (b *Base) AddEventHandler(event string, handler any) {
	if b.handlers == nil {
		b.handlers = make(map[string][]any)
	}
	b.handlers[event] = append(b.handlers[event], handler)
}

// RemoveEventHandler removes a previously registered handler, matched by
// code pointer for bare funcs and by identity otherwise.
func (b *Base) RemoveEventHandler(event string, handler any) {
	handlers := b.handlers[event]
	for i, h := range handlers {
		if sameHandler(h, handler) {
			b.handlers[event] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

// SetRef publishes a named element reference; nil clears it.
func (b *Base) SetRef(name string, el any) {
	if b.refs == nil {
		b.refs = make(map[string]any)
	}
	if el == nil {
		delete(b.refs, name)
		return
	}
	b.refs[name] = el
}

// Refs returns the published element references.
func (b *Base) Refs() map[string]any {
	if b.refs == nil {
		b.refs = make(map[string]any)
	}
	return b.refs
}

// Provide makes a value available to descendant components through Inject.
func (b *Base) Provide(key string, value any) {
	if b.provided == nil {
		b.provided = make(map[string]any)
	}
	b.provided[key] = value
}

// Provided reports the value this component itself provides under key.
func (b *Base) Provided(key string) (any, bool) {
	v, ok := b.provided[key]
	return v, ok
}

// Inject walks the component chain upwards, starting at this component,
// and returns the nearest provided value for key, or nil.
func (b *Base) Inject(key string) any {
	if v, ok := b.Provided(key); ok {
		return v
	}
	parent := b.parent
	for parent != nil {
		if v, ok := parent.Provided(key); ok {
			return v
		}
		parent = parent.Parent()
	}
	return nil
}

// DecodeProps decodes the current props snapshot into a typed struct,
// matching fields by json tag with weak type conversion.
func (b *Base) DecodeProps(target any) error {
	return util.MapToStruct(b.Props().Raw(), target)
}

func callHandler(handler any, args ...any) {
	if inv, ok := handler.(interface{ Invoke(extra ...any) }); ok {
		inv.Invoke(args...)
		return
	}
	switch h := handler.(type) {
	case func(...any):
		h(args...)
	case func():
		h()
	default:
		rval := reflect.ValueOf(handler)
		if rval.Kind() != reflect.Func {
			return
		}
		in := make([]reflect.Value, 0, len(args))
		for i := 0; i < rval.Type().NumIn() && i < len(args); i++ {
			in = append(in, reflect.ValueOf(args[i]))
		}
		rval.Call(in)
	}
}

func sameHandler(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() == reflect.Func && rb.Kind() == reflect.Func {
		return ra.Pointer() == rb.Pointer()
	}
	return a == b
}
