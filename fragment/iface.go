package fragment

import (
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// Component is a stateful unit of UI. Render builds the component's fragment
// subtree; the lifecycle hooks fire around its presence in the render tree.
type Component interface {
	// Render builds the component's template. It is called exactly once
	// per component instance.
	Render(rend renderer.Renderer) *Fragment

	// Mounted fires after the component's subtree is in the native tree.
	Mounted()
	// Updated fires after a reactive change touched one of the
	// component's rendered elements.
	Updated()
	// BeforeUnmount fires before the component's subtree is removed.
	BeforeUnmount()

	// Props returns the reactive props passed by the parent.
	Props() *reactive.Map
	// State returns the component's own reactive state.
	State() *reactive.Map

	// Element returns the first native element of the rendered subtree.
	Element() any
	// SetElement is called by the engine after mounting.
	SetElement(el any)

	// Parent returns the enclosing component, or nil at the root.
	Parent() Component

	// Emit invokes handlers registered for event on this component.
	Emit(event string, args ...any)
	// AddEventHandler registers a handler for event.
	AddEventHandler(event string, handler any)
	// RemoveEventHandler removes a previously registered handler.
	RemoveEventHandler(event string, handler any)

	// SetRef publishes (or clears, with nil) a named element reference.
	SetRef(name string, el any)
	// Refs returns the published element references.
	Refs() map[string]any

	// Provide makes a value available to descendant components.
	Provide(key string, value any)
	// Inject looks a provided value up the component chain.
	Inject(key string) any
	// Provided reports the value provided under key by this component
	// itself, without walking the chain.
	Provided(key string) (any, bool)
}

// Initializer is implemented by components that accept engine wiring after
// construction.
type Initializer interface {
	Init(props *reactive.Map, parent Component)
}

// Constructor creates a component instance for a usage site.
type Constructor func(props *reactive.Map, parent Component) Component
