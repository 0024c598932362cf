// Package fragment implements the retained-mode reconciliation engine: a
// mutable tree of fragments wrapping renderer-native objects. Each fragment
// participates in two trees at once: the template tree (static structure
// fixed at construction, including inactive branches) and the render tree
// (the subset currently mounted). The closed set of fragment kinds is
// dispatched with per-operation switches.
package fragment

import (
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// TextTag marks a fragment that renders a native text element. Its text is
// driven through the "text" attribute (static or bound).
const TextTag = "#text"

// TemplateTag marks a virtual wrapper: the fragment itself produces no
// native element; its children are inserted directly into the nearest real
// ancestor container.
const TemplateTag = "template"

// DefaultSlot is the slot name used for caller content without an explicit
// slot assignment.
const DefaultSlot = "default"

// Kind discriminates the closed set of fragment variants.
type Kind int

const (
	// Plain wraps zero or one native element plus child fragments.
	Plain Kind = iota
	// ControlFlow holds if/else-if/else branches as template children and
	// keeps at most one of them mounted.
	ControlFlow
	// List generates one fragment per item of a bound sequence, reconciled
	// either by key or by position.
	List
	// Comp is a component fragment: a usage site when its tag is a
	// Constructor, or a render wrapper (tag nil) at the root of a
	// component's own render output.
	Comp
	// Slot resolves caller-supplied content from the nearest enclosing
	// usage site, falling back to its own template children.
	Slot
	// Dynamic switches its single active fragment between component and
	// plain element shapes based on a reactive tag expression.
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case ControlFlow:
		return "control-flow"
	case List:
		return "list"
	case Comp:
		return "component"
	case Slot:
		return "slot"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

type bind struct {
	name     string
	expr     func() any
	singular bool
}

// Fragment is a node in the dual template/render tree. Parent and
// renderParent are non-owning back references used only for anchor and
// component lookups; ownership cascades strictly downward.
type Fragment struct {
	kind Kind
	id   string
	// tag is a host tag string, a component Constructor, or nil for
	// virtual wrappers.
	tag  any
	rend renderer.Renderer
	log  logr.Logger

	element any
	target  any

	parent       *Fragment
	renderParent *Fragment

	// children is the template tree for most kinds; for List it holds the
	// generated per-item fragments instead.
	children []*Fragment

	attributes map[string]any
	events     map[string]any
	binds      []bind
	watchers   map[string]reactive.Unwatch
	condition  func() bool

	slotName string
	refName  string
	refExpr  func() string

	mounted bool

	// List
	expression func() []any
	makeItem   func(ctx *reactive.Map) *Fragment
	keyFn      func(item any) any
	keyToFrag  *linkedhashmap.Map
	itemCtx    *reactive.Map

	// Comp
	component    Component
	rendered     *Fragment
	props        *reactive.Map
	slotContents []*Fragment

	// Slot
	name     string
	resolved []*Fragment

	// Dynamic / ControlFlow active fragment
	typeExpr func() any
	active   *Fragment
}

func newFragment(kind Kind, rend renderer.Renderer, tag any, parent *Fragment) *Fragment {
	f := &Fragment{
		kind:       kind,
		id:         uuid.New().String(),
		tag:        tag,
		rend:       rend,
		log:        logr.Discard(),
		attributes: make(map[string]any),
		events:     make(map[string]any),
		watchers:   make(map[string]reactive.Unwatch),
	}
	if parent != nil {
		f.log = parent.log
		parent.registerChild(f)
		f.parent = parent
	}
	return f
}

// New creates a plain fragment for a host tag. A TemplateTag (or empty) tag
// yields a virtual wrapper.
func New(rend renderer.Renderer, tag string, parent *Fragment) *Fragment {
	var t any
	if tag != "" {
		t = tag
	}
	return newFragment(Plain, rend, t, parent)
}

// NewText creates a text fragment with static content.
func NewText(rend renderer.Renderer, text string, parent *Fragment) *Fragment {
	f := newFragment(Plain, rend, TextTag, parent)
	f.SetAttribute("text", text)
	return f
}

// NewControlFlow creates an if/else-if/else fragment. Branches are its
// template children; branches carrying a condition are if/else-if arms, a
// branch without one is the else arm.
func NewControlFlow(rend renderer.Renderer, parent *Fragment) *Fragment {
	return newFragment(ControlFlow, rend, nil, parent)
}

// NewList creates a list fragment. Configure it with SetExpression and
// SetCreateFragment before mounting.
func NewList(rend renderer.Renderer, parent *Fragment) *Fragment {
	return newFragment(List, rend, nil, parent)
}

// NewComponent creates a usage-site component fragment.
func NewComponent(rend renderer.Renderer, ctor Constructor, parent *Fragment) *Fragment {
	return newFragment(Comp, rend, ctor, parent)
}

// NewWrapper creates a render-wrapper component fragment: the virtual root
// of a component's own render output.
func NewWrapper(rend renderer.Renderer, parent *Fragment) *Fragment {
	return newFragment(Comp, rend, nil, parent)
}

// NewSlot creates a slot outlet for the given name. Its template children
// serve as default content.
func NewSlot(rend renderer.Renderer, name string, parent *Fragment) *Fragment {
	if name == "" {
		name = DefaultSlot
	}
	f := newFragment(Slot, rend, nil, parent)
	f.name = name
	return f
}

// NewDynamic creates a dynamic fragment whose tag is resolved from expr on
// every mount and watched for changes afterwards.
func NewDynamic(rend renderer.Renderer, expr func() any, parent *Fragment) *Fragment {
	f := newFragment(Dynamic, rend, nil, parent)
	f.typeExpr = expr
	return f
}

// ID returns the fragment's unique id.
func (f *Fragment) ID() string { return f.id }

// Kind returns the fragment's variant.
func (f *Fragment) Kind() Kind { return f.kind }

// Tag returns the host tag string, or "" for virtual and component
// fragments.
func (f *Fragment) Tag() string {
	tag, _ := f.tag.(string)
	return tag
}

// Element returns the native element, or nil for virtual fragments.
func (f *Fragment) Element() any { return f.element }

// Mounted reports whether the fragment is currently part of the render tree.
func (f *Fragment) Mounted() bool { return f.mounted }

// Parent returns the template parent.
func (f *Fragment) Parent() *Fragment { return f.parent }

// SetLogger sets the log side channel used for renderer-level failures.
// Child fragments created afterwards inherit it.
func (f *Fragment) SetLogger(log logr.Logger) { f.log = log }

// oplog returns the side-channel logger tagged with this fragment's id,
// so suppressed renderer failures can be traced back to their fragment.
func (f *Fragment) oplog() logr.Logger {
	return f.log.WithValues("fragment", f.id)
}

func (f *Fragment) registerChild(child *Fragment) {
	if f.kind == Comp && f.tag != nil {
		// Usage site: declared children are slot content for the
		// component's own template.
		f.slotContents = append(f.slotContents, child)
		return
	}
	f.children = append(f.children, child)
}

// SetAttribute sets a static attribute. It is not applied directly; that
// happens on create.
func (f *Fragment) SetAttribute(attr string, value any) {
	if f.kind == Slot && attr == "name" {
		// name is reserved on slots
		return
	}
	f.attributes[attr] = value
}

// SetBind registers a dynamic attribute driven by expr. Applied on create.
func (f *Fragment) SetBind(attr string, expr func() any) {
	f.binds = append(f.binds, bind{name: attr, expr: expr, singular: true})
}

// SetBindDict registers a dynamic attribute group: the keys of the map
// produced by expr each become a bound attribute, added and removed as the
// key set changes. The name discerns multiple bound dicts on one fragment.
func (f *Fragment) SetBindDict(name string, expr func() map[string]any) {
	f.binds = append(f.binds, bind{name: name, expr: func() any { return expr() }, singular: false})
}

// SetCondition marks this fragment as a conditional branch. Only a
// ControlFlow parent consults it.
func (f *Fragment) SetCondition(expr func() bool) {
	f.condition = expr
}

// SetEvent sets a handler for an event type.
func (f *Fragment) SetEvent(event string, handler any) {
	f.events[event] = handler
}

// SetSlotName routes this fragment, when passed as component child content,
// into the named slot of the component's template.
func (f *Fragment) SetSlotName(name string) {
	f.slotName = name
}

// SetRef publishes the fragment's element under the given name in the
// owning component's refs on mount.
func (f *Fragment) SetRef(name string) {
	f.refName = name
}

// SetDynamicRef is like SetRef with the name evaluated at mount time.
func (f *Fragment) SetDynamicRef(expr func() string) {
	f.refExpr = expr
}

// First returns the first concrete native element rendered by this fragment
// or its currently mounted descendants. Virtual fragments recurse into
// their render children.
func (f *Fragment) First() any {
	if f.element != nil {
		return f.element
	}
	for _, child := range f.RenderChildren() {
		if el := child.First(); el != nil {
			return el
		}
	}
	return nil
}

// RenderChildren returns the currently mounted subset of the tree below
// this fragment, polymorphic per kind.
func (f *Fragment) RenderChildren() []*Fragment {
	switch f.kind {
	case ControlFlow, Dynamic:
		if f.active != nil {
			return []*Fragment{f.active}
		}
		return nil
	case Comp:
		if f.rendered != nil {
			return []*Fragment{f.rendered}
		}
		return f.children
	case Slot:
		if f.resolved != nil {
			return f.resolved
		}
		return f.children
	default:
		return f.children
	}
}

func (f *Fragment) anchorParent() *Fragment {
	if f.renderParent != nil {
		return f.renderParent
	}
	return f.parent
}

// Anchor resolves the native element before which a sibling of this
// fragment must be inserted; nil means append at end. The walk covers
// subsequent render siblings first, then climbs through virtual parents,
// stopping when climbing would escape the subtree this fragment is mounted
// into (except through slots, whose first element may legitimately be the
// fragment's own container).
func (f *Fragment) Anchor() any {
	parent := f.anchorParent()
	if parent == nil {
		return nil
	}
	siblings := parent.RenderChildren()
	idx := -1
	for i, sibling := range siblings {
		if sibling == f {
			idx = i
			break
		}
	}
	if idx >= 0 {
		for i := idx + 1; i < len(siblings); i++ {
			if el := siblings[i].First(); el != nil {
				return el
			}
		}
	}
	if parent.element == nil && parent.anchorParent() != nil {
		if parent.kind != Slot && parent.First() == f.target && f.target != nil {
			return nil
		}
		return parent.Anchor()
	}
	return nil
}

// Mount inserts the fragment (and its render subtree) into target before
// anchor. Mounting an already mounted fragment is a no-op.
func (f *Fragment) Mount(target, anchor any) {
	if f.mounted {
		return
	}
	switch f.kind {
	case ControlFlow:
		f.mountControlFlow(target, anchor)
	case List:
		f.mountList(target, anchor)
	case Comp:
		f.mountComponent(target, anchor)
	case Slot:
		f.mountSlot(target, anchor)
	case Dynamic:
		f.mountDynamic(target, anchor)
	default:
		f.mountPlain(target, anchor)
	}
}

func (f *Fragment) mountPlain(target, anchor any) {
	f.target = target
	f.create()
	if f.element != nil {
		el := f.element
		renderer.Guard(f.oplog(), el, "insert", func() {
			f.rend.Insert(el, target, anchor)
		})
		f.registerRef()
		for _, child := range f.children {
			child.Mount(el, nil)
		}
	} else {
		// Virtual wrapper: children belong at this fragment's own
		// position in the parent container.
		for _, child := range f.children {
			child.Mount(target, anchor)
		}
	}
	f.mounted = true
}

// create builds the native element (when the tag is concrete), applies
// static attributes and event listeners, and installs bind watchers.
func (f *Fragment) create() {
	if f.kind == Comp {
		f.createComponent()
		return
	}
	tag, ok := f.tag.(string)
	if !ok || tag == TemplateTag {
		return
	}
	if tag == TextTag {
		f.element = f.rend.CreateTextElement()
	} else {
		f.element = f.rend.CreateElement(tag)
	}
	el := f.element
	for _, attr := range sortedAttrKeys(f.attributes) {
		f.applyAttribute(attr, f.attributes[attr])
	}
	for _, event := range sortedEventKeys(f.events) {
		event := event
		handler := f.events[event]
		renderer.Guard(f.oplog(), el, "addEventListener", func() {
			f.rend.AddEventListener(el, event, handler)
		})
	}
	f.installBinds()
}

func (f *Fragment) installBinds() {
	for _, b := range f.binds {
		if b.singular {
			f.watchBind(b.name, b.expr)
		} else {
			f.watchBindDict(b.name, b.expr)
		}
	}
}

func (f *Fragment) watchBind(attr string, expr func() any) {
	f.watchers["bind:"+attr] = reactive.Watch(expr, func(newVal, _ any) {
		f.setAttr(attr, newVal)
	}, reactive.WithImmediate(), reactive.WithDeep())
}

func (f *Fragment) watchBindDict(name string, expr func() any) {
	keySet := func() any {
		m, _ := expr().(map[string]any)
		keys := make(map[string]struct{}, len(m))
		for k := range m {
			keys[k] = struct{}{}
		}
		return keys
	}
	update := func(newVal, oldVal any) {
		newKeys, _ := newVal.(map[string]struct{})
		oldKeys, _ := oldVal.(map[string]struct{})
		added := make([]string, 0)
		for k := range newKeys {
			if _, ok := oldKeys[k]; !ok {
				added = append(added, k)
			}
		}
		sort.Strings(added)
		for _, attr := range added {
			attr := attr
			f.watchBind(attr, func() any {
				m, _ := expr().(map[string]any)
				return m[attr]
			})
		}
		for k := range oldKeys {
			if _, ok := newKeys[k]; ok {
				continue
			}
			if unwatch, ok := f.watchers["bind:"+k]; ok {
				unwatch()
				delete(f.watchers, "bind:"+k)
				f.remAttr(k)
			}
		}
	}
	f.watchers["bind_dict:"+name] = reactive.Watch(keySet, update,
		reactive.WithImmediate(), reactive.WithDeep())
}

// setAttr routes a (re)computed attribute value to the right place per
// kind: component props, the active dynamic fragment, or the native
// element.
func (f *Fragment) setAttr(attr string, value any) {
	switch f.kind {
	case Comp:
		if f.props != nil {
			f.props.Set(attr, value)
		}
	case Dynamic:
		f.attributes[attr] = value
		if f.active != nil {
			f.active.setAttr(attr, value)
		}
	default:
		if f.element == nil {
			return
		}
		f.applyAttribute(attr, value)
		if f.mounted {
			if c := f.componentParent(); c != nil {
				c.Updated()
			}
		}
	}
}

func (f *Fragment) remAttr(attr string) {
	switch f.kind {
	case Comp:
		if f.props != nil {
			f.props.Delete(attr)
		}
	case Dynamic:
		delete(f.attributes, attr)
		if f.active != nil {
			f.active.remAttr(attr)
		}
	default:
		if f.element == nil {
			return
		}
		el := f.element
		renderer.Guard(f.oplog(), el, "removeAttribute", func() {
			f.rend.RemoveAttribute(el, attr, nil)
		})
		if f.mounted {
			if c := f.componentParent(); c != nil {
				c.Updated()
			}
		}
	}
}

func (f *Fragment) applyAttribute(attr string, value any) {
	el := f.element
	if el == nil {
		return
	}
	if f.tag == TextTag && attr == "text" {
		text, _ := value.(string)
		renderer.Guard(f.oplog(), el, "setElementText", func() {
			f.rend.SetElementText(el, text)
		})
		return
	}
	renderer.Guard(f.oplog(), el, "setAttribute", func() {
		f.rend.SetAttribute(el, attr, value)
	})
}

// componentParent returns the component instance of the nearest ancestor
// component fragment that carries one.
func (f *Fragment) componentParent() Component {
	parent := f.parent
	for parent != nil {
		if parent.kind == Comp && parent.component != nil {
			return parent.component
		}
		parent = parent.parent
	}
	return nil
}

func (f *Fragment) registerRef() {
	if f.refName == "" && f.refExpr == nil {
		return
	}
	name := f.refName
	if f.refExpr != nil {
		name = f.refExpr()
	}
	if name == "" || f.element == nil {
		return
	}
	if c := f.componentParent(); c != nil {
		c.SetRef(name, f.element)
	}
}

func (f *Fragment) unregisterRef() {
	if f.refName == "" && f.refExpr == nil {
		return
	}
	name := f.refName
	if f.refExpr != nil {
		name = f.refExpr()
	}
	if name == "" {
		return
	}
	if c := f.componentParent(); c != nil {
		c.SetRef(name, nil)
	}
}

func (f *Fragment) removeElement() {
	if f.element == nil {
		return
	}
	el, target := f.element, f.target
	renderer.Guard(f.oplog(), el, "remove", func() {
		f.rend.Remove(el, target)
	})
	f.element = nil
}

// Unmount removes the fragment's render subtree from the native tree.
// With destroy=false the template structure (attributes, events, binds,
// conditions) is kept so the fragment can be mounted again; watchers are
// detached either way. With destroy=true the fragment is dismantled for
// good.
func (f *Fragment) Unmount(destroy bool) {
	if !f.mounted {
		if destroy {
			f.destroyState()
		}
		return
	}
	f.mounted = false

	switch f.kind {
	case Comp:
		f.unmountComponent(destroy)
	case Slot:
		f.unmountSlot(destroy)
	case Dynamic:
		f.unmountDynamic(destroy)
	default:
		for _, child := range f.children {
			child.Unmount(destroy)
		}
	}

	f.unregisterRef()
	f.removeElement()
	f.detachWatchers()

	if destroy {
		f.destroyState()
	}

	if f.kind == List {
		// Generated fragments are rebuilt from scratch on remount.
		f.children = nil
		f.keyToFrag = nil
	}
	if f.kind == ControlFlow {
		f.active = nil
	}
}

func (f *Fragment) detachWatchers() {
	for _, unwatch := range f.watchers {
		unwatch()
	}
	f.watchers = make(map[string]reactive.Unwatch)
}

func (f *Fragment) destroyState() {
	f.element = nil
	f.target = nil
	f.attributes = make(map[string]any)
	f.events = make(map[string]any)
	f.condition = nil
	f.detachWatchers()
}

func sortedAttrKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedEventKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
