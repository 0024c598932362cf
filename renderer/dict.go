package renderer

import (
	"reflect"
)

// TextElementType is the node type DictRenderer uses for text elements.
const TextElementType = "TEXT_ELEMENT"

// DictNode is the native node of the DictRenderer backend: a plain struct
// tree that tests (and headless tools) can inspect directly.
type DictNode struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Attrs    map[string]any   `json:"attrs,omitempty"`
	Children []*DictNode      `json:"children,omitempty"`
	Handlers map[string][]any `json:"-"`
}

// ChildNames returns the given attribute of each child, in document order.
// Convenience for assertions on sibling ordering.
func (n *DictNode) ChildNames(attr string) []string {
	names := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		if v, ok := child.Attrs[attr].(string); ok {
			names = append(names, v)
		}
	}
	return names
}

// Emit invokes the handlers registered for an event type.
func (n *DictNode) Emit(eventType string, args ...any) {
	for _, handler := range n.Handlers[eventType] {
		callHandler(handler, args...)
	}
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

// DictRenderer renders into DictNode trees. It implements SiblingReader so
// the keyed-list reconciler can skip moves for nodes already in position.
type DictRenderer struct{}

var _ Renderer = DictRenderer{}
var _ SiblingReader = DictRenderer{}

func (DictRenderer) CreateElement(tag string) any {
	return &DictNode{Type: tag}
}

func (DictRenderer) CreateTextElement() any {
	return &DictNode{Type: TextElementType}
}

func (DictRenderer) Insert(node, parent, anchor any) {
	p := parent.(*DictNode)
	n := node.(*DictNode)
	idx := len(p.Children)
	if anchor != nil {
		for i, child := range p.Children {
			if child == anchor {
				idx = i
				break
			}
		}
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = n
}

func (DictRenderer) Remove(node, parent any) {
	p := parent.(*DictNode)
	for i, child := range p.Children {
		if child == node {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return
		}
	}
}

func (DictRenderer) SetElementText(node any, text string) {
	node.(*DictNode).Text = text
}

func (DictRenderer) SetAttribute(node any, key string, value any) {
	n := node.(*DictNode)
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
}

func (DictRenderer) RemoveAttribute(node any, key string, previous any) {
	n := node.(*DictNode)
	delete(n.Attrs, key)
}

func (DictRenderer) AddEventListener(node any, eventType string, handler any) {
	n := node.(*DictNode)
	if n.Handlers == nil {
		n.Handlers = make(map[string][]any)
	}
	n.Handlers[eventType] = append(n.Handlers[eventType], handler)
}

func (DictRenderer) RemoveEventListener(node any, eventType string, handler any) {
	n := node.(*DictNode)
	handlers := n.Handlers[eventType]
	for i, h := range handlers {
		if sameHandler(h, handler) {
			n.Handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

func (DictRenderer) NextSibling(node, parent any) any {
	p := parent.(*DictNode)
	for i, child := range p.Children {
		if child == node {
			if i+1 < len(p.Children) {
				return p.Children[i+1]
			}
			return nil
		}
	}
	return nil
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
