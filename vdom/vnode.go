// Package vdom holds the immutable-ish element descriptions produced by
// CreateElement and consumed by the reconcilers, plus the behavioral
// function-equivalence check used by the attribute/event diff.
package vdom

import (
	"fmt"

	"github.com/fork-tongue/kolla/reactive"
)

// TextTag marks a text node description.
const TextTag = "#text"

// SlotFn produces the content for a named slot.
type SlotFn func() []*VNode

// VNode describes a node to be rendered: a host tag (string) or a component
// type, reactive props, children, and an optional identity key.
type VNode struct {
	Type     any
	Props    *reactive.Map
	Children []*VNode
	Slots    map[string]SlotFn
	Key      any
	Text     string
}

// CreateElement builds an element description. The "key" prop is lifted out
// of props into the node's Key. Children collapse specially: a single slot
// map argument becomes the node's slot table, and a single SlotFn becomes
// the default slot. Any other child is coerced to a node (strings become
// text nodes).
func CreateElement(nodeType any, props map[string]any, children ...any) *VNode {
	var key any
	if props != nil {
		if k, ok := props["key"]; ok {
			key = k
			delete(props, "key")
		}
	}
	node := &VNode{
		Type:  nodeType,
		Props: reactive.NewMap(props),
		Key:   key,
	}
	if len(children) == 1 {
		switch c := children[0].(type) {
		case map[string]SlotFn:
			node.Slots = c
			return node
		case SlotFn:
			node.Slots = map[string]SlotFn{"default": c}
			return node
		case func() []*VNode:
			node.Slots = map[string]SlotFn{"default": c}
			return node
		}
	}
	for _, child := range children {
		node.Children = append(node.Children, toVNodes(child)...)
	}
	return node
}

// TextNode builds a text node description.
func TextNode(text string) *VNode {
	return &VNode{Type: TextTag, Props: reactive.NewMap(nil), Text: text}
}

func toVNodes(child any) []*VNode {
	switch c := child.(type) {
	case nil:
		return nil
	case *VNode:
		if c == nil {
			return nil
		}
		return []*VNode{c}
	case VNode:
		return []*VNode{&c}
	case string:
		return []*VNode{TextNode(c)}
	case []*VNode:
		return c
	case []any:
		var out []*VNode
		for _, item := range c {
			out = append(out, toVNodes(item)...)
		}
		return out
	default:
		return []*VNode{TextNode(fmt.Sprint(child))}
	}
}
