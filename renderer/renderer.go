// Package renderer defines the small capability surface a native backend
// must implement for the reconciliation engine to drive it, plus the
// map-backed DictRenderer used for testing and headless rendering.
package renderer

import (
	"strings"
)

// Renderer is the capability interface implemented per backend. Native
// nodes are opaque to the engine; nil anchors mean "append at end".
type Renderer interface {
	CreateElement(tag string) any
	CreateTextElement() any
	Insert(node, parent, anchor any)
	Remove(node, parent any)
	SetElementText(node any, text string)
	SetAttribute(node any, key string, value any)
	RemoveAttribute(node any, key string, previous any)
	AddEventListener(node any, eventType string, handler any)
	RemoveEventListener(node any, eventType string, handler any)
}

// SiblingReader is an optional Renderer extension. Backends that can report
// the current next sibling of a node let the keyed-list reconciler skip DOM
// moves for nodes already in position; without it the reconciler always
// reinserts at the computed anchor.
type SiblingReader interface {
	NextSibling(node, parent any) any
}

// NotificationBlocker is an optional native-node extension. Nodes that need
// their change notifications suspended while the engine mutates them return
// a release func which the engine guarantees to call on every exit path.
type NotificationBlocker interface {
	BlockNotifications() (release func())
}

const eventPrefix = "on"

// IsEventProp reports whether a prop key names an event handler
// (the "on" prefix convention, e.g. onClick).
func IsEventProp(key string) bool {
	return len(key) > len(eventPrefix) && strings.HasPrefix(key, eventPrefix)
}

// EventType derives the native event type from a handler prop key:
// onClick -> click.
func EventType(key string) string {
	return strings.ToLower(key[len(eventPrefix):])
}
