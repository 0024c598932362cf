// Package diff compares two prop snapshots and computes the native-object
// mutations needed to move from one to the other: event listeners to remove
// and add, attributes to remove and update.
package diff

import (
	"sort"

	"github.com/go-logr/logr"

	"github.com/fork-tongue/kolla/renderer"
	"github.com/fork-tongue/kolla/util"
	"github.com/fork-tongue/kolla/vdom"
)

// KV is an ordered attribute update.
type KV struct {
	Key   string
	Value any
}

// Result is the edit set between two prop snapshots. Slices are sorted by
// key so native-object method dispatch ordering is deterministic.
type Result struct {
	RemovedEvents []string
	RemovedAttrs  []string
	UpdatedAttrs  []KV
	AddedEvents   []string
}

// Empty reports whether the diff contains no work.
func (r Result) Empty() bool {
	return len(r.RemovedEvents) == 0 && len(r.RemovedAttrs) == 0 &&
		len(r.UpdatedAttrs) == 0 && len(r.AddedEvents) == 0
}

// Compute diffs two plain prop snapshots (not live reactive maps). Event
// keys are recognized by the handler-prop naming convention; handlers
// present under the same key in both snapshots are kept when behaviorally
// equivalent. Attribute updates are included only when the value changed,
// with containers compared by value.
func Compute(prev, next map[string]any) Result {
	var res Result

	for _, key := range sortedKeys(prev) {
		if !renderer.IsEventProp(key) {
			continue
		}
		if nextVal, ok := next[key]; ok && vdom.EquivalentFns(prev[key], nextVal) {
			continue
		}
		res.RemovedEvents = append(res.RemovedEvents, key)
	}

	for _, key := range sortedKeys(prev) {
		if renderer.IsEventProp(key) {
			continue
		}
		if _, ok := next[key]; ok {
			continue
		}
		res.RemovedAttrs = append(res.RemovedAttrs, key)
	}

	for _, key := range sortedKeys(next) {
		if renderer.IsEventProp(key) {
			continue
		}
		if prevVal, ok := prev[key]; ok && util.DeepValEqual(prevVal, next[key]) {
			continue
		}
		res.UpdatedAttrs = append(res.UpdatedAttrs, KV{Key: key, Value: next[key]})
	}

	for _, key := range sortedKeys(next) {
		if !renderer.IsEventProp(key) {
			continue
		}
		if prevVal, ok := prev[key]; ok && vdom.EquivalentFns(prevVal, next[key]) {
			continue
		}
		res.AddedEvents = append(res.AddedEvents, key)
	}

	return res
}

// Apply issues the edit set against a native node in the fixed order:
// remove events, remove attributes, update attributes, add events. Each
// mutation runs under the resilience guard so one bad attribute does not
// abort the rest of the node's reconciliation.
func Apply(r renderer.Renderer, log logr.Logger, node any, prev, next map[string]any, res Result) {
	for _, key := range res.RemovedEvents {
		key := key
		renderer.Guard(log, node, "removeEventListener", func() {
			r.RemoveEventListener(node, renderer.EventType(key), prev[key])
		})
	}
	for _, key := range res.RemovedAttrs {
		key := key
		renderer.Guard(log, node, "removeAttribute", func() {
			r.RemoveAttribute(node, key, prev[key])
		})
	}
	for _, kv := range res.UpdatedAttrs {
		kv := kv
		renderer.Guard(log, node, "setAttribute", func() {
			r.SetAttribute(node, kv.Key, kv.Value)
		})
	}
	for _, key := range res.AddedEvents {
		key := key
		renderer.Guard(log, node, "addEventListener", func() {
			r.AddEventListener(node, renderer.EventType(key), next[key])
		})
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
