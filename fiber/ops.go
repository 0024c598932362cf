package fiber

import (
	"github.com/fork-tongue/kolla/renderer"
)

// OpType enumerates keyed-children edit operations.
type OpType int

const (
	// OpDel removes a key no longer present.
	OpDel OpType = iota
	// OpAdd inserts a new key before its anchor.
	OpAdd
	// OpMove reinserts an existing key before its anchor.
	OpMove
)

func (t OpType) String() string {
	switch t {
	case OpDel:
		return "del"
	case OpAdd:
		return "add"
	case OpMove:
		return "move"
	default:
		return "unknown"
	}
}

// Op is one edit in the script transforming one key sequence into another.
// Anchor is the key to insert before; HasAnchor false means append at end.
type Op struct {
	Op        OpType
	Value     any
	Anchor    any
	HasAnchor bool
}

// CreateOps computes an edit script turning the current key sequence into
// the future one: deletions first, then per-position adds and moves. A
// simple simulation keeps the script minimal for the common cases — a full
// reversal costs len-1 moves, a pure append a single add.
func CreateOps(current, future []any) []Op {
	var ops []Op

	futureSet := make(map[any]struct{}, len(future))
	for _, key := range future {
		futureSet[key] = struct{}{}
	}

	sim := make([]any, 0, len(future))
	for _, key := range current {
		if _, keep := futureSet[key]; keep {
			sim = append(sim, key)
		} else {
			ops = append(ops, Op{Op: OpDel, Value: key})
		}
	}

	for i, key := range future {
		pos := indexOf(sim, key)
		switch {
		case pos == -1:
			op := Op{Op: OpAdd, Value: key}
			if i < len(sim) {
				op.Anchor = sim[i]
				op.HasAnchor = true
			}
			ops = append(ops, op)
			sim = insertAt(sim, i, key)
		case pos != i:
			op := Op{Op: OpMove, Value: key}
			if i < len(sim) {
				op.Anchor = sim[i]
				op.HasAnchor = true
			}
			ops = append(ops, op)
			sim = insertAt(removeAt(sim, pos), i, key)
		}
	}
	return ops
}

// ApplyOp executes one edit against a native parent, resolving keys to
// native objects through elements.
func ApplyOp(r renderer.Renderer, op Op, parent any, elements map[any]any) {
	el := elements[op.Value]
	switch op.Op {
	case OpDel:
		r.Remove(el, parent)
	case OpAdd, OpMove:
		var anchor any
		if op.HasAnchor {
			anchor = elements[op.Anchor]
		}
		if op.Op == OpMove {
			r.Remove(el, parent)
		}
		r.Insert(el, parent, anchor)
	}
}

func indexOf(keys []any, key any) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func insertAt(keys []any, i int, key any) []any {
	if i >= len(keys) {
		return append(keys, key)
	}
	keys = append(keys, nil)
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func removeAt(keys []any, i int) []any {
	return append(keys[:i], keys[i+1:]...)
}
