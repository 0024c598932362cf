package vdom

import (
	"reflect"

	"github.com/fork-tongue/kolla/util"
)

// Callback is a partial-application wrapper for event handlers. A render
// function that recreates a structurally identical handler every call wraps
// it in a Callback so the diff can judge the two behaviorally equivalent and
// skip the unsubscribe/resubscribe churn: the underlying function carries
// the code identity and Args carry the captured values.
type Callback struct {
	Fn   any
	Args []any
}

// Partial wraps fn with bound arguments.
func Partial(fn any, args ...any) *Callback {
	return &Callback{Fn: fn, Args: args}
}

// Invoke calls the wrapped function with the bound arguments followed by
// any extra call-site arguments. Surplus arguments beyond the function's
// arity are dropped.
func (c *Callback) Invoke(extra ...any) {
	if c == nil || c.Fn == nil {
		return
	}
	rval := reflect.ValueOf(c.Fn)
	if rval.Kind() != reflect.Func {
		return
	}
	all := make([]any, 0, len(c.Args)+len(extra))
	all = append(all, c.Args...)
	all = append(all, extra...)
	rtype := rval.Type()
	in := make([]reflect.Value, 0, rtype.NumIn())
	for i := 0; i < rtype.NumIn() && i < len(all); i++ {
		in = append(in, reflect.ValueOf(all[i]))
	}
	rval.Call(in)
}

// EquivalentFns reports whether two handler values are behaviorally
// equivalent. Callbacks compare by underlying code identity, bound-argument
// count, and bound-argument values (recursively for nested functions).
// Bare funcs compare by code pointer and signature; everything else
// compares by value.
func EquivalentFns(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, aok := a.(*Callback)
	cb, bok := b.(*Callback)
	if aok != bok {
		return false
	}
	if aok {
		if len(ca.Args) != len(cb.Args) {
			return false
		}
		if !EquivalentFns(ca.Fn, cb.Fn) {
			return false
		}
		for i := range ca.Args {
			av, bv := ca.Args[i], cb.Args[i]
			if isFunc(av) && isFunc(bv) {
				if !EquivalentFns(av, bv) {
					return false
				}
				continue
			}
			if !util.DeepValEqual(av, bv) {
				return false
			}
		}
		return true
	}
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() == reflect.Func && rb.Kind() == reflect.Func {
		return ra.Type() == rb.Type() && ra.Pointer() == rb.Pointer()
	}
	return util.DeepValEqual(a, b)
}

func isFunc(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*Callback); ok {
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}
