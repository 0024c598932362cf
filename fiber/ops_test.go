package fiber

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func keys(ss ...string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// simulate replays an op script over the current key sequence.
func simulate(current []any, ops []Op) []any {
	sim := append([]any(nil), current...)
	for _, op := range ops {
		switch op.Op {
		case OpDel:
			sim = removeAt(sim, indexOf(sim, op.Value))
		case OpAdd, OpMove:
			if op.Op == OpMove {
				sim = removeAt(sim, indexOf(sim, op.Value))
			}
			pos := len(sim)
			if op.HasAnchor {
				pos = indexOf(sim, op.Anchor)
			}
			sim = insertAt(sim, pos, op.Value)
		}
	}
	return sim
}

func countOps(ops []Op, t OpType) int {
	n := 0
	for _, op := range ops {
		if op.Op == t {
			n++
		}
	}
	return n
}

func TestCreateOpsNoChange(t *testing.T) {
	if ops := CreateOps(keys("a", "b", "c"), keys("a", "b", "c")); len(ops) != 0 {
		t.Errorf("identical sequences produced %d ops", len(ops))
	}
}

func TestCreateOpsReversalCostsLenMinusOneMoves(t *testing.T) {
	current := keys("a", "b", "c", "d")
	future := keys("d", "c", "b", "a")
	ops := CreateOps(current, future)
	if got := countOps(ops, OpMove); got != len(current)-1 {
		t.Errorf("reversal used %d moves, want %d", got, len(current)-1)
	}
	if countOps(ops, OpAdd) != 0 || countOps(ops, OpDel) != 0 {
		t.Errorf("reversal should be pure moves: %+v", ops)
	}
	if diff := cmp.Diff(future, simulate(current, ops)); diff != "" {
		t.Errorf("replay mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateOpsAppendIsSingleAdd(t *testing.T) {
	ops := CreateOps(keys("a", "b", "c"), keys("a", "b", "c", "d"))
	if len(ops) != 1 || ops[0].Op != OpAdd || ops[0].Value != "d" {
		t.Fatalf("append produced %+v", ops)
	}
	if ops[0].HasAnchor {
		t.Error("appended key should have no anchor")
	}
}

func TestCreateOpsPrependAnchors(t *testing.T) {
	ops := CreateOps(keys("b", "c"), keys("a", "b", "c"))
	if len(ops) != 1 || ops[0].Op != OpAdd {
		t.Fatalf("prepend produced %+v", ops)
	}
	if !ops[0].HasAnchor || ops[0].Anchor != "b" {
		t.Errorf("prepend should anchor before b: %+v", ops[0])
	}
}

func TestCreateOpsRemoval(t *testing.T) {
	ops := CreateOps(keys("a", "b", "c"), keys("a", "c"))
	if len(ops) != 1 || ops[0].Op != OpDel || ops[0].Value != "b" {
		t.Fatalf("removal produced %+v", ops)
	}
}

func TestCreateOpsRandomizedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for trial := 0; trial < 200; trial++ {
		current := randomSubset(rng, alphabet)
		future := randomSubset(rng, alphabet)
		ops := CreateOps(current, future)
		got := simulate(current, ops)
		if diff := cmp.Diff(future, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("trial %d: current=%v future=%v ops=%+v\n%s",
				trial, current, future, ops, diff)
		}
	}
}

func randomSubset(rng *rand.Rand, alphabet []string) []any {
	perm := rng.Perm(len(alphabet))
	n := rng.Intn(len(alphabet) + 1)
	out := make([]any, 0, n)
	for _, i := range perm[:n] {
		out = append(out, alphabet[i])
	}
	return out
}

func TestApplyOpScript(t *testing.T) {
	// Drive the script against a fake parent holding ordered children.
	r := orderRenderer{}
	parent := &orderNode{}
	elements := map[any]any{}
	current := keys("a", "b", "c")
	for _, k := range current {
		n := &orderNode{name: k.(string)}
		elements[k] = n
		parent.children = append(parent.children, n)
	}
	future := keys("c", "a", "d")
	elements["d"] = &orderNode{name: "d"}

	for _, op := range CreateOps(current, future) {
		ApplyOp(r, op, parent, elements)
	}

	var got []any
	for _, child := range parent.children {
		got = append(got, any(child.name))
	}
	if diff := cmp.Diff(future, got); diff != "" {
		t.Errorf("applied order mismatch (-want +got):\n%s", diff)
	}
}

type orderNode struct {
	name     string
	children []*orderNode
}

type orderRenderer struct{}

func (orderRenderer) CreateElement(tag string) any { return &orderNode{name: tag} }
func (orderRenderer) CreateTextElement() any       { return &orderNode{} }

func (orderRenderer) Insert(node, parent, anchor any) {
	p := parent.(*orderNode)
	n := node.(*orderNode)
	idx := len(p.children)
	if anchor != nil {
		for i, c := range p.children {
			if c == anchor {
				idx = i
				break
			}
		}
	}
	p.children = append(p.children, nil)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = n
}

func (orderRenderer) Remove(node, parent any) {
	p := parent.(*orderNode)
	for i, c := range p.children {
		if c == node {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

func (orderRenderer) SetElementText(node any, text string)                       {}
func (orderRenderer) SetAttribute(node any, key string, value any)               {}
func (orderRenderer) RemoveAttribute(node any, key string, previous any)         {}
func (orderRenderer) AddEventListener(node any, eventType string, handler any)   {}
func (orderRenderer) RemoveEventListener(node any, eventType string, handler any) {}
