package fragment_test

import (
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// countingRenderer wraps DictRenderer with mutation counters so tests can
// assert the engine issues the minimal set of native operations.
type countingRenderer struct {
	renderer.DictRenderer
	creates int
	inserts int
	removes int
}

var _ renderer.Renderer = (*countingRenderer)(nil)
var _ renderer.SiblingReader = (*countingRenderer)(nil)

func (c *countingRenderer) CreateElement(tag string) any {
	c.creates++
	return c.DictRenderer.CreateElement(tag)
}

func (c *countingRenderer) Insert(node, parent, anchor any) {
	c.inserts++
	c.DictRenderer.Insert(node, parent, anchor)
}

func (c *countingRenderer) Remove(node, parent any) {
	c.removes++
	c.DictRenderer.Remove(node, parent)
}

func (c *countingRenderer) reset() {
	c.creates, c.inserts, c.removes = 0, 0, 0
}

func TestMountPlainTree(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	root := fragment.New(r, "container", nil)
	root.SetAttribute("title", "top")
	item := fragment.New(r, "item", root)
	item.SetAttribute("name", "a")
	fragment.NewText(r, "hello", root)

	root.Mount(target, nil)

	if len(target.Children) != 1 {
		t.Fatalf("target children = %d, want 1", len(target.Children))
	}
	container := target.Children[0]
	if container.Attrs["title"] != "top" {
		t.Errorf("container attrs = %v", container.Attrs)
	}
	if len(container.Children) != 2 {
		t.Fatalf("container children = %d, want 2", len(container.Children))
	}
	if container.Children[0].Attrs["name"] != "a" {
		t.Errorf("item = %+v", container.Children[0])
	}
	if container.Children[1].Type != renderer.TextElementType ||
		container.Children[1].Text != "hello" {
		t.Errorf("text = %+v", container.Children[1])
	}
	if !root.Mounted() {
		t.Error("root not marked mounted")
	}
}

func TestTemplateWrapperIsTransparent(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	root := fragment.New(r, "container", nil)
	a := fragment.New(r, "item", root)
	a.SetAttribute("name", "a")
	wrapper := fragment.New(r, "", root)
	b := fragment.New(r, "item", wrapper)
	b.SetAttribute("name", "b")
	c := fragment.New(r, "item", wrapper)
	c.SetAttribute("name", "c")
	d := fragment.New(r, "item", root)
	d.SetAttribute("name", "d")

	root.Mount(target, nil)

	container := target.Children[0]
	want := []string{"a", "b", "c", "d"}
	if diff := cmp.Diff(want, container.ChildNames("name")); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if wrapper.Element() != nil {
		t.Error("template wrapper should not produce an element")
	}
	if wrapper.First() != b.Element() {
		t.Error("wrapper First should be its first concrete descendant")
	}
}

func TestBindUpdatesAttribute(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{"label": "x", "count": 1})

	f := fragment.New(r, "item", nil)
	f.SetBind("label", func() any { return state.GetString("label") })
	f.Mount(target, nil)

	el := target.Children[0]
	if el.Attrs["label"] != "x" {
		t.Fatalf("initial bind = %v", el.Attrs["label"])
	}
	state.Set("label", "y")
	if el.Attrs["label"] != "y" {
		t.Errorf("bind after update = %v", el.Attrs["label"])
	}
	if target.Children[0] != el {
		t.Error("bind update replaced the element")
	}

	// Unrelated keys leave the attribute alone.
	state.Set("count", 2)
	if el.Attrs["label"] != "y" {
		t.Errorf("unrelated write disturbed bind: %v", el.Attrs["label"])
	}
}

func TestBindTextContent(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{"msg": "hi"})

	f := fragment.New(r, fragment.TextTag, nil)
	f.SetBind("text", func() any { return state.GetString("msg") })
	f.Mount(target, nil)

	if target.Children[0].Text != "hi" {
		t.Fatalf("text = %q", target.Children[0].Text)
	}
	state.Set("msg", "bye")
	if target.Children[0].Text != "bye" {
		t.Errorf("text after update = %q", target.Children[0].Text)
	}
}

func TestBindDictAddsAndRemovesAttributes(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{
		"style": map[string]any{"width": 10, "height": 20},
	})

	f := fragment.New(r, "item", nil)
	f.SetBindDict("style", func() map[string]any {
		m, _ := state.Get("style").(map[string]any)
		return m
	})
	f.Mount(target, nil)

	el := target.Children[0]
	if el.Attrs["width"] != 10 || el.Attrs["height"] != 20 {
		t.Fatalf("initial dict bind = %v", el.Attrs)
	}

	state.Set("style", map[string]any{"width": 15, "depth": 5})
	if el.Attrs["width"] != 15 {
		t.Errorf("width not updated: %v", el.Attrs)
	}
	if el.Attrs["depth"] != 5 {
		t.Errorf("new key not added: %v", el.Attrs)
	}
	if _, ok := el.Attrs["height"]; ok {
		t.Errorf("dropped key not removed: %v", el.Attrs)
	}
}

func TestEventHandlerWiring(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	var clicks int
	f := fragment.New(r, "button", nil)
	f.SetEvent("click", func(...any) { clicks++ })
	f.Mount(target, nil)

	target.Children[0].Emit("click")
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}

	f.Unmount(false)
	if len(target.Children) != 0 {
		t.Fatal("unmount left element behind")
	}
}

func TestRemountAfterUnmount(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{"label": "x"})

	f := fragment.New(r, "item", nil)
	f.SetBind("label", func() any { return state.GetString("label") })
	f.Mount(target, nil)
	f.Unmount(false)

	state.Set("label", "y")
	f.Mount(target, nil)
	if got := target.Children[0].Attrs["label"]; got != "y" {
		t.Errorf("remounted bind = %v, want y", got)
	}

	f.Unmount(true)
	if len(target.Children) != 0 {
		t.Error("destroy left element behind")
	}
}

// explodingRenderer panics on attribute writes, standing in for a native
// backend rejecting a value.
type explodingRenderer struct {
	renderer.DictRenderer
}

func (explodingRenderer) SetAttribute(node any, key string, value any) {
	panic("backend rejected " + key)
}

func TestGuardedFailureLogsFragmentID(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	f := fragment.New(explodingRenderer{}, "item", nil)
	f.SetLogger(log)
	f.SetAttribute("width", 10)
	target := &renderer.DictNode{Type: "root"}
	f.Mount(target, nil)

	if len(target.Children) != 1 {
		t.Fatal("guarded failure aborted the mount")
	}
	if len(lines) == 0 {
		t.Fatal("suppressed renderer failure was not logged")
	}
	if !strings.Contains(lines[0], f.ID()) {
		t.Errorf("log line %q does not name fragment %s", lines[0], f.ID())
	}
}

func TestUnmountDetachesWatchers(t *testing.T) {
	cr := &countingRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{"label": "x"})

	f := fragment.New(cr, "item", nil)
	f.SetBind("label", func() any { return state.GetString("label") })
	f.Mount(target, nil)
	f.Unmount(true)

	cr.reset()
	state.Set("label", "y")
	if cr.creates != 0 || cr.inserts != 0 || cr.removes != 0 {
		t.Error("destroyed fragment still reacts to state")
	}
}
