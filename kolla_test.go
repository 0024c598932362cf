package kolla_test

import (
	"testing"

	"github.com/fork-tongue/kolla"
	"github.com/fork-tongue/kolla/component"
	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

type counterApp struct {
	component.Base
}

func newCounterApp(props *reactive.Map, parent fragment.Component) fragment.Component {
	c := &counterApp{}
	c.Init(props, parent)
	c.State().Set("count", 0)
	return c
}

func (c *counterApp) Render(r renderer.Renderer) *fragment.Fragment {
	root := fragment.New(r, "counter", nil)
	root.SetBind("value", func() any { return c.State().GetInt("count") })
	root.SetEvent("increment", func(...any) {
		c.State().Set("count", c.State().GetInt("count")+1)
	})
	return root
}

func TestAppRenderAndInteraction(t *testing.T) {
	app, err := kolla.New(renderer.DictRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	target := &renderer.DictNode{Type: "root"}
	if err := app.Render(newCounterApp, target, nil); err != nil {
		t.Fatal(err)
	}

	counter := target.Children[0]
	if counter.Attrs["value"] != 0 {
		t.Fatalf("initial value = %v", counter.Attrs["value"])
	}
	counter.Emit("increment")
	if counter.Attrs["value"] != 1 {
		t.Errorf("value after event = %v", counter.Attrs["value"])
	}

	app.Unmount()
	if len(target.Children) != 0 {
		t.Error("unmount left the tree mounted")
	}
}

func TestAppRequiresRenderer(t *testing.T) {
	if _, err := kolla.New(nil); err == nil {
		t.Error("nil renderer accepted")
	}
}

func TestAppRejectsSecondRoot(t *testing.T) {
	app, err := kolla.New(renderer.DictRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	target := &renderer.DictNode{Type: "root"}
	if err := app.Render(newCounterApp, target, nil); err != nil {
		t.Fatal(err)
	}
	if err := app.Render(newCounterApp, target, nil); err == nil {
		t.Error("second root accepted without Unmount")
	}
	app.Unmount()
}

type explodingApp struct {
	component.Base
}

func newExplodingApp(props *reactive.Map, parent fragment.Component) fragment.Component {
	c := &explodingApp{}
	c.Init(props, parent)
	return c
}

func (c *explodingApp) Render(r renderer.Renderer) *fragment.Fragment {
	root := fragment.New(r, "outer", nil)
	fragment.New(r, "inner", root)
	panic("render blew up")
}

func TestAppRenderPanicLeavesTargetUntouched(t *testing.T) {
	app, err := kolla.New(renderer.DictRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	target := &renderer.DictNode{Type: "root"}
	if err := app.Render(newExplodingApp, target, nil); err == nil {
		t.Fatal("panicking render reported success")
	}
	if len(target.Children) != 0 {
		t.Errorf("failed render left %d children in the target", len(target.Children))
	}
	if app.Root() != nil {
		t.Error("failed render left a root behind")
	}

	// The app is still usable afterwards.
	if err := app.Render(newCounterApp, target, nil); err != nil {
		t.Fatal(err)
	}
	app.Unmount()
}

func TestAppDeferredEventLoop(t *testing.T) {
	app, err := kolla.New(renderer.DictRenderer{}, kolla.WithEventLoop(kolla.EventLoopDeferred))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		app.Unmount()
		// Restore synchronous flushing for other tests.
		if _, err := kolla.New(renderer.DictRenderer{}); err != nil {
			t.Fatal(err)
		}
	}()

	target := &renderer.DictNode{Type: "root"}
	if err := app.Render(newCounterApp, target, nil); err != nil {
		t.Fatal(err)
	}
	counter := target.Children[0]

	counter.Emit("increment")
	counter.Emit("increment")
	if counter.Attrs["value"] != 0 {
		t.Fatalf("deferred loop applied updates synchronously: %v", counter.Attrs["value"])
	}
	app.ProcessEvents()
	if counter.Attrs["value"] != 2 {
		t.Errorf("value after flush = %v, want 2", counter.Attrs["value"])
	}
}
