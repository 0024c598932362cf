package fragment_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fork-tongue/kolla/component"
	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// cardComp renders <card> [slot header] <body> [slot default] </card>.
type cardComp struct {
	component.Base
}

func newCardComp(props *reactive.Map, parent fragment.Component) fragment.Component {
	c := &cardComp{}
	c.Init(props, parent)
	return c
}

func (c *cardComp) Render(r renderer.Renderer) *fragment.Fragment {
	root := fragment.New(r, "card", nil)
	header := fragment.NewSlot(r, "header", root)
	fallback := fragment.New(r, "item", header)
	fallback.SetAttribute("name", "default-header")
	fragment.New(r, "body", root)
	fragment.NewSlot(r, "", root)
	return root
}

func TestSlotReceivesCallerContent(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	usage := fragment.NewComponent(r, newCardComp, nil)
	title := fragment.New(r, "item", usage)
	title.SetAttribute("name", "title")
	title.SetSlotName("header")
	footer := fragment.New(r, "item", usage)
	footer.SetAttribute("name", "footer")

	usage.Mount(target, nil)

	card := target.Children[0]
	want := []string{"title", "", "footer"}
	var got []string
	for _, child := range card.Children {
		name, _ := child.Attrs["name"].(string)
		got = append(got, name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("card children (-want +got):\n%s", diff)
	}
	if card.Children[1].Type != "body" {
		t.Errorf("middle child = %+v", card.Children[1])
	}
}

func TestSlotFallsBackToDefaultContent(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	usage := fragment.NewComponent(r, newCardComp, nil)
	usage.Mount(target, nil)

	card := target.Children[0]
	if card.Children[0].Attrs["name"] != "default-header" {
		t.Errorf("header slot did not fall back: %+v", card.Children[0])
	}
}

func TestSlotContentSurvivesRemount(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}

	usage := fragment.NewComponent(r, newCardComp, nil)
	title := fragment.New(r, "item", usage)
	title.SetAttribute("name", "title")
	title.SetSlotName("header")

	usage.Mount(target, nil)
	usage.Unmount(false)
	if len(target.Children) != 0 {
		t.Fatal("unmount left the card")
	}
	usage.Mount(target, nil)

	card := target.Children[0]
	if card.Children[0].Attrs["name"] != "title" {
		t.Errorf("slot content lost across remount: %+v", card.Children[0])
	}
}

func TestSlotContentBindsToCallerState(t *testing.T) {
	r := renderer.DictRenderer{}
	target := &renderer.DictNode{Type: "root"}
	state := reactive.NewMap(map[string]any{"title": "initial"})

	usage := fragment.NewComponent(r, newCardComp, nil)
	title := fragment.New(r, "item", usage)
	title.SetSlotName("header")
	title.SetBind("name", func() any { return state.GetString("title") })

	usage.Mount(target, nil)
	card := target.Children[0]
	if card.Children[0].Attrs["name"] != "initial" {
		t.Fatalf("initial slot bind = %v", card.Children[0].Attrs)
	}
	state.Set("title", "changed")
	if card.Children[0].Attrs["name"] != "changed" {
		t.Errorf("slot bind after update = %v", card.Children[0].Attrs)
	}
}
