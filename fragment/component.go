package fragment

import (
	"github.com/fork-tongue/kolla/reactive"
)

// createComponent instantiates the component for a usage site: static
// attributes seed the reactive props, binds keep feeding them, declared
// events register as component handlers, and the component renders its
// template under a render wrapper so descendants can find the usage site.
func (f *Fragment) createComponent() {
	ctor, ok := f.tag.(Constructor)
	if !ok {
		return
	}
	init := make(map[string]any, len(f.attributes))
	for k, v := range f.attributes {
		init[k] = v
	}
	f.props = reactive.NewMap(init)
	f.installBinds()

	f.component = ctor(f.props, f.componentParent())
	for _, event := range sortedEventKeys(f.events) {
		f.component.AddEventHandler(event, f.events[event])
	}

	wrapper := NewWrapper(f.rend, nil)
	wrapper.log = f.log
	wrapper.parent = f

	root := f.component.Render(f.rend)
	root.parent = wrapper
	wrapper.children = []*Fragment{root}
	f.rendered = wrapper
}

func (f *Fragment) mountComponent(target, anchor any) {
	if f.tag == nil {
		// Render wrapper: purely structural, mounts its children at its
		// own position.
		f.target = target
		for _, child := range f.children {
			child.Mount(target, anchor)
		}
		f.mounted = true
		return
	}
	f.target = target
	f.create()
	f.rendered.Mount(target, anchor)
	f.component.SetElement(f.rendered.First())
	f.mounted = true
	f.component.Mounted()
}

// unmountComponent tears the instance down. The component is created fresh
// on every mount, so the rendered template always unmounts destructively;
// caller-supplied slot content belongs to the usage site's template and is
// only destroyed when the usage site itself is.
func (f *Fragment) unmountComponent(destroy bool) {
	if f.tag == nil {
		for _, child := range f.children {
			child.Unmount(destroy)
		}
		return
	}
	if f.component != nil {
		f.component.BeforeUnmount()
	}
	if f.rendered != nil {
		f.rendered.Unmount(true)
		f.rendered = nil
	}
	f.component = nil
	f.props = nil
	if destroy {
		for _, content := range f.slotContents {
			content.Unmount(true)
		}
		f.slotContents = nil
	}
}
