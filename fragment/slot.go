package fragment

// usageSite walks up the template tree to the render wrapper of the
// enclosing component and returns its usage-site fragment, which carries
// the caller-supplied slot content.
func (f *Fragment) usageSite() *Fragment {
	parent := f.parent
	for parent != nil {
		if parent.kind == Comp && parent.tag == nil {
			usage := parent.parent
			if usage != nil && usage.kind == Comp && usage.tag != nil {
				return usage
			}
			return nil
		}
		parent = parent.parent
	}
	return nil
}

// mountSlot resolves caller content for the slot's name; without any the
// slot's own template children serve as default content.
func (f *Fragment) mountSlot(target, anchor any) {
	f.target = target

	var matched []*Fragment
	if usage := f.usageSite(); usage != nil {
		for _, content := range usage.slotContents {
			name := content.slotName
			if name == "" {
				name = DefaultSlot
			}
			if name == f.name {
				matched = append(matched, content)
			}
		}
	}

	if len(matched) > 0 {
		f.resolved = matched
		for _, content := range matched {
			content.renderParent = f
			content.Mount(target, anchor)
		}
	} else {
		for _, child := range f.children {
			child.Mount(target, anchor)
		}
	}
	f.mounted = true
}

// unmountSlot releases resolved content non-destructively: it belongs to
// the caller's template and may be resolved again by a later mount.
func (f *Fragment) unmountSlot(destroy bool) {
	if f.resolved != nil {
		for _, content := range f.resolved {
			content.Unmount(false)
			content.renderParent = nil
		}
		f.resolved = nil
		return
	}
	for _, child := range f.children {
		child.Unmount(destroy)
	}
}
