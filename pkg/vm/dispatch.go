package vm

import "sort"

// Resolve walks from t upward through the supertype chain and returns the
// first concrete instance method matching name and descriptor.
func Resolve(t *TypeDescriptor, name, descriptor string) (*MethodDescriptor, error) {
	if t == nil {
		return nil, NewDispatchNotFoundError("", name, descriptor)
	}
	for c := t; c != nil; c = c.super {
		m := c.FindMethod(name, descriptor)
		if m != nil && !m.Abstract && !m.Static {
			return m, nil
		}
	}
	return nil, NewDispatchNotFoundError(t.Name, name, descriptor)
}

// resolveStatic finds a static method declared by t or one of its supertypes.
func resolveStatic(t *TypeDescriptor, name, descriptor string) *MethodDescriptor {
	for c := t; c != nil; c = c.super {
		if m := c.FindMethod(name, descriptor); m != nil && m.Static {
			return m
		}
	}
	return nil
}

// RequiredMethods returns every abstract signature t must implement: the
// methods of all interfaces implemented along its supertype chain
// (including superinterfaces) and the abstract methods of its ancestors.
func RequiredMethods(t *TypeDescriptor) []Signature {
	seen := make(map[Signature]bool)
	var out []Signature
	add := func(sig Signature) {
		if !seen[sig] {
			seen[sig] = true
			out = append(out, sig)
		}
	}
	for c := t; c != nil; c = c.super {
		for _, i := range c.interfaces {
			for _, sig := range i.AbstractMethods() {
				add(sig)
			}
		}
		for _, m := range c.Methods {
			if m.Abstract {
				add(m.Signature())
			}
		}
	}
	return out
}

// Unimplemented returns the required signatures of t that have no concrete
// implementation, sorted by name.
func Unimplemented(t *TypeDescriptor) []Signature {
	var missing []Signature
	for _, sig := range RequiredMethods(t) {
		if _, err := Resolve(t, sig.Name, sig.Descriptor); err != nil {
			missing = append(missing, sig)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].String() < missing[j].String()
	})
	return missing
}
