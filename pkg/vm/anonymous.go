package vm

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// AnonymousClass describes an inline implementation of one interface.
//
// Methods maps a method name to its body. When the interface overloads a
// name, a key of name plus descriptor ("compare(II)I") selects one
// overload and takes precedence over the bare name. Bodies are Go
// closures: state from the call site is captured by reference, or by value
// if the caller copies it first.
type AnonymousClass struct {
	Interface string
	Methods   map[string]MethodFunc
	// Enclosing names the type the implementation is declared in. When set
	// the synthesized type is named Enclosing$N, and instances may be bound
	// to an enclosing instance.
	Enclosing string
	Fields    []FieldDescriptor
}

// Synthesize builds a fresh type implementing exactly spec.Interface. The
// type is linked against the registry but not registered in it: it is
// owned by the instances created from it.
func (r *Registry) Synthesize(spec AnonymousClass) (*TypeDescriptor, error) {
	iface, err := r.LoadInterface(spec.Interface)
	if err != nil {
		return nil, &UnknownSupertypeError{Type: "anonymous " + spec.Interface, Missing: spec.Interface, Cause: err}
	}
	if spec.Enclosing != "" {
		if _, err := r.LoadType(spec.Enclosing); err != nil {
			return nil, fmt.Errorf("synthesize %s: enclosing type: %w", spec.Interface, err)
		}
	}

	required := iface.AbstractMethods()
	used := make(map[string]bool, len(spec.Methods))
	var methods []*MethodDescriptor
	var missing []string
	for _, sig := range required {
		key := sig.String()
		body, ok := spec.Methods[key]
		if !ok {
			key = sig.Name
			body, ok = spec.Methods[key]
		}
		if !ok || body == nil {
			missing = append(missing, sig.String())
			continue
		}
		used[key] = true
		methods = append(methods, &MethodDescriptor{Name: sig.Name, Descriptor: sig.Descriptor, Body: body})
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &IncompleteImplementationError{Interface: iface.Name, Missing: missing}
	}
	for key := range spec.Methods {
		if !used[key] {
			return nil, fmt.Errorf("synthesize %s: %s is not a method of the interface", iface.Name, key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := &TypeDescriptor{
		Name:       r.anonymousNameLocked(iface.Name, spec.Enclosing),
		Interfaces: []string{iface.Name},
		Outer:      spec.Enclosing,
		Fields:     spec.Fields,
		Methods:    methods,
		anonymous:  true,
	}
	if _, ok := r.types[ObjectClass]; ok {
		t.Super = ObjectClass
	}
	if err := r.linkLocked(t); err != nil {
		return nil, err
	}
	r.Logger.Debug("anonymous type synthesized", "type", t.Name, "interface", iface.Name)
	return t, nil
}

func (r *Registry) anonymousNameLocked(iface, enclosing string) string {
	if enclosing == "" {
		return iface + "$$Anonymous$" + uuid.NewString()
	}
	for {
		r.anonSeq[enclosing]++
		name := fmt.Sprintf("%s$%d", enclosing, r.anonSeq[enclosing])
		if !r.knownLocked(name) {
			return name
		}
	}
}
