package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

// Registry holds type and interface descriptors and links their
// inheritance edges. Names the registry does not know are requested from
// Loader, supertypes first.
type Registry struct {
	Loader ClassLoader
	Logger *slog.Logger

	mu         sync.RWMutex
	types      map[string]*TypeDescriptor
	interfaces map[string]*InterfaceDescriptor
	anonSeq    map[string]int
}

// NewRegistry creates an empty registry. loader may be nil.
func NewRegistry(loader ClassLoader) *Registry {
	return &Registry{
		Loader:     loader,
		Logger:     slog.New(slog.DiscardHandler),
		types:      make(map[string]*TypeDescriptor),
		interfaces: make(map[string]*InterfaceDescriptor),
		anonSeq:    make(map[string]int),
	}
}

// Register adds a type. The supertype and interfaces must already be
// registered. On error the registry is left unchanged.
func (r *Registry) Register(t *TypeDescriptor) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("register: type name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkSuperCycleLocked(t); err != nil {
		return err
	}
	if r.knownLocked(t.Name) {
		return &DuplicateTypeError{Type: t.Name}
	}
	if err := r.linkLocked(t); err != nil {
		return err
	}
	r.types[t.Name] = t
	r.Logger.Debug("type registered", "type", t.Name, "super", t.Super, "interfaces", t.Interfaces)
	return nil
}

// RegisterInterface adds an interface. Extended interfaces must already be
// registered.
func (r *Registry) RegisterInterface(i *InterfaceDescriptor) error {
	if i == nil || i.Name == "" {
		return fmt.Errorf("register: interface name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkExtendsCycleLocked(i); err != nil {
		return err
	}
	if r.knownLocked(i.Name) {
		return &DuplicateTypeError{Type: i.Name}
	}
	extends := make([]*InterfaceDescriptor, 0, len(i.Extends))
	for _, name := range i.Extends {
		parent, ok := r.interfaces[name]
		if !ok {
			return NewUnknownSupertypeError(i.Name, name)
		}
		extends = append(extends, parent)
	}
	seen := make(map[Signature]bool)
	for _, sig := range i.Methods {
		if seen[sig] {
			return fmt.Errorf("register %s: duplicate method %s", i.Name, sig)
		}
		seen[sig] = true
		if _, err := countParams(sig.Descriptor); err != nil {
			return fmt.Errorf("register %s: %w", i.Name, err)
		}
	}
	i.extends = extends
	r.interfaces[i.Name] = i
	r.Logger.Debug("interface registered", "interface", i.Name, "extends", i.Extends)
	return nil
}

// Type returns a registered type.
func (r *Registry) Type(name string) (*TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Interface returns a registered interface.
func (r *Registry) Interface(name string) (*InterfaceDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.interfaces[name]
	return i, ok
}

// Types returns the names of all registered types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interfaces returns the names of all registered interfaces in sorted order.
func (r *Registry) Interfaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.interfaces))
	for name := range r.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadType returns the named type, loading it and its supertypes through
// the class loader if it is not registered yet.
func (r *Registry) LoadType(name string) (*TypeDescriptor, error) {
	if t, ok := r.Type(name); ok {
		return t, nil
	}
	if err := r.load(name, nil); err != nil {
		return nil, err
	}
	if t, ok := r.Type(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("load %s: is an interface, not a class", name)
}

// LoadInterface returns the named interface, loading it if necessary.
func (r *Registry) LoadInterface(name string) (*InterfaceDescriptor, error) {
	if i, ok := r.Interface(name); ok {
		return i, nil
	}
	if err := r.load(name, nil); err != nil {
		return nil, err
	}
	if i, ok := r.Interface(name); ok {
		return i, nil
	}
	return nil, fmt.Errorf("load %s: is a class, not an interface", name)
}

// Resolve returns the implementation of a virtual method for the named type.
func (r *Registry) Resolve(typeName, name, descriptor string) (*MethodDescriptor, error) {
	t, err := r.LoadType(typeName)
	if err != nil {
		return nil, err
	}
	return Resolve(t, name, descriptor)
}

// load registers name and, before it, everything it depends on. loading
// holds the names currently being loaded, outermost first.
func (r *Registry) load(name string, loading []string) error {
	if r.known(name) {
		return nil
	}
	if idx := slices.Index(loading, name); idx >= 0 {
		path := append(slices.Clone(loading[idx:]), name)
		return NewCycleError(name, path)
	}
	if r.Loader == nil {
		return &ClassNotFoundError{Name: name}
	}
	def, err := r.Loader.LoadClass(name)
	if err != nil {
		return &ClassNotFoundError{Name: name, Cause: err}
	}
	if def.Name() != name {
		return fmt.Errorf("load %s: loader returned definition of %q", name, def.Name())
	}
	loading = append(loading, name)

	var deps []string
	if def.Type != nil {
		if def.Type.Super != "" {
			deps = append(deps, def.Type.Super)
		}
		deps = append(deps, def.Type.Interfaces...)
	} else {
		deps = append(deps, def.Interface.Extends...)
	}
	for _, dep := range deps {
		if err := r.load(dep, loading); err != nil {
			var notFound *ClassNotFoundError
			if errors.As(err, &notFound) && notFound.Name == dep {
				return &UnknownSupertypeError{Type: name, Missing: dep, Cause: err}
			}
			return err
		}
	}

	if def.Type != nil {
		err = r.Register(def.Type)
	} else {
		err = r.RegisterInterface(def.Interface)
	}
	var dup *DuplicateTypeError
	if errors.As(err, &dup) && r.known(name) {
		// Loaded concurrently by another caller.
		return nil
	}
	return err
}

func (r *Registry) known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.knownLocked(name)
}

func (r *Registry) knownLocked(name string) bool {
	_, isType := r.types[name]
	_, isInterface := r.interfaces[name]
	return isType || isInterface
}

// checkSuperCycleLocked walks the declared supertype chain and reports a
// cycle if it leads back to t's own name.
func (r *Registry) checkSuperCycleLocked(t *TypeDescriptor) error {
	path := []string{t.Name}
	visited := make(map[string]bool)
	for name := t.Super; name != "" && !visited[name]; {
		visited[name] = true
		path = append(path, name)
		if name == t.Name {
			return NewCycleError(t.Name, path)
		}
		next, ok := r.types[name]
		if !ok {
			break
		}
		name = next.Super
	}
	return nil
}

func (r *Registry) checkExtendsCycleLocked(i *InterfaceDescriptor) error {
	var visit func(name string, path []string) error
	visited := make(map[string]bool)
	visit = func(name string, path []string) error {
		path = append(path, name)
		if name == i.Name && len(path) > 1 {
			return NewCycleError(i.Name, path)
		}
		if visited[name] {
			return nil
		}
		visited[name] = true
		var extends []string
		if name == i.Name {
			extends = i.Extends
		} else if parent, ok := r.interfaces[name]; ok {
			extends = parent.Extends
		}
		for _, next := range extends {
			if err := visit(next, path); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(i.Name, nil)
}

// linkLocked resolves t's supertype, interfaces and method table. t is
// only modified when every reference resolves.
func (r *Registry) linkLocked(t *TypeDescriptor) error {
	var super *TypeDescriptor
	if t.Super != "" {
		s, ok := r.types[t.Super]
		if !ok {
			return NewUnknownSupertypeError(t.Name, t.Super)
		}
		super = s
	}
	interfaces := make([]*InterfaceDescriptor, 0, len(t.Interfaces))
	for _, name := range t.Interfaces {
		i, ok := r.interfaces[name]
		if !ok {
			return NewUnknownSupertypeError(t.Name, name)
		}
		interfaces = append(interfaces, i)
	}
	methods := make(map[Signature]*MethodDescriptor, len(t.Methods))
	for _, m := range t.Methods {
		sig := m.Signature()
		if _, dup := methods[sig]; dup {
			return fmt.Errorf("register %s: duplicate method %s", t.Name, sig)
		}
		if _, err := countParams(m.Descriptor); err != nil {
			return fmt.Errorf("register %s: %w", t.Name, err)
		}
		switch {
		case m.Abstract && m.Static:
			return fmt.Errorf("register %s: static method %s cannot be abstract", t.Name, sig)
		case m.Abstract && m.Body != nil:
			return fmt.Errorf("register %s: abstract method %s has a body", t.Name, sig)
		case !m.Abstract && m.Body == nil:
			return fmt.Errorf("register %s: concrete method %s has no body", t.Name, sig)
		}
		methods[sig] = m
	}

	t.super = super
	t.interfaces = interfaces
	t.methods = methods
	for _, m := range t.Methods {
		m.owner = t
	}
	return nil
}
