package vm

import (
	"fmt"
	"sync"
)

// ClassDef is a definition produced by a ClassLoader: exactly one of Type
// and Interface is set.
type ClassDef struct {
	Type      *TypeDescriptor
	Interface *InterfaceDescriptor
}

// Name returns the name of the defined type or interface.
func (d *ClassDef) Name() string {
	switch {
	case d.Type != nil:
		return d.Type.Name
	case d.Interface != nil:
		return d.Interface.Name
	}
	return ""
}

// ClassLoader provides definitions for names the registry does not know yet.
type ClassLoader interface {
	LoadClass(name string) (*ClassDef, error)
}

// MapClassLoader serves definitions held in memory.
type MapClassLoader struct {
	mu   sync.RWMutex
	defs map[string]*ClassDef
}

// NewMapClassLoader creates a new MapClassLoader.
func NewMapClassLoader() *MapClassLoader {
	return &MapClassLoader{defs: make(map[string]*ClassDef)}
}

// DefineType adds a class definition.
func (cl *MapClassLoader) DefineType(t *TypeDescriptor) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.defs[t.Name] = &ClassDef{Type: t}
}

// DefineInterface adds an interface definition.
func (cl *MapClassLoader) DefineInterface(i *InterfaceDescriptor) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.defs[i.Name] = &ClassDef{Interface: i}
}

func (cl *MapClassLoader) LoadClass(name string) (*ClassDef, error) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	if def, ok := cl.defs[name]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("map: class %s not defined", name)
}

// DelegatingClassLoader loads classes through its parent first, then
// through its own loader, caching what it finds.
type DelegatingClassLoader struct {
	Parent ClassLoader
	Loader ClassLoader

	mu    sync.Mutex
	cache map[string]*ClassDef
}

// NewDelegatingClassLoader creates a new DelegatingClassLoader.
func NewDelegatingClassLoader(loader, parent ClassLoader) *DelegatingClassLoader {
	return &DelegatingClassLoader{
		Parent: parent,
		Loader: loader,
		cache:  make(map[string]*ClassDef),
	}
}

func (cl *DelegatingClassLoader) LoadClass(name string) (*ClassDef, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if def, ok := cl.cache[name]; ok {
		return def, nil
	}
	if cl.Parent != nil {
		if def, err := cl.Parent.LoadClass(name); err == nil {
			cl.cache[name] = def
			return def, nil
		}
	}
	def, err := cl.Loader.LoadClass(name)
	if err != nil {
		return nil, fmt.Errorf("delegating: class %s not found: %w", name, err)
	}
	cl.cache[name] = def
	return def, nil
}
