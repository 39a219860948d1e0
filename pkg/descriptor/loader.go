package descriptor

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/daimatz/jvmcore/pkg/vm"
)

// Natives binds the keys referenced by native bodies to Go functions.
type Natives map[string]vm.MethodFunc

// Loader serves parsed declarations as a vm.ClassLoader. Every LoadClass
// call builds fresh descriptors, so one Loader may back several registries.
type Loader struct {
	Natives Natives
	Logger  *slog.Logger

	mu    sync.RWMutex
	decls map[string]declaration
	order []string
}

type declaration struct {
	source string
	typ    *TypeSpec
	iface  *InterfaceSpec
}

// NewLoader creates an empty Loader resolving native bodies from natives.
func NewLoader(natives Natives) *Loader {
	return &Loader{
		Natives: natives,
		Logger:  slog.New(slog.DiscardHandler),
		decls:   make(map[string]declaration),
	}
}

// LoadFile parses the descriptor file at path and adds its declarations.
func (l *Loader) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("descriptor: open %s: %w", path, err)
	}
	defer file.Close()

	f, err := Parse(file, path)
	if err != nil {
		return err
	}
	return l.Add(f, path)
}

// Add adds the declarations of f. A name already declared by an earlier
// file is an error and leaves the loader unchanged.
func (l *Loader) Add(f *File, source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range f.names() {
		if prev, ok := l.decls[name]; ok {
			return fmt.Errorf("descriptor: %s: %s already declared in %s", source, name, prev.source)
		}
	}
	for i := range f.Interfaces {
		spec := &f.Interfaces[i]
		l.decls[spec.Name] = declaration{source: source, iface: spec}
		l.order = append(l.order, spec.Name)
	}
	for i := range f.Types {
		spec := &f.Types[i]
		l.decls[spec.Name] = declaration{source: source, typ: spec}
		l.order = append(l.order, spec.Name)
	}
	l.Logger.Debug("descriptors added", "source", source, "interfaces", len(f.Interfaces), "types", len(f.Types))
	return nil
}

// Names returns every declared name in declaration order.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...)
}

func (l *Loader) LoadClass(name string) (*vm.ClassDef, error) {
	l.mu.RLock()
	decl, ok := l.decls[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("descriptor: %s not declared", name)
	}
	if decl.iface != nil {
		return &vm.ClassDef{Interface: buildInterface(decl.iface)}, nil
	}
	t, err := l.buildType(decl.typ)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %s: %w", decl.source, err)
	}
	return &vm.ClassDef{Type: t}, nil
}

func (f *File) names() []string {
	var names []string
	for _, i := range f.Interfaces {
		names = append(names, i.Name)
	}
	for _, t := range f.Types {
		names = append(names, t.Name)
	}
	return names
}

func buildInterface(spec *InterfaceSpec) *vm.InterfaceDescriptor {
	i := &vm.InterfaceDescriptor{
		Name:    spec.Name,
		Extends: append([]string(nil), spec.Extends...),
	}
	for _, m := range spec.Methods {
		i.Methods = append(i.Methods, vm.Signature{Name: m.Name, Descriptor: m.Descriptor})
	}
	return i
}

func (l *Loader) buildType(spec *TypeSpec) (*vm.TypeDescriptor, error) {
	t := &vm.TypeDescriptor{
		Name:       spec.Name,
		Super:      spec.Super,
		Interfaces: append([]string(nil), spec.Interfaces...),
		Abstract:   spec.Abstract,
		Outer:      spec.Outer,
	}
	for _, fs := range spec.Fields {
		t.Fields = append(t.Fields, vm.FieldDescriptor{Name: fs.Name, Default: literal(fs.Value)})
	}
	for _, fs := range spec.Statics {
		sf := vm.StaticField{Name: fs.Name, Value: literal(fs.Value)}
		if fs.Init != "" {
			body, err := l.native(fs.Init)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", spec.Name, fs.Name, err)
			}
			sf.Init = body
		}
		t.Statics = append(t.Statics, sf)
	}
	if spec.StaticInit != "" {
		body, err := l.native(spec.StaticInit)
		if err != nil {
			return nil, fmt.Errorf("%s static initializer: %w", spec.Name, err)
		}
		t.StaticInit = body
	}
	for _, ms := range spec.Methods {
		m := &vm.MethodDescriptor{
			Name:       ms.Name,
			Descriptor: ms.Descriptor,
			Static:     ms.Static,
			Abstract:   ms.Abstract,
		}
		switch {
		case ms.Returns != nil:
			value := ms.Returns.Value
			m.Body = func(*vm.Frame) (vm.Value, error) { return value, nil }
		case ms.Field != "":
			field := ms.Field
			m.Body = func(f *vm.Frame) (vm.Value, error) { return f.Field(field) }
		case ms.Native != "":
			body, err := l.native(ms.Native)
			if err != nil {
				return nil, fmt.Errorf("%s.%s%s: %w", spec.Name, ms.Name, ms.Descriptor, err)
			}
			m.Body = body
		}
		t.Methods = append(t.Methods, m)
	}
	return t, nil
}

func (l *Loader) native(key string) (vm.MethodFunc, error) {
	body, ok := l.Natives[key]
	if !ok || body == nil {
		return nil, fmt.Errorf("no native body bound to %q", key)
	}
	return body, nil
}

func literal(l *Literal) vm.Value {
	if l == nil {
		return vm.NullValue()
	}
	return l.Value
}
