package vm

// ObjectClass is the root of every class hierarchy.
const ObjectClass = "java/lang/Object"

// Special method names.
const (
	ConstructorName = "<init>"
	ClassInitName   = "<clinit>"
)

// Signature identifies a method by name and JVM method descriptor,
// e.g. {"damage", "()I"}.
type Signature struct {
	Name       string
	Descriptor string
}

func (s Signature) String() string {
	return s.Name + s.Descriptor
}

// MethodFunc is the body of a concrete method.
type MethodFunc func(f *Frame) (Value, error)

// MethodDescriptor describes a method declared by a type.
type MethodDescriptor struct {
	Name       string
	Descriptor string
	Static     bool
	Abstract   bool
	Body       MethodFunc

	owner *TypeDescriptor
}

// Signature returns the name and descriptor of the method.
func (m *MethodDescriptor) Signature() Signature {
	return Signature{Name: m.Name, Descriptor: m.Descriptor}
}

// Owner returns the type that declares the method. It is nil until the
// declaring type has been registered.
func (m *MethodDescriptor) Owner() *TypeDescriptor {
	return m.owner
}

// FieldDescriptor describes an instance field and its initial value.
type FieldDescriptor struct {
	Name    string
	Default Value
}

// StaticField describes a static field. Value is assigned before any
// initializer runs; Init, when set, computes the initial value during
// class initialization.
type StaticField struct {
	Name  string
	Value Value
	Init  MethodFunc
}

// InterfaceDescriptor describes an interface: a named set of abstract
// method signatures, optionally extending other interfaces.
type InterfaceDescriptor struct {
	Name    string
	Extends []string
	Methods []Signature

	extends []*InterfaceDescriptor
}

// Superinterfaces returns the linked interfaces this interface extends.
func (i *InterfaceDescriptor) Superinterfaces() []*InterfaceDescriptor {
	return i.extends
}

// AbstractMethods returns every method signature of the interface,
// including those inherited from superinterfaces, without duplicates.
func (i *InterfaceDescriptor) AbstractMethods() []Signature {
	seen := make(map[Signature]bool)
	var out []Signature
	var walk func(*InterfaceDescriptor)
	walk = func(it *InterfaceDescriptor) {
		for _, sig := range it.Methods {
			if !seen[sig] {
				seen[sig] = true
				out = append(out, sig)
			}
		}
		for _, parent := range it.extends {
			walk(parent)
		}
	}
	walk(i)
	return out
}

// TypeDescriptor describes a class. A descriptor must not be modified
// once it has been registered.
type TypeDescriptor struct {
	Name       string
	Super      string
	Interfaces []string
	Abstract   bool
	// Outer names the enclosing type of an inner class. Instances of an
	// inner class are bound to an enclosing instance at construction.
	Outer      string
	Fields     []FieldDescriptor
	Methods    []*MethodDescriptor
	Statics    []StaticField
	StaticInit MethodFunc

	anonymous  bool
	super      *TypeDescriptor
	interfaces []*InterfaceDescriptor
	methods    map[Signature]*MethodDescriptor
}

// Supertype returns the linked supertype, or nil for a root type.
func (t *TypeDescriptor) Supertype() *TypeDescriptor {
	return t.super
}

// InterfaceDescriptors returns the linked interfaces the type declares directly.
func (t *TypeDescriptor) InterfaceDescriptors() []*InterfaceDescriptor {
	return t.interfaces
}

// Anonymous reports whether the type was synthesized at a call site.
func (t *TypeDescriptor) Anonymous() bool {
	return t.anonymous
}

// FindMethod finds a method declared by this type itself.
func (t *TypeDescriptor) FindMethod(name, descriptor string) *MethodDescriptor {
	if t.methods != nil {
		return t.methods[Signature{Name: name, Descriptor: descriptor}]
	}
	for _, m := range t.Methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// Ancestry returns the type followed by its supertypes up to the root.
func (t *TypeDescriptor) Ancestry() []*TypeDescriptor {
	var chain []*TypeDescriptor
	for c := t; c != nil; c = c.super {
		chain = append(chain, c)
	}
	return chain
}

// findStaticField returns the type in the supertype chain that declares
// the named static field.
func (t *TypeDescriptor) findStaticField(name string) *TypeDescriptor {
	for c := t; c != nil; c = c.super {
		for _, f := range c.Statics {
			if f.Name == name {
				return c
			}
		}
	}
	return nil
}
