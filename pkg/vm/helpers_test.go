package vm

import (
	"bytes"
	"testing"
)

func constInt(v int32) MethodFunc {
	return func(*Frame) (Value, error) { return IntValue(v), nil }
}

func constString(s string) MethodFunc {
	return func(*Frame) (Value, error) { return RefValue(s), nil }
}

func noop(*Frame) (Value, error) { return Value{}, nil }

// newTestVM returns a VM over a registry holding only the root class.
func newTestVM(t *testing.T) (*VM, *bytes.Buffer) {
	t.Helper()
	reg := NewRegistry(nil)
	mustRegister(t, reg, &TypeDescriptor{Name: ObjectClass})
	v := NewVM(reg)
	var buf bytes.Buffer
	v.Stdout = &buf
	return v, &buf
}

func mustRegister(t *testing.T, reg *Registry, types ...*TypeDescriptor) {
	t.Helper()
	for _, td := range types {
		if err := reg.Register(td); err != nil {
			t.Fatalf("Register(%s): %v", td.Name, err)
		}
	}
}

func mustRegisterInterface(t *testing.T, reg *Registry, ifaces ...*InterfaceDescriptor) {
	t.Helper()
	for _, i := range ifaces {
		if err := reg.RegisterInterface(i); err != nil {
			t.Fatalf("RegisterInterface(%s): %v", i.Name, err)
		}
	}
}

func mustNew(t *testing.T, v *VM, className string, args ...Value) *JObject {
	t.Helper()
	obj, err := v.New(className, args...)
	if err != nil {
		t.Fatalf("New(%s): %v", className, err)
	}
	return obj
}

// registerChain registers A, B extends A, D extends B and C, all rooted at
// the object class.
func registerChain(t *testing.T, reg *Registry) {
	t.Helper()
	mustRegister(t, reg,
		&TypeDescriptor{Name: "A", Super: ObjectClass},
		&TypeDescriptor{Name: "B", Super: "A"},
		&TypeDescriptor{Name: "C", Super: ObjectClass},
		&TypeDescriptor{Name: "D", Super: "B"},
	)
}
