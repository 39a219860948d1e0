package vm

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegisterCycle(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		reg := NewRegistry(nil)
		err := reg.Register(&TypeDescriptor{Name: "Self", Super: "Self"})
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("got %v, want CycleError", err)
		}
		if len(reg.Types()) != 0 {
			t.Errorf("registry changed: %v", reg.Types())
		}
	})

	t.Run("transitive", func(t *testing.T) {
		reg := NewRegistry(nil)
		registerRoot := &TypeDescriptor{Name: "A"}
		mustRegister(t, reg, registerRoot,
			&TypeDescriptor{Name: "B", Super: "A"},
			&TypeDescriptor{Name: "C", Super: "B"},
		)
		before := reg.Types()

		err := reg.Register(&TypeDescriptor{Name: "A", Super: "C"})
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("got %v, want CycleError", err)
		}
		wantPath := []string{"A", "C", "B", "A"}
		if !reflect.DeepEqual(ce.Path, wantPath) {
			t.Errorf("cycle path: got %v, want %v", ce.Path, wantPath)
		}
		if !reflect.DeepEqual(reg.Types(), before) {
			t.Errorf("registry changed: got %v, want %v", reg.Types(), before)
		}
		if got, _ := reg.Type("A"); got != registerRoot {
			t.Error("original A replaced")
		}
	})

	t.Run("interface extends itself", func(t *testing.T) {
		reg := NewRegistry(nil)
		mustRegisterInterface(t, reg, &InterfaceDescriptor{Name: "I"}, &InterfaceDescriptor{Name: "J", Extends: []string{"I"}})
		err := reg.RegisterInterface(&InterfaceDescriptor{Name: "I", Extends: []string{"J"}})
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("got %v, want CycleError", err)
		}
	})
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry(nil)
	mustRegister(t, reg, &TypeDescriptor{Name: ObjectClass})
	mustRegisterInterface(t, reg, &InterfaceDescriptor{Name: "Runnable", Methods: []Signature{{Name: "run", Descriptor: "()V"}}})

	tests := []struct {
		name    string
		td      *TypeDescriptor
		wantErr interface{}
	}{
		{"unknown supertype", &TypeDescriptor{Name: "X", Super: "Nope"}, &UnknownSupertypeError{}},
		{"unknown interface", &TypeDescriptor{Name: "X", Super: ObjectClass, Interfaces: []string{"Nope"}}, &UnknownSupertypeError{}},
		{"duplicate", &TypeDescriptor{Name: ObjectClass}, &DuplicateTypeError{}},
		{"name clashes with interface", &TypeDescriptor{Name: "Runnable"}, &DuplicateTypeError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.td)
			target := reflect.New(reflect.TypeOf(tt.wantErr)).Interface()
			if !errors.As(err, target) {
				t.Errorf("got %v, want %T", err, tt.wantErr)
			}
		})
	}

	invalid := []struct {
		name string
		td   *TypeDescriptor
	}{
		{"empty name", &TypeDescriptor{}},
		{"duplicate method", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{
			{Name: "m", Descriptor: "()V", Body: noop},
			{Name: "m", Descriptor: "()V", Body: noop},
		}}},
		{"bad descriptor", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{{Name: "m", Descriptor: "(Q)V", Body: noop}}}},
		{"missing return type", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{{Name: "m", Descriptor: "()", Body: noop}}}},
		{"concrete without body", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{{Name: "m", Descriptor: "()V"}}}},
		{"abstract with body", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{{Name: "m", Descriptor: "()V", Abstract: true, Body: noop}}}},
		{"abstract static", &TypeDescriptor{Name: "X", Methods: []*MethodDescriptor{{Name: "m", Descriptor: "()V", Abstract: true, Static: true}}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.td); err == nil {
				t.Error("expected error, got nil")
			}
			if _, ok := reg.Type("X"); ok {
				t.Error("X registered despite error")
			}
		})
	}
}

func TestRegistryLinking(t *testing.T) {
	reg := NewRegistry(nil)
	registerChain(t, reg)

	d, _ := reg.Type("D")
	var names []string
	for _, c := range d.Ancestry() {
		names = append(names, c.Name)
	}
	want := []string{"D", "B", "A", ObjectClass}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ancestry: got %v, want %v", names, want)
	}

	if got := reg.Types(); !reflect.DeepEqual(got, []string{"A", "B", "C", "D", ObjectClass}) {
		t.Errorf("Types(): got %v", got)
	}
}

func TestInterfaceAbstractMethods(t *testing.T) {
	reg := NewRegistry(nil)
	mustRegisterInterface(t, reg,
		&InterfaceDescriptor{Name: "Sized", Methods: []Signature{{Name: "size", Descriptor: "()I"}}},
		&InterfaceDescriptor{Name: "Named", Methods: []Signature{{Name: "name", Descriptor: "()Ljava/lang/String;"}}},
		&InterfaceDescriptor{Name: "Item", Extends: []string{"Sized", "Named"}, Methods: []Signature{
			{Name: "size", Descriptor: "()I"},
			{Name: "weight", Descriptor: "()I"},
		}},
	)
	item, _ := reg.Interface("Item")
	got := item.AbstractMethods()
	want := []Signature{
		{Name: "size", Descriptor: "()I"},
		{Name: "weight", Descriptor: "()I"},
		{Name: "name", Descriptor: "()Ljava/lang/String;"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AbstractMethods: got %v, want %v", got, want)
	}
}

func TestCountParams(t *testing.T) {
	tests := []struct {
		desc string
		want int
	}{
		{"()V", 0},
		{"(I)I", 1},
		{"(IJ)V", 2},
		{"(Ljava/lang/String;)V", 1},
		{"([Ljava/lang/String;)V", 1},
		{"([[I[Ljava/lang/Object;F)Z", 3},
	}
	for _, tt := range tests {
		got, err := countParams(tt.desc)
		if err != nil {
			t.Errorf("countParams(%q): %v", tt.desc, err)
			continue
		}
		if got != tt.want {
			t.Errorf("countParams(%q): got %d, want %d", tt.desc, got, tt.want)
		}
	}

	for _, bad := range []string{"", "I", "(I", "(Ljava/lang/String)V", "(I)"} {
		if _, err := countParams(bad); err == nil {
			t.Errorf("countParams(%q): expected error", bad)
		}
	}
}
