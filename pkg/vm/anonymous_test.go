package vm

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func registerComparator(t *testing.T, reg *Registry) {
	t.Helper()
	mustRegisterInterface(t, reg,
		&InterfaceDescriptor{Name: "Named", Methods: []Signature{{Name: "name", Descriptor: "()Ljava/lang/String;"}}},
		&InterfaceDescriptor{Name: "Comparator", Extends: []string{"Named"}, Methods: []Signature{
			{Name: "compare", Descriptor: "(II)I"},
			{Name: "compare", Descriptor: "(FF)I"},
		}},
	)
}

func TestSynthesize(t *testing.T) {
	v, _ := newTestVM(t)
	registerComparator(t, v.Registry)
	mustRegister(t, v.Registry, &TypeDescriptor{Name: "Sorter", Super: ObjectClass})

	calls := 0
	spec := AnonymousClass{
		Interface: "Comparator",
		Enclosing: "Sorter",
		Methods: map[string]MethodFunc{
			"name": constString("byValue"),
			"compare(II)I": func(f *Frame) (Value, error) {
				calls++
				return IntValue(f.GetLocal(0).Int - f.GetLocal(1).Int), nil
			},
			"compare": func(f *Frame) (Value, error) {
				return IntValue(int32(f.GetLocal(0).Float - f.GetLocal(1).Float)), nil
			},
		},
	}

	td, err := v.Registry.Synthesize(spec)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if td.Name != "Sorter$1" {
		t.Errorf("name: got %q, want %q", td.Name, "Sorter$1")
	}
	if !td.Anonymous() {
		t.Error("Anonymous(): got false")
	}
	if _, ok := v.Registry.Type(td.Name); ok {
		t.Error("anonymous type registered globally")
	}

	obj, err := v.Instantiate(td, nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	for _, name := range []string{"Comparator", "Named", ObjectClass, td.Name} {
		if !InstanceOf(obj, name) {
			t.Errorf("InstanceOf(anon, %s): got false, want true", name)
		}
	}
	if InstanceOf(obj, "Sorter") {
		t.Error("InstanceOf(anon, Sorter): got true, want false")
	}

	got, err := v.Invoke(obj, "compare", "(II)I", IntValue(9), IntValue(4))
	if err != nil || got.Int != 5 {
		t.Errorf("compare(II)I: got %v, %v; want 5", got, err)
	}
	got, err = v.Invoke(obj, "compare", "(FF)I", FloatValue(1), FloatValue(4))
	if err != nil || got.Int != -3 {
		t.Errorf("compare(FF)I: got %v, %v; want -3", got, err)
	}
	if calls != 1 {
		t.Errorf("exact-key body calls: got %d, want 1", calls)
	}

	second, err := v.Registry.Synthesize(spec)
	if err != nil {
		t.Fatalf("second Synthesize: %v", err)
	}
	if second.Name != "Sorter$2" {
		t.Errorf("second name: got %q, want %q", second.Name, "Sorter$2")
	}
}

func TestSynthesizeIncomplete(t *testing.T) {
	reg := NewRegistry(nil)
	mustRegister(t, reg, &TypeDescriptor{Name: ObjectClass})
	registerComparator(t, reg)

	_, err := reg.Synthesize(AnonymousClass{
		Interface: "Comparator",
		Methods: map[string]MethodFunc{
			"compare(II)I": constInt(0),
		},
	})
	var iie *IncompleteImplementationError
	if !errors.As(err, &iie) {
		t.Fatalf("got %v, want IncompleteImplementationError", err)
	}
	want := []string{"compare(FF)I", "name()Ljava/lang/String;"}
	if !reflect.DeepEqual(iie.Missing, want) {
		t.Errorf("missing: got %v, want %v", iie.Missing, want)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	reg := NewRegistry(nil)
	mustRegister(t, reg, &TypeDescriptor{Name: ObjectClass})
	mustRegisterInterface(t, reg, &InterfaceDescriptor{Name: "Runnable", Methods: []Signature{{Name: "run", Descriptor: "()V"}}})

	t.Run("unknown interface", func(t *testing.T) {
		_, err := reg.Synthesize(AnonymousClass{Interface: "Nope"})
		var ue *UnknownSupertypeError
		if !errors.As(err, &ue) {
			t.Errorf("got %v, want UnknownSupertypeError", err)
		}
	})

	t.Run("extra method", func(t *testing.T) {
		_, err := reg.Synthesize(AnonymousClass{Interface: "Runnable", Methods: map[string]MethodFunc{
			"run":  noop,
			"stop": noop,
		}})
		if err == nil {
			t.Error("expected error for a method the interface does not declare")
		}
	})

	t.Run("nil body counts as missing", func(t *testing.T) {
		_, err := reg.Synthesize(AnonymousClass{Interface: "Runnable", Methods: map[string]MethodFunc{"run": nil}})
		var iie *IncompleteImplementationError
		if !errors.As(err, &iie) {
			t.Errorf("got %v, want IncompleteImplementationError", err)
		}
	})

	t.Run("unique names without enclosing type", func(t *testing.T) {
		a, err := reg.Synthesize(AnonymousClass{Interface: "Runnable", Methods: map[string]MethodFunc{"run": noop}})
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		b, err := reg.Synthesize(AnonymousClass{Interface: "Runnable", Methods: map[string]MethodFunc{"run": noop}})
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if a.Name == b.Name {
			t.Errorf("names collide: %q", a.Name)
		}
		if !strings.HasPrefix(a.Name, "Runnable$$Anonymous$") {
			t.Errorf("name: got %q", a.Name)
		}
	})
}

func TestAnonymousCapturesEnclosingState(t *testing.T) {
	v, _ := newTestVM(t)
	mustRegisterInterface(t, v.Registry, &InterfaceDescriptor{Name: "Counter", Methods: []Signature{{Name: "next", Descriptor: "()I"}}})
	mustRegister(t, v.Registry, &TypeDescriptor{Name: "Host", Super: ObjectClass, Fields: []FieldDescriptor{{Name: "step", Default: IntValue(10)}}})
	host := mustNew(t, v, "Host")

	byRef := int32(0)
	byValue := byRef
	obj, err := v.NewAnonymous(AnonymousClass{
		Interface: "Counter",
		Enclosing: "Host",
		Methods: map[string]MethodFunc{
			"next": func(f *Frame) (Value, error) {
				step, err := f.Field("step")
				if err != nil {
					return Value{}, err
				}
				byRef += step.Int
				return IntValue(byRef + byValue), nil
			},
		},
	}, host)
	if err != nil {
		t.Fatalf("NewAnonymous: %v", err)
	}
	if obj.Outer != host {
		t.Error("enclosing instance not bound")
	}

	byValue = 1000
	for _, want := range []int32{10, 20} {
		got, err := v.Invoke(obj, "next", "()I")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got.Int != want+1000 {
			t.Errorf("next: got %d, want %d", got.Int, want+1000)
		}
	}
	if byRef != 20 {
		t.Errorf("captured-by-reference variable: got %d, want 20", byRef)
	}

	t.Run("static context", func(t *testing.T) {
		obj, err := v.NewAnonymous(AnonymousClass{
			Interface: "Counter",
			Enclosing: "Host",
			Methods:   map[string]MethodFunc{"next": constInt(1)},
		}, nil)
		if err != nil {
			t.Fatalf("NewAnonymous without enclosing instance: %v", err)
		}
		if obj.Outer != nil {
			t.Error("unexpected enclosing instance")
		}
	})
}
