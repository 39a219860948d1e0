package vm

import (
	"errors"
	"testing"
)

func TestFrameLocals(t *testing.T) {
	t.Run("arguments become locals", func(t *testing.T) {
		frame := NewFrame(nil, nil, nil, []Value{IntValue(10), IntValue(20)})

		if v := frame.GetLocal(0); v.Int != 10 {
			t.Errorf("local 0: got %d, want 10", v.Int)
		}
		if v := frame.GetLocal(1); v.Int != 20 {
			t.Errorf("local 1: got %d, want 20", v.Int)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		frame := NewFrame(nil, nil, nil, []Value{IntValue(1)})
		frame.SetLocal(0, IntValue(99))

		if v := frame.GetLocal(0); v.Int != 99 {
			t.Errorf("local 0 after set: got %d, want 99", v.Int)
		}
	})

	t.Run("caller slice is not aliased", func(t *testing.T) {
		args := []Value{IntValue(1)}
		frame := NewFrame(nil, nil, nil, args)
		frame.SetLocal(0, IntValue(2))

		if args[0].Int != 1 {
			t.Errorf("caller arg: got %d, want 1", args[0].Int)
		}
	})

	t.Run("out of range panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for out-of-range local")
			}
		}()
		NewFrame(nil, nil, nil, nil).GetLocal(0)
	})
}

func TestValueString(t *testing.T) {
	obj := &JObject{Class: &TypeDescriptor{Name: "Point"}, Fields: map[string]Value{}}
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", IntValue(-7), "-7"},
		{"float", FloatValue(25), "25"},
		{"string", RefValue("hi"), "hi"},
		{"null", NullValue(), "null"},
		{"nil ref is null", RefValue(nil), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String(): got %q, want %q", got, tt.want)
			}
		})
	}

	if got, ok := RefValue(obj).Object(); !ok || got != obj {
		t.Errorf("Object(): got %v, %v; want the object", got, ok)
	}
	if _, ok := IntValue(1).Object(); ok {
		t.Error("Object() on int: got ok, want !ok")
	}
}

func TestFrameInvokeSuper(t *testing.T) {
	v, _ := newTestVM(t)
	mustRegister(t, v.Registry,
		&TypeDescriptor{Name: "Base", Super: ObjectClass, Methods: []*MethodDescriptor{
			{Name: "describe", Descriptor: "()Ljava/lang/String;", Body: constString("base")},
		}},
		&TypeDescriptor{Name: "Derived", Super: "Base", Methods: []*MethodDescriptor{
			{Name: "describe", Descriptor: "()Ljava/lang/String;", Body: func(f *Frame) (Value, error) {
				parent, err := f.InvokeSuper("describe", "()Ljava/lang/String;")
				if err != nil {
					return Value{}, err
				}
				return RefValue("derived+" + parent.String()), nil
			}},
		}},
	)

	obj := mustNew(t, v, "Derived")
	got, err := v.Invoke(obj, "describe", "()Ljava/lang/String;")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.String() != "derived+base" {
		t.Errorf("describe: got %q, want %q", got.String(), "derived+base")
	}

	t.Run("no super implementation", func(t *testing.T) {
		mustRegister(t, v.Registry, &TypeDescriptor{Name: "Lonely", Super: ObjectClass, Methods: []*MethodDescriptor{
			{Name: "run", Descriptor: "()V", Body: func(f *Frame) (Value, error) {
				return f.InvokeSuper("run", "()V")
			}},
		}})
		obj := mustNew(t, v, "Lonely")
		_, err := v.Invoke(obj, "run", "()V")
		var dnf *DispatchNotFoundError
		if !errors.As(err, &dnf) {
			t.Fatalf("got %v, want DispatchNotFoundError", err)
		}
	})
}

func TestFrameFieldThroughEnclosingInstance(t *testing.T) {
	v, _ := newTestVM(t)
	mustRegister(t, v.Registry,
		&TypeDescriptor{Name: "Outer", Super: ObjectClass, Fields: []FieldDescriptor{{Name: "base", Default: IntValue(100)}}},
		&TypeDescriptor{Name: "Outer$Inner", Super: ObjectClass, Outer: "Outer",
			Fields: []FieldDescriptor{{Name: "value", Default: IntValue(5)}},
			Methods: []*MethodDescriptor{
				{Name: "total", Descriptor: "()I", Body: func(f *Frame) (Value, error) {
					base, err := f.Field("base")
					if err != nil {
						return Value{}, err
					}
					value, err := f.Field("value")
					if err != nil {
						return Value{}, err
					}
					return IntValue(base.Int + value.Int), nil
				}},
				{Name: "bump", Descriptor: "()V", Body: func(f *Frame) (Value, error) {
					return Value{}, f.SetField("base", IntValue(200))
				}},
			}},
	)

	outer := mustNew(t, v, "Outer")
	inner, err := v.NewInner("Outer$Inner", outer)
	if err != nil {
		t.Fatalf("NewInner: %v", err)
	}

	got, err := v.Invoke(inner, "total", "()I")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if got.Int != 105 {
		t.Errorf("total: got %d, want 105", got.Int)
	}

	if _, err := v.Invoke(inner, "bump", "()V"); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if outer.Fields["base"].Int != 200 {
		t.Errorf("outer base after bump: got %d, want 200", outer.Fields["base"].Int)
	}
	if _, ok := inner.Fields["base"]; ok {
		t.Error("bump created field base on the inner instance")
	}

	t.Run("missing field", func(t *testing.T) {
		f := NewFrame(v, nil, inner, nil)
		if _, err := f.Field("nope"); err == nil {
			t.Error("expected error for missing field")
		}
	})
}
