package vm

import (
	"fmt"
	"strconv"
)

// ValueType represents the type of a Value held in a field, argument or return slot.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeRef
	TypeNull
	TypeFloat
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeRef:
		return "ref"
	case TypeNull:
		return "null"
	case TypeFloat:
		return "float"
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

// Value represents a field, argument or return value.
type Value struct {
	Type  ValueType
	Int   int32
	Float float32
	Ref   interface{}
}

// IntValue creates an integer Value.
func IntValue(v int32) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatValue creates a float Value.
func FloatValue(v float32) Value {
	return Value{Type: TypeFloat, Float: v}
}

// RefValue creates a reference Value.
func RefValue(ref interface{}) Value {
	if ref == nil {
		return NullValue()
	}
	return Value{Type: TypeRef, Ref: ref}
}

// NullValue creates a null reference Value.
func NullValue() Value {
	return Value{Type: TypeNull}
}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Type == TypeNull || (v.Type == TypeRef && v.Ref == nil)
}

// Object returns the object v refers to, if any.
func (v Value) Object() (*JObject, bool) {
	if v.Type != TypeRef {
		return nil, false
	}
	obj, ok := v.Ref.(*JObject)
	return obj, ok
}

func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.Itoa(int(v.Int))
	case TypeFloat:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	case TypeNull:
		return "null"
	}
	switch r := v.Ref.(type) {
	case string:
		return r
	case *JObject:
		return r.String()
	}
	return fmt.Sprint(v.Ref)
}

// Frame is the activation record of a method body.
type Frame struct {
	VM        *VM
	Method    *MethodDescriptor
	This      *JObject
	LocalVars []Value
}

// NewFrame creates a new Frame with the arguments stored as local variables.
func NewFrame(vm *VM, method *MethodDescriptor, this *JObject, args []Value) *Frame {
	locals := make([]Value, len(args))
	copy(locals, args)
	return &Frame{
		VM:        vm,
		Method:    method,
		This:      this,
		LocalVars: locals,
	}
}

// GetLocal returns the value at the given local variable index.
func (f *Frame) GetLocal(index int) Value {
	if index < 0 || index >= len(f.LocalVars) {
		panic(fmt.Sprintf("local variable index out of range: index=%d, max=%d", index, len(f.LocalVars)))
	}
	return f.LocalVars[index]
}

// SetLocal sets the value at the given local variable index.
func (f *Frame) SetLocal(index int, v Value) {
	if index < 0 || index >= len(f.LocalVars) {
		panic(fmt.Sprintf("local variable index out of range: index=%d, max=%d", index, len(f.LocalVars)))
	}
	f.LocalVars[index] = v
}

// Invoke calls a virtual method on obj.
func (f *Frame) Invoke(obj *JObject, name, descriptor string, args ...Value) (Value, error) {
	return f.VM.Invoke(obj, name, descriptor, args...)
}

// InvokeSuper calls the implementation inherited by the current method's
// declaring type, bypassing overrides in the receiver's class.
func (f *Frame) InvokeSuper(name, descriptor string, args ...Value) (Value, error) {
	if f.Method == nil || f.Method.owner == nil || f.This == nil {
		return Value{}, fmt.Errorf("invokesuper: %s%s called outside an instance method", name, descriptor)
	}
	super := f.Method.owner.super
	if super == nil {
		return Value{}, NewDispatchNotFoundError(f.Method.owner.Name, name, descriptor)
	}
	return f.VM.InvokeSpecial(super, f.This, name, descriptor, args...)
}

// Field reads a field of the receiver, falling back to enclosing instances.
func (f *Frame) Field(name string) (Value, error) {
	if f.This == nil {
		return Value{}, fmt.Errorf("getfield: %s accessed from a static context", name)
	}
	v, _, ok := f.This.Lookup(name)
	if !ok {
		return Value{}, fmt.Errorf("getfield: no field %s in %s or its enclosing instances", name, f.This.ClassName())
	}
	return v, nil
}

// SetField writes a field on the receiver or on the enclosing instance
// that declares it.
func (f *Frame) SetField(name string, v Value) error {
	if f.This == nil {
		return fmt.Errorf("putfield: %s accessed from a static context", name)
	}
	_, holder, ok := f.This.Lookup(name)
	if !ok {
		return fmt.Errorf("putfield: no field %s in %s or its enclosing instances", name, f.This.ClassName())
	}
	holder.Fields[name] = v
	return nil
}
