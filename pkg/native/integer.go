package native

import (
	"fmt"
	"math"

	"github.com/daimatz/jvmcore/pkg/vm"
)

const IntegerClass = "java/lang/Integer"

// Boxed values in this range are shared, as Integer.valueOf does.
const (
	integerCacheLow  = -128
	integerCacheHigh = 127
)

// NativeInteger represents a java.lang.Integer.
type NativeInteger struct {
	Value int32
}

// IntegerValueOf creates a NativeInteger (boxing).
func IntegerValueOf(v int32) *NativeInteger {
	return &NativeInteger{Value: v}
}

// IntegerIntValue returns the int32 value of a NativeInteger (unboxing).
func IntegerIntValue(ni *NativeInteger) int32 {
	return ni.Value
}

func integerType() *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name:  IntegerClass,
		Super: vm.ObjectClass,
		Statics: []vm.StaticField{
			{Name: "MAX_VALUE", Value: vm.IntValue(math.MaxInt32)},
			{Name: "MIN_VALUE", Value: vm.IntValue(math.MinInt32)},
			{Name: "cache", Init: func(*vm.Frame) (vm.Value, error) {
				return vm.RefValue(&vm.JArray{Elements: make([]vm.Value, integerCacheHigh-integerCacheLow+1)}), nil
			}},
		},
		Methods: []*vm.MethodDescriptor{
			{Name: vm.ConstructorName, Descriptor: "(I)V", Body: func(f *vm.Frame) (vm.Value, error) {
				f.This.Native = IntegerValueOf(f.GetLocal(0).Int)
				return vm.Value{}, nil
			}},
			{Name: "valueOf", Descriptor: "(I)Ljava/lang/Integer;", Static: true, Body: integerValueOf},
			{Name: "intValue", Descriptor: "()I", Body: func(f *vm.Frame) (vm.Value, error) {
				i, err := nativeInteger(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return vm.IntValue(IntegerIntValue(i)), nil
			}},
			{Name: "hashCode", Descriptor: "()I", Body: func(f *vm.Frame) (vm.Value, error) {
				i, err := nativeInteger(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return vm.IntValue(i.Value), nil
			}},
			{Name: "equals", Descriptor: "(Ljava/lang/Object;)Z", Body: func(f *vm.Frame) (vm.Value, error) {
				other, ok := Unbox(f.GetLocal(0))
				self, err := nativeInteger(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return boolValue(ok && other == self.Value), nil
			}},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(f *vm.Frame) (vm.Value, error) {
				i, err := nativeInteger(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return vm.RefValue(fmt.Sprint(i.Value)), nil
			}},
		},
	}
}

func integerValueOf(f *vm.Frame) (vm.Value, error) {
	n := f.GetLocal(0).Int
	if n < integerCacheLow || n > integerCacheHigh {
		obj, err := f.VM.New(IntegerClass, vm.IntValue(n))
		if err != nil {
			return vm.Value{}, err
		}
		return vm.RefValue(obj), nil
	}

	cacheRef, err := f.VM.GetStatic(IntegerClass, "cache")
	if err != nil {
		return vm.Value{}, err
	}
	cache := cacheRef.Ref.(*vm.JArray)
	slot := &cache.Elements[n-integerCacheLow]
	if slot.Type != vm.TypeRef {
		obj, err := f.VM.New(IntegerClass, vm.IntValue(n))
		if err != nil {
			return vm.Value{}, err
		}
		*slot = vm.RefValue(obj)
	}
	return *slot, nil
}

func nativeInteger(obj *vm.JObject) (*NativeInteger, error) {
	i, ok := obj.Native.(*NativeInteger)
	if !ok {
		return nil, fmt.Errorf("%s: object has no value", IntegerClass)
	}
	return i, nil
}

// Box returns Integer.valueOf(n).
func Box(v *vm.VM, n int32) (*vm.JObject, error) {
	boxed, err := v.InvokeStatic(IntegerClass, "valueOf", "(I)Ljava/lang/Integer;", vm.IntValue(n))
	if err != nil {
		return nil, err
	}
	obj, _ := boxed.Object()
	return obj, nil
}

// Unbox returns the int held by an int value or an Integer reference.
func Unbox(v vm.Value) (int32, bool) {
	if v.Type == vm.TypeInt {
		return v.Int, true
	}
	obj, ok := v.Object()
	if !ok {
		return 0, false
	}
	i, ok := obj.Native.(*NativeInteger)
	if !ok {
		return 0, false
	}
	return i.Value, true
}
