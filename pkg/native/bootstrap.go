// Package native provides the library types every program relies on,
// implemented in Go and served through a class loader.
package native

import (
	"hash/fnv"

	"github.com/daimatz/jvmcore/pkg/vm"
)

// Class names defined by this package.
const (
	ThrowableClass                = "java/lang/Throwable"
	ExceptionClass                = "java/lang/Exception"
	RuntimeExceptionClass         = "java/lang/RuntimeException"
	NullPointerExceptionClass     = "java/lang/NullPointerException"
	IllegalArgumentExceptionClass = "java/lang/IllegalArgumentException"
	IllegalStateExceptionClass    = "java/lang/IllegalStateException"
	IndexOutOfBoundsClass         = "java/lang/IndexOutOfBoundsException"
	IOExceptionClass              = "java/io/IOException"
)

// Bootstrap returns a class loader defining the native library. Each call
// returns fresh descriptors, so the loader may back one registry only.
func Bootstrap() *vm.MapClassLoader {
	cl := vm.NewMapClassLoader()
	cl.DefineType(objectType())

	cl.DefineType(throwableType())
	for _, e := range []struct{ name, super string }{
		{ExceptionClass, ThrowableClass},
		{RuntimeExceptionClass, ExceptionClass},
		{NullPointerExceptionClass, RuntimeExceptionClass},
		{IllegalArgumentExceptionClass, RuntimeExceptionClass},
		{IllegalStateExceptionClass, RuntimeExceptionClass},
		{IndexOutOfBoundsClass, RuntimeExceptionClass},
		{IOExceptionClass, ExceptionClass},
	} {
		cl.DefineType(exceptionType(e.name, e.super))
	}

	cl.DefineType(systemType())
	cl.DefineType(printStreamType())
	cl.DefineType(integerType())

	cl.DefineInterface(mapInterface())
	cl.DefineType(hashMapType())
	cl.DefineInterface(collectionInterface())
	cl.DefineInterface(listInterface())
	cl.DefineType(arrayListType())
	return cl
}

// NewRegistry returns a registry whose loader serves the native library,
// with the root class already registered. user, if non-nil, is consulted
// for names the native library does not define.
func NewRegistry(user vm.ClassLoader) (*vm.Registry, error) {
	var loader vm.ClassLoader = Bootstrap()
	if user != nil {
		loader = vm.NewDelegatingClassLoader(user, loader)
	}
	reg := vm.NewRegistry(loader)
	if _, err := reg.LoadType(vm.ObjectClass); err != nil {
		return nil, err
	}
	return reg, nil
}

func objectType() *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name: vm.ObjectClass,
		Methods: []*vm.MethodDescriptor{
			{Name: "hashCode", Descriptor: "()I", Body: func(f *vm.Frame) (vm.Value, error) {
				return vm.IntValue(identityHash(f.This)), nil
			}},
			{Name: "equals", Descriptor: "(Ljava/lang/Object;)Z", Body: func(f *vm.Frame) (vm.Value, error) {
				other, _ := f.GetLocal(0).Object()
				return boolValue(other == f.This), nil
			}},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(f *vm.Frame) (vm.Value, error) {
				return vm.RefValue(f.This.String()), nil
			}},
		},
	}
}

func throwableType() *vm.TypeDescriptor {
	t := exceptionType(ThrowableClass, vm.ObjectClass)
	t.Fields = []vm.FieldDescriptor{{Name: "message", Default: vm.NullValue()}}
	t.Methods = append(t.Methods,
		&vm.MethodDescriptor{Name: "getMessage", Descriptor: "()Ljava/lang/String;", Body: func(f *vm.Frame) (vm.Value, error) {
			return f.Field("message")
		}},
		&vm.MethodDescriptor{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(f *vm.Frame) (vm.Value, error) {
			msg, err := f.Field("message")
			if err != nil || msg.IsNull() {
				return vm.RefValue(f.This.ClassName()), err
			}
			return vm.RefValue(f.This.ClassName() + ": " + msg.String()), nil
		}},
	)
	return t
}

// exceptionType declares a throwable class with a message constructor.
// The no-argument constructor leaves the message null.
func exceptionType(name, super string) *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name:  name,
		Super: super,
		Methods: []*vm.MethodDescriptor{
			{Name: vm.ConstructorName, Descriptor: "(Ljava/lang/String;)V", Body: func(f *vm.Frame) (vm.Value, error) {
				return vm.Value{}, f.SetField("message", f.GetLocal(0))
			}},
		},
	}
}

func boolValue(b bool) vm.Value {
	if b {
		return vm.IntValue(1)
	}
	return vm.IntValue(0)
}

// identityHash derives a stable hash from the object's identity.
func identityHash(obj *vm.JObject) int32 {
	if obj == nil {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(obj.String()))
	return int32(h.Sum32())
}
