package native

import (
	"fmt"

	"github.com/daimatz/jvmcore/pkg/vm"
)

const (
	CollectionInterface = "java/util/Collection"
	ListInterface       = "java/util/List"
	ArrayListClass      = "java/util/ArrayList"
)

// NativeArrayList represents a java.util.ArrayList.
type NativeArrayList struct {
	Elements []vm.Value
}

func collectionInterface() *vm.InterfaceDescriptor {
	return &vm.InterfaceDescriptor{
		Name: CollectionInterface,
		Methods: []vm.Signature{
			{Name: "add", Descriptor: "(Ljava/lang/Object;)Z"},
			{Name: "size", Descriptor: "()I"},
		},
	}
}

func listInterface() *vm.InterfaceDescriptor {
	return &vm.InterfaceDescriptor{
		Name:    ListInterface,
		Extends: []string{CollectionInterface},
		Methods: []vm.Signature{
			{Name: "get", Descriptor: "(I)Ljava/lang/Object;"},
		},
	}
}

func arrayListType() *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name:       ArrayListClass,
		Super:      vm.ObjectClass,
		Interfaces: []string{ListInterface},
		Methods: []*vm.MethodDescriptor{
			{Name: vm.ConstructorName, Descriptor: "()V", Body: func(f *vm.Frame) (vm.Value, error) {
				f.This.Native = &NativeArrayList{}
				return vm.Value{}, nil
			}},
			{Name: "add", Descriptor: "(Ljava/lang/Object;)Z", Body: func(f *vm.Frame) (vm.Value, error) {
				l, err := nativeArrayList(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				l.Elements = append(l.Elements, f.GetLocal(0))
				return boolValue(true), nil
			}},
			{Name: "addAll", Descriptor: "([Ljava/lang/Object;)Z", Body: func(f *vm.Frame) (vm.Value, error) {
				l, err := nativeArrayList(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				arr, ok := f.GetLocal(0).Ref.(*vm.JArray)
				if !ok {
					return vm.Value{}, f.VM.Throw(NullPointerExceptionClass, "addAll: null array")
				}
				l.Elements = append(l.Elements, arr.Elements...)
				return boolValue(len(arr.Elements) > 0), nil
			}},
			{Name: "get", Descriptor: "(I)Ljava/lang/Object;", Body: func(f *vm.Frame) (vm.Value, error) {
				l, err := nativeArrayList(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				i := int(f.GetLocal(0).Int)
				if i < 0 || i >= len(l.Elements) {
					return vm.Value{}, f.VM.Throw(IndexOutOfBoundsClass, fmt.Sprintf("Index %d out of bounds for length %d", i, len(l.Elements)))
				}
				return l.Elements[i], nil
			}},
			{Name: "size", Descriptor: "()I", Body: func(f *vm.Frame) (vm.Value, error) {
				l, err := nativeArrayList(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return vm.IntValue(int32(len(l.Elements))), nil
			}},
		},
	}
}

func nativeArrayList(obj *vm.JObject) (*NativeArrayList, error) {
	l, ok := obj.Native.(*NativeArrayList)
	if !ok {
		return nil, fmt.Errorf("%s: object has no storage", ArrayListClass)
	}
	return l, nil
}

// Elements returns the objects held by a java/util/ArrayList.
func Elements(list *vm.JObject) ([]*vm.JObject, error) {
	l, err := nativeArrayList(list)
	if err != nil {
		return nil, err
	}
	out := make([]*vm.JObject, 0, len(l.Elements))
	for _, e := range l.Elements {
		obj, _ := e.Object()
		out = append(out, obj)
	}
	return out, nil
}
