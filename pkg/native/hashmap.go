package native

import (
	"fmt"

	"github.com/daimatz/jvmcore/pkg/vm"
)

const (
	MapInterface = "java/util/Map"
	HashMapClass = "java/util/HashMap"
)

// NativeHashMap represents a java.util.HashMap.
type NativeHashMap struct {
	Data map[interface{}]interface{}
}

// NewNativeHashMap creates a new NativeHashMap.
func NewNativeHashMap() *NativeHashMap {
	return &NativeHashMap{Data: make(map[interface{}]interface{})}
}

// NewHashMap is an alias for NewNativeHashMap (used by tests).
func NewHashMap() *NativeHashMap {
	return NewNativeHashMap()
}

// Get returns the value for the given key.
// If key is a *NativeInteger, its Value (int32) is used as the map key.
func (m *NativeHashMap) Get(key interface{}) interface{} {
	return m.Data[normalizeKey(key)]
}

// Put stores a key-value pair and returns the previous value.
// If key is a *NativeInteger, its Value (int32) is used as the map key.
func (m *NativeHashMap) Put(key, value interface{}) interface{} {
	k := normalizeKey(key)
	old := m.Data[k]
	m.Data[k] = value
	return old
}

// Len returns the number of entries.
func (m *NativeHashMap) Len() int {
	return len(m.Data)
}

func normalizeKey(key interface{}) interface{} {
	switch k := key.(type) {
	case *NativeInteger:
		return k.Value
	case *vm.JObject:
		if i, ok := k.Native.(*NativeInteger); ok {
			return i.Value
		}
	case vm.Value:
		if i, ok := Unbox(k); ok {
			return i
		}
		if k.IsNull() {
			return nil
		}
		if k.Type == vm.TypeFloat {
			return k.Float
		}
		return normalizeKey(k.Ref)
	}
	return key
}

func mapInterface() *vm.InterfaceDescriptor {
	return &vm.InterfaceDescriptor{
		Name: MapInterface,
		Methods: []vm.Signature{
			{Name: "get", Descriptor: "(Ljava/lang/Object;)Ljava/lang/Object;"},
			{Name: "put", Descriptor: "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"},
			{Name: "size", Descriptor: "()I"},
		},
	}
}

func hashMapType() *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name:       HashMapClass,
		Super:      vm.ObjectClass,
		Interfaces: []string{MapInterface},
		Methods: []*vm.MethodDescriptor{
			{Name: vm.ConstructorName, Descriptor: "()V", Body: func(f *vm.Frame) (vm.Value, error) {
				f.This.Native = NewNativeHashMap()
				return vm.Value{}, nil
			}},
			{Name: "get", Descriptor: "(Ljava/lang/Object;)Ljava/lang/Object;", Body: func(f *vm.Frame) (vm.Value, error) {
				m, err := nativeHashMap(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return storedValue(m.Get(f.GetLocal(0))), nil
			}},
			{Name: "put", Descriptor: "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", Body: func(f *vm.Frame) (vm.Value, error) {
				m, err := nativeHashMap(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return storedValue(m.Put(f.GetLocal(0), f.GetLocal(1))), nil
			}},
			{Name: "size", Descriptor: "()I", Body: func(f *vm.Frame) (vm.Value, error) {
				m, err := nativeHashMap(f.This)
				if err != nil {
					return vm.Value{}, err
				}
				return vm.IntValue(int32(m.Len())), nil
			}},
		},
	}
}

func nativeHashMap(obj *vm.JObject) (*NativeHashMap, error) {
	m, ok := obj.Native.(*NativeHashMap)
	if !ok {
		return nil, fmt.Errorf("%s: object has no storage", HashMapClass)
	}
	return m, nil
}

// storedValue turns a missing entry into null.
func storedValue(v interface{}) vm.Value {
	if stored, ok := v.(vm.Value); ok {
		return stored
	}
	return vm.NullValue()
}
