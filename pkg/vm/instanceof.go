package vm

// InstanceOf reports whether obj's runtime type is the named type, has it
// as an ancestor, or implements it directly or transitively. Only the
// object's runtime type is inspected. A nil object is an instance of nothing.
func InstanceOf(obj *JObject, name string) bool {
	if obj == nil || obj.Class == nil {
		return false
	}
	return IsAssignable(obj.Class, name)
}

// IsAssignable reports whether a value of type t may be used where the
// named type or interface is expected.
func IsAssignable(t *TypeDescriptor, name string) bool {
	for c := t; c != nil; c = c.super {
		if c.Name == name {
			return true
		}
		for _, i := range c.interfaces {
			if extendsInterface(i, name) {
				return true
			}
		}
	}
	return false
}

func extendsInterface(i *InterfaceDescriptor, name string) bool {
	if i.Name == name {
		return true
	}
	for _, parent := range i.extends {
		if extendsInterface(parent, name) {
			return true
		}
	}
	return false
}
