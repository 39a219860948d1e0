package vm

import "fmt"

// JObject represents an object instance.
type JObject struct {
	Class  *TypeDescriptor
	Fields map[string]Value
	// Outer is the enclosing instance of an inner class instance. It is a
	// lookup association only and does not own the enclosing object.
	Outer *JObject
	// Native holds Go-side state for library types.
	Native interface{}
}

// JArray represents a reference array.
type JArray struct {
	Elements []Value
}

// ClassName returns the name of the object's runtime type.
func (o *JObject) ClassName() string {
	if o.Class == nil {
		return ""
	}
	return o.Class.Name
}

// Lookup finds a field on the object or, failing that, on its enclosing
// instances. It returns the object that holds the field.
func (o *JObject) Lookup(name string) (Value, *JObject, bool) {
	for c := o; c != nil; c = c.Outer {
		if v, ok := c.Fields[name]; ok {
			return v, c, true
		}
	}
	return Value{}, nil, false
}

func (o *JObject) String() string {
	return fmt.Sprintf("%s@%p", o.ClassName(), o)
}
