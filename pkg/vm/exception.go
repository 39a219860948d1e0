package vm

import (
	"fmt"
	"strings"
)

// JavaException represents an exception object thrown by a method body.
type JavaException struct {
	Object *JObject
}

func (e *JavaException) Error() string {
	if msg, ok := e.Object.Fields["message"]; ok && !msg.IsNull() {
		return fmt.Sprintf("JavaException: %s: %s", e.Object.ClassName(), msg)
	}
	return fmt.Sprintf("JavaException: %s", e.Object.ClassName())
}

// CycleError is returned when registering a type would make it its own ancestor.
type CycleError struct {
	Type string
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("type %s: supertype cycle %s", e.Type, strings.Join(e.Path, " -> "))
}

func NewCycleError(typeName string, path []string) *CycleError {
	return &CycleError{Type: typeName, Path: path}
}

// UnknownSupertypeError is returned when a declared supertype, interface or
// superinterface is not registered and cannot be loaded.
type UnknownSupertypeError struct {
	Type    string
	Missing string
	Cause   error
}

func (e *UnknownSupertypeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("type %s: unknown supertype %s: %v", e.Type, e.Missing, e.Cause)
	}
	return fmt.Sprintf("type %s: unknown supertype %s", e.Type, e.Missing)
}

func (e *UnknownSupertypeError) Unwrap() error { return e.Cause }

func NewUnknownSupertypeError(typeName, missing string) *UnknownSupertypeError {
	return &UnknownSupertypeError{Type: typeName, Missing: missing}
}

// DuplicateTypeError is returned when a name is registered twice.
type DuplicateTypeError struct {
	Type string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %s: already registered", e.Type)
}

// ClassNotFoundError is returned when a name is neither registered nor
// provided by the registry's class loader.
type ClassNotFoundError struct {
	Name  string
	Cause error
}

func (e *ClassNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("class %s not found: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("class %s not found", e.Name)
}

func (e *ClassNotFoundError) Unwrap() error { return e.Cause }

// DispatchNotFoundError is returned when no concrete implementation of a
// method exists in a type's supertype chain.
type DispatchNotFoundError struct {
	Type       string
	Name       string
	Descriptor string
}

func (e *DispatchNotFoundError) Error() string {
	return fmt.Sprintf("type %s: no concrete implementation of %s%s", e.Type, e.Name, e.Descriptor)
}

func NewDispatchNotFoundError(typeName, name, descriptor string) *DispatchNotFoundError {
	return &DispatchNotFoundError{Type: typeName, Name: name, Descriptor: descriptor}
}

// InitializationError is returned once a type's static initializer has
// failed. The failure is permanent for the type.
type InitializationError struct {
	Type  string
	Cause error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("type %s: static initialization failed: %v", e.Type, e.Cause)
}

func (e *InitializationError) Unwrap() error { return e.Cause }

// IncompleteImplementationError is returned when an anonymous
// implementation omits abstract methods of its interface.
type IncompleteImplementationError struct {
	Interface string
	Missing   []string
}

func (e *IncompleteImplementationError) Error() string {
	return fmt.Sprintf("anonymous %s: missing implementation of %s", e.Interface, strings.Join(e.Missing, ", "))
}

// InstantiationError is returned when a type cannot be constructed.
type InstantiationError struct {
	Type   string
	Reason string
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("new %s: %s", e.Type, e.Reason)
}

// StackOverflowError is returned when nested calls exceed the VM's frame depth.
type StackOverflowError struct {
	Depth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("stack overflow: frame depth exceeded %d", e.Depth)
}
