package vm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultMaxFrameDepth is the default maximum number of nested method calls.
const DefaultMaxFrameDepth = 1024

// VM executes method bodies against a registry. A VM is a single thread
// of execution; concurrent callers use separate VMs obtained from Spawn,
// which share the registry and static state.
type VM struct {
	Registry      *Registry
	Statics       *Statics
	Stdout        io.Writer
	Logger        *slog.Logger
	MaxFrameDepth int

	frameDepth int
}

// NewVM creates a new VM over the given registry.
func NewVM(reg *Registry) *VM {
	return &VM{
		Registry:      reg,
		Statics:       NewStatics(),
		Stdout:        os.Stdout,
		Logger:        slog.New(slog.DiscardHandler),
		MaxFrameDepth: DefaultMaxFrameDepth,
	}
}

// Spawn returns a new VM that shares this VM's registry, static state,
// output and logger.
func (vm *VM) Spawn() *VM {
	return &VM{
		Registry:      vm.Registry,
		Statics:       vm.Statics,
		Stdout:        vm.Stdout,
		Logger:        vm.Logger,
		MaxFrameDepth: vm.MaxFrameDepth,
	}
}

// SetLogger sets the logger of the VM, its static store and its registry.
func (vm *VM) SetLogger(logger *slog.Logger) {
	vm.Logger = logger
	vm.Statics.Logger = logger
	vm.Registry.Logger = logger
}

// Execute initializes the class and runs its static main method.
func (vm *VM) Execute(className string, args ...string) error {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if err := vm.Statics.EnsureInitialized(vm, t); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	var callArgs []Value
	method := t.FindMethod("main", "([Ljava/lang/String;)V")
	if method != nil && method.Static {
		argv := &JArray{Elements: make([]Value, len(args))}
		for i, a := range args {
			argv.Elements[i] = RefValue(a)
		}
		callArgs = []Value{RefValue(argv)}
	} else {
		method = t.FindMethod("main", "()V")
	}
	if method == nil || !method.Static {
		return fmt.Errorf("main method not found in %s", className)
	}

	vm.Logger.Debug("executing main", "class", className)
	if _, err := vm.call(method, nil, callArgs); err != nil {
		var jex *JavaException
		if errors.As(err, &jex) {
			return fmt.Errorf("uncaught exception in main: %w", err)
		}
		return err
	}
	return nil
}

// New loads the named class and constructs an instance with the
// constructor taking len(args) arguments.
func (vm *VM) New(className string, args ...Value) (*JObject, error) {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return vm.Instantiate(t, nil, args...)
}

// NewInner constructs an instance of an inner class bound to outer.
func (vm *VM) NewInner(className string, outer *JObject, args ...Value) (*JObject, error) {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return vm.Instantiate(t, outer, args...)
}

// NewAnonymous synthesizes an implementation of spec.Interface and
// constructs its single instance. outer may be nil.
func (vm *VM) NewAnonymous(spec AnonymousClass, outer *JObject) (*JObject, error) {
	t, err := vm.Registry.Synthesize(spec)
	if err != nil {
		return nil, err
	}
	return vm.Instantiate(t, outer)
}

// Instantiate allocates an instance of t and runs its constructors:
// no-argument constructors of the ancestors root first, then t's own
// constructor taking len(args) arguments, if any.
func (vm *VM) Instantiate(t *TypeDescriptor, outer *JObject, args ...Value) (*JObject, error) {
	if t.Abstract {
		return nil, &InstantiationError{Type: t.Name, Reason: "type is abstract"}
	}
	switch {
	case t.Outer != "" && outer != nil:
		if !InstanceOf(outer, t.Outer) {
			return nil, &InstantiationError{Type: t.Name, Reason: fmt.Sprintf("enclosing instance %s is not a %s", outer.ClassName(), t.Outer)}
		}
	case t.Outer != "" && !t.anonymous:
		return nil, &InstantiationError{Type: t.Name, Reason: "inner class requires an enclosing instance of " + t.Outer}
	case t.Outer == "" && outer != nil:
		return nil, &InstantiationError{Type: t.Name, Reason: "not an inner class"}
	}
	if missing := Unimplemented(t); len(missing) > 0 {
		return nil, NewDispatchNotFoundError(t.Name, missing[0].Name, missing[0].Descriptor)
	}
	ctor, err := findConstructor(t, len(args))
	if err != nil {
		return nil, err
	}
	if err := vm.Statics.EnsureInitialized(vm, t); err != nil {
		return nil, err
	}

	obj := &JObject{Class: t, Fields: make(map[string]Value), Outer: outer}
	chain := t.Ancestry()
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			obj.Fields[f.Name] = f.Default
		}
	}
	for i := len(chain) - 1; i >= 1; i-- {
		if init := chain[i].FindMethod(ConstructorName, "()V"); init != nil {
			if _, err := vm.call(init, obj, nil); err != nil {
				return nil, err
			}
		}
	}
	if ctor != nil {
		if _, err := vm.call(ctor, obj, args); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// findConstructor returns t's own constructor with n parameters. A missing
// no-argument constructor is allowed.
func findConstructor(t *TypeDescriptor, n int) (*MethodDescriptor, error) {
	var found *MethodDescriptor
	for _, m := range t.Methods {
		if m.Name != ConstructorName {
			continue
		}
		count, err := countParams(m.Descriptor)
		if err != nil {
			return nil, err
		}
		if count != n {
			continue
		}
		if found != nil {
			return nil, &InstantiationError{Type: t.Name, Reason: fmt.Sprintf("ambiguous constructors %s and %s", found.Descriptor, m.Descriptor)}
		}
		found = m
	}
	if found == nil && n > 0 {
		return nil, &InstantiationError{Type: t.Name, Reason: fmt.Sprintf("no constructor takes %d arguments", n)}
	}
	return found, nil
}

// Invoke calls a virtual method, dispatching on obj's runtime type.
func (vm *VM) Invoke(obj *JObject, name, descriptor string, args ...Value) (Value, error) {
	if obj == nil {
		return Value{}, vm.Throw("java/lang/NullPointerException", fmt.Sprintf("invoke %s%s on null", name, descriptor))
	}
	method, err := Resolve(obj.Class, name, descriptor)
	if err != nil {
		return Value{}, err
	}
	return vm.call(method, obj, args)
}

// InvokeSpecial calls the implementation found by resolving from t rather
// than from obj's runtime type.
func (vm *VM) InvokeSpecial(t *TypeDescriptor, obj *JObject, name, descriptor string, args ...Value) (Value, error) {
	method, err := Resolve(t, name, descriptor)
	if err != nil {
		return Value{}, err
	}
	return vm.call(method, obj, args)
}

// InvokeStatic calls a static method, initializing its declaring class first.
func (vm *VM) InvokeStatic(className, name, descriptor string, args ...Value) (Value, error) {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return Value{}, fmt.Errorf("invokestatic: %w", err)
	}
	method := resolveStatic(t, name, descriptor)
	if method == nil {
		return Value{}, fmt.Errorf("invokestatic: method %s:%s not found in class %s", name, descriptor, className)
	}
	if err := vm.Statics.EnsureInitialized(vm, method.owner); err != nil {
		return Value{}, err
	}
	return vm.call(method, nil, args)
}

// GetStatic reads a static field through the named class.
func (vm *VM) GetStatic(className, field string) (Value, error) {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return Value{}, fmt.Errorf("getstatic: %w", err)
	}
	return vm.Statics.Get(vm, t, field)
}

// PutStatic writes a static field through the named class.
func (vm *VM) PutStatic(className, field string, v Value) error {
	t, err := vm.Registry.LoadType(className)
	if err != nil {
		return fmt.Errorf("putstatic: %w", err)
	}
	return vm.Statics.Put(vm, t, field, v)
}

// InstanceOf reports whether v refers to an instance of the named type.
// Non-object and null values are instances of nothing.
func (vm *VM) InstanceOf(v Value, className string) bool {
	obj, ok := v.Object()
	if !ok {
		return false
	}
	return InstanceOf(obj, className)
}

// Throw builds an exception object of the named class with a message. If
// the class cannot be constructed the exception carries an unregistered
// descriptor of that name.
func (vm *VM) Throw(className, message string) *JavaException {
	obj, err := vm.New(className)
	if err != nil {
		obj = &JObject{Class: &TypeDescriptor{Name: className}, Fields: make(map[string]Value)}
	}
	obj.Fields["message"] = RefValue(message)
	return &JavaException{Object: obj}
}

// call runs a method body in a fresh frame.
func (vm *VM) call(method *MethodDescriptor, this *JObject, args []Value) (Value, error) {
	if method.Body == nil {
		return Value{}, fmt.Errorf("method %s%s has no body", method.Name, method.Descriptor)
	}
	paramCount, err := countParams(method.Descriptor)
	if err != nil {
		return Value{}, err
	}
	if paramCount != len(args) {
		return Value{}, fmt.Errorf("method %s%s: got %d arguments, want %d", method.Name, method.Descriptor, len(args), paramCount)
	}
	if err := vm.enter(); err != nil {
		return Value{}, err
	}
	defer vm.leave()

	ret, err := method.Body(NewFrame(vm, method, this, args))
	if err != nil {
		return Value{}, err
	}
	if isVoidReturn(method.Descriptor) {
		return Value{}, nil
	}
	return ret, nil
}

func (vm *VM) enter() error {
	limit := vm.MaxFrameDepth
	if limit <= 0 {
		limit = DefaultMaxFrameDepth
	}
	if vm.frameDepth >= limit {
		return &StackOverflowError{Depth: limit}
	}
	vm.frameDepth++
	return nil
}

func (vm *VM) leave() {
	vm.frameDepth--
}

// countParams counts the number of parameters in a method descriptor.
func countParams(descriptor string) (int, error) {
	// Parse between ( and )
	start := strings.Index(descriptor, "(")
	end := strings.Index(descriptor, ")")
	if start != 0 || end == -1 || end == len(descriptor)-1 {
		return 0, fmt.Errorf("invalid method descriptor: %q", descriptor)
	}

	params := descriptor[start+1 : end]
	count := 0
	i := 0
	for i < len(params) {
		switch params[i] {
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			count++
			i++
		case 'L':
			count++
			semi := strings.IndexByte(params[i:], ';')
			if semi == -1 {
				return 0, fmt.Errorf("unterminated class type in %s", descriptor)
			}
			i += semi + 1
		case '[':
			// Array: skip dimensions, then count the element type
			for i < len(params) && params[i] == '[' {
				i++
			}
			if i < len(params) && params[i] == 'L' {
				semi := strings.IndexByte(params[i:], ';')
				if semi == -1 {
					return 0, fmt.Errorf("unterminated class type in %s", descriptor)
				}
				i += semi + 1
			} else if i < len(params) {
				i++ // primitive type
			}
			count++
		default:
			return 0, fmt.Errorf("invalid type descriptor char '%c' in %s", params[i], descriptor)
		}
	}
	return count, nil
}

// isVoidReturn checks if a method descriptor has void return type.
func isVoidReturn(descriptor string) bool {
	return strings.HasSuffix(descriptor, ")V")
}
