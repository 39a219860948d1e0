package native

import (
	"fmt"
	"io"

	"github.com/daimatz/jvmcore/pkg/vm"
)

const (
	SystemClass      = "java/lang/System"
	PrintStreamClass = "java/io/PrintStream"
)

// PrintStream represents a java.io.PrintStream.
type PrintStream struct {
	Writer io.Writer
}

// Println prints a value followed by a newline.
func (ps *PrintStream) Println(args ...interface{}) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(ps.Writer)
		return err
	}
	_, err := fmt.Fprintln(ps.Writer, args[0])
	return err
}

// Print prints a value without a trailing newline.
func (ps *PrintStream) Print(arg interface{}) error {
	_, err := fmt.Fprint(ps.Writer, arg)
	return err
}

// systemType declares java/lang/System. Its static out field is created
// during class initialization and writes to the initializing VM's Stdout.
func systemType() *vm.TypeDescriptor {
	return &vm.TypeDescriptor{
		Name:  SystemClass,
		Super: vm.ObjectClass,
		Statics: []vm.StaticField{
			{Name: "out", Init: func(f *vm.Frame) (vm.Value, error) {
				out, err := f.VM.New(PrintStreamClass)
				if err != nil {
					return vm.Value{}, err
				}
				out.Native = &PrintStream{Writer: f.VM.Stdout}
				return vm.RefValue(out), nil
			}},
		},
	}
}

func printStreamType() *vm.TypeDescriptor {
	var methods []*vm.MethodDescriptor
	for _, d := range []string{"(I)V", "(F)V", "(Ljava/lang/String;)V", "(Ljava/lang/Object;)V"} {
		methods = append(methods,
			&vm.MethodDescriptor{Name: "println", Descriptor: d, Body: printBody(true)},
			&vm.MethodDescriptor{Name: "print", Descriptor: d, Body: printBody(false)},
		)
	}
	methods = append(methods, &vm.MethodDescriptor{Name: "println", Descriptor: "()V", Body: func(f *vm.Frame) (vm.Value, error) {
		ps, err := printStream(f)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Value{}, ps.Println()
	}})
	return &vm.TypeDescriptor{Name: PrintStreamClass, Super: vm.ObjectClass, Methods: methods}
}

func printBody(newline bool) vm.MethodFunc {
	return func(f *vm.Frame) (vm.Value, error) {
		ps, err := printStream(f)
		if err != nil {
			return vm.Value{}, err
		}
		text, err := display(f, f.GetLocal(0))
		if err != nil {
			return vm.Value{}, err
		}
		if newline {
			err = ps.Println(text)
		} else {
			err = ps.Print(text)
		}
		if err != nil {
			return vm.Value{}, f.VM.Throw(IOExceptionClass, err.Error())
		}
		return vm.Value{}, nil
	}
}

func printStream(f *vm.Frame) (*PrintStream, error) {
	ps, ok := f.This.Native.(*PrintStream)
	if !ok {
		return nil, fmt.Errorf("%s: receiver has no output", PrintStreamClass)
	}
	return ps, nil
}

// display renders v the way String.valueOf does, calling toString on objects.
func display(f *vm.Frame, v vm.Value) (string, error) {
	obj, ok := v.Object()
	if !ok {
		return v.String(), nil
	}
	s, err := f.Invoke(obj, "toString", "()Ljava/lang/String;")
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// Out returns System.out, initializing java/lang/System if needed.
func Out(v *vm.VM) (*vm.JObject, error) {
	out, err := v.GetStatic(SystemClass, "out")
	if err != nil {
		return nil, err
	}
	obj, ok := out.Object()
	if !ok {
		return nil, fmt.Errorf("%s.out is not an object", SystemClass)
	}
	return obj, nil
}

// Println prints value on System.out followed by a newline.
func Println(v *vm.VM, value vm.Value) error {
	return printOut(v, "println", value)
}

// Print prints value on System.out.
func Print(v *vm.VM, value vm.Value) error {
	return printOut(v, "print", value)
}

func printOut(v *vm.VM, method string, value vm.Value) error {
	out, err := Out(v)
	if err != nil {
		return err
	}
	_, err = v.Invoke(out, method, descriptorFor(value), value)
	return err
}

func descriptorFor(v vm.Value) string {
	switch v.Type {
	case vm.TypeInt:
		return "(I)V"
	case vm.TypeFloat:
		return "(F)V"
	}
	if _, ok := v.Ref.(string); ok {
		return "(Ljava/lang/String;)V"
	}
	return "(Ljava/lang/Object;)V"
}
