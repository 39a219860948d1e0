// Package descriptor reads type and interface declarations from YAML
// files and serves them to a registry as a class loader.
//
// A file declares interfaces and types:
//
//	interfaces:
//	  - name: Unit
//	    methods:
//	      - {name: damage, descriptor: ()I}
//	types:
//	  - name: Zealot
//	    super: AbstractUnit
//	    methods:
//	      - {name: damage, descriptor: ()I, returns: 8}
//
// Method bodies are a constant (returns), an instance field read (field)
// or a Go function bound by key (native).
package descriptor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daimatz/jvmcore/pkg/vm"
)

// File is the parsed contents of a descriptor file.
type File struct {
	Interfaces []InterfaceSpec `yaml:"interfaces"`
	Types      []TypeSpec      `yaml:"types"`
}

// InterfaceSpec declares an interface.
type InterfaceSpec struct {
	Name    string          `yaml:"name"`
	Extends []string        `yaml:"extends"`
	Methods []SignatureSpec `yaml:"methods"`
}

// SignatureSpec names a method of an interface.
type SignatureSpec struct {
	Name       string `yaml:"name"`
	Descriptor string `yaml:"descriptor"`
}

// TypeSpec declares a class.
type TypeSpec struct {
	Name       string       `yaml:"name"`
	Super      string       `yaml:"super"`
	Interfaces []string     `yaml:"interfaces"`
	Abstract   bool         `yaml:"abstract"`
	Outer      string       `yaml:"outer"`
	Fields     []FieldSpec  `yaml:"fields"`
	Statics    []FieldSpec  `yaml:"statics"`
	Methods    []MethodSpec `yaml:"methods"`
	// StaticInit names a native body run after the static field initializers.
	StaticInit string `yaml:"static_init"`
}

// FieldSpec declares an instance or static field. Init names a native
// body computing a static field's initial value.
type FieldSpec struct {
	Name  string   `yaml:"name"`
	Value *Literal `yaml:"value"`
	Init  string   `yaml:"init"`
}

// MethodSpec declares a method. At most one of Returns, Field and Native
// is set; abstract methods set none.
type MethodSpec struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Static     bool     `yaml:"static"`
	Abstract   bool     `yaml:"abstract"`
	Returns    *Literal `yaml:"returns"`
	Field      string   `yaml:"field"`
	Native     string   `yaml:"native"`
}

// Literal is a constant int, float, bool or string. Fields declared
// without a value start out null.
type Literal struct {
	Value vm.Value
}

func (l *Literal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		return l.UnmarshalYAML(node.Alias)
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: literal must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		var i int32
		if err := node.Decode(&i); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Value = vm.IntValue(i)
	case "!!float":
		var f float32
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Value = vm.FloatValue(f)
	case "!!str":
		l.Value = vm.RefValue(node.Value)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Value = vm.IntValue(0)
		if b {
			l.Value = vm.IntValue(1)
		}
	default:
		return fmt.Errorf("line %d: unsupported literal %s", node.Line, node.ShortTag())
	}
	return nil
}

// Parse decodes a descriptor file. Unknown keys are rejected. source is
// used only in error messages.
func Parse(r io.Reader, source string) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var f File
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("descriptor: parse %s: %w", source, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("descriptor: %s: %w", source, err)
	}
	return &f, nil
}

// ValidationError aggregates problems found in a descriptor file.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid descriptors:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

func (f *File) validate() error {
	var issues []string
	seen := make(map[string]bool)
	declare := func(name string) {
		if name == "" {
			issues = append(issues, "declaration without a name")
			return
		}
		if seen[name] {
			issues = append(issues, fmt.Sprintf("%s declared twice", name))
		}
		seen[name] = true
	}

	for _, i := range f.Interfaces {
		declare(i.Name)
		for _, m := range i.Methods {
			if m.Name == "" || m.Descriptor == "" {
				issues = append(issues, fmt.Sprintf("%s: method needs a name and a descriptor", i.Name))
			}
		}
	}
	for _, t := range f.Types {
		declare(t.Name)
		for _, m := range t.Methods {
			if m.Name == "" || m.Descriptor == "" {
				issues = append(issues, fmt.Sprintf("%s: method needs a name and a descriptor", t.Name))
				continue
			}
			bodies := 0
			if m.Returns != nil {
				bodies++
			}
			if m.Field != "" {
				bodies++
			}
			if m.Native != "" {
				bodies++
			}
			switch {
			case bodies > 1:
				issues = append(issues, fmt.Sprintf("%s.%s%s: more than one body", t.Name, m.Name, m.Descriptor))
			case m.Abstract && bodies > 0:
				issues = append(issues, fmt.Sprintf("%s.%s%s: abstract method has a body", t.Name, m.Name, m.Descriptor))
			case !m.Abstract && bodies == 0:
				issues = append(issues, fmt.Sprintf("%s.%s%s: no body", t.Name, m.Name, m.Descriptor))
			case m.Static && m.Field != "":
				issues = append(issues, fmt.Sprintf("%s.%s%s: static method reads an instance field", t.Name, m.Name, m.Descriptor))
			}
		}
		for _, s := range t.Statics {
			if s.Value != nil && s.Init != "" {
				issues = append(issues, fmt.Sprintf("%s.%s: static field has both value and init", t.Name, s.Name))
			}
		}
		for _, fd := range t.Fields {
			if fd.Init != "" {
				issues = append(issues, fmt.Sprintf("%s.%s: instance fields take a value, not init", t.Name, fd.Name))
			}
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
