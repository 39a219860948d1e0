package main

import (
	_ "embed"
	"fmt"

	"github.com/daimatz/jvmcore/pkg/descriptor"
	"github.com/daimatz/jvmcore/pkg/native"
	"github.com/daimatz/jvmcore/pkg/vm"
)

//go:embed demo.yaml
var demoYAML []byte

const (
	demoSource = "demo.yaml"
	demoMain   = "Demo"
)

// demoNatives binds the native bodies referenced by demo.yaml.
func demoNatives() descriptor.Natives {
	return descriptor.Natives{
		"unit.announce":  announce,
		"group.init":     groupInit,
		"group.addUnits": groupAddUnits,
		"group.damage":   groupDamage,
		"demo.main":      demoMainBody,
	}
}

// announce prints the unit's line. say is resolved on the runtime class.
func announce(f *vm.Frame) (vm.Value, error) {
	line, err := f.Invoke(f.This, "say", "()Ljava/lang/String;")
	if err != nil {
		return vm.Value{}, err
	}
	return vm.Value{}, native.Println(f.VM, line)
}

func groupInit(f *vm.Frame) (vm.Value, error) {
	list, err := f.VM.New(native.ArrayListClass)
	if err != nil {
		return vm.Value{}, err
	}
	return vm.Value{}, f.SetField("units", vm.RefValue(list))
}

func groupUnits(f *vm.Frame) (*vm.JObject, error) {
	v, err := f.Field("units")
	if err != nil {
		return nil, err
	}
	list, ok := v.Object()
	if !ok {
		return nil, f.VM.Throw(native.NullPointerExceptionClass, "units")
	}
	return list, nil
}

func groupAddUnits(f *vm.Frame) (vm.Value, error) {
	list, err := groupUnits(f)
	if err != nil {
		return vm.Value{}, err
	}
	_, err = f.Invoke(list, "addAll", "([Ljava/lang/Object;)Z", f.GetLocal(0))
	return vm.Value{}, err
}

func groupDamage(f *vm.Frame) (vm.Value, error) {
	list, err := groupUnits(f)
	if err != nil {
		return vm.Value{}, err
	}
	units, err := native.Elements(list)
	if err != nil {
		return vm.Value{}, err
	}
	var total int32
	for _, u := range units {
		d, err := f.Invoke(u, "damage", "()I")
		if err != nil {
			return vm.Value{}, err
		}
		total += d.Int
	}
	return vm.IntValue(total), nil
}

func demoMainBody(f *vm.Frame) (vm.Value, error) {
	v := f.VM
	group, err := v.New("ControlGroup")
	if err != nil {
		return vm.Value{}, err
	}
	units := &vm.JArray{}
	for _, name := range []string{"Zealot", "DarkTemplar"} {
		u, err := v.New(name)
		if err != nil {
			return vm.Value{}, err
		}
		units.Elements = append(units.Elements, vm.RefValue(u))
	}
	probe, err := v.NewAnonymous(vm.AnonymousClass{
		Interface: "Unit",
		Enclosing: demoMain,
		Methods: map[string]vm.MethodFunc{
			"damage": func(*vm.Frame) (vm.Value, error) { return vm.IntValue(4), nil },
		},
	}, nil)
	if err != nil {
		return vm.Value{}, err
	}
	units.Elements = append(units.Elements, vm.RefValue(probe))

	if _, err := f.Invoke(group, "addUnits", "([LUnit;)V", vm.RefValue(units)); err != nil {
		return vm.Value{}, err
	}
	total, err := f.Invoke(group, "damage", "()I")
	if err != nil {
		return vm.Value{}, err
	}
	return vm.Value{}, native.Println(v, vm.RefValue(fmt.Sprintf("Group attack power is %d", total.Int)))
}
