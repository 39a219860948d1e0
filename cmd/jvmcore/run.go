package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/daimatz/jvmcore/pkg/config"
	"github.com/daimatz/jvmcore/pkg/descriptor"
	"github.com/daimatz/jvmcore/pkg/native"
	"github.com/daimatz/jvmcore/pkg/vm"
)

// newRuntime builds a VM whose user classes come from files, or from the
// built-in demo descriptors when files is empty.
func newRuntime(cfg *config.Config, logger *slog.Logger, files []string) (*vm.VM, *descriptor.Loader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loader := descriptor.NewLoader(demoNatives())
	loader.Logger = logger
	if len(files) == 0 {
		f, err := descriptor.Parse(bytes.NewReader(demoYAML), demoSource)
		if err != nil {
			return nil, nil, err
		}
		if err := loader.Add(f, demoSource); err != nil {
			return nil, nil, err
		}
	}
	for _, path := range files {
		if err := loader.LoadFile(path); err != nil {
			return nil, nil, err
		}
	}

	reg, err := native.NewRegistry(loader)
	if err != nil {
		return nil, nil, err
	}
	v := vm.NewVM(reg)
	v.SetLogger(logger)
	v.Stdout = os.Stdout
	if cfg.Runtime.MaxFrameDepth > 0 {
		v.MaxFrameDepth = cfg.Runtime.MaxFrameDepth
	}
	return v, loader, nil
}

func runCmd(args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	mainClass := cfg.Runtime.Main
	if len(args) > 0 {
		mainClass, args = args[0], args[1:]
	}
	v, _, err := newRuntime(cfg, logger, cfg.Runtime.Descriptors)
	if err != nil {
		return err
	}
	return v.Execute(mainClass, args...)
}

func demoCmd(args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	v, _, err := newRuntime(cfg, logger, nil)
	if err != nil {
		return err
	}
	return v.Execute(demoMain, args...)
}

func typesCmd() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	v, loader, err := newRuntime(cfg, logger, cfg.Runtime.Descriptors)
	if err != nil {
		return err
	}

	reg := v.Registry
	for _, name := range loader.Names() {
		if _, err := reg.LoadType(name); err != nil {
			if _, ierr := reg.LoadInterface(name); ierr != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			}
		}
	}
	for _, name := range reg.Interfaces() {
		fmt.Println("interface", name)
	}
	for _, name := range reg.Types() {
		t, _ := reg.Type(name)
		kind := "class"
		if t.Abstract {
			kind = "abstract class"
		}
		if t.Super != "" {
			fmt.Printf("%s %s extends %s\n", kind, name, t.Super)
		} else {
			fmt.Println(kind, name)
		}
	}
	return nil
}
