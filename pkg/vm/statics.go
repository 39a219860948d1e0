package vm

import (
	"fmt"
	"log/slog"
	"sync"
)

type initStatus int

const (
	statusPending initStatus = iota
	statusRunning
	statusDone
	statusFailed
)

type classState struct {
	status initStatus
	owner  *VM
	done   chan struct{}
	values map[string]Value
	err    error
}

// Statics stores the static fields of every type and runs each type's
// static initializer at most once. A Statics may be shared by several VMs;
// concurrent initialization of one type is serialized and the losers
// observe the winner's result.
type Statics struct {
	Logger *slog.Logger

	mu      sync.Mutex
	classes map[*TypeDescriptor]*classState
}

// NewStatics creates an empty store.
func NewStatics() *Statics {
	return &Statics{
		Logger:  slog.New(slog.DiscardHandler),
		classes: make(map[*TypeDescriptor]*classState),
	}
}

func (s *Statics) stateLocked(t *TypeDescriptor) *classState {
	st, ok := s.classes[t]
	if !ok {
		st = &classState{values: make(map[string]Value)}
		s.classes[t] = st
	}
	return st
}

// EnsureInitialized initializes t's supertypes and then t itself, running
// each static initializer exactly once. A request made by the VM that is
// currently initializing t returns immediately. Once an initializer has
// failed, every later call returns the same InitializationError.
func (s *Statics) EnsureInitialized(vm *VM, t *TypeDescriptor) error {
	if t.super != nil {
		if err := s.EnsureInitialized(vm, t.super); err != nil {
			return s.fail(t, err)
		}
	}
	for {
		s.mu.Lock()
		st := s.stateLocked(t)
		switch st.status {
		case statusDone:
			s.mu.Unlock()
			return nil
		case statusFailed:
			s.mu.Unlock()
			return st.err
		case statusRunning:
			if st.owner == vm {
				s.mu.Unlock()
				return nil
			}
			done := st.done
			s.mu.Unlock()
			<-done
			continue
		}

		st.status = statusRunning
		st.owner = vm
		st.done = make(chan struct{})
		for _, f := range t.Statics {
			st.values[f.Name] = f.Value
		}
		s.mu.Unlock()

		s.Logger.Debug("initializing class", "type", t.Name)
		err := s.run(vm, t)

		s.mu.Lock()
		if err != nil {
			st.status = statusFailed
			st.err = &InitializationError{Type: t.Name, Cause: err}
			err = st.err
			s.Logger.Debug("class initialization failed", "type", t.Name, "err", err)
		} else {
			st.status = statusDone
		}
		st.owner = nil
		close(st.done)
		s.mu.Unlock()
		return err
	}
}

// fail marks t as permanently failed because a supertype failed. A type
// that already finished or failed keeps its state.
func (s *Statics) fail(t *TypeDescriptor, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(t)
	switch st.status {
	case statusFailed:
		return st.err
	case statusPending:
		st.status = statusFailed
		st.err = &InitializationError{Type: t.Name, Cause: cause}
		s.Logger.Debug("class initialization failed", "type", t.Name, "err", st.err)
		return st.err
	}
	return cause
}

// run executes t's static field initializers in declaration order, then
// its static initializer block.
func (s *Statics) run(vm *VM, t *TypeDescriptor) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	clinit := &MethodDescriptor{Name: ClassInitName, Descriptor: "()V", Static: true, owner: t}
	if err := vm.enter(); err != nil {
		return err
	}
	defer vm.leave()

	frame := NewFrame(vm, clinit, nil, nil)
	for _, f := range t.Statics {
		if f.Init == nil {
			continue
		}
		v, err := f.Init(frame)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		s.set(t, f.Name, v)
	}
	if t.StaticInit != nil {
		if _, err := t.StaticInit(frame); err != nil {
			return err
		}
	}
	return nil
}

// Initialized reports whether t's static initializer has completed.
func (s *Statics) Initialized(t *TypeDescriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.classes[t]
	return ok && st.status == statusDone
}

// Get reads a static field declared by t or one of its supertypes,
// initializing the declaring type first.
func (s *Statics) Get(vm *VM, t *TypeDescriptor, name string) (Value, error) {
	owner := t.findStaticField(name)
	if owner == nil {
		return Value{}, fmt.Errorf("getstatic: no static field %s.%s", t.Name, name)
	}
	if err := s.EnsureInitialized(vm, owner); err != nil {
		return Value{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(owner).values[name], nil
}

// Put writes a static field declared by t or one of its supertypes,
// initializing the declaring type first.
func (s *Statics) Put(vm *VM, t *TypeDescriptor, name string, v Value) error {
	owner := t.findStaticField(name)
	if owner == nil {
		return fmt.Errorf("putstatic: no static field %s.%s", t.Name, name)
	}
	if err := s.EnsureInitialized(vm, owner); err != nil {
		return err
	}
	s.set(owner, name, v)
	return nil
}

func (s *Statics) set(t *TypeDescriptor, name string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(t).values[name] = v
}
