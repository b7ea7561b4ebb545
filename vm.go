// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
)

// VM executes the instructions of a Program. A VM owns its stack and global
// table; it is safe to run different VMs concurrently.
type VM struct {
	ip        int
	insts     []byte
	constants []Value
	program   *Program
	stack     []Value
	globals   map[string]Value
	out       io.Writer
	mu        sync.Mutex
	err       error
	noPanic   bool
}

// NewVM creates a VM whose global table contains the builtins and whose
// output is PrintWriter.
func NewVM() *VM {
	vm := &VM{
		globals: make(map[string]Value, len(BuiltinsMap)),
		out:     PrintWriter,
	}
	for name, typ := range BuiltinsMap {
		vm.globals[name] = BuiltinObjects[typ]
	}
	return vm
}

// SetOutput sets the writer builtin print writes to.
func (vm *VM) SetOutput(w io.Writer) *VM {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	vm.out = w
	return vm
}

// DefineGlobal binds name to v in the global table, replacing a builtin with
// the same name. Globals are meant to be set up before the first Execute.
func (vm *VM) DefineGlobal(name string, v Value) *VM {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if v == nil {
		v = Nil
	}
	vm.globals[name] = v
	return vm
}

// SetRecover recovers panic when Execute panics and returns panic as an error.
func (vm *VM) SetRecover(v bool) *VM {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.noPanic = v
	return vm
}

// Globals returns a copy of the global table.
func (vm *VM) Globals() map[string]Value {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	globals := make(map[string]Value, len(vm.globals))
	for k, v := range vm.globals {
		globals[k] = v
	}
	return globals
}

// Execute runs the instructions of p from the first to the last one. It
// stops at the first error. Native functions are called with the VM locked
// and must not call VM methods.
func (vm *VM) Execute(p *Program) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if p == nil {
		return errors.New("invalid Program")
	}

	vm.program = p
	vm.insts = p.Instructions
	vm.constants = p.Constants
	vm.err = nil
	vm.ip = -1

	func() {
		defer func() {
			if vm.noPanic {
				if r := recover(); r != nil {
					vm.handlePanic(r)
				}
			}
			vm.clearStack()
		}()
		vm.run()
	}()
	return vm.err
}

func (vm *VM) run() {
	for {
		vm.ip++
		if vm.ip >= len(vm.insts) {
			return
		}

		switch vm.insts[vm.ip] {
		case OpGetGlobal:
			dst := int(vm.insts[vm.ip+1])
			cidx := int(vm.insts[vm.ip+3]) | int(vm.insts[vm.ip+2])<<8
			name, ok := vm.constants[cidx].(String)
			if !ok {
				vm.err = vm.newError(ErrRuntime.NewError(
					"global name must be a string, found",
					vm.constants[cidx].TypeName()))
				return
			}
			value, ok := vm.globals[string(name)]
			if !ok {
				vm.err = vm.newError(ErrUndefinedGlobal.Wrap(
					fmt.Sprintf("'%s'", name)))
				return
			}
			vm.setSlot(dst, value)
			vm.ip += 3
		case OpLoadConst:
			dst := int(vm.insts[vm.ip+1])
			cidx := int(vm.insts[vm.ip+3]) | int(vm.insts[vm.ip+2])<<8
			vm.setSlot(dst, vm.constants[cidx])
			vm.ip += 3
		case OpCall:
			if err := vm.execOpCall(); err != nil {
				vm.err = vm.newErrorFromError(err)
				return
			}
			vm.ip += 2
		case OpNoOp:
		default:
			vm.err = fmt.Errorf("unknown opcode %d", vm.insts[vm.ip])
			return
		}
	}
}

func (vm *VM) execOpCall() error {
	funcSlot := int(vm.insts[vm.ip+1])
	numArgs := int(vm.insts[vm.ip+2])
	vm.growStack(funcSlot + numArgs + 1)

	callee := vm.stack[funcSlot]
	if !callee.CanCall() {
		return ErrNotCallable.Wrap(
			fmt.Sprintf("(%s)", callee.TypeName()))
	}

	args := vm.stack[funcSlot+1 : funcSlot+1+numArgs : funcSlot+1+numArgs]
	_, err := callee.Call(Call{vm: vm, args: args})
	return err
}

// setSlot stores v at the absolute stack slot, growing the stack with Nil
// values if needed.
func (vm *VM) setSlot(slot int, v Value) {
	vm.growStack(slot + 1)
	vm.stack[slot] = v
}

func (vm *VM) growStack(size int) {
	for len(vm.stack) < size {
		vm.stack = append(vm.stack, Nil)
	}
}

func (vm *VM) clearStack() {
	for i := range vm.stack {
		vm.stack[i] = nil
	}
	vm.stack = vm.stack[:0]
}

func (vm *VM) handlePanic(r interface{}) {
	gostack := debug.Stack()

	if vm.err != nil {
		vm.err = fmt.Errorf("panic: %v error: %w\nGo Stack:\n%s",
			r, vm.err, gostack)
		return
	}
	vm.err = fmt.Errorf("panic: %v\nGo Stack:\n%s", r, gostack)
}

func (vm *VM) newError(err *Error) *RuntimeError {
	rt := &RuntimeError{Err: err}
	if vm.program != nil && vm.program.FileSet != nil {
		rt.Pos = vm.program.FileSet.Position(vm.program.SourcePos(vm.ip))
	}
	return rt
}

func (vm *VM) newErrorFromError(err error) error {
	switch e := err.(type) {
	case *RuntimeError:
		return e
	case *Error:
		return vm.newError(e)
	}
	return vm.newError(&Error{
		Name:    ErrRuntime.Name,
		Message: err.Error(),
		Cause:   err,
	})
}
