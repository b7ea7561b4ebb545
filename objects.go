// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"fmt"
	"io"
	"strconv"
)

var (
	// Nil represents the absence of a value.
	Nil Value = nilType{}
)

// Value represents a value stored in the constant pool, the global table and
// the operand stack.
type Value interface {
	// TypeName should return the name of the type.
	TypeName() string

	// String should return a string of the type's value.
	String() string

	// Equal checks equality of objects.
	Equal(right Value) bool

	// IsFalsy returns true if value is falsy otherwise false.
	IsFalsy() bool

	// CanCall returns true if type can be called with Call() method.
	// VM returns an error if one tries to call a noncallable object.
	CanCall() bool

	// Call is called from VM if CanCall() returns true. The returned value
	// is discarded by the VM.
	Call(c Call) (Value, error)
}

// Call holds the arguments of a native function call and the VM making it.
//
// Arguments are a view over the VM stack; a callee must not retain the slice
// returned by Args after it returns. It is safe to create Call with a nil VM
// as long as VM is not required by the callee.
type Call struct {
	vm   *VM
	args []Value
}

// NewCall creates a new Call struct with the given arguments.
func NewCall(vm *VM, args []Value) Call {
	return Call{vm: vm, args: args}
}

// VM returns the VM of the call.
func (c *Call) VM() *VM {
	return c.vm
}

// Out returns the output sink of the calling VM or io.Discard if the call
// has no VM.
func (c *Call) Out() io.Writer {
	if c.vm == nil || c.vm.out == nil {
		return io.Discard
	}
	return c.vm.out
}

// Len returns the number of arguments.
func (c *Call) Len() int {
	return len(c.args)
}

// Get returns the nth argument. It panics if n is out of range.
func (c *Call) Get(n int) Value {
	return c.args[n]
}

// Args returns the arguments.
func (c *Call) Args() []Value {
	return c.args
}

// CheckLen checks the number of arguments. If the number of arguments is not
// equal to n, it returns an error.
func (c *Call) CheckLen(n int) error {
	if n != c.Len() {
		return ErrWrongNumArguments.Wrap(
			fmt.Sprintf("want=%d got=%d", n, c.Len()),
		)
	}
	return nil
}

// nilType represents the absence of a value.
type nilType struct{}

// TypeName implements Value interface.
func (nilType) TypeName() string {
	return "nil"
}

// String implements Value interface.
func (nilType) String() string {
	return "nil"
}

// Equal implements Value interface.
func (nilType) Equal(right Value) bool {
	_, ok := right.(nilType)
	return ok
}

// IsFalsy implements Value interface.
func (nilType) IsFalsy() bool { return true }

// CanCall implements Value interface.
func (nilType) CanCall() bool { return false }

// Call implements Value interface.
func (nilType) Call(Call) (Value, error) {
	return nil, ErrNotCallable
}

// String represents string values and implements Value interface.
type String string

// TypeName implements Value interface.
func (String) TypeName() string {
	return "string"
}

func (o String) String() string {
	return string(o)
}

// GoString returns the quoted string, used by %#v.
func (o String) GoString() string {
	return strconv.Quote(string(o))
}

// Equal implements Value interface.
func (o String) Equal(right Value) bool {
	if v, ok := right.(String); ok {
		return o == v
	}
	return false
}

// IsFalsy implements Value interface. Strings are never falsy, even when
// empty.
func (String) IsFalsy() bool { return false }

// CanCall implements Value interface.
func (String) CanCall() bool { return false }

// Call implements Value interface.
func (String) Call(Call) (Value, error) {
	return nil, ErrNotCallable
}

// NativeFunction represents a function implemented in Go.
type NativeFunction struct {
	Name  string
	Value CallableFunc
}

var _ Value = (*NativeFunction)(nil)

// TypeName implements Value interface.
func (*NativeFunction) TypeName() string {
	return "function"
}

// String implements Value interface.
func (o *NativeFunction) String() string {
	return fmt.Sprintf("<function:%s>", o.Name)
}

// Equal implements Value interface.
func (o *NativeFunction) Equal(right Value) bool {
	v, ok := right.(*NativeFunction)
	return ok && v == o
}

// IsFalsy implements Value interface.
func (*NativeFunction) IsFalsy() bool { return false }

// CanCall implements Value interface.
func (*NativeFunction) CanCall() bool { return true }

// Call implements Value interface.
func (o *NativeFunction) Call(c Call) (Value, error) {
	return o.Value(c)
}
