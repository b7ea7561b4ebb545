// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"fmt"
	"strings"

	"github.com/ozanh/ulua/parser"
)

var (
	// ErrLex represents an error for input the scanner cannot tokenize.
	ErrLex = &Error{Name: "LexError"}

	// ErrParse represents an error for a token sequence that does not form
	// a call statement.
	ErrParse = &Error{Name: "ParseError"}

	// ErrRuntime represents an error raised while executing a Program.
	ErrRuntime = &Error{Name: "RuntimeError"}

	// ErrConstantLimit is returned by Compile when the constant pool
	// would outgrow the 16 bit constant index operand.
	ErrConstantLimit = ErrParse.NewError("number of constants exceeds the limit")

	// ErrUndefinedGlobal is an error where a global name is not bound.
	ErrUndefinedGlobal = ErrRuntime.NewError("undefined global")

	// ErrNotCallable is an error where a called value is not a function.
	ErrNotCallable = ErrRuntime.NewError("attempt to call a non-function value")

	// ErrWrongNumArguments represents a wrong number of arguments error.
	ErrWrongNumArguments = ErrRuntime.NewError("wrong number of arguments")
)

// Error is the error type shared by the compiler and the VM. Errors derived
// with NewError keep the original as Cause so errors.Is matches sentinels.
type Error struct {
	Name    string
	Message string
	Cause   error
}

// Unwrap returns the cause of the error.
func (o *Error) Unwrap() error {
	return o.Cause
}

// Error implements error interface.
func (o *Error) Error() string {
	name := o.Name
	if name == "" {
		name = "error"
	}
	if o.Message == "" {
		return name
	}
	return fmt.Sprintf("%s: %s", name, o.Message)
}

// NewError creates a new Error and sets original Error as its cause which
// can be unwrapped.
func (o *Error) NewError(messages ...string) *Error {
	return &Error{
		Name:    o.Name,
		Message: strings.Join(messages, " "),
		Cause:   o,
	}
}

// Wrap derives a new Error from o appending detail to the message.
func (o *Error) Wrap(detail string) *Error {
	if o.Message == "" {
		return o.NewError(detail)
	}
	return o.NewError(o.Message, detail)
}

// CompilerError represents a lexing or parsing error with its position.
type CompilerError struct {
	FileSet *parser.SourceFileSet
	Pos     parser.Pos
	Err     error
}

func (e *CompilerError) Error() string {
	filePos := e.FileSet.Position(e.Pos)
	return fmt.Sprintf("Compile Error: %s\n\tat %s", e.Err.Error(), filePos)
}

func (e *CompilerError) Unwrap() error {
	return e.Err
}

// RuntimeError represents an error raised by the VM, with the source
// position of the failing instruction.
type RuntimeError struct {
	Err *Error
	Pos parser.SourceFilePos
}

func (e *RuntimeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return nil
}

func (e *RuntimeError) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	if !e.Pos.IsValid() {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s\n\tat %s", e.Err.Error(), e.Pos)
}
