// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ozanh/ulua/parser"
	"github.com/ozanh/ulua/token"
)

// maxConstants is the number of constants addressable by a 2 byte operand.
const maxConstants = 1 << 16

// Fixed stack slots of a call statement.
const (
	calleeSlot = 0
	argSlot    = 1
)

// CompilerOptions represents customizable options for Compile().
type CompilerOptions struct {
	ModulePath    string
	Trace         io.Writer
	TraceParser   bool
	TraceCompiler bool
}

var (
	// DefaultCompilerOptions holds default Compiler options.
	DefaultCompilerOptions = CompilerOptions{
		ModulePath: "(main)",
	}
	// TraceCompilerOptions holds Compiler options to print trace output
	// to stdout for Parser and Compiler.
	TraceCompilerOptions = CompilerOptions{
		ModulePath:    "(main)",
		Trace:         os.Stdout,
		TraceParser:   true,
		TraceCompiler: true,
	}
)

// Compiler translates call statements read from a source directly into a
// Program, without building a syntax tree.
type Compiler struct {
	fileSet       *parser.SourceFileSet
	file          *parser.SourceFile
	scanner       *parser.Scanner
	scanErr       error
	scanErrPos    parser.Pos
	constants     []Value
	instructions  []byte
	sourceMap     map[int]int
	trace         io.Writer
	traceParser   bool
	traceCompiler bool
	indent        int
}

// NewCompiler creates a new Compiler reading src. The Compiler owns src
// until Compile returns.
func NewCompiler(src io.Reader, opts CompilerOptions) *Compiler {
	if opts.ModulePath == "" {
		opts.ModulePath = DefaultCompilerOptions.ModulePath
	}

	fileSet := parser.NewFileSet()
	c := &Compiler{
		fileSet:   fileSet,
		file:      fileSet.AddFile(opts.ModulePath, -1, -1),
		sourceMap: make(map[int]int),
	}
	if opts.Trace != nil {
		c.trace = opts.Trace
		c.traceParser = opts.TraceParser
		c.traceCompiler = opts.TraceCompiler
	}
	c.scanner = parser.NewScanner(c.file, src,
		func(pos parser.SourceFilePos, err error) {
			if c.scanErr == nil {
				c.scanErr = err
				c.scanErrPos = c.file.FileSetPos(pos.Offset)
			}
		},
	)
	return c
}

// Compile compiles given script to Program.
func Compile(src io.Reader, opts CompilerOptions) (*Program, error) {
	return NewCompiler(src, opts).Compile()
}

// Compile reads statements until the end of the source and returns the
// resulting Program. If an error occurs, no Program is returned.
func (c *Compiler) Compile() (*Program, error) {
	if c.traceCompiler {
		defer untracec(tracec(c, "Program"))
	}

	for {
		tok, err := c.next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case token.EOF:
			return &Program{
				FileSet:      c.fileSet,
				Instructions: c.instructions,
				Constants:    c.constants,
				SourceMap:    c.sourceMap,
			}, nil
		case token.Name:
			if err := c.compileCallStmt(tok); err != nil {
				return nil, err
			}
		default:
			return nil, c.errorf(tok, ErrParse,
				"unexpected token at statement start, found %s", tok)
		}
	}
}

// compileCallStmt compiles `name "string"`. The callee always takes the
// first slot and its only argument the next one.
func (c *Compiler) compileCallStmt(name token.Token) error {
	if c.traceCompiler {
		defer untracec(tracec(c, "CallStmt"))
	}

	ci, err := c.addConstant(name, String(name.Literal))
	if err != nil {
		return err
	}
	c.emit(name, OpGetGlobal, calleeSlot, ci)

	arg, err := c.next()
	if err != nil {
		return err
	}
	if arg.Kind != token.String {
		return c.errorf(arg, ErrParse,
			"expected string argument after name, found %s", arg)
	}

	vi, err := c.addConstant(arg, String(arg.Literal))
	if err != nil {
		return err
	}
	c.emit(arg, OpLoadConst, argSlot, vi)
	c.emit(name, OpCall, calleeSlot, 1)
	return nil
}

// next pulls the next token from the scanner. Errors reported by the scanner
// are returned instead of the token.
func (c *Compiler) next() (token.Token, error) {
	tok := c.scanner.Next()
	if c.scanErr != nil {
		return tok, c.scanError()
	}
	if c.traceParser {
		c.printTokenTrace(tok)
	}
	return tok, nil
}

func (c *Compiler) scanError() error {
	err := c.scanErr
	switch {
	case errors.Is(err, parser.ErrUnterminatedString):
		err = ErrParse.NewError(err.Error())
	case errors.Is(err, parser.ErrIllegalCharacter):
		err = ErrLex.NewError(err.Error())
	}
	return &CompilerError{
		FileSet: c.fileSet,
		Pos:     c.scanErrPos,
		Err:     err,
	}
}

func (c *Compiler) errorf(
	tok token.Token,
	kind *Error,
	format string,
	args ...interface{},
) error {
	return &CompilerError{
		FileSet: c.fileSet,
		Pos:     parser.Pos(tok.Pos),
		Err:     kind.NewError(fmt.Sprintf(format, args...)),
	}
}

// addConstant appends v to the constant pool. Equal constants are not
// shared; each call takes a new index.
func (c *Compiler) addConstant(tok token.Token, v Value) (int, error) {
	if len(c.constants) >= maxConstants {
		return 0, &CompilerError{
			FileSet: c.fileSet,
			Pos:     parser.Pos(tok.Pos),
			Err:     ErrConstantLimit,
		}
	}
	c.constants = append(c.constants, v)
	index := len(c.constants) - 1
	if c.traceCompiler {
		c.printTrace(fmt.Sprintf("CONST %04d %#v", index, v))
	}
	return index, nil
}

func (c *Compiler) emit(tok token.Token, opcode Opcode, operands ...int) int {
	inst, err := MakeInstruction(opcode, operands...)
	if err != nil {
		panic(err)
	}
	pos := c.addInstruction(inst)
	c.sourceMap[pos] = tok.Pos

	if c.traceCompiler {
		c.printTrace(fmt.Sprintf("EMIT  %s",
			FormatInstructions(c.instructions[pos:], pos)[0]))
	}
	return pos
}

func (c *Compiler) addInstruction(b []byte) int {
	posNewIns := len(c.instructions)
	c.instructions = append(c.instructions, b...)
	return posNewIns
}

func (c *Compiler) printTokenTrace(tok token.Token) {
	filePos := c.fileSet.Position(parser.Pos(tok.Pos))
	_, _ = fmt.Fprintf(c.trace, "%5d: %5d:%3d: %s %s\n", tok.Pos,
		filePos.Line, filePos.Column, tok.Kind, tok)
}

func (c *Compiler) printTrace(a ...interface{}) {
	const (
		dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
		n    = len(dots)
	)

	i := 2 * c.indent
	for i > n {
		_, _ = fmt.Fprint(c.trace, dots)
		i -= n
	}
	_, _ = fmt.Fprint(c.trace, dots[0:i])
	_, _ = fmt.Fprintln(c.trace, a...)
}

func tracec(c *Compiler, msg string) *Compiler {
	c.printTrace(msg, "{")
	c.indent++
	return c
}

func untracec(c *Compiler) {
	c.indent--
	c.printTrace("}")
}
