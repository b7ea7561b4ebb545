package ulua_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/ozanh/ulua"
)

func makeInst(op Opcode, args ...int) []byte {
	b, err := MakeInstruction(op, args...)
	if err != nil {
		panic(err)
	}
	return b
}

func concatInsts(insts ...[]byte) []byte {
	var out []byte
	for _, b := range insts {
		out = append(out, b...)
	}
	return out
}

func compileString(t *testing.T, script string) *Program {
	t.Helper()
	p, err := Compile(strings.NewReader(script), DefaultCompilerOptions)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func expectCompile(t *testing.T, script string, consts []Value, insts ...[]byte) {
	t.Helper()
	p := compileString(t, script)
	require.Equal(t, consts, p.Constants)
	expected := concatInsts(insts...)
	if !bytes.Equal(expected, p.Instructions) {
		require.Failf(t, "instructions not equal",
			"expected:\n%s\ngot:\n%s",
			strings.Join(FormatInstructions(expected, 0), "\n"),
			strings.Join(FormatInstructions(p.Instructions, 0), "\n"))
	}
}

func expectCompileErr(t *testing.T, script string, kind error, msg string) {
	t.Helper()
	p, err := Compile(strings.NewReader(script), DefaultCompilerOptions)
	require.Error(t, err)
	require.Nil(t, p)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)

	var ce *CompilerError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, msg, err.Error())
}

func TestCompiler_Compile(t *testing.T) {
	expectCompile(t, ``, nil)
	expectCompile(t, " \n\t ", nil)

	expectCompile(t, `print "hello"`,
		[]Value{String("print"), String("hello")},
		makeInst(OpGetGlobal, 0, 0),
		makeInst(OpLoadConst, 1, 1),
		makeInst(OpCall, 0, 1),
	)

	// duplicates are not shared
	expectCompile(t, "print \"a\"\nprint \"a\"",
		[]Value{String("print"), String("a"), String("print"), String("a")},
		makeInst(OpGetGlobal, 0, 0),
		makeInst(OpLoadConst, 1, 1),
		makeInst(OpCall, 0, 1),
		makeInst(OpGetGlobal, 0, 2),
		makeInst(OpLoadConst, 1, 3),
		makeInst(OpCall, 0, 1),
	)

	expectCompile(t, `foo""bar"x y"`,
		[]Value{String("foo"), String(""), String("bar"), String("x y")},
		makeInst(OpGetGlobal, 0, 0),
		makeInst(OpLoadConst, 1, 1),
		makeInst(OpCall, 0, 1),
		makeInst(OpGetGlobal, 0, 2),
		makeInst(OpLoadConst, 1, 3),
		makeInst(OpCall, 0, 1),
	)
}

func TestCompiler_StatementLayout(t *testing.T) {
	for n := 0; n <= 20; n++ {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "fn%d \"arg %d\"\n", i%3, i)
		}
		p := compileString(t, sb.String())

		require.Len(t, p.Constants, 2*n)
		for i := 0; i < n; i++ {
			require.Equal(t, String(fmt.Sprintf("fn%d", i%3)), p.Constants[2*i])
			require.Equal(t, String(fmt.Sprintf("arg %d", i)), p.Constants[2*i+1])
		}

		require.Equal(t, 3*n, p.NumInstructions())
		var k int
		IterateInstructions(p.Instructions,
			func(pos int, op Opcode, operands []int, _ int) bool {
				stmt := k / 3
				switch k % 3 {
				case 0:
					require.Equal(t, OpGetGlobal, op)
					require.Equal(t, []int{0, 2 * stmt}, operands)
				case 1:
					require.Equal(t, OpLoadConst, op)
					require.Equal(t, []int{1, 2*stmt + 1}, operands)
				case 2:
					require.Equal(t, OpCall, op)
					require.Equal(t, []int{0, 1}, operands)
				}
				k++
				return true
			},
		)
		require.Equal(t, 3*n, k)
	}
}

func TestCompiler_SourceMap(t *testing.T) {
	p := compileString(t, "print \"a\"\n  foo \"b\"")
	require.Equal(t, map[int]int{
		0:  1,
		4:  7,
		8:  1,
		11: 13,
		15: 17,
		19: 13,
	}, p.SourceMap)

	pos := p.FileSet.Position(p.SourcePos(15))
	require.Equal(t, "(main):2:7", pos.String())
	// positions between instruction starts resolve to the previous one
	pos = p.FileSet.Position(p.SourcePos(17))
	require.Equal(t, "(main):2:7", pos.String())
}

func TestCompiler_Errors(t *testing.T) {
	expectCompileErr(t, `print`, ErrParse,
		"Compile Error: ParseError: expected string argument after name, "+
			"found EOF\n\tat (main):1:6")
	expectCompileErr(t, `print print`, ErrParse,
		"Compile Error: ParseError: expected string argument after name, "+
			"found print\n\tat (main):1:7")
	expectCompileErr(t, "print \"a\"\nprint", ErrParse,
		"Compile Error: ParseError: expected string argument after name, "+
			"found EOF\n\tat (main):2:6")
	expectCompileErr(t, `"hello"`, ErrParse,
		"Compile Error: ParseError: unexpected token at statement start, "+
			"found \"hello\"\n\tat (main):1:1")
	expectCompileErr(t, `print "abc`, ErrParse,
		"Compile Error: ParseError: unterminated string\n\tat (main):1:7")
	expectCompileErr(t, `print $"a"`, ErrLex,
		"Compile Error: LexError: unexpected character '$'\n\tat (main):1:7")
	expectCompileErr(t, "print \"a\"\n(", ErrLex,
		"Compile Error: LexError: unexpected character '('\n\tat (main):2:1")
}

func TestCompiler_ModulePath(t *testing.T) {
	opts := DefaultCompilerOptions
	opts.ModulePath = "hello.lua"
	_, err := Compile(strings.NewReader("\n\n  print"), opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at hello.lua:3:8")
}

func TestCompiler_ConstantLimit(t *testing.T) {
	const maxStmts = 1 << 15
	script := strings.Repeat(`a""`, maxStmts)
	p := compileString(t, script)
	require.Len(t, p.Constants, 1<<16)

	_, err := Compile(strings.NewReader(script+`a""`), DefaultCompilerOptions)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstantLimit))
	require.True(t, errors.Is(err, ErrParse))
}

func TestCompiler_Trace(t *testing.T) {
	var buf bytes.Buffer
	opts := CompilerOptions{
		Trace:         &buf,
		TraceParser:   true,
		TraceCompiler: true,
	}
	_, err := Compile(strings.NewReader(`print "hi"`), opts)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Program {")
	require.Contains(t, out, ". CallStmt {")
	require.Contains(t, out, `CONST 0000 "print"`)
	require.Contains(t, out, `CONST 0001 "hi"`)
	require.Contains(t, out, "EMIT  0000 GETGLOBAL 0     0")
	require.Contains(t, out, "EMIT  0004 LOADCONST 1     1")
	require.Contains(t, out, "EMIT  0008 CALL      0     1")
	require.Contains(t, out, "    1:     1:  1: NAME print")
	require.Contains(t, out, `    7:     1:  7: STRING "hi"`)
	require.Contains(t, out, "EOF EOF")

	// no trace without writer
	buf.Reset()
	opts.Trace = nil
	_, err = Compile(strings.NewReader(`print "hi"`), opts)
	require.NoError(t, err)
	require.Empty(t, buf.String())
}
