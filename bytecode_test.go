package ulua_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/ozanh/ulua"
)

func TestMakeInstruction(t *testing.T) {
	require.Equal(t, []byte{OpGetGlobal, 0, 0x01, 0x02}, makeInst(OpGetGlobal, 0, 0x0102))
	require.Equal(t, []byte{OpLoadConst, 1, 0xff, 0xff}, makeInst(OpLoadConst, 1, 0xffff))
	require.Equal(t, []byte{OpCall, 0, 1}, makeInst(OpCall, 0, 1))
	require.Equal(t, []byte{OpNoOp}, makeInst(OpNoOp))

	_, err := MakeInstruction(OpCall, 0)
	require.EqualError(t, err, "MakeInstruction: CALL expected 2 operands, but got 1")
	_, err = MakeInstruction(OpLoadConst, 1, 1<<16)
	require.EqualError(t, err, "MakeInstruction: LOADCONST operand 1 out of range: 65536")
	_, err = MakeInstruction(OpCall, 256, 0)
	require.EqualError(t, err, "MakeInstruction: CALL operand 0 out of range: 256")
	_, err = MakeInstruction(OpCall, -1, 0)
	require.Error(t, err)
	_, err = MakeInstruction(Opcode(200))
	require.EqualError(t, err, "MakeInstruction: unknown opcode 200")
}

func TestReadOperands(t *testing.T) {
	inst := makeInst(OpGetGlobal, 7, 0x1234)
	operands, offset := ReadOperands(OpcodeOperands[OpGetGlobal], inst[1:], nil)
	require.Equal(t, []int{7, 0x1234}, operands)
	require.Equal(t, 3, offset)
}

func TestFormatInstructions(t *testing.T) {
	insts := concatInsts(
		makeInst(OpGetGlobal, 0, 0),
		makeInst(OpLoadConst, 1, 1),
		makeInst(OpCall, 0, 1),
		makeInst(OpNoOp),
	)
	require.Equal(t, []string{
		"0010 GETGLOBAL 0     0    ",
		"0014 LOADCONST 1     1    ",
		"0018 CALL      0     1    ",
		"0021 NOOP     ",
	}, FormatInstructions(insts, 10))
}

func TestProgramFprint(t *testing.T) {
	p := compileString(t, "print \"hi\"\nprint \"x\"")
	require.Equal(t, 6, p.NumInstructions())
	expect := "Program\n" +
		"Constants:\n" +
		"   0: \"print\"|string\n" +
		"   1: \"hi\"|string\n" +
		"   2: \"print\"|string\n" +
		"   3: \"x\"|string\n" +
		"Instructions:\n" +
		"0000 GETGLOBAL 0     0    \n" +
		"0004 LOADCONST 1     1    \n" +
		"0008 CALL      0     1    \n" +
		"0011 GETGLOBAL 0     2    \n" +
		"0015 LOADCONST 1     3    \n" +
		"0019 CALL      0     1    \n" +
		"SourceMap: 0:(main):1:1 4:(main):1:7 8:(main):1:1" +
		" 11:(main):2:1 15:(main):2:7 19:(main):2:1\n"
	require.Equal(t, expect, p.String())

	p = &Program{SourceMap: map[int]int{0: 3}}
	require.Equal(t, "Program\nConstants:\nInstructions:\nSourceMap: 0:3\n", p.String())
}
