// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import "fmt"

// Opcode represents a single byte operation code.
type Opcode = byte

// List of opcodes
const (
	OpNoOp Opcode = iota
	OpGetGlobal
	OpLoadConst
	OpCall
)

// OpcodeNames are string representation of opcodes.
var OpcodeNames = [...]string{
	OpNoOp:      "NOOP",
	OpGetGlobal: "GETGLOBAL",
	OpLoadConst: "LOADCONST",
	OpCall:      "CALL",
}

// OpcodeOperands is the width in bytes of each operand.
var OpcodeOperands = [...][]int{
	OpNoOp:      {},
	OpGetGlobal: {1, 2}, // destination slot, constant index of the name
	OpLoadConst: {1, 2}, // destination slot, constant index
	OpCall:      {1, 1}, // function slot, number of arguments
}

// ReadOperands reads operands from the bytecode. Given operands slice is used to
// fill operands and is returned to allocate less.
func ReadOperands(numOperands []int, ins []byte, operands []int) ([]int, int) {
	operands = operands[:0]
	var offset int
	for _, width := range numOperands {
		switch width {
		case 1:
			operands = append(operands, int(ins[offset]))
		case 2:
			operands = append(operands, int(ins[offset+1])|int(ins[offset])<<8)
		}
		offset += width
	}
	return operands, offset
}

// MakeInstruction returns a bytecode for an opcode and the operands. Operands
// are big endian and must fit their widths.
func MakeInstruction(op Opcode, args ...int) ([]byte, error) {
	if int(op) >= len(OpcodeOperands) {
		return nil, fmt.Errorf("MakeInstruction: unknown opcode %d", op)
	}
	operands := OpcodeOperands[op]
	if len(operands) != len(args) {
		return nil, fmt.Errorf("MakeInstruction: %s expected %d operands, but got %d",
			OpcodeNames[op], len(operands), len(args))
	}

	inst := make([]byte, 1, 4)
	inst[0] = op
	for i, width := range operands {
		v := args[i]
		if v < 0 || v >= 1<<(8*width) {
			return nil, fmt.Errorf("MakeInstruction: %s operand %d out of range: %d",
				OpcodeNames[op], i, v)
		}
		switch width {
		case 1:
			inst = append(inst, byte(v))
		case 2:
			inst = append(inst, byte(v>>8), byte(v))
		}
	}
	return inst, nil
}

// FormatInstructions returns string representation of bytecode instructions.
func FormatInstructions(b []byte, posOffset int) []string {
	var out []string
	IterateInstructions(b, func(pos int, op Opcode, operands []int, _ int) bool {
		switch len(operands) {
		case 0:
			out = append(out, fmt.Sprintf("%04d %-9s",
				posOffset+pos, OpcodeNames[op]))
		case 1:
			out = append(out, fmt.Sprintf("%04d %-9s %-5d",
				posOffset+pos, OpcodeNames[op], operands[0]))
		case 2:
			out = append(out, fmt.Sprintf("%04d %-9s %-5d %-5d",
				posOffset+pos, OpcodeNames[op],
				operands[0], operands[1]))
		}
		return true
	})
	return out
}

// IterateInstructions iterate instructions and call given function for each instruction.
// Note: Do not use operands slice in callback, it is reused for less allocation.
func IterateInstructions(insts []byte,
	fn func(pos int, opcode Opcode, operands []int, offset int) bool) {
	operands := make([]int, 0, 4)
	var offset int
	for i := 0; i < len(insts); i++ {
		numOperands := OpcodeOperands[insts[i]]
		operands, offset = ReadOperands(numOperands, insts[i+1:], operands)
		if !fn(i, insts[i], operands, offset) {
			break
		}
		i += offset
	}
}
