// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ozanh/ulua/parser"
)

// Program holds the instructions and constants produced by Compile. A Program
// must not be modified after Compile returns it.
type Program struct {
	FileSet      *parser.SourceFileSet
	Instructions []byte
	Constants    []Value
	// SourceMap holds the index of instruction and token's position.
	SourceMap map[int]int
}

// NumInstructions returns the number of instructions, not bytes.
func (p *Program) NumInstructions() int {
	var n int
	IterateInstructions(p.Instructions,
		func(int, Opcode, []int, int) bool {
			n++
			return true
		},
	)
	return n
}

// SourcePos returns the source position of the instruction at ip.
func (p *Program) SourcePos(ip int) parser.Pos {
begin:
	if ip >= 0 {
		if pos, ok := p.SourceMap[ip]; ok {
			return parser.Pos(pos)
		}
		ip--
		goto begin
	}
	return parser.NoPos
}

func (p *Program) putConstants(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Constants:\n")
	for i := range p.Constants {
		_, _ = fmt.Fprintf(w, "%4d: %#v|%s\n", i,
			p.Constants[i], p.Constants[i].TypeName())
	}
}

// Fprint writes constants and instructions to given Writer in a human readable form.
func (p *Program) Fprint(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Program")
	p.putConstants(w)
	_, _ = fmt.Fprintf(w, "Instructions:\n")
	for _, s := range FormatInstructions(p.Instructions, 0) {
		_, _ = fmt.Fprintln(w, s)
	}

	keys := make([]int, 0, len(p.SourceMap))
	for k := range p.SourceMap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	_, _ = fmt.Fprint(w, "SourceMap:")
	for _, k := range keys {
		pos := p.SourceMap[k]
		if p.FileSet != nil {
			_, _ = fmt.Fprintf(w, " %d:%s", k, p.FileSet.Position(parser.Pos(pos)))
		} else {
			_, _ = fmt.Fprintf(w, " %d:%d", k, pos)
		}
	}
	_, _ = fmt.Fprintln(w)
}

func (p *Program) String() string {
	var buf bytes.Buffer
	p.Fprint(&buf)
	return buf.String()
}
