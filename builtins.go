// Copyright (c) 2020-2022 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

import (
	"io"
	"os"
	"strings"
)

var (
	// PrintWriter is the default output sink of new VMs.
	PrintWriter io.Writer = os.Stdout
)

// BuiltinType represents a builtin type
type BuiltinType byte

// Builtins
const (
	BuiltinPrint BuiltinType = iota
)

// BuiltinsMap is list of builtin types, exported for REPL.
var BuiltinsMap = map[string]BuiltinType{
	"print": BuiltinPrint,
}

// BuiltinObjects is list of builtins, exported for REPL. Every new VM binds
// them in its global table under their BuiltinsMap names.
var BuiltinObjects = [...]Value{
	BuiltinPrint: &NativeFunction{
		Name:  "print",
		Value: builtinPrintFunc,
	},
}

// builtinPrintFunc writes its arguments separated by tabs and a trailing
// newline to the output of the calling VM.
func builtinPrintFunc(c Call) (ret Value, err error) {
	ret = Nil
	var sb strings.Builder
	for i, arg := range c.Args() {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte('\n')
	_, err = io.WriteString(c.Out(), sb.String())
	return
}
