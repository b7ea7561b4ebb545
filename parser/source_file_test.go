package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/ozanh/ulua/parser"
)

func TestSourceFilePosString(t *testing.T) {
	require.Equal(t, "-", SourceFilePos{}.String())
	require.Equal(t, "a.lua", SourceFilePos{Filename: "a.lua"}.String())
	require.Equal(t, "3:4", SourceFilePos{Line: 3, Column: 4}.String())
	require.Equal(t, "a.lua:3", SourceFilePos{Filename: "a.lua", Line: 3}.String())
	require.Equal(t, "a.lua:3:4",
		SourceFilePos{Filename: "a.lua", Line: 3, Column: 4}.String())
}

func TestSourceFileSet(t *testing.T) {
	fs := NewFileSet()
	f1 := fs.AddFile("one", -1, 10)
	f1.AddLine(5)
	f2 := fs.AddFile("two", -1, 4)

	require.Equal(t, 1, f1.Base)
	require.Equal(t, 12, f2.Base)
	require.Equal(t, 17, fs.Base)

	require.Equal(t, f1, fs.File(Pos(3)))
	require.Equal(t, f2, fs.File(Pos(13)))
	require.Nil(t, fs.File(NoPos))

	require.Equal(t, SourceFilePos{Filename: "one", Offset: 7, Line: 2, Column: 3},
		fs.Position(f1.FileSetPos(7)))
	require.Equal(t, SourceFilePos{Filename: "two", Offset: 1, Line: 1, Column: 2},
		fs.Position(f2.FileSetPos(1)))
	require.Equal(t, Pos(6), f1.LineStart(2))
	require.Equal(t, 7, f1.Offset(Pos(8)))
	require.False(t, fs.Position(NoPos).IsValid())
}
