package parser

import (
	"sort"
	"strconv"
)

// Position is a location in the source text. Line and Column are
// zero-based, matching the coordinate system used by editor clients.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Span is a half-open region [Start, End) of the source text.
type Span struct {
	Start Position
	End   Position
}

func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Contains reports whether offset falls strictly inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// Touches reports whether offset falls inside the span or sits exactly
// at its end. A cursor right after the last typed character still
// belongs to the token being typed.
func (s Span) Touches(offset int) bool {
	return offset >= s.Start.Offset && offset <= s.End.Offset
}

// lineTable maps byte offsets to line/column positions. Built once per
// parse from the raw source.
type lineTable struct {
	starts []int
}

func newLineTable(src []byte) lineTable {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineTable{starts: starts}
}

func (lt lineTable) position(offset int) Position {
	line := sort.Search(len(lt.starts), func(i int) bool {
		return lt.starts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Position{
		Offset: offset,
		Line:   line,
		Column: offset - lt.starts[line],
	}
}
