package document

// Position and Range use the editor protocol's zero-based line and
// character coordinates.
type Position struct {
	Line      int
	Character int
}

type Range struct {
	Start Position
	End   Position
}

// Change is one content change from the client: a range-based splice,
// or a whole-document replacement when Range is nil.
type Change struct {
	Range *Range
	Text  string
}

// Document is an immutable snapshot of one open buffer. Edits produce
// a new Document; anything holding an old snapshot keeps a consistent
// view.
type Document struct {
	URI        string
	LanguageID string
	version    int32
	text       string
	lines      []int
}

func newDocument(uri, languageID, text string, version int32) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		version:    version,
		text:       text,
		lines:      scanLines(text),
	}
}

func scanLines(text string) []int {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return lines
}

func (d *Document) Text() string   { return d.text }
func (d *Document) Version() int32 { return d.version }
func (d *Document) LineCount() int { return len(d.lines) }

// OffsetAt converts a position to a byte offset, clamping out-of-range
// coordinates to the nearest valid location. Editors legitimately send
// slightly stale positions during rapid typing; those must not error.
func (d *Document) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lines) {
		return len(d.text)
	}
	start := d.lines[pos.Line]
	end := len(d.text)
	if pos.Line+1 < len(d.lines) {
		end = d.lines[pos.Line+1] - 1
	}
	if pos.Character < 0 {
		return start
	}
	if start+pos.Character > end {
		return end
	}
	return start + pos.Character
}

// PositionAt converts a byte offset to a position, clamped to the
// document bounds.
func (d *Document) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := 0
	for line+1 < len(d.lines) && d.lines[line+1] <= offset {
		line++
	}
	return Position{Line: line, Character: offset - d.lines[line]}
}

// withChanges applies the client's change list in arrival order. Each
// range is interpreted against the text produced by the previous
// change, per protocol semantics.
func (d *Document) withChanges(changes []Change, version int32) *Document {
	next := d
	for _, change := range changes {
		if change.Range == nil {
			next = newDocument(d.URI, d.LanguageID, change.Text, version)
			continue
		}
		start := next.OffsetAt(change.Range.Start)
		end := next.OffsetAt(change.Range.End)
		if end < start {
			start, end = end, start
		}
		text := next.text[:start] + change.Text + next.text[end:]
		next = newDocument(d.URI, d.LanguageID, text, version)
	}
	if next == d {
		next = newDocument(d.URI, d.LanguageID, d.text, version)
	}
	return next
}
