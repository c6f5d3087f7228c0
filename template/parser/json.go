package parser

// The JSON parser is recovery-first: it never reports failure to its
// caller. On an unexpected token it closes every open scope at the
// error offset, keeps the structure recovered so far, and marks the
// remainder of the input as a single Error node. Missing commas and
// unclosed braces are tolerated outright since both are the normal
// state of a document mid-keystroke.

type jsonParser struct {
	t       *Tree
	src     []byte
	pos     Position
	limit   int
	open    []NodeID
	pending []NodeID

	failed   bool
	failAt   Position
	failMsg  string
	unclosed bool
}

func parseJSON(t *Tree) {
	p := &jsonParser{t: t, src: t.source, limit: len(t.source)}
	p.skipNoise()

	if p.atEnd() {
		root := t.alloc(KindObject, NoNode)
		t.nodes[root].Span = Span{Start: Position{}, End: p.pos}
		t.root = root
		p.adoptPending(root)
		return
	}

	val := p.parseValue(NoNode)
	if !p.failed {
		p.skipNoise()
		if !p.atEnd() {
			p.fail("unexpected content after top-level value")
		}
	}

	switch {
	case p.failed:
		root := t.alloc(KindError, NoNode)
		t.nodes[root].Value = p.failMsg
		t.nodes[root].Span = Span{Start: Position{}, End: p.endPosition()}
		t.root = root
		if val != NoNode {
			t.attach(root, val)
		}
		tail := t.alloc(KindError, root)
		t.nodes[tail].Value = p.failMsg
		t.nodes[tail].Span = Span{Start: p.failAt, End: p.endPosition()}
		t.attach(root, tail)
		p.adoptPending(root)
	default:
		t.root = val
		p.adoptPending(val)
		if p.unclosed {
			n := t.Node(val)
			if n.Kind == KindObject || n.Kind == KindArray || n.Kind == KindTag {
				end := p.endPosition()
				tail := t.alloc(KindError, val)
				t.nodes[tail].Value = "unexpected end of input"
				t.nodes[tail].Span = Span{Start: end, End: end}
				t.attach(val, tail)
			}
		}
	}
}

// parseFlow parses one flow collection or scalar embedded in a YAML
// document, bounded by limit (the end of the current line). Reports
// the position after the value and whether parsing succeeded.
func parseFlow(t *Tree, start Position, limit int, parent NodeID) (NodeID, Position, bool) {
	p := &jsonParser{t: t, src: t.source, pos: start, limit: limit}
	if parent != NoNode {
		p.open = append(p.open, parent)
	}
	id := p.parseValue(parent)
	if p.failed || id == NoNode {
		return NoNode, p.pos, false
	}
	return id, p.pos, true
}

func (p *jsonParser) atEnd() bool {
	return p.pos.Offset >= p.limit
}

func (p *jsonParser) cur() byte {
	if p.atEnd() {
		return 0
	}
	return p.src[p.pos.Offset]
}

func (p *jsonParser) at(i int) byte {
	if p.pos.Offset+i >= p.limit {
		return 0
	}
	return p.src[p.pos.Offset+i]
}

func (p *jsonParser) advance() byte {
	if p.atEnd() {
		return 0
	}
	c := p.src[p.pos.Offset]
	p.pos.Offset++
	if c == '\n' {
		p.pos.Line++
		p.pos.Column = 0
	} else {
		p.pos.Column++
	}
	return c
}

func (p *jsonParser) fail(msg string) {
	if !p.failed {
		p.failed = true
		p.failAt = p.pos
		p.failMsg = msg
	}
}

func (p *jsonParser) endPosition() Position {
	pos := p.pos
	for pos.Offset < p.limit {
		if p.src[pos.Offset] == '\n' {
			pos.Line++
			pos.Column = 0
		} else {
			pos.Column++
		}
		pos.Offset++
	}
	return pos
}

// skipNoise consumes whitespace and comments. Comments become Comment
// nodes on the innermost open container, or stay pending until a root
// exists to adopt them.
func (p *jsonParser) skipNoise() {
	for !p.atEnd() {
		switch c := p.cur(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '#':
			p.scanComment(p.lineCommentEnd())
		case c == '/' && p.at(1) == '/':
			p.scanComment(p.lineCommentEnd())
		case c == '/' && p.at(1) == '*':
			p.scanComment(p.blockCommentEnd())
		default:
			return
		}
	}
}

func (p *jsonParser) lineCommentEnd() func() bool {
	return func() bool { return p.cur() == '\n' }
}

func (p *jsonParser) blockCommentEnd() func() bool {
	closed := false
	return func() bool {
		if closed {
			return true
		}
		if p.cur() == '*' && p.at(1) == '/' {
			p.advance()
			p.advance()
			closed = true
			return true
		}
		return false
	}
}

func (p *jsonParser) scanComment(done func() bool) {
	start := p.pos
	for !p.atEnd() && !done() {
		p.advance()
	}
	id := p.t.alloc(KindComment, NoNode)
	p.t.nodes[id].Span = Span{Start: start, End: p.pos}
	p.t.nodes[id].Value = string(p.src[start.Offset:p.pos.Offset])
	if len(p.open) > 0 {
		p.t.attach(p.open[len(p.open)-1], id)
	} else {
		p.pending = append(p.pending, id)
	}
}

func (p *jsonParser) adoptPending(root NodeID) {
	for _, id := range p.pending {
		p.t.attach(root, id)
	}
	p.pending = nil
}

func (p *jsonParser) parseValue(parent NodeID) NodeID {
	p.skipNoise()
	if p.failed {
		return NoNode
	}
	if p.atEnd() {
		p.unclosed = true
		return NoNode
	}
	switch c := p.cur(); {
	case c == '{':
		return p.parseObject(parent)
	case c == '[':
		return p.parseArray(parent)
	case c == '"' || c == '\'':
		return p.scanString(KindScalar, parent)
	case c == '-' || c == '+' || isDigit(c):
		return p.scanNumber(parent)
	case isWordByte(c):
		return p.scanWord(KindScalar, parent)
	default:
		p.fail("unexpected character")
		return NoNode
	}
}

func (p *jsonParser) parseObject(parent NodeID) NodeID {
	id := p.t.alloc(KindObject, parent)
	start := p.pos
	p.advance()
	p.open = append(p.open, id)

	for {
		p.skipNoise()
		if p.failed || p.atEnd() {
			p.unclosed = p.unclosed || !p.failed
			break
		}
		c := p.cur()
		if c == '}' {
			p.advance()
			break
		}
		if c == ',' {
			p.advance()
			continue
		}

		var keyID NodeID
		switch {
		case c == '"' || c == '\'':
			keyID = p.scanString(KindKey, id)
		case isWordByte(c):
			keyID = p.scanWord(KindKey, id)
		default:
			p.fail("expected object key")
		}
		if p.failed {
			break
		}

		p.skipNoise()
		if p.atEnd() {
			p.unclosed = true
			p.attachEmptyValue(id, keyID)
			break
		}
		if p.cur() != ':' {
			p.attachEmptyValue(id, keyID)
			p.fail("expected ':' after object key")
			break
		}
		p.advance()

		val := p.parseValue(id)
		if val == NoNode {
			p.attachEmptyValue(id, keyID)
			break
		}
		p.t.nodes[val].Key = keyID
		p.t.attach(id, val)

		p.skipNoise()
		if p.failed || p.atEnd() {
			p.unclosed = p.unclosed || !p.failed
			break
		}
		switch c := p.cur(); {
		case c == ',':
			p.advance()
		case c == '}':
			// closes next iteration
		case c == '"' || c == '\'' || isWordByte(c):
			// missing comma before the next key, tolerated
		default:
			p.fail("expected ',' or '}' in object")
		}
	}

	end := p.pos
	if p.failed {
		end = p.failAt
	}
	p.t.nodes[id].Span = Span{Start: start, End: end}
	p.open = p.open[:len(p.open)-1]
	return id
}

func (p *jsonParser) parseArray(parent NodeID) NodeID {
	id := p.t.alloc(KindArray, parent)
	start := p.pos
	p.advance()
	p.open = append(p.open, id)

	for {
		p.skipNoise()
		if p.failed || p.atEnd() {
			p.unclosed = p.unclosed || !p.failed
			break
		}
		c := p.cur()
		if c == ']' {
			p.advance()
			break
		}
		if c == ',' {
			p.advance()
			continue
		}

		val := p.parseValue(id)
		if val == NoNode {
			break
		}
		p.t.attach(id, val)

		p.skipNoise()
		if p.failed || p.atEnd() {
			p.unclosed = p.unclosed || !p.failed
			break
		}
		switch p.cur() {
		case ',':
			p.advance()
		case ']':
			// closes next iteration
		default:
			// missing comma, tolerated when a value can start here
			if !canStartValue(p.cur()) {
				p.fail("expected ',' or ']' in array")
			}
		}
	}

	end := p.pos
	if p.failed {
		end = p.failAt
	}
	p.t.nodes[id].Span = Span{Start: start, End: end}
	p.open = p.open[:len(p.open)-1]
	return id
}

func (p *jsonParser) attachEmptyValue(obj, keyID NodeID) {
	if keyID == NoNode {
		return
	}
	at := p.t.Node(keyID).Span.End
	val := p.t.alloc(KindScalar, obj)
	p.t.nodes[val].Span = Span{Start: at, End: at}
	p.t.nodes[val].Scalar = ScalarNull
	p.t.nodes[val].Key = keyID
	p.t.attach(obj, val)
}

// scanString reads a quoted string. An unterminated string is closed at
// the end of its line rather than failing the parse.
func (p *jsonParser) scanString(kind NodeKind, parent NodeID) NodeID {
	start := p.pos
	quote := p.advance()
	var text []byte
	for !p.atEnd() {
		c := p.cur()
		if c == quote {
			p.advance()
			break
		}
		if c == '\n' {
			break
		}
		if c == '\\' {
			p.advance()
			text = append(text, unescape(p.advance())...)
			continue
		}
		text = append(text, p.advance())
	}
	id := p.t.alloc(kind, parent)
	p.t.nodes[id].Span = Span{Start: start, End: p.pos}
	p.t.nodes[id].Value = string(text)
	p.t.nodes[id].Scalar = ScalarString
	return id
}

func unescape(c byte) []byte {
	switch c {
	case 'n':
		return []byte{'\n'}
	case 't':
		return []byte{'\t'}
	case 'r':
		return []byte{'\r'}
	case 'b':
		return []byte{'\b'}
	case 'f':
		return []byte{'\f'}
	case 0:
		return nil
	default:
		return []byte{c}
	}
}

func (p *jsonParser) scanNumber(parent NodeID) NodeID {
	start := p.pos
	for !p.atEnd() && isNumberByte(p.cur()) {
		p.advance()
	}
	id := p.t.alloc(KindScalar, parent)
	text := string(p.src[start.Offset:p.pos.Offset])
	p.t.nodes[id].Span = Span{Start: start, End: p.pos}
	p.t.nodes[id].Value = text
	p.t.nodes[id].Scalar = classifyScalar(text)
	return id
}

// scanWord reads a bare word: a JSON keyword, or an unquoted key or
// value the user has not finished quoting. Both are kept addressable.
func (p *jsonParser) scanWord(kind NodeKind, parent NodeID) NodeID {
	start := p.pos
	for !p.atEnd() && isWordByte(p.cur()) {
		p.advance()
	}
	id := p.t.alloc(kind, parent)
	text := string(p.src[start.Offset:p.pos.Offset])
	p.t.nodes[id].Span = Span{Start: start, End: p.pos}
	p.t.nodes[id].Value = text
	if kind == KindScalar {
		p.t.nodes[id].Scalar = classifyScalar(text)
	}
	return id
}

func canStartValue(c byte) bool {
	return c == '{' || c == '[' || c == '"' || c == '\'' ||
		c == '-' || c == '+' || isDigit(c) || isWordByte(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) ||
		c == '_' || c == '.' || c == '-'
}
