package parser

import "strings"

// The YAML parser is line-oriented: indentation is the only structural
// signal it trusts. Each content line is classified as a sequence item,
// a key line, or stray scalar text, and attached to the innermost open
// block whose indent admits it. A dedent always closes scopes down to
// the matching indent; an indent that matches no open scope closes the
// innermost scopes until one can admit the line. The parser never
// fails; at worst a line degrades to a key-being-typed or a scalar.

type yamlLine struct {
	start   int // offset of the first byte of the line
	content int // offset of the first non-blank byte
	end     int // offset just past the last byte (excludes the newline)
	indent  int
	blank   bool
	comment bool
}

type yamlFrame struct {
	id     NodeID
	indent int
	seq    bool
}

type yamlParser struct {
	t     *Tree
	src   []byte
	lt    lineTable
	lines []yamlLine
	i     int
	stack []yamlFrame
}

func parseYAML(t *Tree) {
	p := &yamlParser{t: t, src: t.source, lt: newLineTable(t.source)}
	p.scanLines()

	root := t.alloc(KindObject, NoNode)
	t.nodes[root].Span = Span{Start: Position{}, End: p.lt.position(len(p.src))}
	t.root = root
	p.stack = []yamlFrame{{id: root, indent: -1}}

	for p.i < len(p.lines) {
		ln := p.lines[p.i]
		switch {
		case ln.blank:
			p.i++
		case ln.comment:
			p.addComment(ln.content, ln.end)
			p.i++
		case p.isDocumentMarker(ln):
			p.i++
		default:
			p.popTo(ln)
			if p.isItem(ln) {
				p.processItem(ln)
			} else {
				p.processKey(ln, ln.content)
			}
		}
	}
}

func (p *yamlParser) scanLines() {
	start := 0
	for start <= len(p.src) {
		end := start
		for end < len(p.src) && p.src[end] != '\n' {
			end++
		}
		content := start
		for content < end && (p.src[content] == ' ' || p.src[content] == '\t') {
			content++
		}
		ln := yamlLine{
			start:   start,
			content: content,
			end:     end,
			indent:  content - start,
			blank:   content == end,
		}
		if !ln.blank && p.src[content] == '#' {
			ln.comment = true
		}
		p.lines = append(p.lines, ln)
		if end >= len(p.src) {
			break
		}
		start = end + 1
	}
}

func (p *yamlParser) top() *yamlFrame {
	return &p.stack[len(p.stack)-1]
}

func (p *yamlParser) pos(offset int) Position {
	return p.lt.position(offset)
}

func (p *yamlParser) isItem(ln yamlLine) bool {
	if ln.content >= ln.end || p.src[ln.content] != '-' {
		return false
	}
	next := ln.content + 1
	return next >= ln.end || p.src[next] == ' ' || p.src[next] == '\t'
}

func (p *yamlParser) isDocumentMarker(ln yamlLine) bool {
	text := string(p.src[ln.content:ln.end])
	text = strings.TrimRight(text, " \t")
	return ln.indent == 0 && (text == "---" || text == "...")
}

// popTo closes open scopes that the line's indent can no longer belong
// to. Ambiguous dedents close the innermost scopes; a sequence frame is
// also closed by a key line arriving at the sequence's own indent.
func (p *yamlParser) popTo(ln yamlLine) {
	for len(p.stack) > 1 {
		top := p.top()
		if ln.indent < top.indent {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		if ln.indent == top.indent && top.seq && !p.isItem(ln) {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		return
	}
}

func (p *yamlParser) addComment(from, to int) {
	id := p.t.alloc(KindComment, p.top().id)
	p.t.nodes[id].Span = Span{Start: p.pos(from), End: p.pos(to)}
	p.t.nodes[id].Value = string(p.src[from:to])
	p.t.attach(p.top().id, id)
}

// nextContent returns the next non-blank, non-comment line at or after
// index from, or nil.
func (p *yamlParser) nextContent(from int) *yamlLine {
	for j := from; j < len(p.lines); j++ {
		ln := p.lines[j]
		if ln.blank || ln.comment || p.isDocumentMarker(ln) {
			continue
		}
		return &p.lines[j]
	}
	return nil
}

func (p *yamlParser) processItem(ln yamlLine) {
	top := p.top()
	if !(top.seq && top.indent == ln.indent) {
		if top.id == p.t.root && len(p.t.Node(p.t.root).Children) == 0 {
			// A top-level sequence document: the root becomes an Array.
			p.t.nodes[p.t.root].Kind = KindArray
			p.stack[0] = yamlFrame{id: p.t.root, indent: ln.indent, seq: true}
		} else {
			arr := p.t.alloc(KindArray, top.id)
			at := p.pos(ln.content)
			p.t.nodes[arr].Span = Span{Start: at, End: at}
			p.t.attach(top.id, arr)
			p.stack = append(p.stack, yamlFrame{id: arr, indent: ln.indent, seq: true})
		}
		top = p.top()
	}

	restStart := ln.content + 1
	for restStart < ln.end && (p.src[restStart] == ' ' || p.src[restStart] == '\t') {
		restStart++
	}

	if restStart >= ln.end {
		p.blockValue(top.id, NoNode, ln, ln.indent, restStart, ln.end)
		p.i++
		return
	}
	if p.src[restStart] == '#' {
		p.addComment(restStart, ln.end)
		p.blockValue(top.id, NoNode, ln, ln.indent, restStart, restStart)
		p.i++
		return
	}

	if sep := p.findKeySep(restStart, ln.end); sep >= 0 {
		// Compact mapping inside the item: "- Key: value".
		obj := p.t.alloc(KindObject, top.id)
		at := p.pos(restStart)
		p.t.nodes[obj].Span = Span{Start: at, End: at}
		p.t.attach(top.id, obj)
		p.stack = append(p.stack, yamlFrame{
			id:     obj,
			indent: restStart - ln.start,
		})
		p.processKey(ln, restStart)
		return
	}

	p.parseInlineValue(top.id, NoNode, restStart, ln)
}

// processKey handles a "key:" line, including its inline or block
// value. contentStart allows an item's compact mapping to reuse this
// for the text after "- ".
func (p *yamlParser) processKey(ln yamlLine, contentStart int) {
	top := p.top()
	sep := p.findKeySep(contentStart, ln.end)
	if sep < 0 {
		// No separator yet: a key still being typed. Keep it
		// addressable with an empty value so completion can land here.
		keyEnd := p.trimRight(contentStart, ln.end)
		keyID := p.allocKey(top.id, contentStart, keyEnd)
		p.attachEmptyScalar(top.id, keyID, keyEnd)
		p.i++
		return
	}

	keyEnd := p.trimRight(contentStart, sep)
	keyID := p.allocKey(top.id, contentStart, keyEnd)

	restStart := sep + 1
	for restStart < ln.end && (p.src[restStart] == ' ' || p.src[restStart] == '\t') {
		restStart++
	}

	if restStart >= ln.end || p.src[restStart] == '#' {
		valueTo := ln.end
		if restStart < ln.end {
			p.addComment(restStart, ln.end)
			valueTo = restStart
		}
		p.blockValue(top.id, keyID, ln, ln.indent, sep+1, valueTo)
		p.i++
		return
	}

	val := p.parseInlineValue(top.id, keyID, restStart, ln)
	if val != NoNode {
		p.t.nodes[val].Key = keyID
	}
}

// blockValue resolves a key (or item) whose value, if any, lives on
// later lines. Lookahead decides between a nested mapping, a nested
// sequence (which may sit at the owner's own indent), and no value.
// valueFrom/valueTo bound the empty-value region on the current line
// so a cursor after "Key: " still resolves into value position.
func (p *yamlParser) blockValue(parent, keyID NodeID, ln yamlLine, ownIndent, valueFrom, valueTo int) {
	next := p.nextContent(p.i + 1)
	var kind NodeKind
	var frameIndent int
	switch {
	case next == nil:
		kind = KindScalar
	case p.isItem(*next) && next.indent >= ownIndent && keyID != NoNode:
		kind = KindArray
		frameIndent = next.indent
	case next.indent > ownIndent:
		if p.isItem(*next) {
			kind = KindArray
		} else {
			kind = KindObject
		}
		frameIndent = next.indent
	default:
		kind = KindScalar
	}

	if kind == KindScalar {
		if valueFrom > valueTo {
			valueFrom = valueTo
		}
		p.attachEmptyRegion(parent, keyID, valueFrom, valueTo)
		return
	}

	id := p.t.alloc(kind, parent)
	at := p.pos(next.content)
	p.t.nodes[id].Span = Span{Start: at, End: at}
	p.t.nodes[id].Key = keyID
	p.t.attach(parent, id)
	p.stack = append(p.stack, yamlFrame{id: id, indent: frameIndent, seq: kind == KindArray})
}

// parseInlineValue parses the value text beginning at start on the
// current line: a tag, a flow collection, a block scalar indicator, or
// a plain/quoted scalar. It attaches the node to parent and advances
// p.i past every line it consumed.
func (p *yamlParser) parseInlineValue(parent, keyID NodeID, start int, ln yamlLine) NodeID {
	switch c := p.src[start]; {
	case c == '!':
		return p.parseTag(parent, keyID, start, ln)
	case c == '[' || c == '{':
		return p.parseFlowValue(parent, start, ln)
	case c == '|' || c == '>':
		return p.parseBlockScalar(parent, start, ln)
	default:
		return p.parseScalar(parent, start, ln)
	}
}

func (p *yamlParser) parseTag(parent, keyID NodeID, start int, ln yamlLine) NodeID {
	nameEnd := start + 1
	for nameEnd < ln.end && p.src[nameEnd] != ' ' && p.src[nameEnd] != '\t' {
		nameEnd++
	}
	id := p.t.alloc(KindTag, parent)
	p.t.nodes[id].Tag = string(p.src[start+1 : nameEnd])
	p.t.nodes[id].Span = Span{Start: p.pos(start), End: p.pos(nameEnd)}
	p.t.attach(parent, id)

	argStart := nameEnd
	for argStart < ln.end && (p.src[argStart] == ' ' || p.src[argStart] == '\t') {
		argStart++
	}
	if argStart >= ln.end || p.src[argStart] == '#' {
		valueTo := ln.end
		if argStart < ln.end {
			p.addComment(argStart, ln.end)
			valueTo = argStart
		}
		// Argument on the following lines, e.g. "!Sub" before a block.
		p.blockValue(id, NoNode, ln, ln.indent, argStart, valueTo)
		p.i++
		return id
	}
	p.parseInlineValue(id, NoNode, argStart, ln)
	return id
}

func (p *yamlParser) parseFlowValue(parent NodeID, start int, ln yamlLine) NodeID {
	id, after, ok := parseFlow(p.t, p.pos(start), ln.end, parent)
	if !ok {
		errID := p.t.alloc(KindError, parent)
		p.t.nodes[errID].Span = Span{Start: p.pos(start), End: p.pos(ln.end)}
		p.t.nodes[errID].Value = "malformed flow collection"
		p.t.attach(parent, errID)
		p.i++
		return errID
	}
	p.t.attach(parent, id)
	rest := after.Offset
	for rest < ln.end && (p.src[rest] == ' ' || p.src[rest] == '\t') {
		rest++
	}
	if rest < ln.end && p.src[rest] == '#' {
		p.addComment(rest, ln.end)
	}
	p.i++
	return id
}

func (p *yamlParser) parseBlockScalar(parent NodeID, start int, ln yamlLine) NodeID {
	last := p.i
	for j := p.i + 1; j < len(p.lines); j++ {
		next := p.lines[j]
		if next.blank {
			continue
		}
		if next.indent <= ln.indent {
			break
		}
		last = j
	}
	end := p.lines[last].end
	id := p.t.alloc(KindScalar, parent)
	p.t.nodes[id].Span = Span{Start: p.pos(start), End: p.pos(end)}
	var text string
	if last > p.i {
		text = string(p.src[p.lines[p.i+1].start:end])
	}
	p.t.nodes[id].Value = text
	p.t.nodes[id].Scalar = ScalarString
	p.t.attach(parent, id)
	p.i = last + 1
	return id
}

func (p *yamlParser) parseScalar(parent NodeID, start int, ln yamlLine) NodeID {
	end := p.scalarEnd(start, ln.end)
	trimmed := p.trimRight(start, end)
	raw := string(p.src[start:trimmed])

	id := p.t.alloc(KindScalar, parent)
	p.t.nodes[id].Span = Span{Start: p.pos(start), End: p.pos(trimmed)}
	value, typ := unquoteScalar(raw)
	p.t.nodes[id].Value = value
	p.t.nodes[id].Scalar = typ
	p.t.attach(parent, id)

	rest := end
	for rest < ln.end && (p.src[rest] == ' ' || p.src[rest] == '\t') {
		rest++
	}
	if rest < ln.end && p.src[rest] == '#' {
		p.addComment(rest, ln.end)
	}
	p.i++
	return id
}

// scalarEnd finds where a plain or quoted scalar stops: at a trailing
// comment for plain scalars, at the closing quote for quoted ones.
func (p *yamlParser) scalarEnd(start, limit int) int {
	c := p.src[start]
	if c == '"' || c == '\'' {
		for j := start + 1; j < limit; j++ {
			if p.src[j] == '\\' && c == '"' {
				j++
				continue
			}
			if p.src[j] == c {
				return j + 1
			}
		}
		return limit
	}
	for j := start; j < limit; j++ {
		if p.src[j] == '#' && j > start && (p.src[j-1] == ' ' || p.src[j-1] == '\t') {
			return j
		}
	}
	return limit
}

// findKeySep locates the mapping separator: a ':' outside quotes and
// flow brackets, followed by whitespace or the end of the line.
func (p *yamlParser) findKeySep(start, limit int) int {
	var quote byte
	depth := 0
	for j := start; j < limit; j++ {
		c := p.src[j]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				j++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == ':' && depth == 0:
			if j+1 >= limit || p.src[j+1] == ' ' || p.src[j+1] == '\t' {
				return j
			}
		}
	}
	return -1
}

func (p *yamlParser) trimRight(start, end int) int {
	for end > start && (p.src[end-1] == ' ' || p.src[end-1] == '\t') {
		end--
	}
	return end
}

func (p *yamlParser) allocKey(parent NodeID, start, end int) NodeID {
	id := p.t.alloc(KindKey, parent)
	p.t.nodes[id].Span = Span{Start: p.pos(start), End: p.pos(end)}
	value, _ := unquoteScalar(string(p.src[start:end]))
	p.t.nodes[id].Value = value
	return id
}

func (p *yamlParser) attachEmptyScalar(parent, keyID NodeID, at int) {
	p.attachEmptyRegion(parent, keyID, at, at)
}

// attachEmptyRegion adds a value-less scalar spanning [from, to), the
// region a value would occupy once typed.
func (p *yamlParser) attachEmptyRegion(parent, keyID NodeID, from, to int) {
	id := p.t.alloc(KindScalar, parent)
	p.t.nodes[id].Span = Span{Start: p.pos(from), End: p.pos(to)}
	p.t.nodes[id].Scalar = ScalarNull
	p.t.nodes[id].Key = keyID
	p.t.attach(parent, id)
}

func unquoteScalar(raw string) (string, ScalarType) {
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') ||
			(raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1], ScalarString
		}
	}
	if len(raw) >= 1 && (raw[0] == '"' || raw[0] == '\'') {
		// Unterminated quote while typing.
		return raw[1:], ScalarString
	}
	return raw, classifyScalar(raw)
}
