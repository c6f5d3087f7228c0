package parser

import "strings"

// Format selects the serialization grammar used to parse a document.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// DetectFormat picks a format from the editor's language id, falling
// back to sniffing the first non-blank byte. YAML is the default: a
// half-typed document is more often YAML than JSON in this domain.
func DetectFormat(source []byte, languageID string) Format {
	switch strings.ToLower(languageID) {
	case "json", "jsonc":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	}
	for _, b := range source {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return FormatJSON
		default:
			return FormatYAML
		}
	}
	return FormatYAML
}

// Parse converts source text into a structural tree. It never fails:
// malformed input yields a tree with Error nodes covering the regions
// that could not be recovered, and an empty document yields a root
// empty Object spanning the (empty) source.
//
// Parsing the same text twice yields structurally identical trees.
func Parse(source []byte, format Format) *Tree {
	if format == FormatUnknown {
		format = DetectFormat(source, "")
	}
	t := newTree(source, format)
	switch format {
	case FormatJSON:
		parseJSON(t)
	default:
		parseYAML(t)
	}
	normalizeIntrinsics(t)
	finishSpans(t)
	return t
}

// intrinsicPrefixes are the long-form function key spellings. An object
// holding exactly one such entry is folded into a Tag node so that
// consumers can special-case intrinsic arguments.
func intrinsicKeyName(key string) (string, bool) {
	if key == "Ref" || key == "Condition" {
		return key, true
	}
	if strings.HasPrefix(key, "Fn::") && len(key) > len("Fn::") {
		return key[len("Fn::"):], true
	}
	return "", false
}

func normalizeIntrinsics(t *Tree) {
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.Kind != KindObject || len(n.Children) != 1 {
			continue
		}
		key := t.KeyOf(n.Children[0])
		if key == nil {
			continue
		}
		if name, ok := intrinsicKeyName(key.Value); ok {
			n.Kind = KindTag
			n.Tag = name
		}
	}
}

// finishSpans widens every container to cover its children and pins the
// root span to the full document, which must hold even for empty and
// invalid input.
func finishSpans(t *Tree) {
	if t.root == NoNode {
		return
	}
	lt := newLineTable(t.source)
	t.growSpan(t.root)
	root := t.Node(t.root)
	root.Span = Span{
		Start: Position{Offset: 0, Line: 0, Column: 0},
		End:   lt.position(len(t.source)),
	}
}

func (t *Tree) growSpan(id NodeID) Span {
	n := t.Node(id)
	span := n.Span
	for _, cid := range n.Children {
		child := t.growSpan(cid)
		if child.End.Offset > span.End.Offset {
			span.End = child.End
		}
		if child.Start.Offset < span.Start.Offset {
			span.Start = child.Start
		}
	}
	n.Span = span
	return span
}

// classifyScalar maps a plain (unquoted) scalar literal to its type.
func classifyScalar(text string) ScalarType {
	switch text {
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return ScalarBool
	case "null", "Null", "NULL", "~", "":
		return ScalarNull
	}
	if isNumber(text) {
		return ScalarNumber
	}
	return ScalarString
}

func isNumber(text string) bool {
	if text == "" {
		return false
	}
	i := 0
	if text[i] == '-' || text[i] == '+' {
		i++
	}
	digits, dot, exp := false, false, false
	for ; i < len(text); i++ {
		switch c := text[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && digits && !exp:
			exp = true
			if i+1 < len(text) && (text[i+1] == '-' || text[i+1] == '+') {
				i++
			}
			digits = false
		default:
			return false
		}
	}
	return digits
}
