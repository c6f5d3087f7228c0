// Package refactor synthesizes multi-edit transactions against a
// document's original buffer. Edit offsets all reference the unedited
// text; Apply splices them last-to-first so earlier offsets stay valid
// while a batch is applied.
package refactor

import (
	"strconv"
	"strings"

	"github.com/dhamidi/cfnls/template/parser"
)

type Mode int

const (
	Single Mode = iota
	AllOccurrences
)

// Edit replaces [Start, End) of the original buffer with NewText. An
// insertion has Start == End.
type Edit struct {
	Start   int
	End     int
	NewText string
}

// ExtractParameter turns the literal at [startOff, endOff] into a
// named parameter: one edit creates or extends the Parameters section,
// and one edit per occurrence replaces the literal with a reference in
// the document's own format. Reports false when the range does not
// resolve to an extractable literal, or the literal sits inside an
// intrinsic function.
func ExtractParameter(tree *parser.Tree, startOff, endOff int, mode Mode) ([]Edit, bool) {
	target := extractTarget(tree, startOff, endOff)
	if target == parser.NoNode {
		return nil, false
	}
	node := tree.Node(target)

	name := parameterName(tree, target)
	occurrences := []parser.NodeID{target}
	if mode == AllOccurrences {
		occurrences = matchingLiterals(tree, node.Value, node.Scalar)
	}

	edits := []Edit{insertionEdit(tree, target, name, node)}
	ref := referenceText(tree.Format(), name)
	for _, id := range occurrences {
		span := tree.Node(id).Span
		edits = append(edits, Edit{Start: span.Start.Offset, End: span.End.Offset, NewText: ref})
	}
	return edits, true
}

// extractTarget resolves the requested range to a literal scalar that
// extraction can act on.
func extractTarget(tree *parser.Tree, startOff, endOff int) parser.NodeID {
	id := tree.NodeAt(startOff)
	n := tree.Node(id)
	if n == nil || n.Kind != parser.KindScalar || n.Value == "" {
		return parser.NoNode
	}
	switch n.Scalar {
	case parser.ScalarString, parser.ScalarNumber, parser.ScalarBool:
	default:
		return parser.NoNode
	}
	if endOff > n.Span.End.Offset {
		return parser.NoNode
	}
	if insideTagNode(tree, id) {
		return parser.NoNode
	}
	if enclosingSection(tree, id) == "Parameters" {
		return parser.NoNode
	}
	return id
}

func insideTagNode(tree *parser.Tree, id parser.NodeID) bool {
	for cur := tree.Node(id).Parent; cur != parser.NoNode; cur = tree.Node(cur).Parent {
		if tree.Node(cur).Kind == parser.KindTag {
			return true
		}
	}
	return false
}

// enclosingSection names the top-level section a node sits in, "" for
// nodes above section level.
func enclosingSection(tree *parser.Tree, id parser.NodeID) string {
	root := tree.Root()
	var last parser.NodeID = parser.NoNode
	for cur := id; cur != parser.NoNode && cur != root; cur = tree.Node(cur).Parent {
		if tree.Node(cur).Parent == root || isRootChild(tree, cur) {
			last = cur
			break
		}
	}
	if last == parser.NoNode {
		return ""
	}
	return tree.KeyName(last)
}

// isRootChild also accepts children of the object beneath a root Error
// node, where the document tail failed to parse.
func isRootChild(tree *parser.Tree, id parser.NodeID) bool {
	parent := tree.Node(id).Parent
	if parent == parser.NoNode {
		return false
	}
	p := tree.Node(parent)
	return p.Parent == tree.Root() && tree.Node(tree.Root()).Kind == parser.KindError
}

// parameterName derives a deterministic parameter name from the
// literal's enclosing key, disambiguating collisions with a numeric
// suffix. The same input always yields the same name.
func parameterName(tree *parser.Tree, id parser.NodeID) string {
	base := tree.KeyName(id)
	for cur := id; base == "" && cur != parser.NoNode; cur = tree.Node(cur).Parent {
		base = tree.KeyName(cur)
	}
	if base == "" {
		base = "Extracted"
	}
	base = sanitizeName(base) + "Param"

	taken := make(map[string]bool)
	if params := parametersNode(tree); params != parser.NoNode {
		for _, key := range tree.EntryKeys(params) {
			taken[key] = true
		}
	}
	name := base
	for n := 2; taken[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	return name
}

func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "Extracted"
	}
	out := sb.String()
	if out[0] >= 'a' && out[0] <= 'z' {
		out = string(out[0]-'a'+'A') + out[1:]
	}
	return out
}

// matchingLiterals finds every scalar whose normalized value and type
// match, skipping intrinsic arguments and the Parameters section
// itself, where a replacement would corrupt defaults.
func matchingLiterals(tree *parser.Tree, value string, typ parser.ScalarType) []parser.NodeID {
	var ids []parser.NodeID
	tree.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.KindScalar && n.Value == value && n.Scalar == typ {
			if !insideTagNode(tree, n.ID) && enclosingSection(tree, n.ID) != "Parameters" {
				ids = append(ids, n.ID)
			}
		}
		return true
	})
	return ids
}

func parametersNode(tree *parser.Tree) parser.NodeID {
	root := tree.Root()
	if tree.Node(root).Kind == parser.KindError {
		for _, cid := range tree.Node(root).Children {
			if c := tree.Node(cid); c.Kind == parser.KindObject {
				root = cid
				break
			}
		}
	}
	return tree.ChildByKey(root, "Parameters")
}

func referenceText(format parser.Format, name string) string {
	if format == parser.FormatJSON {
		return `{"Ref": "` + name + `"}`
	}
	return "!Ref " + name
}

func parameterType(typ parser.ScalarType) string {
	if typ == parser.ScalarNumber {
		return "Number"
	}
	// Parameters have no boolean type; booleans become strings.
	return "String"
}

// insertionEdit builds the single edit that defines the new parameter,
// creating the Parameters section when the document has none.
func insertionEdit(tree *parser.Tree, target parser.NodeID, name string, node *parser.Node) Edit {
	if tree.Format() == parser.FormatJSON {
		return jsonInsertion(tree, name, node)
	}
	return yamlInsertion(tree, target, name, node)
}

func yamlInsertion(tree *parser.Tree, target parser.NodeID, name string, node *parser.Node) Edit {
	src := tree.Source()
	ptype := parameterType(node.Scalar)
	def := node.Value
	if node.Scalar == parser.ScalarString || node.Scalar == parser.ScalarBool {
		def = "'" + def + "'"
	}

	params := parametersNode(tree)
	if params != parser.NoNode && tree.Node(params).Kind == parser.KindObject {
		indent := 2
		if keys := tree.Node(params).Children; len(keys) > 0 {
			if key := tree.KeyOf(keys[0]); key != nil {
				indent = key.Span.Start.Column
			}
		}
		pad := strings.Repeat(" ", indent)
		at := lineEndAfter(src, tree.Node(params).Span.End.Offset)
		text := pad + name + ":\n" +
			pad + "  Type: " + ptype + "\n" +
			pad + "  Default: " + def + "\n"
		return Edit{Start: at, End: at, NewText: text}
	}

	// No Parameters section: create one just above the section holding
	// the literal.
	at := sectionLineStart(tree, target)
	text := "Parameters:\n" +
		"  " + name + ":\n" +
		"    Type: " + ptype + "\n" +
		"    Default: " + def + "\n"
	return Edit{Start: at, End: at, NewText: text}
}

func jsonInsertion(tree *parser.Tree, name string, node *parser.Node) Edit {
	src := tree.Source()
	def := node.Value
	if node.Scalar == parser.ScalarString || node.Scalar == parser.ScalarBool {
		def = `"` + def + `"`
	}
	paramDef := `"` + name + `": {"Type": "` + parameterType(node.Scalar) + `", "Default": ` + def + `}`

	params := parametersNode(tree)
	if params != parser.NoNode && tree.Node(params).Kind == parser.KindObject {
		p := tree.Node(params)
		if children := p.Children; len(children) > 0 {
			last := tree.Node(children[len(children)-1])
			at := last.Span.End.Offset
			return Edit{Start: at, End: at, NewText: ", " + paramDef}
		}
		at := p.Span.Start.Offset + 1
		return Edit{Start: at, End: at, NewText: paramDef}
	}

	// No Parameters section: add one right after the root brace.
	at := 0
	for at < len(src) && src[at] != '{' {
		at++
	}
	if at < len(src) {
		at++
	}
	return Edit{Start: at, End: at, NewText: `"Parameters": {` + paramDef + `}, `}
}

// sectionLineStart returns the offset of the first byte of the line
// defining the top-level section that contains id.
func sectionLineStart(tree *parser.Tree, id parser.NodeID) int {
	section := enclosingSection(tree, id)
	root := tree.Root()
	if tree.Node(root).Kind == parser.KindError {
		root = parametersRootFallback(tree)
	}
	sid := tree.ChildByKey(root, section)
	if sid == parser.NoNode {
		return 0
	}
	key := tree.KeyOf(sid)
	if key == nil {
		return 0
	}
	src := tree.Source()
	at := key.Span.Start.Offset
	for at > 0 && src[at-1] != '\n' {
		at--
	}
	return at
}

func parametersRootFallback(tree *parser.Tree) parser.NodeID {
	root := tree.Root()
	for _, cid := range tree.Node(root).Children {
		if c := tree.Node(cid); c.Kind == parser.KindObject {
			return cid
		}
	}
	return root
}

func lineEndAfter(src []byte, offset int) int {
	for offset < len(src) {
		if src[offset] == '\n' {
			return offset + 1
		}
		offset++
	}
	return len(src)
}
