package parser

import "strings"

type NodeKind int

const (
	KindError NodeKind = iota
	KindObject
	KindArray
	KindScalar
	KindKey
	KindComment
	KindTag
)

var nodeKindNames = map[NodeKind]string{
	KindError:   "Error",
	KindObject:  "Object",
	KindArray:   "Array",
	KindScalar:  "Scalar",
	KindKey:     "Key",
	KindComment: "Comment",
	KindTag:     "Tag",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ScalarType classifies scalar values after unquoting. Used by the
// extract-to-parameter refactor to match occurrences by value and type.
type ScalarType int

const (
	ScalarString ScalarType = iota
	ScalarNumber
	ScalarBool
	ScalarNull
)

var scalarTypeNames = map[ScalarType]string{
	ScalarString: "String",
	ScalarNumber: "Number",
	ScalarBool:   "Bool",
	ScalarNull:   "Null",
}

func (t ScalarType) String() string {
	if name, ok := scalarTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// NodeID indexes into a Tree's node arena. NoNode marks an absent link.
type NodeID int

const NoNode NodeID = -1

// Node is one structural element of a parsed document. Nodes live in
// their Tree's arena; Parent and Children are arena ids, never owning
// references, so the graph stays acyclic from an ownership standpoint.
//
// Object children are the entry *values*, each linked to its KindKey
// node through Key. Key nodes are not listed in Children, so sibling
// value spans never overlap.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Span     Span
	Parent   NodeID
	Children []NodeID

	// Key names this node when it is an object entry value.
	Key NodeID

	// Value holds the unquoted scalar text, the key name, the comment
	// text, or an error message, depending on Kind.
	Value string

	// Scalar is meaningful only for KindScalar nodes.
	Scalar ScalarType

	// Tag holds the intrinsic function name on KindTag nodes, in short
	// form ("Ref", "GetAtt", "Sub", ...).
	Tag string
}

func (n *Node) IsError() bool {
	return n.Kind == KindError
}

// Tree owns the node graph for one parsed document. The source text it
// was built from is retained so positional queries need no other input.
type Tree struct {
	source []byte
	format Format
	nodes  []Node
	root   NodeID
}

func newTree(source []byte, format Format) *Tree {
	return &Tree{source: source, format: format, root: NoNode}
}

func (t *Tree) Source() []byte { return t.source }
func (t *Tree) Format() Format { return t.format }
func (t *Tree) Root() NodeID   { return t.root }
func (t *Tree) Len() int       { return len(t.nodes) }

// Node returns the node for id, or nil for NoNode or an id outside the
// arena.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

func (t *Tree) alloc(kind NodeKind, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Kind:   kind,
		Parent: parent,
		Key:    NoNode,
	})
	return id
}

func (t *Tree) attach(parent, child NodeID) {
	p := t.Node(parent)
	p.Children = append(p.Children, child)
	t.nodes[child].Parent = parent
}

// KeyOf returns the key node naming an object entry value, or nil.
func (t *Tree) KeyOf(id NodeID) *Node {
	n := t.Node(id)
	if n == nil || n.Key == NoNode {
		return nil
	}
	return t.Node(n.Key)
}

// KeyName returns the key naming id, or "" when id is not an object
// entry value.
func (t *Tree) KeyName(id NodeID) string {
	if key := t.KeyOf(id); key != nil {
		return key.Value
	}
	return ""
}

// ChildByKey returns the value node of the entry named key under an
// object (or tag) node.
func (t *Tree) ChildByKey(id NodeID, key string) NodeID {
	n := t.Node(id)
	if n == nil {
		return NoNode
	}
	for _, cid := range n.Children {
		if t.KeyName(cid) == key {
			return cid
		}
	}
	return NoNode
}

// EntryKeys returns the key names physically present under an object
// node, in document order.
func (t *Tree) EntryKeys(id NodeID) []string {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	var keys []string
	for _, cid := range n.Children {
		if name := t.KeyName(cid); name != "" {
			keys = append(keys, name)
		}
	}
	return keys
}

// NodeAt returns the deepest value node whose span contains offset.
// Key nodes are never returned; comments are. Returns the root when no
// deeper node contains the offset.
func (t *Tree) NodeAt(offset int) NodeID {
	if t.root == NoNode {
		return NoNode
	}
	id := t.root
	for {
		n := t.Node(id)
		next := NoNode
		for _, cid := range n.Children {
			c := t.Node(cid)
			if c.Span.Contains(offset) || (c.Span.Len() > 0 && c.Span.End.Offset == offset && c.Kind == KindScalar) {
				next = cid
				break
			}
		}
		if next == NoNode {
			return id
		}
		id = next
	}
}

// HasErrors reports whether any Error node is present in the tree.
func (t *Tree) HasErrors() bool {
	for i := range t.nodes {
		if t.nodes[i].Kind == KindError {
			return true
		}
	}
	return false
}

// Errors returns every Error node in the tree, in arena order.
func (t *Tree) Errors() []*Node {
	var errs []*Node
	for i := range t.nodes {
		if t.nodes[i].Kind == KindError {
			errs = append(errs, &t.nodes[i])
		}
	}
	return errs
}

// Walk visits nodes depth-first starting at root, keys before values.
// Returning false from fn stops descent into the current subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.root == NoNode {
		return
	}
	t.walk(t.root, fn)
}

func (t *Tree) walk(id NodeID, fn func(*Node) bool) {
	n := t.Node(id)
	if !fn(n) {
		return
	}
	for _, cid := range n.Children {
		if key := t.KeyOf(cid); key != nil {
			if !fn(key) {
				continue
			}
		}
		t.walk(cid, fn)
	}
}

func (t *Tree) String() string {
	return t.dump(false)
}

func (t *Tree) StringWithPositions() string {
	return t.dump(true)
}

func (t *Tree) dump(showPositions bool) string {
	var sb strings.Builder
	if t.root != NoNode {
		t.dumpNode(&sb, t.root, 0, showPositions)
	}
	return sb.String()
}

func (t *Tree) dumpNode(sb *strings.Builder, id NodeID, indent int, showPositions bool) {
	n := t.Node(id)
	for i := 0; i < indent; i++ {
		sb.WriteString("  ")
	}
	sb.WriteString(n.Kind.String())
	if showPositions {
		sb.WriteString(" [" + n.Span.Start.String() + "-" + n.Span.End.String() + "]")
	}
	if key := t.KeyOf(id); key != nil {
		sb.WriteString(" " + key.Value + ":")
	}
	if n.Kind == KindTag {
		sb.WriteString(" !" + n.Tag)
	}
	if n.Value != "" && n.Kind != KindObject && n.Kind != KindArray {
		sb.WriteString(" " + n.Value)
	}
	sb.WriteString("\n")
	for _, cid := range n.Children {
		t.dumpNode(sb, cid, indent+1, showPositions)
	}
}
