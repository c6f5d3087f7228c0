package template

import "github.com/dhamidi/cfnls/template/parser"

// Context describes what the cursor is inside of: the top-level
// section, the logical id, the property path below the section, and
// whether the position sits on a key, in a value, or in structural
// noise (comments, top-level whitespace). It is recomputed per request
// and never cached: node ids go stale on the next edit.
type Context struct {
	// Section is the enclosing top-level key, "" when the cursor is
	// above or between sections.
	Section string

	// LogicalID is the user-chosen entity name under a named section,
	// "" elsewhere.
	LogicalID string

	// Path holds the keys from the section root down to the enclosing
	// node. Its first element is the logical id when one exists. Array
	// indices are not represented.
	Path []string

	// TopLevel is true exactly when the cursor sits on a
	// section-defining key itself.
	TopLevel bool

	InKey   bool
	InValue bool

	// Noise marks comments and unaddressable whitespace. Features must
	// return empty results instead of guessing.
	Noise bool

	// Entity is the enclosing entity, nil when none applies. An
	// EntityUnknown variant means type-specific features must stay
	// quiet.
	Entity *Entity

	// Node is the nearest enclosing structural node.
	Node parser.NodeID
}

// InsideTag reports whether the resolved node sits inside an intrinsic
// function (tag) node, including on the tag itself.
func (c *Context) InsideTag(tree *parser.Tree) bool {
	return insideTag(tree, c.Node)
}

func insideTag(tree *parser.Tree, id parser.NodeID) bool {
	for id != parser.NoNode {
		n := tree.Node(id)
		if n == nil {
			return false
		}
		if n.Kind == parser.KindTag {
			return true
		}
		id = n.Parent
	}
	return false
}

// ResolveContext maps a byte offset to its semantic context. It
// returns nil only when no tree is available; an empty document still
// yields an addressable (empty) context. Out-of-range offsets are
// clamped rather than rejected, since editors send slightly stale
// positions during rapid typing.
func ResolveContext(tree *parser.Tree, offset int) *Context {
	if tree == nil || tree.Root() == parser.NoNode {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	if max := len(tree.Source()); offset > max {
		offset = max
	}

	r := &resolver{tree: tree}
	h := r.resolve(tree.Root(), offset, nil)
	return r.contextFor(h)
}

type resolver struct {
	tree *parser.Tree
}

type hit struct {
	node      parser.NodeID
	keys      []string
	inKey     bool
	inValue   bool
	noise     bool
	container bool
}

func (r *resolver) resolve(id parser.NodeID, offset int, keys []string) hit {
	t := r.tree
	n := t.Node(id)

	switch n.Kind {
	case parser.KindScalar:
		return hit{node: id, keys: keys, inValue: true}
	case parser.KindComment:
		return hit{node: id, keys: keys, noise: true}
	}

	// Key spans win ties at boundary offsets: a cursor on a key always
	// resolves to the key, never to the surrounding value.
	for _, cid := range n.Children {
		c := t.Node(cid)
		if c.Kind == parser.KindComment {
			if c.Span.Touches(offset) && c.Span.Len() > 0 {
				return hit{node: cid, keys: keys, noise: true}
			}
			continue
		}
		if key := t.KeyOf(cid); key != nil && key.Span.Touches(offset) {
			return hit{node: cid, keys: append(keys, key.Value), inKey: true}
		}
	}

	for _, cid := range n.Children {
		c := t.Node(cid)
		if c.Kind == parser.KindComment {
			continue
		}
		if c.Span.Contains(offset) {
			return r.resolve(cid, offset, r.push(keys, cid))
		}
	}

	// A cursor just past a value's last byte still belongs to that
	// value (typing at the end of a scalar, hovering right after a
	// closed brace). Containers whose span ends here may hold a deeper
	// node ending at the same offset, so the walk keeps descending and
	// only stops on leaves.
	for i := len(n.Children) - 1; i >= 0; i-- {
		cid := n.Children[i]
		c := t.Node(cid)
		if c.Kind == parser.KindComment || c.Span.End.Offset != offset {
			continue
		}
		switch c.Kind {
		case parser.KindObject, parser.KindArray, parser.KindTag:
			return r.resolve(cid, offset, r.push(keys, cid))
		}
		return hit{node: cid, keys: r.push(keys, cid), inValue: true}
	}

	// Same-line gap after "Key:" whose value lives on later lines:
	// value position of that key.
	for i := len(n.Children) - 1; i >= 0; i-- {
		cid := n.Children[i]
		key := t.KeyOf(cid)
		if key == nil || key.Span.End.Offset > offset {
			continue
		}
		c := t.Node(cid)
		if c.Span.Start.Offset >= offset && r.sameLine(key.Span.End.Offset, offset) {
			return hit{node: cid, keys: r.push(keys, cid), inValue: true}
		}
	}

	// Trailing whitespace immediately after a completed value resolves
	// to that value, not to whatever key comes next.
	for i := len(n.Children) - 1; i >= 0; i-- {
		cid := n.Children[i]
		c := t.Node(cid)
		if c.Kind == parser.KindComment || c.Span.End.Offset > offset {
			continue
		}
		if r.whitespaceBetween(c.Span.End.Offset, offset) {
			return hit{node: cid, keys: r.push(keys, cid), inValue: true}
		}
		break
	}

	return hit{node: id, keys: keys, container: true}
}

func (r *resolver) push(keys []string, cid parser.NodeID) []string {
	if name := r.tree.KeyName(cid); name != "" {
		return append(keys, name)
	}
	return keys
}

func (r *resolver) sameLine(from, to int) bool {
	src := r.tree.Source()
	for i := from; i < to && i < len(src); i++ {
		if src[i] == '\n' {
			return false
		}
	}
	return true
}

func (r *resolver) whitespaceBetween(from, to int) bool {
	src := r.tree.Source()
	for i := from; i < to && i < len(src); i++ {
		switch src[i] {
		case ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func (r *resolver) contextFor(h hit) *Context {
	t := r.tree
	ctx := &Context{
		Node:    h.node,
		InKey:   h.inKey,
		InValue: h.inValue,
		Noise:   h.noise,
	}

	// Whitespace with no enclosing structure below the root is noise:
	// there is nothing addressable to complete or hover.
	if h.container && (h.node == t.Root() || h.node == templateRoot(t)) {
		ctx.Noise = true
	}

	keys := h.keys
	if len(keys) > 0 {
		ctx.Section = keys[0]
	}
	if ctx.Noise {
		return ctx
	}

	ctx.TopLevel = h.inKey && len(keys) == 1
	if len(keys) > 1 {
		ctx.Path = append([]string(nil), keys[1:]...)
	}
	if HasLogicalIDs(ctx.Section) && len(keys) > 1 {
		ctx.LogicalID = keys[1]
	}

	ctx.Entity = r.entityFor(ctx)
	return ctx
}

func (r *resolver) entityFor(ctx *Context) *Entity {
	if ctx.Section == "" {
		return nil
	}
	t := r.tree
	root := templateRoot(t)
	sectionNode := t.ChildByKey(root, ctx.Section)
	if sectionNode == parser.NoNode {
		return nil
	}
	if !HasLogicalIDs(ctx.Section) {
		return FromNode(t, ctx.Section, "", sectionNode)
	}
	if ctx.LogicalID == "" {
		return nil
	}
	entNode := t.ChildByKey(sectionNode, ctx.LogicalID)
	if entNode == parser.NoNode {
		return nil
	}
	return FromNode(t, ctx.Section, ctx.LogicalID, entNode)
}
