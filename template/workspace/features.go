package workspace

import (
	"strings"

	"github.com/dhamidi/cfnls/template"
	"github.com/dhamidi/cfnls/template/document"
	"github.com/dhamidi/cfnls/template/parser"
)

// CompletionKind mirrors the coarse item categories the editor
// distinguishes visually.
type CompletionKind int

const (
	CompletionKindSection CompletionKind = iota
	CompletionKindProperty
	CompletionKindValue
	CompletionKindFunction
)

type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	Documentation string
}

// Completions computes the completion items for a cursor position.
// Returns nil whenever the position is noise or the context is too
// broken to answer confidently; a wrong suggestion is worse than none.
func (w *Workspace) Completions(uri string, pos document.Position) []CompletionItem {
	doc := w.docs.Get(uri)
	if doc == nil {
		return nil
	}
	st := w.SyntaxTree(uri)
	if st == nil {
		// A fresh buffer still gets top-level section names; that is
		// how an empty file becomes a template in the first place.
		// Established non-template documents stay quiet.
		if freshBuffer(doc.Text()) {
			return w.sectionCompletions(nil)
		}
		return nil
	}

	offset := doc.OffsetAt(pos)
	ctx := template.ResolveContext(st.Tree, offset)
	if ctx == nil {
		return nil
	}

	if ctx.Noise {
		return nil
	}
	if items := w.intrinsicCompletions(st.Tree, offset); items != nil {
		return items
	}
	if ctx.TopLevel || ctx.Section == "" {
		return w.sectionCompletions(st.Tree)
	}

	if ctx.Entity != nil && ctx.Entity.Kind == template.EntityResource {
		if items := w.resourceCompletions(st.Tree, ctx); items != nil {
			return items
		}
	}
	if wantsResourceType(ctx) {
		return w.typeCompletions()
	}
	return nil
}

// freshBuffer reports whether text is still at the one-line stage
// where the user may be typing the first section key.
func freshBuffer(text string) bool {
	return !strings.Contains(strings.TrimSpace(text), "\n")
}

// intrinsicCompletions fires when the cursor directly follows a "!",
// the short-form tag sigil.
func (w *Workspace) intrinsicCompletions(tree *parser.Tree, offset int) []CompletionItem {
	src := tree.Source()
	if offset <= 0 || offset > len(src) || src[offset-1] != '!' {
		return nil
	}
	items := make([]CompletionItem, 0, len(template.IntrinsicFunctions))
	for _, fn := range template.IntrinsicFunctions {
		items = append(items, CompletionItem{
			Label:  fn,
			Kind:   CompletionKindFunction,
			Detail: "intrinsic function",
		})
	}
	return items
}

// sectionCompletions offers the recognized top-level keys, minus the
// ones the document already has.
func (w *Workspace) sectionCompletions(tree *parser.Tree) []CompletionItem {
	present := make(map[string]bool)
	if tree != nil {
		for _, key := range tree.EntryKeys(tree.Root()) {
			present[key] = true
		}
	}
	var items []CompletionItem
	for _, section := range template.TopLevelSections {
		if present[section] {
			continue
		}
		items = append(items, CompletionItem{
			Label:  section,
			Kind:   CompletionKindSection,
			Detail: "template section",
		})
	}
	return items
}

// resourceCompletions answers positions inside a resource body: schema
// properties under Properties, and resource fields at the body's top.
func (w *Workspace) resourceCompletions(tree *parser.Tree, ctx *template.Context) []CompletionItem {
	res, ok := w.schemas.Resource(ctx.Entity.Type)
	if !ok {
		return nil
	}
	if !underProperties(ctx) {
		return nil
	}

	present := make(map[string]bool)
	if props := ctx.Entity.Properties(); props != parser.NoNode {
		for _, key := range tree.EntryKeys(props) {
			present[key] = true
		}
	}
	var items []CompletionItem
	for _, p := range res.Properties {
		if present[p.Name] {
			continue
		}
		detail := p.Type
		if p.Required {
			detail += ", required"
		}
		items = append(items, CompletionItem{
			Label:         p.Name,
			Kind:          CompletionKindProperty,
			Detail:        detail,
			Documentation: p.Documentation,
		})
	}
	return items
}

func (w *Workspace) typeCompletions() []CompletionItem {
	types := w.schemas.Types()
	items := make([]CompletionItem, 0, len(types))
	for _, t := range types {
		items = append(items, CompletionItem{
			Label:  t,
			Kind:   CompletionKindValue,
			Detail: "resource type",
		})
	}
	return items
}

// underProperties reports whether the path descends through a
// resource's Properties map (the resource body itself does not count).
func underProperties(ctx *template.Context) bool {
	// Path is [LogicalID, "Properties", ...] inside a resource.
	for i, key := range ctx.Path {
		if i >= 1 && key == "Properties" {
			return true
		}
	}
	return false
}

// wantsResourceType detects the value position of a resource's Type
// key, including partially typed resources that still classify as
// Unknown.
func wantsResourceType(ctx *template.Context) bool {
	if ctx.Section != "Resources" || !ctx.InValue {
		return false
	}
	return len(ctx.Path) == 2 && ctx.Path[1] == "Type"
}

// HoverText returns markdown for the position, "" when there is
// nothing to show.
func (w *Workspace) HoverText(uri string, pos document.Position) string {
	doc := w.docs.Get(uri)
	st := w.SyntaxTree(uri)
	if doc == nil || st == nil {
		return ""
	}
	ctx := template.ResolveContext(st.Tree, doc.OffsetAt(pos))
	if ctx == nil || ctx.Noise || ctx.Entity == nil {
		return ""
	}

	if ctx.Entity.Kind != template.EntityResource {
		return ""
	}
	res, ok := w.schemas.Resource(ctx.Entity.Type)
	if !ok {
		return ""
	}

	if wantsResourceType(ctx) || onResourceTypeKey(ctx) {
		return "**" + res.Type + "**\n\n" + res.Documentation
	}
	if !underProperties(ctx) || len(ctx.Path) < 3 {
		return ""
	}
	prop, ok := res.Property(ctx.Path[len(ctx.Path)-1])
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("**" + prop.Name + "**: " + prop.Type)
	if prop.Required {
		sb.WriteString(" (required)")
	}
	if prop.Documentation != "" {
		sb.WriteString("\n\n" + prop.Documentation)
	}
	return sb.String()
}

func onResourceTypeKey(ctx *template.Context) bool {
	return ctx.InKey && len(ctx.Path) == 2 && ctx.Path[1] == "Type"
}

// ResourceLens is one per-resource annotation: the resource's logical
// id and declared type, anchored at its key.
type ResourceLens struct {
	LogicalID string
	Type      string
	Node      parser.NodeID
}

// ResourceLenses lists the declared resources for code lens
// decoration. Resources without a usable Type are skipped.
func (w *Workspace) ResourceLenses(uri string) []ResourceLens {
	st := w.SyntaxTree(uri)
	if st == nil {
		return nil
	}
	tree := st.Tree
	root := tree.Root()
	if n := tree.Node(root); n != nil && n.Kind == parser.KindError {
		for _, cid := range n.Children {
			if c := tree.Node(cid); c.Kind == parser.KindObject {
				root = cid
				break
			}
		}
	}
	resources := tree.ChildByKey(root, "Resources")
	if resources == parser.NoNode {
		return nil
	}
	var lenses []ResourceLens
	for _, cid := range tree.Node(resources).Children {
		name := tree.KeyName(cid)
		if name == "" {
			continue
		}
		ent := template.FromNode(tree, "Resources", name, cid)
		if ent.Kind != template.EntityResource {
			continue
		}
		lenses = append(lenses, ResourceLens{LogicalID: name, Type: ent.Type, Node: cid})
	}
	return lenses
}
