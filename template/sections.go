package template

import "github.com/dhamidi/cfnls/template/parser"

// TopLevelSections lists the recognized template root keys in their
// conventional order.
var TopLevelSections = []string{
	"AWSTemplateFormatVersion",
	"Description",
	"Metadata",
	"Parameters",
	"Rules",
	"Mappings",
	"Conditions",
	"Transform",
	"Resources",
	"Outputs",
}

var sectionSet = func() map[string]bool {
	m := make(map[string]bool, len(TopLevelSections))
	for _, s := range TopLevelSections {
		m[s] = true
	}
	return m
}()

// namedSections are the sections whose immediate children are
// user-named entities (logical ids).
var namedSections = map[string]bool{
	"Parameters": true,
	"Rules":      true,
	"Mappings":   true,
	"Conditions": true,
	"Resources":  true,
	"Outputs":    true,
}

func IsSection(name string) bool {
	return sectionSet[name]
}

// HasLogicalIDs reports whether a section's children are named
// sub-entities. Transform and Metadata, among others, are not.
func HasLogicalIDs(section string) bool {
	return namedSections[section]
}

// IsTemplate is the template-document predicate: a parsed root whose
// top-level keys include at least one recognized section name. It is
// computed once per parse; documents that fail it never get a syntax
// tree.
func IsTemplate(tree *parser.Tree) bool {
	if tree == nil {
		return false
	}
	root := templateRoot(tree)
	if root == parser.NoNode {
		return false
	}
	for _, key := range tree.EntryKeys(root) {
		if sectionSet[key] {
			return true
		}
	}
	return false
}

// templateRoot returns the object holding the template's top-level
// keys: the root itself, or the first object beneath a root Error node
// when the document's tail failed to parse.
func templateRoot(tree *parser.Tree) parser.NodeID {
	root := tree.Root()
	n := tree.Node(root)
	if n == nil {
		return parser.NoNode
	}
	if n.Kind == parser.KindObject || n.Kind == parser.KindArray {
		return root
	}
	if n.Kind == parser.KindError {
		for _, cid := range n.Children {
			c := tree.Node(cid)
			if c.Kind == parser.KindObject || c.Kind == parser.KindArray {
				return cid
			}
		}
	}
	return root
}

// IntrinsicFunctions lists the short-form tag names the editor can
// complete after "!". The long forms are the same names behind "Fn::",
// except Ref which has no long form.
var IntrinsicFunctions = []string{
	"Ref",
	"Sub",
	"GetAtt",
	"GetAZs",
	"Join",
	"Select",
	"Split",
	"ImportValue",
	"FindInMap",
	"Base64",
	"Cidr",
	"If",
	"And",
	"Or",
	"Not",
	"Equals",
	"Condition",
	"Transform",
	"Length",
	"ToJsonString",
	"ForEach",
}
