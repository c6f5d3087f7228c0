package template

import "github.com/dhamidi/cfnls/template/parser"

// EntityKind tags the closed set of template entity variants. Every
// consumer switches exhaustively over these; adding a section kind
// means touching each switch.
type EntityKind int

const (
	EntityUnknown EntityKind = iota
	EntityResource
	EntityParameter
	EntityMapping
	EntityCondition
	EntityOutput
	EntityTransform
	EntityMetadata
	EntityRule
)

var entityKindNames = map[EntityKind]string{
	EntityUnknown:   "Unknown",
	EntityResource:  "Resource",
	EntityParameter: "Parameter",
	EntityMapping:   "Mapping",
	EntityCondition: "Condition",
	EntityOutput:    "Output",
	EntityTransform: "Transform",
	EntityMetadata:  "Metadata",
	EntityRule:      "Rule",
}

func (k EntityKind) String() string {
	if name, ok := entityKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func entityKindForSection(section string) EntityKind {
	switch section {
	case "Resources":
		return EntityResource
	case "Parameters":
		return EntityParameter
	case "Mappings":
		return EntityMapping
	case "Conditions":
		return EntityCondition
	case "Outputs":
		return EntityOutput
	case "Transform":
		return EntityTransform
	case "Metadata":
		return EntityMetadata
	case "Rules":
		return EntityRule
	}
	return EntityUnknown
}

// Field is one entry physically present under an entity's node. The
// record keeps document order and distinguishes "key absent" from "key
// present with empty value".
type Field struct {
	Key   string
	Value parser.NodeID
}

// Entity is the normalized view of one template entity. Entities are
// built transiently per resolution and reflect only the subtree under
// their backing node; they must not be cached across edits.
type Entity struct {
	Kind   EntityKind
	Name   string
	Type   string
	Node   parser.NodeID
	Record []Field
}

// FromNode builds the entity for a node under the given section. The
// variant degrades to Unknown when the subtree has not parsed far
// enough to determine it: a Resource needs a recognizable scalar Type
// reachable without crossing an Error node.
func FromNode(tree *parser.Tree, section, name string, id parser.NodeID) *Entity {
	e := &Entity{
		Kind: entityKindForSection(section),
		Name: name,
		Node: id,
	}
	n := tree.Node(id)
	if n == nil {
		e.Kind = EntityUnknown
		return e
	}

	if n.Kind == parser.KindObject || n.Kind == parser.KindTag {
		for _, cid := range n.Children {
			key := tree.KeyOf(cid)
			if key == nil {
				continue
			}
			e.Record = append(e.Record, Field{Key: key.Value, Value: cid})
		}
	}

	switch e.Kind {
	case EntityResource:
		typ, ok := scalarField(tree, id, "Type")
		if !ok || typ == "" {
			e.Kind = EntityUnknown
			return e
		}
		e.Type = typ
	case EntityParameter:
		if typ, ok := scalarField(tree, id, "Type"); ok {
			e.Type = typ
		}
	}
	return e
}

// Get returns the value node of the named field.
func (e *Entity) Get(key string) (parser.NodeID, bool) {
	for _, f := range e.Record {
		if f.Key == key {
			return f.Value, true
		}
	}
	return parser.NoNode, false
}

// Properties returns the node holding a resource's Properties map, or
// NoNode.
func (e *Entity) Properties() parser.NodeID {
	if e.Kind != EntityResource {
		return parser.NoNode
	}
	if id, ok := e.Get("Properties"); ok {
		return id
	}
	return parser.NoNode
}

func scalarField(tree *parser.Tree, id parser.NodeID, key string) (string, bool) {
	vid := tree.ChildByKey(id, key)
	v := tree.Node(vid)
	if v == nil || v.Kind != parser.KindScalar {
		return "", false
	}
	return v.Value, true
}
