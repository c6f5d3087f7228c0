package parser

import "testing"

const yamlTemplate = `AWSTemplateFormatVersion: "2010-09-09"
Resources:
  MyBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: my-test-bucket
  MyTopic:
    Type: AWS::SNS::Topic
`

func mustChild(t *testing.T, tree *Tree, id NodeID, key string) NodeID {
	t.Helper()
	cid := tree.ChildByKey(id, key)
	if cid == NoNode {
		t.Fatalf("key %q not found under node %d", key, id)
	}
	return cid
}

func TestParseYAMLTemplate(t *testing.T) {
	tree := Parse([]byte(yamlTemplate), FormatYAML)

	root := tree.Root()
	if tree.Node(root).Kind != KindObject {
		t.Fatalf("root kind = %v, want Object", tree.Node(root).Kind)
	}

	version := mustChild(t, tree, root, "AWSTemplateFormatVersion")
	if v := tree.Node(version); v.Kind != KindScalar || v.Value != "2010-09-09" {
		t.Errorf("version = %v %q, want Scalar 2010-09-09", v.Kind, v.Value)
	}

	resources := mustChild(t, tree, root, "Resources")
	if got := tree.EntryKeys(resources); len(got) != 2 || got[0] != "MyBucket" || got[1] != "MyTopic" {
		t.Errorf("resource keys = %v, want [MyBucket MyTopic]", got)
	}

	bucket := mustChild(t, tree, resources, "MyBucket")
	typ := mustChild(t, tree, bucket, "Type")
	if v := tree.Node(typ); v.Value != "AWS::S3::Bucket" || v.Scalar != ScalarString {
		t.Errorf("bucket type = %q (%v), want AWS::S3::Bucket (String)", v.Value, v.Scalar)
	}

	name := mustChild(t, tree, mustChild(t, tree, bucket, "Properties"), "BucketName")
	if v := tree.Node(name); v.Value != "my-test-bucket" {
		t.Errorf("bucket name = %q, want my-test-bucket", v.Value)
	}

	if tree.HasErrors() {
		t.Errorf("unexpected errors:\n%s", tree.StringWithPositions())
	}
}

func TestParseYAMLSpansNested(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n"
	tree := Parse([]byte(source), FormatYAML)

	resources := mustChild(t, tree, tree.Root(), "Resources")
	bucket := mustChild(t, tree, resources, "MyBucket")
	typ := mustChild(t, tree, bucket, "Type")

	typeSpan := tree.Node(typ).Span
	if got := string(tree.Source()[typeSpan.Start.Offset:typeSpan.End.Offset]); got != "AWS::S3::Bucket" {
		t.Errorf("type span covers %q", got)
	}
	if key := tree.KeyOf(typ); key == nil || key.Value != "Type" {
		t.Errorf("type value not linked to its key")
	}

	// Containers cover their children.
	bucketSpan := tree.Node(bucket).Span
	if bucketSpan.Start.Offset > typeSpan.Start.Offset || bucketSpan.End.Offset < typeSpan.End.Offset {
		t.Errorf("bucket span %v does not cover type span %v", bucketSpan, typeSpan)
	}
}

func TestParseYAMLShortFormTags(t *testing.T) {
	source := "Outputs:\n  BucketRef:\n    Value: !Ref MyBucket\n"
	tree := Parse([]byte(source), FormatYAML)

	value := mustChild(t, tree, mustChild(t, tree, mustChild(t, tree, tree.Root(), "Outputs"), "BucketRef"), "Value")
	n := tree.Node(value)
	if n.Kind != KindTag || n.Tag != "Ref" {
		t.Fatalf("value = %v tag %q, want Tag Ref", n.Kind, n.Tag)
	}
	if len(n.Children) != 1 {
		t.Fatalf("tag has %d children, want 1", len(n.Children))
	}
	arg := tree.Node(n.Children[0])
	if arg.Kind != KindScalar || arg.Value != "MyBucket" {
		t.Errorf("tag argument = %v %q, want Scalar MyBucket", arg.Kind, arg.Value)
	}
}

func TestParseYAMLSequences(t *testing.T) {
	source := "Transform:\n  - AWS::Serverless-2016-10-31\n  - MyMacro\n"
	tree := Parse([]byte(source), FormatYAML)

	transform := mustChild(t, tree, tree.Root(), "Transform")
	n := tree.Node(transform)
	if n.Kind != KindArray {
		t.Fatalf("transform kind = %v, want Array", n.Kind)
	}
	if len(n.Children) != 2 {
		t.Fatalf("transform has %d items, want 2", len(n.Children))
	}
	if got := tree.Node(n.Children[1]).Value; got != "MyMacro" {
		t.Errorf("second item = %q, want MyMacro", got)
	}
}

func TestParseYAMLSequenceOfMappings(t *testing.T) {
	source := "Tags:\n  - Key: env\n    Value: dev\n  - Key: team\n    Value: infra\n"
	tree := Parse([]byte(source), FormatYAML)

	tags := mustChild(t, tree, tree.Root(), "Tags")
	n := tree.Node(tags)
	if n.Kind != KindArray || len(n.Children) != 2 {
		t.Fatalf("tags = %v with %d children, want Array with 2:\n%s", n.Kind, len(n.Children), tree.String())
	}
	first := tree.Node(n.Children[0])
	if first.Kind != KindObject {
		t.Fatalf("first item kind = %v, want Object", first.Kind)
	}
	key := mustChild(t, tree, n.Children[0], "Key")
	if got := tree.Node(key).Value; got != "env" {
		t.Errorf("first item Key = %q, want env", got)
	}
	value := mustChild(t, tree, n.Children[0], "Value")
	if got := tree.Node(value).Value; got != "dev" {
		t.Errorf("first item Value = %q, want dev", got)
	}
}

func TestParseYAMLComments(t *testing.T) {
	source := "# header\nResources:\n  MyBucket: # trailing\n    Type: AWS::S3::Bucket\n"
	tree := Parse([]byte(source), FormatYAML)

	var comments []string
	tree.Walk(func(n *Node) bool {
		if n.Kind == KindComment {
			comments = append(comments, n.Value)
		}
		return true
	})
	if len(comments) != 2 {
		t.Fatalf("found %d comments, want 2: %v", len(comments), comments)
	}
	if comments[0] != "# header" {
		t.Errorf("first comment = %q", comments[0])
	}

	// Comments must not become entries.
	resources := mustChild(t, tree, tree.Root(), "Resources")
	if got := tree.EntryKeys(resources); len(got) != 1 || got[0] != "MyBucket" {
		t.Errorf("resource keys = %v, want [MyBucket]", got)
	}
}

func TestParseYAMLKeyBeingTyped(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Typ\n"
	tree := Parse([]byte(source), FormatYAML)

	bucket := mustChild(t, tree, mustChild(t, tree, tree.Root(), "Resources"), "MyBucket")
	typ := tree.ChildByKey(bucket, "Typ")
	if typ == NoNode {
		t.Fatalf("half-typed key not addressable:\n%s", tree.String())
	}
	if v := tree.Node(typ); v.Kind != KindScalar || v.Value != "" {
		t.Errorf("half-typed key value = %v %q, want empty Scalar", v.Kind, v.Value)
	}
}

func TestParseYAMLEmptyValueRegion(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: \n"
	tree := Parse([]byte(source), FormatYAML)

	bucket := mustChild(t, tree, mustChild(t, tree, tree.Root(), "Resources"), "MyBucket")
	typ := mustChild(t, tree, bucket, "Type")
	n := tree.Node(typ)
	if n.Kind != KindScalar || n.Scalar != ScalarNull {
		t.Fatalf("empty value = %v (%v), want null Scalar", n.Kind, n.Scalar)
	}
	// The value region extends to the end of the line so a cursor after
	// "Type: " resolves into value position.
	cursor := len("Resources:\n  MyBucket:\n    Type: ")
	if !n.Span.Touches(cursor) {
		t.Errorf("empty value region %v does not reach offset %d", n.Span, cursor)
	}
}

func TestParseYAMLFlowCollections(t *testing.T) {
	source := "Resources:\n  MyInstance:\n    Type: AWS::EC2::Instance\n    Properties:\n      SecurityGroupIds: [sg-1, sg-2]\n"
	tree := Parse([]byte(source), FormatYAML)

	props := mustChild(t, tree, mustChild(t, tree, mustChild(t, tree, tree.Root(), "Resources"), "MyInstance"), "Properties")
	groups := mustChild(t, tree, props, "SecurityGroupIds")
	n := tree.Node(groups)
	if n.Kind != KindArray || len(n.Children) != 2 {
		t.Fatalf("flow sequence = %v with %d children, want Array with 2", n.Kind, len(n.Children))
	}
	if got := tree.Node(n.Children[0]).Value; got != "sg-1" {
		t.Errorf("first element = %q, want sg-1", got)
	}
}

func TestParseYAMLBlockScalar(t *testing.T) {
	source := "Description: |\n  first line\n  second line\nResources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n"
	tree := Parse([]byte(source), FormatYAML)

	desc := mustChild(t, tree, tree.Root(), "Description")
	n := tree.Node(desc)
	if n.Kind != KindScalar {
		t.Fatalf("description kind = %v, want Scalar", n.Kind)
	}
	if want := "first line"; !contains(n.Value, want) {
		t.Errorf("description %q does not contain %q", n.Value, want)
	}
	if _, ok := findKey(tree, "Resources"); !ok {
		t.Errorf("section after block scalar was swallowed:\n%s", tree.String())
	}
}

func TestParseYAMLTopLevelSequence(t *testing.T) {
	source := "- one\n- two\n"
	tree := Parse([]byte(source), FormatYAML)
	n := tree.Node(tree.Root())
	if n.Kind != KindArray || len(n.Children) != 2 {
		t.Fatalf("root = %v with %d children, want Array with 2", n.Kind, len(n.Children))
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func findKey(tree *Tree, key string) (NodeID, bool) {
	id := tree.ChildByKey(tree.Root(), key)
	return id, id != NoNode
}
