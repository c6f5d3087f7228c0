package refactor

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/cfnls/template/parser"
)

const yamlDoc = `Resources:
  MyBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: my-test-bucket
  MyTopic:
    Type: AWS::SNS::Topic
    Properties:
      TopicName: my-test-bucket
`

func extractAt(t *testing.T, source, literal string, mode Mode) string {
	t.Helper()
	tree := parser.Parse([]byte(source), parser.FormatUnknown)
	offset := strings.Index(source, literal)
	if offset < 0 {
		t.Fatalf("literal %q not in source", literal)
	}
	edits, ok := ExtractParameter(tree, offset, offset, mode)
	if !ok {
		t.Fatalf("extraction refused for %q", literal)
	}
	return Apply(source, edits)
}

func TestExtractSingleOccurrence(t *testing.T) {
	got := extractAt(t, yamlDoc, "my-test-bucket", Single)

	if !strings.Contains(got, "Parameters:\n  BucketNameParam:\n    Type: String\n    Default: 'my-test-bucket'\n") {
		t.Errorf("parameter definition missing:\n%s", got)
	}
	if !strings.Contains(got, "BucketName: !Ref BucketNameParam") {
		t.Errorf("literal not replaced:\n%s", got)
	}
	if !strings.Contains(got, "TopicName: my-test-bucket") {
		t.Errorf("single mode replaced an unrelated occurrence:\n%s", got)
	}
}

func TestExtractAllOccurrences(t *testing.T) {
	got := extractAt(t, yamlDoc, "my-test-bucket", AllOccurrences)

	if n := strings.Count(got, "!Ref BucketNameParam"); n != 2 {
		t.Errorf("replaced %d occurrences, want 2:\n%s", n, got)
	}
	// The only remaining literal is the parameter default.
	if n := strings.Count(got, "my-test-bucket"); n != 1 {
		t.Errorf("%d literal copies remain, want 1:\n%s", n, got)
	}
}

func TestExtractResultStaysAValidTemplate(t *testing.T) {
	got := extractAt(t, yamlDoc, "my-test-bucket", AllOccurrences)

	tree := parser.Parse([]byte(got), parser.FormatYAML)
	if tree.HasErrors() {
		t.Fatalf("extraction produced a broken document:\n%s", got)
	}
	params := tree.ChildByKey(tree.Root(), "Parameters")
	if params == parser.NoNode {
		t.Fatalf("no Parameters section after extraction:\n%s", got)
	}
	param := tree.ChildByKey(params, "BucketNameParam")
	if param == parser.NoNode {
		t.Fatalf("parameter not addressable after re-parse:\n%s", got)
	}
	if typ := tree.ChildByKey(param, "Type"); typ == parser.NoNode || tree.Node(typ).Value != "String" {
		t.Errorf("parameter Type wrong after re-parse")
	}
}

func TestExtractAppendsToExistingParameters(t *testing.T) {
	source := "Parameters:\n  Env:\n    Type: String\n    Default: dev\nResources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n    Properties:\n      BucketName: my-test-bucket\n"
	got := extractAt(t, source, "my-test-bucket", Single)

	tree := parser.Parse([]byte(got), parser.FormatYAML)
	params := tree.ChildByKey(tree.Root(), "Parameters")
	keys := tree.EntryKeys(params)
	if len(keys) != 2 || keys[0] != "Env" || keys[1] != "BucketNameParam" {
		t.Errorf("parameter keys = %v, want [Env BucketNameParam]:\n%s", keys, got)
	}
}

func TestExtractRenamesOnCollision(t *testing.T) {
	source := "Parameters:\n  BucketNameParam:\n    Type: String\n    Default: other\nResources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n    Properties:\n      BucketName: my-test-bucket\n"
	got := extractAt(t, source, "my-test-bucket", Single)

	if !strings.Contains(got, "BucketName: !Ref BucketNameParam2") {
		t.Errorf("collision not disambiguated:\n%s", got)
	}
}

func TestExtractNumberLiteral(t *testing.T) {
	source := "Resources:\n  MyQueue:\n    Type: AWS::SQS::Queue\n    Properties:\n      VisibilityTimeout: 300\n"
	got := extractAt(t, source, "300", Single)

	if !strings.Contains(got, "VisibilityTimeoutParam:\n    Type: Number\n    Default: 300\n") {
		t.Errorf("number parameter wrong:\n%s", got)
	}
	if !strings.Contains(got, "VisibilityTimeout: !Ref VisibilityTimeoutParam") {
		t.Errorf("number literal not replaced:\n%s", got)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	tree := parser.Parse([]byte(yamlDoc), parser.FormatYAML)
	offset := strings.Index(yamlDoc, "my-test-bucket")

	first, ok1 := ExtractParameter(tree, offset, offset, AllOccurrences)
	second, ok2 := ExtractParameter(tree, offset, offset, AllOccurrences)
	if !ok1 || !ok2 {
		t.Fatal("extraction refused")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("edits differ between identical calls:\n%v\n%v", first, second)
	}
}

func TestExtractRefusals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		at     string
	}{
		{
			"inside intrinsic",
			"Outputs:\n  Out:\n    Value: !Ref MyBucket\n",
			"MyBucket",
		},
		{
			"inside parameters section",
			"Parameters:\n  Env:\n    Type: String\n    Default: dev\n",
			"dev",
		},
		{
			"on a container",
			"Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n",
			"MyBucket",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parser.Parse([]byte(tt.source), parser.FormatYAML)
			offset := strings.Index(tt.source, tt.at)
			if _, ok := ExtractParameter(tree, offset, offset, Single); ok {
				t.Errorf("extraction offered at %q", tt.at)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	source := `{"Resources": {"MyBucket": {"Type": "AWS::S3::Bucket", "Properties": {"BucketName": "my-test-bucket"}}}}`
	got := extractAt(t, source, "my-test-bucket", Single)

	if !strings.Contains(got, `"Parameters": {"BucketNameParam": {"Type": "String", "Default": "my-test-bucket"}}`) {
		t.Errorf("parameter definition missing:\n%s", got)
	}
	if !strings.Contains(got, `"BucketName": {"Ref": "BucketNameParam"}`) {
		t.Errorf("literal not replaced:\n%s", got)
	}

	tree := parser.Parse([]byte(got), parser.FormatJSON)
	if tree.HasErrors() {
		t.Fatalf("extraction broke the JSON document:\n%s", got)
	}
}

func TestExtractJSONAllOccurrencesEditCount(t *testing.T) {
	source := `{"Resources": {"A": {"Type": "AWS::S3::Bucket", "Properties": {"BucketName": "my-test-bucket"}}, "B": {"Type": "AWS::SSM::Parameter", "Properties": {"Value": "my-test-bucket"}}}}`
	tree := parser.Parse([]byte(source), parser.FormatJSON)
	offset := strings.Index(source, "my-test-bucket")

	edits, ok := ExtractParameter(tree, offset, offset, AllOccurrences)
	if !ok {
		t.Fatal("extraction refused")
	}
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 1 insertion + 2 replacements", len(edits))
	}
	insertions := 0
	for _, e := range edits {
		if e.Start == e.End {
			insertions++
		}
	}
	if insertions != 1 {
		t.Errorf("got %d insertion edits, want exactly 1", insertions)
	}
}

func TestExtractDifferentLiteralAfterExtraction(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n    Properties:\n      BucketName: my-test-bucket\n      AccessControl: Private\n"
	first := extractAt(t, source, "my-test-bucket", AllOccurrences)

	// A remaining literal of a different value still extracts under its
	// own name, untouched by the earlier extraction.
	second := extractAt(t, first, "Private", Single)
	if !strings.Contains(second, "AccessControl: !Ref AccessControlParam") {
		t.Errorf("second extraction wrong:\n%s", second)
	}
	if strings.Count(second, "BucketNameParam:") != 1 {
		t.Errorf("earlier parameter duplicated:\n%s", second)
	}
}

func TestApplyOrdersEditsBackToFront(t *testing.T) {
	text := "aaa bbb ccc"
	edits := []Edit{
		{Start: 0, End: 3, NewText: "X"},
		{Start: 8, End: 11, NewText: "Z"},
		{Start: 4, End: 7, NewText: "Y"},
	}
	if got := Apply(text, edits); got != "X Y Z" {
		t.Errorf("Apply = %q, want %q", got, "X Y Z")
	}
}
