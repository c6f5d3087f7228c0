package workspace

import (
	"strings"
	"testing"

	"github.com/dhamidi/cfnls/template/document"
	"github.com/dhamidi/cfnls/template/refactor"
)

const bucketTemplate = `Resources:
  MyBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: my-test-bucket
      AccessControl: Private
`

func openTemplate(t *testing.T, source string) (*Workspace, string) {
	t.Helper()
	ws := New(nil)
	uri := "file:///template.yaml"
	ws.OpenDocument(uri, "yaml", source, 1)
	return ws, uri
}

func TestOpenDocumentIndexesTemplates(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	st := ws.SyntaxTree(uri)
	if st == nil {
		t.Fatal("template document has no syntax tree")
	}
	if st.Version != 1 {
		t.Errorf("tree version = %d, want 1", st.Version)
	}
}

func TestNonTemplateDocumentsAreNotIndexed(t *testing.T) {
	ws := New(nil)
	ws.OpenDocument("file:///compose.yaml", "yaml", "services:\n  web:\n    image: nginx\n", 1)
	if ws.SyntaxTree("file:///compose.yaml") != nil {
		t.Error("non-template document was indexed")
	}
}

func TestChangeDocumentReindexesSynchronously(t *testing.T) {
	ws := New(nil)
	uri := "file:///t.yaml"
	ws.OpenDocument(uri, "yaml", "notes: here\n", 1)
	if ws.SyntaxTree(uri) != nil {
		t.Fatal("indexed before becoming a template")
	}

	ws.ChangeDocument(uri, 2, []document.Change{{Text: "Resources:\n  A:\n    Type: AWS::SQS::Queue\n"}})
	st := ws.SyntaxTree(uri)
	if st == nil {
		t.Fatal("tree absent after the document became a template")
	}
	if st.Version != 2 {
		t.Errorf("tree version = %d, want 2", st.Version)
	}

	// And the reverse: losing every section drops the tree.
	ws.ChangeDocument(uri, 3, []document.Change{{Text: "plain: text\n"}})
	if ws.SyntaxTree(uri) != nil {
		t.Error("tree kept after the document stopped being a template")
	}
}

func TestCloseDocumentDropsState(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	ws.CloseDocument(uri)
	if ws.Document(uri) != nil || ws.SyntaxTree(uri) != nil {
		t.Error("state survives CloseDocument")
	}
}

func TestDeleteAllTrees(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	ws.DeleteAllTrees()
	if ws.SyntaxTree(uri) != nil {
		t.Error("tree survives DeleteAllTrees")
	}
	// The document itself stays open and re-indexes on the next change.
	ws.ChangeDocument(uri, 2, []document.Change{{Text: bucketTemplate}})
	if ws.SyntaxTree(uri) == nil {
		t.Error("tree not rebuilt after change")
	}
}

func TestContextLookup(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	ctx, st := ws.Context(uri, document.Position{Line: 2, Character: 4})
	if ctx == nil || st == nil {
		t.Fatal("no context for an indexed position")
	}
	if ctx.Section != "Resources" || ctx.LogicalID != "MyBucket" {
		t.Errorf("context = %+v", ctx)
	}
}

func labels(items []CompletionItem) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func hasLabel(items []CompletionItem, label string) bool {
	for _, item := range items {
		if item.Label == label {
			return true
		}
	}
	return false
}

func TestCompletionsTopLevelSections(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	items := ws.Completions(uri, document.Position{Line: 0, Character: 3})
	if !hasLabel(items, "Parameters") || !hasLabel(items, "Outputs") {
		t.Errorf("section completions missing: %v", labels(items))
	}
	if hasLabel(items, "Resources") {
		t.Errorf("already-present section offered: %v", labels(items))
	}
}

func TestCompletionsForUnindexedDocument(t *testing.T) {
	ws := New(nil)
	uri := "file:///empty.yaml"
	ws.OpenDocument(uri, "yaml", "", 1)
	items := ws.Completions(uri, document.Position{Line: 0, Character: 0})
	if !hasLabel(items, "Resources") {
		t.Errorf("empty document gets no section completions: %v", labels(items))
	}
}

func TestCompletionsSchemaProperties(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	items := ws.Completions(uri, document.Position{Line: 4, Character: 8}) // on "BucketName"
	if !hasLabel(items, "Tags") || !hasLabel(items, "VersioningConfiguration") {
		t.Errorf("schema property completions missing: %v", labels(items))
	}
	if hasLabel(items, "BucketName") || hasLabel(items, "AccessControl") {
		t.Errorf("already-present properties offered: %v", labels(items))
	}
}

func TestCompletionsResourceTypes(t *testing.T) {
	source := "Resources:\n  MyQueue:\n    Type: \n"
	ws, uri := openTemplate(t, source)
	items := ws.Completions(uri, document.Position{Line: 2, Character: 10})
	if !hasLabel(items, "AWS::SQS::Queue") || !hasLabel(items, "AWS::S3::Bucket") {
		t.Errorf("type completions missing: %v", labels(items))
	}
}

func TestCompletionsIntrinsicFunctions(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n    Properties:\n      BucketName: !\n"
	ws, uri := openTemplate(t, source)
	items := ws.Completions(uri, document.Position{Line: 4, Character: 19})
	if !hasLabel(items, "Ref") || !hasLabel(items, "GetAtt") {
		t.Errorf("intrinsic completions missing: %v", labels(items))
	}
}

func TestCompletionsSilentAfterCommentBang(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n# watch out !\n"
	ws, uri := openTemplate(t, source)
	// Right after the "!", which sits inside a comment.
	if items := ws.Completions(uri, document.Position{Line: 3, Character: 13}); items != nil {
		t.Errorf("intrinsic completions offered inside a comment: %v", labels(items))
	}
}

func TestCompletionsQuietForNonTemplateDocument(t *testing.T) {
	ws := New(nil)
	uri := "file:///data.yaml"
	ws.OpenDocument(uri, "yaml", "services:\n  web:\n    image: nginx\n", 1)
	if items := ws.Completions(uri, document.Position{Line: 1, Character: 5}); items != nil {
		t.Errorf("completions offered for an established non-template: %v", labels(items))
	}
}

func TestCompletionsSilentOnNoise(t *testing.T) {
	source := "# comment\nResources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n"
	ws, uri := openTemplate(t, source)
	if items := ws.Completions(uri, document.Position{Line: 0, Character: 4}); items != nil {
		t.Errorf("completions offered inside a comment: %v", labels(items))
	}
}

func TestHoverOnProperty(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	text := ws.HoverText(uri, document.Position{Line: 4, Character: 8})
	if !strings.Contains(text, "BucketName") {
		t.Errorf("hover = %q, want property docs", text)
	}
}

func TestHoverOnResourceType(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	text := ws.HoverText(uri, document.Position{Line: 2, Character: 12}) // inside the type value
	if !strings.Contains(text, "AWS::S3::Bucket") {
		t.Errorf("hover = %q, want resource type docs", text)
	}
}

func TestHoverSilentOnUnknownType(t *testing.T) {
	source := "Resources:\n  MyThing:\n    Type: Custom::Thing\n    Properties:\n      Name: x\n"
	ws, uri := openTemplate(t, source)
	if text := ws.HoverText(uri, document.Position{Line: 4, Character: 7}); text != "" {
		t.Errorf("hover = %q for an uncataloged type, want empty", text)
	}
}

func TestResourceLenses(t *testing.T) {
	source := "Resources:\n  MyBucket:\n    Type: AWS::S3::Bucket\n  Untyped:\n    Properties: {}\n"
	ws, uri := openTemplate(t, source)
	lenses := ws.ResourceLenses(uri)
	if len(lenses) != 1 {
		t.Fatalf("got %d lenses, want 1 (untyped resources skipped)", len(lenses))
	}
	if lenses[0].LogicalID != "MyBucket" || lenses[0].Type != "AWS::S3::Bucket" {
		t.Errorf("lens = %+v", lenses[0])
	}
}

func TestExtractEditsRoundTrip(t *testing.T) {
	ws, uri := openTemplate(t, bucketTemplate)
	line := 4
	character := strings.Index("      BucketName: my-test-bucket", "my-test-bucket")
	pos := document.Position{Line: line, Character: character}

	edits, ok := ws.ExtractEdits(uri, document.Range{Start: pos, End: pos}, refactor.Single)
	if !ok {
		t.Fatal("extraction refused")
	}
	got := refactor.Apply(ws.Document(uri).Text(), edits)
	if !strings.Contains(got, "!Ref BucketNameParam") {
		t.Errorf("extraction result wrong:\n%s", got)
	}

	// After applying the batch, the reference and its parameter resolve.
	ws.ChangeDocument(uri, 2, []document.Change{{Text: got}})
	refPos := ws.Document(uri).PositionAt(strings.Index(got, "!Ref BucketNameParam") + len("!Ref Bucket"))
	ctx, _ := ws.Context(uri, refPos)
	if ctx == nil || ctx.Section != "Resources" {
		t.Fatalf("context at reference = %+v", ctx)
	}
	st := ws.SyntaxTree(uri)
	if !ctx.InsideTag(st.Tree) {
		t.Error("reference does not resolve inside an intrinsic")
	}
	paramPos := ws.Document(uri).PositionAt(strings.Index(got, "BucketNameParam:") + 3)
	pctx, _ := ws.Context(uri, paramPos)
	if pctx == nil || pctx.Section != "Parameters" || pctx.LogicalID != "BucketNameParam" {
		t.Errorf("context at parameter = %+v", pctx)
	}
}
