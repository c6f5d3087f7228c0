// Package workspace ties the document store, the parser and the
// feature providers together. It owns the syntax tree cache: every
// edit re-parses the changed document synchronously, so by the time a
// change notification returns, queries see the new tree.
package workspace

import (
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/cfnls/schema"
	"github.com/dhamidi/cfnls/template"
	"github.com/dhamidi/cfnls/template/document"
	"github.com/dhamidi/cfnls/template/parser"
	"github.com/dhamidi/cfnls/template/refactor"
)

// SyntaxTree pairs a parse result with the document version it was
// built from. Trees are replaced wholesale on every edit and never
// mutated, so a caller may keep one across its own request without
// locking.
type SyntaxTree struct {
	URI     string
	Version int32
	Tree    *parser.Tree
}

type Workspace struct {
	mu      sync.RWMutex
	log     commonlog.Logger
	docs    *document.Store
	trees   map[string]*SyntaxTree
	schemas schema.Provider
}

func New(schemas schema.Provider) *Workspace {
	if schemas == nil {
		schemas = schema.NewStaticProvider()
	}
	return &Workspace{
		log:     commonlog.GetLogger("cfnls.workspace"),
		docs:    document.NewStore(),
		trees:   make(map[string]*SyntaxTree),
		schemas: schemas,
	}
}

// OpenDocument registers a document and indexes it when it looks like
// a template.
func (w *Workspace) OpenDocument(uri, languageID, text string, version int32) {
	doc := w.docs.Open(uri, languageID, text, version)
	w.reindex(doc)
}

// ChangeDocument applies an edit batch and re-parses. Stale edits are
// dropped by the store; the tree then stays at its current version.
func (w *Workspace) ChangeDocument(uri string, version int32, changes []document.Change) *document.Document {
	doc := w.docs.Apply(uri, version, changes)
	if doc == nil {
		return nil
	}
	w.reindex(doc)
	return doc
}

func (w *Workspace) CloseDocument(uri string) {
	w.docs.Close(uri)
	w.mu.Lock()
	delete(w.trees, uri)
	w.mu.Unlock()
}

func (w *Workspace) Document(uri string) *document.Document {
	return w.docs.Get(uri)
}

// SyntaxTree returns the current tree for uri, or nil when the
// document is closed or not recognized as a template. Absence is a
// valid long-lived state, not an error.
func (w *Workspace) SyntaxTree(uri string) *SyntaxTree {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.trees[uri]
}

// DeleteAllTrees drops every cached tree. Open documents re-index on
// their next change.
func (w *Workspace) DeleteAllTrees() {
	w.mu.Lock()
	w.trees = make(map[string]*SyntaxTree)
	w.mu.Unlock()
}

// reindex parses doc and caches the tree when the result passes
// template detection. A document that stops looking like a template
// loses its tree.
func (w *Workspace) reindex(doc *document.Document) {
	format := parser.DetectFormat([]byte(doc.Text()), doc.LanguageID)
	tree := parser.Parse([]byte(doc.Text()), format)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !template.IsTemplate(tree) {
		if _, had := w.trees[doc.URI]; had {
			w.log.Infof("dropping index for %s: no longer a template", doc.URI)
		}
		delete(w.trees, doc.URI)
		return
	}
	w.trees[doc.URI] = &SyntaxTree{URI: doc.URI, Version: doc.Version(), Tree: tree}
}

// Context resolves the cursor context at a protocol position. Both
// return values are nil when the document has no tree.
func (w *Workspace) Context(uri string, pos document.Position) (*template.Context, *SyntaxTree) {
	doc := w.docs.Get(uri)
	st := w.SyntaxTree(uri)
	if doc == nil || st == nil {
		return nil, nil
	}
	return template.ResolveContext(st.Tree, doc.OffsetAt(pos)), st
}

// ExtractEdits computes the parameter-extraction transaction for the
// literal at rng.
func (w *Workspace) ExtractEdits(uri string, rng document.Range, mode refactor.Mode) ([]refactor.Edit, bool) {
	doc := w.docs.Get(uri)
	st := w.SyntaxTree(uri)
	if doc == nil || st == nil {
		return nil, false
	}
	start := doc.OffsetAt(rng.Start)
	end := doc.OffsetAt(rng.End)
	return refactor.ExtractParameter(st.Tree, start, end, mode)
}
