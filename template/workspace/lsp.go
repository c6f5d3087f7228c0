package workspace

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/cfnls/template/document"
	"github.com/dhamidi/cfnls/template/refactor"
)

const lsName = "cfnls"

type LSPServer struct {
	workspace *Workspace
	handler   protocol.Handler
	server    *server.Server
	version   string
}

func NewLSPServer(ws *Workspace, version string) *LSPServer {
	ls := &LSPServer{
		workspace: ws,
		version:   version,
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
		TextDocumentCodeAction: ls.textDocumentCodeAction,
		TextDocumentCodeLens:   ls.textDocumentCodeLens,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindIncremental),
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"!", ":", " "},
	}
	capabilities.HoverProvider = true
	capabilities.CodeActionProvider = true
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	td := params.TextDocument
	ls.workspace.OpenDocument(td.URI, td.LanguageID, td.Text, td.Version)
	ls.publishDiagnostics(ctx, td.URI)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	changes := make([]document.Change, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, document.Change{
				Range: rangeFromProtocol(change.Range),
				Text:  change.Text,
			})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, document.Change{Text: change.Text})
		}
	}
	ls.workspace.ChangeDocument(params.TextDocument.URI, params.TextDocument.Version, changes)
	ls.publishDiagnostics(ctx, params.TextDocument.URI)
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.workspace.CloseDocument(params.TextDocument.URI)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publishDiagnostics reports the tree's error nodes. Non-template
// documents get an empty list, clearing anything published before the
// document stopped looking like a template.
func (ls *LSPServer) publishDiagnostics(ctx *glsp.Context, uri string) {
	doc := ls.workspace.Document(uri)
	if doc == nil {
		return
	}
	diagnostics := []protocol.Diagnostic{}
	if st := ls.workspace.SyntaxTree(uri); st != nil {
		severity := protocol.DiagnosticSeverityError
		source := lsName
		for _, errNode := range st.Tree.Errors() {
			message := errNode.Value
			if message == "" {
				message = "syntax error"
			}
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocolPosition(errNode.Span.Start.Line, errNode.Span.Start.Column),
					End:   protocolPosition(errNode.Span.End.Line, errNode.Span.End.Column),
				},
				Severity: &severity,
				Source:   &source,
				Message:  message,
			})
		}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := ls.workspace.Completions(params.TextDocument.URI, documentPosition(params.Position))
	if len(items) == 0 {
		return nil, nil
	}

	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		kind := completionItemKind(item.Kind)
		ci := protocol.CompletionItem{
			Label: item.Label,
			Kind:  &kind,
		}
		if item.Detail != "" {
			detail := item.Detail
			ci.Detail = &detail
		}
		if item.Documentation != "" {
			ci.Documentation = item.Documentation
		}
		out = append(out, ci)
	}
	return out, nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text := ls.workspace.HoverText(params.TextDocument.URI, documentPosition(params.Position))
	if text == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}

func (ls *LSPServer) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	uri := params.TextDocument.URI
	doc := ls.workspace.Document(uri)
	if doc == nil {
		return nil, nil
	}
	rng := document.Range{
		Start: documentPosition(params.Range.Start),
		End:   documentPosition(params.Range.End),
	}

	var actions []protocol.CodeAction
	if action, ok := ls.extractAction(uri, doc, rng, refactor.Single, "Extract to parameter"); ok {
		actions = append(actions, action)
	}
	if action, ok := ls.extractAction(uri, doc, rng, refactor.AllOccurrences, "Extract to parameter (all occurrences)"); ok {
		actions = append(actions, action)
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

func (ls *LSPServer) extractAction(uri string, doc *document.Document, rng document.Range, mode refactor.Mode, title string) (protocol.CodeAction, bool) {
	edits, ok := ls.workspace.ExtractEdits(uri, rng, mode)
	if !ok {
		return protocol.CodeAction{}, false
	}
	textEdits := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		textEdits = append(textEdits, protocol.TextEdit{
			Range:   protocolRange(doc, e.Start, e.End),
			NewText: e.NewText,
		})
	}
	kind := protocol.CodeActionKindRefactorExtract
	return protocol.CodeAction{
		Title: title,
		Kind:  &kind,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: textEdits,
			},
		},
	}, true
}

func (ls *LSPServer) textDocumentCodeLens(ctx *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	uri := params.TextDocument.URI
	st := ls.workspace.SyntaxTree(uri)
	if st == nil {
		return nil, nil
	}
	var lenses []protocol.CodeLens
	for _, lens := range ls.workspace.ResourceLenses(uri) {
		node := st.Tree.Node(lens.Node)
		key := st.Tree.KeyOf(lens.Node)
		anchor := node.Span
		if key != nil {
			anchor = key.Span
		}
		title := lens.Type
		lenses = append(lenses, protocol.CodeLens{
			Range: protocol.Range{
				Start: protocolPosition(anchor.Start.Line, anchor.Start.Column),
				End:   protocolPosition(anchor.End.Line, anchor.End.Column),
			},
			Command: &protocol.Command{
				Title:   title,
				Command: "cfnls.showResourceType",
			},
		})
	}
	return lenses, nil
}

func completionItemKind(kind CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case CompletionKindProperty:
		return protocol.CompletionItemKindProperty
	case CompletionKindValue:
		return protocol.CompletionItemKindValue
	case CompletionKindFunction:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindModule
	}
}

func documentPosition(pos protocol.Position) document.Position {
	return document.Position{Line: int(pos.Line), Character: int(pos.Character)}
}

func protocolPosition(line, column int) protocol.Position {
	return protocol.Position{Line: uint32(line), Character: uint32(column)}
}

func rangeFromProtocol(rng *protocol.Range) *document.Range {
	if rng == nil {
		return nil
	}
	return &document.Range{
		Start: documentPosition(rng.Start),
		End:   documentPosition(rng.End),
	}
}

func protocolRange(doc *document.Document, start, end int) protocol.Range {
	from := doc.PositionAt(start)
	to := doc.PositionAt(end)
	return protocol.Range{
		Start: protocolPosition(from.Line, from.Character),
		End:   protocolPosition(to.Line, to.Character),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
