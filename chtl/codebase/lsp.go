package codebase

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
	"github.com/dhamidi/chtl/chtl/symbols"
	"github.com/dhamidi/chtl/project"
)

const lsName = "chtl"

type LSPServer struct {
	codebase *Codebase
	handler  protocol.Handler
	server   *server.Server
	version  string
}

func NewLSPServer(version string) *LSPServer {
	ls := &LSPServer{
		version: version,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentCompletion:     ls.textDocumentCompletion,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	proj, err := project.LoadFrom(rootDir)
	if err != nil {
		log.Warningf("%v; using defaults", err)
		ls.codebase = New(rootDir)
	} else {
		ls.codebase = New(rootDir, proj.CompilerOptions()...)
	}

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{" "},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(); err != nil {
		log.Warningf("scan %s: %v", ls.codebase.RootDir(), err)
	}
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
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.codebase.UpdateFile(path, []byte(textChange.Text))
			ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	// Unsaved edits are dropped; the file on disk is what other files import.
	if err := ls.codebase.ScanFile(path); err != nil {
		ls.codebase.RemoveFile(path)
	}
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.codebase.UpdateFile(path, []byte(*params.Text))
	} else if err := ls.codebase.ScanFile(path); err != nil {
		return nil
	}
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, path string) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(ls.codebase.Diagnostics(path)),
	})
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}

	line := int(params.Position.Line) + 1
	col := int(params.Position.Character)

	completions := ls.codebase.CompletionsAtPoint(path, line, col)
	if len(completions) == 0 {
		return nil, nil
	}

	var items []protocol.CompletionItem
	for _, c := range completions {
		kind := toProtocolKind(c.Kind)
		detail := c.Detail
		insertText := c.InsertText
		format := protocol.InsertTextFormatPlainText

		items = append(items, protocol.CompletionItem{
			Label:            c.Label,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insertText,
			InsertTextFormat: &format,
		})
	}

	return items, nil
}

func (ls *LSPServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	return toDocumentSymbols(ls.codebase.Symbols(path)), nil
}

func toProtocolDiagnostics(diags []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == diag.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		src := lsName
		pd := protocol.Diagnostic{
			Range:    pointRange(d.Pos),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Kind.String()},
			Source:   &src,
			Message:  d.Message,
		}
		if d.Related != nil {
			pd.RelatedInformation = []protocol.DiagnosticRelatedInformation{{
				Location: protocol.Location{URI: pathToURI(d.Related.File), Range: pointRange(*d.Related)},
				Message:  "previous declaration",
			}}
		}
		out = append(out, pd)
	}
	return out
}

func toDocumentSymbols(entries []*symbols.Entry) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(entries))
	for _, e := range entries {
		detail := e.Kind.String()
		if e.Kind == symbols.KindOrigin {
			detail += " @" + e.Type
		}
		selection := pointRange(e.Pos)
		rng := selection
		if e.Tree != nil {
			rng = spanRange(e.Tree.Node(e.Node).Span)
		}
		out = append(out, protocol.DocumentSymbol{
			Name:           e.QualifiedName(),
			Detail:         &detail,
			Kind:           toSymbolKind(e.Kind),
			Range:          rng,
			SelectionRange: selection,
		})
	}
	return out
}

func toSymbolKind(k symbols.Kind) protocol.SymbolKind {
	switch k {
	case symbols.KindTemplateStyle, symbols.KindCustomStyle:
		return protocol.SymbolKindStruct
	case symbols.KindTemplateElement, symbols.KindCustomElement:
		return protocol.SymbolKindClass
	case symbols.KindTemplateVar, symbols.KindCustomVar:
		return protocol.SymbolKindVariable
	case symbols.KindNamespace:
		return protocol.SymbolKindNamespace
	case symbols.KindOrigin:
		return protocol.SymbolKindString
	default:
		return protocol.SymbolKindObject
	}
}

func toProtocolKind(kind CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case CompletionKindStyle:
		return protocol.CompletionItemKindProperty
	case CompletionKindElement:
		return protocol.CompletionItemKindClass
	case CompletionKindVar:
		return protocol.CompletionItemKindVariable
	case CompletionKindNamespace:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindText
	}
}

// pointRange covers the character at pos. Positions are 1-based, LSP is
// 0-based.
func pointRange(pos source.Position) protocol.Range {
	p := protocol.Position{Line: zeroBased(pos.Line), Character: zeroBased(pos.Column)}
	end := p
	end.Character++
	return protocol.Range{Start: p, End: end}
}

func spanRange(s source.Span) protocol.Range {
	if !s.End.IsValid() {
		return pointRange(s.Start)
	}
	return protocol.Range{
		Start: protocol.Position{Line: zeroBased(s.Start.Line), Character: zeroBased(s.Start.Column)},
		End:   protocol.Position{Line: zeroBased(s.End.Line), Character: zeroBased(s.End.Column)},
	}
}

func zeroBased(n int) protocol.UInteger {
	if n < 1 {
		return 0
	}
	return protocol.UInteger(n - 1)
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) protocol.DocumentUri {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
