package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// EngineFactory builds the engine for a project root.
type EngineFactory func(root string, logger *slog.Logger) (*engine.Engine, error)

// Options configures a Server.
type Options struct {
	Logger *slog.Logger
	// NewEngine defaults to ProjectEngine.
	NewEngine EngineFactory
	Version   string
}

// Server implements the Language Server Protocol for WGSL stage files.
// Every change to vertex.wgsl or fragment.wgsl is fed into one compile
// session; its error report is published back per stage.
type Server struct {
	documents *DocumentStore
	newEngine EngineFactory
	version   string

	// Project context
	projectRoot string
	engine      *engine.Engine
	engineErr   error
	stopEngine  context.CancelFunc
	engineDone  chan struct{}
	published   publishKey

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	exited     bool
	shutdownMu sync.RWMutex
}

// NewServer creates a new LSP server instance.
func NewServer(reader io.Reader, writer io.Writer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	newEngine := opts.NewEngine
	if newEngine == nil {
		newEngine = ProjectEngine
	}
	return &Server{
		documents: NewDocumentStore(),
		newEngine: newEngine,
		version:   opts.Version,
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}
}

// ProjectEngine loads leapshader.yaml from root and builds an engine for
// it. History is not recorded from the editor.
func ProjectEngine(root string, logger *slog.Logger) (*engine.Engine, error) {
	cfg, err := config.LoadFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return engine.New(engine.Config{
		ShadersDir:  cfg.ShadersDir,
		ExamplesDir: cfg.ExamplesDir,
		Compile:     cfg.Compile,
		Preview:     cfg.Preview,
		Logger:      logger,
	})
}

// Run processes JSON-RPC messages until the client disconnects or sends
// exit. The compile session lives as long as ctx.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("LeapShader LSP server starting...")
	defer s.closeEngine()

	for {
		s.shutdownMu.RLock()
		exited := s.exited
		s.shutdownMu.RUnlock()
		if exited {
			return nil
		}

		msg, err := ReadMessage(s.reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				s.logger.Info("Client disconnected")
				return nil
			}
			s.logger.Error("Error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(ctx, msg); err != nil {
			s.logger.Error("Error handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes.
const (
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
)

// ReadMessage reads one Content-Length framed JSON-RPC message.
func ReadMessage(r *bufio.Reader) (*JSONRPCMessage, error) {
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if lengthStr, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	return &msg, nil
}

// WriteMessage writes one Content-Length framed JSON-RPC message.
func WriteMessage(w io.Writer, msg *JSONRPCMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{JSONRPC: "2.0", ID: id}
	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		resultBytes, _ := json.Marshal(result)
		msg.Result = resultBytes
	}
	s.writeMessage(&msg)
}

func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}
	s.writeMessage(&msg)
}

func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := WriteMessage(s.writer, msg); err != nil {
		s.logger.Error("Error writing message", "error", err)
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *JSONRPCMessage) error {
	s.logger.Debug("Received", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(ctx, msg)
	case "initialized":
		return s.handleInitialized(msg)
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    CodeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(ctx context.Context, msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: CodeInvalidParams, Message: err.Error()})
		return err
	}

	s.projectRoot = URIToPath(params.RootURI)
	if root := config.FindProjectRoot(s.projectRoot); root != "" {
		s.projectRoot = root
	}
	s.logger.Info("Project root", "path", s.projectRoot)

	s.startEngine(ctx)

	s.sendResponse(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save:      &SaveOptions{IncludeText: true},
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{"@", ".", ":", "<", "("},
			},
			HoverProvider: true,
		},
		ServerInfo: &ServerInfo{Name: "leapshader", Version: s.version},
	}, nil)
	return nil
}

// startEngine builds the session for the project and publishes its
// diagnostics whenever an attempt is applied.
func (s *Server) startEngine(ctx context.Context) {
	eng, err := s.newEngine(s.projectRoot, s.logger)
	if err != nil {
		s.engineErr = err
		s.logger.Error("Failed to start compile session", "error", err)
		return
	}
	s.engine = eng

	ctx, cancel := context.WithCancel(ctx)
	s.stopEngine = cancel
	s.engineDone = make(chan struct{})

	updates := eng.Session().Subscribe()
	go func() {
		if err := eng.Run(ctx); err != nil {
			s.logger.Error("Compile session stopped", "error", err)
		}
	}()
	go func() {
		defer close(s.engineDone)
		defer eng.Session().Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-updates:
				if !ok {
					return
				}
				s.publishDiagnostics()
			}
		}
	}()
}

func (s *Server) closeEngine() {
	if s.stopEngine == nil {
		return
	}
	s.stopEngine()
	<-s.engineDone
	_ = s.engine.Close()
	s.stopEngine = nil
}

func (s *Server) handleInitialized(_ *JSONRPCMessage) error {
	s.logger.Info("Server initialized")

	if s.engineErr != nil {
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeError,
			Message: "LeapShader could not start: " + s.engineErr.Error(),
		})
		return nil
	}

	if _, origin := s.engine.Initial(); origin == session.OriginExample {
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeInfo,
			Message: "No shaders found in " + s.engine.ShadersDir() + ". Open vertex.wgsl or fragment.wgsl to start a session.",
		})
	}
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	s.closeEngine()

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("Server shutdown")
	return nil
}

func (s *Server) handleExit(_ *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.exited = true
	s.shutdownMu.Unlock()
	s.logger.Info("Server exit")
	return nil
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	doc := s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.logger.Debug("Opened", "uri", doc.URI, "stage_file", doc.HasStage)

	if !s.feed(doc) {
		s.publishDocument(doc)
	}
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}

	// Full sync: the last change holds the whole text.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	if !s.documents.Update(params.TextDocument.URI, text, params.TextDocument.Version) {
		return fmt.Errorf("change for unopened document %s", params.TextDocument.URI)
	}
	if doc := s.documents.Get(params.TextDocument.URI); doc != nil {
		s.feed(doc)
	}
	return nil
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil || params.Text == nil || *params.Text == doc.Content {
		return nil
	}
	s.documents.Update(doc.URI, *params.Text, doc.Version)
	if doc = s.documents.Get(doc.URI); doc != nil {
		s.feed(doc)
	}
	return nil
}

// feed schedules a compile when doc is a stage file whose text differs
// from the session's. It reports whether an edit was scheduled.
func (s *Server) feed(doc *Document) bool {
	if s.engine == nil || !doc.HasStage {
		return false
	}
	sess := s.engine.Session()
	snap, err := sess.Snapshot()
	if err != nil || snap.Editor.Get(doc.Stage) == doc.Content {
		return false
	}
	if err := sess.Edit(doc.Stage, doc.Content); err != nil {
		s.logger.Error("Failed to schedule compile", "stage", doc.Stage, "error", err)
		return false
	}
	return true
}

// publishDiagnostics republishes every open stage document once an
// attempt has been applied.
func (s *Server) publishDiagnostics() {
	snap, err := s.engine.Session().Snapshot()
	if err != nil || !snap.Status.Terminal() {
		return
	}
	key := keyOf(snap)
	if key == s.published {
		return
	}
	s.published = key

	for _, stage := range core.Stages {
		for _, doc := range s.documents.ForStage(stage) {
			s.sendDiagnostics(doc, snap.Report)
		}
	}
}

// publishDocument publishes the current report for one document if the
// session has settled.
func (s *Server) publishDocument(doc *Document) {
	if s.engine == nil || !doc.HasStage {
		return
	}
	snap, err := s.engine.Session().Snapshot()
	if err != nil || !snap.Status.Terminal() {
		return
	}
	s.sendDiagnostics(doc, snap.Report)
}

func (s *Server) sendDiagnostics(doc *Document, report core.ErrorReport) {
	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: toDiagnostics(doc, report),
	})
}

// --- Feature handlers ---

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: CodeInvalidParams, Message: err.Error()})
		return err
	}
	s.sendResponse(msg.ID, &CompletionList{Items: s.getCompletions(params)}, nil)
	return nil
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: CodeInvalidParams, Message: err.Error()})
		return err
	}
	s.sendResponse(msg.ID, s.getHover(params), nil)
	return nil
}

// getHover documents the builtin under the cursor and lists the session's
// diagnostics on that line.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	var parts []string
	word, wordRange := doc.GetWordAtPosition(params.Position)
	if item, ok := lookupBuiltin(word); ok {
		part := "```wgsl\n" + item.Label + "\n```"
		if item.Detail != "" {
			part = "```wgsl\n" + item.Detail + "\n```"
		}
		if item.Documentation != "" {
			part += "\n" + item.Documentation
		}
		parts = append(parts, part)
	}

	if s.engine != nil && doc.HasStage {
		if snap, err := s.engine.Session().Snapshot(); err == nil {
			for _, e := range diagnosticsAt(doc.Stage, snap.Report, int(params.Position.Line)) {
				parts = append(parts, "**"+strings.ToUpper(string(snap.Status))+"** "+diagnostic.Pretty(e))
			}
		}
	}

	if len(parts) == 0 {
		return nil
	}
	hover := &Hover{Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(parts, "\n\n---\n\n")}}
	if word != "" {
		hover.Range = &wordRange
	}
	return hover
}
