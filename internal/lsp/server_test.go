package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/testutil"
)

const brokenFragment = "@fragment\nfn fs_main( {\n"

// client drives a Server over in-memory pipes.
type client struct {
	t        *testing.T
	w        *io.PipeWriter
	incoming chan *JSONRPCMessage
	done     chan error
	nextID   int
}

func startServer(t *testing.T) (*client, string) {
	t.Helper()
	root := t.TempDir()

	factory := func(root string, logger *slog.Logger) (*engine.Engine, error) {
		return engine.New(engine.Config{
			ShadersDir: filepath.Join(root, "shaders"),
			Compile:    config.CompileConfig{QuietPeriod: 10 * time.Millisecond},
			Logger:     logger,
		})
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	srv := NewServer(inR, outW, Options{Logger: testutil.NewTestLogger(t), NewEngine: factory})

	c := &client{t: t, w: inW, incoming: make(chan *JSONRPCMessage, 64), done: make(chan error, 1)}
	go func() {
		c.done <- srv.Run(context.Background())
		_ = outW.Close()
	}()
	go func() {
		r := bufio.NewReader(outR)
		for {
			msg, err := ReadMessage(r)
			if err != nil {
				close(c.incoming)
				return
			}
			c.incoming <- msg
		}
	}()
	t.Cleanup(func() { _ = inW.Close() })
	return c, root
}

func (c *client) send(method string, params any, withID bool) *json.RawMessage {
	c.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(c.t, err)
	msg := &JSONRPCMessage{JSONRPC: "2.0", Method: method, Params: raw}
	if withID {
		c.nextID++
		id := json.RawMessage(`"` + string(rune('a'+c.nextID)) + `"`)
		msg.ID = &id
	}
	require.NoError(c.t, WriteMessage(c.w, msg))
	return msg.ID
}

// expect reads messages until match returns true.
func (c *client) expect(match func(*JSONRPCMessage) bool) *JSONRPCMessage {
	c.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-c.incoming:
			require.True(c.t, ok, "server closed the stream")
			if match(msg) {
				return msg
			}
		case <-timeout:
			c.t.Fatal("timed out waiting for message")
			return nil
		}
	}
}

func (c *client) call(method string, params any, result any) {
	c.t.Helper()
	id := c.send(method, params, true)
	msg := c.expect(func(m *JSONRPCMessage) bool {
		return m.ID != nil && string(*m.ID) == string(*id)
	})
	require.Nil(c.t, msg.Error)
	if result != nil {
		require.NoError(c.t, json.Unmarshal(msg.Result, result))
	}
}

func (c *client) diagnostics(uri string, match func([]Diagnostic) bool) []Diagnostic {
	c.t.Helper()
	var params PublishDiagnosticsParams
	c.expect(func(m *JSONRPCMessage) bool {
		if m.Method != "textDocument/publishDiagnostics" {
			return false
		}
		params = PublishDiagnosticsParams{}
		require.NoError(c.t, json.Unmarshal(m.Params, &params))
		return params.URI == uri && match(params.Diagnostics)
	})
	return params.Diagnostics
}

func TestServer_Lifecycle(t *testing.T) {
	c, root := startServer(t)

	var init InitializeResult
	c.call("initialize", InitializeParams{RootURI: PathToURI(root)}, &init)
	assert.True(t, init.Capabilities.HoverProvider)
	assert.Equal(t, TextDocumentSyncKindFull, init.Capabilities.TextDocumentSync.Change)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, "leapshader", init.ServerInfo.Name)

	c.send("initialized", struct{}{}, false)
	c.expect(func(m *JSONRPCMessage) bool { return m.Method == "window/showMessage" })

	fragURI := PathToURI(filepath.Join(root, "shaders", "fragment.wgsl"))
	c.send("textDocument/didOpen", DidOpenTextDocumentParams{TextDocument: TextDocumentItem{
		URI: fragURI, LanguageID: "wgsl", Version: 1, Text: brokenFragment,
	}}, false)

	diags := c.diagnostics(fragURI, func(d []Diagnostic) bool { return len(d) > 0 })
	assert.Equal(t, DiagnosticSeverityError, diags[0].Severity)
	assert.Equal(t, Source, diags[0].Source)
	assert.Equal(t, "compiler", diags[0].Code)

	good, err := examples.Builtin().Source("circle")
	require.NoError(t, err)
	c.send("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier: TextDocumentIdentifier{URI: fragURI}, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: good.Fragment}},
	}, false)
	c.diagnostics(fragURI, func(d []Diagnostic) bool { return len(d) == 0 })

	var list CompletionList
	c.call("textDocument/completion", CompletionParams{TextDocumentPositionParams: TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: fragURI},
		Position:     Position{Line: 0, Character: 1},
	}}, &list)
	assert.NotEmpty(t, list.Items)

	c.send("textDocument/didClose", DidCloseTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: fragURI}}, false)
	c.diagnostics(fragURI, func(d []Diagnostic) bool { return len(d) == 0 })

	c.call("shutdown", nil, nil)
	c.send("exit", nil, false)

	select {
	case err := <-c.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
	}
}

func TestServer_UnknownMethod(t *testing.T) {
	c, _ := startServer(t)

	id := c.send("textDocument/definition", struct{}{}, true)
	msg := c.expect(func(m *JSONRPCMessage) bool { return m.ID != nil && string(*m.ID) == string(*id) })
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeMethodNotFound, msg.Error.Code)
}

func TestServer_EngineFailureIsReported(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	factory := func(string, *slog.Logger) (*engine.Engine, error) {
		return nil, assert.AnError
	}
	srv := NewServer(inR, outW, Options{NewEngine: factory})
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	r := bufio.NewReader(outR)
	id := json.RawMessage(`1`)
	require.NoError(t, WriteMessage(inW, &JSONRPCMessage{JSONRPC: "2.0", ID: &id, Method: "initialize", Params: json.RawMessage(`{"rootUri":"file:///nowhere"}`)}))
	msg, err := ReadMessage(r)
	require.NoError(t, err)
	assert.Nil(t, msg.Error)

	require.NoError(t, WriteMessage(inW, &JSONRPCMessage{JSONRPC: "2.0", Method: "initialized", Params: json.RawMessage(`{}`)}))
	msg, err = ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "window/showMessage", msg.Method)
	var show ShowMessageParams
	require.NoError(t, json.Unmarshal(msg.Params, &show))
	assert.Equal(t, MessageTypeError, show.Type)

	require.NoError(t, inW.Close())
	assert.NoError(t, <-done)
}
