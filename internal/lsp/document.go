package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Document is an open text document in the editor.
type Document struct {
	URI     string
	Content string
	Version int
	// Stage is set when the file is one of the project's stage files.
	Stage    core.Stage
	HasStage bool
	// Lines holds byte offsets of line starts.
	Lines []int
}

// DocumentStore manages open documents in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Open adds or replaces a document and returns it.
func (s *DocumentStore) Open(uri, content string, version int) *Document {
	stage, ok := engine.StageForFile(URIToPath(uri))
	doc := &Document{
		URI:      uri,
		Content:  content,
		Version:  version,
		Stage:    stage,
		HasStage: ok,
		Lines:    computeLineOffsets(content),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[uri] = doc
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, uri)
}

// Get returns a copy of the document, or nil when it is not open.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	if !ok {
		return nil
	}
	cp := *doc
	return &cp
}

// Update replaces an open document's content. It returns false when the
// document is not open.
func (s *DocumentStore) Update(uri, content string, version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[uri]
	if !ok {
		return false
	}
	doc.Content = content
	doc.Version = version
	doc.Lines = computeLineOffsets(content)
	return true
}

// ForStage returns the open documents holding stage.
func (s *DocumentStore) ForStage(stage core.Stage) []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Document
	for _, doc := range s.documents {
		if doc.HasStage && doc.Stage == stage {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out
}

func computeLineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// PositionToOffset converts a Position to a byte offset in the document.
func (d *Document) PositionToOffset(pos Position) int {
	if d == nil || len(d.Lines) == 0 {
		return 0
	}
	line := int(pos.Line)
	if line >= len(d.Lines) {
		return len(d.Content)
	}
	offset := d.Lines[line] + int(pos.Character)
	if offset > len(d.Content) {
		return len(d.Content)
	}
	return offset
}

// OffsetToPosition converts a byte offset to a Position.
func (d *Document) OffsetToPosition(offset int) Position {
	if d == nil || len(d.Lines) == 0 {
		return Position{}
	}
	offset = max(0, min(offset, len(d.Content)))

	line := 0
	for i, start := range d.Lines {
		if start > offset {
			break
		}
		line = i
	}
	return Position{
		Line:      uint32(line),
		Character: uint32(offset - d.Lines[line]),
	}
}

// GetTextBefore returns the text before the given position.
func (d *Document) GetTextBefore(pos Position) string {
	offset := d.PositionToOffset(pos)
	if offset <= 0 {
		return ""
	}
	return d.Content[:offset]
}

// GetLine returns the content of a line without its newline.
func (d *Document) GetLine(line int) string {
	if d == nil || line < 0 || line >= len(d.Lines) {
		return ""
	}
	start := d.Lines[line]
	end := len(d.Content)
	if line+1 < len(d.Lines) {
		end = max(start, d.Lines[line+1]-1)
	}
	return strings.TrimSuffix(d.Content[start:end], "\r")
}

// LineRange spans the non-blank part of a line, starting at column when
// it is inside the line. column is zero-based.
func (d *Document) LineRange(line, column int) Range {
	text := d.GetLine(line)
	start := len(text) - len(strings.TrimLeft(text, " \t"))
	if column > 0 && column < len(text) {
		start = column
	}
	end := len(strings.TrimRight(text, " \t"))
	if end <= start {
		end = start + 1
	}
	return Range{
		Start: Position{Line: uint32(line), Character: uint32(start)},
		End:   Position{Line: uint32(line), Character: uint32(end)},
	}
}

// GetWordAtPosition returns the identifier at the given position and its range.
func (d *Document) GetWordAtPosition(pos Position) (string, Range) {
	offset := d.PositionToOffset(pos)
	if offset > len(d.Content) {
		return "", Range{Start: pos, End: pos}
	}

	start := offset
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	end := offset
	for end < len(d.Content) && isWordChar(d.Content[end]) {
		end++
	}
	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{
		Start: d.OffsetToPosition(start),
		End:   d.OffsetToPosition(end),
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
