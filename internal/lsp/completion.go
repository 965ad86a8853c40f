package lsp

import (
	"sort"
	"strings"
)

// CompletionContextType describes what kind of completion context we're in.
type CompletionContextType int

// Completion context type constants.
const (
	ContextUnknown   CompletionContextType = iota
	ContextAttribute                       // after "@"
	ContextType                            // after ":", "->" or "<"
	ContextBuiltin                         // inside "@builtin("
	ContextMember                          // after "ident."
)

// wgslKeywords are the WGSL declaration and statement keywords.
var wgslKeywords = []CompletionItem{
	{Label: "fn", Kind: CompletionItemKindKeyword},
	{Label: "let", Kind: CompletionItemKindKeyword},
	{Label: "var", Kind: CompletionItemKindKeyword},
	{Label: "const", Kind: CompletionItemKindKeyword},
	{Label: "override", Kind: CompletionItemKindKeyword},
	{Label: "struct", Kind: CompletionItemKindKeyword},
	{Label: "alias", Kind: CompletionItemKindKeyword},
	{Label: "return", Kind: CompletionItemKindKeyword},
	{Label: "if", Kind: CompletionItemKindKeyword},
	{Label: "else", Kind: CompletionItemKindKeyword},
	{Label: "for", Kind: CompletionItemKindKeyword},
	{Label: "while", Kind: CompletionItemKindKeyword},
	{Label: "loop", Kind: CompletionItemKindKeyword},
	{Label: "break", Kind: CompletionItemKindKeyword},
	{Label: "continue", Kind: CompletionItemKindKeyword},
	{Label: "switch", Kind: CompletionItemKindKeyword},
	{Label: "case", Kind: CompletionItemKindKeyword},
	{Label: "default", Kind: CompletionItemKindKeyword},
	{Label: "discard", Kind: CompletionItemKindKeyword},
	{Label: "true", Kind: CompletionItemKindKeyword},
	{Label: "false", Kind: CompletionItemKindKeyword},
}

// wgslTypes are the predeclared WGSL types.
var wgslTypes = []CompletionItem{
	{Label: "f32", Kind: CompletionItemKindStruct, Detail: "32-bit float"},
	{Label: "f16", Kind: CompletionItemKindStruct, Detail: "16-bit float"},
	{Label: "i32", Kind: CompletionItemKindStruct, Detail: "32-bit signed integer"},
	{Label: "u32", Kind: CompletionItemKindStruct, Detail: "32-bit unsigned integer"},
	{Label: "bool", Kind: CompletionItemKindStruct},
	{Label: "vec2", Kind: CompletionItemKindStruct, Detail: "vec2<T>"},
	{Label: "vec3", Kind: CompletionItemKindStruct, Detail: "vec3<T>"},
	{Label: "vec4", Kind: CompletionItemKindStruct, Detail: "vec4<T>"},
	{Label: "vec2f", Kind: CompletionItemKindStruct, Detail: "vec2<f32>"},
	{Label: "vec3f", Kind: CompletionItemKindStruct, Detail: "vec3<f32>"},
	{Label: "vec4f", Kind: CompletionItemKindStruct, Detail: "vec4<f32>"},
	{Label: "mat2x2", Kind: CompletionItemKindStruct, Detail: "mat2x2<T>"},
	{Label: "mat3x3", Kind: CompletionItemKindStruct, Detail: "mat3x3<T>"},
	{Label: "mat4x4", Kind: CompletionItemKindStruct, Detail: "mat4x4<T>"},
	{Label: "array", Kind: CompletionItemKindStruct, Detail: "array<T, N>"},
	{Label: "sampler", Kind: CompletionItemKindStruct},
	{Label: "texture_2d", Kind: CompletionItemKindStruct, Detail: "texture_2d<T>"},
}

// wgslBuiltins are the builtin functions with documentation for hover.
var wgslBuiltins = []CompletionItem{
	{Label: "abs", Kind: CompletionItemKindFunction, Detail: "abs(e: T) -> T", Documentation: "Absolute value."},
	{Label: "clamp", Kind: CompletionItemKindFunction, Detail: "clamp(e: T, low: T, high: T) -> T", Documentation: "Restricts e to [low, high]."},
	{Label: "cos", Kind: CompletionItemKindFunction, Detail: "cos(e: T) -> T", Documentation: "Cosine of e in radians."},
	{Label: "cross", Kind: CompletionItemKindFunction, Detail: "cross(a: vec3<T>, b: vec3<T>) -> vec3<T>", Documentation: "Cross product."},
	{Label: "distance", Kind: CompletionItemKindFunction, Detail: "distance(a: T, b: T) -> f32", Documentation: "Distance between two points."},
	{Label: "dot", Kind: CompletionItemKindFunction, Detail: "dot(a: vecN<T>, b: vecN<T>) -> T", Documentation: "Dot product."},
	{Label: "floor", Kind: CompletionItemKindFunction, Detail: "floor(e: T) -> T", Documentation: "Largest integral value not greater than e."},
	{Label: "fract", Kind: CompletionItemKindFunction, Detail: "fract(e: T) -> T", Documentation: "Fractional part of e."},
	{Label: "length", Kind: CompletionItemKindFunction, Detail: "length(e: T) -> f32", Documentation: "Length of a vector."},
	{Label: "max", Kind: CompletionItemKindFunction, Detail: "max(a: T, b: T) -> T", Documentation: "Larger of a and b."},
	{Label: "min", Kind: CompletionItemKindFunction, Detail: "min(a: T, b: T) -> T", Documentation: "Smaller of a and b."},
	{Label: "mix", Kind: CompletionItemKindFunction, Detail: "mix(a: T, b: T, t: T) -> T", Documentation: "Linear blend of a and b by t."},
	{Label: "normalize", Kind: CompletionItemKindFunction, Detail: "normalize(e: vecN<T>) -> vecN<T>", Documentation: "Unit vector in the direction of e."},
	{Label: "pow", Kind: CompletionItemKindFunction, Detail: "pow(a: T, b: T) -> T", Documentation: "a raised to the power b."},
	{Label: "select", Kind: CompletionItemKindFunction, Detail: "select(f: T, t: T, cond: bool) -> T", Documentation: "t when cond is true, else f."},
	{Label: "sin", Kind: CompletionItemKindFunction, Detail: "sin(e: T) -> T", Documentation: "Sine of e in radians."},
	{Label: "smoothstep", Kind: CompletionItemKindFunction, Detail: "smoothstep(low: T, high: T, x: T) -> T", Documentation: "Smooth Hermite interpolation between 0 and 1."},
	{Label: "sqrt", Kind: CompletionItemKindFunction, Detail: "sqrt(e: T) -> T", Documentation: "Square root."},
	{Label: "step", Kind: CompletionItemKindFunction, Detail: "step(edge: T, x: T) -> T", Documentation: "1.0 if edge <= x, else 0.0."},
	{Label: "textureSample", Kind: CompletionItemKindFunction, Detail: "textureSample(t, s, coords) -> vec4<f32>", Documentation: "Samples a texture. Fragment stage only."},
}

// wgslAttributes complete after "@".
var wgslAttributes = []CompletionItem{
	{Label: "vertex", Kind: CompletionItemKindProperty, Documentation: "Marks a vertex stage entry point."},
	{Label: "fragment", Kind: CompletionItemKindProperty, Documentation: "Marks a fragment stage entry point."},
	{Label: "builtin", Kind: CompletionItemKindSnippet, InsertText: "builtin(${1:position})", InsertTextFormat: InsertTextFormatSnippet},
	{Label: "location", Kind: CompletionItemKindSnippet, InsertText: "location(${1:0})", InsertTextFormat: InsertTextFormatSnippet},
	{Label: "group", Kind: CompletionItemKindSnippet, InsertText: "group(${1:0})", InsertTextFormat: InsertTextFormatSnippet},
	{Label: "binding", Kind: CompletionItemKindSnippet, InsertText: "binding(${1:0})", InsertTextFormat: InsertTextFormatSnippet},
	{Label: "interpolate", Kind: CompletionItemKindSnippet, InsertText: "interpolate(${1:flat})", InsertTextFormat: InsertTextFormatSnippet},
}

// wgslBuiltinValues complete inside "@builtin(".
var wgslBuiltinValues = []CompletionItem{
	{Label: "position", Kind: CompletionItemKindVariable, Detail: "vec4<f32>"},
	{Label: "vertex_index", Kind: CompletionItemKindVariable, Detail: "u32", Documentation: "Vertex stage input."},
	{Label: "instance_index", Kind: CompletionItemKindVariable, Detail: "u32", Documentation: "Vertex stage input."},
	{Label: "front_facing", Kind: CompletionItemKindVariable, Detail: "bool", Documentation: "Fragment stage input."},
	{Label: "frag_depth", Kind: CompletionItemKindVariable, Detail: "f32", Documentation: "Fragment stage output."},
	{Label: "sample_index", Kind: CompletionItemKindVariable, Detail: "u32", Documentation: "Fragment stage input."},
}

// swizzles complete after a member access.
var swizzles = []CompletionItem{
	{Label: "x", Kind: CompletionItemKindProperty},
	{Label: "y", Kind: CompletionItemKindProperty},
	{Label: "z", Kind: CompletionItemKindProperty},
	{Label: "w", Kind: CompletionItemKindProperty},
	{Label: "xy", Kind: CompletionItemKindProperty},
	{Label: "xyz", Kind: CompletionItemKindProperty},
	{Label: "rgb", Kind: CompletionItemKindProperty},
	{Label: "rgba", Kind: CompletionItemKindProperty},
}

// getCompletions returns completion items for the cursor position.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	before := doc.GetTextBefore(params.Position)
	ctx, prefix := detectContext(before)
	return filterByPrefix(itemsFor(ctx), prefix)
}

// detectContext classifies the text before the cursor and returns the
// partial identifier being typed.
func detectContext(before string) (CompletionContextType, string) {
	prefix := extractIdentifierBefore(before, len(before))
	rest := strings.TrimRight(before[:len(before)-len(prefix)], " \t")

	switch {
	case strings.HasSuffix(before[:len(before)-len(prefix)], "@"):
		return ContextAttribute, prefix
	case strings.HasSuffix(rest, "@builtin("):
		return ContextBuiltin, prefix
	case strings.HasSuffix(before[:len(before)-len(prefix)], "."):
		return ContextMember, prefix
	case strings.HasSuffix(rest, ":"), strings.HasSuffix(rest, "->"), strings.HasSuffix(rest, "<"):
		return ContextType, prefix
	default:
		return ContextUnknown, prefix
	}
}

func itemsFor(ctx CompletionContextType) []CompletionItem {
	switch ctx {
	case ContextAttribute:
		return wgslAttributes
	case ContextBuiltin:
		return wgslBuiltinValues
	case ContextMember:
		return swizzles
	case ContextType:
		return wgslTypes
	default:
		items := make([]CompletionItem, 0, len(wgslKeywords)+len(wgslTypes)+len(wgslBuiltins))
		items = append(items, wgslKeywords...)
		items = append(items, wgslBuiltins...)
		items = append(items, wgslTypes...)
		return items
	}
}

// extractIdentifierBefore returns the identifier ending at pos.
func extractIdentifierBefore(s string, pos int) string {
	if pos > len(s) {
		pos = len(s)
	}
	start := pos
	for start > 0 && isWordChar(s[start-1]) {
		start--
	}
	return s[start:pos]
}

func filterByPrefix(items []CompletionItem, prefix string) []CompletionItem {
	out := make([]CompletionItem, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(item.Label, prefix) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// lookupBuiltin finds hover documentation for a builtin function or type.
func lookupBuiltin(word string) (CompletionItem, bool) {
	for _, list := range [][]CompletionItem{wgslBuiltins, wgslTypes, wgslBuiltinValues} {
		for _, item := range list {
			if item.Label == word {
				return item, true
			}
		}
	}
	return CompletionItem{}, false
}
