package parse

import "strings"

// langExtractor pulls Symbols plus calls/imports out of a parsed Tree
// for one language. Each supported language implements nameOf (and may
// set refine, extraSymbols, collectCalls and collectImports) via the
// values registered in langExtractors.
type langExtractor struct {
	// nameOf returns the symbol name for a node already classified as a
	// symbol-defining type, or "" if no name could be found (the node
	// is then handed to extraSymbols when set, else dropped; it is never
	// emitted as a nameless symbol).
	nameOf func(n *Node, source []byte) string

	// refine optionally reclassifies or enriches a Symbol after the
	// generic classification — used for Go receiver-qualified method
	// names, Python visibility, Rust trait impls, and TS/JS
	// hook/component detection.
	refine func(n *Node, source []byte, sym *Symbol)

	// extraSymbols finds symbols the node-type table can't express
	// directly (JS/TS arrow-function consts, Python module constants).
	extraSymbols func(n *Node, source []byte) *Symbol

	// collectCalls/collectImports walk the whole tree for call-expression
	// and import-like nodes and add the relevant identifier(s) to out.
	collectCalls   func(root *Node, source []byte, out *identSet)
	collectImports func(root *Node, source []byte, out *identSet)
}

var langExtractors = map[string]langExtractor{
	"go":         goExtractor,
	"python":     pythonExtractor,
	"rust":       rustExtractor,
	"typescript": tsExtractor,
	"tsx":        tsExtractor,
	"javascript": tsExtractor,
	"jsx":        tsExtractor,
}

// Extract walks tree and produces every Symbol the language's rules
// recognize, plus the file-level calls/imports sets. Never panics:
// callers are expected to run this from Parse, which recovers.
func Extract(tree *Tree, cfg *LanguageConfig, path string) []*Symbol {
	if tree == nil || tree.Root == nil || cfg == nil {
		return []*Symbol{}
	}

	ext, ok := langExtractors[tree.Language]
	if !ok {
		ext = fallbackExtractor
	}

	calls := newIdentSet()
	imports := newIdentSet()
	if ext.collectCalls != nil {
		ext.collectCalls(tree.Root, tree.Source, calls)
	}
	if ext.collectImports != nil {
		ext.collectImports(tree.Root, tree.Source, imports)
	}
	callsList := calls.values()
	importsList := imports.values()

	var symbols []*Symbol
	tree.Root.Walk(func(n *Node) bool {
		if sym := classify(n, tree.Source, cfg, ext); sym != nil {
			sym.Path = path
			sym.Calls = callsList
			sym.Imports = importsList
			symbols = append(symbols, sym)
		}
		return true
	})

	if symbols == nil {
		symbols = []*Symbol{}
	}
	return symbols
}

func classify(n *Node, source []byte, cfg *LanguageConfig, ext langExtractor) *Symbol {
	symType, ok := symbolTypeForNode(n.Type, cfg)
	if !ok {
		if ext.extraSymbols != nil {
			return ext.extraSymbols(n, source)
		}
		return nil
	}

	name := ext.nameOf(n, source)
	if name == "" {
		if ext.extraSymbols != nil {
			return ext.extraSymbols(n, source)
		}
		return nil
	}

	sym := &Symbol{
		Name:       name,
		SymbolType: symType,
		StartLine:  int(n.StartPoint.Row) + 1,
		EndLine:    int(n.EndPoint.Row) + 1,
		Body:       n.Content(source),
		JSDoc:      docCommentAbove(n, source),
		Metadata:   map[string]string{},
	}

	if ext.refine != nil {
		ext.refine(n, source, sym)
	}
	return sym
}

func symbolTypeForNode(nodeType string, cfg *LanguageConfig) (SymbolType, bool) {
	switch {
	case contains(cfg.FunctionTypes, nodeType):
		return SymbolFunction, true
	case contains(cfg.MethodTypes, nodeType):
		return SymbolMethod, true
	case contains(cfg.ClassTypes, nodeType):
		return SymbolClass, true
	case contains(cfg.InterfaceTypes, nodeType):
		return SymbolInterface, true
	case contains(cfg.EnumTypes, nodeType):
		return SymbolEnum, true
	case contains(cfg.TypeDefTypes, nodeType):
		return SymbolType_, true
	case contains(cfg.ConstantTypes, nodeType):
		return SymbolConstant, true
	case contains(cfg.VariableTypes, nodeType):
		return SymbolVariable, true
	default:
		return "", false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// docCommentAbove looks at the source line immediately preceding n for
// a `//`-style comment. Languages whose doc text lives inside the body
// (Python docstrings) override this via refine.
func docCommentAbove(n *Node, source []byte) string {
	if n.StartPoint.Row == 0 {
		return ""
	}
	lineStart := int(n.StartByte)
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	if lineStart <= 1 {
		return ""
	}
	prevEnd := lineStart - 1
	prevStart := prevEnd - 1
	for prevStart > 0 && source[prevStart-1] != '\n' {
		prevStart--
	}
	prevLine := strings.TrimSpace(string(source[prevStart:prevEnd]))
	switch {
	case strings.HasPrefix(prevLine, "///"):
		return strings.TrimSpace(strings.TrimPrefix(prevLine, "///"))
	case strings.HasPrefix(prevLine, "//"):
		return strings.TrimSpace(strings.TrimPrefix(prevLine, "//"))
	default:
		return ""
	}
}
