// Package parse extracts symbols from source files via tree-sitter. The
// contract is total: Parse never panics and never returns a non-nil
// error for a file it can at least tokenize — partial results and a
// logged warning stand in for a hard failure.
package parse

// SymbolType is the kind of code symbol a language extractor produced.
type SymbolType string

const (
	SymbolFunction  SymbolType = "function"
	SymbolMethod    SymbolType = "method"
	SymbolClass     SymbolType = "class"
	SymbolInterface SymbolType = "interface"
	SymbolType_     SymbolType = "type"
	SymbolEnum      SymbolType = "enum"
	SymbolComponent SymbolType = "component"
	SymbolConstant  SymbolType = "constant"
	SymbolVariable  SymbolType = "variable"
	SymbolHook      SymbolType = "hook"
)

// Symbol is one parsed declaration from a source file.
type Symbol struct {
	Name       string
	SymbolType SymbolType
	Path       string
	StartLine  int // 1-based
	EndLine    int // 1-based, inclusive
	Body       string
	JSDoc      string
	Calls      []string // ordered, deduped, capped at 30
	Imports    []string // ordered, deduped, capped at 30 ("name:module" or "module")
	Metadata   map[string]string
}

// Point is a position in source, 0-indexed (tree-sitter convention).
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a narrow AST node carried out of the tree-sitter tree so the
// rest of the package never touches cgo-adjacent tree-sitter types
// directly.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	HasError   bool
	Children   []*Node
	Parent     *Node
}

// Tree is a parsed file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
	HasError bool
}

// Content returns the source slice a node spans.
func (n *Node) Content(source []byte) string {
	if n == nil || n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns all direct children with the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Type == nodeType {
			result = append(result, child)
		}
	}
	return result
}

// FindAllByType recursively finds every node (including n) with the
// given type.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var result []*Node
	if n.Type == nodeType {
		result = append(result, n)
	}
	for _, child := range n.Children {
		result = append(result, child.FindAllByType(nodeType)...)
	}
	return result
}

// AncestorOfType walks up Parent links and returns the nearest
// enclosing node of one of the given types, or nil.
func (n *Node) AncestorOfType(types ...string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, t := range types {
			if p.Type == t {
				return p
			}
		}
	}
	return nil
}

// Walk traverses the tree depth-first, calling fn for every node. fn
// returning false stops descent into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// LanguageConfig describes which tree-sitter node types map to which
// symbol kinds for one language.
type LanguageConfig struct {
	Name           string
	Extensions     []string
	FunctionTypes  []string
	ClassTypes     []string
	InterfaceTypes []string
	MethodTypes    []string
	TypeDefTypes   []string
	EnumTypes      []string
	ConstantTypes  []string
	VariableTypes  []string
}
