package parse

import (
	"context"
	"fmt"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser bound to the process-wide Registry.
type Parser struct {
	parser   *sitter.Parser
	registry *Registry
}

// NewParser builds a Parser against the default registry.
func NewParser() *Parser {
	return &Parser{parser: sitter.NewParser(), registry: DefaultRegistry()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParseFile resolves path's language from its extension, parses
// source, and extracts symbols. It never panics and never returns a
// hard error for a file it can at least tokenize: a tree with syntax
// errors yields the symbols extracted from the partial tree, and an
// extractor panic yields an empty symbol set, each with a non-nil
// warning error for the caller to log.
func (p *Parser) ParseFile(ctx context.Context, path string, source []byte) (symbols []*Symbol, warning error) {
	language, ok := p.registry.LanguageForExtension(filepath.Ext(path))
	if !ok {
		return []*Symbol{}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			warning = fmt.Errorf("parse %s: recovered from panic: %v", path, r)
			symbols = []*Symbol{}
		}
	}()

	tree, err := p.parseTree(ctx, source, language)
	if err != nil {
		return []*Symbol{}, err
	}
	if tree.HasError {
		warning = fmt.Errorf("parse %s: tree contains syntax errors, returning partial symbols", path)
	}

	cfg, _ := p.registry.Config(language)
	return Extract(tree, cfg, path), warning
}

// parseTree parses source into a Tree for the given language. It never
// returns an error for a language it doesn't recognize — callers are
// expected to have already resolved the language via the Registry, but
// an unsupported name still degrades to an empty tree rather than a
// panic, keeping the C2 contract total.
func (p *Parser) parseTree(ctx context.Context, source []byte, language string) (*Tree, error) {
	tsLang, ok := p.registry.TreeSitterLanguage(language)
	if !ok {
		return &Tree{Language: language, Source: source}, nil
	}

	p.parser.SetLanguage(tsLang)
	tsTree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil || tsTree == nil {
		return nil, fmt.Errorf("parse %s: %w", language, err)
	}

	root := convertNode(tsTree.RootNode())
	attachParents(root)
	return &Tree{
		Root:     root,
		Source:   source,
		Language: language,
		HasError: root != nil && root.HasError,
	}, nil
}

func convertNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}
	n := &Node{
		Type:       tsNode.Type(),
		StartByte:  tsNode.StartByte(),
		EndByte:    tsNode.EndByte(),
		StartPoint: Point{Row: tsNode.StartPoint().Row, Column: tsNode.StartPoint().Column},
		EndPoint:   Point{Row: tsNode.EndPoint().Row, Column: tsNode.EndPoint().Column},
		HasError:   tsNode.HasError(),
		Children:   make([]*Node, 0, int(tsNode.ChildCount())),
	}
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		if child := tsNode.Child(i); child != nil {
			n.Children = append(n.Children, convertNode(child))
		}
	}
	return n
}

// attachParents fills Node.Parent across the tree; convertNode builds
// bottom-up and has no parent reference available at construction time.
func attachParents(root *Node) {
	if root == nil {
		return
	}
	for _, child := range root.Children {
		child.Parent = root
		attachParents(child)
	}
}
