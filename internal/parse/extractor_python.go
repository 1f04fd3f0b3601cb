package parse

import "strings"

var pythonExtractor = langExtractor{
	nameOf:         pythonName,
	refine:         pythonRefine,
	extraSymbols:   pythonExtraSymbols,
	collectCalls:   pythonCalls,
	collectImports: pythonImports,
}

func pythonName(n *Node, source []byte) string {
	switch n.Type {
	case "function_definition":
		id := n.FindChildByType("identifier")
		if id == nil {
			return ""
		}
		name := id.Content(source)
		if cls := n.AncestorOfType("class_definition"); cls != nil {
			if clsName := pythonClassName(cls, source); clsName != "" {
				return clsName + "." + name
			}
		}
		return name
	case "class_definition":
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	}
	return ""
}

func pythonClassName(n *Node, source []byte) string {
	if id := n.FindChildByType("identifier"); id != nil {
		return id.Content(source)
	}
	return ""
}

// pythonRefine annotates async/decorator/visibility metadata and pulls
// the docstring out of the body rather than a leading comment.
func pythonRefine(n *Node, source []byte, sym *Symbol) {
	if n.FindChildByType("async") != nil || n.FindChildByType("\"async\"") != nil {
		sym.Metadata["async"] = "true"
	}
	if decorators := pythonDecorators(n, source); len(decorators) > 0 {
		sym.Metadata["decorators"] = strings.Join(decorators, ",")
	}

	base := sym.Name
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[idx+1:]
	}
	switch {
	case strings.HasPrefix(base, "__"):
		sym.Metadata["visibility"] = "private"
	case strings.HasPrefix(base, "_"):
		sym.Metadata["visibility"] = "protected"
	default:
		sym.Metadata["visibility"] = "public"
	}

	if n.Type == "function_definition" && n.AncestorOfType("class_definition") != nil {
		sym.SymbolType = SymbolMethod
	}

	if n.Type == "function_definition" {
		if generics := n.FindChildByType("type_parameter"); generics != nil {
			sym.Metadata["generics"] = generics.Content(source)
		}
		if params := pythonParameters(n, source); params != "" {
			sym.Metadata["parameters"] = params
		}
		if ret := pythonReturnType(n, source); ret != "" {
			sym.Metadata["returnType"] = ret
		}
	}

	if doc := pythonDocstring(n, source); doc != "" {
		sym.JSDoc = doc
	} else {
		sym.JSDoc = ""
	}
}

// pythonDecorators collects the decorator expressions immediately
// preceding n when n sits inside a decorated_definition wrapper.
func pythonDecorators(n *Node, source []byte) []string {
	parent := n.Parent
	if parent == nil || parent.Type != "decorated_definition" {
		return nil
	}
	var out []string
	for _, child := range parent.Children {
		if child.Type == "decorator" {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(child.Content(source), "@")))
		}
	}
	return out
}

// pythonDocstring returns the first string literal statement in the
// node's block body, Python's docstring convention.
func pythonDocstring(n *Node, source []byte) string {
	block := n.FindChildByType("block")
	if block == nil || len(block.Children) == 0 {
		return ""
	}
	first := block.Children[0]
	if first.Type != "expression_statement" || len(first.Children) == 0 {
		return ""
	}
	str := first.Children[0]
	if str.Type != "string" {
		return ""
	}
	text := str.Content(source)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}

// pythonParameters joins a function_definition's parameters as
// "name:type" pairs, in declaration order; an untyped parameter emits
// just its name, and *args/**kwargs are kept verbatim with their
// leading stars.
func pythonParameters(n *Node, source []byte) string {
	params := n.FindChildByType("parameters")
	if params == nil {
		return ""
	}

	var pairs []string
	for _, child := range params.Children {
		switch child.Type {
		case "(", ")", ",":
			continue
		case "list_splat_pattern", "dictionary_splat_pattern":
			pairs = append(pairs, child.Content(source))
			continue
		}
		name, typ := pythonParamNameAndType(child, source)
		if name == "" {
			continue
		}
		if typ != "" {
			pairs = append(pairs, name+":"+typ)
		} else {
			pairs = append(pairs, name)
		}
	}
	return strings.Join(pairs, ",")
}

// pythonParamNameAndType recovers a parameter node's binding name and,
// for typed_parameter/typed_default_parameter, its type hint.
func pythonParamNameAndType(param *Node, source []byte) (string, string) {
	if param.Type == "identifier" {
		return param.Content(source), ""
	}

	var name, typ string
	afterColon := false
	for _, child := range param.Children {
		switch child.Type {
		case "identifier":
			if name == "" {
				name = child.Content(source)
			}
		case ":":
			afterColon = true
		case "=":
			afterColon = false
		default:
			if afterColon && typ == "" {
				typ = child.Content(source)
				afterColon = false
			}
		}
	}
	return name, typ
}

// pythonReturnType returns a function_definition's `-> T` annotation,
// the node immediately following the "->" token.
func pythonReturnType(n *Node, source []byte) string {
	idx := -1
	for i, child := range n.Children {
		if child.Type == "->" {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(n.Children) {
		return ""
	}
	return n.Children[idx+1].Content(source)
}

// pythonExtraSymbols picks up module-level UPPER_CASE constant
// assignments, which aren't expressed by a dedicated node type.
func pythonExtraSymbols(n *Node, source []byte) *Symbol {
	if n.Type != "assignment" || n.Parent == nil {
		return nil
	}
	if n.Parent.Type != "expression_statement" {
		return nil
	}
	grandparent := n.Parent.Parent
	if grandparent == nil || grandparent.Type != "module" {
		return nil
	}
	if len(n.Children) == 0 || n.Children[0].Type != "identifier" {
		return nil
	}
	name := n.Children[0].Content(source)
	if name == "" || name != strings.ToUpper(name) {
		return nil
	}
	return &Symbol{
		Name:       name,
		SymbolType: SymbolConstant,
		StartLine:  int(n.StartPoint.Row) + 1,
		EndLine:    int(n.EndPoint.Row) + 1,
		Body:       n.Content(source),
		Metadata:   map[string]string{"visibility": "public"},
	}
}

func pythonCalls(root *Node, source []byte, out *identSet) {
	for _, call := range root.FindAllByType("call") {
		if len(call.Children) == 0 {
			continue
		}
		name := pythonCalleeBaseName(call.Children[0], source)
		if name == "" {
			continue
		}
		if !out.add(name) {
			return
		}
	}
}

func pythonCalleeBaseName(n *Node, source []byte) string {
	switch n.Type {
	case "identifier":
		return n.Content(source)
	case "attribute":
		if attr := n.FindChildByType("identifier"); attr != nil {
			children := n.FindChildrenByType("identifier")
			if len(children) > 0 {
				return children[len(children)-1].Content(source)
			}
			return attr.Content(source)
		}
	}
	return ""
}

func pythonImports(root *Node, source []byte, out *identSet) {
	for _, imp := range root.FindAllByType("import_statement") {
		for _, child := range imp.FindChildrenByType("dotted_name") {
			if !out.add(child.Content(source)) {
				return
			}
		}
	}
	for _, imp := range root.FindAllByType("import_from_statement") {
		names := imp.FindChildrenByType("dotted_name")
		if len(names) == 0 {
			continue
		}
		module := names[0].Content(source)
		for _, name := range names[1:] {
			if !out.add(name.Content(source) + ":" + module) {
				return
			}
		}
		if len(names) == 1 {
			if !out.add(module) {
				return
			}
		}
	}
}
