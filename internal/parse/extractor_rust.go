package parse

import "strings"

// rustExtractor has no teacher precedent: Go-tree-sitter's rust grammar
// node names (function_item, impl_item, trait_item, ...) are used
// directly since no example repo in the corpus parses Rust.
var rustExtractor = langExtractor{
	nameOf:         rustName,
	refine:         rustRefine,
	collectCalls:   rustCalls,
	collectImports: rustImports,
}

func rustName(n *Node, source []byte) string {
	switch n.Type {
	case "function_item":
		id := n.FindChildByType("identifier")
		if id == nil {
			return ""
		}
		name := id.Content(source)
		if impl := n.AncestorOfType("impl_item"); impl != nil {
			if _, target := rustImplTypes(impl, source); target != "" {
				return target + "." + name
			}
		}
		return name
	case "struct_item", "enum_item", "trait_item", "type_item":
		if id := n.FindChildByType("type_identifier"); id != nil {
			return id.Content(source)
		}
	case "const_item", "static_item":
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	}
	return ""
}

// rustImplTypes returns (traitName, targetType) for an impl_item; trait
// is "" for an inherent impl.
func rustImplTypes(n *Node, source []byte) (string, string) {
	types := n.FindChildrenByType("type_identifier")
	hasFor := false
	for _, child := range n.Children {
		if child.Type == "for" {
			hasFor = true
		}
	}
	switch {
	case hasFor && len(types) >= 2:
		return types[0].Content(source), types[1].Content(source)
	case len(types) >= 1:
		return "", types[0].Content(source)
	default:
		return "", ""
	}
}

func rustRefine(n *Node, source []byte, sym *Symbol) {
	if vis := n.FindChildByType("visibility_modifier"); vis != nil {
		sym.Metadata["visibility"] = vis.Content(source)
	} else {
		sym.Metadata["visibility"] = "private"
	}

	if generics := n.FindChildByType("type_parameters"); generics != nil {
		sym.Metadata["generics"] = generics.Content(source)
	}

	if n.Type != "function_item" {
		return
	}

	if params := rustParameters(n, source); params != "" {
		sym.Metadata["parameters"] = params
	}
	if ret := rustReturnType(n, source); ret != "" {
		sym.Metadata["returnType"] = ret
	}

	impl := n.AncestorOfType("impl_item")
	if impl == nil {
		return
	}
	sym.SymbolType = SymbolMethod
	if trait, _ := rustImplTypes(impl, source); trait != "" {
		sym.Metadata["rustTraitImpl"] = trait
	}
}

// rustParameters joins a function_item's own parameters as "name:type"
// pairs, in declaration order; a leading self_parameter (&self, &mut
// self, self) is emitted verbatim as one entry.
func rustParameters(n *Node, source []byte) string {
	params := n.FindChildByType("parameters")
	if params == nil {
		return ""
	}

	var pairs []string
	for _, child := range params.Children {
		switch child.Type {
		case "self_parameter":
			pairs = append(pairs, child.Content(source))
		case "parameter":
			if len(child.Children) == 0 {
				continue
			}
			typ := child.Children[len(child.Children)-1].Content(source)
			name := rustParamName(child, source)
			if name != "" {
				pairs = append(pairs, name+":"+typ)
			} else {
				pairs = append(pairs, ":"+typ)
			}
		}
	}
	return strings.Join(pairs, ",")
}

// rustParamName recovers a "parameter" node's binding name, unwrapping
// a mut_pattern if present.
func rustParamName(param *Node, source []byte) string {
	if id := param.FindChildByType("identifier"); id != nil {
		return id.Content(source)
	}
	if mut := param.FindChildByType("mut_pattern"); mut != nil {
		if id := mut.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	}
	return ""
}

// rustReturnType returns a function_item's `-> T` result type, or ""
// for a unit-returning function.
func rustReturnType(n *Node, source []byte) string {
	params := n.FindChildByType("parameters")
	if params == nil {
		return ""
	}

	idx := -1
	for i, child := range n.Children {
		if child == params {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ""
	}

	for i := idx + 1; i < len(n.Children); i++ {
		child := n.Children[i]
		switch child.Type {
		case "->":
			continue
		case "block", ";":
			return ""
		default:
			return child.Content(source)
		}
	}
	return ""
}

func rustCalls(root *Node, source []byte, out *identSet) {
	for _, call := range root.FindAllByType("call_expression") {
		if len(call.Children) == 0 {
			continue
		}
		name := rustCalleeBaseName(call.Children[0], source)
		if name == "" {
			continue
		}
		if !out.add(name) {
			return
		}
	}
}

func rustCalleeBaseName(n *Node, source []byte) string {
	switch n.Type {
	case "identifier", "field_identifier":
		return n.Content(source)
	case "field_expression":
		if id := n.FindChildByType("field_identifier"); id != nil {
			return id.Content(source)
		}
	case "scoped_identifier":
		children := n.FindChildrenByType("identifier")
		if len(children) > 0 {
			return children[len(children)-1].Content(source)
		}
	}
	return ""
}

func rustImports(root *Node, source []byte, out *identSet) {
	for _, use := range root.FindAllByType("use_declaration") {
		for _, child := range use.Children {
			switch child.Type {
			case "scoped_identifier", "identifier", "use_as_clause", "scoped_use_list", "use_list":
				if !out.add(child.Content(source)) {
					return
				}
			}
		}
	}
}
