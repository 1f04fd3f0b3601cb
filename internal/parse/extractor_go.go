package parse

import "strings"

var goExtractor = langExtractor{
	nameOf:         goName,
	refine:         goRefine,
	collectCalls:   goCalls,
	collectImports: goImports,
}

func goName(n *Node, source []byte) string {
	switch n.Type {
	case "function_declaration":
		for _, child := range n.Children {
			if child.Type == "identifier" {
				return child.Content(source)
			}
		}
	case "method_declaration":
		recv := goReceiverTypeName(n, source)
		for _, child := range n.Children {
			if child.Type == "field_identifier" {
				if recv != "" {
					return recv + "." + child.Content(source)
				}
				return child.Content(source)
			}
		}
	case "type_declaration":
		for _, spec := range n.FindChildrenByType("type_spec") {
			if id := spec.FindChildByType("type_identifier"); id != nil {
				return id.Content(source)
			}
		}
	case "const_declaration":
		for _, spec := range n.FindChildrenByType("const_spec") {
			if id := spec.FindChildByType("identifier"); id != nil {
				return id.Content(source)
			}
		}
		if list := n.FindChildByType("const_spec_list"); list != nil {
			for _, spec := range list.FindChildrenByType("const_spec") {
				if id := spec.FindChildByType("identifier"); id != nil {
					return id.Content(source)
				}
			}
		}
	case "var_declaration":
		for _, spec := range n.FindChildrenByType("var_spec") {
			if id := spec.FindChildByType("identifier"); id != nil {
				return id.Content(source)
			}
		}
		if list := n.FindChildByType("var_spec_list"); list != nil {
			for _, spec := range list.FindChildrenByType("var_spec") {
				if id := spec.FindChildByType("identifier"); id != nil {
					return id.Content(source)
				}
			}
		}
	}
	return ""
}

// goReceiverTypeName extracts the receiver's base type name from a
// method_declaration, stripping the pointer `*` for naming purposes
// but recording it in Metadata["goReceiverPointer"] via refine.
func goReceiverTypeName(n *Node, source []byte) string {
	params := n.FindChildByType("parameter_list")
	if params == nil {
		return ""
	}
	decl := params.FindChildByType("parameter_declaration")
	if decl == nil {
		return ""
	}
	for _, child := range decl.Children {
		switch child.Type {
		case "type_identifier":
			return child.Content(source)
		case "pointer_type":
			if id := child.FindChildByType("type_identifier"); id != nil {
				return id.Content(source)
			}
		}
	}
	return ""
}

func goRefine(n *Node, source []byte, sym *Symbol) {
	if n.Type != "function_declaration" && n.Type != "method_declaration" {
		return
	}

	if n.Type == "method_declaration" {
		if recv := n.FindChildByType("parameter_list"); recv != nil {
			if decl := recv.FindChildByType("parameter_declaration"); decl != nil {
				if decl.FindChildByType("pointer_type") != nil {
					sym.Metadata["goReceiverPointer"] = "true"
				}
			}
		}
	}

	if params := goParameters(n, source); params != "" {
		sym.Metadata["parameters"] = params
	}
	if ret := goReturnType(n, source); ret != "" {
		sym.Metadata["returnType"] = ret
	}
}

// goParamsList returns the function's own parameter_list, as opposed
// to a method_declaration's leading receiver list.
func goParamsList(n *Node) *Node {
	lists := n.FindChildrenByType("parameter_list")
	if len(lists) == 0 {
		return nil
	}
	if n.Type == "method_declaration" && len(lists) >= 2 {
		return lists[1]
	}
	return lists[0]
}

// goParamType returns a parameter_declaration's (or
// variadic_parameter_declaration's) type, the last non-identifier
// child's source text.
func goParamType(decl *Node, source []byte) string {
	var last *Node
	for _, child := range decl.Children {
		if child.Type == "identifier" {
			continue
		}
		last = child
	}
	if last == nil {
		return ""
	}
	prefix := ""
	if decl.Type == "variadic_parameter_declaration" {
		prefix = "..."
	}
	return prefix + last.Content(source)
}

// goParameters joins the function's own parameters as "name:type"
// pairs, in declaration order; unnamed parameters emit just ":type".
func goParameters(n *Node, source []byte) string {
	params := goParamsList(n)
	if params == nil {
		return ""
	}

	var pairs []string
	for _, decl := range params.Children {
		if decl.Type != "parameter_declaration" && decl.Type != "variadic_parameter_declaration" {
			continue
		}
		typ := goParamType(decl, source)
		names := decl.FindChildrenByType("identifier")
		if len(names) == 0 {
			if typ != "" {
				pairs = append(pairs, ":"+typ)
			}
			continue
		}
		for _, name := range names {
			pairs = append(pairs, name.Content(source)+":"+typ)
		}
	}
	return strings.Join(pairs, ",")
}

// goReturnType returns the declaration's result type: empty for no
// result, the single type's source text, or a comma-joined list of
// types for a multi-value return.
func goReturnType(n *Node, source []byte) string {
	params := goParamsList(n)
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
	if idx == -1 || idx+1 >= len(n.Children) {
		return ""
	}

	next := n.Children[idx+1]
	if next.Type == "block" {
		return ""
	}
	if next.Type == "parameter_list" {
		var types []string
		for _, decl := range next.FindChildrenByType("parameter_declaration") {
			if t := goParamType(decl, source); t != "" {
				types = append(types, t)
			}
		}
		return strings.Join(types, ", ")
	}
	return next.Content(source)
}

// goCalls walks call_expression nodes, taking the identifier or the
// final selector field as the callee base name.
func goCalls(root *Node, source []byte, out *identSet) {
	for _, call := range root.FindAllByType("call_expression") {
		if len(call.Children) == 0 {
			continue
		}
		callee := call.Children[0]
		name := calleeBaseName(callee, source)
		if !out.add(name) {
			return
		}
	}
}

func calleeBaseName(n *Node, source []byte) string {
	switch n.Type {
	case "identifier":
		return n.Content(source)
	case "selector_expression":
		if field := n.FindChildByType("field_identifier"); field != nil {
			return field.Content(source)
		}
	}
	return ""
}

// goImports walks import_spec nodes, recording "alias:path" when an
// explicit alias is present, else the bare import path.
func goImports(root *Node, source []byte, out *identSet) {
	for _, spec := range root.FindAllByType("import_spec") {
		var path, alias string
		for _, child := range spec.Children {
			switch child.Type {
			case "interpreted_string_literal":
				path = strings.Trim(child.Content(source), `"`)
			case "package_identifier", "identifier":
				alias = child.Content(source)
			}
		}
		if path == "" {
			continue
		}
		if alias != "" {
			if !out.add(alias + ":" + path) {
				return
			}
			continue
		}
		if !out.add(path) {
			return
		}
	}
}
