package parse

import "strings"

// tsExtractor is shared across typescript, tsx, javascript and jsx —
// the four share the same grammar family and symbol shapes, differing
// only in which file extensions route to them.
var tsExtractor = langExtractor{
	nameOf:         tsName,
	refine:         tsRefine,
	extraSymbols:   tsExtraSymbols,
	collectCalls:   tsCalls,
	collectImports: tsImports,
}

func tsName(n *Node, source []byte) string {
	switch n.Type {
	case "function_declaration", "enum_declaration":
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	case "class_declaration", "interface_declaration", "type_alias_declaration":
		if id := n.FindChildByType("type_identifier"); id != nil {
			return id.Content(source)
		}
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	case "method_definition":
		if id := n.FindChildByType("property_identifier"); id != nil {
			return id.Content(source)
		}
	case "lexical_declaration", "variable_declaration":
		if decl := n.FindChildByType("variable_declarator"); decl != nil {
			if id := decl.FindChildByType("identifier"); id != nil {
				return id.Content(source)
			}
		}
	}
	return ""
}

func tsDeclaratorValue(n *Node) *Node {
	decl := n.FindChildByType("variable_declarator")
	if decl == nil {
		return nil
	}
	for _, child := range decl.Children {
		switch child.Type {
		case "arrow_function", "function", "function_expression":
			return child
		}
	}
	return nil
}

func tsRefine(n *Node, source []byte, sym *Symbol) {
	switch n.Type {
	case "method_definition":
		switch {
		case n.FindChildByType("accessibility_modifier") != nil:
			sym.Metadata["visibility"] = accessibilityModifier(n, source)
		default:
			sym.Metadata["visibility"] = "public"
		}
		tsSetSignature(sym, n, source)
	case "class_declaration", "interface_declaration":
		if generics := n.FindChildByType("type_parameters"); generics != nil {
			sym.Metadata["generics"] = generics.Content(source)
		}
	case "lexical_declaration", "variable_declaration":
		if fn := tsDeclaratorValue(n); fn != nil {
			sym.SymbolType = SymbolFunction
			sym.Body = fn.Content(source)
			tsSetSignature(sym, fn, source)
			classifyReactRole(sym, fn, source)
		}
	case "function_declaration":
		tsSetSignature(sym, n, source)
		classifyReactRole(sym, n, source)
	}

	if exportedNode(n) {
		sym.Metadata["exported"] = "true"
	}
}

// tsSetSignature records a function-shaped node's generics, parameters
// and return type into Metadata, shared by function_declaration,
// method_definition and the arrow/function forms of a declarator value.
func tsSetSignature(sym *Symbol, fnNode *Node, source []byte) {
	if generics := fnNode.FindChildByType("type_parameters"); generics != nil {
		sym.Metadata["generics"] = generics.Content(source)
	}
	if params := tsParameters(fnNode, source); params != "" {
		sym.Metadata["parameters"] = params
	}
	if ret := tsReturnType(fnNode, source); ret != "" {
		sym.Metadata["returnType"] = ret
	}
}

// tsParameters joins a function-shaped node's formal_parameters as
// "name:type" pairs, in declaration order; an untyped parameter emits
// just its name, and a rest parameter keeps its leading "...".
func tsParameters(fnNode *Node, source []byte) string {
	params := fnNode.FindChildByType("formal_parameters")
	if params == nil {
		return ""
	}

	var pairs []string
	for _, child := range params.Children {
		switch child.Type {
		case "required_parameter", "optional_parameter":
			name, typ := tsParamNameAndType(child, source)
			if name == "" {
				continue
			}
			if typ != "" {
				pairs = append(pairs, name+":"+typ)
			} else {
				pairs = append(pairs, name)
			}
		case "identifier":
			pairs = append(pairs, child.Content(source))
		}
	}
	return strings.Join(pairs, ",")
}

func tsParamNameAndType(param *Node, source []byte) (string, string) {
	var name, typ string
	for _, child := range param.Children {
		switch child.Type {
		case "type_annotation":
			typ = strings.TrimSpace(strings.TrimPrefix(child.Content(source), ":"))
		case "=":
			// default value follows; stop scanning for a name candidate
		default:
			if name == "" {
				name = child.Content(source)
			}
		}
	}
	return name, typ
}

// tsReturnType returns a function-shaped node's own `: T` annotation,
// which tree-sitter-typescript attaches as a direct type_annotation
// child after formal_parameters (parameter-level annotations live
// inside formal_parameters itself, so this never picks those up).
func tsReturnType(fnNode *Node, source []byte) string {
	ret := fnNode.FindChildByType("type_annotation")
	if ret == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(ret.Content(source), ":"))
}

func accessibilityModifier(n *Node, source []byte) string {
	if mod := n.FindChildByType("accessibility_modifier"); mod != nil {
		return mod.Content(source)
	}
	return "public"
}

// exportedNode reports whether n (or its lexical_declaration/function
// wrapper) sits directly under an export_statement.
func exportedNode(n *Node) bool {
	if n.Parent != nil && n.Parent.Type == "export_statement" {
		return true
	}
	return false
}

// classifyReactRole reclassifies a function as a hook (name starts
// with "use" and its body calls a React hook) or a component (capital
// name and its body contains JSX).
func classifyReactRole(sym *Symbol, fnNode *Node, source []byte) {
	name := sym.Name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return
	}

	body := fnNode.Content(source)
	switch {
	case strings.HasPrefix(name, "use") && len(name) > 3 && isUpper(name[3]):
		if referencesReactHook(body) {
			sym.SymbolType = SymbolHook
			if deps, ok := hookDependencyArray(fnNode, source); ok {
				sym.Metadata["hookDeps"] = deps
			}
		}
	case isUpper(name[0]):
		if strings.Contains(body, "jsx_element") || containsJSX(fnNode) {
			sym.SymbolType = SymbolComponent
		}
	}
}

// hookDependencyArray finds the first React hook call inside fnNode
// whose last argument is an array literal (its dependency array) and
// returns that array's elements joined by ",". A hook call with no
// array argument (e.g. a bare useContext(ctx)) reports ok=false.
func hookDependencyArray(fnNode *Node, source []byte) (string, bool) {
	for _, call := range fnNode.FindAllByType("call_expression") {
		if len(call.Children) == 0 {
			continue
		}
		if !isReactHookCallee(call.Children[0], source) {
			continue
		}
		args := call.FindChildByType("arguments")
		if args == nil {
			continue
		}
		var arr *Node
		for _, child := range args.Children {
			if child.Type == "array" {
				arr = child
			}
		}
		if arr == nil {
			continue
		}
		var deps []string
		for _, el := range arr.Children {
			switch el.Type {
			case "[", "]", ",":
				continue
			default:
				deps = append(deps, el.Content(source))
			}
		}
		return strings.Join(deps, ","), true
	}
	return "", false
}

func isReactHookCallee(n *Node, source []byte) bool {
	name := tsCalleeBaseName(n, source)
	for _, hook := range []string{"useState", "useEffect", "useCallback", "useMemo", "useRef", "useContext"} {
		if name == hook {
			return true
		}
	}
	return false
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func referencesReactHook(body string) bool {
	for _, hook := range []string{"useState", "useEffect", "useCallback", "useMemo", "useRef", "useContext"} {
		if strings.Contains(body, hook) {
			return true
		}
	}
	return false
}

func containsJSX(n *Node) bool {
	found := false
	n.Walk(func(child *Node) bool {
		if child.Type == "jsx_element" || child.Type == "jsx_self_closing_element" || child.Type == "jsx_fragment" {
			found = true
			return false
		}
		return true
	})
	return found
}

// tsExtraSymbols isn't needed beyond the lexical/variable_declaration
// path already handled in nameOf/refine; reserved for parity with the
// other extractors' shape.
func tsExtraSymbols(n *Node, source []byte) *Symbol {
	return nil
}

func tsCalls(root *Node, source []byte, out *identSet) {
	for _, call := range root.FindAllByType("call_expression") {
		if len(call.Children) == 0 {
			continue
		}
		name := tsCalleeBaseName(call.Children[0], source)
		if name == "" {
			continue
		}
		if !out.add(name) {
			return
		}
	}
}

func tsCalleeBaseName(n *Node, source []byte) string {
	switch n.Type {
	case "identifier":
		return n.Content(source)
	case "member_expression":
		if prop := n.FindChildByType("property_identifier"); prop != nil {
			return prop.Content(source)
		}
	}
	return ""
}

func tsImports(root *Node, source []byte, out *identSet) {
	for _, imp := range root.FindAllByType("import_statement") {
		var module string
		if src := imp.FindChildByType("string"); src != nil {
			module = strings.Trim(src.Content(source), `"'`)
		}
		if module == "" {
			continue
		}
		names := imp.FindAllByType("identifier")
		if len(names) == 0 {
			if !out.add(module) {
				return
			}
			continue
		}
		for _, id := range names {
			if !out.add(id.Content(source) + ":" + module) {
				return
			}
		}
	}
}
