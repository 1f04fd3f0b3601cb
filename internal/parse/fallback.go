package parse

// fallbackExtractor handles languages with no dedicated ruleset: it
// extracts only the generic "first identifier child" name per spec.md
// §4.1's "MAY call a configured fallback parser once."
var fallbackExtractor = langExtractor{
	nameOf: func(n *Node, source []byte) string {
		for _, child := range n.Children {
			if child.Type == "identifier" {
				return child.Content(source)
			}
		}
		return ""
	},
}
