package resolve

import (
	sitter "github.com/smacker/go-tree-sitter"

	"javelin/internal/lang"
)

// bestMethod picks the declaration matching a call's shape. A declaration
// whose parameter count equals the argument count is a strong match and wins
// over document order; with no signature or no strong match, the first
// candidate is the weak name-only fallback.
func bestMethod(adapter lang.Adapter, candidates []*sitter.Node, sig *lang.Signature) *sitter.Node {
	if len(candidates) == 0 {
		return nil
	}
	if sig != nil {
		for _, decl := range candidates {
			if adapter.ParameterCount(decl) == sig.ArgCount {
				return decl
			}
		}
	}
	return candidates[0]
}
