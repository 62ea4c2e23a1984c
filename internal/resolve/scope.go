package resolve

import (
	sitter "github.com/smacker/go-tree-sitter"

	"javelin/internal/lang"
)

// ScopeResolver answers single-file questions: the nearest accessible
// declaration for a name, honoring declaration-before-use and block nesting.
type ScopeResolver struct {
	adapter lang.Adapter
	src     []byte
}

// NewScopeResolver creates a resolver over one file's source.
func NewScopeResolver(adapter lang.Adapter, src []byte) *ScopeResolver {
	return &ScopeResolver{adapter: adapter, src: src}
}

// FindVariable walks outward from the usage through enclosing scopes and
// returns the nearest preceding declaration of name. Inner scopes win over
// outer ones; within a scope, the latest declaration still before the usage
// wins. Returns nil when no scope declares the name.
func (r *ScopeResolver) FindVariable(usage *sitter.Node, name string) *sitter.Node {
	for scope := usage.Parent(); scope != nil; scope = scope.Parent() {
		if !r.adapter.IsScope(scope) {
			continue
		}
		var best *sitter.Node
		for _, decl := range r.adapter.ScopeDeclarations(scope, r.src) {
			if decl.Name != name {
				continue
			}
			if decl.Node.StartByte() >= usage.StartByte() {
				continue
			}
			if sameSpan(decl.Node, usage) {
				continue
			}
			if best == nil || decl.Node.StartByte() > best.StartByte() {
				best = decl.Node
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// FindValue resolves a value usage: variables and parameters first, then a
// retry treating the name as a field declared anywhere in the file.
func (r *ScopeResolver) FindValue(root, usage *sitter.Node, name string) *sitter.Node {
	if decl := r.FindVariable(usage, name); decl != nil {
		return decl
	}
	return r.adapter.FindField(root, r.src, name)
}

// FindMethod resolves a call to a declaration: the enclosing type's own
// methods first, then the whole file, each tier ranked by call signature.
func (r *ScopeResolver) FindMethod(root, usage *sitter.Node, name string, sig *lang.Signature) *sitter.Node {
	if enclosing := r.enclosingType(root, usage); enclosing != nil {
		candidates := r.adapter.FindMethods(enclosing, r.src, name)
		if decl := bestMethod(r.adapter, candidates, sig); decl != nil {
			return decl
		}
	}
	candidates := r.adapter.FindMethods(root, r.src, name)
	return bestMethod(r.adapter, candidates, sig)
}

// enclosingType returns the declaration node of the type containing the
// usage, or nil for usages outside any type body.
func (r *ScopeResolver) enclosingType(root, usage *sitter.Node) *sitter.Node {
	var enclosing *sitter.Node
	for _, t := range r.adapter.TopLevelTypes(root, r.src) {
		if t.Node.StartByte() <= usage.StartByte() && usage.EndByte() <= t.Node.EndByte() {
			// prefer the innermost containing type
			if enclosing == nil || t.Node.StartByte() > enclosing.StartByte() {
				enclosing = t.Node
			}
		}
	}
	return enclosing
}

func sameSpan(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
