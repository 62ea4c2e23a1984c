// Package resolve implements the definition resolution cascade: an ordered
// sequence of strategies from qualified-name shortcuts through static and
// instance member dispatch down to the local-project-workspace-external
// chain, with recursion bounding and post-hoc position refinement.
package resolve

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"

	"javelin/internal/artifact"
	"javelin/internal/cache"
	"javelin/internal/errors"
	"javelin/internal/lang"
	"javelin/internal/logging"
)

// DefaultMaxDepth bounds recursive class-name resolution so alias cycles
// terminate instead of hanging.
const DefaultMaxDepth = 10

// Request carries everything one resolution needs. The caller owns the tree
// and source; the cascade never mutates them.
type Request struct {
	Tree    *sitter.Tree
	Source  []byte
	Path    string
	Project string
	Node    *sitter.Node
	Adapter lang.Adapter
}

// Cascade resolves identifier usages to definition locations. It is safe for
// concurrent use; each Resolve call owns no state beyond its stack.
type Cascade struct {
	cache      *cache.SymbolCache
	registry   *lang.Registry
	decompiler *artifact.Decompiler
	logger     *logging.Logger
	maxDepth   int

	files sync.Map // string (path or archive!/entry) -> *artifact.Artifact
}

// NewCascade builds a cascade over the given cache. maxDepth <= 0 selects
// DefaultMaxDepth.
func NewCascade(c *cache.SymbolCache, registry *lang.Registry, decompiler *artifact.Decompiler, logger *logging.Logger, maxDepth int) *Cascade {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Cascade{
		cache:      c,
		registry:   registry,
		decompiler: decompiler,
		logger:     logger,
		maxDepth:   maxDepth,
	}
}

// NodeAt returns the named node at a zero-based (line, column), or nil.
func NodeAt(root *sitter.Node, line, column uint32) *sitter.Node {
	pt := sitter.Point{Row: line, Column: column}
	return root.NamedDescendantForPointRange(pt, pt)
}

// target is a resolved class: where it lives and how to open it.
type target struct {
	loc     lang.Location
	art     *artifact.Artifact
	builtin bool
}

// Resolve runs the cascade. A miss at every scope returns a NOT_FOUND error;
// per-scope failures (unreadable artifacts, store errors) are logged and
// treated as misses at that scope only.
func (c *Cascade) Resolve(ctx context.Context, req Request) (lang.Location, error) {
	name := req.Node.Content(req.Source)
	kind := req.Adapter.Classify(req.Node, req.Source)
	logger := c.logger.With(map[string]interface{}{
		"request_id": uuid.NewString()[:8],
		"path":       req.Path,
		"name":       name,
		"kind":       kind.String(),
	})
	logger.Debug("Resolving usage", nil)

	if loc, skip, ok := c.resolveOnce(ctx, req, name, kind, logger); ok {
		refined := c.refine(ctx, req, loc, name, skip)
		logger.Debug("Resolved", map[string]interface{}{
			"target": refined.Path,
			"line":   refined.Line,
		})
		return refined, nil
	}

	logger.Debug("No definition found", nil)
	return lang.Location{}, errors.Newf(errors.NotFound, "no definition for %q", name)
}

// resolveOnce applies the strategies in order; the extra bool alongside the
// location marks results already known to be precise (builtin or decompiled
// artifacts), which refinement must leave alone.
func (c *Cascade) resolveOnce(ctx context.Context, req Request, name string, kind lang.SymbolKind, logger *logging.Logger) (lang.Location, bool, bool) {
	// 1. qualified-chain shortcut
	if kind == lang.FieldUsage {
		if loc, skip, ok := c.qualifiedChain(ctx, req, logger); ok {
			return loc, skip, true
		}
	}

	// 2 & 3. static member dispatch
	if mc, ok := req.Adapter.StaticMemberContext(req.Node, req.Source); ok {
		if loc, skip, ok := c.staticDispatch(ctx, req, mc, kind, logger); ok {
			return loc, skip, true
		}
	}

	// 4. instance member dispatch
	if mc, ok := req.Adapter.InstanceMemberContext(req.Node, req.Source); ok {
		if loc, skip, ok := c.instanceDispatch(ctx, req, mc, kind, logger); ok {
			return loc, skip, true
		}
	}

	root := req.Tree.RootNode()
	scopes := NewScopeResolver(req.Adapter, req.Source)

	// 5. classification fallback for value usages
	if kind.IsValueUsage() || kind == lang.VariableDeclaration {
		if decl := scopes.FindValue(root, req.Node, name); decl != nil {
			return c.nodeLocation(req, decl), false, true
		}
	}

	// 6. standard chain: local, then project/workspace/external
	switch kind {
	case lang.MethodCall, lang.MethodDeclaration:
		sig := callSignature(req)
		if decl := scopes.FindMethod(root, req.Node, name, sig); decl != nil {
			return c.nodeLocation(req, decl), false, true
		}
	default:
		if decl := req.Adapter.FindType(root, req.Source, name); decl != nil {
			return c.nodeLocation(req, decl), false, true
		}
	}
	if req.Adapter.NameStyle(name) == lang.LikelyType {
		if t, ok := c.resolveClassName(ctx, req, name, 0, logger); ok {
			return t.loc, t.builtin || t.decompiled(), true
		}
	}

	return lang.Location{}, false, false
}

// qualifiedChain handles dotted paths like A.B.C classified as field usage:
// when the leading segment looks like a type, the chain is tried as a nested
// type first and as a static property second.
func (c *Cascade) qualifiedChain(ctx context.Context, req Request, logger *logging.Logger) (lang.Location, bool, bool) {
	chain := enclosingChainText(req.Node, req.Source)
	if chain == "" || !strings.Contains(chain, ".") {
		return lang.Location{}, false, false
	}
	if req.Adapter.NameStyle(firstSegment(chain)) != lang.LikelyType {
		return lang.Location{}, false, false
	}

	// whole chain as a (possibly nested) type
	if t, ok := c.lookupQualified(ctx, req, chain, logger); ok {
		return t.loc, t.builtin || t.decompiled(), true
	}

	// receiver.member as a static property
	idx := strings.LastIndex(chain, ".")
	receiver, member := chain[:idx], chain[idx+1:]
	if t, ok := c.resolveClassName(ctx, req, lastSegment(receiver), 0, logger); ok {
		if loc, ok := c.findMember(ctx, t, member, lang.FieldUsage, nil, logger); ok {
			return loc, t.builtin || t.decompiled(), true
		}
	}
	return lang.Location{}, false, false
}

// staticDispatch resolves Receiver.member where the receiver looks like a
// type. A resolved class whose member search misses still yields the class
// location as a degraded result.
func (c *Cascade) staticDispatch(ctx context.Context, req Request, mc lang.MemberContext, kind lang.SymbolKind, logger *logging.Logger) (lang.Location, bool, bool) {
	t, ok := c.resolveClassName(ctx, req, lastSegment(mc.Receiver), 0, logger)
	if !ok {
		return lang.Location{}, false, false
	}
	var sig *lang.Signature
	if kind == lang.MethodCall {
		sig = callSignature(req)
	}
	if loc, ok := c.findMember(ctx, t, mc.Member, kind, sig, logger); ok {
		return loc, t.builtin || t.decompiled(), true
	}
	// degraded fallback: the class itself is still useful
	logger.Debug("Member not found, returning class location", map[string]interface{}{
		"receiver": mc.Receiver,
		"member":   mc.Member,
	})
	return t.loc, t.builtin || t.decompiled(), true
}

// instanceDispatch resolves variable.member by inferring the variable's
// declared type: fields of the file first, then scope-visible locals and
// parameters.
func (c *Cascade) instanceDispatch(ctx context.Context, req Request, mc lang.MemberContext, kind lang.SymbolKind, logger *logging.Logger) (lang.Location, bool, bool) {
	root := req.Tree.RootNode()
	varName := lastSegment(mc.Receiver)

	typeName := ""
	if field := req.Adapter.FindField(root, req.Source, varName); field != nil {
		typeName = req.Adapter.DeclaredTypeName(field, req.Source)
	}
	if typeName == "" {
		scopes := NewScopeResolver(req.Adapter, req.Source)
		if decl := scopes.FindVariable(req.Node, varName); decl != nil {
			typeName = req.Adapter.DeclaredTypeName(decl, req.Source)
		}
	}
	if typeName == "" {
		return lang.Location{}, false, false
	}

	t, ok := c.resolveClassName(ctx, req, typeName, 0, logger)
	if !ok {
		return lang.Location{}, false, false
	}
	var sig *lang.Signature
	if kind == lang.MethodCall {
		sig = callSignature(req)
	}
	if loc, ok := c.findMember(ctx, t, mc.Member, kind, sig, logger); ok {
		return loc, t.builtin || t.decompiled(), true
	}
	return lang.Location{}, false, false
}

// findMember searches a resolved class for a member. Method searches try
// enum constants first, then signature-ranked method declarations, then the
// getter/setter naming bridge; field searches try fields then enum
// constants.
func (c *Cascade) findMember(ctx context.Context, t *target, member string, kind lang.SymbolKind, sig *lang.Signature, logger *logging.Logger) (lang.Location, bool) {
	art := t.art
	tree, err := art.Tree(ctx)
	if err != nil {
		logger.Debug("Target artifact unusable", map[string]interface{}{
			"artifact": art.DisplayPath(),
			"error":    err.Error(),
		})
		return lang.Location{}, false
	}
	adapter, ok := art.Adapter()
	if !ok {
		return lang.Location{}, false
	}
	content, _ := art.Content()
	src := []byte(content)
	root := tree.RootNode()
	path := art.DisplayPath()

	locOf := func(decl *sitter.Node) lang.Location {
		if name := adapter.NameNode(decl); name != nil {
			decl = name
		}
		pt := decl.StartPoint()
		return lang.Location{Path: path, Line: pt.Row, Column: pt.Column}
	}

	if kind == lang.MethodCall || kind == lang.MethodDeclaration {
		// a capitalized "call" may really be an enum constant
		if decl := adapter.FindEnumConstant(root, src, member); decl != nil {
			return locOf(decl), true
		}
		if decl := bestMethod(adapter, adapter.FindMethods(root, src, member), sig); decl != nil {
			return locOf(decl), true
		}
		if prop := accessorProperty(member); prop != "" {
			if decl := adapter.FindField(root, src, prop); decl != nil {
				return locOf(decl), true
			}
		}
		for _, accessor := range propertyAccessors(member) {
			if decl := bestMethod(adapter, adapter.FindMethods(root, src, accessor), nil); decl != nil {
				return locOf(decl), true
			}
		}
		return lang.Location{}, false
	}

	if decl := adapter.FindField(root, src, member); decl != nil {
		return locOf(decl), true
	}
	if decl := adapter.FindEnumConstant(root, src, member); decl != nil {
		return locOf(decl), true
	}
	return lang.Location{}, false
}

// resolveClassName finds where a type's definition lives: the project's own
// symbols by imported-or-short name, then workspace dependency projects,
// then external artifacts and builtins. Alias indirection recurses with a
// depth budget; exceeding it is a terminal miss.
func (c *Cascade) resolveClassName(ctx context.Context, req Request, name string, depth int, logger *logging.Logger) (*target, bool) {
	if depth > c.maxDepth {
		logger.Warn("Recursion ceiling hit during class resolution", map[string]interface{}{
			"name":  name,
			"depth": depth,
			"code":  string(errors.RecursionExceeded),
		})
		return nil, false
	}

	root := req.Tree.RootNode()
	if aliased, ok := req.Adapter.TypeAliasTarget(root, req.Source, name); ok && aliased != name {
		return c.resolveClassName(ctx, req, lastSegment(aliased), depth+1, logger)
	}

	candidates := c.candidateFQNs(req, name)

	// own project
	if t, ok := c.lookupInProject(req.Project, name, candidates); ok {
		return t, true
	}

	// workspace: declared dependencies first, then every indexed project
	meta, hasMeta := c.cache.Metadata(req.Project)
	if hasMeta {
		for _, dep := range meta.Dependencies {
			if t, ok := c.lookupInProject(dep, name, candidates); ok {
				return t, true
			}
		}
	}
	for _, project := range c.cache.Projects() {
		if project == req.Project {
			continue
		}
		if t, ok := c.lookupInProject(project, name, candidates); ok {
			return t, true
		}
	}

	// external artifacts: own project's first, then dependency projects',
	// then the builtin platform classes
	for _, fqn := range candidates {
		if art, ok := c.cache.LookupExternal(req.Project, fqn); ok {
			return &target{loc: lang.Location{Path: art.DisplayPath()}, art: art}, true
		}
	}
	if hasMeta {
		for _, dep := range meta.Dependencies {
			for _, fqn := range candidates {
				if art, ok := c.cache.LookupExternal(dep, fqn); ok {
					return &target{loc: lang.Location{Path: art.DisplayPath()}, art: art}, true
				}
			}
		}
	}
	for _, fqn := range candidates {
		if art, ok := c.cache.LookupBuiltin(fqn); ok {
			return &target{
				loc:     lang.Location{Path: art.DisplayPath()},
				art:     art,
				builtin: true,
			}, true
		}
	}
	return nil, false
}

// candidateFQNs orders the fully-qualified names a bare type name could mean
// in this file: explicit imports, wildcard imports, same package, implicit
// packages, then the bare name itself.
func (c *Cascade) candidateFQNs(req Request, name string) []string {
	root := req.Tree.RootNode()
	imports := req.Adapter.Imports(root, req.Source)
	pkg := req.Adapter.PackageName(root, req.Source)

	var candidates []string
	seen := make(map[string]bool)
	add := func(fqn string) {
		if fqn != "" && !seen[fqn] {
			seen[fqn] = true
			candidates = append(candidates, fqn)
		}
	}

	for _, imp := range imports {
		if imp.Wildcard {
			continue
		}
		if imp.Alias == name || (imp.Alias == "" && lastSegment(imp.Path) == name) {
			add(imp.Path)
		}
	}
	for _, imp := range imports {
		if imp.Wildcard {
			add(imp.Path + "." + name)
		}
	}
	if pkg != "" {
		add(pkg + "." + name)
	}
	for _, pkg := range req.Adapter.ImplicitPackages() {
		add(pkg + "." + name)
	}
	add(name)
	return candidates
}

// lookupInProject checks one project partition for any candidate FQN, then
// for the bare short name.
func (c *Cascade) lookupInProject(project, name string, candidates []string) (*target, bool) {
	for _, fqn := range candidates {
		if sym, ok := c.cache.LookupSymbol(project, fqn); ok {
			return &target{loc: sym.Location, art: c.artifactFor(sym.Location.Path)}, true
		}
	}
	for _, fqn := range c.cache.LookupShortName(project, name) {
		if sym, ok := c.cache.LookupSymbol(project, fqn); ok {
			return &target{loc: sym.Location, art: c.artifactFor(sym.Location.Path)}, true
		}
	}
	return nil, false
}

// lookupQualified tries a dotted chain as a fully-qualified (possibly
// nested) type across the project, workspace, and external tiers.
func (c *Cascade) lookupQualified(ctx context.Context, req Request, chain string, logger *logging.Logger) (*target, bool) {
	if sym, ok := c.cache.LookupSymbol(req.Project, chain); ok {
		return &target{loc: sym.Location, art: c.artifactFor(sym.Location.Path)}, true
	}
	for _, project := range c.cache.Projects() {
		if sym, ok := c.cache.LookupSymbol(project, chain); ok {
			return &target{loc: sym.Location, art: c.artifactFor(sym.Location.Path)}, true
		}
	}
	if art, ok := c.cache.LookupExternal(req.Project, chain); ok {
		return &target{loc: lang.Location{Path: art.DisplayPath()}, art: art}, true
	}
	if meta, ok := c.cache.Metadata(req.Project); ok {
		for _, dep := range meta.Dependencies {
			if art, ok := c.cache.LookupExternal(dep, chain); ok {
				return &target{loc: lang.Location{Path: art.DisplayPath()}, art: art}, true
			}
		}
	}
	if art, ok := c.cache.LookupBuiltin(chain); ok {
		return &target{
			loc:     lang.Location{Path: art.DisplayPath()},
			art:     art,
			builtin: true,
		}, true
	}
	return nil, false
}

// artifactFor returns the shared artifact for a stored symbol path, which
// may use the archive!/entry notation.
func (c *Cascade) artifactFor(path string) *artifact.Artifact {
	if v, ok := c.files.Load(path); ok {
		return v.(*artifact.Artifact)
	}
	archive, entry := artifact.ParseRef(path)
	var art *artifact.Artifact
	if entry == "" {
		art = artifact.NewFile(path, c.registry)
	} else {
		art = artifact.NewArchiveEntry(archive, entry, "", c.registry, c.decompiler)
	}
	actual, _ := c.files.LoadOrStore(path, art)
	return actual.(*artifact.Artifact)
}

func (c *Cascade) nodeLocation(req Request, decl *sitter.Node) lang.Location {
	if name := req.Adapter.NameNode(decl); name != nil {
		decl = name
	}
	pt := decl.StartPoint()
	return lang.Location{Path: req.Path, Line: pt.Row, Column: pt.Column}
}

func (t *target) decompiled() bool {
	return t.art != nil && t.art.Decompiled()
}

func callSignature(req Request) *lang.Signature {
	if sig, ok := req.Adapter.CallSignature(req.Node, req.Source); ok {
		return &sig
	}
	return nil
}

var chainPattern = regexp.MustCompile(`^[\pL_][\pL\pN_]*(\.[\pL_][\pL\pN_]*)+$`)

// enclosingChainText climbs to the outermost ancestor whose text is still a
// plain dotted identifier chain and returns that text.
func enclosingChainText(node *sitter.Node, src []byte) string {
	chain := ""
	for n := node; n != nil; n = n.Parent() {
		text := n.Content(src)
		if n != node && !chainPattern.MatchString(text) {
			break
		}
		chain = text
	}
	if !strings.Contains(chain, ".") {
		return ""
	}
	if !chainPattern.MatchString(chain) {
		return ""
	}
	return chain
}

// accessorProperty maps getFoo/setFoo/isFoo to foo, or returns "".
func accessorProperty(member string) string {
	var rest string
	switch {
	case strings.HasPrefix(member, "get"):
		rest = member[3:]
	case strings.HasPrefix(member, "set"):
		rest = member[3:]
	case strings.HasPrefix(member, "is"):
		rest = member[2:]
	default:
		return ""
	}
	if rest == "" {
		return ""
	}
	return lowerFirst(rest)
}

// propertyAccessors maps foo to its conventional accessor names.
func propertyAccessors(member string) []string {
	r, _ := utf8.DecodeRuneInString(member)
	if member == "" || unicode.IsUpper(r) {
		return nil
	}
	suffix := upperFirst(member)
	return []string{"get" + suffix, "is" + suffix, "set" + suffix}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstSegment(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
