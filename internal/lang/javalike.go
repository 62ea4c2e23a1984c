package lang

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"javelin/internal/errors"
)

// vocabulary names the syntax-tree node types one JVM-family grammar uses for
// each structural concept. The three grammars are close enough that a single
// vocabulary-driven implementation covers them; adapters override the few
// places where a grammar diverges structurally.
type vocabulary struct {
	typeDecls    map[string]SymbolKind // node type -> class/interface/enum kind
	methodDecls  map[string]bool       // includes constructors
	fieldDecls   map[string]bool       // class-level value declarations
	localDecls   map[string]bool       // block-level value declarations
	paramDecls   map[string]bool
	declarator   string // intermediate declarator node, or "" when names are direct children
	enumConstant string
	identifiers  map[string]bool
	typeIdents   map[string]bool // identifier node types that name types
	callNodes    map[string]bool
	accessNodes  map[string]bool // qualified field/property access
	scopes       map[string]bool
	forEachDecls map[string]bool // loop headers that declare their variable directly
	importNode   string
	packageNode  string
	superClauses map[string]bool // extends/implements clause nodes

	nameField   string // usually "name"
	objectField string // receiver of a call/access
	memberField string // member of an accessNode (e.g. "field")
	typeField   string // declared type
	argsField   string // call arguments
	paramsField string // parameter list of a method-like node
	valueField  string // declarator initializer

	argsNode   string // fallback when argsField is absent in the grammar
	paramsNode string // fallback for paramsField
}

// javalike implements Adapter generically over a vocabulary.
type javalike struct {
	name     string
	exts     []string
	tsLang   *sitter.Language
	v        vocabulary
	implicit []string

	// kindHook refines the type kind for grammars that fold class,
	// interface, and enum declarations into a single node type.
	kindHook func(decl *sitter.Node, kind SymbolKind, src []byte) SymbolKind
}

func (b *javalike) Language() string { return b.name }

func (b *javalike) Extensions() []string { return b.exts }

func (b *javalike) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(b.tsLang)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(errors.ParseError, "failed to parse "+b.name+" source", err)
	}
	return tree, nil
}

func (b *javalike) NameStyle(name string) NameStyle {
	return StyleOf(name)
}

func (b *javalike) ImplicitPackages() []string {
	return b.implicit
}

// sameNode compares nodes by position and type; pointer identity is not
// reliable across separate wrapper allocations.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// walk visits node and all descendants pre-order. fn returning false skips
// the node's subtree; siblings are still visited.
func walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), fn)
	}
}

// NameNode returns the name identifier of a declaration node.
func (b *javalike) NameNode(decl *sitter.Node) *sitter.Node {
	if decl == nil {
		return nil
	}
	if b.v.nameField != "" {
		if n := decl.ChildByFieldName(b.v.nameField); n != nil {
			return n
		}
	}
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if b.v.identifiers[child.Type()] {
			return child
		}
	}
	return decl
}

func (b *javalike) declName(decl *sitter.Node, src []byte) string {
	n := b.NameNode(decl)
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// isNameOf reports whether node is the name identifier of decl.
func (b *javalike) isNameOf(decl, node *sitter.Node) bool {
	return sameNode(b.NameNode(decl), node)
}

// Classify determines the symbol kind by ordered structural patterns; the
// first match wins and a bare identifier falls back to field usage.
func (b *javalike) Classify(node *sitter.Node, src []byte) SymbolKind {
	if node == nil {
		return Unknown
	}
	t := node.Type()
	if k, ok := b.v.typeDecls[t]; ok {
		return b.refineTypeKind(node, k, src)
	}
	if !b.v.identifiers[t] {
		return Unknown
	}

	parent := node.Parent()
	if parent == nil {
		return FieldUsage
	}
	pt := parent.Type()

	if k, ok := b.v.typeDecls[pt]; ok && b.isNameOf(parent, node) {
		return b.refineTypeKind(parent, k, src)
	}
	if b.v.methodDecls[pt] && b.isNameOf(parent, node) {
		return MethodDeclaration
	}
	if b.v.declarator != "" && pt == b.v.declarator && b.isNameOf(parent, node) {
		if gp := parent.Parent(); gp != nil {
			if b.v.fieldDecls[gp.Type()] {
				return FieldDeclaration
			}
			if b.v.localDecls[gp.Type()] {
				return VariableDeclaration
			}
		}
		return VariableDeclaration
	}
	if b.v.declarator == "" && (b.v.fieldDecls[pt] || b.v.localDecls[pt]) && b.isNameOf(parent, node) {
		if b.insideTypeBody(parent) {
			return FieldDeclaration
		}
		return VariableDeclaration
	}
	if b.v.paramDecls[pt] && b.isNameOf(parent, node) {
		return ParameterDeclaration
	}
	if pt == b.v.enumConstant && b.isNameOf(parent, node) {
		return FieldDeclaration
	}
	if b.v.forEachDecls[pt] && b.isNameOf(parent, node) {
		return VariableDeclaration
	}
	if b.v.callNodes[pt] {
		if member := b.callMember(parent); sameNode(member, node) {
			return MethodCall
		}
	}
	if pt == b.v.packageNode || pt == b.v.importNode {
		return PackageName
	}
	if gp := parent.Parent(); gp != nil {
		if gp.Type() == b.v.packageNode || gp.Type() == b.v.importNode {
			return PackageName
		}
	}
	if b.v.typeIdents[t] {
		return TypeUsage
	}
	if b.v.accessNodes[pt] {
		if member := parent.ChildByFieldName(b.v.memberField); sameNode(member, node) {
			return FieldUsage
		}
	}
	return FieldUsage
}

// insideTypeBody reports whether a declaration hangs directly off a type
// body rather than a statement block.
func (b *javalike) insideTypeBody(decl *sitter.Node) bool {
	for anc := decl.Parent(); anc != nil; anc = anc.Parent() {
		t := anc.Type()
		if _, ok := b.v.typeDecls[t]; ok {
			return true
		}
		if b.v.methodDecls[t] || b.v.scopes[t] {
			return false
		}
	}
	return false
}

// callMember returns the member name node of a call node. For plain calls
// ("foo()") it is the call's name; for qualified calls it is the member after
// the receiver.
func (b *javalike) callMember(call *sitter.Node) *sitter.Node {
	if b.v.nameField != "" {
		if n := call.ChildByFieldName(b.v.nameField); n != nil {
			return n
		}
	}
	return nil
}

func (b *javalike) callReceiver(call *sitter.Node) *sitter.Node {
	if b.v.objectField == "" {
		return nil
	}
	return call.ChildByFieldName(b.v.objectField)
}

// memberContext extracts (receiver, member) from the access enclosing node,
// accepting only receivers whose name style matches want. The clicked node
// must be the member itself; clicking the receiver falls through to class
// resolution.
func (b *javalike) memberContext(node *sitter.Node, src []byte, want NameStyle) (MemberContext, bool) {
	for anc := node.Parent(); anc != nil; anc = anc.Parent() {
		t := anc.Type()
		if b.v.callNodes[t] || b.v.accessNodes[t] {
			receiver := b.callReceiver(anc)
			var member *sitter.Node
			if b.v.accessNodes[t] {
				member = anc.ChildByFieldName(b.v.memberField)
			} else {
				member = b.callMember(anc)
			}
			if receiver == nil || member == nil {
				return MemberContext{}, false
			}
			if !sameNode(member, node) {
				return MemberContext{}, false
			}
			recv := receiver.Content(src)
			if b.NameStyle(firstSegment(recv)) != want {
				return MemberContext{}, false
			}
			return MemberContext{Receiver: recv, Member: member.Content(src)}, true
		}
		if b.v.scopes[t] {
			break
		}
	}
	return MemberContext{}, false
}

func (b *javalike) StaticMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return b.memberContext(node, src, LikelyType)
}

func (b *javalike) InstanceMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return b.memberContext(node, src, LikelyInstance)
}

// firstSegment returns the leading identifier of a possibly dotted name.
func firstSegment(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}

// lastSegment returns the trailing identifier of a possibly dotted name.
func lastSegment(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// CallSignature extracts argument count and obvious literal types from the
// call expression enclosing node.
func (b *javalike) CallSignature(node *sitter.Node, src []byte) (Signature, bool) {
	for anc := node.Parent(); anc != nil; anc = anc.Parent() {
		if b.v.callNodes[anc.Type()] {
			args := b.callArguments(anc)
			if args == nil {
				return Signature{}, false
			}
			sig := Signature{}
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				sig.ArgCount++
				sig.ArgTypes = append(sig.ArgTypes, literalTypeName(arg.Type()))
			}
			return sig, true
		}
		if b.v.scopes[anc.Type()] {
			break
		}
	}
	return Signature{}, false
}

func (b *javalike) callArguments(call *sitter.Node) *sitter.Node {
	if b.v.argsField != "" {
		if args := call.ChildByFieldName(b.v.argsField); args != nil {
			if b.v.argsNode != "" && args.Type() != b.v.argsNode {
				// some grammars wrap arguments one level deeper
				for i := 0; i < int(args.NamedChildCount()); i++ {
					if args.NamedChild(i).Type() == b.v.argsNode {
						return args.NamedChild(i)
					}
				}
			}
			return args
		}
	}
	if b.v.argsNode != "" {
		var found *sitter.Node
		walk(call, func(n *sitter.Node) bool {
			if found != nil {
				return false
			}
			if n.Type() == b.v.argsNode {
				found = n
				return false
			}
			return true
		})
		return found
	}
	return nil
}

// literalTypeName maps literal node types to simple type names for weak
// argument-type matching.
func literalTypeName(nodeType string) string {
	switch nodeType {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "integer_literal":
		return "int"
	case "decimal_floating_point_literal", "real_literal":
		return "double"
	case "string_literal", "line_string_literal", "multiline_string_literal":
		return "String"
	case "character_literal":
		return "char"
	case "true", "false", "boolean_literal":
		return "boolean"
	case "null_literal", "null":
		return "null"
	}
	return ""
}

func (b *javalike) FindType(root *sitter.Node, src []byte, name string) *sitter.Node {
	var found *sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if _, ok := b.v.typeDecls[n.Type()]; ok && b.declName(n, src) == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func (b *javalike) FindMethods(root *sitter.Node, src []byte, name string) []*sitter.Node {
	var found []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if b.v.methodDecls[n.Type()] && b.declName(n, src) == name {
			found = append(found, n)
		}
		return true
	})
	return found
}

func (b *javalike) FindField(root *sitter.Node, src []byte, name string) *sitter.Node {
	var found *sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if b.v.fieldDecls[n.Type()] {
			for _, decl := range b.declaredNames(n, src) {
				if decl.Name == name {
					found = decl.Node
					return false
				}
			}
		}
		return true
	})
	return found
}

func (b *javalike) FindEnumConstant(root *sitter.Node, src []byte, name string) *sitter.Node {
	if b.v.enumConstant == "" {
		return nil
	}
	var found *sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == b.v.enumConstant && b.declName(n, src) == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func (b *javalike) FindIdentifiers(root *sitter.Node, src []byte, name string) []*sitter.Node {
	var found []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if b.v.identifiers[n.Type()] && n.Content(src) == name {
			found = append(found, n)
		}
		return true
	})
	return found
}

func (b *javalike) IsScope(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	t := node.Type()
	if b.v.scopes[t] || b.v.methodDecls[t] || b.v.forEachDecls[t] {
		return true
	}
	_, isType := b.v.typeDecls[t]
	return isType || node.Parent() == nil
}

// declaredNames expands one declaration statement into named declarations.
// A single field statement may declare several names ("int a, b;").
func (b *javalike) declaredNames(decl *sitter.Node, src []byte) []Declaration {
	kind := VariableDeclaration
	switch {
	case b.v.fieldDecls[decl.Type()]:
		kind = FieldDeclaration
		if !b.insideTypeBody(decl) {
			kind = VariableDeclaration
		}
	case b.v.paramDecls[decl.Type()]:
		kind = ParameterDeclaration
	}

	if b.v.declarator == "" {
		if n := b.NameNode(decl); n != nil && b.v.identifiers[n.Type()] {
			return []Declaration{{Name: n.Content(src), Kind: kind, Node: n}}
		}
		return nil
	}

	var decls []Declaration
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() != b.v.declarator {
			continue
		}
		if n := b.NameNode(child); n != nil {
			decls = append(decls, Declaration{Name: n.Content(src), Kind: kind, Node: n})
		}
	}
	return decls
}

// ScopeDeclarations lists declarations directly owned by scope, without
// descending into nested scopes. Method-like scopes contribute their
// parameters; loop headers contribute their loop variable.
func (b *javalike) ScopeDeclarations(scope *sitter.Node, src []byte) []Declaration {
	var decls []Declaration

	if b.v.methodDecls[scope.Type()] {
		decls = append(decls, b.parameterDecls(scope, src)...)
		return decls
	}

	if b.v.forEachDecls[scope.Type()] {
		if n := b.NameNode(scope); n != nil && b.v.identifiers[n.Type()] {
			decls = append(decls, Declaration{Name: n.Content(src), Kind: VariableDeclaration, Node: n})
		}
	}

	for i := 0; i < int(scope.NamedChildCount()); i++ {
		child := scope.NamedChild(i)
		ct := child.Type()
		switch {
		case b.v.localDecls[ct], b.v.fieldDecls[ct]:
			decls = append(decls, b.declaredNames(child, src)...)
		case b.v.paramDecls[ct]:
			if n := b.NameNode(child); n != nil && b.v.identifiers[n.Type()] {
				decls = append(decls, Declaration{Name: n.Content(src), Kind: ParameterDeclaration, Node: n})
			}
		case b.v.declarator != "" && ct == b.v.declarator:
			// loop headers can hold a bare declarator ("for (x in xs)")
			if n := b.NameNode(child); n != nil && b.v.identifiers[n.Type()] {
				decls = append(decls, Declaration{Name: n.Content(src), Kind: VariableDeclaration, Node: n})
			}
		case ct == b.v.enumConstant:
			if n := b.NameNode(child); n != nil {
				decls = append(decls, Declaration{Name: n.Content(src), Kind: FieldDeclaration, Node: n})
			}
		}
	}
	return decls
}

func (b *javalike) parameterDecls(methodDecl *sitter.Node, src []byte) []Declaration {
	params := b.parameterList(methodDecl)
	if params == nil {
		return nil
	}
	var decls []Declaration
	walk(params, func(n *sitter.Node) bool {
		if b.v.paramDecls[n.Type()] {
			if name := b.NameNode(n); name != nil && b.v.identifiers[name.Type()] {
				decls = append(decls, Declaration{Name: name.Content(src), Kind: ParameterDeclaration, Node: name})
			}
			return false
		}
		return true
	})
	return decls
}

func (b *javalike) parameterList(methodDecl *sitter.Node) *sitter.Node {
	if b.v.paramsField != "" {
		if params := methodDecl.ChildByFieldName(b.v.paramsField); params != nil {
			return params
		}
	}
	if b.v.paramsNode != "" {
		for i := 0; i < int(methodDecl.NamedChildCount()); i++ {
			if methodDecl.NamedChild(i).Type() == b.v.paramsNode {
				return methodDecl.NamedChild(i)
			}
		}
	}
	return nil
}

func (b *javalike) ParameterCount(decl *sitter.Node) int {
	params := b.parameterList(decl)
	if params == nil {
		return 0
	}
	count := 0
	walk(params, func(n *sitter.Node) bool {
		if b.v.paramDecls[n.Type()] {
			count++
			return false
		}
		return true
	})
	return count
}

// DeclaredTypeName returns the declared type of a variable, field, or
// parameter name node (or its declaration node), stripped of generics and
// array suffixes. Initializers of the form "new Foo(...)" infer Foo when no
// explicit type exists.
func (b *javalike) DeclaredTypeName(decl *sitter.Node, src []byte) string {
	node := decl
	// accept either the name identifier or the declaration itself
	if b.v.identifiers[node.Type()] && node.Parent() != nil {
		node = node.Parent()
	}

	// explicit types win over initializer inference
	for _, useValue := range []bool{false, true} {
		for anc := node; anc != nil; anc = anc.Parent() {
			if !useValue && b.v.typeField != "" {
				if typeNode := anc.ChildByFieldName(b.v.typeField); typeNode != nil {
					if name := cleanTypeName(typeNode.Content(src)); name != "" && !inferredTypeKeyword(name) {
						return name
					}
				}
			}
			if useValue && b.v.valueField != "" {
				if value := anc.ChildByFieldName(b.v.valueField); value != nil {
					if name := b.constructedTypeName(value, src); name != "" {
						return name
					}
				}
			}
			t := anc.Type()
			if b.v.localDecls[t] || b.v.fieldDecls[t] || b.v.paramDecls[t] || b.v.forEachDecls[t] {
				// reached the declaration statement
				break
			}
			if t != b.v.declarator && !b.v.identifiers[t] {
				break
			}
		}
	}
	return ""
}

// constructedTypeName extracts Foo from a "new Foo(...)"-style initializer.
func (b *javalike) constructedTypeName(value *sitter.Node, src []byte) string {
	if b.v.typeField != "" {
		if typeNode := value.ChildByFieldName(b.v.typeField); typeNode != nil {
			return cleanTypeName(typeNode.Content(src))
		}
	}
	return ""
}

// inferredTypeKeyword reports whether a "type" is really an inference
// keyword, so initializer inference should run instead.
func inferredTypeKeyword(name string) bool {
	switch name {
	case "var", "def", "val", "final":
		return true
	}
	return false
}

// cleanTypeName strips generics and array suffixes from a type expression.
func cleanTypeName(name string) string {
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(strings.TrimSpace(name), "[]")
	return strings.TrimSpace(name)
}

func (b *javalike) TypeAliasTarget(root *sitter.Node, src []byte, name string) (string, bool) {
	return "", false
}

// PackageName extracts the declared package from the file header.
func (b *javalike) PackageName(root *sitter.Node, src []byte) string {
	var pkg string
	walk(root, func(n *sitter.Node) bool {
		if pkg != "" {
			return false
		}
		if n.Type() == b.v.packageNode {
			text := strings.TrimSpace(n.Content(src))
			text = strings.TrimPrefix(text, "package")
			text = strings.TrimSuffix(strings.TrimSpace(text), ";")
			pkg = strings.TrimSpace(text)
			return false
		}
		// package headers only appear near the top
		return n.Type() == root.Type() || n.Type() == "import_list"
	})
	return pkg
}

// Imports extracts the file's import statements. The textual form is shared
// by all three languages; Kotlin aliases are handled here too.
func (b *javalike) Imports(root *sitter.Node, src []byte) []Import {
	var imports []Import
	walk(root, func(n *sitter.Node) bool {
		if n.Type() == b.v.importNode {
			imports = append(imports, parseImportText(n.Content(src)))
			return false
		}
		return n.Type() == root.Type() || n.Type() == "import_list"
	})
	return imports
}

func parseImportText(text string) Import {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(strings.TrimPrefix(s, "import"))

	imp := Import{}
	if strings.HasPrefix(s, "static ") {
		imp.Static = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "static"))
	}
	if idx := strings.Index(s, " as "); idx >= 0 {
		imp.Alias = strings.TrimSpace(s[idx+4:])
		s = strings.TrimSpace(s[:idx])
	}
	if strings.HasSuffix(s, ".*") {
		imp.Wildcard = true
		s = strings.TrimSuffix(s, ".*")
	}
	imp.Path = s
	return imp
}

// TopLevelTypes lists every type declaration in the file with its supertype
// simple names.
func (b *javalike) TopLevelTypes(root *sitter.Node, src []byte) []TypeDecl {
	var types []TypeDecl
	walk(root, func(n *sitter.Node) bool {
		kind, ok := b.v.typeDecls[n.Type()]
		if !ok {
			return true
		}
		name := b.declName(n, src)
		if name == "" {
			return true
		}
		types = append(types, TypeDecl{
			Name:       name,
			Kind:       b.refineTypeKind(n, kind, src),
			Node:       n,
			SuperTypes: b.superTypeNames(n, src),
		})
		return true // nested types are indexed too
	})
	return types
}

// refineTypeKind lets grammars that fold interface/enum into one node type
// report the precise kind; without a hook the vocabulary's kind stands.
func (b *javalike) refineTypeKind(decl *sitter.Node, kind SymbolKind, src []byte) SymbolKind {
	if b.kindHook != nil {
		return b.kindHook(decl, kind, src)
	}
	return kind
}

// superTypeNames collects the simple names referenced by extends/implements
// clauses of a type declaration.
func (b *javalike) superTypeNames(decl *sitter.Node, src []byte) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if !b.v.superClause(child.Type()) {
			continue
		}
		walk(child, func(n *sitter.Node) bool {
			if b.v.typeIdents[n.Type()] {
				name := lastSegment(cleanTypeName(n.Content(src)))
				if name != "" && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
				return false
			}
			return true
		})
	}
	return names
}

func (v *vocabulary) superClause(nodeType string) bool {
	return v.superClauses[nodeType]
}
