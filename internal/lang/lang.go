// Package lang defines the capability interface each supported language
// implements, plus the shared symbol vocabulary. The resolution cascade is
// written once against Adapter; everything language-specific about syntax
// tree shapes lives behind it.
package lang

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// SymbolKind classifies what a syntax node at the cursor represents.
type SymbolKind uint8

const (
	Unknown SymbolKind = iota
	VariableDeclaration
	VariableUsage
	FieldDeclaration
	FieldUsage
	MethodDeclaration
	MethodCall
	ClassDeclaration
	ClassUsage
	InterfaceDeclaration
	EnumDeclaration
	ParameterDeclaration
	PackageName
	TypeUsage
)

var kindNames = map[SymbolKind]string{
	Unknown:              "unknown",
	VariableDeclaration:  "variable-declaration",
	VariableUsage:        "variable-usage",
	FieldDeclaration:     "field-declaration",
	FieldUsage:           "field-usage",
	MethodDeclaration:    "method-declaration",
	MethodCall:           "method-call",
	ClassDeclaration:     "class-declaration",
	ClassUsage:           "class-usage",
	InterfaceDeclaration: "interface-declaration",
	EnumDeclaration:      "enum-declaration",
	ParameterDeclaration: "parameter-declaration",
	PackageName:          "package-name",
	TypeUsage:            "type-usage",
}

func (k SymbolKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsValueUsage reports whether the kind is a variable, parameter, or field
// usage, i.e. something the single-file scope resolver handles.
func (k SymbolKind) IsValueUsage() bool {
	return k == VariableUsage || k == FieldUsage || k == ParameterDeclaration
}

// Location is a position inside a source file or artifact. Line and Column
// are zero-based, matching tree-sitter points.
type Location struct {
	Path   string `json:"path"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Import is one import statement of a source file.
type Import struct {
	// Path is the imported package or type FQN, without any trailing ".*".
	Path string
	// Alias is the local name bound by "import ... as X" forms, or "".
	Alias string
	// Wildcard is true for on-demand imports (java.util.*).
	Wildcard bool
	// Static is true for static-member imports.
	Static bool
}

// Signature is the call-shape extracted from a call site, used transiently
// for overload disambiguation.
type Signature struct {
	ArgCount int
	// ArgTypes holds inferred simple type names where a literal makes the
	// type obvious; "" where inference was not attempted.
	ArgTypes []string
}

// MemberContext is the (receiver, member) pair of a qualified access.
type MemberContext struct {
	Receiver string
	Member   string
}

// Declaration is a named declaration found during scope walking.
type Declaration struct {
	Name string
	Kind SymbolKind
	Node *sitter.Node
}

// TypeDecl is a type declaration found during indexing.
type TypeDecl struct {
	Name       string
	Kind       SymbolKind // ClassDeclaration, InterfaceDeclaration, or EnumDeclaration
	Node       *sitter.Node
	SuperTypes []string // simple names from extends/implements clauses
}

// NameStyle is the result of the "looks like a type" heuristic.
type NameStyle uint8

const (
	// LikelyType means the name follows the type-name convention
	// (uppercase first letter in every supported language).
	LikelyType NameStyle = iota
	// LikelyInstance means the name follows the value-name convention.
	LikelyInstance
)

// StyleOf classifies a name by its first letter. All three supported
// languages share the Java convention, but adapters may override the
// decision via Adapter.NameStyle.
func StyleOf(name string) NameStyle {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return LikelyType
	}
	return LikelyInstance
}

// Adapter supplies everything the cascade needs to know about one language.
type Adapter interface {
	// Language returns the lowercase language name.
	Language() string
	// Extensions returns the file extensions handled, with leading dots.
	Extensions() []string
	// Parse parses source text into a syntax tree.
	Parse(ctx context.Context, src []byte) (*sitter.Tree, error)

	// Classify determines what the node at the cursor represents, by ordered
	// structural pattern matching; a bare identifier with no more specific
	// match classifies as FieldUsage.
	Classify(node *sitter.Node, src []byte) SymbolKind
	// NameStyle applies the language's type-name convention.
	NameStyle(name string) NameStyle

	// PackageName returns the file's declared package, or "".
	PackageName(root *sitter.Node, src []byte) string
	// Imports returns the file's import statements.
	Imports(root *sitter.Node, src []byte) []Import
	// ImplicitPackages lists packages imported without a statement.
	ImplicitPackages() []string

	// StaticMemberContext extracts (Receiver, Member) when the node is the
	// member part of an access whose receiver looks like a type. Clicking
	// the receiver itself reports false so class resolution handles it.
	StaticMemberContext(node *sitter.Node, src []byte) (MemberContext, bool)
	// InstanceMemberContext is the symmetric lowercase-receiver form.
	InstanceMemberContext(node *sitter.Node, src []byte) (MemberContext, bool)
	// CallSignature extracts the call shape when the node participates in a
	// call expression.
	CallSignature(node *sitter.Node, src []byte) (Signature, bool)

	// FindType finds a class/interface/enum declaration by simple name.
	FindType(root *sitter.Node, src []byte, name string) *sitter.Node
	// FindMethods finds every method or constructor declaration by name.
	FindMethods(root *sitter.Node, src []byte, name string) []*sitter.Node
	// FindField finds a field declaration by name.
	FindField(root *sitter.Node, src []byte, name string) *sitter.Node
	// FindEnumConstant finds an enum constant declaration by name.
	FindEnumConstant(root *sitter.Node, src []byte, name string) *sitter.Node
	// FindIdentifiers finds every identifier node with the given text, in
	// document order. Used for post-hoc position refinement.
	FindIdentifiers(root *sitter.Node, src []byte, name string) []*sitter.Node
	// NameNode returns the name identifier of a declaration node, or the
	// node itself when no distinct name child exists.
	NameNode(decl *sitter.Node) *sitter.Node

	// IsScope reports whether the node opens a lexical scope.
	IsScope(node *sitter.Node) bool
	// ScopeDeclarations lists declarations directly owned by a scope node,
	// without descending into nested scopes.
	ScopeDeclarations(scope *sitter.Node, src []byte) []Declaration
	// ParameterCount counts declared parameters of a method-like node.
	ParameterCount(decl *sitter.Node) int
	// DeclaredTypeName returns the declared type of a variable, field, or
	// parameter declaration, stripped of generics and array brackets.
	DeclaredTypeName(decl *sitter.Node, src []byte) string
	// TypeAliasTarget resolves a type alias by name, for languages that
	// have aliases; others always report false.
	TypeAliasTarget(root *sitter.Node, src []byte, name string) (string, bool)

	// TopLevelTypes lists the type declarations of a file, for indexing.
	TopLevelTypes(root *sitter.Node, src []byte) []TypeDecl
}

// Registry maps file extensions to language adapters.
type Registry struct {
	byExt map[string]Adapter
	all   []Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byExt: make(map[string]Adapter)}
	for _, a := range adapters {
		r.all = append(r.all, a)
		for _, ext := range a.Extensions() {
			r.byExt[ext] = a
		}
	}
	return r
}

// ForPath returns the adapter handling the given file path.
func (r *Registry) ForPath(path string) (Adapter, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return nil, false
	}
	a, ok := r.byExt[path[idx:]]
	return a, ok
}

// ForLanguage returns the adapter with the given language name.
func (r *Registry) ForLanguage(name string) (Adapter, bool) {
	for _, a := range r.all {
		if a.Language() == name {
			return a, true
		}
	}
	return nil, false
}

// All returns every registered adapter.
func (r *Registry) All() []Adapter {
	return r.all
}
