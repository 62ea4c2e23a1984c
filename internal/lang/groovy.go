package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/groovy"
)

// groovyAdapter wraps the shared base with Groovy's dotted-call shape:
// "Math.max(1, 2)" parses as a call whose function is a dotted identifier
// rather than a receiver/member pair.
type groovyAdapter struct {
	javalike
}

// NewGroovy returns the Groovy language adapter.
func NewGroovy() Adapter {
	return &groovyAdapter{javalike{
		name:   "groovy",
		exts:   []string{".groovy", ".gradle", ".gvy"},
		tsLang: groovy.GetLanguage(),
		v: vocabulary{
			typeDecls: map[string]SymbolKind{
				"class_definition":     ClassDeclaration,
				"interface_definition": InterfaceDeclaration,
				"enum_definition":      EnumDeclaration,
				"trait_definition":     ClassDeclaration,
			},
			methodDecls: map[string]bool{
				"function_definition":    true,
				"function_declaration":   true,
				"constructor_definition": true,
			},
			fieldDecls: map[string]bool{
				"field_declaration": true,
				"declaration":       true,
			},
			localDecls: map[string]bool{
				"declaration": true,
			},
			paramDecls: map[string]bool{
				"parameter": true,
			},
			declarator:   "",
			enumConstant: "enum_constant",
			identifiers: map[string]bool{
				"identifier": true,
			},
			typeIdents: map[string]bool{
				"identifier":        true,
				"dotted_identifier": true,
				"builtintype":       true,
			},
			callNodes: map[string]bool{
				"function_call":      true,
				"juxt_function_call": true,
			},
			accessNodes: map[string]bool{
				"index": true,
			},
			scopes: map[string]bool{
				"closure":       true,
				"block":         true,
				"body":          true,
				"source_file":   true,
				"for_statement": true,
				"if_statement":  true,
			},
			forEachDecls: map[string]bool{
				"for_in_loop": true,
			},
			importNode:  "import",
			packageNode: "package",
			superClauses: map[string]bool{
				"superclass":       true,
				"super_interfaces": true,
			},
			nameField:   "name",
			objectField: "object",
			memberField: "field",
			typeField:   "type",
			argsField:   "args",
			paramsField: "parameters",
			valueField:  "value",
			argsNode:    "argument_list",
			paramsNode:  "parameter_list",
		},
		// Groovy scripts see these without imports, per the GDK default set.
		implicit: []string{
			"java.lang", "java.util", "java.io", "java.net",
			"groovy.lang", "groovy.util",
			"java.math",
		},
	}}
}

func (g *groovyAdapter) StaticMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return g.dottedMemberContext(node, src, LikelyType)
}

func (g *groovyAdapter) InstanceMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return g.dottedMemberContext(node, src, LikelyInstance)
}

// dottedMemberContext first tries the field-based extraction, then falls
// back to splitting a dotted identifier at its last dot. The clicked node
// must be the member segment; clicking the receiver reports false.
func (g *groovyAdapter) dottedMemberContext(node *sitter.Node, src []byte, want NameStyle) (MemberContext, bool) {
	if mc, ok := g.memberContext(node, src, want); ok {
		return mc, true
	}

	parent := node.Parent()
	if parent == nil || parent.Type() != "dotted_identifier" {
		return MemberContext{}, false
	}
	text := parent.Content(src)
	idx := strings.LastIndexByte(text, '.')
	if idx < 0 {
		return MemberContext{}, false
	}
	receiver, member := text[:idx], text[idx+1:]
	if node.Content(src) != member {
		return MemberContext{}, false
	}
	if g.NameStyle(firstSegment(receiver)) != want {
		return MemberContext{}, false
	}
	return MemberContext{Receiver: receiver, Member: member}, true
}
