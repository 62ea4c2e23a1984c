package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// kotlinAdapter wraps the shared base with Kotlin's structural differences:
// one class_declaration node for classes, interfaces, and enums; navigation
// expressions instead of field accesses; type aliases; and colon-annotated
// declared types without a grammar field.
type kotlinAdapter struct {
	javalike
}

// NewKotlin returns the Kotlin language adapter.
func NewKotlin() Adapter {
	a := &kotlinAdapter{javalike{
		name:   "kotlin",
		exts:   []string{".kt", ".kts"},
		tsLang: kotlin.GetLanguage(),
		v: vocabulary{
			typeDecls: map[string]SymbolKind{
				"class_declaration":  ClassDeclaration,
				"object_declaration": ClassDeclaration,
			},
			methodDecls: map[string]bool{
				"function_declaration":  true,
				"secondary_constructor": true,
				"primary_constructor":   true,
			},
			fieldDecls: map[string]bool{
				"property_declaration": true,
			},
			localDecls: map[string]bool{
				"property_declaration": true,
			},
			paramDecls: map[string]bool{
				"parameter":       true,
				"class_parameter": true,
			},
			declarator:   "variable_declaration",
			enumConstant: "enum_entry",
			identifiers: map[string]bool{
				"simple_identifier": true,
				"type_identifier":   true,
			},
			typeIdents: map[string]bool{
				"type_identifier": true,
				"user_type":       true,
			},
			callNodes: map[string]bool{
				"call_expression":        true,
				"constructor_invocation": true,
			},
			accessNodes: map[string]bool{},
			scopes: map[string]bool{
				"function_body":          true,
				"class_body":             true,
				"enum_class_body":        true,
				"statements":             true,
				"control_structure_body": true,
				"lambda_literal":         true,
				"source_file":            true,
				"for_statement":          true,
				"when_expression":        true,
			},
			forEachDecls: map[string]bool{},
			importNode:   "import_header",
			packageNode:  "package_header",
			superClauses: map[string]bool{
				"delegation_specifier":   true,
				"constructor_invocation": true,
			},
			nameField:   "",
			objectField: "",
			memberField: "",
			typeField:   "",
			argsField:   "",
			paramsField: "",
			argsNode:    "value_arguments",
			paramsNode:  "function_value_parameters",
		},
		// Kotlin default imports, per the language specification.
		implicit: []string{
			"kotlin", "kotlin.annotation", "kotlin.collections",
			"kotlin.comparisons", "kotlin.io", "kotlin.ranges",
			"kotlin.sequences", "kotlin.text", "kotlin.jvm",
			"java.lang",
		},
	}}
	a.kindHook = a.classKind
	return a
}

// classKind inspects the declaration's leading tokens to decide whether a
// class_declaration is actually an interface or enum.
func (k *kotlinAdapter) classKind(decl *sitter.Node, kind SymbolKind, src []byte) SymbolKind {
	if decl.Type() != "class_declaration" {
		return kind
	}
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		switch child.Type() {
		case "interface":
			return InterfaceDeclaration
		case "modifiers":
			if strings.Contains(child.Content(src), "enum") {
				return EnumDeclaration
			}
		case "class_body", "enum_class_body":
			return kind
		}
	}
	return kind
}

func (k *kotlinAdapter) StaticMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return k.navigationContext(node, src, LikelyType)
}

func (k *kotlinAdapter) InstanceMemberContext(node *sitter.Node, src []byte) (MemberContext, bool) {
	return k.navigationContext(node, src, LikelyInstance)
}

// navigationContext extracts (receiver, member) from a navigation
// expression. The clicked node must be the suffix identifier; clicking the
// receiver reports false so class resolution handles it.
func (k *kotlinAdapter) navigationContext(node *sitter.Node, src []byte, want NameStyle) (MemberContext, bool) {
	parent := node.Parent()
	if parent == nil || parent.Type() != "navigation_suffix" {
		return MemberContext{}, false
	}
	nav := parent.Parent()
	if nav == nil || nav.Type() != "navigation_expression" {
		return MemberContext{}, false
	}
	receiver := nav.NamedChild(0)
	if receiver == nil || sameNode(receiver, node) {
		return MemberContext{}, false
	}
	recv := receiver.Content(src)
	if k.NameStyle(firstSegment(recv)) != want {
		return MemberContext{}, false
	}
	return MemberContext{Receiver: recv, Member: node.Content(src)}, true
}

// DeclaredTypeName handles Kotlin's ": Type" annotations, which the grammar
// keeps as user_type children without a field, and "= Foo(...)" constructor
// inference.
func (k *kotlinAdapter) DeclaredTypeName(decl *sitter.Node, src []byte) string {
	node := decl
	if k.v.identifiers[node.Type()] && node.Parent() != nil {
		node = node.Parent()
	}
	for anc := node; anc != nil; anc = anc.Parent() {
		for i := 0; i < int(anc.NamedChildCount()); i++ {
			child := anc.NamedChild(i)
			if child.Type() == "user_type" {
				return cleanTypeName(child.Content(src))
			}
			if child.Type() == "call_expression" {
				if name := constructorCallee(child, src); name != "" {
					return name
				}
			}
		}
		t := anc.Type()
		if k.v.localDecls[t] || k.v.paramDecls[t] || t == "variable_declaration" {
			if t != "variable_declaration" {
				break
			}
			continue
		}
		break
	}
	return ""
}

// constructorCallee returns Foo for "Foo(...)" when Foo is type-styled.
func constructorCallee(call *sitter.Node, src []byte) string {
	callee := call.NamedChild(0)
	if callee == nil || callee.Type() != "simple_identifier" {
		return ""
	}
	name := callee.Content(src)
	if StyleOf(name) != LikelyType {
		return ""
	}
	return name
}

// TypeAliasTarget resolves "typealias Name = Target".
func (k *kotlinAdapter) TypeAliasTarget(root *sitter.Node, src []byte, name string) (string, bool) {
	var target string
	walk(root, func(n *sitter.Node) bool {
		if target != "" {
			return false
		}
		if n.Type() != "type_alias" {
			return true
		}
		var aliasName, aliasTarget string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "type_identifier", "simple_identifier":
				if aliasName == "" {
					aliasName = child.Content(src)
				}
			case "user_type":
				aliasTarget = cleanTypeName(child.Content(src))
			}
		}
		if aliasName == name && aliasTarget != "" {
			target = aliasTarget
			return false
		}
		return true
	})
	return target, target != ""
}
