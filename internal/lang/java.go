package lang

import (
	"github.com/smacker/go-tree-sitter/java"
)

// NewJava returns the Java language adapter.
func NewJava() Adapter {
	return &javalike{
		name:   "java",
		exts:   []string{".java"},
		tsLang: java.GetLanguage(),
		v: vocabulary{
			typeDecls: map[string]SymbolKind{
				"class_declaration":           ClassDeclaration,
				"record_declaration":          ClassDeclaration,
				"interface_declaration":       InterfaceDeclaration,
				"annotation_type_declaration": InterfaceDeclaration,
				"enum_declaration":            EnumDeclaration,
			},
			methodDecls: map[string]bool{
				"method_declaration":              true,
				"constructor_declaration":         true,
				"compact_constructor_declaration": true,
			},
			fieldDecls: map[string]bool{
				"field_declaration":    true,
				"constant_declaration": true,
			},
			localDecls: map[string]bool{
				"local_variable_declaration": true,
			},
			paramDecls: map[string]bool{
				"formal_parameter":       true,
				"spread_parameter":       true,
				"catch_formal_parameter": true,
			},
			declarator:   "variable_declarator",
			enumConstant: "enum_constant",
			identifiers: map[string]bool{
				"identifier":      true,
				"type_identifier": true,
			},
			typeIdents: map[string]bool{
				"type_identifier":        true,
				"scoped_type_identifier": true,
				"generic_type":           true,
			},
			callNodes: map[string]bool{
				"method_invocation":          true,
				"object_creation_expression": true,
			},
			accessNodes: map[string]bool{
				"field_access": true,
			},
			scopes: map[string]bool{
				"block":              true,
				"class_body":         true,
				"interface_body":     true,
				"enum_body":          true,
				"program":            true,
				"lambda_expression":  true,
				"for_statement":      true,
				"catch_clause":       true,
				"static_initializer": true,
			},
			forEachDecls: map[string]bool{
				"enhanced_for_statement": true,
			},
			importNode:  "import_declaration",
			packageNode: "package_declaration",
			superClauses: map[string]bool{
				"superclass":         true,
				"super_interfaces":   true,
				"extends_interfaces": true,
			},
			nameField:   "name",
			objectField: "object",
			memberField: "field",
			typeField:   "type",
			argsField:   "arguments",
			paramsField: "parameters",
			valueField:  "value",
			argsNode:    "argument_list",
			paramsNode:  "formal_parameters",
		},
		implicit: []string{"java.lang"},
	}
}
