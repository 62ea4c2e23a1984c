package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func parseJava(t *testing.T, src string) (Adapter, *sitter.Node, []byte) {
	t.Helper()
	adapter := NewJava()
	tree, err := adapter.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return adapter, tree.RootNode(), []byte(src)
}

// ident returns the n-th identifier node with the given text.
func ident(t *testing.T, a Adapter, root *sitter.Node, src []byte, name string, n int) *sitter.Node {
	t.Helper()
	nodes := a.FindIdentifiers(root, src, name)
	if len(nodes) <= n {
		t.Fatalf("wanted occurrence %d of %q, found %d", n, name, len(nodes))
	}
	return nodes[n]
}

func TestClassifyJava(t *testing.T) {
	src := `package com.example;

class Account {
    int balance;

    int deposit(int amount) {
        int updated = balance + amount;
        balance = updated;
        return balance;
    }

    void close() {
        deposit(0);
    }
}
`
	adapter, root, source := parseJava(t, src)

	tests := []struct {
		name string
		nth  int
		want SymbolKind
	}{
		{"Account", 0, ClassDeclaration},
		{"balance", 0, FieldDeclaration},
		{"deposit", 0, MethodDeclaration},
		{"amount", 0, ParameterDeclaration},
		{"updated", 0, VariableDeclaration},
		{"deposit", 1, MethodCall},
		{"balance", 1, FieldUsage}, // usage inside the expression
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := ident(t, adapter, root, source, tt.name, tt.nth)
			if got := adapter.Classify(node, source); got != tt.want {
				t.Errorf("Classify(%q #%d) = %v, want %v", tt.name, tt.nth, got, tt.want)
			}
		})
	}
}

func TestClassifyInterfaceAndEnum(t *testing.T) {
	src := `interface Runner {}
enum Color { RED, GREEN }
`
	adapter, root, source := parseJava(t, src)

	if got := adapter.Classify(ident(t, adapter, root, source, "Runner", 0), source); got != InterfaceDeclaration {
		t.Errorf("Runner = %v, want interface-declaration", got)
	}
	if got := adapter.Classify(ident(t, adapter, root, source, "Color", 0), source); got != EnumDeclaration {
		t.Errorf("Color = %v, want enum-declaration", got)
	}
}

func TestStaticMemberContext(t *testing.T) {
	src := `class Calc {
    int f() {
        return Math.max(1, 2);
    }
}
`
	adapter, root, source := parseJava(t, src)

	t.Run("clicking the member", func(t *testing.T) {
		maxNode := ident(t, adapter, root, source, "max", 0)
		mc, ok := adapter.StaticMemberContext(maxNode, source)
		if !ok {
			t.Fatal("expected a static member context for max")
		}
		if mc.Receiver != "Math" || mc.Member != "max" {
			t.Errorf("got (%q, %q), want (Math, max)", mc.Receiver, mc.Member)
		}
	})

	t.Run("clicking the receiver falls through", func(t *testing.T) {
		mathNode := ident(t, adapter, root, source, "Math", 0)
		if _, ok := adapter.StaticMemberContext(mathNode, source); ok {
			t.Error("clicking the receiver must not produce a member context")
		}
	})

	t.Run("no instance context for an uppercase receiver", func(t *testing.T) {
		maxNode := ident(t, adapter, root, source, "max", 0)
		if _, ok := adapter.InstanceMemberContext(maxNode, source); ok {
			t.Error("Math.max must not look like instance access")
		}
	})
}

func TestInstanceMemberContext(t *testing.T) {
	src := `class Caller {
    void go(Worker worker) {
        worker.run(1);
    }
}
`
	adapter, root, source := parseJava(t, src)

	runNode := ident(t, adapter, root, source, "run", 0)
	mc, ok := adapter.InstanceMemberContext(runNode, source)
	if !ok {
		t.Fatal("expected an instance member context for run")
	}
	if mc.Receiver != "worker" || mc.Member != "run" {
		t.Errorf("got (%q, %q), want (worker, run)", mc.Receiver, mc.Member)
	}
	if _, ok := adapter.StaticMemberContext(runNode, source); ok {
		t.Error("worker.run must not look like static access")
	}
}

func TestStaticFieldAccess(t *testing.T) {
	src := `class C {
    double p() {
        return Math.PI;
    }
}
`
	adapter, root, source := parseJava(t, src)

	piNode := ident(t, adapter, root, source, "PI", 0)
	mc, ok := adapter.StaticMemberContext(piNode, source)
	if !ok {
		t.Fatal("expected a static member context for PI")
	}
	if mc.Receiver != "Math" || mc.Member != "PI" {
		t.Errorf("got (%q, %q), want (Math, PI)", mc.Receiver, mc.Member)
	}
}

func TestCallSignature(t *testing.T) {
	src := `class C {
    void f(Worker w) {
        w.process(1, "x");
        w.reset();
    }
}
`
	adapter, root, source := parseJava(t, src)

	sig, ok := adapter.CallSignature(ident(t, adapter, root, source, "process", 0), source)
	if !ok {
		t.Fatal("expected a call signature for process")
	}
	if sig.ArgCount != 2 {
		t.Errorf("ArgCount = %d, want 2", sig.ArgCount)
	}
	if len(sig.ArgTypes) != 2 || sig.ArgTypes[0] != "int" || sig.ArgTypes[1] != "String" {
		t.Errorf("ArgTypes = %v, want [int String]", sig.ArgTypes)
	}

	sig, ok = adapter.CallSignature(ident(t, adapter, root, source, "reset", 0), source)
	if !ok {
		t.Fatal("expected a call signature for reset")
	}
	if sig.ArgCount != 0 {
		t.Errorf("ArgCount = %d, want 0", sig.ArgCount)
	}
}

func TestFindMethodsAndParameterCount(t *testing.T) {
	src := `class Jobs {
    void process() {}
    void process(int a) {}
    void process(int a, int b) {}
    void other() {}
}
`
	adapter, root, source := parseJava(t, src)

	methods := adapter.FindMethods(root, source, "process")
	if len(methods) != 3 {
		t.Fatalf("found %d process declarations, want 3", len(methods))
	}
	counts := make(map[int]bool)
	for _, m := range methods {
		counts[adapter.ParameterCount(m)] = true
	}
	for want := 0; want <= 2; want++ {
		if !counts[want] {
			t.Errorf("missing overload with %d parameters", want)
		}
	}
}

func TestFindTypeAndFieldAndEnumConstant(t *testing.T) {
	src := `class Holder {
    static final int LIMIT = 10;
}
enum State { OPEN, CLOSED }
`
	adapter, root, source := parseJava(t, src)

	if adapter.FindType(root, source, "Holder") == nil {
		t.Error("FindType should locate Holder")
	}
	if adapter.FindType(root, source, "Missing") != nil {
		t.Error("FindType should miss Missing")
	}
	field := adapter.FindField(root, source, "LIMIT")
	if field == nil {
		t.Error("FindField should locate LIMIT")
	}
	if adapter.FindEnumConstant(root, source, "CLOSED") == nil {
		t.Error("FindEnumConstant should locate CLOSED")
	}
}

func TestImportsAndPackage(t *testing.T) {
	src := `package com.example.app;

import java.util.List;
import java.util.concurrent.*;
import static java.lang.Math.max;

class C {}
`
	adapter, root, source := parseJava(t, src)

	if pkg := adapter.PackageName(root, source); pkg != "com.example.app" {
		t.Errorf("PackageName = %q", pkg)
	}

	imports := adapter.Imports(root, source)
	if len(imports) != 3 {
		t.Fatalf("got %d imports, want 3: %+v", len(imports), imports)
	}
	if imports[0].Path != "java.util.List" || imports[0].Wildcard || imports[0].Static {
		t.Errorf("explicit import parsed wrong: %+v", imports[0])
	}
	if imports[1].Path != "java.util.concurrent" || !imports[1].Wildcard {
		t.Errorf("wildcard import parsed wrong: %+v", imports[1])
	}
	if imports[2].Path != "java.lang.Math.max" || !imports[2].Static {
		t.Errorf("static import parsed wrong: %+v", imports[2])
	}
}

func TestTopLevelTypes(t *testing.T) {
	src := `package p;

class Base {}
interface Marker {}
class Derived extends Base implements Marker {}
`
	adapter, root, source := parseJava(t, src)

	types := adapter.TopLevelTypes(root, source)
	if len(types) != 3 {
		t.Fatalf("got %d types, want 3", len(types))
	}

	byName := make(map[string]TypeDecl)
	for _, td := range types {
		byName[td.Name] = td
	}
	if byName["Base"].Kind != ClassDeclaration {
		t.Errorf("Base kind = %v", byName["Base"].Kind)
	}
	if byName["Marker"].Kind != InterfaceDeclaration {
		t.Errorf("Marker kind = %v", byName["Marker"].Kind)
	}

	supers := byName["Derived"].SuperTypes
	found := map[string]bool{}
	for _, s := range supers {
		found[s] = true
	}
	if !found["Base"] || !found["Marker"] {
		t.Errorf("Derived supertypes = %v, want Base and Marker", supers)
	}
}

func TestDeclaredTypeName(t *testing.T) {
	src := `class C {
    Worker field;
    void m(Helper helper) {
        Foo foo = new Foo();
        var bar = new Bar();
        java.util.List<String> names = null;
    }
}
`
	adapter, root, source := parseJava(t, src)

	tests := []struct {
		ident string
		nth   int
		want  string
	}{
		{"field", 0, "Worker"},
		{"helper", 0, "Helper"},
		{"foo", 0, "Foo"},
		{"bar", 0, "Bar"},
		{"names", 0, "java.util.List"},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			node := ident(t, adapter, root, source, tt.ident, tt.nth)
			if got := adapter.DeclaredTypeName(node, source); got != tt.want {
				t.Errorf("DeclaredTypeName(%q) = %q, want %q", tt.ident, got, tt.want)
			}
		})
	}
}

func TestScopeDeclarations(t *testing.T) {
	src := `class C {
    void m(int param) {
        int outer = 1;
        {
            int inner = 2;
        }
    }
}
`
	adapter, root, source := parseJava(t, src)

	// the method scope owns its parameters
	methods := adapter.FindMethods(root, source, "m")
	if len(methods) != 1 {
		t.Fatalf("expected one method m")
	}
	decls := adapter.ScopeDeclarations(methods[0], source)
	if len(decls) != 1 || decls[0].Name != "param" || decls[0].Kind != ParameterDeclaration {
		t.Errorf("method scope decls = %+v, want [param]", decls)
	}

	// the outer block owns outer but not inner
	outerNode := ident(t, adapter, root, source, "outer", 0)
	var block *sitter.Node
	for anc := outerNode.Parent(); anc != nil; anc = anc.Parent() {
		if anc.Type() == "block" {
			block = anc
			break
		}
	}
	if block == nil {
		t.Fatal("no enclosing block found")
	}
	decls = adapter.ScopeDeclarations(block, source)
	names := map[string]bool{}
	for _, d := range decls {
		names[d.Name] = true
	}
	if !names["outer"] {
		t.Error("outer block should declare outer")
	}
	if names["inner"] {
		t.Error("outer block must not own the nested block's declaration")
	}
}
