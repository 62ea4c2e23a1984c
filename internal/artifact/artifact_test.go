package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"javelin/internal/errors"
	"javelin/internal/lang"
	"javelin/internal/logging"
)

func testRegistry() *lang.Registry {
	return lang.NewRegistry(lang.NewJava(), lang.NewGroovy(), lang.NewKotlin())
}

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRef(t *testing.T) {
	archive, entry := ParseRef("lib.jar!/com/example/Foo.java")
	if archive != "lib.jar" || entry != "com/example/Foo.java" {
		t.Errorf("ParseRef = (%q, %q)", archive, entry)
	}
	archive, entry = ParseRef("/src/Foo.java")
	if archive != "/src/Foo.java" || entry != "" {
		t.Errorf("plain path ParseRef = (%q, %q)", archive, entry)
	}
}

func TestFileArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.java")
	src := "class Foo { void bar() {} }"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewFile(path, testRegistry())
	content, err := a.Content()
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if content != src {
		t.Errorf("content = %q", content)
	}
	if a.Decompiled() {
		t.Error("loose file should not be decompiled")
	}

	tree, err := a.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if tree.RootNode().Type() != "program" {
		t.Errorf("root = %q", tree.RootNode().Type())
	}

	// content is cached: removing the backing file must not matter
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	again, err := a.Content()
	if err != nil || again != src {
		t.Errorf("cached Content = (%q, %v)", again, err)
	}
}

func TestFileArtifactMissing(t *testing.T) {
	a := NewFile("/nonexistent/Foo.java", testRegistry())
	_, err := a.Content()
	if errors.CodeOf(err) != errors.ArtifactUnavailable {
		t.Errorf("code = %v, want ARTIFACT_UNAVAILABLE", errors.CodeOf(err))
	}
}

func TestArchiveEntry(t *testing.T) {
	src := "package com.example;\nclass Widget {}\n"
	archive := writeArchive(t, map[string]string{
		"com/example/Widget.java": src,
		"META-INF/MANIFEST.MF":    "Manifest-Version: 1.0\n",
	})

	a := NewArchiveEntry(archive, "com/example/Widget.java", "com.example:widget:1.0", testRegistry(), nil)
	content, err := a.Content()
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if content != src {
		t.Errorf("content = %q", content)
	}
	want := archive + "!/com/example/Widget.java"
	if a.DisplayPath() != want {
		t.Errorf("DisplayPath = %q, want %q", a.DisplayPath(), want)
	}

	tree, err := a.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	adapter, _ := a.Adapter()
	types := adapter.TopLevelTypes(tree.RootNode(), []byte(content))
	if len(types) != 1 || types[0].Name != "Widget" {
		t.Errorf("top-level types = %+v", types)
	}
}

func TestArchiveEntryMissing(t *testing.T) {
	archive := writeArchive(t, map[string]string{"a.txt": "x"})
	a := NewArchiveEntry(archive, "com/example/Gone.java", "", testRegistry(), nil)
	_, err := a.Content()
	if errors.CodeOf(err) != errors.ArtifactUnavailable {
		t.Errorf("code = %v, want ARTIFACT_UNAVAILABLE", errors.CodeOf(err))
	}
}

func TestClassEntryPrefersSource(t *testing.T) {
	src := "package com.example;\npublic class Calc { public static int add(int a, int b) { return a + b; } }\n"
	archive := writeArchive(t, map[string]string{
		"com/example/Calc.class": "\xca\xfe\xba\xbe not real bytecode",
		"com/example/Calc.java":  src,
	})

	a := NewArchiveEntry(archive, "com/example/Calc.class", "", testRegistry(), nil)
	content, err := a.Content()
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if content != src {
		t.Errorf("content = %q, want sibling source", content)
	}
	if a.Decompiled() {
		t.Error("sibling source should not count as decompiled")
	}

	// class entries parse with the Java adapter even though the extension
	// is .class
	adapter, ok := a.Adapter()
	if !ok || adapter.Language() != "java" {
		t.Errorf("adapter = %v, %v", adapter, ok)
	}
}

func TestClassEntryWithoutDecompiler(t *testing.T) {
	archive := writeArchive(t, map[string]string{
		"com/example/Opaque.class": "\xca\xfe\xba\xbe",
	})
	a := NewArchiveEntry(archive, "com/example/Opaque.class", "", testRegistry(), nil)
	_, err := a.Content()
	if errors.CodeOf(err) != errors.ArtifactUnavailable {
		t.Errorf("code = %v, want ARTIFACT_UNAVAILABLE", errors.CodeOf(err))
	}
}

func TestClassEntryDecompiled(t *testing.T) {
	archive := writeArchive(t, map[string]string{
		"com/example/Opaque.class": "\xca\xfe\xba\xbe",
	})
	// "decompiler" that emits fixed Java source regardless of input
	dec := NewDecompiler([]string{"sh", "-c", "echo 'class Opaque {}' # "}, logging.Nop())
	a := NewArchiveEntry(archive, "com/example/Opaque.class", "", testRegistry(), dec)

	content, err := a.Content()
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if content != "class Opaque {}\n" {
		t.Errorf("content = %q", content)
	}
	if !a.Decompiled() {
		t.Error("Decompiled() should be true")
	}

	tree, err := a.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if tree.RootNode().Type() != "program" {
		t.Errorf("decompiled output should parse as Java, root = %q", tree.RootNode().Type())
	}
}

func TestDecompilerNotConfigured(t *testing.T) {
	dec := NewDecompiler(nil, logging.Nop())
	_, err := dec.Decompile("com/example/Foo.class", []byte{0xca, 0xfe})
	if errors.CodeOf(err) != errors.ArtifactUnavailable {
		t.Errorf("code = %v, want ARTIFACT_UNAVAILABLE", errors.CodeOf(err))
	}
}

func TestDecompilerFailure(t *testing.T) {
	dec := NewDecompiler([]string{"false"}, logging.Nop())
	_, err := dec.Decompile("com/example/Foo.class", []byte{0xca, 0xfe})
	if errors.CodeOf(err) != errors.ArtifactUnavailable {
		t.Errorf("code = %v, want ARTIFACT_UNAVAILABLE", errors.CodeOf(err))
	}
}

func TestSanitizeClassFileName(t *testing.T) {
	if got := sanitizeClassFileName("com/example/Foo.class"); got != "com.example.Foo.class" {
		t.Errorf("got %q", got)
	}
	if got := sanitizeClassFileName("Foo"); got != "Foo.class" {
		t.Errorf("got %q", got)
	}
}
