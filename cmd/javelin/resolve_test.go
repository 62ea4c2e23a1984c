package main

import (
	"path/filepath"
	"strings"
	"testing"

	"javelin/internal/cache"
	"javelin/internal/logging"
	"javelin/internal/storage"
)

func TestParsePosition(t *testing.T) {
	path, line, column, err := parsePosition("src/Foo.java:12:5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, filepath.Join("src", "Foo.java")) {
		t.Errorf("path = %q", path)
	}
	if line != 11 || column != 4 {
		t.Errorf("position = %d:%d, want zero-based 11:4", line, column)
	}
}

func TestParsePositionInvalid(t *testing.T) {
	for _, arg := range []string{"Foo.java", "Foo.java:3", "Foo.java:0:1", "Foo.java:3:x"} {
		if _, _, _, err := parsePosition(arg); err == nil {
			t.Errorf("parsePosition(%q) should fail", arg)
		}
	}
}

func TestProjectFor(t *testing.T) {
	c := cache.New(nil, logging.Nop(), cache.Options{})
	root := filepath.Join("/work", "ws")
	app := filepath.Join(root, "app")
	for _, p := range []string{root, app} {
		if err := c.PutProject(p, storage.ProjectIndex{}); err != nil {
			t.Fatal(err)
		}
	}

	got := projectFor(c, filepath.Join(app, "src", "Foo.java"), root)
	if got != app {
		t.Errorf("projectFor = %q, want deepest project %q", got, app)
	}

	got = projectFor(c, filepath.Join("/elsewhere", "Foo.java"), root)
	if got != root {
		t.Errorf("projectFor fallback = %q, want %q", got, root)
	}
}
