package repostate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashManifestsStable(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "build.gradle"), "dependencies { implementation 'a:b:1.0' }")

	h1 := HashManifests(tmpDir)
	h2 := HashManifests(tmpDir)
	if h1 != h2 {
		t.Errorf("hash should be deterministic: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected hex sha256, got %q", h1)
	}
}

func TestHashManifestsChangesWithContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "pom.xml")
	writeFile(t, path, "<project><dependencies/></project>")
	before := HashManifests(tmpDir)

	writeFile(t, path, "<project><dependencies><dependency/></dependencies></project>")
	after := HashManifests(tmpDir)

	if before == after {
		t.Error("manifest content change should change the hash")
	}
}

func TestHashManifestsIncludesSubProjects(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "settings.gradle"), "include ':core'")
	before := HashManifests(tmpDir)

	sub := filepath.Join(tmpDir, "core")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "build.gradle"), "dependencies {}")
	after := HashManifests(tmpDir)

	if before == after {
		t.Error("sub-project manifest should participate in the hash")
	}
}

func TestFingerprintEqual(t *testing.T) {
	a := Fingerprint{HeadCommit: "abc", Branch: "main", ManifestHash: "h1"}
	b := a
	if !a.Equal(b) {
		t.Error("identical fingerprints should be equal")
	}
	b.HeadCommit = "def"
	if a.Equal(b) {
		t.Error("commit change should break equality")
	}
	b = a
	b.Branch = "feature"
	if a.Equal(b) {
		t.Error("branch change should break equality")
	}
	b = a
	b.ManifestHash = "h2"
	if a.Equal(b) {
		t.Error("manifest hash change should break equality")
	}
}

func TestComputeOutsideGit(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "build.gradle"), "plugins {}")

	fp := Compute(tmpDir)
	if fp.ManifestHash == "" {
		t.Error("manifest hash should be computed outside a git repository")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
