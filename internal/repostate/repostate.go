// Package repostate computes the repository fingerprint used to decide
// whether the persisted symbol cache is stale.
package repostate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// manifestNames are the dependency manifests whose contents feed the
// fingerprint hash. A change to any of them invalidates the cache.
var manifestNames = []string{
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"settings.gradle",
	"settings.gradle.kts",
	filepath.Join("gradle", "libs.versions.toml"),
}

// Fingerprint identifies the repository state at the time the cache was
// flushed. It is computed once at startup and never mid-session.
type Fingerprint struct {
	HeadCommit   string `json:"headCommit"`
	Branch       string `json:"branch"`
	ManifestHash string `json:"manifestHash"`
}

// Compute derives the current fingerprint for a workspace root. Git values
// are empty (not an error) outside a git repository, so a plain directory
// still gets manifest-hash staleness checking.
func Compute(root string) Fingerprint {
	return Fingerprint{
		HeadCommit:   gitOutput(root, "rev-parse", "HEAD"),
		Branch:       gitOutput(root, "rev-parse", "--abbrev-ref", "HEAD"),
		ManifestHash: HashManifests(root),
	}
}

// Equal reports whether two fingerprints match in every field.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.HeadCommit == other.HeadCommit &&
		f.Branch == other.Branch &&
		f.ManifestHash == other.ManifestHash
}

// HashManifests hashes the contents of every dependency manifest found under
// root, in sorted path order so the result is stable. Missing files are
// skipped; a workspace without manifests hashes to the empty-input digest.
func HashManifests(root string) string {
	var paths []string
	for _, name := range manifestNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	// Sub-project manifests one level down participate too: the workspace
	// cache covers them.
	entries, err := os.ReadDir(root)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			for _, name := range manifestNames {
				p := filepath.Join(root, e.Name(), name)
				if _, err := os.Stat(p); err == nil {
					paths = append(paths, p)
				}
			}
		}
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// gitOutput runs a git subcommand in root and returns its trimmed stdout,
// or "" on any failure.
func gitOutput(root string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
