// Package project discovers JVM build units in a workspace: project roots by
// their build manifests, inter-project dependencies from Gradle project()
// references, and external dependency coordinates from dependency blocks and
// the Gradle version catalog.
package project

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// manifestMarkers mark a directory as a JVM project root, in priority order.
var manifestMarkers = []string{
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"settings.gradle",
	"settings.gradle.kts",
}

// Project is one discovered build unit.
type Project struct {
	// Root is the project directory, absolute.
	Root string
	// Name is the directory base name, which Gradle project references use.
	Name string
	// ManifestPath is the marker that identified the project, relative to Root.
	ManifestPath string
}

// Discover finds project roots: the workspace root itself when marked, plus
// direct subdirectories carrying a manifest. Deeper nesting is out of scope,
// matching the fingerprint's manifest hashing depth.
func Discover(workspaceRoot string) ([]Project, error) {
	var projects []Project
	if manifest, ok := manifestIn(workspaceRoot); ok {
		projects = append(projects, Project{
			Root:         workspaceRoot,
			Name:         filepath.Base(workspaceRoot),
			ManifestPath: manifest,
		})
	}

	entries, err := os.ReadDir(workspaceRoot)
	if err != nil {
		return projects, err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		sub := filepath.Join(workspaceRoot, entry.Name())
		if manifest, ok := manifestIn(sub); ok {
			projects = append(projects, Project{
				Root:         sub,
				Name:         entry.Name(),
				ManifestPath: manifest,
			})
		}
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Root < projects[j].Root })
	return projects, nil
}

func manifestIn(dir string) (string, bool) {
	for _, marker := range manifestMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return marker, true
		}
	}
	return "", false
}

// projectRefPattern matches Gradle inter-project references:
// project(':lib'), project(":common:util"), project('lib').
var projectRefPattern = regexp.MustCompile(`project\(\s*['"]:?([\w:.-]+)['"]\s*\)`)

// InterProjectDeps returns the names of sibling projects a project's build
// scripts reference. Maven modules are out of scope; only Gradle project()
// references are recognized.
func InterProjectDeps(p Project) []string {
	var deps []string
	seen := make(map[string]bool)
	for _, script := range []string{"build.gradle", "build.gradle.kts"} {
		data, err := os.ReadFile(filepath.Join(p.Root, script))
		if err != nil {
			continue
		}
		for _, m := range projectRefPattern.FindAllStringSubmatch(string(data), -1) {
			// ":common:util" refers to the last path element's directory
			name := m[1]
			if idx := strings.LastIndex(name, ":"); idx >= 0 {
				name = name[idx+1:]
			}
			if name != "" && name != p.Name && !seen[name] {
				seen[name] = true
				deps = append(deps, name)
			}
		}
	}
	return deps
}

// coordinatePattern matches quoted group:artifact:version dependency
// notations inside Gradle dependency blocks.
var coordinatePattern = regexp.MustCompile(`['"]([\w.-]+:[\w.-]+:[\w.+-]+)['"]`)

// ExternalCoordinates collects a project's external dependency coordinates
// from its Gradle scripts and the workspace version catalog. Results are
// sorted and deduplicated.
func ExternalCoordinates(workspaceRoot string, p Project) []string {
	seen := make(map[string]bool)
	for _, script := range []string{"build.gradle", "build.gradle.kts"} {
		data, err := os.ReadFile(filepath.Join(p.Root, script))
		if err != nil {
			continue
		}
		for _, m := range coordinatePattern.FindAllStringSubmatch(string(data), -1) {
			seen[m[1]] = true
		}
	}
	for _, coord := range CatalogCoordinates(workspaceRoot) {
		seen[coord] = true
	}

	coords := make([]string, 0, len(seen))
	for coord := range seen {
		coords = append(coords, coord)
	}
	sort.Strings(coords)
	return coords
}
