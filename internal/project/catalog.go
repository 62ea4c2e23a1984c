package project

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// versionCatalog is the subset of Gradle's libs.versions.toml format needed
// to turn library aliases into coordinates.
type versionCatalog struct {
	Versions  map[string]string         `toml:"versions"`
	Libraries map[string]catalogLibrary `toml:"libraries"`
}

type catalogLibrary struct {
	Module  string      `toml:"module"`
	Group   string      `toml:"group"`
	Name    string      `toml:"name"`
	Version interface{} `toml:"version"`
}

// CatalogCoordinates reads gradle/libs.versions.toml under the workspace
// root and returns the declared coordinates as group:artifact:version
// strings. A missing or unreadable catalog yields nil.
func CatalogCoordinates(workspaceRoot string) []string {
	data, err := os.ReadFile(filepath.Join(workspaceRoot, "gradle", "libs.versions.toml"))
	if err != nil {
		return nil
	}

	var catalog versionCatalog
	if err := toml.Unmarshal(data, &catalog); err != nil {
		return nil
	}

	var coords []string
	for _, lib := range catalog.Libraries {
		module := lib.Module
		if module == "" {
			if lib.Group == "" || lib.Name == "" {
				continue
			}
			module = lib.Group + ":" + lib.Name
		}
		version := resolveVersion(lib.Version, catalog.Versions)
		if version == "" {
			continue
		}
		coords = append(coords, module+":"+version)
	}
	sort.Strings(coords)
	return coords
}

// resolveVersion handles both literal versions and { ref = "alias" } tables.
func resolveVersion(raw interface{}, versions map[string]string) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]interface{}:
		if ref, ok := v["ref"].(string); ok {
			return versions[ref]
		}
	}
	return ""
}
