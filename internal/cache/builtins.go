package cache

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"javelin/internal/logging"
)

// builtinManifest maps platform-class FQNs to their entry inside a JDK
// sources archive (src.zip layout, module-prefixed).
//
//go:embed builtins.yaml
var builtinManifest []byte

func builtinEntries(logger *logging.Logger) map[string]string {
	entries := make(map[string]string)
	if err := yaml.Unmarshal(builtinManifest, &entries); err != nil {
		logger.Error("Builtin class manifest is unreadable", map[string]interface{}{
			"error": err.Error(),
		})
		return map[string]string{}
	}
	return entries
}
