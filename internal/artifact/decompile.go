package artifact

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"javelin/internal/errors"
	"javelin/internal/logging"
)

// Decompiler shells out to an external class-file decompiler (CFR, Procyon,
// Fernflower). The configured argv gets the class-file path appended; the
// decompiled source is expected on stdout.
type Decompiler struct {
	argv   []string
	logger *logging.Logger
}

// NewDecompiler creates a decompiler from its argv template. An empty argv
// yields a decompiler that fails every request, which downstream code treats
// as "artifact unusable", not as a fatal condition.
func NewDecompiler(argv []string, logger *logging.Logger) *Decompiler {
	return &Decompiler{argv: argv, logger: logger}
}

// Decompile turns raw class bytes into source-like text. The binary name of
// the class is only used to name the temp file the external tool reads.
func (d *Decompiler) Decompile(binaryName string, classBytes []byte) (string, error) {
	if len(d.argv) == 0 {
		return "", errors.New(errors.ArtifactUnavailable, "no decompiler configured")
	}

	tmpDir, err := os.MkdirTemp("", "javelin-decompile")
	if err != nil {
		return "", errors.Wrap(errors.ArtifactUnavailable, "cannot create temp dir", err)
	}
	defer os.RemoveAll(tmpDir)

	classFile := filepath.Join(tmpDir, sanitizeClassFileName(binaryName))
	if err := os.WriteFile(classFile, classBytes, 0644); err != nil {
		return "", errors.Wrap(errors.ArtifactUnavailable, "cannot write class file", err)
	}

	args := append(append([]string{}, d.argv[1:]...), classFile)
	cmd := exec.Command(d.argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		d.logger.Warn("Decompilation failed", map[string]interface{}{
			"class":  binaryName,
			"error":  err.Error(),
			"stderr": truncate(stderr.String(), 512),
		})
		return "", errors.Wrap(errors.ArtifactUnavailable, "decompiler failed for "+binaryName, err)
	}

	d.logger.Debug("Decompiled class", map[string]interface{}{
		"class": binaryName,
		"bytes": stdout.Len(),
	})
	return stdout.String(), nil
}

// sanitizeClassFileName flattens an archive entry path into a file name.
func sanitizeClassFileName(binaryName string) string {
	name := strings.ReplaceAll(binaryName, "/", ".")
	name = strings.TrimPrefix(name, ".")
	if !strings.HasSuffix(name, ".class") {
		name += ".class"
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
