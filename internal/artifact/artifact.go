// Package artifact represents addressable source blobs: loose files, archive
// entries, and decompiled class files. Content and syntax tree are
// materialized lazily, exactly once, and shared by every reader.
package artifact

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	sitter "github.com/smacker/go-tree-sitter"

	"javelin/internal/errors"
	"javelin/internal/lang"
)

// EntrySeparator splits an archive path from the entry inside it,
// "lib-sources.jar!/com/example/Foo.java".
const EntrySeparator = "!/"

// Artifact identifies one source blob. The zero value is not usable; use
// NewFile or NewArchiveEntry.
type Artifact struct {
	// Path is the loose-file path, or "" for archive-internal artifacts.
	Path string
	// Archive and Entry locate an archive-internal artifact.
	Archive string
	Entry   string
	// Coordinate tags artifacts that came from an external dependency,
	// e.g. "com.google.guava:guava:32.1.3-jre". Optional.
	Coordinate string

	registry   *lang.Registry
	decompiler *Decompiler

	contentOnce sync.Once
	content     string
	contentErr  error
	decompiled  bool

	treeOnce sync.Once
	tree     *sitter.Tree
	treeErr  error
}

// NewFile creates an artifact backed by a loose file.
func NewFile(path string, registry *lang.Registry) *Artifact {
	return &Artifact{Path: path, registry: registry}
}

// NewArchiveEntry creates an artifact backed by an entry inside a zip/jar
// archive. The decompiler may be nil when the entry is known to be source.
func NewArchiveEntry(archive, entry, coordinate string, registry *lang.Registry, decompiler *Decompiler) *Artifact {
	return &Artifact{
		Archive:    archive,
		Entry:      entry,
		Coordinate: coordinate,
		registry:   registry,
		decompiler: decompiler,
	}
}

// ParseRef splits a "archive!/entry" reference; plain paths come back with
// an empty entry.
func ParseRef(ref string) (archive, entry string) {
	if idx := strings.Index(ref, EntrySeparator); idx >= 0 {
		return ref[:idx], ref[idx+len(EntrySeparator):]
	}
	return ref, ""
}

// DisplayPath returns the path shown to callers, using the bang notation for
// archive entries.
func (a *Artifact) DisplayPath() string {
	if a.Path != "" {
		return a.Path
	}
	return a.Archive + EntrySeparator + a.Entry
}

// Decompiled reports whether the cached content came out of the decompiler.
// Decompiled locations are treated as precise; position refinement skips
// them.
func (a *Artifact) Decompiled() bool {
	return a.decompiled
}

// Content returns the artifact's source text, loading it on first use. All
// concurrent callers share one load.
func (a *Artifact) Content() (string, error) {
	a.contentOnce.Do(func() {
		a.content, a.decompiled, a.contentErr = a.load()
	})
	return a.content, a.contentErr
}

// Tree returns the artifact's parsed syntax tree, parsing on first use.
// Decompiled class files always parse as Java regardless of what language
// requested the artifact.
func (a *Artifact) Tree(ctx context.Context) (*sitter.Tree, error) {
	a.treeOnce.Do(func() {
		content, err := a.Content()
		if err != nil {
			a.treeErr = err
			return
		}
		adapter, ok := a.Adapter()
		if !ok {
			a.treeErr = errors.Newf(errors.ArtifactUnavailable,
				"no language adapter for %s", a.DisplayPath())
			return
		}
		a.tree, a.treeErr = adapter.Parse(ctx, []byte(content))
	})
	return a.tree, a.treeErr
}

// Adapter returns the language adapter that parses this artifact.
func (a *Artifact) Adapter() (lang.Adapter, bool) {
	if a.decompiled {
		return a.registry.ForLanguage("java")
	}
	path := a.Path
	if path == "" {
		path = a.Entry
	}
	if strings.HasSuffix(path, ".class") {
		// class entries become Java source once loaded
		return a.registry.ForLanguage("java")
	}
	return a.registry.ForPath(path)
}

// load materializes the artifact text: loose file first, then archive entry,
// then decompilation for compiled classes without a source form.
func (a *Artifact) load() (string, bool, error) {
	if a.Path != "" {
		data, err := os.ReadFile(a.Path)
		if err == nil {
			return string(data), false, nil
		}
		if a.Archive == "" {
			return "", false, errors.Wrap(errors.ArtifactUnavailable,
				"cannot read file "+a.Path, err)
		}
	}
	if a.Archive == "" {
		return "", false, errors.New(errors.ArtifactUnavailable, "artifact has no source location")
	}

	reader, err := zip.OpenReader(a.Archive)
	if err != nil {
		return "", false, errors.Wrap(errors.ArtifactUnavailable,
			"cannot open archive "+a.Archive, err)
	}
	defer reader.Close()

	if !strings.HasSuffix(a.Entry, ".class") {
		data, err := readEntry(&reader.Reader, a.Entry)
		if err != nil {
			return "", false, err
		}
		return string(data), false, nil
	}

	// a compiled class: prefer a source entry alongside it
	sourceEntry := strings.TrimSuffix(a.Entry, ".class") + ".java"
	if data, err := readEntry(&reader.Reader, sourceEntry); err == nil {
		return string(data), false, nil
	}

	raw, err := readEntry(&reader.Reader, a.Entry)
	if err != nil {
		return "", false, err
	}
	if a.decompiler == nil {
		return "", false, errors.Newf(errors.ArtifactUnavailable,
			"no decompiler configured for %s", a.DisplayPath())
	}
	text, err := a.decompiler.Decompile(a.Entry, raw)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func readEntry(reader *zip.Reader, entry string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != entry {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ArtifactUnavailable,
				"cannot open archive entry "+entry, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrap(errors.ArtifactUnavailable,
				"cannot read archive entry "+entry, err)
		}
		return data, nil
	}
	return nil, errors.Newf(errors.ArtifactUnavailable, "entry %s not found in archive", entry)
}
