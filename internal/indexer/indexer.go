// Package indexer populates the symbol cache: it walks each discovered
// project, parses its sources in parallel, and turns type declarations into
// the FQN, short-name, and implementor tables the resolver queries.
package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"javelin/internal/cache"
	"javelin/internal/lang"
	"javelin/internal/logging"
	"javelin/internal/project"
	"javelin/internal/storage"
)

// Options tunes the walk. Zero values select the defaults.
type Options struct {
	// Workers bounds concurrent file parses; defaults to 4.
	Workers int
	// Ignore lists directory names skipped during the walk.
	Ignore []string
	// MaxFileSizeBytes skips files larger than this; defaults to 1 MiB.
	MaxFileSizeBytes int64
}

var defaultIgnore = []string{"build", "out", "target", "node_modules"}

// Indexer builds the symbol tables for a workspace.
type Indexer struct {
	cache    *cache.SymbolCache
	registry *lang.Registry
	logger   *logging.Logger
	opts     Options
}

// New creates an indexer writing into the given cache.
func New(c *cache.SymbolCache, registry *lang.Registry, logger *logging.Logger, opts Options) *Indexer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 1 << 20
	}
	if opts.Ignore == nil {
		opts.Ignore = defaultIgnore
	}
	return &Indexer{cache: c, registry: registry, logger: logger, opts: opts}
}

// IndexWorkspace discovers and indexes every project under the workspace
// root. Individual file failures are logged and skipped; a project is marked
// completed once all its parseable files contributed.
func (ix *Indexer) IndexWorkspace(ctx context.Context, workspaceRoot string) error {
	projects, err := project.Discover(workspaceRoot)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		// a bare directory of sources still indexes as one project
		projects = []project.Project{{Root: workspaceRoot, Name: filepath.Base(workspaceRoot)}}
	}

	for _, p := range projects {
		if err := ix.IndexProject(ctx, workspaceRoot, p); err != nil {
			return err
		}
	}
	return nil
}

// IndexProject indexes one project and flushes its tables.
func (ix *Indexer) IndexProject(ctx context.Context, workspaceRoot string, p project.Project) error {
	logger := ix.logger.With(map[string]interface{}{"project": p.Root})

	meta := cache.ProjectMetadata{
		Dependencies: ix.dependencyRoots(workspaceRoot, p),
		Externals:    project.ExternalCoordinates(workspaceRoot, p),
		Status:       cache.StatusInProgress,
	}
	if err := ix.cache.SetMetadata(p.Root, meta); err != nil {
		logger.Warn("Cannot record project metadata", map[string]interface{}{"error": err.Error()})
	}

	files, err := ix.collectFiles(p.Root)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	index := storage.ProjectIndex{
		ShortNames:   make(map[string][]string),
		Implementors: make(map[string][]string),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			records, err := ix.indexFile(gctx, file)
			if err != nil {
				logger.Warn("Skipping unparseable file", map[string]interface{}{
					"file":  file,
					"error": err.Error(),
				})
				return nil
			}
			mu.Lock()
			mergeRecords(&index, records)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := ix.cache.PutProject(p.Root, index); err != nil {
		return err
	}

	meta.Status = cache.StatusCompleted
	if err := ix.cache.SetMetadata(p.Root, meta); err != nil {
		logger.Warn("Cannot record project metadata", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Indexed project", map[string]interface{}{
		"files":   len(files),
		"symbols": len(index.Symbols),
	})
	return nil
}

// dependencyRoots maps Gradle project references to the sibling roots the
// cache partitions by.
func (ix *Indexer) dependencyRoots(workspaceRoot string, p project.Project) []string {
	var roots []string
	for _, name := range project.InterProjectDeps(p) {
		roots = append(roots, filepath.Join(workspaceRoot, name))
	}
	return roots
}

// collectFiles gathers the project's parseable sources.
func (ix *Indexer) collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			for _, ignored := range ix.opts.Ignore {
				if name == ignored {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if _, ok := ix.registry.ForPath(path); !ok {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > ix.opts.MaxFileSizeBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// indexFile extracts one file's type declarations.
func (ix *Indexer) indexFile(ctx context.Context, path string) ([]storage.SymbolRecord, error) {
	adapter, _ := ix.registry.ForPath(path)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := adapter.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	pkg := adapter.PackageName(root, src)

	var records []storage.SymbolRecord
	for _, t := range adapter.TopLevelTypes(root, src) {
		fqn := t.Name
		if pkg != "" {
			fqn = pkg + "." + t.Name
		}
		name := adapter.NameNode(t.Node)
		pt := name.StartPoint()
		records = append(records, storage.SymbolRecord{
			FQN:        fqn,
			Kind:       t.Kind.String(),
			Location:   lang.Location{Path: path, Line: pt.Row, Column: pt.Column},
			SuperTypes: t.SuperTypes,
		})
	}
	return records, nil
}

// mergeRecords folds one file's records into the project index.
func mergeRecords(index *storage.ProjectIndex, records []storage.SymbolRecord) {
	for _, rec := range records {
		index.Symbols = append(index.Symbols, rec)
		short := rec.FQN
		if idx := strings.LastIndex(short, "."); idx >= 0 {
			short = short[idx+1:]
		}
		index.ShortNames[short] = append(index.ShortNames[short], rec.FQN)
		for _, super := range rec.SuperTypes {
			index.Implementors[super] = append(index.Implementors[super], rec.FQN)
		}
	}
}
