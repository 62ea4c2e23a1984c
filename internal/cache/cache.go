// Package cache keeps the symbol index in memory with read-through to the
// SQLite store. Hits from the store are promoted into memory, so repeated
// lookups never touch the database twice.
package cache

import (
	"encoding/json"
	"sort"
	"sync"

	"javelin/internal/artifact"
	"javelin/internal/lang"
	"javelin/internal/logging"
	"javelin/internal/storage"
)

// IndexStatus tracks whether a project's index is usable yet.
type IndexStatus string

const (
	StatusInProgress IndexStatus = "in-progress"
	StatusCompleted  IndexStatus = "completed"
)

// ProjectMetadata describes one project's place in the workspace: which
// sibling projects it depends on, which external coordinates it pulls in,
// and how far its indexing has gotten.
type ProjectMetadata struct {
	Dependencies []string    `json:"dependencies,omitempty"`
	Externals    []string    `json:"externals,omitempty"`
	Status       IndexStatus `json:"status"`
}

type symbolKey struct {
	project string
	name    string
}

// SymbolCache is the in-memory front of the symbol index. All maps use
// fine-grained concurrent access; there is no cache-wide lock.
type SymbolCache struct {
	db     *storage.DB // nil for memory-only operation
	logger *logging.Logger

	symbols      sync.Map // symbolKey -> storage.SymbolRecord
	shortNames   sync.Map // symbolKey -> []string
	implementors sync.Map // symbolKey{project, super short name} -> []string of FQNs
	meta         sync.Map // string (project) -> ProjectMetadata
	externals    sync.Map // symbolKey{project, fqn} -> *artifact.Artifact
	builtinArts  sync.Map // string (fqn) -> *artifact.Artifact

	builtins        map[string]string // fqn -> archive entry, from the embedded manifest
	builtinArchives []string
	registry        *lang.Registry
	decompiler      *artifact.Decompiler
}

// Options configures external-artifact resolution. Zero values disable the
// builtin tier.
type Options struct {
	BuiltinArchives []string
	Registry        *lang.Registry
	Decompiler      *artifact.Decompiler
}

// New creates a cache over the given store. db may be nil, which makes the
// cache memory-only (useful for tests and unsaved workspaces).
func New(db *storage.DB, logger *logging.Logger, opts Options) *SymbolCache {
	return &SymbolCache{
		db:              db,
		logger:          logger,
		builtins:        builtinEntries(logger),
		builtinArchives: opts.BuiltinArchives,
		registry:        opts.Registry,
		decompiler:      opts.Decompiler,
	}
}

// PutProject installs a freshly built project index in memory and writes it
// through to the store.
func (c *SymbolCache) PutProject(project string, index storage.ProjectIndex) error {
	for _, sym := range index.Symbols {
		c.symbols.Store(symbolKey{project, sym.FQN}, sym)
	}
	for name, fqns := range index.ShortNames {
		c.shortNames.Store(symbolKey{project, name}, fqns)
	}
	for super, impls := range index.Implementors {
		c.mergeImplementors(project, super, impls)
	}
	if c.db == nil {
		return nil
	}
	return c.db.SaveProject(project, index)
}

// LookupSymbol finds a type by fully-qualified name within a project
// subtree. Memory first; a store hit is promoted.
func (c *SymbolCache) LookupSymbol(project, fqn string) (storage.SymbolRecord, bool) {
	key := symbolKey{project, fqn}
	if v, ok := c.symbols.Load(key); ok {
		return v.(storage.SymbolRecord), true
	}
	if c.db == nil {
		return storage.SymbolRecord{}, false
	}
	sym, ok, err := c.db.LoadSymbol(project, fqn)
	if err != nil {
		c.logger.Warn("Symbol lookup failed", map[string]interface{}{
			"project": project,
			"fqn":     fqn,
			"error":   err.Error(),
		})
		return storage.SymbolRecord{}, false
	}
	if !ok {
		return storage.SymbolRecord{}, false
	}
	c.symbols.Store(key, sym)
	return sym, true
}

// LookupShortName returns every FQN sharing a short name within a project
// subtree.
func (c *SymbolCache) LookupShortName(project, name string) []string {
	key := symbolKey{project, name}
	if v, ok := c.shortNames.Load(key); ok {
		return v.([]string)
	}
	if c.db == nil {
		return nil
	}
	fqns, err := c.db.LoadShortName(project, name)
	if err != nil {
		c.logger.Warn("Short-name lookup failed", map[string]interface{}{
			"project": project,
			"name":    name,
			"error":   err.Error(),
		})
		return nil
	}
	if len(fqns) > 0 {
		c.shortNames.Store(key, fqns)
	}
	return fqns
}

// Implementors returns the FQNs of every type within a project subtree that
// extends or implements the given supertype short name. The index stores
// FQNs; callers turn them into locations through LookupSymbol.
func (c *SymbolCache) Implementors(project, superName string) []string {
	key := symbolKey{project, superName}
	if v, ok := c.implementors.Load(key); ok {
		return v.([]string)
	}
	if c.db == nil {
		return nil
	}
	impls, err := c.db.LoadImplementors(project, superName)
	if err != nil {
		c.logger.Warn("Implementor lookup failed", map[string]interface{}{
			"project": project,
			"super":   superName,
			"error":   err.Error(),
		})
		return nil
	}
	if len(impls) > 0 {
		c.implementors.Store(key, impls)
	}
	return impls
}

// AllImplementors merges the implementor lists of every cached project,
// walking projects in lexical order so the result is stable.
func (c *SymbolCache) AllImplementors(superName string) []string {
	byProject := make(map[string][]string)
	c.implementors.Range(func(k, v interface{}) bool {
		key := k.(symbolKey)
		if key.name == superName {
			byProject[key.project] = v.([]string)
		}
		return true
	})
	if c.db != nil {
		stored, err := c.db.LoadAllImplementors(superName)
		if err != nil {
			c.logger.Warn("Implementor scan failed", map[string]interface{}{
				"super": superName,
				"error": err.Error(),
			})
		}
		for project, impls := range stored {
			if _, ok := byProject[project]; !ok {
				byProject[project] = impls
			}
		}
	}
	projects := make([]string, 0, len(byProject))
	for project := range byProject {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	var merged []string
	seen := make(map[string]bool)
	for _, project := range projects {
		for _, fqn := range byProject[project] {
			if !seen[fqn] {
				seen[fqn] = true
				merged = append(merged, fqn)
			}
		}
	}
	return merged
}

func (c *SymbolCache) mergeImplementors(project, super string, impls []string) {
	key := symbolKey{project, super}
	existing, loaded := c.implementors.LoadOrStore(key, impls)
	if !loaded {
		return
	}
	seen := make(map[string]bool)
	merged := append([]string{}, existing.([]string)...)
	for _, fqn := range merged {
		seen[fqn] = true
	}
	for _, fqn := range impls {
		if !seen[fqn] {
			merged = append(merged, fqn)
		}
	}
	c.implementors.Store(key, merged)
}

// SetMetadata records a project's metadata and writes it through.
func (c *SymbolCache) SetMetadata(project string, meta ProjectMetadata) error {
	c.meta.Store(project, meta)
	if c.db == nil {
		return nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.db.SaveProjectMeta(project, string(data))
}

// Metadata returns a project's metadata, reading through to the store.
func (c *SymbolCache) Metadata(project string) (ProjectMetadata, bool) {
	if v, ok := c.meta.Load(project); ok {
		return v.(ProjectMetadata), true
	}
	if c.db == nil {
		return ProjectMetadata{}, false
	}
	raw, ok, err := c.db.LoadProjectMeta(project)
	if err != nil || !ok {
		return ProjectMetadata{}, false
	}
	var meta ProjectMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		c.logger.Warn("Dropping unreadable project metadata", map[string]interface{}{
			"project": project,
			"error":   err.Error(),
		})
		return ProjectMetadata{}, false
	}
	c.meta.Store(project, meta)
	return meta, true
}

// Projects returns every project path with stored metadata.
func (c *SymbolCache) Projects() []string {
	seen := make(map[string]bool)
	c.meta.Range(func(k, _ interface{}) bool {
		seen[k.(string)] = true
		return true
	})
	if c.db != nil {
		if all, err := c.db.AllProjectMeta(); err == nil {
			for project := range all {
				seen[project] = true
			}
		}
	}
	projects := make([]string, 0, len(seen))
	for project := range seen {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	return projects
}

// RegisterExternal associates a project's dependency FQN with its artifact.
// The artifact stays unmaterialized until someone resolves into it.
func (c *SymbolCache) RegisterExternal(project, fqn string, art *artifact.Artifact) {
	c.externals.LoadOrStore(symbolKey{project, fqn}, art)
}

// LookupExternal finds the artifact a project registered for an external FQN.
// Builtin platform classes are a separate tier; see LookupBuiltin.
func (c *SymbolCache) LookupExternal(project, fqn string) (*artifact.Artifact, bool) {
	if v, ok := c.externals.Load(symbolKey{project, fqn}); ok {
		return v.(*artifact.Artifact), true
	}
	return nil, false
}

// LookupBuiltin finds the platform-class artifact for an FQN from the
// embedded manifest, materializing the archive handle on first use.
func (c *SymbolCache) LookupBuiltin(fqn string) (*artifact.Artifact, bool) {
	if v, ok := c.builtinArts.Load(fqn); ok {
		return v.(*artifact.Artifact), true
	}
	entry, ok := c.builtins[fqn]
	if !ok || len(c.builtinArchives) == 0 || c.registry == nil {
		return nil, false
	}
	art := artifact.NewArchiveEntry(c.builtinArchives[0], entry, "jdk", c.registry, c.decompiler)
	actual, _ := c.builtinArts.LoadOrStore(fqn, art)
	return actual.(*artifact.Artifact), true
}

// IsBuiltin reports whether an FQN belongs to the embedded platform-class
// manifest.
func (c *SymbolCache) IsBuiltin(fqn string) bool {
	_, ok := c.builtins[fqn]
	return ok
}
