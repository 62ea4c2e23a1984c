package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"javelin/internal/lang"
	"javelin/internal/repostate"
)

// SymbolRecord is the persisted form of one indexed type. Location columns
// are zero-based tree-sitter points; Path may use the "archive!/entry"
// notation for symbols found inside jars.
type SymbolRecord struct {
	FQN      string        `json:"fqn"`
	Kind     string        `json:"kind"`
	Location lang.Location `json:"location"`
	// SuperTypes holds the short names this type extends or implements.
	SuperTypes []string `json:"superTypes,omitempty"`
}

// ProjectIndex is everything the indexer produces for one project, saved
// atomically per project.
type ProjectIndex struct {
	Symbols      []SymbolRecord
	ShortNames   map[string][]string
	Implementors map[string][]string
}

// SaveProject replaces the stored index for one project. The write is
// delete-then-insert inside a single transaction; an individual row that
// fails to encode is logged and skipped rather than failing the batch.
func (db *DB) SaveProject(project string, index ProjectIndex) error {
	skipped := 0
	err := db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"symbols", "short_names", "implementors"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE project = ?", project); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, sym := range index.Symbols {
			payload, err := encodeBlob(sym)
			if err != nil {
				db.logger.Warn("Skipping symbol", map[string]interface{}{
					"fqn":   sym.FQN,
					"error": err.Error(),
				})
				skipped++
				continue
			}
			if _, err := tx.Exec(
				"INSERT OR REPLACE INTO symbols (project, fqn, payload) VALUES (?, ?, ?)",
				project, sym.FQN, payload,
			); err != nil {
				return fmt.Errorf("failed to insert symbol %s: %w", sym.FQN, err)
			}
		}

		for name, fqns := range index.ShortNames {
			payload, err := encodeBlob(fqns)
			if err != nil {
				skipped++
				continue
			}
			if _, err := tx.Exec(
				"INSERT OR REPLACE INTO short_names (project, short_name, fqns) VALUES (?, ?, ?)",
				project, name, payload,
			); err != nil {
				return fmt.Errorf("failed to insert short name %s: %w", name, err)
			}
		}

		for super, impls := range index.Implementors {
			payload, err := encodeBlob(impls)
			if err != nil {
				skipped++
				continue
			}
			if _, err := tx.Exec(
				"INSERT OR REPLACE INTO implementors (project, super_name, impl_fqns) VALUES (?, ?, ?)",
				project, super, payload,
			); err != nil {
				return fmt.Errorf("failed to insert implementors of %s: %w", super, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Debug("Saved project index", map[string]interface{}{
		"project": project,
		"symbols": len(index.Symbols),
		"skipped": skipped,
	})
	return nil
}

// LoadSymbol returns the record for one fully-qualified name within a
// project subtree. The project argument is a path prefix, so a parent
// project's lookup sees its sub-projects.
func (db *DB) LoadSymbol(project, fqn string) (SymbolRecord, bool, error) {
	var payload []byte
	err := db.QueryRow(
		`SELECT payload FROM symbols WHERE fqn = ? AND project LIKE ? ESCAPE '\' LIMIT 1`,
		fqn, likePrefix(project),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return SymbolRecord{}, false, nil
	}
	if err != nil {
		return SymbolRecord{}, false, err
	}

	var sym SymbolRecord
	if err := decodeBlob(payload, &sym); err != nil {
		return SymbolRecord{}, false, err
	}
	return sym, true, nil
}

// LoadShortName returns all fully-qualified names sharing a short name
// within a project subtree.
func (db *DB) LoadShortName(project, shortName string) ([]string, error) {
	rows, err := db.Query(
		`SELECT fqns FROM short_names WHERE short_name = ? AND project LIKE ? ESCAPE '\'`,
		shortName, likePrefix(project),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var fqns []string
		if err := decodeBlob(payload, &fqns); err != nil {
			db.logger.Warn("Dropping unreadable short-name row", map[string]interface{}{
				"short_name": shortName,
				"error":      err.Error(),
			})
			continue
		}
		all = append(all, fqns...)
	}
	return all, rows.Err()
}

// LoadImplementors returns all implementor FQNs of a supertype short name
// within a project subtree.
func (db *DB) LoadImplementors(project, superName string) ([]string, error) {
	rows, err := db.Query(
		`SELECT impl_fqns FROM implementors WHERE super_name = ? AND project LIKE ? ESCAPE '\'`,
		superName, likePrefix(project),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var impls []string
		if err := decodeBlob(payload, &impls); err != nil {
			continue
		}
		all = append(all, impls...)
	}
	return all, rows.Err()
}

// LoadAllImplementors returns the implementor FQNs of a supertype short name
// for every project that recorded any, keyed by project path.
func (db *DB) LoadAllImplementors(superName string) (map[string][]string, error) {
	rows, err := db.Query(
		"SELECT project, impl_fqns FROM implementors WHERE super_name = ?", superName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProject := make(map[string][]string)
	for rows.Next() {
		var project string
		var payload []byte
		if err := rows.Scan(&project, &payload); err != nil {
			return nil, err
		}
		var impls []string
		if err := decodeBlob(payload, &impls); err != nil {
			continue
		}
		byProject[project] = append(byProject[project], impls...)
	}
	return byProject, rows.Err()
}

// LoadProjectSymbols streams every symbol stored for a project subtree.
func (db *DB) LoadProjectSymbols(project string) ([]SymbolRecord, error) {
	rows, err := db.Query(
		`SELECT payload FROM symbols WHERE project LIKE ? ESCAPE '\'`, likePrefix(project),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []SymbolRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sym SymbolRecord
		if err := decodeBlob(payload, &sym); err != nil {
			db.logger.Warn("Dropping unreadable symbol row", map[string]interface{}{
				"project": project,
				"error":   err.Error(),
			})
			continue
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SaveProjectMeta stores a project's metadata document (dependencies,
// external coordinates, index status) as opaque JSON.
func (db *DB) SaveProjectMeta(project, metaJSON string) error {
	_, err := db.Exec(
		"INSERT OR REPLACE INTO project_meta (project, meta_json, updated_at) VALUES (?, ?, ?)",
		project, metaJSON, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// LoadProjectMeta returns a project's metadata document.
func (db *DB) LoadProjectMeta(project string) (string, bool, error) {
	var metaJSON string
	err := db.QueryRow(
		"SELECT meta_json FROM project_meta WHERE project = ?", project,
	).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return metaJSON, true, nil
}

// AllProjectMeta returns every stored project metadata document keyed by
// project path.
func (db *DB) AllProjectMeta() (map[string]string, error) {
	rows, err := db.Query("SELECT project, meta_json FROM project_meta")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := make(map[string]string)
	for rows.Next() {
		var project, metaJSON string
		if err := rows.Scan(&project, &metaJSON); err != nil {
			return nil, err
		}
		metas[project] = metaJSON
	}
	return metas, rows.Err()
}

// SaveFingerprint records the repository state the stored index was built
// against.
func (db *DB) SaveFingerprint(fp repostate.Fingerprint) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM fingerprint"); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT INTO fingerprint (id, head_commit, branch, manifest_hash) VALUES (1, ?, ?, ?)",
			fp.HeadCommit, fp.Branch, fp.ManifestHash,
		)
		return err
	})
}

// LoadFingerprint returns the stored repository fingerprint, if any.
func (db *DB) LoadFingerprint() (repostate.Fingerprint, bool, error) {
	var fp repostate.Fingerprint
	err := db.QueryRow(
		"SELECT head_commit, branch, manifest_hash FROM fingerprint WHERE id = 1",
	).Scan(&fp.HeadCommit, &fp.Branch, &fp.ManifestHash)
	if err == sql.ErrNoRows {
		return repostate.Fingerprint{}, false, nil
	}
	if err != nil {
		return repostate.Fingerprint{}, false, err
	}
	return fp, true, nil
}

// IsStale reports whether the stored index no longer matches the current
// repository state. A database with no fingerprint row is stale; the match
// itself is exact, not ancestry-based.
func (db *DB) IsStale(current repostate.Fingerprint) (bool, error) {
	stored, ok, err := db.LoadFingerprint()
	if err != nil {
		return true, err
	}
	if !ok {
		return true, nil
	}
	return !stored.Equal(current), nil
}

// Clear drops all indexed data while keeping the schema, used when the
// fingerprint no longer matches.
func (db *DB) Clear() error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"symbols", "short_names", "implementors", "project_meta", "fingerprint"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// likePrefix escapes a project path for use as a LIKE prefix pattern.
func likePrefix(project string) string {
	escaped := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(project)
	return escaped + "%"
}
