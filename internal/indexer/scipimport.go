package indexer

import (
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"javelin/internal/errors"
	"javelin/internal/lang"
	"javelin/internal/storage"
)

// ImportSCIP populates a project's symbol tables from a pre-built SCIP index
// instead of parsing sources. Only definition occurrences of type symbols
// are imported; term and method definitions resolve through the tree-sitter
// path once the type's file is known.
func (ix *Indexer) ImportSCIP(path, projectRoot string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.PersistenceError, "cannot read SCIP index "+path, err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return errors.Wrap(errors.ParseError, "cannot parse SCIP index "+path, err)
	}

	out := storage.ProjectIndex{
		ShortNames:   make(map[string][]string),
		Implementors: make(map[string][]string),
	}
	seen := make(map[string]bool)

	for _, doc := range index.Documents {
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) == 0 {
				continue
			}
			fqn, ok := typeFQN(occ.Symbol)
			if !ok || seen[fqn] {
				continue
			}
			seen[fqn] = true
			line, column := occurrenceStart(occ.Range)
			out.Symbols = append(out.Symbols, storage.SymbolRecord{
				FQN:  fqn,
				Kind: lang.ClassDeclaration.String(),
				Location: lang.Location{
					Path:   doc.RelativePath,
					Line:   line,
					Column: column,
				},
			})
		}
	}
	mergeShortNames(&out)

	ix.logger.Info("Imported SCIP index", map[string]interface{}{
		"index":   path,
		"project": projectRoot,
		"symbols": len(out.Symbols),
	})
	return ix.cache.PutProject(projectRoot, out)
}

// typeFQN converts a SCIP symbol to a dotted FQN when its final descriptor
// is a type; other symbol kinds report false.
func typeFQN(symbol string) (string, bool) {
	parsed, err := scippb.ParseSymbol(symbol)
	if err != nil || len(parsed.Descriptors) == 0 {
		return "", false
	}
	last := parsed.Descriptors[len(parsed.Descriptors)-1]
	if last.Suffix != scippb.Descriptor_Type {
		return "", false
	}

	var segments []string
	for _, d := range parsed.Descriptors {
		switch d.Suffix {
		case scippb.Descriptor_Namespace, scippb.Descriptor_Type:
			if d.Name != "" {
				segments = append(segments, d.Name)
			}
		}
	}
	if len(segments) == 0 {
		return "", false
	}
	return strings.Join(segments, "."), true
}

// occurrenceStart decodes the SCIP range encoding: three elements for
// single-line ranges, four for multi-line.
func occurrenceStart(r []int32) (uint32, uint32) {
	if len(r) < 2 {
		return 0, 0
	}
	return uint32(r[0]), uint32(r[1])
}

func mergeShortNames(index *storage.ProjectIndex) {
	for _, rec := range index.Symbols {
		short := rec.FQN
		if idx := strings.LastIndex(short, "."); idx >= 0 {
			short = short[idx+1:]
		}
		index.ShortNames[short] = append(index.ShortNames[short], rec.FQN)
	}
}
