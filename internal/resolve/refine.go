package resolve

import (
	"context"

	"javelin/internal/lang"
)

// refine corrects coarse cross-file positions (line 0, column 0 placeholders
// from fast-path lookups) by re-querying the target file for the identifier
// occurrence nearest the expected name. Same-file results are node-precise
// already; builtin and decompiled artifacts are trusted as-is. Refinement
// failure returns the original location.
func (c *Cascade) refine(ctx context.Context, req Request, loc lang.Location, name string, skip bool) lang.Location {
	if skip || loc.Path == req.Path {
		return loc
	}

	art := c.artifactFor(loc.Path)
	tree, err := art.Tree(ctx)
	if err != nil {
		return loc
	}
	adapter, ok := art.Adapter()
	if !ok {
		return loc
	}
	content, err := art.Content()
	if err != nil {
		return loc
	}
	src := []byte(content)

	ids := adapter.FindIdentifiers(tree.RootNode(), src, name)
	if len(ids) == 0 {
		return loc
	}

	best := ids[0]
	bestDist := lineDistance(best.StartPoint().Row, loc.Line)
	for _, id := range ids[1:] {
		if d := lineDistance(id.StartPoint().Row, loc.Line); d < bestDist {
			best, bestDist = id, d
		}
	}
	pt := best.StartPoint()
	return lang.Location{Path: loc.Path, Line: pt.Row, Column: pt.Column}
}

func lineDistance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
