package ops

import (
	"strings"

	"golang.org/x/sync/errgroup"
)

func depthOf(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// runByDepthLayers groups items by relative-path depth and processes each
// depth layer as a barrier — a depth-d item only starts once every
// depth-(d-1) item has finished, since a parent directory must exist
// before its children. Within a layer, up to threads items run
// concurrently via errgroup; a hard (unresolved) failure aborts that
// layer, matching spec.md §4.4's rationale for using errgroup here instead
// of the tolerant worker pool.
func runByDepthLayers(threads int, items []node, do func(n node) error) error {
	byDepth := make(map[int][]node)
	maxDepth := 0
	for _, n := range items {
		d := depthOf(n.rel)
		byDepth[d] = append(byDepth[d], n)
		if d > maxDepth {
			maxDepth = d
		}
	}

	for d := 0; d <= maxDepth; d++ {
		layer := byDepth[d]
		if len(layer) == 0 {
			continue
		}
		var g errgroup.Group
		g.SetLimit(min(threads, len(layer)))
		for _, n := range layer {
			g.Go(func() error { return do(n) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
