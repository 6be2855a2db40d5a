package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/daerig/pkg/anim"
	"github.com/Faultbox/daerig/pkg/collada"
)

// meshSummary stands in for the full vertex arrays, which are too large to dump.
type meshSummary struct {
	Vertices      int
	Triangles     int
	FurthestPoint float32
}

func newSpewConfig(depth int) *spew.ConfigState {
	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.SortKeys = true
	cfg.MaxDepth = depth
	return cfg
}

func writeDump(w io.Writer, data []byte, opts collada.Options, depth int) error {
	parsed, err := collada.Parse(data, opts)
	if err != nil {
		return err
	}

	cfg := newSpewConfig(depth)

	fmt.Fprintln(w, "Joint order:")
	cfg.Fdump(w, parsed.Skin.JointOrder)

	fmt.Fprintln(w, "Skeleton:")
	cfg.Fdump(w, parsed.Skeleton)

	fmt.Fprintln(w, "Mesh:")
	cfg.Fdump(w, meshSummary{
		Vertices:      parsed.Mesh.VertexCount(),
		Triangles:     len(parsed.Mesh.Indices) / 3,
		FurthestPoint: parsed.Mesh.FurthestPoint,
	})

	fmt.Fprintf(w, "Clips: %v\n", sortedClipNames(parsed.Animations))
	return nil
}

func sortedClipNames(clips []*anim.Animation) []string {
	names := make([]string, 0, len(clips))
	for _, c := range clips {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}
