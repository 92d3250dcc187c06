package asset

// Reducer is the mesh-reduction backend used when regenerating LODs.
type Reducer interface {
	Reduce(source RenderStats, settings ReductionSettings) RenderStats
}

// ProportionalReducer scales triangle and vertex counts by the requested
// percentages. Section layout and UV channels are preserved.
type ProportionalReducer struct{}

// Reduce implements Reducer.
func (ProportionalReducer) Reduce(source RenderStats, settings ReductionSettings) RenderStats {
	pt := clamp01(settings.PercentTriangles)
	pv := pt
	if settings.PercentVertices > 0 && settings.PercentVertices < pv {
		pv = clamp01(settings.PercentVertices)
	}

	out := RenderStats{
		Triangles:  scaleCount(source.Triangles, pt),
		Vertices:   scaleCount(source.Vertices, pv),
		UVChannels: source.UVChannels,
		Sections:   make([]Section, len(source.Sections)),
	}
	for i, sec := range source.Sections {
		out.Sections[i] = Section{
			MaterialIndex: sec.MaterialIndex,
			Triangles:     scaleCount(sec.Triangles, pt),
			Vertices:      scaleCount(sec.Vertices, pv),
		}
	}
	return out
}

func scaleCount(n int, p float32) int {
	return int(float64(n) * float64(p))
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
