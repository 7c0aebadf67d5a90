package obj

import "github.com/Faultbox/procgen3d/pkg/math"

// ScaleAll scales every live vertex about the origin.
func (m *Model) ScaleAll(factor float64) {
	for i := range m.Vertices {
		if m.Vertices[i].Removed {
			continue
		}
		m.Vertices[i].Position = m.Vertices[i].Position.Scale(factor)
	}
}

// ScaleGroup scales the live vertices of a group about their centroid.
// A missing or empty group is recorded as a diagnostic and left alone.
func (m *Model) ScaleGroup(name string, factor float64) {
	g := m.Group(name)
	if g == nil {
		m.note(KindUnknownGroup, "scale: group %q not found", name)
		return
	}

	centroid, n := m.centroid(g)
	if n == 0 {
		m.note(KindUnknownGroup, "scale: group %q has no live vertices", name)
		return
	}

	for _, idx := range g.Indices {
		if !m.live(idx) {
			continue
		}
		offset := m.Vertices[idx].Position.Sub(centroid)
		m.Vertices[idx].Position = centroid.Add(offset.Scale(factor))
	}
}

// Centroid returns the mean position of a group's live vertices.
func (m *Model) Centroid(name string) (math.Vec3, bool) {
	g := m.Group(name)
	if g == nil {
		return math.Vec3{}, false
	}
	c, n := m.centroid(g)
	return c, n > 0
}

func (m *Model) centroid(g *Group) (math.Vec3, int) {
	var sum math.Vec3
	n := 0
	for _, idx := range g.Indices {
		if !m.live(idx) {
			continue
		}
		sum = sum.Add(m.Vertices[idx].Position)
		n++
	}
	if n == 0 {
		return math.Vec3{}, 0
	}
	return sum.Div(float64(n)), n
}

// RemoveGroup tombstones the group's vertices, drops every face that
// touches one of them and deletes the group.
func (m *Model) RemoveGroup(name string) {
	g := m.Group(name)
	if g == nil {
		m.note(KindUnknownGroup, "remove: group %q not found", name)
		return
	}

	removed := make(map[int]struct{}, len(g.Indices))
	for _, idx := range g.Indices {
		if idx >= 0 && idx < len(m.Vertices) {
			m.Vertices[idx].Removed = true
		}
		removed[idx] = struct{}{}
	}

	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if touches(f, removed) {
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept

	m.deleteGroup(name)
}

func touches(f Face, removed map[int]struct{}) bool {
	for _, r := range f.Refs {
		if _, ok := removed[r.Vertex]; ok {
			return true
		}
	}
	return false
}

// SmoothNormals blends each face-referenced normal towards the average of
// the normals it shares faces with. factor is in [0, 1]; 0 leaves normals
// untouched.
//
// Faces are visited once per corner, grouped by vertex in first-seen
// order, so a normal shared by many corners of one face is counted
// repeatedly. Output depends on this exact accumulation order.
func (m *Model) SmoothNormals(factor float64) {
	if len(m.Normals) == 0 || factor <= 0 {
		return
	}

	// vertex -> faces, one entry per corner, vertices in first-seen order
	var vertexOrder []int
	vertexFaces := make(map[int][]int)
	for fi, f := range m.Faces {
		for _, r := range f.Refs {
			if _, ok := vertexFaces[r.Vertex]; !ok {
				vertexOrder = append(vertexOrder, r.Vertex)
			}
			vertexFaces[r.Vertex] = append(vertexFaces[r.Vertex], fi)
		}
	}

	sums := append([]math.Vec3(nil), m.Normals...)
	counts := make([]int, len(m.Normals))
	for i := range counts {
		counts[i] = 1
	}
	used := make([]bool, len(m.Normals))

	for _, v := range vertexOrder {
		for _, fi := range vertexFaces[v] {
			refs := m.Faces[fi].Refs
			for _, r := range refs {
				n := r.Normal
				if n < 0 || n >= len(m.Normals) {
					continue
				}
				used[n] = true
				for _, other := range refs {
					o := other.Normal
					if o == n || o < 0 || o >= len(m.Normals) {
						continue
					}
					sums[n] = sums[n].Add(m.Normals[o])
					counts[n]++
				}
			}
		}
	}

	smoothed := make([]math.Vec3, len(m.Normals))
	for i, normal := range m.Normals {
		if !used[i] {
			smoothed[i] = normal
			continue
		}
		avg := sums[i].Div(float64(counts[i])).Normalize()
		blended := normal.Scale(1 - factor).Add(avg.Scale(factor))
		if blended.Length() == 0 {
			smoothed[i] = normal
			continue
		}
		smoothed[i] = blended.Normalize()
	}
	m.Normals = smoothed
}
