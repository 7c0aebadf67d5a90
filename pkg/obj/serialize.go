package obj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the comment line written at the top of every serialized model.
const Header = "# Generated by Procedural 3D Generator"

// DefaultObjectName is used when the input had no "o" directive.
const DefaultObjectName = "GeneratedModel"

// Serialize returns the model as OBJ text.
func Serialize(m *Model) string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the model as OBJ text. Tombstoned vertices are skipped
// and vertex indices renumbered contiguously; normals and texture
// coordinates keep their stored order.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	name := m.Name
	if name == "" {
		name = DefaultObjectName
	}
	fmt.Fprintln(bw, Header)
	fmt.Fprintln(bw, "o "+name)
	for _, line := range m.Passthrough {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw)

	remap := m.vertexRemap()
	emitted := 0
	for _, g := range m.Groups {
		fmt.Fprintln(bw, GroupMarker+g.Name)
		for _, idx := range g.Indices {
			if out, ok := remap[idx]; !ok || out != emitted+1 {
				continue
			}
			emitted++
			p := m.Vertices[idx].Position
			fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", p.X, p.Y, p.Z)
		}
	}
	fmt.Fprintln(bw)

	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %.6f %.6f %.6f\n", n.X, n.Y, n.Z)
	}
	fmt.Fprintln(bw)

	for _, vt := range m.TexCoords {
		fmt.Fprintf(bw, "vt %.6f %.6f\n", vt.X, vt.Y)
	}
	fmt.Fprintln(bw)

	material := ""
	for _, f := range m.Faces {
		line, ok := m.faceLine(f, remap)
		if !ok {
			continue
		}
		if f.Material != "" && f.Material != material {
			fmt.Fprintln(bw, "usemtl "+f.Material)
			material = f.Material
		}
		fmt.Fprintln(bw, line)
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

// vertexRemap assigns contiguous 1-based output indices to live vertices
// in emission order: groups in declaration order, then group order.
func (m *Model) vertexRemap() map[int]int {
	remap := make(map[int]int, len(m.Vertices))
	next := 1
	for _, g := range m.Groups {
		for _, idx := range g.Indices {
			if !m.live(idx) {
				continue
			}
			if _, seen := remap[idx]; seen {
				continue
			}
			remap[idx] = next
			next++
		}
	}
	return remap
}

// faceLine renders a face through the vertex remap. It reports false for
// faces that would be malformed: unmapped vertices, out-of-range texture
// coordinates or normals, or fewer than three corners.
func (m *Model) faceLine(f Face, remap map[int]int) (string, bool) {
	if len(f.Refs) < 3 {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString("f")
	for _, r := range f.Refs {
		v, ok := remap[r.Vertex]
		if !ok || r.TexCoord >= len(m.TexCoords) || r.Normal >= len(m.Normals) {
			return "", false
		}
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(v))
		switch {
		case r.TexCoord >= 0 && r.Normal >= 0:
			fmt.Fprintf(&sb, "/%d/%d", r.TexCoord+1, r.Normal+1)
		case r.Normal >= 0:
			fmt.Fprintf(&sb, "//%d", r.Normal+1)
		case r.TexCoord >= 0:
			fmt.Fprintf(&sb, "/%d", r.TexCoord+1)
		}
	}
	return sb.String(), true
}

// EmittedCounts returns how many vertices and faces WriteTo would write.
func (m *Model) EmittedCounts() (vertices, faces int) {
	remap := m.vertexRemap()
	for _, f := range m.Faces {
		if _, ok := m.faceLine(f, remap); ok {
			faces++
		}
	}
	return len(remap), faces
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil && c.err == nil {
		c.err = err
	}
	return n, err
}
