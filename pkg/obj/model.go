// Package obj parses, transforms and writes Wavefront OBJ meshes.
//
// Vertices are partitioned into named groups declared with the
// "# GROUP:<name>" marker comment. Group-scoped transforms operate on
// those partitions; removed vertices are tombstoned and only compacted
// away when the model is serialized.
package obj

import (
	"errors"
	"fmt"

	"github.com/Faultbox/procgen3d/pkg/math"
)

// DefaultGroup holds vertices that appear before any group marker.
const DefaultGroup = "default"

// GroupMarker prefixes the comment line that starts a vertex group.
const GroupMarker = "# GROUP:"

// Absent marks a missing texture coordinate or normal in a face reference.
const Absent = -1

// Engine errors.
var (
	ErrMalformedLine     = errors.New("malformed OBJ line")
	ErrEmptyOrDegenerate = errors.New("empty or degenerate geometry")
)

// LineError describes a directive that could not be parsed.
type LineError struct {
	Line   int    // 1-based line number
	Text   string // Original line text
	Reason string // What was wrong with it
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap lets errors.Is match ErrMalformedLine.
func (e *LineError) Unwrap() error {
	return ErrMalformedLine
}

// Vertex is a position in the vertex arena.
type Vertex struct {
	Position math.Vec3
	Removed  bool // Tombstoned by RemoveGroup; skipped on output
}

// Ref is one corner of a face. Indices are 0-based; TexCoord and Normal
// may be Absent.
type Ref struct {
	Vertex   int
	TexCoord int
	Normal   int
}

// Face is a polygon of three or more corners.
type Face struct {
	Refs     []Ref
	Material string // Material active when the face was parsed
}

// Group is a named partition of vertex indices.
type Group struct {
	Name    string
	Indices []int
}

// Model is a parsed OBJ mesh. It is not safe for concurrent use.
type Model struct {
	Name        string // Object name from the first "o" directive
	Vertices    []Vertex
	Normals     []math.Vec3
	TexCoords   []math.Vec2
	Faces       []Face
	Groups      []*Group // Declaration order
	Materials   []string // Every usemtl seen, in order
	Passthrough []string // Unmodeled directives, reproduced verbatim
	Diagnostics []Diagnostic
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// Group returns the named group, or nil.
func (m *Model) Group(name string) *Group {
	for _, g := range m.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// GroupNames returns group names in declaration order.
func (m *Model) GroupNames() []string {
	names := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		names[i] = g.Name
	}
	return names
}

// declareGroup returns the named group, appending it if new.
func (m *Model) declareGroup(name string) *Group {
	if g := m.Group(name); g != nil {
		return g
	}
	g := &Group{Name: name}
	m.Groups = append(m.Groups, g)
	return g
}

// deleteGroup drops the named group entry.
func (m *Model) deleteGroup(name string) {
	for i, g := range m.Groups {
		if g.Name == name {
			m.Groups = append(m.Groups[:i], m.Groups[i+1:]...)
			return
		}
	}
}

// AddVertex appends a vertex to the named group and returns its index.
func (m *Model) AddVertex(group string, p math.Vec3) int {
	idx := len(m.Vertices)
	m.Vertices = append(m.Vertices, Vertex{Position: p})
	g := m.declareGroup(group)
	g.Indices = append(g.Indices, idx)
	return idx
}

// LiveVertexCount returns the number of vertices that are not tombstoned.
func (m *Model) LiveVertexCount() int {
	n := 0
	for _, v := range m.Vertices {
		if !v.Removed {
			n++
		}
	}
	return n
}

// live reports whether idx names a vertex that has not been removed.
func (m *Model) live(idx int) bool {
	return idx >= 0 && idx < len(m.Vertices) && !m.Vertices[idx].Removed
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{
		Name:        m.Name,
		Vertices:    append([]Vertex(nil), m.Vertices...),
		Normals:     append([]math.Vec3(nil), m.Normals...),
		TexCoords:   append([]math.Vec2(nil), m.TexCoords...),
		Materials:   append([]string(nil), m.Materials...),
		Passthrough: append([]string(nil), m.Passthrough...),
		Diagnostics: append([]Diagnostic(nil), m.Diagnostics...),
	}
	c.Faces = make([]Face, len(m.Faces))
	for i, f := range m.Faces {
		c.Faces[i] = Face{Refs: append([]Ref(nil), f.Refs...), Material: f.Material}
	}
	c.Groups = make([]*Group, len(m.Groups))
	for i, g := range m.Groups {
		c.Groups[i] = &Group{Name: g.Name, Indices: append([]int(nil), g.Indices...)}
	}
	return c
}
