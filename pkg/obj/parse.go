package obj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/procgen3d/pkg/encoding"
	"github.com/Faultbox/procgen3d/pkg/math"
)

const maxLineSize = 1 << 20

// Parse reads OBJ text into a Model. The first malformed directive aborts
// the parse with a *LineError.
func Parse(r io.Reader) (*Model, error) {
	m := NewModel()
	currentGroup := DefaultGroup
	currentMaterial := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if line == "" {
			continue
		}
		if line[0] == '#' {
			if name, ok := groupMarker(line); ok {
				currentGroup = name
				m.declareGroup(name)
			}
			continue
		}

		fields := strings.Fields(line)
		malformed := func(reason string) error {
			return &LineError{Line: lineNo, Text: raw, Reason: reason}
		}

		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, malformed("vertex: " + err.Error())
			}
			m.AddVertex(currentGroup, p)

		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, malformed("normal: " + err.Error())
			}
			m.Normals = append(m.Normals, n)

		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, malformed("texture coordinate: " + err.Error())
			}
			m.TexCoords = append(m.TexCoords, uv)

		case "f":
			if len(fields) < 4 {
				return nil, malformed(fmt.Sprintf("face needs at least 3 vertices, got %d", len(fields)-1))
			}
			face := Face{Refs: make([]Ref, 0, len(fields)-1), Material: currentMaterial}
			for _, tok := range fields[1:] {
				ref, err := parseRef(tok, len(m.Vertices), len(m.TexCoords), len(m.Normals))
				if err != nil {
					return nil, malformed(fmt.Sprintf("face vertex %q: %v", tok, err))
				}
				face.Refs = append(face.Refs, ref)
			}
			m.Faces = append(m.Faces, face)

		case "usemtl":
			if len(fields) > 1 {
				currentMaterial = fields[1]
				m.Materials = append(m.Materials, currentMaterial)
			}

		case "o":
			if m.Name == "" {
				m.Name = strings.TrimSpace(line[1:])
			}

		case "l", "p":
			// Element indices would be stale after compaction.
			m.note(KindIgnoredDirective, "line %d: %q element dropped", lineNo, fields[0])

		default:
			m.Passthrough = append(m.Passthrough, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	m.checkReferences()
	return m, nil
}

// ParseString parses OBJ text held in a string.
func ParseString(s string) (*Model, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses an OBJ file from disk. A byte order mark is skipped.
func ParseFile(path string) (*Model, error) {
	return ParseFileCharset(path, "")
}

// ParseFileCharset parses an OBJ file written in the named charset
// (a WHATWG label such as "shift_jis" or "windows-1252").
func ParseFileCharset(path, charset string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()

	r, err := encoding.NewReader(f, charset)
	if err != nil {
		return nil, err
	}
	return Parse(r)
}

// groupMarker extracts the group name from a "# GROUP:<name>" comment.
// The name ends at the next colon.
func groupMarker(line string) (string, bool) {
	if !strings.HasPrefix(line, GroupMarker) {
		return "", false
	}
	name := line[len(GroupMarker):]
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name), true
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) != 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	c, err := parseFloats(fields)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseVec2 accepts "u v" and "u v w"; w is dropped.
func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) != 2 && len(fields) != 3 {
		return math.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	c, err := parseFloats(fields)
	if err != nil {
		return math.Vec2{}, err
	}
	return math.Vec2{X: c[0], Y: c[1]}, nil
}

// parseRef parses "v", "v/vt", "v//vn" or "v/vt/vn". Counts are the
// element totals seen so far, used to resolve negative indices.
func parseRef(tok string, nv, nvt, nvn int) (Ref, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return Ref{}, fmt.Errorf("too many components")
	}
	if parts[0] == "" {
		return Ref{}, fmt.Errorf("missing vertex index")
	}

	ref := Ref{TexCoord: Absent, Normal: Absent}
	var err error
	if ref.Vertex, err = resolveIndex(parts[0], nv); err != nil {
		return Ref{}, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if ref.TexCoord, err = resolveIndex(parts[1], nvt); err != nil {
			return Ref{}, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if ref.Normal, err = resolveIndex(parts[2], nvn); err != nil {
			return Ref{}, err
		}
	}
	return ref, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0 && count+n >= 0:
		return count + n, nil
	case n < 0:
		return 0, fmt.Errorf("relative index %d before first element", n)
	default:
		return 0, fmt.Errorf("index 0 is not valid")
	}
}

// checkReferences records faces pointing past the end of any sequence.
// Such faces are dropped on output.
func (m *Model) checkReferences() {
	for fi, f := range m.Faces {
		for _, r := range f.Refs {
			if r.Vertex >= len(m.Vertices) ||
				r.TexCoord >= len(m.TexCoords) ||
				r.Normal >= len(m.Normals) {
				m.note(KindDanglingReference, "face %d references an undefined element", fi+1)
				break
			}
		}
	}
}
