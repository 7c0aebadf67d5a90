package obj

import (
	"strings"
	"testing"
)

func TestSerialize_Triangle(t *testing.T) {
	m := mustParse(t, triangle)
	got := Serialize(m)

	want := `# Generated by Procedural 3D Generator
o GeneratedModel

# GROUP:default
v 0.000000 0.000000 0.000000
v 1.000000 0.000000 0.000000
v 0.000000 1.000000 0.000000



f 1 2 3
`
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_RefForms(t *testing.T) {
	text := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
f 1//1 2//1 3//1
f 1/1 2/1 3/1
f 1 2 3
`
	out := Serialize(mustParse(t, text))

	for _, want := range []string{
		"f 1/1/1 2/1/1 3/1/1\n",
		"f 1//1 2//1 3//1\n",
		"f 1/1 2/1 3/1\n",
		"f 1 2 3\n",
		"vn 0.000000 0.000000 1.000000\n",
		"vt 0.000000 0.000000\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSerialize_CompactsAfterRemoval(t *testing.T) {
	text := `# GROUP:body
v 0 0 0
v 1 0 0
v 0 1 0
# GROUP:leaf
v 5 5 5
v 6 5 5
v 5 6 5
# GROUP:tail
v 9 0 0
v 9 1 0
v 9 0 1
f 1 2 3
f 4 5 6
f 7 8 9
f 1 2 4
`
	m := mustParse(t, text)
	m.RemoveGroup("leaf")
	out := Serialize(m)

	if strings.Contains(out, "# GROUP:leaf") {
		t.Error("removed group still emitted")
	}
	if strings.Contains(out, "v 5.000000") {
		t.Error("tombstoned vertex emitted")
	}
	if !strings.Contains(out, "f 1 2 3\nf 4 5 6\n") {
		t.Errorf("expected remapped faces, got:\n%s", out)
	}

	again := mustParse(t, out)
	if len(again.Vertices) != 6 || len(again.Faces) != 2 {
		t.Errorf("re-parse: %d vertices, %d faces, want 6 and 2", len(again.Vertices), len(again.Faces))
	}
	if len(again.Diagnostics) != 0 {
		t.Errorf("re-parse diagnostics: %v", again.Diagnostics)
	}
}

func TestSerialize_SkipsDanglingFaces(t *testing.T) {
	text := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1 2 7\nf 1//3 2//1 3//1\nf 1/2 2 3\nf 3 2 1\n"
	m := mustParse(t, text)
	out := Serialize(m)

	lines := faceLines(out)
	if len(lines) != 1 || lines[0] != "f 3 2 1" {
		t.Errorf("faces = %v, want [f 3 2 1]", lines)
	}

	// A face that survived removal but whose vertex was tombstoned later
	// is re-checked on output.
	m = mustParse(t, triangle)
	m.Vertices[2].Removed = true
	if lines := faceLines(Serialize(m)); len(lines) != 0 {
		t.Errorf("expected no faces, got %v", lines)
	}
}

func TestSerialize_MaterialsAndPassthrough(t *testing.T) {
	text := `mtllib fruit.mtl
o Berry
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
f 1 3 2
usemtl green
f 2 1 3
`
	out := Serialize(mustParse(t, text))

	if !strings.HasPrefix(out, Header+"\no Berry\nmtllib fruit.mtl\n") {
		t.Errorf("unexpected preamble:\n%s", out)
	}
	if !strings.Contains(out, "usemtl red\nf 1 2 3\nf 1 3 2\nusemtl green\nf 2 1 3\n") {
		t.Errorf("materials not emitted around faces:\n%s", out)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	inputs := map[string]string{
		"triangle": triangle,
		"stem":     stemModel,
		"smooth":   smoothModel,
		"mixed": `# GROUP:a
v 0.1234567 -2.5 3
v 1e-3 4 5
# GROUP:b
v -7 8.25 9
v 1 1 1
vt 0.5 0.25
vn 0 1 0
f 1/1/1 2/1/1 3/1/1 4/1/1
`,
	}

	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			first := mustParse(t, text)
			second := mustParse(t, Serialize(first))

			if first.LiveVertexCount() != second.LiveVertexCount() {
				t.Errorf("vertex count %d -> %d", first.LiveVertexCount(), second.LiveVertexCount())
			}
			if len(first.Faces) != len(second.Faces) {
				t.Errorf("face count %d -> %d", len(first.Faces), len(second.Faces))
			}
			for i := range first.Vertices {
				a, b := first.Vertices[i].Position, second.Vertices[i].Position
				if !a.ApproxEqual(b, 5e-7) {
					t.Errorf("vertex %d: %v -> %v", i, a, b)
				}
			}
			if got, want := second.GroupNames(), first.GroupNames(); strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("groups %v -> %v", want, got)
			}
		})
	}
}

func TestWriteTo_CountsBytes(t *testing.T) {
	m := mustParse(t, triangle)
	var sb strings.Builder
	n, err := m.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if int(n) != sb.Len() {
		t.Errorf("WriteTo returned %d, wrote %d", n, sb.Len())
	}
}

func TestEmittedCounts(t *testing.T) {
	m := mustParse(t, stemModel)
	m.RemoveGroup("body")

	v, f := m.EmittedCounts()
	if v != 4 || f != 2 {
		t.Errorf("EmittedCounts() = %d, %d, want 4, 2", v, f)
	}
}

func faceLines(out string) []string {
	var faces []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "f ") {
			faces = append(faces, line)
		}
	}
	return faces
}
