package obj

import (
	"bytes"
	"errors"
	"testing"

	"github.com/qmuntal/gltf"
)

func TestExportGLTF_Quad(t *testing.T) {
	text := `o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 1
vn 0 0 1
f 1/1/1 2/1/1 3/2/1 4/2/1
`
	doc, err := mustParse(t, text).ExportGLTF()
	if err != nil {
		t.Fatalf("ExportGLTF failed: %v", err)
	}

	if len(doc.Meshes) != 1 || doc.Meshes[0].Name != "Quad" {
		t.Fatalf("unexpected meshes: %+v", doc.Meshes)
	}
	prim := doc.Meshes[0].Primitives[0]
	for _, attr := range []string{"POSITION", "NORMAL", "TEXCOORD_0"} {
		if _, ok := prim.Attributes[attr]; !ok {
			t.Errorf("missing %s attribute", attr)
		}
	}
	if got := doc.Accessors[prim.Attributes["POSITION"]].Count; got != 4 {
		t.Errorf("position count = %d, want 4", got)
	}
	if got := doc.Accessors[*prim.Indices].Count; got != 6 {
		t.Errorf("index count = %d, want 6 (two triangles)", got)
	}
	if len(doc.Scenes[0].Nodes) != 1 {
		t.Errorf("scene nodes = %v, want one node", doc.Scenes[0].Nodes)
	}
}

func TestExportGLTF_SkipsRemovedGeometry(t *testing.T) {
	m := mustParse(t, plantModel)
	m.RemoveGroup("leaf")

	doc, err := m.ExportGLTF()
	if err != nil {
		t.Fatalf("ExportGLTF failed: %v", err)
	}
	prim := doc.Meshes[0].Primitives[0]
	if got := doc.Accessors[prim.Attributes["POSITION"]].Count; got != 6 {
		t.Errorf("position count = %d, want 6", got)
	}
	if _, ok := prim.Attributes["NORMAL"]; ok {
		t.Error("unexpected NORMAL attribute for a model without normals")
	}
}

func TestExportGLB_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := mustParse(t, stemModel).ExportGLB(&buf); err != nil {
		t.Fatalf("ExportGLB failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatal("output is not binary glTF")
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(doc); err != nil {
		t.Fatalf("decoding exported glb: %v", err)
	}
	if len(doc.Meshes) != 1 {
		t.Errorf("decoded %d meshes, want 1", len(doc.Meshes))
	}
}

func TestExportGLTF_Empty(t *testing.T) {
	m := mustParse(t, leafModel)
	m.RemoveGroup("leaf")

	if _, err := m.ExportGLTF(); !errors.Is(err, ErrEmptyOrDegenerate) {
		t.Errorf("expected ErrEmptyOrDegenerate, got %v", err)
	}
	if err := m.ExportGLB(&bytes.Buffer{}); err == nil {
		t.Error("expected ExportGLB to fail on empty model")
	}
}
