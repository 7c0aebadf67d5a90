package obj

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF converts the live geometry into a single-mesh glTF document.
// Polygons are fan-triangulated and corners sharing the same vertex,
// texture coordinate and normal are merged. Texture V is flipped to the
// glTF top-left origin.
func (m *Model) ExportGLTF() (*gltf.Document, error) {
	type corner struct{ v, vt, vn int }

	remap := m.vertexRemap()
	cornerIndex := make(map[corner]uint32)

	var (
		positions  [][3]float32
		normals    [][3]float32
		uvs        [][2]float32
		indices    []uint32
		hasNormals bool
		hasUVs     bool
	)

	emit := func(r Ref) uint32 {
		c := corner{r.Vertex, r.TexCoord, r.Normal}
		if idx, ok := cornerIndex[c]; ok {
			return idx
		}
		idx := uint32(len(positions))
		cornerIndex[c] = idx

		positions = append(positions, m.Vertices[r.Vertex].Position.Array())

		var n [3]float32
		if r.Normal >= 0 {
			n = m.Normals[r.Normal].Normalize().Array()
			hasNormals = true
		}
		normals = append(normals, n)

		var uv [2]float32
		if r.TexCoord >= 0 {
			t := m.TexCoords[r.TexCoord]
			uv = [2]float32{float32(t.X), float32(1 - t.Y)}
			hasUVs = true
		}
		uvs = append(uvs, uv)
		return idx
	}

	for _, f := range m.Faces {
		if _, ok := m.faceLine(f, remap); !ok {
			continue
		}
		first := emit(f.Refs[0])
		for i := 1; i < len(f.Refs)-1; i++ {
			indices = append(indices, first, emit(f.Refs[i]), emit(f.Refs[i+1]))
		}
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", ErrEmptyOrDegenerate)
	}

	name := m.Name
	if name == "" {
		name = DefaultObjectName
	}

	doc := gltf.NewDocument()
	attributes := make(map[string]uint32)
	attributes["POSITION"] = modeler.WritePosition(doc, positions)
	if hasNormals {
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}
	if hasUVs {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}
	indicesAccessor := modeler.WriteIndices(doc, indices)

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(indicesAccessor),
				Attributes: attributes,
				Material:   gltf.Index(0),
			},
		},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: name,
		Mesh: gltf.Index(0),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	return doc, nil
}

// ExportGLB writes the model as binary glTF.
func (m *Model) ExportGLB(w io.Writer) error {
	doc, err := m.ExportGLTF()
	if err != nil {
		return err
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	return nil
}
