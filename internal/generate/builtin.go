package generate

import "context"

// Builtin returns a fixed unit cube. It never fails and is used when no
// model service is configured or the configured one errors.
type Builtin struct{}

// Generate returns the cube regardless of the request.
func (Builtin) Generate(ctx context.Context, req Request) (string, error) {
	return cubeOBJ, nil
}

const cubeOBJ = `# Fallback geometry
o SimpleCube
# GROUP:body
v -0.5 -0.5 -0.5
v 0.5 -0.5 -0.5
v 0.5 0.5 -0.5
v -0.5 0.5 -0.5
v -0.5 -0.5 0.5
v 0.5 -0.5 0.5
v 0.5 0.5 0.5
v -0.5 0.5 0.5
vn 0.0 0.0 -1.0
vn 0.0 0.0 1.0
vn -1.0 0.0 0.0
vn 1.0 0.0 0.0
vn 0.0 -1.0 0.0
vn 0.0 1.0 0.0
f 1//1 2//1 3//1
f 1//1 3//1 4//1
f 5//2 6//2 7//2
f 5//2 7//2 8//2
f 1//3 4//3 8//3
f 1//3 8//3 5//3
f 2//4 6//4 7//4
f 2//4 7//4 3//4
f 1//5 2//5 6//5
f 1//5 6//5 5//5
f 4//6 3//6 7//6
f 4//6 7//6 8//6
`
