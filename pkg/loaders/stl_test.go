package loaders

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// binarySTL encodes facets given as normal followed by three vertices
func binarySTL(header string, facets [][4][3]float32) []byte {
	var buf bytes.Buffer
	head := make([]byte, stlHeaderSize)
	copy(head, header)
	buf.Write(head)
	binary.Write(&buf, binary.LittleEndian, uint32(len(facets)))
	for _, facet := range facets {
		binary.Write(&buf, binary.LittleEndian, facet)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

var tetrahedronFacets = [][4][3]float32{
	{{0, 0, -1}, {0, 0, 0}, {0, 1, 0}, {1, 0, 0}},
	{{0, -1, 0}, {0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0.577, 0.577, 0.577}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
}

func TestParseSTL_Binary(t *testing.T) {
	// A binary header that happens to start with "solid" must still parse as binary
	for _, header := range []string{"binary tetrahedron", "solid but really binary"} {
		data, err := ParseSTL(binarySTL(header, tetrahedronFacets))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", header, err)
		}
		if data.FacetCount() != 4 || len(data.Vertices) != 12 {
			t.Fatalf("%q: expected 4 facets and 12 vertices, got %d and %d", header, data.FacetCount(), len(data.Vertices))
		}
		if data.Vertices[5] != core.NewVec3(0, 0, 1) {
			t.Errorf("%q: unexpected vertex %v", header, data.Vertices[5])
		}
		if data.Normals[0] != core.NewVec3(0, 0, -1) {
			t.Errorf("%q: unexpected normal %v", header, data.Normals[0])
		}
	}
}

func TestParseSTL_ASCII(t *testing.T) {
	input := `solid triangle
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1.5e0 0
    endloop
  endfacet
  facet normal 0 0 0
    outer loop
      vertex 1 0 0
      vertex 1 1 0
      vertex 0 1.5 0
    endloop
  endfacet
endsolid triangle
`
	data, err := ParseSTL([]byte(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if data.FacetCount() != 2 {
		t.Fatalf("Expected 2 facets, got %d", data.FacetCount())
	}
	if data.Vertices[2] != core.NewVec3(0, 1.5, 0) {
		t.Errorf("Unexpected vertex %v", data.Vertices[2])
	}
}

func TestParseSTL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not stl", "hello world"},
		{"too few vertices", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nendloop\nendfacet\nendsolid\n"},
		{"bad number", "solid x\nfacet normal 0 0 one\nendfacet\nendsolid\n"},
		{"vertex outside facet", "solid x\nvertex 0 0 0\nendsolid\n"},
		{"unterminated", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n"},
		{"unknown keyword", "solid x\ncolor 1 2 3\nendsolid\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSTL([]byte(tt.input)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
