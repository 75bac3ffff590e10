package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal + 3 vertices as float32, plus a uint16 attribute
)

// STLData holds unindexed facets: three vertices and one normal per facet
type STLData struct {
	Vertices []core.Vec3
	Normals  []core.Vec3
}

// FacetCount returns the number of facets
func (d *STLData) FacetCount() int {
	return len(d.Normals)
}

// LoadSTL loads a binary or ASCII STL file
func LoadSTL(filename string) (*STLData, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open STL file: %w", err)
	}
	return ParseSTL(content)
}

// ParseSTL detects the encoding and parses STL content.
// Files whose size matches the binary facet count are binary even when the header starts with "solid".
func ParseSTL(content []byte) (*STLData, error) {
	if isBinarySTL(content) {
		return parseBinarySTL(content)
	}
	if bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(content)
	}
	return nil, errors.New("not an STL file")
}

// isBinarySTL reports whether the declared facet count matches the content size
func isBinarySTL(content []byte) bool {
	if len(content) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(content[stlHeaderSize:])
	return int64(len(content)) == stlHeaderSize+4+int64(count)*stlFacetSize
}

func parseBinarySTL(content []byte) (*STLData, error) {
	count := int(binary.LittleEndian.Uint32(content[stlHeaderSize:]))
	data := &STLData{
		Vertices: make([]core.Vec3, 0, count*3),
		Normals:  make([]core.Vec3, 0, count),
	}

	body := content[stlHeaderSize+4:]
	for i := 0; i < count; i++ {
		facet := body[i*stlFacetSize : (i+1)*stlFacetSize]
		data.Normals = append(data.Normals, readSTLVec(facet[0:12]))
		for v := 0; v < 3; v++ {
			offset := 12 + v*12
			data.Vertices = append(data.Vertices, readSTLVec(facet[offset:offset+12]))
		}
	}
	return data, nil
}

func readSTLVec(b []byte) core.Vec3 {
	return core.NewVec3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:12]))),
	)
}

// parseASCIISTL reads "facet normal" / "vertex" records; other keywords are structural
func parseASCIISTL(content []byte) (*STLData, error) {
	data := &STLData{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNumber := 0
	vertsInFacet := 0
	inFacet := false

	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("line %d: malformed facet", lineNumber)
			}
			normal, err := parseSTLVec(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			data.Normals = append(data.Normals, normal)
			inFacet = true
			vertsInFacet = 0
		case "vertex":
			if !inFacet || len(fields) != 4 {
				return nil, fmt.Errorf("line %d: unexpected vertex", lineNumber)
			}
			vertex, err := parseSTLVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			data.Vertices = append(data.Vertices, vertex)
			vertsInFacet++
		case "endfacet":
			if vertsInFacet != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices", lineNumber, vertsInFacet)
			}
			inFacet = false
		case "solid", "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("line %d: unknown keyword %q", lineNumber, fields[0])
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	if inFacet {
		return nil, errors.New("unterminated facet")
	}

	return data, nil
}

func parseSTLVec(fields []string) (core.Vec3, error) {
	var v [3]float64
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid number %q", field)
		}
		v[i] = value
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}
