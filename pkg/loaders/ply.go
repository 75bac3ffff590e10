package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block declared in the header, in file order
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the geometry loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle); polygons are fan-triangulated
}

// LoadPLY loads a PLY file and returns the raw vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	return ReadPLY(bufio.NewReader(file))
}

// ReadPLY parses PLY data in any of the three standard encodings
func ReadPLY(reader *bufio.Reader) (*PLYData, error) {
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var source plyValueSource
	switch header.Format {
	case "binary_little_endian":
		source = &binaryPLYSource{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		source = &binaryPLYSource{reader: reader, order: binary.BigEndian}
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		source = &asciiPLYSource{scanner: scanner}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	data, err := readPLYElements(source, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data, nil
}

// parsePLYHeader reads header lines up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, fmt.Errorf("unexpected end of header: %w", err)
		}
		line = strings.TrimSpace(line)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element: %q", line)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			element := &header.Elements[len(header.Elements)-1]
			element.Props = append(element.Props, prop)
		}
	}

	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	if getTypeSize(prop.Type) == 0 && !prop.IsList {
		return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
	}
	if prop.IsList && (getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0) {
		return PLYProperty{}, fmt.Errorf("unsupported list types: %s %s", prop.ListType, prop.DataType)
	}

	return prop, nil
}

// readPLYElements walks every element in header order, keeping vertex positions and faces
func readPLYElements(source plyValueSource, header *PLYHeader) (*PLYData, error) {
	data := &PLYData{}

	for _, element := range header.Elements {
		for i := 0; i < element.Count; i++ {
			var position [3]float64
			for _, prop := range element.Props {
				if prop.IsList {
					values, err := readPLYList(source, prop)
					if err != nil {
						return nil, fmt.Errorf("%s %d property %s: %w", element.Name, i, prop.Name, err)
					}
					if element.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
						if len(values) < 3 {
							return nil, fmt.Errorf("face %d has %d vertices", i, len(values))
						}
						// Fan-triangulate polygons
						for k := 1; k+1 < len(values); k++ {
							data.Faces = append(data.Faces, int(values[0]), int(values[k]), int(values[k+1]))
						}
					}
					continue
				}

				value, err := source.next(prop.Type)
				if err != nil {
					return nil, fmt.Errorf("%s %d property %s: %w", element.Name, i, prop.Name, err)
				}
				if element.Name == "vertex" {
					switch prop.Name {
					case "x":
						position[0] = value
					case "y":
						position[1] = value
					case "z":
						position[2] = value
					}
				}
			}
			if element.Name == "vertex" {
				data.Vertices = append(data.Vertices, core.NewVec3(position[0], position[1], position[2]))
			}
		}
	}

	return data, nil
}

// readPLYList reads a count followed by that many values
func readPLYList(source plyValueSource, prop PLYProperty) ([]float64, error) {
	count, err := source.next(prop.ListType)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative list length %v", count)
	}

	values := make([]float64, int(count))
	for k := range values {
		if values[k], err = source.next(prop.DataType); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// plyValueSource yields successive scalar values of the body
type plyValueSource interface {
	next(dataType string) (float64, error)
}

// binaryPLYSource decodes fixed-size binary values
type binaryPLYSource struct {
	reader io.Reader
	order  binary.ByteOrder
}

func (s *binaryPLYSource) next(dataType string) (float64, error) {
	switch dataType {
	case "float", "float32":
		var v float32
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "double", "float64":
		var v float64
		err := binary.Read(s.reader, s.order, &v)
		return v, err
	case "int", "int32":
		var v int32
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "char", "int8":
		var v int8
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(s.reader, s.order, &v)
		return float64(v), err
	default:
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
}

// asciiPLYSource parses whitespace separated values
type asciiPLYSource struct {
	scanner *bufio.Scanner
}

func (s *asciiPLYSource) next(dataType string) (float64, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	value, err := strconv.ParseFloat(s.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, s.scanner.Text())
	}
	return value, nil
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
