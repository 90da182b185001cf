package mesh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/EliCDavis/polyform/formats/obj"
)

// LoadOBJ reads positions and faces from a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadOBJ decodes an OBJ document with polyform. Records are first reduced
// to positions and triangles: polygons are fan-triangulated, negative
// (relative) indices are resolved and every reference is range checked,
// since polyform reads only three corners per face and indexes its vertex
// list unchecked. Groups are merged into one mesh.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	triangles, name, err := triangulateOBJ(r)
	if err != nil {
		return nil, err
	}
	groups, _, err := obj.ReadMesh(triangles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}

	m := &Mesh{Name: name}
	for _, g := range groups {
		part, err := fromModel(g.Mesh)
		if err != nil {
			return nil, err
		}
		if m.Name == "" {
			m.Name = g.Name
		}
		base := len(m.Vertices)
		m.Vertices = append(m.Vertices, part.Vertices...)
		for _, f := range part.Faces {
			m.Faces = append(m.Faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
		}
	}
	return m, nil
}

// triangulateOBJ rewrites the "v", "g" and "f" records of r into a
// triangle-only document with absolute position indices. The first "o"
// name is returned separately.
func triangulateOBJ(r io.Reader) (io.Reader, string, error) {
	var out bytes.Buffer
	name := ""
	vertices := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "o":
			if name == "" && len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
		case "g":
			if len(fields) > 1 {
				fmt.Fprintf(&out, "g %s\n", strings.Join(fields[1:], " "))
			}
		case "v":
			if len(fields) < 4 {
				return nil, "", fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrInvalidMesh, line)
			}
			vertices++
			fmt.Fprintf(&out, "v %s %s %s\n", fields[1], fields[2], fields[3])
		case "f":
			if len(fields) < 4 {
				return nil, "", fmt.Errorf("%w: line %d: face needs 3 vertices", ErrInvalidMesh, line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := faceIndex(ref, vertices)
				if err != nil {
					return nil, "", fmt.Errorf("%w: line %d: %v", ErrInvalidMesh, line, err)
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				fmt.Fprintf(&out, "f %d %d %d\n", idx[0]+1, idx[k]+1, idx[k+1]+1)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return &out, name, nil
}

// faceIndex turns "7", "7/1", "7//3" or "-1" into a zero-based vertex index
// below count.
func faceIndex(ref string, count int) (int, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", ref)
	}
	i := n - 1
	switch {
	case n == 0:
		return 0, fmt.Errorf("face index 0 is not valid")
	case n < 0:
		i = count + n
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("face index %d outside %d vertices", n, count)
	}
	return i, nil
}

// WriteOBJ writes positions and faces with polyform's OBJ writer, grouped
// under the mesh name.
func WriteOBJ(w io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := obj.WriteMeshes([]obj.ObjMesh{{Name: m.Name, Mesh: toModel(m)}}, "", bw); err != nil {
		return err
	}
	return bw.Flush()
}
