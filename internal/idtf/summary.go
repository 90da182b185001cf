package idtf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Summary holds the declared counts of the first MESH block and the number
// of entries actually present in its lists.
type Summary struct {
	FaceCount          int
	PositionCount      int
	FacePositionList   int
	ModelPositionList  int
	ResourceNames      []string
	NodeResourceName   string
	ShaderMaterialName string
}

// Consistent reports whether declared counts match list lengths and the
// node references a declared resource.
func (s Summary) Consistent() error {
	if s.FaceCount != s.FacePositionList {
		return fmt.Errorf("idtf: FACE_COUNT %d but %d face entries", s.FaceCount, s.FacePositionList)
	}
	if s.PositionCount != s.ModelPositionList {
		return fmt.Errorf("idtf: MODEL_POSITION_COUNT %d but %d position entries", s.PositionCount, s.ModelPositionList)
	}
	found := false
	for _, name := range s.ResourceNames {
		if name == s.NodeResourceName {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("idtf: node references missing resource %q", s.NodeResourceName)
	}
	return nil
}

// ReadSummary scans an IDTF document written by Write.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	list := ""
	inNode := false
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch {
		case text == `NODE "MODEL" {`:
			inNode = true
		case fields[0] == "RESOURCE_LIST":
			inNode = false
		case fields[0] == "RESOURCE_NAME" && len(fields) > 1:
			name := unquote(fields[1])
			if inNode {
				s.NodeResourceName = name
			} else {
				s.ResourceNames = append(s.ResourceNames, name)
			}
		case fields[0] == "SHADER_MATERIAL_NAME" && len(fields) > 1:
			s.ShaderMaterialName = unquote(fields[1])
		case fields[0] == "FACE_COUNT" && len(fields) > 1:
			if err := atoi(fields[1], &s.FaceCount); err != nil {
				return s, err
			}
		case fields[0] == "MODEL_POSITION_COUNT" && len(fields) > 1:
			if err := atoi(fields[1], &s.PositionCount); err != nil {
				return s, err
			}
		case fields[0] == "MESH_FACE_POSITION_LIST" || fields[0] == "MODEL_POSITION_LIST":
			list = fields[0]
		case text == "}":
			list = ""
		case list != "" && strings.HasSuffix(fields[0], ":"):
			if list == "MESH_FACE_POSITION_LIST" {
				s.FacePositionList++
			} else {
				s.ModelPositionList++
			}
		case strings.HasSuffix(text, "{"):
			list = ""
		}
	}
	return s, scanner.Err()
}

// ReadSummaryFile is ReadSummary on a file path.
func ReadSummaryFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	return ReadSummary(f)
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}

func atoi(raw string, out *int) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("idtf: bad count %q: %w", raw, err)
	}
	*out = n
	return nil
}
