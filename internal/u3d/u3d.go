// Package u3d holds the U3D placeholder payloads and the file checks every
// converter strategy is judged by.
package u3d

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// Magic is the 4-byte file identifier "U3D\0".
const Magic = "U3D\x00"

// MinValidSize is the smallest file the embedding step accepts without a warning.
const MinValidSize = 100

var ErrOutputMissing = errors.New("u3d: output missing or empty")

// Type is the filetype registration for U3D payloads.
var Type = filetype.NewType("u3d", "model/u3d")

func init() {
	filetype.AddMatcher(Type, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte(Magic))
	})
}

// placeholderHex is a header block, a metadata block header and a minimal
// view/model resource body.
var placeholderHex = strings.Join([]string{
	// file header
	"55334400", "00000000", "00000000", "00000100",
	"00000000", "FFFFFFFF", "00000000", "00000020",
	// block header
	"FFFFFFFF", "FF000000", "00000000", "00000000", "00000030", "00000000",
	// view resource
	"01000000", "0000000000000000", "0000000A00000000",
	"CDCC4C3ECDCC4C3E", "0000803F00000000", "0000000000000000",
	// model resource
	"01000000", "0000000000000000", "0100000000000000",
}, "")

// dummyHex is the shorter payload used when a PDF is built without a model.
var dummyHex = strings.Join([]string{
	"55334400", "00000000", "FFFFFFFF", "00000069", "0000000C", "00000020",
	"FFFFFFFFFF000001", "0000000000000000", "0000001000000000", "0000000000000000",
	"0000000000000000", "0000000000000000",
}, "")

// Placeholder returns the placeholder written when every converter failed.
func Placeholder() []byte {
	return mustHex(placeholderHex)
}

// Dummy returns the stand-in model embedded by u3d2pdf -dummy.
func Dummy() []byte {
	return mustHex(dummyHex)
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("u3d: bad embedded payload: %v", err))
	}
	return b
}

// WritePlaceholder writes Placeholder() to path, creating parent directories.
func WritePlaceholder(path string) error {
	return WriteBytes(path, Placeholder())
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// OutputReady reports whether a converter produced a usable file.
func OutputReady(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputMissing, path, err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrOutputMissing, path)
	}
	return nil
}

// Report is the result of Check.
type Report struct {
	Size     int64
	HasMagic bool
	Kind     types.Type
}

// Valid means the header carries the magic and the file is not trivially small.
func (r Report) Valid() bool {
	return r.HasMagic && r.Size >= MinValidSize
}

// Warnings lists human-readable problems, empty when Valid.
func (r Report) Warnings() []string {
	var out []string
	if !r.HasMagic {
		out = append(out, "U3D file does not have valid magic bytes")
	}
	if r.Size < MinValidSize {
		out = append(out, fmt.Sprintf("U3D file is very small (%d bytes), may not be valid", r.Size))
	}
	return out
}

// Check inspects the header and size of a U3D file.
func Check(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Report{}, err
	}
	head := make([]byte, 32)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Report{}, err
	}
	return CheckBytes(head[:n], info.Size()), nil
}

// CheckBytes applies Check to an in-memory header.
func CheckBytes(head []byte, size int64) Report {
	kind, _ := filetype.Match(head)
	return Report{
		Size:     size,
		HasMagic: kind == Type,
		Kind:     kind,
	}
}
