package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/danmuck/meshu3d/internal/idtf"
	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

// IDTFConverter compiles IDTF with the native converter. Mesh inputs are
// serialized to IDTF first.
type IDTFConverter struct {
	tb *Toolbox
}

func NewIDTFConverter(tb *Toolbox) *IDTFConverter {
	return &IDTFConverter{tb: tb}
}

func (s *IDTFConverter) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "idtf.converter",
		Name:        "IDTFConverter",
		Description: "Compile IDTF to U3D with the native IDTFConverter binary",
		Tools:       []string{toolchain.IDTFConverter},
	}
}

func (s *IDTFConverter) Convert(job Job) error {
	tool, err := s.tb.Tool(toolchain.IDTFConverter)
	if err != nil {
		return err
	}
	in, err := idtfInput(job)
	if err != nil {
		return err
	}
	return compileIDTF(s.tb, tool.Path, in, job.Output)
}

// compileIDTF tries the converter's flag syntax, then the positional form
// some builds expect.
func compileIDTF(tb *Toolbox, converter, in, out string) error {
	flagErr := tb.Run(converter, "-input", in, "-output", out)
	if flagErr == nil {
		if flagErr = u3d.OutputReady(out); flagErr == nil {
			return nil
		}
	}
	log.Debug().Err(flagErr).Str("converter", converter).Msg("convert.idtf flag syntax failed, trying positional")
	posErr := tb.Run(converter, in, out)
	if posErr == nil {
		return nil
	}
	if errors.Is(flagErr, ErrSkipped) && errors.Is(posErr, ErrSkipped) {
		return posErr
	}
	return errors.Join(flagErr, posErr)
}

// idtfInput returns job.Input when it is IDTF, otherwise writes an IDTF
// rendition of the mesh into the work dir.
func idtfInput(job Job) (string, error) {
	if job.inputExt() == ".idtf" {
		return job.Input, nil
	}
	m, err := job.loadMesh()
	if err != nil {
		return "", fmt.Errorf("%w: cannot build IDTF from %s: %w", ErrSkipped, job.Input, err)
	}
	work, err := job.ensureWorkDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(work, job.stem()+".idtf")
	opts := idtf.DefaultOptions()
	if strings.TrimSpace(m.Name) != "" {
		opts.NodeName = m.Name
	}
	if err := idtf.WriteFile(path, m, opts); err != nil {
		return "", err
	}
	log.Debug().Str("idtf", path).Int("vertices", m.VertexCount()).Int("faces", m.FaceCount()).Msg("convert.idtf intermediate written")
	return path, nil
}

// GemBundled runs the IDTFConverter shipped inside an installed u3d gem.
type GemBundled struct {
	tb *Toolbox
}

func NewGemBundled(tb *Toolbox) *GemBundled {
	return &GemBundled{tb: tb}
}

func (s *GemBundled) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "gem.bundled",
		Name:        "Bundled IDTFConverter",
		Description: "Run the IDTFConverter found under the u3d gem's ext directory",
		Tools:       []string{toolchain.Gem},
	}
}

func (s *GemBundled) Convert(job Job) error {
	gem, err := s.tb.Tool(toolchain.Gem)
	if err != nil {
		return err
	}
	out, err := s.tb.Output(gem.Path, "environment", "gempath")
	if err != nil {
		return err
	}
	converter, ok := FindBundledConverter(filepath.SplitList(out))
	if !ok {
		return fmt.Errorf("%w: no IDTFConverter in gem paths %q", ErrSkipped, out)
	}
	log.Info().Str("converter", converter).Msg("convert.gem bundled converter found")
	in, err := idtfInput(job)
	if err != nil {
		return err
	}
	return compileIDTF(s.tb, converter, in, job.Output)
}

// FindBundledConverter walks <gempath>/gems/u3d-*/ext for an executable
// IDTFConverter.
func FindBundledConverter(gemPaths []string) (string, bool) {
	name := "IDTFConverter"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, root := range gemPaths {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		exts, _ := filepath.Glob(filepath.Join(root, "gems", "u3d-*", "ext"))
		for _, ext := range exts {
			var found string
			_ = filepath.WalkDir(ext, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() || d.Name() != name {
					return nil
				}
				if executable(path) {
					found = path
					return fs.SkipAll
				}
				return nil
			})
			if found != "" {
				return found, true
			}
		}
	}
	return "", false
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
