package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"text/template"

	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

// exitGemMissing is what the generated script exits with on LoadError.
const exitGemMissing = 3

var rubyScript = template.Must(template.New("u3d.rb").Parse(`#!/usr/bin/env ruby
input_file = File.expand_path(ARGV[0])
output_file = File.expand_path(ARGV[1])
idtf_file = File.expand_path(ARGV[2])

puts "Converting #{input_file} to #{output_file}"
output_dir = File.dirname(output_file)
Dir.mkdir(output_dir) unless Dir.exist?(output_dir)

begin
  require 'u3d'
{{- if .FromSTL }}
  require 'u3d/stl_to_idtf'
  puts "Creating IDTF file: #{idtf_file}"
  U3d::StlToIdtf.new.convert(input_file, idtf_file)
{{- else }}
  idtf_file = input_file
{{- end }}
  require 'u3d/idtf_to_u3d'
  puts "Converting IDTF to U3D"
  U3d::IDTF2U3d.new.convert(idtf_file, output_file)
  puts "Conversion completed successfully: #{output_file}"
  exit 0
rescue LoadError => e
  puts "Could not find required modules: #{e.message}"
  exit {{ .GemMissingExit }}
rescue => e
  puts "Error: #{e.message}"
  puts e.backtrace
  exit 1
end
`))

// RenderRubyScript returns the gem conversion script for STL or IDTF input.
func RenderRubyScript(fromSTL bool) ([]byte, error) {
	var buf bytes.Buffer
	err := rubyScript.Execute(&buf, struct {
		FromSTL        bool
		GemMissingExit int
	}{fromSTL, exitGemMissing})
	return buf.Bytes(), err
}

// GemScript drives the u3d gem's Ruby API through a generated script.
type GemScript struct {
	tb *Toolbox
}

func NewGemScript(tb *Toolbox) *GemScript {
	return &GemScript{tb: tb}
}

func (s *GemScript) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "gem.script",
		Name:        "u3d gem API",
		Description: "Run a Ruby script calling U3d::StlToIdtf and U3d::IDTF2U3d",
		Tools:       []string{toolchain.Ruby},
	}
}

func (s *GemScript) Convert(job Job) error {
	ruby, err := s.tb.Tool(toolchain.Ruby)
	if err != nil {
		return err
	}

	in := job.Input
	fromSTL := job.inputExt() == ".stl"
	if !fromSTL {
		if in, err = idtfInput(job); err != nil {
			return err
		}
	}
	script, err := RenderRubyScript(fromSTL)
	if err != nil {
		return err
	}
	work, err := job.ensureWorkDir()
	if err != nil {
		return err
	}
	scriptPath := filepath.Join(work, "u3d_convert.rb")
	if err := os.WriteFile(scriptPath, script, 0o755); err != nil {
		return err
	}
	defer os.Remove(scriptPath)

	idtfPath := filepath.Join(work, job.stem()+".gem.idtf")
	err = s.tb.Run(ruby.Path, scriptPath, in, job.Output, idtfPath)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Exit == exitGemMissing {
		return errors.Join(ErrSkipped, err)
	}
	return err
}

// GemCLI tries the command syntaxes different u3d gem releases accepted.
type GemCLI struct {
	tb *Toolbox
}

func NewGemCLI(tb *Toolbox) *GemCLI {
	return &GemCLI{tb: tb}
}

func (s *GemCLI) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "gem.cli",
		Name:        "u3d gem CLI",
		Description: "Invoke the u3d executable with each known argument syntax",
		Tools:       []string{toolchain.U3DGem},
	}
}

// GemCLISyntaxes lists the argument forms in the order they are tried.
func GemCLISyntaxes(in, out string) [][]string {
	return [][]string{
		{"convert", in, out},
		{"convert", "--input", in, "--output", out},
		{"--input", in, "--output", out},
	}
}

func (s *GemCLI) Convert(job Job) error {
	tool, err := s.tb.Tool(toolchain.U3DGem)
	if err != nil {
		return err
	}
	var errs []error
	for _, args := range GemCLISyntaxes(job.Input, job.Output) {
		err := s.tb.Run(tool.Path, args...)
		if err == nil {
			if err = u3d.OutputReady(job.Output); err == nil {
				return nil
			}
		}
		log.Debug().Err(err).Strs("args", args).Msg("convert.gem cli syntax failed")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
