package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

var ErrInvalidTemplate = errors.New("convert: invalid command template")

// Command is a user-defined strategy from the [convert.commands] config
// table. {input}, {output} and {workdir} are substituted per argument.
type Command struct {
	tb   *Toolbox
	id   string
	line string
	argv []string
}

// NewCommand parses line with shell quoting rules.
func NewCommand(tb *Toolbox, id, line string) (*Command, error) {
	argv, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w: id=%s: %v", ErrInvalidTemplate, id, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: id=%s: empty command", ErrInvalidTemplate, id)
	}
	if !strings.Contains(line, "{output}") {
		return nil, fmt.Errorf("%w: id=%s: missing {output}", ErrInvalidTemplate, id)
	}
	return &Command{tb: tb, id: id, line: line, argv: argv}, nil
}

func (s *Command) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          s.id,
		Name:        s.argv[0],
		Description: "Configured command: " + s.line,
	}
}

// Args returns the argv for job with placeholders expanded.
func (s *Command) Args(job Job) []string {
	r := strings.NewReplacer("{input}", job.Input, "{output}", job.Output, "{workdir}", job.workDir())
	out := make([]string, len(s.argv))
	for i, a := range s.argv {
		out[i] = r.Replace(a)
	}
	return out
}

func (s *Command) Convert(job Job) error {
	argv := s.Args(job)
	return s.tb.Run(argv[0], argv[1:]...)
}
