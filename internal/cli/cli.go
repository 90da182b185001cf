// Package cli holds the flag, config and exit plumbing shared by the
// meshu3d commands.
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/meshu3d/internal/logging"
	"github.com/danmuck/meshu3d/internal/observability"
	"github.com/danmuck/meshu3d/internal/pipeline"
	"github.com/danmuck/meshu3d/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	// EnvConfig names a config file when -config is not given.
	EnvConfig = "MESHU3D_CONFIG"
	// DefaultConfigFile is picked up from the working directory when present.
	DefaultConfigFile = "meshu3d.toml"
)

// ErrUsage reports bad arguments; the command prints its usage.
var ErrUsage = errors.New("usage")

// Common are the flags every command accepts.
type Common struct {
	ConfigPath string
	Verbose    bool
	Keep       bool
	Locale     string
}

func RegisterCommon(fs *flag.FlagSet) *Common {
	c := &Common{}
	fs.StringVar(&c.ConfigPath, "config", "", "path to meshu3d.toml (default $"+EnvConfig+" or ./"+DefaultConfigFile+")")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&c.Keep, "keep", false, "keep the temporary workspace and intermediate files")
	fs.StringVar(&c.Locale, "locale", "", "locale forced on converter processes (default "+tools.DefaultLocale+")")
	return c
}

// Main configures logging, runs the command and exits 1 on error.
func Main(command string, run func(args []string) error) {
	logging.ConfigureRuntime(command)
	err := run(os.Args[1:])
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
	os.Exit(1)
}

// Setup loads settings for command and applies the common flags that were
// set explicitly on fs.
func Setup(command string, fs *flag.FlagSet, common *Common) (Settings, error) {
	logging.SetVerbose(common.Verbose)
	s, err := Load(ResolveConfigPath(common.ConfigPath), command)
	if err != nil {
		return Settings{}, err
	}
	set := Visited(fs)
	if set["keep"] {
		s.Config.KeepIntermediate = common.Keep
	}
	if set["locale"] {
		s.Config.Locale = common.Locale
	}
	return s, nil
}

// ResolveConfigPath returns flagValue, then $MESHU3D_CONFIG, then
// ./meshu3d.toml if it exists, else "".
func ResolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	if info, err := os.Stat(DefaultConfigFile); err == nil && info.Mode().IsRegular() {
		return DefaultConfigFile
	}
	return ""
}

// Visited returns the names of flags set on the command line.
func Visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// NewConverter builds a pipeline converter from the settings. Pinned tool
// paths from flags override the config.
func (s Settings) NewConverter(runner tools.CommandRunner, pins map[string]string) (*pipeline.Converter, error) {
	pinned := make(map[string]string, len(s.Config.Tools)+len(pins))
	for id, path := range s.Config.Tools {
		pinned[id] = path
	}
	for id, path := range pins {
		if strings.TrimSpace(path) != "" {
			pinned[id] = path
		}
	}
	return pipeline.New(pipeline.Options{
		Runner:    runner,
		Pinned:    pinned,
		Locale:    s.Config.Locale,
		WorkRoot:  s.Config.WorkRoot,
		Keep:      s.Config.KeepIntermediate,
		IDTFOrder: s.Config.Convert.IDTFOrder,
		STLOrder:  s.Config.Convert.STLOrder,
		Commands:  s.Config.Convert.Commands,
	})
}

// Finish writes the metrics textfile when configured. Failures are logged.
func (s Settings) Finish() {
	if err := observability.WriteTextfile(s.Config.MetricsTextfile); err != nil {
		log.Warn().Err(err).Str("path", s.Config.MetricsTextfile).Msg("cli.metrics textfile write failed")
	}
}

// Report logs how a pipeline ended, one line per attempt.
func Report(command string, res pipeline.Result) {
	for _, a := range res.Attempts {
		ev := log.Debug()
		if a.Err != nil && a.Outcome != observability.OutcomeSkipped {
			ev = log.Info().Err(a.Err)
		}
		ev.Str("strategy", a.Strategy).Str("outcome", a.Outcome).Dur("took", a.Duration).Msg(command + " attempt")
	}
}

// Confirm asks a y/n question on in and reports whether the answer was y.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/n): ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
