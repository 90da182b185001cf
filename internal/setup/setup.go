// Package setup prepares a host for the converters: system packages, the
// converter locale, an IDTFConverter build and a self-test conversion.
package setup

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/pipeline"
	"github.com/danmuck/meshu3d/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedRepo = errors.New("setup: unsupported repository")
	ErrUnsupportedOS   = errors.New("setup: unsupported operating system")
)

// DefaultRepo is the U3D SDK that ships IDTFConverter.
const DefaultRepo = "https://github.com/CesiumGS/u3d.git"

var (
	aptPackages = []string{
		"libgl1-mesa-dev", "xvfb", "libglib2.0-0",
		"build-essential", "libpng-dev", "libjpeg-dev", "locales",
	}
	brewPackages = []string{"jpeg", "libpng"}
)

type InstallerConfig struct {
	Runner tools.CommandRunner
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Sudo prefixes package manager and locale-gen calls with sudo.
	Sudo bool
}

// Installer runs host setup commands through a CommandRunner.
type Installer struct {
	runner tools.CommandRunner
	goos   string
	sudo   bool
}

func NewInstaller(cfg InstallerConfig) *Installer {
	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	goos := strings.TrimSpace(cfg.GOOS)
	if goos == "" {
		goos = runtime.GOOS
	}
	return &Installer{runner: runner, goos: goos, sudo: cfg.Sudo}
}

// InstallSystemDeps installs the libraries the converters link against.
// Windows only gets guidance in the log.
func (i *Installer) InstallSystemDeps() error {
	switch i.goos {
	case "linux":
		if err := i.privileged("apt", "update"); err != nil {
			return err
		}
		return i.privileged("apt", append([]string{"install", "-y"}, aptPackages...)...)
	case "darwin":
		if err := i.runCommand("brew", append([]string{"install"}, brewPackages...)...); err != nil {
			log.Warn().Err(err).Msg("setup.deps brew failed; install jpeg and libpng manually")
			return err
		}
		return nil
	case "windows":
		log.Info().Msg("setup.deps windows: libraries ship with MeshLab; install the Visual C++ Redistributable if converters fail to start")
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOS, i.goos)
	}
}

// SetupLocale generates the converter locale on Linux and pins LC_ALL and
// LANG for this process so every child inherits them.
func (i *Installer) SetupLocale(locale string) error {
	if strings.TrimSpace(locale) == "" {
		locale = tools.DefaultLocale
	}
	var genErr error
	if i.goos == "linux" {
		genErr = i.privileged("locale-gen", locale)
	}
	for _, key := range []string{"LC_ALL", "LANG"} {
		if err := os.Setenv(key, locale); err != nil {
			return err
		}
	}
	if genErr != nil {
		return genErr
	}
	log.Info().Str("locale", locale).Msg("setup.locale set")
	return nil
}

// BuildIDTFConverter clones repo into dir when missing and builds it with
// cmake. It returns the directory holding the built binaries.
func (i *Installer) BuildIDTFConverter(repo, dir string) (string, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		repo = DefaultRepo
	}
	if err := validateGitHubRepo(repo); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", err
	}

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := i.runCommand("git", "clone", repo, dir); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else {
		log.Info().Str("dir", dir).Msg("setup.idtf source already present")
	}

	build := filepath.Join(dir, "build")
	if err := os.MkdirAll(build, 0o755); err != nil {
		return "", err
	}
	if i.goos == "windows" {
		if err := i.runCommand("cmake", "-S", dir, "-B", build, "-G", "Visual Studio 16 2019"); err != nil {
			return "", err
		}
		if err := i.runCommand("cmake", "--build", build, "--config", "Release"); err != nil {
			return "", err
		}
	} else {
		if err := i.runCommand("cmake", "-S", dir, "-B", build); err != nil {
			return "", err
		}
		if err := i.runCommand("make", "-C", build); err != nil {
			return "", err
		}
	}
	bin := filepath.Join(build, "bin")
	log.Info().Str("bin", bin).Msg("setup.idtf built")
	return bin, nil
}

// AppendPath adds dir to the end of PATH for this process.
func AppendPath(dir string) error {
	current := os.Getenv("PATH")
	if current == "" {
		return os.Setenv("PATH", dir)
	}
	for _, p := range filepath.SplitList(current) {
		if p == dir {
			return nil
		}
	}
	return os.Setenv("PATH", current+string(os.PathListSeparator)+dir)
}

// SelfTest writes a cube STL into dir and converts it with the mesh
// pipeline. A placeholder result counts as a failure.
func SelfTest(conv *pipeline.Converter, dir string) (pipeline.Result, error) {
	stl := filepath.Join(dir, "cube.stl")
	if err := mesh.WriteSTL(stl, mesh.Cube()); err != nil {
		return pipeline.Result{}, fmt.Errorf("setup: write test mesh: %w", err)
	}
	log.Info().Str("stl", stl).Msg("setup.selftest test mesh written")
	res, err := conv.MeshToU3D(pipeline.MeshRequest{Input: stl, Output: filepath.Join(dir, "cube.u3d")})
	if err != nil {
		return res, fmt.Errorf("setup: self-test conversion: %w", err)
	}
	log.Info().Str("u3d", res.U3D).Str("strategy", res.Strategy).Msg("setup.selftest passed")
	return res, nil
}

func (i *Installer) privileged(name string, args ...string) error {
	if i.sudo {
		return i.runCommand("sudo", append([]string{name}, args...)...)
	}
	return i.runCommand(name, args...)
}

func (i *Installer) runCommand(name string, args ...string) error {
	log.Info().Str("cmd", tools.CommandLine(name, args...)).Msg("setup.exec")
	stdout, stderr, exitCode, err := i.runner.Run(name, args...)
	if err == nil && exitCode == 0 {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("exit status %d", exitCode)
	}
	return fmt.Errorf(
		"setup command failed cmd=%s args=%q exit=%d stdout=%q stderr=%q: %w",
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}

func validateGitHubRepo(repo string) error {
	u, err := url.Parse(repo)
	if err != nil {
		return fmt.Errorf("%w: repo=%q parse error: %v", ErrUnsupportedRepo, repo, err)
	}
	if u.Scheme != "https" || !strings.EqualFold(u.Host, "github.com") {
		return fmt.Errorf("%w: repo=%q must be https://github.com/*", ErrUnsupportedRepo, repo)
	}
	if strings.TrimSpace(u.Path) == "" || u.Path == "/" {
		return fmt.Errorf("%w: repo=%q missing repository path", ErrUnsupportedRepo, repo)
	}
	return nil
}
